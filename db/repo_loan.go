package db

import (
	"context"
	"fmt"
	"time"

	"Gin_postgres_redis_workshop_tools/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateLoanInput struct {
	ToolID         string
	TechnicianID   string
	Purpose        string
	Vehicle        string
	ExpectedReturn time.Time
}

// CreateLoan 借出：原子操作 = 锁住 tool → 校验可用 → 新建 loan → 置 borrowed
func (r *Repo) CreateLoan(ctx context.Context, in CreateLoanInput) (*models.Loan, error) {
	var loan *models.Loan
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Tool
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&t, "id = ?", in.ToolID).Error; err != nil {
			return err
		}
		if t.Status != models.ToolAvailable {
			return fmt.Errorf("%w (status: %s)", ErrToolNotAvailable, t.Status)
		}
		// 防并发：唯一索引之外再显式查一次未归还借用
		var n int64
		if err := tx.Model(&models.Loan{}).
			Where("tool_id = ? AND status = ?", t.ID, models.LoanActive).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w (status: %s)", ErrToolNotAvailable, models.ToolBorrowed)
		}

		l := &models.Loan{
			ID:             uuid.NewString(),
			ToolID:         t.ID,
			TechnicianID:   in.TechnicianID,
			Purpose:        in.Purpose,
			Vehicle:        in.Vehicle,
			Status:         models.LoanActive,
			BorrowedAt:     r.now(),
			ExpectedReturn: in.ExpectedReturn,
		}
		if err := tx.Create(l).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Tool{}).
			Where("id = ?", t.ID).
			Update("status", models.ToolBorrowed).Error; err != nil {
			return err
		}
		loan = l
		return nil
	})
	return loan, err
}

// ReturnLoan 归还：幂等，已归还/已转出的借用原样返回。
// alreadyResolved=true 表示这次调用没改任何东西。
func (r *Repo) ReturnLoan(ctx context.Context, loanID string, hasDamage bool, notes string) (*models.Loan, bool, error) {
	var l models.Loan
	alreadyResolved := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&l, "id = ?", loanID).Error; err != nil {
			return err
		}
		if l.Status != models.LoanActive {
			alreadyResolved = true
			return nil
		}
		now := r.now()
		l.Status = models.LoanReturned
		l.ActualReturn = &now
		l.ReturnHasDamage = hasDamage
		l.ReturnNotes = notes
		if err := tx.Save(&l).Error; err != nil {
			return err
		}
		// 有损坏进维修台账，否则恢复可借
		toolStatus := models.ToolAvailable
		if hasDamage {
			toolStatus = models.ToolDamaged
		}
		if err := tx.Model(&models.Tool{}).
			Where("id = ?", l.ToolID).
			Update("status", toolStatus).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &l, alreadyResolved, nil
}

type TransferLoanInput struct {
	LoanID         string
	ToTechnicianID string
	InitiatedBy    string
	Purpose        string
	Vehicle        string
	Notes          string
	ExpectedReturn time.Time
}

// TransferLoan 转借：换人、重算到期、通知标记清零、追加历史。
// 借用保持 active，新的通知周期从头开始。
func (r *Repo) TransferLoan(ctx context.Context, in TransferLoanInput) (*models.Loan, error) {
	var l models.Loan
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&l, "id = ?", in.LoanID).Error; err != nil {
			return err
		}
		if l.Status != models.LoanActive {
			return fmt.Errorf("%w (status: %s)", ErrLoanNotActive, l.Status)
		}
		if in.ToTechnicianID == in.InitiatedBy {
			return ErrTransferSelf
		}
		if in.ToTechnicianID == l.TechnicianID {
			return ErrTransferSameHolder
		}
		var target models.User
		if err := tx.First(&target, "id = ?", in.ToTechnicianID).Error; err != nil {
			return err
		}
		if !target.IsActive {
			return ErrTechnicianInactive
		}

		now := r.now()
		entry := models.LoanTransfer{
			LoanID:         l.ID,
			FromTechnician: l.TechnicianID,
			ToTechnician:   in.ToTechnicianID,
			InitiatedBy:    in.InitiatedBy,
			TransferredAt:  now,
			Notes:          in.Notes,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"technician_id":     in.ToTechnicianID,
			"expected_return":   in.ExpectedReturn,
			"due_soon_notified": false,
			"overdue_notified":  false,
			"admin_notified":    false,
		}
		if in.Purpose != "" {
			updates["purpose"] = in.Purpose
		}
		if in.Vehicle != "" {
			updates["vehicle"] = in.Vehicle
		}
		if err := tx.Model(&l).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Preload("Transfers").First(&l, "id = ?", l.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

type LoanFilter struct {
	TechnicianID string
	ToolID       string
	Status       string
}

func (r *Repo) ListLoans(ctx context.Context, f LoanFilter) ([]models.Loan, error) {
	q := r.DB.WithContext(ctx).Model(&models.Loan{}).
		Preload("Transfers").
		Order("borrowed_at DESC")
	if f.TechnicianID != "" {
		q = q.Where("technician_id = ?", f.TechnicianID)
	}
	if f.ToolID != "" {
		q = q.Where("tool_id = ?", f.ToolID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var ls []models.Loan
	if err := q.Find(&ls).Error; err != nil {
		return nil, err
	}
	return ls, nil
}

func (r *Repo) FindLoanByID(ctx context.Context, id string) (*models.Loan, error) {
	var l models.Loan
	if err := r.DB.WithContext(ctx).Preload("Transfers").
		First(&l, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// ListActiveLoans 调度器用：只要 active，按到期时间升序
func (r *Repo) ListActiveLoans(ctx context.Context) ([]models.Loan, error) {
	var ls []models.Loan
	err := r.DB.WithContext(ctx).
		Where("status = ?", models.LoanActive).
		Order("expected_return ASC").
		Find(&ls).Error
	return ls, err
}

// 通知标记只会单向翻 true；转借时的清零在 TransferLoan 里统一做

func (r *Repo) MarkDueSoonNotified(ctx context.Context, loanID string) error {
	return r.markLoanFlag(ctx, loanID, "due_soon_notified")
}

func (r *Repo) MarkOverdueNotified(ctx context.Context, loanID string) error {
	return r.markLoanFlag(ctx, loanID, "overdue_notified")
}

func (r *Repo) MarkAdminNotified(ctx context.Context, loanID string) error {
	return r.markLoanFlag(ctx, loanID, "admin_notified")
}

func (r *Repo) markLoanFlag(ctx context.Context, loanID, column string) error {
	return r.DB.WithContext(ctx).Model(&models.Loan{}).
		Where("id = ?", loanID).
		Update(column, true).Error
}
