package db

import (
	"context"
	"fmt"

	"Gin_postgres_redis_workshop_tools/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tools

func (r *Repo) CreateTool(ctx context.Context, t *models.Tool) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *Repo) FindToolByID(ctx context.Context, id string) (*models.Tool, error) {
	var t models.Tool
	if err := r.DB.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTools 按分类/状态过滤，状态可以给多个
func (r *Repo) ListTools(ctx context.Context, category string, statuses []string) ([]models.Tool, error) {
	q := r.DB.WithContext(ctx).Order("created_at DESC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var tools []models.Tool
	err := q.Find(&tools).Error
	return tools, err
}

// UpdateTool 普通字段更新，状态不走这里（见 UpdateToolStatus）
func (r *Repo) UpdateTool(ctx context.Context, id string, fields map[string]interface{}) (*models.Tool, error) {
	delete(fields, "status")
	delete(fields, "id")

	var t models.Tool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&t, "id = ?", id).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		return tx.Model(&t).Updates(fields).Error
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTool 借出中的工具不许删
func (r *Repo) DeleteTool(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Tool
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&t, "id = ?", id).Error; err != nil {
			return err
		}
		if t.Status == models.ToolBorrowed {
			return ErrToolOnLoan
		}
		return tx.Delete(&t).Error
	})
}

// UpdateToolStatus 管理员手动改状态。
// borrowed→available 必须先还借用；维修/损坏恢复可用时顺手记一笔保养时间。
func (r *Repo) UpdateToolStatus(ctx context.Context, id, status string) (*models.Tool, error) {
	if !models.ValidToolStatus(status) {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	var t models.Tool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&t, "id = ?", id).Error; err != nil {
			return err
		}
		if t.Status == models.ToolBorrowed && status == models.ToolAvailable {
			var n int64
			if err := tx.Model(&models.Loan{}).
				Where("tool_id = ? AND status = ?", id, models.LoanActive).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return ErrToolOnLoan
			}
		}
		updates := map[string]interface{}{"status": status}
		if status == models.ToolAvailable &&
			(t.Status == models.ToolMaintenance || t.Status == models.ToolDamaged) {
			updates["last_maintenance"] = r.now()
		}
		return tx.Model(&t).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}
