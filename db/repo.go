package db

import (
	"Gin_postgres_redis_workshop_tools/models"
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// 业务错误，controller 层用 errors.Is 映射成 HTTP 状态码
var (
	ErrToolNotAvailable   = errors.New("tool is not available")
	ErrToolOnLoan         = errors.New("tool is currently on loan")
	ErrLoanNotActive      = errors.New("loan is not active")
	ErrTransferSelf       = errors.New("cannot transfer a loan to yourself")
	ErrTransferSameHolder = errors.New("loan is already assigned to this technician")
	ErrTechnicianInactive = errors.New("target technician is not active")
	ErrTokenExpired       = errors.New("activation token expired")
)

type Repo struct {
	DB *gorm.DB

	now func() time.Time
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{DB: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock 测试用：固定时间源
func (r *Repo) WithClock(now func() time.Time) *Repo {
	r.now = now
	return r
}

// Users

func (r *Repo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

func (r *Repo) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) FindUserByActivationToken(ctx context.Context, token string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("activation_token = ?", token).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// ActivateUser 消费激活令牌并设置密码哈希
func (r *Repo) ActivateUser(ctx context.Context, token, passwordHash string) (*models.User, error) {
	var u models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("activation_token = ?", token).First(&u).Error; err != nil {
			return err
		}
		if u.ActivationExpires != nil && u.ActivationExpires.Before(r.now()) {
			return ErrTokenExpired
		}
		return tx.Model(&u).Updates(map[string]interface{}{
			"password_hash":      passwordHash,
			"activation_token":   nil,
			"activation_expires": nil,
			"is_active":          true,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&users).Error
	return users, err
}

func (r *Repo) ListTechnicians(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.DB.WithContext(ctx).
		Where("role = ? AND is_active = ?", models.RoleTechnician, true).
		Order("name ASC").
		Find(&users).Error
	return users, err
}

// ListActiveAdmins 调度器每轮取一次，循环内只读
func (r *Repo) ListActiveAdmins(ctx context.Context) ([]models.User, error) {
	var admins []models.User
	err := r.DB.WithContext(ctx).
		Where("role = ? AND is_active = ?", models.RoleAdmin, true).
		Find(&admins).Error
	return admins, err
}

func (r *Repo) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&n).Error
	return n, err
}

// SetUserActive 软开关，不做硬删除
func (r *Repo) SetUserActive(ctx context.Context, userID string, active bool) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repo) TouchUserSeen(ctx context.Context, userID string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_seen_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}
