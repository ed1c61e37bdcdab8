package db

import (
	"context"

	"Gin_postgres_redis_workshop_tools/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notifications

func (r *Repo) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return r.DB.WithContext(ctx).Create(n).Error
}

func (r *Repo) ListNotifications(ctx context.Context, recipientID string) ([]models.Notification, error) {
	var ns []models.Notification
	err := r.DB.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Find(&ns).Error
	return ns, err
}

func (r *Repo) CountUnreadNotifications(ctx context.Context, recipientID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&n).Error
	return n, err
}

// MarkNotificationRead 只有收件人本人能标记
func (r *Repo) MarkNotificationRead(ctx context.Context, id, recipientID string) (*models.Notification, error) {
	var n models.Notification
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&n, "id = ?", id).Error; err != nil {
			return err
		}
		if n.RecipientID != recipientID {
			return gorm.ErrRecordNotFound // 不暴露别人的通知存在
		}
		if n.Read {
			return nil
		}
		n.Read = true
		return tx.Model(&n).Update("read", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *Repo) DeleteNotification(ctx context.Context, id, recipientID string) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
