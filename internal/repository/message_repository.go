package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"portfolio/internal/model"
)

// MessageRepository stores contact submissions and the outbound email log.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) CreateContact(ctx context.Context, msg *model.ContactMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("create contact message: %w", err)
	}
	return nil
}

func (r *MessageRepository) MarkDelivered(ctx context.Context, msg *model.ContactMessage) error {
	msg.Delivered = true
	if err := r.db.WithContext(ctx).Model(msg).Update("delivered", true).Error; err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}

func (r *MessageRepository) ListContactsSince(ctx context.Context, since time.Time) ([]model.ContactMessage, error) {
	var msgs []model.ContactMessage
	if err := r.db.WithContext(ctx).Where("created_at >= ?", since).Order("created_at DESC").Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *MessageRepository) LogEmail(ctx context.Context, entry *model.EmailLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("log email: %w", err)
	}
	return nil
}

// CountEmailsSince counts successful sends at or after since.
func (r *MessageRepository) CountEmailsSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.EmailLog{}).
		Where("created_at >= ? AND status = ?", since, "sent").Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
