package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"portfolio/internal/model"
)

// ShareRepository manages note share grants.
type ShareRepository struct {
	db *gorm.DB
}

func NewShareRepository(db *gorm.DB) *ShareRepository {
	return &ShareRepository{db: db}
}

func (r *ShareRepository) Create(ctx context.Context, share *model.SharedNote) error {
	if err := r.db.WithContext(ctx).Create(share).Error; err != nil {
		return fmt.Errorf("create share: %w", err)
	}
	return nil
}

func (r *ShareRepository) Save(ctx context.Context, share *model.SharedNote) error {
	if err := r.db.WithContext(ctx).Save(share).Error; err != nil {
		return fmt.Errorf("save share: %w", err)
	}
	return nil
}

func (r *ShareRepository) FindByToken(ctx context.Context, token string) (*model.SharedNote, error) {
	var share model.SharedNote
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&share).Error; err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *ShareRepository) FindByID(ctx context.Context, noteID, id string) (*model.SharedNote, error) {
	var share model.SharedNote
	if err := r.db.WithContext(ctx).Where("note_id = ? AND id = ?", noteID, id).First(&share).Error; err != nil {
		return nil, err
	}
	return &share, nil
}

// FindForEmail returns the grant on a note for the given recipient.
func (r *ShareRepository) FindForEmail(ctx context.Context, noteID, email string) (*model.SharedNote, error) {
	var share model.SharedNote
	if err := r.db.WithContext(ctx).Where("note_id = ? AND shared_with_email = ?", noteID, strings.ToLower(email)).
		First(&share).Error; err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *ShareRepository) ListByNote(ctx context.Context, noteID string) ([]model.SharedNote, error) {
	var shares []model.SharedNote
	if err := r.db.WithContext(ctx).Where("note_id = ?", noteID).Order("created_at DESC").Find(&shares).Error; err != nil {
		return nil, err
	}
	return shares, nil
}

// ListActiveForEmail returns unexpired grants addressed to email.
func (r *ShareRepository) ListActiveForEmail(ctx context.Context, email string, now time.Time) ([]model.SharedNote, error) {
	var shares []model.SharedNote
	if err := r.db.WithContext(ctx).
		Where("shared_with_email = ? AND (expires_at IS NULL OR expires_at > ?)", strings.ToLower(email), now).
		Order("created_at DESC").Find(&shares).Error; err != nil {
		return nil, err
	}
	return shares, nil
}

func (r *ShareRepository) Delete(ctx context.Context, noteID, id string) error {
	if err := r.db.WithContext(ctx).Where("note_id = ? AND id = ?", noteID, id).
		Delete(&model.SharedNote{}).Error; err != nil {
		return fmt.Errorf("delete share: %w", err)
	}
	return nil
}

// DeleteExpired purges grants whose expiry has passed and reports how many were removed.
func (r *ShareRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at IS NOT NULL AND expires_at <= ?", now).Delete(&model.SharedNote{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired shares: %w", res.Error)
	}
	return res.RowsAffected, nil
}
