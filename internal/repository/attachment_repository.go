package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"portfolio/internal/model"
)

// AttachmentRepository stores attachment metadata for notes.
type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Create(ctx context.Context, a *model.Attachment) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	return nil
}

func (r *AttachmentRepository) ListByNote(ctx context.Context, noteID string) ([]model.Attachment, error) {
	var items []model.Attachment
	if err := r.db.WithContext(ctx).Where("note_id = ?", noteID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *AttachmentRepository) FindByID(ctx context.Context, noteID, id string) (*model.Attachment, error) {
	var a model.Attachment
	if err := r.db.WithContext(ctx).Where("note_id = ? AND id = ?", noteID, id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttachmentRepository) Delete(ctx context.Context, noteID, id string) error {
	if err := r.db.WithContext(ctx).Where("note_id = ? AND id = ?", noteID, id).
		Delete(&model.Attachment{}).Error; err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}
