package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"portfolio/internal/model"
)

// NotebookRepository manages note notebooks.
type NotebookRepository struct {
	db *gorm.DB
}

func NewNotebookRepository(db *gorm.DB) *NotebookRepository {
	return &NotebookRepository{db: db}
}

func (r *NotebookRepository) Create(ctx context.Context, nb *model.Notebook) error {
	if err := r.db.WithContext(ctx).Create(nb).Error; err != nil {
		return fmt.Errorf("create notebook: %w", err)
	}
	return nil
}

func (r *NotebookRepository) ListByUser(ctx context.Context, userID string) ([]model.Notebook, error) {
	var notebooks []model.Notebook
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&notebooks).Error; err != nil {
		return nil, err
	}
	return notebooks, nil
}

func (r *NotebookRepository) FindByID(ctx context.Context, userID, id string) (*model.Notebook, error) {
	var nb model.Notebook
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&nb).Error; err != nil {
		return nil, err
	}
	return &nb, nil
}

func (r *NotebookRepository) Save(ctx context.Context, nb *model.Notebook) error {
	if err := r.db.WithContext(ctx).Save(nb).Error; err != nil {
		return fmt.Errorf("save notebook: %w", err)
	}
	return nil
}

// Delete removes the notebook and detaches its notes.
func (r *NotebookRepository) Delete(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Note{}).Where("user_id = ? AND notebook_id = ?", userID, id).
			Update("notebook_id", nil).Error; err != nil {
			return fmt.Errorf("detach notes: %w", err)
		}
		if err := tx.Where("user_id = ? AND id = ?", userID, id).Delete(&model.Notebook{}).Error; err != nil {
			return fmt.Errorf("delete notebook: %w", err)
		}
		return nil
	})
}
