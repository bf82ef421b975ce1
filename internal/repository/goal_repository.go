package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"portfolio/internal/model"
)

// GoalRepository handles CRUD for goals and their milestones.
type GoalRepository struct {
	db *gorm.DB
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

func orderedMilestones(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

func (r *GoalRepository) Create(ctx context.Context, goal *model.Goal) error {
	if err := r.db.WithContext(ctx).Create(goal).Error; err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (r *GoalRepository) ListByUser(ctx context.Context, userID, status string) ([]model.Goal, error) {
	q := r.db.WithContext(ctx).Preload("Milestones", orderedMilestones).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var goals []model.Goal
	if err := q.Order("target_date NULLS LAST, created_at DESC").Find(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

// ListActive returns active goals of every user, used by the daily digest.
func (r *GoalRepository) ListActive(ctx context.Context) ([]model.Goal, error) {
	var goals []model.Goal
	if err := r.db.WithContext(ctx).Preload("Milestones", orderedMilestones).
		Where("status = ?", model.GoalActive).Find(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *GoalRepository) FindByID(ctx context.Context, userID string, id uint) (*model.Goal, error) {
	var goal model.Goal
	if err := r.db.WithContext(ctx).Preload("Milestones", orderedMilestones).
		Where("user_id = ? AND id = ?", userID, id).First(&goal).Error; err != nil {
		return nil, err
	}
	return &goal, nil
}

// Save persists goal fields; milestones are written through their own methods.
func (r *GoalRepository) Save(ctx context.Context, goal *model.Goal) error {
	if err := r.db.WithContext(ctx).Omit("Milestones").Save(goal).Error; err != nil {
		return fmt.Errorf("save goal: %w", err)
	}
	return nil
}

func (r *GoalRepository) Delete(ctx context.Context, userID string, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("goal_id = ?", id).Delete(&model.GoalMilestone{}).Error; err != nil {
			return fmt.Errorf("delete milestones: %w", err)
		}
		if err := tx.Where("user_id = ? AND id = ?", userID, id).Delete(&model.Goal{}).Error; err != nil {
			return fmt.Errorf("delete goal: %w", err)
		}
		return nil
	})
}

func (r *GoalRepository) CreateMilestone(ctx context.Context, m *model.GoalMilestone) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create milestone: %w", err)
	}
	return nil
}

func (r *GoalRepository) FindMilestone(ctx context.Context, goalID, id uint) (*model.GoalMilestone, error) {
	var m model.GoalMilestone
	if err := r.db.WithContext(ctx).Where("goal_id = ? AND id = ?", goalID, id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GoalRepository) SaveMilestone(ctx context.Context, m *model.GoalMilestone) error {
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return fmt.Errorf("save milestone: %w", err)
	}
	return nil
}

func (r *GoalRepository) DeleteMilestone(ctx context.Context, goalID, id uint) error {
	if err := r.db.WithContext(ctx).Where("goal_id = ? AND id = ?", goalID, id).
		Delete(&model.GoalMilestone{}).Error; err != nil {
		return fmt.Errorf("delete milestone: %w", err)
	}
	return nil
}

func (r *GoalRepository) ListMilestones(ctx context.Context, goalID uint) ([]model.GoalMilestone, error) {
	var items []model.GoalMilestone
	if err := orderedMilestones(r.db.WithContext(ctx)).Where("goal_id = ?", goalID).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
