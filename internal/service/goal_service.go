package service

import (
	"context"
	"math"
	"strings"
	"time"

	"portfolio/internal/apperr"
	"portfolio/internal/model"
	"portfolio/internal/repository"
	"portfolio/internal/sanitize"
)

const (
	maxGoalTitle       = 200
	maxGoalDescription = 2000
	maxMilestones      = 100
)

// GoalInput is a partial goal update. Nil fields are left unchanged.
type GoalInput struct {
	Title       *string
	Description *string
	Category    *string
	Status      *string
	TargetDate  **time.Time
	Progress    *int
}

// MilestoneInput is a partial milestone update.
type MilestoneInput struct {
	Title     *string
	Completed *bool
	DueDate   **time.Time
	Position  *int
}

// GoalService tracks goals and keeps their progress in sync with milestones.
type GoalService struct {
	goals *repository.GoalRepository
	now   func() time.Time
}

func NewGoalService(goals *repository.GoalRepository) *GoalService {
	return &GoalService{goals: goals, now: func() time.Time { return time.Now().UTC() }}
}

func (s *GoalService) List(ctx context.Context, user *model.User, status string) ([]model.Goal, error) {
	if status != "" && !validGoalStatus(status) {
		return nil, apperr.Invalid("status", "must be active, completed or archived")
	}
	return s.goals.ListByUser(ctx, user.ID, status)
}

func (s *GoalService) Get(ctx context.Context, user *model.User, id uint) (*model.Goal, error) {
	goal, err := s.goals.FindByID(ctx, user.ID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return goal, nil
}

func (s *GoalService) Create(ctx context.Context, user *model.User, input GoalInput) (*model.Goal, error) {
	if input.Title == nil {
		return nil, apperr.Invalid("title", "is required")
	}
	goal := model.Goal{UserID: user.ID, Status: model.GoalActive, Milestones: []model.GoalMilestone{}}
	if err := s.apply(&goal, input); err != nil {
		return nil, err
	}
	if err := s.goals.Create(ctx, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

func (s *GoalService) Update(ctx context.Context, user *model.User, id uint, input GoalInput) (*model.Goal, error) {
	goal, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if input.Progress != nil && len(goal.Milestones) > 0 {
		return nil, apperr.Invalid("progress", "is derived from milestones")
	}
	if err := s.apply(goal, input); err != nil {
		return nil, err
	}
	if err := s.goals.Save(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *GoalService) Delete(ctx context.Context, user *model.User, id uint) error {
	if _, err := s.Get(ctx, user, id); err != nil {
		return err
	}
	return s.goals.Delete(ctx, user.ID, id)
}

func (s *GoalService) AddMilestone(ctx context.Context, user *model.User, goalID uint, input MilestoneInput) (*model.Goal, error) {
	goal, err := s.Get(ctx, user, goalID)
	if err != nil {
		return nil, err
	}
	if len(goal.Milestones) >= maxMilestones {
		return nil, apperr.Invalid("milestones", "too many milestones on this goal")
	}
	if input.Title == nil {
		return nil, apperr.Invalid("title", "is required")
	}

	m := model.GoalMilestone{GoalID: goal.ID, Position: len(goal.Milestones)}
	if n := len(goal.Milestones); n > 0 {
		m.Position = goal.Milestones[n-1].Position + 1
	}
	if err := s.applyMilestone(&m, input); err != nil {
		return nil, err
	}
	if err := s.goals.CreateMilestone(ctx, &m); err != nil {
		return nil, err
	}
	return s.recompute(ctx, goal)
}

func (s *GoalService) UpdateMilestone(ctx context.Context, user *model.User, goalID, id uint, input MilestoneInput) (*model.Goal, error) {
	goal, err := s.Get(ctx, user, goalID)
	if err != nil {
		return nil, err
	}
	m, err := s.goals.FindMilestone(ctx, goal.ID, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.applyMilestone(m, input); err != nil {
		return nil, err
	}
	if err := s.goals.SaveMilestone(ctx, m); err != nil {
		return nil, err
	}
	return s.recompute(ctx, goal)
}

func (s *GoalService) DeleteMilestone(ctx context.Context, user *model.User, goalID, id uint) (*model.Goal, error) {
	goal, err := s.Get(ctx, user, goalID)
	if err != nil {
		return nil, err
	}
	if _, err := s.goals.FindMilestone(ctx, goal.ID, id); err != nil {
		return nil, notFound(err)
	}
	if err := s.goals.DeleteMilestone(ctx, goal.ID, id); err != nil {
		return nil, err
	}
	return s.recompute(ctx, goal)
}

// recompute reloads milestones, derives progress and moves the goal between
// active and completed. Archived goals keep their status. Removing the last
// milestone resets progress to 0 and reopens the goal.
func (s *GoalService) recompute(ctx context.Context, goal *model.Goal) (*model.Goal, error) {
	milestones, err := s.goals.ListMilestones(ctx, goal.ID)
	if err != nil {
		return nil, err
	}
	goal.Milestones = milestones
	goal.Progress = milestoneProgress(milestones)

	// With no milestones left there is nothing to have completed.
	if goal.Status != model.GoalArchived {
		if len(milestones) > 0 && goal.Progress == 100 {
			s.setStatus(goal, model.GoalCompleted)
		} else {
			s.setStatus(goal, model.GoalActive)
		}
	}
	if err := s.goals.Save(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *GoalService) apply(goal *model.Goal, input GoalInput) error {
	if input.Title != nil {
		title := sanitize.Text(*input.Title, 0)
		if title == "" {
			return apperr.Invalid("title", "is required")
		}
		if len([]rune(title)) > maxGoalTitle {
			return apperr.Invalid("title", "must be at most 200 characters")
		}
		goal.Title = title
	}
	if input.Description != nil {
		goal.Description = sanitize.Text(*input.Description, maxGoalDescription)
	}
	if input.Category != nil {
		goal.Category = strings.ToLower(sanitize.Text(*input.Category, 50))
	}
	if input.TargetDate != nil {
		goal.TargetDate = *input.TargetDate
	}
	if input.Progress != nil {
		if *input.Progress < 0 || *input.Progress > 100 {
			return apperr.Invalid("progress", "must be between 0 and 100")
		}
		goal.Progress = *input.Progress
	}
	if input.Status != nil {
		if !validGoalStatus(*input.Status) {
			return apperr.Invalid("status", "must be active, completed or archived")
		}
		s.setStatus(goal, *input.Status)
	}
	return nil
}

func (s *GoalService) applyMilestone(m *model.GoalMilestone, input MilestoneInput) error {
	if input.Title != nil {
		title := sanitize.Text(*input.Title, 0)
		if title == "" {
			return apperr.Invalid("title", "is required")
		}
		if len([]rune(title)) > maxGoalTitle {
			return apperr.Invalid("title", "must be at most 200 characters")
		}
		m.Title = title
	}
	if input.DueDate != nil {
		m.DueDate = *input.DueDate
	}
	if input.Position != nil {
		if *input.Position < 0 {
			return apperr.Invalid("position", "must not be negative")
		}
		m.Position = *input.Position
	}
	if input.Completed != nil && *input.Completed != m.Completed {
		m.Completed = *input.Completed
		if m.Completed {
			now := s.now()
			m.CompletedAt = &now
		} else {
			m.CompletedAt = nil
		}
	}
	return nil
}

func (s *GoalService) setStatus(goal *model.Goal, status string) {
	if goal.Status == status && (status != model.GoalCompleted || goal.CompletedAt != nil) {
		return
	}
	goal.Status = status
	if status == model.GoalCompleted {
		now := s.now()
		goal.CompletedAt = &now
	} else {
		goal.CompletedAt = nil
	}
}

func milestoneProgress(items []model.GoalMilestone) int {
	if len(items) == 0 {
		return 0
	}
	done := 0
	for _, m := range items {
		if m.Completed {
			done++
		}
	}
	return int(math.Round(float64(done) * 100 / float64(len(items))))
}

func validGoalStatus(status string) bool {
	switch status {
	case model.GoalActive, model.GoalCompleted, model.GoalArchived:
		return true
	}
	return false
}
