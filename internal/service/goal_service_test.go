package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/apperr"
	"portfolio/internal/model"
	"portfolio/internal/repository"
)

func newGoalService(t *testing.T) *GoalService {
	return NewGoalService(repository.NewGoalRepository(newTestDB(t)))
}

func TestCreateGoalValidation(t *testing.T) {
	svc := newGoalService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, GoalInput{})
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "title", ve.Field)

	_, err = svc.Create(ctx, owner, GoalInput{Title: ptr("Run"), Progress: ptr(120)})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "progress", ve.Field)

	goal, err := svc.Create(ctx, owner, GoalInput{Title: ptr("<b>Run</b> a marathon"), Category: ptr("Health")})
	require.NoError(t, err)
	assert.Equal(t, "Run a marathon", goal.Title)
	assert.Equal(t, "health", goal.Category)
	assert.Equal(t, model.GoalActive, goal.Status)
}

func TestMilestonesDriveProgress(t *testing.T) {
	svc := newGoalService(t)
	ctx := context.Background()
	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	goal, err := svc.Create(ctx, owner, GoalInput{Title: ptr("Ship v1")})
	require.NoError(t, err)

	goal, err = svc.AddMilestone(ctx, owner, goal.ID, MilestoneInput{Title: ptr("design")})
	require.NoError(t, err)
	goal, err = svc.AddMilestone(ctx, owner, goal.ID, MilestoneInput{Title: ptr("build")})
	require.NoError(t, err)
	goal, err = svc.AddMilestone(ctx, owner, goal.ID, MilestoneInput{Title: ptr("launch")})
	require.NoError(t, err)
	require.Len(t, goal.Milestones, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{goal.Milestones[0].Position, goal.Milestones[1].Position, goal.Milestones[2].Position})
	assert.Equal(t, 0, goal.Progress)

	goal, err = svc.UpdateMilestone(ctx, owner, goal.ID, goal.Milestones[0].ID, MilestoneInput{Completed: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, 33, goal.Progress)
	require.NotNil(t, goal.Milestones[0].CompletedAt)
	assert.True(t, fixed.Equal(*goal.Milestones[0].CompletedAt))

	for _, m := range goal.Milestones[1:] {
		goal, err = svc.UpdateMilestone(ctx, owner, goal.ID, m.ID, MilestoneInput{Completed: ptr(true)})
		require.NoError(t, err)
	}
	assert.Equal(t, 100, goal.Progress)
	assert.Equal(t, model.GoalCompleted, goal.Status)
	require.NotNil(t, goal.CompletedAt)

	// reopening a milestone reactivates the goal
	goal, err = svc.UpdateMilestone(ctx, owner, goal.ID, goal.Milestones[2].ID, MilestoneInput{Completed: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, 67, goal.Progress)
	assert.Equal(t, model.GoalActive, goal.Status)
	assert.Nil(t, goal.CompletedAt)
	assert.Nil(t, goal.Milestones[2].CompletedAt)

	goal, err = svc.DeleteMilestone(ctx, owner, goal.ID, goal.Milestones[2].ID)
	require.NoError(t, err)
	assert.Equal(t, 100, goal.Progress)
	assert.Equal(t, model.GoalCompleted, goal.Status)

	_, err = svc.Update(ctx, owner, goal.ID, GoalInput{Progress: ptr(10)})
	var ve *apperr.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestArchivedGoalKeepsStatus(t *testing.T) {
	svc := newGoalService(t)
	ctx := context.Background()

	goal, err := svc.Create(ctx, owner, GoalInput{Title: ptr("Old"), Status: ptr(model.GoalArchived)})
	require.NoError(t, err)
	goal, err = svc.AddMilestone(ctx, owner, goal.ID, MilestoneInput{Title: ptr("only"), Completed: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, 100, goal.Progress)
	assert.Equal(t, model.GoalArchived, goal.Status)
}

func TestDeletingLastMilestoneReopensGoal(t *testing.T) {
	svc := newGoalService(t)
	ctx := context.Background()

	goal, err := svc.Create(ctx, owner, GoalInput{Title: ptr("Read a book")})
	require.NoError(t, err)
	goal, err = svc.AddMilestone(ctx, owner, goal.ID, MilestoneInput{Title: ptr("finish"), Completed: ptr(true)})
	require.NoError(t, err)
	require.Equal(t, model.GoalCompleted, goal.Status)

	goal, err = svc.DeleteMilestone(ctx, owner, goal.ID, goal.Milestones[0].ID)
	require.NoError(t, err)
	assert.Empty(t, goal.Milestones)
	assert.Equal(t, 0, goal.Progress)
	assert.Equal(t, model.GoalActive, goal.Status)
	assert.Nil(t, goal.CompletedAt)

	stored, err := svc.Get(ctx, owner, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalActive, stored.Status)
	assert.Equal(t, 0, stored.Progress)

	archived, err := svc.Create(ctx, owner, GoalInput{Title: ptr("Shelved"), Status: ptr(model.GoalArchived)})
	require.NoError(t, err)
	archived, err = svc.AddMilestone(ctx, owner, archived.ID, MilestoneInput{Title: ptr("x")})
	require.NoError(t, err)
	archived, err = svc.DeleteMilestone(ctx, owner, archived.ID, archived.Milestones[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalArchived, archived.Status)
}

func TestGoalOwnership(t *testing.T) {
	svc := newGoalService(t)
	ctx := context.Background()

	goal, err := svc.Create(ctx, owner, GoalInput{Title: ptr("Private")})
	require.NoError(t, err)

	_, err = svc.Get(ctx, stranger, goal.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, stranger, goal.ID), apperr.ErrNotFound)
	_, err = svc.AddMilestone(ctx, stranger, goal.ID, MilestoneInput{Title: ptr("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.List(ctx, owner, "paused")
	var ve *apperr.ValidationError
	assert.ErrorAs(t, err, &ve)

	list, err := svc.List(ctx, owner, model.GoalActive)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, owner, goal.ID))
	list, err = svc.List(ctx, owner, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateGoalClearsTargetDate(t *testing.T) {
	svc := newGoalService(t)
	ctx := context.Background()
	target := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	goal, err := svc.Create(ctx, owner, GoalInput{Title: ptr("Dated"), TargetDate: ptr(&target)})
	require.NoError(t, err)
	require.NotNil(t, goal.TargetDate)

	var none *time.Time
	goal, err = svc.Update(ctx, owner, goal.ID, GoalInput{TargetDate: &none})
	require.NoError(t, err)
	assert.Nil(t, goal.TargetDate)

	stored, err := svc.Get(ctx, owner, goal.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.TargetDate)
}
