package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/apperr"
	"portfolio/internal/repository"
)

func TestNotebookLifecycle(t *testing.T) {
	db := newTestDB(t)
	notebooks := repository.NewNotebookRepository(db)
	tags := repository.NewTagRepository(db)
	svc := NewNotebookService(notebooks, tags)
	notes := NewNoteService(repository.NewNoteRepository(db), tags, notebooks,
		repository.NewShareRepository(db), repository.NewAttachmentRepository(db))
	ctx := context.Background()

	nb, err := svc.Create(ctx, owner, "  Work <b>stuff</b> ", "#4f46e5")
	require.NoError(t, err)
	assert.Equal(t, "Work stuff", nb.Name)

	_, err = svc.Create(ctx, owner, "WORK STUFF", "")
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)

	_, err = svc.Create(ctx, stranger, "Work stuff", "")
	require.NoError(t, err, "names are unique per user only")

	_, err = svc.Create(ctx, owner, "Colours", "blue")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "color", ve.Field)

	renamed, err := svc.Rename(ctx, owner, nb.ID, "Job", "")
	require.NoError(t, err)
	assert.Equal(t, "Job", renamed.Name)
	assert.Equal(t, "#4f46e5", renamed.Color)

	_, err = svc.Rename(ctx, stranger, nb.ID, "Mine now", "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	note, err := notes.Create(ctx, owner, NoteInput{Title: ptr("Standup"), NotebookID: &nb.ID})
	require.NoError(t, err)
	require.NotNil(t, note.NotebookID)

	require.NoError(t, svc.Delete(ctx, owner, nb.ID))
	got, err := notes.Get(ctx, owner, note.ID)
	require.NoError(t, err)
	assert.Nil(t, got.NotebookID)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.ErrorIs(t, svc.Delete(ctx, owner, nb.ID), apperr.ErrNotFound)
}

func TestTags(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotebookService(repository.NewNotebookRepository(db), repository.NewTagRepository(db))
	ctx := context.Background()

	first, err := svc.CreateTag(ctx, owner, " Ideas ")
	require.NoError(t, err)
	assert.Equal(t, "ideas", first.Name)

	again, err := svc.CreateTag(ctx, owner, "IDEAS")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	_, err = svc.CreateTag(ctx, owner, "")
	assert.Error(t, err)

	assert.ErrorIs(t, svc.DeleteTag(ctx, stranger, first.ID), apperr.ErrNotFound)
	require.NoError(t, svc.DeleteTag(ctx, owner, first.ID))

	tags, err := svc.ListTags(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, tags)
}
