package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"portfolio/internal/model"
)

// NoteFilter narrows a note listing.
type NoteFilter struct {
	NotebookID string
	TagID      uint
	Query      string
	Archived   bool
}

// NoteRepository handles notes and their version history.
type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note *model.Note) error {
	if err := r.db.WithContext(ctx).Create(note).Error; err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

func (r *NoteRepository) FindByID(ctx context.Context, id string) (*model.Note, error) {
	var note model.Note
	if err := r.db.WithContext(ctx).Preload("Tags").Where("id = ?", id).First(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *NoteRepository) List(ctx context.Context, userID string, f NoteFilter) ([]model.Note, error) {
	q := r.db.WithContext(ctx).Preload("Tags").
		Where("notes.user_id = ? AND notes.is_archived = ?", userID, f.Archived)

	if f.NotebookID != "" {
		q = q.Where("notes.notebook_id = ?", f.NotebookID)
	}
	if f.TagID != 0 {
		q = q.Where("notes.id IN (?)", r.db.Table("note_tags").Select("note_id").Where("tag_id = ?", f.TagID))
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("(LOWER(notes.title) LIKE ? OR LOWER(notes.plain_text) LIKE ?)", like, like)
	}

	var notes []model.Note
	if err := q.Order("notes.is_pinned DESC, notes.updated_at DESC").Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

// ListByIDs returns the given notes, most recently updated first.
func (r *NoteRepository) ListByIDs(ctx context.Context, ids []string) ([]model.Note, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var notes []model.Note
	if err := r.db.WithContext(ctx).Preload("Tags").Where("id IN ?", ids).
		Order("updated_at DESC").Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

// Save persists note fields without touching its tag links.
func (r *NoteRepository) Save(ctx context.Context, note *model.Note) error {
	if err := r.db.WithContext(ctx).Omit("Tags").Save(note).Error; err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	return nil
}

// SaveWithSnapshot stores snapshot as a version row, saves the note and prunes
// history beyond keep versions, all in one transaction.
func (r *NoteRepository) SaveWithSnapshot(ctx context.Context, note *model.Note, snapshot *model.NoteVersion, keep int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(snapshot).Error; err != nil {
			return fmt.Errorf("create version: %w", err)
		}
		if err := tx.Omit("Tags").Save(note).Error; err != nil {
			return fmt.Errorf("save note: %w", err)
		}
		if keep > 0 {
			keepIDs := tx.Model(&model.NoteVersion{}).Select("id").
				Where("note_id = ?", note.ID).Order("version DESC").Limit(keep)
			if err := tx.Where("note_id = ? AND id NOT IN (?)", note.ID, keepIDs).
				Delete(&model.NoteVersion{}).Error; err != nil {
				return fmt.Errorf("prune versions: %w", err)
			}
		}
		return nil
	})
}

func (r *NoteRepository) ReplaceTags(ctx context.Context, note *model.Note, tags []model.Tag) error {
	if err := r.db.WithContext(ctx).Model(note).Association("Tags").Replace(tags); err != nil {
		return fmt.Errorf("replace tags: %w", err)
	}
	note.Tags = tags
	return nil
}

func (r *NoteRepository) ListVersions(ctx context.Context, noteID string) ([]model.NoteVersion, error) {
	var versions []model.NoteVersion
	if err := r.db.WithContext(ctx).Where("note_id = ?", noteID).Order("version DESC").Find(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

func (r *NoteRepository) FindVersion(ctx context.Context, noteID string, version int) (*model.NoteVersion, error) {
	var v model.NoteVersion
	if err := r.db.WithContext(ctx).Where("note_id = ? AND version = ?", noteID, version).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// Delete removes a note with its versions, shares, attachments and tag links.
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&model.NoteVersion{}, &model.SharedNote{}, &model.Attachment{}} {
			if err := tx.Where("note_id = ?", id).Delete(m).Error; err != nil {
				return fmt.Errorf("delete note children: %w", err)
			}
		}
		if err := tx.Exec("DELETE FROM note_tags WHERE note_id = ?", id).Error; err != nil {
			return fmt.Errorf("unlink tags: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&model.Note{}).Error; err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		return nil
	})
}
