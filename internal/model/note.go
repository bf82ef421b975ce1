package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Share permissions.
const (
	PermissionView = "view"
	PermissionEdit = "edit"
)

// Note is a rich-text document. Content holds a TipTap JSON document and
// PlainText its extracted text for searching.
type Note struct {
	ID         string          `gorm:"primaryKey;size:36" json:"id"`
	UserID     string          `gorm:"index;size:64" json:"userId"`
	NotebookID *string         `gorm:"index;size:36" json:"notebookId,omitempty"`
	Title      string          `json:"title"`
	Content    json.RawMessage `gorm:"type:text;serializer:json" json:"content"`
	PlainText  string          `json:"-"`
	IsPinned   bool            `gorm:"default:false" json:"isPinned"`
	IsArchived bool            `gorm:"default:false" json:"isArchived"`
	Version    int             `gorm:"default:1" json:"version"`
	Tags       []Tag           `gorm:"many2many:note_tags" json:"tags"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (n *Note) BeforeCreate(*gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// NoteVersion is an immutable snapshot of a note taken before it changed.
type NoteVersion struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	NoteID       string          `gorm:"index:idx_note_version,unique;size:36" json:"noteId"`
	Version      int             `gorm:"index:idx_note_version,unique" json:"version"`
	Title        string          `json:"title"`
	Content      json.RawMessage `gorm:"type:text;serializer:json" json:"content"`
	CreatedBy    string          `gorm:"size:64" json:"createdBy"`
	ChangeReason string          `json:"changeReason,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// SharedNote grants access to a note either through a public token or to
// the user registered under SharedWithEmail.
type SharedNote struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	NoteID          string     `gorm:"index;size:36" json:"noteId"`
	OwnerID         string     `gorm:"index;size:64" json:"ownerId"`
	SharedWithEmail *string    `gorm:"index;size:254" json:"sharedWithEmail,omitempty"`
	Token           *string    `gorm:"uniqueIndex;size:64" json:"token,omitempty"`
	Permission      string     `gorm:"default:view" json:"permission"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (s *SharedNote) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Expired reports whether the grant is past its expiry at now.
func (s SharedNote) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// Attachment describes a file stored outside the database.
type Attachment struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	NoteID      string    `gorm:"index;size:36" json:"noteId"`
	UserID      string    `gorm:"index;size:64" json:"userId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (a *Attachment) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
