package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notebook groups notes for a single user.
type Notebook struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"index:idx_user_notebook_name,unique;size:64" json:"userId"`
	Name      string    `gorm:"index:idx_user_notebook_name,unique" json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (n *Notebook) BeforeCreate(*gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// Tag is a per-user label attached to notes.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index:idx_user_tag_name,unique;size:64" json:"userId"`
	Name      string    `gorm:"index:idx_user_tag_name,unique" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
