package model

import "time"

// User mirrors the identity issued by the auth provider. Rows are upserted
// whenever a bearer token is verified. Email is indexed but not unique since
// identities without one all store "".
type User struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	Email      string    `gorm:"index;size:254" json:"email"`
	Name       string    `json:"name,omitempty"`
	LastSeenAt time.Time `json:"lastSeenAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
