package model

import (
	"encoding/json"
	"time"
)

// ContactMessage is a submission of the public contact form.
type ContactMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Email     string    `gorm:"index" json:"email"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	IP        string    `json:"-"`
	Delivered bool      `gorm:"default:false" json:"delivered"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// EmailLog records every transactional email handed to the provider.
type EmailLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	MessageID string    `json:"messageId,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// ErrorLog is a client-side error report.
type ErrorLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Level     string    `gorm:"default:error" json:"level"`
	Message   string    `json:"message"`
	Stack     string    `json:"stack,omitempty"`
	URL       string    `json:"url,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	IP        string    `json:"-"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// AnalyticsEvent is a single tracked frontend event.
type AnalyticsEvent struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Event      string          `gorm:"index" json:"event"`
	Path       string          `json:"path,omitempty"`
	Properties json.RawMessage `gorm:"type:text;serializer:json" json:"properties,omitempty"`
	CreatedAt  time.Time       `gorm:"index" json:"createdAt"`
}
