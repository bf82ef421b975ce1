package service

import (
	"context"
	"encoding/json"
	"time"

	"portfolio/internal/apperr"
	"portfolio/internal/model"
	"portfolio/internal/repository"
	"portfolio/internal/sanitize"
)

const (
	logRetention      = 30 * 24 * time.Hour
	maxPropertiesSize = 4 << 10
)

// ErrorReport is a client-side error sent by the frontend.
type ErrorReport struct {
	Message   string
	Stack     string
	URL       string
	UserAgent string
	Level     string
	IP        string
}

// EventInput is one analytics event.
type EventInput struct {
	Event      string
	Path       string
	Properties json.RawMessage
}

// AnalyticsSummary aggregates events over a recent window.
type AnalyticsSummary struct {
	Since  time.Time               `json:"since"`
	Total  int64                   `json:"total"`
	Events []repository.EventCount `json:"events"`
}

// LogService records client error reports and analytics events.
type LogService struct {
	logs *repository.LogRepository
	now  func() time.Time
}

func NewLogService(logs *repository.LogRepository) *LogService {
	return &LogService{logs: logs, now: func() time.Time { return time.Now().UTC() }}
}

func (s *LogService) RecordError(ctx context.Context, r ErrorReport) error {
	msg := sanitize.Text(r.Message, 1000)
	if msg == "" {
		return apperr.Invalid("message", "is required")
	}
	level := r.Level
	switch level {
	case "error", "warn", "info":
	case "":
		level = "error"
	default:
		return apperr.Invalid("level", "must be error, warn or info")
	}
	entry := model.ErrorLog{
		Level:     level,
		Message:   msg,
		Stack:     sanitize.Truncate(r.Stack, 5000),
		URL:       sanitize.Text(r.URL, 500),
		UserAgent: sanitize.Text(r.UserAgent, 300),
		IP:        r.IP,
	}
	return s.logs.CreateError(ctx, &entry)
}

func (s *LogService) RecordEvent(ctx context.Context, in EventInput) error {
	event := sanitize.Text(in.Event, 100)
	if event == "" {
		return apperr.Invalid("event", "is required")
	}
	if len(in.Properties) > maxPropertiesSize {
		return apperr.Invalid("properties", "is too large")
	}
	if len(in.Properties) > 0 && !json.Valid(in.Properties) {
		return apperr.Invalid("properties", "must be valid JSON")
	}
	ev := model.AnalyticsEvent{Event: event, Path: sanitize.Text(in.Path, 500), Properties: in.Properties}
	return s.logs.CreateEvent(ctx, &ev)
}

// RecentErrors returns the newest reports; limit is clamped to 1..200.
func (s *LogService) RecentErrors(ctx context.Context, limit int) ([]model.ErrorLog, error) {
	switch {
	case limit <= 0:
		limit = 50
	case limit > 200:
		limit = 200
	}
	return s.logs.ListErrors(ctx, limit)
}

func (s *LogService) Summary(ctx context.Context, window time.Duration) (*AnalyticsSummary, error) {
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	since := s.now().Add(-window)
	counts, err := s.logs.CountEventsSince(ctx, since)
	if err != nil {
		return nil, err
	}
	sum := &AnalyticsSummary{Since: since, Events: counts}
	for _, c := range counts {
		sum.Total += c.Count
	}
	if sum.Events == nil {
		sum.Events = []repository.EventCount{}
	}
	return sum, nil
}

// Prune drops log rows older than the retention window.
func (s *LogService) Prune(ctx context.Context) (int64, error) {
	return s.logs.DeleteOlderThan(ctx, s.now().Add(-logRetention))
}
