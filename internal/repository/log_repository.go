package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"portfolio/internal/model"
)

// EventCount is the number of analytics events recorded under one name.
type EventCount struct {
	Event string `json:"event"`
	Count int64  `json:"count"`
}

// LogRepository stores client error reports and analytics events.
type LogRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

func (r *LogRepository) CreateError(ctx context.Context, entry *model.ErrorLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create error log: %w", err)
	}
	return nil
}

func (r *LogRepository) CreateEvent(ctx context.Context, ev *model.AnalyticsEvent) error {
	if err := r.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("create analytics event: %w", err)
	}
	return nil
}

func (r *LogRepository) ListErrors(ctx context.Context, limit int) ([]model.ErrorLog, error) {
	var entries []model.ErrorLog
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CountEventsSince groups analytics events by name, most frequent first.
func (r *LogRepository) CountEventsSince(ctx context.Context, since time.Time) ([]EventCount, error) {
	var counts []EventCount
	if err := r.db.WithContext(ctx).Model(&model.AnalyticsEvent{}).
		Select("event, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("event").
		Order("count DESC, event ASC").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}

// DeleteOlderThan trims both tables to keep the database small.
func (r *LogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	for _, m := range []interface{}{&model.ErrorLog{}, &model.AnalyticsEvent{}} {
		res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(m)
		if res.Error != nil {
			return total, fmt.Errorf("delete old logs: %w", res.Error)
		}
		total += res.RowsAffected
	}
	return total, nil
}
