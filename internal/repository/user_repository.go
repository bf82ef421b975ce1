package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"portfolio/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertFromAuth finds or creates a user based on the provider id and refreshes basic profile info.
func (r *UserRepository) UpsertFromAuth(ctx context.Context, id, email, name string) (*model.User, error) {
	var user model.User
	db := r.db.WithContext(ctx)
	email = strings.ToLower(strings.TrimSpace(email))
	now := time.Now().UTC()

	err := db.Where("id = ?", id).First(&user).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"email":        email,
			"last_seen_at": now,
		}
		if name != "" {
			updates["name"] = name
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = model.User{
			ID:         id,
			Email:      email,
			Name:       name,
			LastSeenAt: now,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		return &user, nil
	default:
		return nil, fmt.Errorf("find user: %w", err)
	}
}
