package service

import (
	"errors"

	"gorm.io/gorm"

	"portfolio/internal/apperr"
)

// notFound maps a missing row onto apperr.ErrNotFound and leaves other errors untouched.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}
	return err
}
