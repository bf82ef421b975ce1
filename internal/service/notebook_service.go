package service

import (
	"context"
	"regexp"
	"strings"

	"portfolio/internal/apperr"
	"portfolio/internal/model"
	"portfolio/internal/repository"
	"portfolio/internal/sanitize"
)

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)

// NotebookService manages notebooks and tags, the two ways notes are organised.
type NotebookService struct {
	notebooks *repository.NotebookRepository
	tags      *repository.TagRepository
}

func NewNotebookService(notebooks *repository.NotebookRepository, tags *repository.TagRepository) *NotebookService {
	return &NotebookService{notebooks: notebooks, tags: tags}
}

func (s *NotebookService) List(ctx context.Context, user *model.User) ([]model.Notebook, error) {
	return s.notebooks.ListByUser(ctx, user.ID)
}

func (s *NotebookService) Create(ctx context.Context, user *model.User, name, color string) (*model.Notebook, error) {
	name, color, err := cleanNotebook(name, color)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, user, name, ""); err != nil {
		return nil, err
	}
	nb := model.Notebook{UserID: user.ID, Name: name, Color: color}
	if err := s.notebooks.Create(ctx, &nb); err != nil {
		return nil, err
	}
	return &nb, nil
}

// Rename updates the name and, when given, the colour of a notebook.
func (s *NotebookService) Rename(ctx context.Context, user *model.User, id, name, color string) (*model.Notebook, error) {
	nb, err := s.notebooks.FindByID(ctx, user.ID, id)
	if err != nil {
		return nil, notFound(err)
	}
	name, color, err = cleanNotebook(name, color)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, user, name, id); err != nil {
		return nil, err
	}
	nb.Name = name
	if color != "" {
		nb.Color = color
	}
	if err := s.notebooks.Save(ctx, nb); err != nil {
		return nil, err
	}
	return nb, nil
}

func (s *NotebookService) Delete(ctx context.Context, user *model.User, id string) error {
	if _, err := s.notebooks.FindByID(ctx, user.ID, id); err != nil {
		return notFound(err)
	}
	return s.notebooks.Delete(ctx, user.ID, id)
}

func (s *NotebookService) ListTags(ctx context.Context, user *model.User) ([]model.Tag, error) {
	return s.tags.ListByUser(ctx, user.ID)
}

// CreateTag returns the existing tag when the name is already taken.
func (s *NotebookService) CreateTag(ctx context.Context, user *model.User, name string) (*model.Tag, error) {
	name = strings.ToLower(sanitize.Text(name, 0))
	if name == "" {
		return nil, apperr.Invalid("name", "is required")
	}
	if len([]rune(name)) > 50 {
		return nil, apperr.Invalid("name", "must be at most 50 characters")
	}
	return s.tags.GetOrCreate(ctx, user.ID, name)
}

func (s *NotebookService) DeleteTag(ctx context.Context, user *model.User, id uint) error {
	if _, err := s.tags.FindByID(ctx, user.ID, id); err != nil {
		return notFound(err)
	}
	return s.tags.Delete(ctx, user.ID, id)
}

func (s *NotebookService) ensureUniqueName(ctx context.Context, user *model.User, name, exceptID string) error {
	existing, err := s.notebooks.ListByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	for _, nb := range existing {
		if nb.ID != exceptID && strings.EqualFold(nb.Name, name) {
			return apperr.Invalid("name", "a notebook with this name already exists")
		}
	}
	return nil
}

func cleanNotebook(name, color string) (string, string, error) {
	name = sanitize.Text(name, 0)
	if name == "" {
		return "", "", apperr.Invalid("name", "is required")
	}
	if len([]rune(name)) > 100 {
		return "", "", apperr.Invalid("name", "must be at most 100 characters")
	}
	color = strings.TrimSpace(color)
	if color != "" && !colorPattern.MatchString(color) {
		return "", "", apperr.Invalid("color", "must be a hex colour like #4f46e5")
	}
	return name, color, nil
}
