package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"portfolio/internal/apperr"
	"portfolio/internal/model"
	"portfolio/internal/repository"
	"portfolio/internal/sanitize"
)

const (
	maxVersionsPerNote = 50
	maxTitleLength     = 200
	maxContentBytes    = 512 << 10
	maxTagsPerNote     = 20
	maxAttachmentBytes = 10 << 20
	defaultNoteTitle   = "Untitled"
)

// MaxShareLifetime caps how far in the future a share may expire.
const MaxShareLifetime = 365 * 24 * time.Hour

// access levels a user can hold on a note.
const (
	accessOwner = "owner"
	accessEdit  = model.PermissionEdit
	accessView  = model.PermissionView
)

// NoteInput carries the fields of a create or update request. Nil fields are left unchanged.
type NoteInput struct {
	Title        *string
	Content      json.RawMessage
	NotebookID   *string
	Tags         *[]string
	IsPinned     *bool
	IsArchived   *bool
	ChangeReason string
}

// ShareInput describes a new grant. Exactly one of Email or Public is set.
type ShareInput struct {
	Email      string
	Public     bool
	Permission string
	ExpiresIn  time.Duration
}

// AttachmentInput is the metadata of a file uploaded to external storage.
type AttachmentInput struct {
	FileName    string
	ContentType string
	Size        int64
	URL         string
}

// SharedNoteView is a note opened through a grant.
type SharedNoteView struct {
	Note       model.Note `json:"note"`
	Permission string     `json:"permission"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

// NoteService implements note editing with automatic version history and sharing.
type NoteService struct {
	notes       *repository.NoteRepository
	tags        *repository.TagRepository
	notebooks   *repository.NotebookRepository
	shares      *repository.ShareRepository
	attachments *repository.AttachmentRepository
	now         func() time.Time
}

func NewNoteService(notes *repository.NoteRepository, tags *repository.TagRepository, notebooks *repository.NotebookRepository,
	shares *repository.ShareRepository, attachments *repository.AttachmentRepository) *NoteService {
	return &NoteService{
		notes:       notes,
		tags:        tags,
		notebooks:   notebooks,
		shares:      shares,
		attachments: attachments,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *NoteService) Create(ctx context.Context, user *model.User, input NoteInput) (*model.Note, error) {
	note := model.Note{
		UserID:  user.ID,
		Title:   defaultNoteTitle,
		Content: emptyDoc,
		Version: 1,
	}
	if input.Title != nil {
		title, err := cleanTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		note.Title = title
	}
	if input.Content != nil {
		if err := checkContent(input.Content); err != nil {
			return nil, err
		}
		note.Content = input.Content
	}
	note.PlainText = plainText(note.Content)
	if input.NotebookID != nil && *input.NotebookID != "" {
		if err := s.checkNotebook(ctx, user, *input.NotebookID); err != nil {
			return nil, err
		}
		id := *input.NotebookID
		note.NotebookID = &id
	}
	if input.IsPinned != nil {
		note.IsPinned = *input.IsPinned
	}
	var tagNames []string
	if input.Tags != nil {
		names, err := cleanTags(*input.Tags)
		if err != nil {
			return nil, err
		}
		tagNames = names
	}

	if err := s.notes.Create(ctx, &note); err != nil {
		return nil, err
	}
	if input.Tags != nil {
		if err := s.setTags(ctx, user, &note, tagNames); err != nil {
			return nil, err
		}
	}
	return &note, nil
}

func (s *NoteService) List(ctx context.Context, user *model.User, filter repository.NoteFilter) ([]model.Note, error) {
	return s.notes.List(ctx, user.ID, filter)
}

func (s *NoteService) Get(ctx context.Context, user *model.User, id string) (*model.Note, error) {
	note, _, err := s.access(ctx, user, id)
	return note, err
}

// Update applies input to the note. A change of title or content first
// snapshots the previous state as a version and bumps the note's version.
func (s *NoteService) Update(ctx context.Context, user *model.User, id string, input NoteInput) (*model.Note, error) {
	note, level, err := s.access(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if level == accessView {
		return nil, apperr.ErrForbidden
	}
	ownerOnly := input.NotebookID != nil || input.Tags != nil || input.IsPinned != nil || input.IsArchived != nil
	if ownerOnly && level != accessOwner {
		return nil, apperr.ErrForbidden
	}
	var tagNames []string
	if input.Tags != nil {
		if tagNames, err = cleanTags(*input.Tags); err != nil {
			return nil, err
		}
	}

	snapshot := model.NoteVersion{
		NoteID:       note.ID,
		Version:      note.Version,
		Title:        note.Title,
		Content:      note.Content,
		CreatedBy:    user.ID,
		ChangeReason: sanitize.Text(input.ChangeReason, 200),
	}
	changed := false

	if input.Title != nil {
		title, err := cleanTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		if title != note.Title {
			note.Title = title
			changed = true
		}
	}
	if input.Content != nil {
		if err := checkContent(input.Content); err != nil {
			return nil, err
		}
		if !sameJSON(note.Content, input.Content) {
			note.Content = input.Content
			note.PlainText = plainText(input.Content)
			changed = true
		}
	}
	if input.NotebookID != nil {
		if *input.NotebookID == "" {
			note.NotebookID = nil
		} else {
			if err := s.checkNotebook(ctx, user, *input.NotebookID); err != nil {
				return nil, err
			}
			nb := *input.NotebookID
			note.NotebookID = &nb
		}
	}
	if input.IsPinned != nil {
		note.IsPinned = *input.IsPinned
	}
	if input.IsArchived != nil {
		note.IsArchived = *input.IsArchived
	}

	if changed {
		note.Version++
		err = s.notes.SaveWithSnapshot(ctx, note, &snapshot, maxVersionsPerNote)
	} else {
		err = s.notes.Save(ctx, note)
	}
	if err != nil {
		return nil, err
	}

	if input.Tags != nil {
		if err := s.setTags(ctx, user, note, tagNames); err != nil {
			return nil, err
		}
	}
	return note, nil
}

// Delete removes a note and everything attached to it. Owner only.
func (s *NoteService) Delete(ctx context.Context, user *model.User, id string) error {
	if _, err := s.owned(ctx, user, id); err != nil {
		return err
	}
	return s.notes.Delete(ctx, id)
}

func (s *NoteService) ListVersions(ctx context.Context, user *model.User, id string) ([]model.NoteVersion, error) {
	if _, _, err := s.access(ctx, user, id); err != nil {
		return nil, err
	}
	return s.notes.ListVersions(ctx, id)
}

// GetVersion returns a stored snapshot, or the live note when version is current.
func (s *NoteService) GetVersion(ctx context.Context, user *model.User, id string, version int) (*model.NoteVersion, error) {
	note, _, err := s.access(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if version == note.Version {
		return &model.NoteVersion{
			NoteID:    note.ID,
			Version:   note.Version,
			Title:     note.Title,
			Content:   note.Content,
			CreatedAt: note.UpdatedAt,
		}, nil
	}
	v, err := s.notes.FindVersion(ctx, id, version)
	if err != nil {
		return nil, notFound(err)
	}
	return v, nil
}

// Restore copies an old version back into the note. History is kept: the
// current state is snapshotted first and the restore becomes a new version.
func (s *NoteService) Restore(ctx context.Context, user *model.User, id string, version int) (*model.Note, error) {
	note, level, err := s.access(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if level == accessView {
		return nil, apperr.ErrForbidden
	}
	if version == note.Version {
		return nil, apperr.Invalid("version", "is already the current version")
	}
	old, err := s.notes.FindVersion(ctx, id, version)
	if err != nil {
		return nil, notFound(err)
	}

	snapshot := model.NoteVersion{
		NoteID:       note.ID,
		Version:      note.Version,
		Title:        note.Title,
		Content:      note.Content,
		CreatedBy:    user.ID,
		ChangeReason: fmt.Sprintf("restored version %d", version),
	}
	note.Title = old.Title
	note.Content = old.Content
	note.PlainText = plainText(old.Content)
	note.Version++

	if err := s.notes.SaveWithSnapshot(ctx, note, &snapshot, maxVersionsPerNote); err != nil {
		return nil, err
	}
	return note, nil
}

// Share grants access to a note through a public link or to another user's email.
func (s *NoteService) Share(ctx context.Context, user *model.User, id string, input ShareInput) (*model.SharedNote, error) {
	if _, err := s.owned(ctx, user, id); err != nil {
		return nil, err
	}

	perm := input.Permission
	if perm == "" {
		perm = model.PermissionView
	}
	if perm != model.PermissionView && perm != model.PermissionEdit {
		return nil, apperr.Invalid("permission", "must be view or edit")
	}
	if input.ExpiresIn < 0 || input.ExpiresIn > MaxShareLifetime {
		return nil, apperr.Invalid("expiresIn", "must be between 0 and one year")
	}
	var expiresAt *time.Time
	if input.ExpiresIn > 0 {
		t := s.now().Add(input.ExpiresIn)
		expiresAt = &t
	}

	switch {
	case input.Public && input.Email != "":
		return nil, apperr.Invalid("email", "a share is either public or addressed to one user")
	case input.Public:
		if perm != model.PermissionView {
			return nil, apperr.Invalid("permission", "public links are read-only")
		}
		token := strings.ReplaceAll(uuid.NewString(), "-", "")
		share := model.SharedNote{NoteID: id, OwnerID: user.ID, Token: &token, Permission: perm, ExpiresAt: expiresAt}
		if err := s.shares.Create(ctx, &share); err != nil {
			return nil, err
		}
		return &share, nil
	default:
		email, ok := sanitize.Email(input.Email)
		if !ok {
			return nil, apperr.Invalid("email", "is not a valid address")
		}
		if email == strings.ToLower(user.Email) {
			return nil, apperr.Invalid("email", "cannot share a note with yourself")
		}
		existing, err := s.shares.FindForEmail(ctx, id, email)
		switch {
		case err == nil:
			existing.Permission = perm
			existing.ExpiresAt = expiresAt
			if err := s.shares.Save(ctx, existing); err != nil {
				return nil, err
			}
			return existing, nil
		case errors.Is(notFound(err), apperr.ErrNotFound):
			share := model.SharedNote{NoteID: id, OwnerID: user.ID, SharedWithEmail: &email, Permission: perm, ExpiresAt: expiresAt}
			if err := s.shares.Create(ctx, &share); err != nil {
				return nil, err
			}
			return &share, nil
		default:
			return nil, err
		}
	}
}

func (s *NoteService) ListShares(ctx context.Context, user *model.User, id string) ([]model.SharedNote, error) {
	if _, err := s.owned(ctx, user, id); err != nil {
		return nil, err
	}
	return s.shares.ListByNote(ctx, id)
}

func (s *NoteService) RevokeShare(ctx context.Context, user *model.User, id, shareID string) error {
	if _, err := s.owned(ctx, user, id); err != nil {
		return err
	}
	if _, err := s.shares.FindByID(ctx, id, shareID); err != nil {
		return notFound(err)
	}
	return s.shares.Delete(ctx, id, shareID)
}

// OpenShared resolves a public link. Expired or revoked links read as not found.
func (s *NoteService) OpenShared(ctx context.Context, token string) (*SharedNoteView, error) {
	if token == "" {
		return nil, apperr.ErrNotFound
	}
	share, err := s.shares.FindByToken(ctx, token)
	if err != nil {
		return nil, notFound(err)
	}
	if share.Expired(s.now()) {
		return nil, apperr.ErrNotFound
	}
	note, err := s.notes.FindByID(ctx, share.NoteID)
	if err != nil {
		return nil, notFound(err)
	}
	return &SharedNoteView{Note: *note, Permission: share.Permission, ExpiresAt: share.ExpiresAt}, nil
}

// SharedWithMe lists notes other users shared with the caller's email.
func (s *NoteService) SharedWithMe(ctx context.Context, user *model.User) ([]SharedNoteView, error) {
	grants, err := s.shares.ListActiveForEmail(ctx, user.Email, s.now())
	if err != nil {
		return nil, err
	}
	byNote := make(map[string]model.SharedNote, len(grants))
	ids := make([]string, 0, len(grants))
	for _, g := range grants {
		if _, dup := byNote[g.NoteID]; dup {
			continue
		}
		byNote[g.NoteID] = g
		ids = append(ids, g.NoteID)
	}
	notes, err := s.notes.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]SharedNoteView, 0, len(notes))
	for _, n := range notes {
		g := byNote[n.ID]
		views = append(views, SharedNoteView{Note: n, Permission: g.Permission, ExpiresAt: g.ExpiresAt})
	}
	return views, nil
}

func (s *NoteService) AddAttachment(ctx context.Context, user *model.User, id string, input AttachmentInput) (*model.Attachment, error) {
	_, level, err := s.access(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if level == accessView {
		return nil, apperr.ErrForbidden
	}

	name := sanitize.Text(input.FileName, 255)
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	if name == "" {
		return nil, apperr.Invalid("fileName", "is required")
	}
	if input.Size <= 0 || input.Size > maxAttachmentBytes {
		return nil, apperr.Invalid("size", "must be between 1 byte and 10 MiB")
	}
	u, err := url.Parse(strings.TrimSpace(input.URL))
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, apperr.Invalid("url", "must be an http(s) URL")
	}
	contentType := strings.TrimSpace(input.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	a := model.Attachment{
		NoteID:      id,
		UserID:      user.ID,
		FileName:    name,
		ContentType: contentType,
		Size:        input.Size,
		URL:         u.String(),
	}
	if err := s.attachments.Create(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *NoteService) ListAttachments(ctx context.Context, user *model.User, id string) ([]model.Attachment, error) {
	if _, _, err := s.access(ctx, user, id); err != nil {
		return nil, err
	}
	return s.attachments.ListByNote(ctx, id)
}

func (s *NoteService) DeleteAttachment(ctx context.Context, user *model.User, id, attachmentID string) error {
	_, level, err := s.access(ctx, user, id)
	if err != nil {
		return err
	}
	if level == accessView {
		return apperr.ErrForbidden
	}
	if _, err := s.attachments.FindByID(ctx, id, attachmentID); err != nil {
		return notFound(err)
	}
	return s.attachments.Delete(ctx, id, attachmentID)
}

// PurgeExpiredShares deletes grants past their expiry.
func (s *NoteService) PurgeExpiredShares(ctx context.Context) (int64, error) {
	return s.shares.DeleteExpired(ctx, s.now())
}

// access loads a note and the caller's level on it. Callers without any
// grant get ErrNotFound so note ids are not disclosed.
func (s *NoteService) access(ctx context.Context, user *model.User, id string) (*model.Note, string, error) {
	note, err := s.notes.FindByID(ctx, id)
	if err != nil {
		return nil, "", notFound(err)
	}
	if note.UserID == user.ID {
		return note, accessOwner, nil
	}
	if user.Email == "" {
		return nil, "", apperr.ErrNotFound
	}
	grant, err := s.shares.FindForEmail(ctx, id, user.Email)
	if err != nil {
		return nil, "", notFound(err)
	}
	if grant.Expired(s.now()) {
		return nil, "", apperr.ErrNotFound
	}
	return note, grant.Permission, nil
}

// owned loads a note the caller owns. Users holding only a grant get ErrForbidden.
func (s *NoteService) owned(ctx context.Context, user *model.User, id string) (*model.Note, error) {
	note, level, err := s.access(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if level != accessOwner {
		return nil, apperr.ErrForbidden
	}
	return note, nil
}

func (s *NoteService) checkNotebook(ctx context.Context, user *model.User, id string) error {
	if _, err := s.notebooks.FindByID(ctx, user.ID, id); err != nil {
		if errors.Is(notFound(err), apperr.ErrNotFound) {
			return apperr.Invalid("notebookId", "notebook not found")
		}
		return err
	}
	return nil
}

// setTags links note to the named tags, creating missing ones. names must
// come from cleanTags.
func (s *NoteService) setTags(ctx context.Context, user *model.User, note *model.Note, names []string) error {
	tags := make([]model.Tag, 0, len(names))
	for _, name := range names {
		tag, err := s.tags.GetOrCreate(ctx, user.ID, name)
		if err != nil {
			return err
		}
		tags = append(tags, *tag)
	}
	return s.notes.ReplaceTags(ctx, note, tags)
}

// cleanTags lower-cases, sanitises and dedupes tag names. It runs before any
// write so a rejected list leaves the note untouched.
func cleanTags(names []string) ([]string, error) {
	if len(names) > maxTagsPerNote {
		return nil, apperr.Invalid("tags", fmt.Sprintf("at most %d tags per note", maxTagsPerNote))
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, raw := range names {
		name := strings.ToLower(sanitize.Text(raw, 50))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}

func cleanTitle(raw string) (string, error) {
	title := sanitize.Text(raw, 0)
	if title == "" {
		return defaultNoteTitle, nil
	}
	if len([]rune(title)) > maxTitleLength {
		return "", apperr.Invalid("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	}
	return title, nil
}

func checkContent(raw json.RawMessage) error {
	if len(raw) > maxContentBytes {
		return apperr.Invalid("content", "is too large")
	}
	if !validDoc(raw) {
		return apperr.Invalid("content", "must be a rich-text document")
	}
	return nil
}
