package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"portfolio/internal/apperr"
	"portfolio/internal/repository"
	"portfolio/internal/service"
)

type noteRequest struct {
	Title        *string         `json:"title"`
	Content      json.RawMessage `json:"content"`
	NotebookID   *string         `json:"notebookId"`
	Tags         *[]string       `json:"tags"`
	IsPinned     *bool           `json:"isPinned"`
	IsArchived   *bool           `json:"isArchived"`
	ChangeReason string          `json:"changeReason"`
}

func (req noteRequest) input() service.NoteInput {
	in := service.NoteInput{
		Title:        req.Title,
		NotebookID:   req.NotebookID,
		Tags:         req.Tags,
		IsPinned:     req.IsPinned,
		IsArchived:   req.IsArchived,
		ChangeReason: req.ChangeReason,
	}
	if len(req.Content) > 0 && string(req.Content) != "null" {
		in.Content = req.Content
	}
	return in
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.NoteFilter{
		NotebookID: q.Get("notebook"),
		Query:      q.Get("q"),
		Archived:   q.Get("archived") == "true",
	}
	if tag := q.Get("tag"); tag != "" {
		id, err := strconv.ParseUint(tag, 10, 32)
		if err != nil {
			s.writeError(w, r, apperr.Invalid("tag", "must be a tag id"))
			return
		}
		filter.TagID = uint(id)
	}
	notes, err := s.deps.Notes.List(r.Context(), currentUser(r.Context()), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes, "count": len(notes)})
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	note, err := s.deps.Notes.Create(r.Context(), currentUser(r.Context()), req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (s *Server) getNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.deps.Notes.Get(r.Context(), currentUser(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *Server) updateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	note, err := s.deps.Notes.Update(r.Context(), currentUser(r.Context()), r.PathValue("id"), req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Notes.Delete(r.Context(), currentUser(r.Context()), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.deps.Notes.ListVersions(r.Context(), currentUser(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
}

func (s *Server) getVersion(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(r.PathValue("version"))
	if err != nil || version < 1 {
		s.writeError(w, r, apperr.ErrNotFound)
		return
	}
	v, err := s.deps.Notes.GetVersion(r.Context(), currentUser(r.Context()), r.PathValue("id"), version)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) restoreVersion(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(r.PathValue("version"))
	if err != nil || version < 1 {
		s.writeError(w, r, apperr.ErrNotFound)
		return
	}
	note, err := s.deps.Notes.Restore(r.Context(), currentUser(r.Context()), r.PathValue("id"), version)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *Server) listShares(w http.ResponseWriter, r *http.Request) {
	shares, err := s.deps.Notes.ListShares(r.Context(), currentUser(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shares": shares})
}

func (s *Server) createShare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email"`
		Public     bool   `json:"public"`
		Permission string `json:"permission"`
		// ExpiresIn is in seconds; zero never expires.
		ExpiresIn int64 `json:"expiresIn"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !req.Public && req.Email == "" {
		s.writeError(w, r, apperr.Invalid("email", "is required unless the share is public"))
		return
	}
	// bounded before conversion so huge values cannot overflow time.Duration
	if req.ExpiresIn < 0 || req.ExpiresIn > int64(service.MaxShareLifetime/time.Second) {
		s.writeError(w, r, apperr.Invalid("expiresIn", "must be between 0 and one year"))
		return
	}
	share, err := s.deps.Notes.Share(r.Context(), currentUser(r.Context()), r.PathValue("id"), service.ShareInput{
		Email:      req.Email,
		Public:     req.Public,
		Permission: req.Permission,
		ExpiresIn:  time.Duration(req.ExpiresIn) * time.Second,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, share)
}

func (s *Server) revokeShare(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Notes.RevokeShare(r.Context(), currentUser(r.Context()), r.PathValue("id"), r.PathValue("shareID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) openShared(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Notes.OpenShared(r.Context(), r.PathValue("token"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) sharedWithMe(w http.ResponseWriter, r *http.Request) {
	views, err := s.deps.Notes.SharedWithMe(r.Context(), currentUser(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": views})
}

func (s *Server) listAttachments(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Notes.ListAttachments(r.Context(), currentUser(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attachments": items})
}

func (s *Server) addAttachment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileName    string `json:"fileName"`
		ContentType string `json:"contentType"`
		Size        int64  `json:"size"`
		URL         string `json:"url"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.deps.Notes.AddAttachment(r.Context(), currentUser(r.Context()), r.PathValue("id"), service.AttachmentInput{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Size:        req.Size,
		URL:         req.URL,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) deleteAttachment(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Notes.DeleteAttachment(r.Context(), currentUser(r.Context()), r.PathValue("id"), r.PathValue("attachmentID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type notebookRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) listNotebooks(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Notebooks.List(r.Context(), currentUser(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notebooks": items})
}

func (s *Server) createNotebook(w http.ResponseWriter, r *http.Request) {
	var req notebookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	nb, err := s.deps.Notebooks.Create(r.Context(), currentUser(r.Context()), req.Name, req.Color)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, nb)
}

func (s *Server) renameNotebook(w http.ResponseWriter, r *http.Request) {
	var req notebookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	nb, err := s.deps.Notebooks.Rename(r.Context(), currentUser(r.Context()), r.PathValue("id"), req.Name, req.Color)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nb)
}

func (s *Server) deleteNotebook(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Notebooks.Delete(r.Context(), currentUser(r.Context()), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.deps.Notebooks.ListTags(r.Context(), currentUser(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	tag, err := s.deps.Notebooks.CreateTag(r.Context(), currentUser(r.Context()), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (s *Server) deleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Notebooks.DeleteTag(r.Context(), currentUser(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
