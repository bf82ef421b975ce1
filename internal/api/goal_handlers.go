package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"portfolio/internal/apperr"
	"portfolio/internal/service"
)

type goalRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Category    *string         `json:"category"`
	Status      *string         `json:"status"`
	TargetDate  json.RawMessage `json:"targetDate"`
	Progress    *int            `json:"progress"`
}

func (req goalRequest) input() (service.GoalInput, error) {
	in := service.GoalInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Status:      req.Status,
		Progress:    req.Progress,
	}
	date, err := optionalDate("targetDate", req.TargetDate)
	if err != nil {
		return in, err
	}
	in.TargetDate = date
	return in, nil
}

type milestoneRequest struct {
	Title     *string         `json:"title"`
	Completed *bool           `json:"completed"`
	DueDate   json.RawMessage `json:"dueDate"`
	Position  *int            `json:"position"`
}

func (req milestoneRequest) input() (service.MilestoneInput, error) {
	in := service.MilestoneInput{Title: req.Title, Completed: req.Completed, Position: req.Position}
	date, err := optionalDate("dueDate", req.DueDate)
	if err != nil {
		return in, err
	}
	in.DueDate = date
	return in, nil
}

// optionalDate distinguishes an absent field (nil), an explicit null (clear)
// and a date given as RFC 3339 or YYYY-MM-DD.
func optionalDate(field string, raw json.RawMessage) (**time.Time, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var none *time.Time
	if string(raw) == "null" {
		return &none, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, apperr.Invalid(field, "must be a date string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return &none, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			p := &t
			return &p, nil
		}
	}
	return nil, apperr.Invalid(field, "must be a date like 2024-12-31")
}

func (s *Server) listGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.deps.Goals.List(r.Context(), currentUser(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": goals})
}

func (s *Server) getGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	goal, err := s.deps.Goals.Get(r.Context(), currentUser(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (s *Server) createGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	goal, err := s.deps.Goals.Create(r.Context(), currentUser(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (s *Server) updateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	goal, err := s.deps.Goals.Update(r.Context(), currentUser(r.Context()), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (s *Server) deleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Goals.Delete(r.Context(), currentUser(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addMilestone(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req milestoneRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	goal, err := s.deps.Goals.AddMilestone(r.Context(), currentUser(r.Context()), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (s *Server) updateMilestone(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	mid, err := pathUint(r, "mid")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req milestoneRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	goal, err := s.deps.Goals.UpdateMilestone(r.Context(), currentUser(r.Context()), id, mid, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (s *Server) deleteMilestone(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	mid, err := pathUint(r, "mid")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	goal, err := s.deps.Goals.DeleteMilestone(r.Context(), currentUser(r.Context()), id, mid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}
