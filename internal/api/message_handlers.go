package api

import (
	"encoding/json"
	"net/http"
	"time"

	"portfolio/internal/provider"
	"portfolio/internal/service"
)

func (s *Server) contact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
		Website string `json:"website"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	_, err := s.deps.Contact.Submit(r.Context(), service.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
		Website: req.Website,
		IP:      s.clientIP(r),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Thanks, your message has been received."})
}

func (s *Server) sendEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To      string `json:"to"`
		ToName  string `json:"toName"`
		Subject string `json:"subject"`
		HTML    string `json:"html"`
		Text    string `json:"text"`
		ReplyTo string `json:"replyTo"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.deps.Email.Send(r.Context(), provider.Email{
		To:      req.To,
		ToName:  req.ToName,
		Subject: req.Subject,
		HTML:    req.HTML,
		Text:    req.Text,
		ReplyTo: req.ReplyTo,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "messageId": id})
}

func (s *Server) canSend(w http.ResponseWriter, r *http.Request) {
	q, err := s.deps.Email.Quota(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) domainAuth(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Email.CheckDomain(r.Context(), r.URL.Query().Get("domain"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) logError(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message   string `json:"message"`
		Stack     string `json:"stack"`
		URL       string `json:"url"`
		UserAgent string `json:"userAgent"`
		Level     string `json:"level"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.UserAgent == "" {
		req.UserAgent = r.UserAgent()
	}
	err := s.deps.Logs.RecordError(r.Context(), service.ErrorReport{
		Message:   req.Message,
		Stack:     req.Stack,
		URL:       req.URL,
		UserAgent: req.UserAgent,
		Level:     req.Level,
		IP:        s.clientIP(r),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true})
}

func (s *Server) logEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Event      string          `json:"event"`
		Path       string          `json:"path"`
		Properties json.RawMessage `json:"properties"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Logs.RecordEvent(r.Context(), service.EventInput{Event: req.Event, Path: req.Path, Properties: req.Properties}); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true})
}

func (s *Server) listErrors(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50, 1, 200)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entries, err := s.deps.Logs.RecentErrors(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"errors": entries})
}

func (s *Server) analyticsSummary(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 7, 1, 90)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sum, err := s.deps.Logs.Summary(r.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
