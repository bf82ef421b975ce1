package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"portfolio/internal/apperr"
	"portfolio/internal/auth"
	"portfolio/internal/sanitize"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

func (req *credentialsRequest) validate() error {
	email, ok := sanitize.Email(req.Email)
	if !ok {
		return apperr.Invalid("email", "is not a valid address")
	}
	req.Email = email
	if req.Password == "" {
		return apperr.Invalid("password", "is required")
	}
	req.Name = sanitize.Text(req.Name, 100)
	return nil
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.deps.Auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"session":              sess,
		"confirmationRequired": sess.AccessToken == "",
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.deps.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": sess})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.deps.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": sess})
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.UserFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "user": identity})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.CurrentPassword == "" {
		s.writeError(w, r, apperr.Invalid("currentPassword", "is required"))
		return
	}
	user := currentUser(r.Context())
	if err := s.deps.Auth.ChangePassword(r.Context(), auth.BearerToken(r), user.Email, req.CurrentPassword, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "password updated"})
}

// forgotPassword always answers 200 so addresses cannot be enumerated.
func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email"`
		RedirectTo string `json:"redirectTo,omitempty"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	email, ok := sanitize.Email(req.Email)
	if !ok {
		s.writeError(w, r, apperr.Invalid("email", "is not a valid address"))
		return
	}
	if err := s.deps.Auth.ForgotPassword(r.Context(), email, req.RedirectTo); err != nil {
		s.log.Warn("forgot password request failed", zap.Error(err))
		if errors.Is(err, apperr.ErrNotConfigured) {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "if the address is registered, a reset link is on its way"})
}

func (s *Server) confirmResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessToken string `json:"accessToken"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.AccessToken == "" {
		s.writeError(w, r, apperr.Invalid("accessToken", "is required"))
		return
	}
	if err := s.deps.Auth.ConfirmResetPassword(r.Context(), req.AccessToken, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "password updated"})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Auth.Logout(r.Context(), auth.BearerToken(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
