// Package api exposes the JSON HTTP surface under /api.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"portfolio/internal/auth"
	"portfolio/internal/config"
	"portfolio/internal/provider"
	"portfolio/internal/ratelimit"
	"portfolio/internal/repository"
	"portfolio/internal/service"
)

// Authenticator is the external identity provider.
type Authenticator interface {
	Register(ctx context.Context, email, password, name string) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.Session, error)
	Verify(ctx context.Context, token string) (*auth.User, error)
	ChangePassword(ctx context.Context, token, email, current, next string) error
	ForgotPassword(ctx context.Context, email, redirectTo string) error
	ConfirmResetPassword(ctx context.Context, recoveryToken, next string) error
	Logout(ctx context.Context, token string) error
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	DB        *gorm.DB
	Auth      Authenticator
	Users     *repository.UserRepository
	Notes     *service.NoteService
	Notebooks *service.NotebookService
	Goals     *service.GoalService
	Contact   *service.ContactService
	Email     *service.EmailService
	Logs      *service.LogService

	GitHub   *provider.GitHub
	DevTo    *provider.DevTo
	Medium   *provider.Medium
	Spotify  *provider.Spotify
	Strava   *provider.Strava
	Weather  *provider.OpenWeather
	Quotes   *provider.Quotes
	Vercel   *provider.Vercel
	Overview *provider.Aggregator

	// Limiter guards public write endpoints. Auth endpoints get their own budget.
	Limiter     *ratelimit.Limiter
	AuthLimiter *ratelimit.Limiter
}

// Server wires routes and middleware around Deps.
type Server struct {
	cfg     config.Config
	deps    Deps
	log     *zap.Logger
	handler http.Handler
	now     func() time.Time
}

func NewServer(cfg config.Config, deps Deps, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.New(cfg.RateLimit.Max, cfg.RateLimit.Window)
	}
	if deps.AuthLimiter == nil {
		deps.AuthLimiter = ratelimit.New(cfg.RateLimit.Max, cfg.RateLimit.Window)
	}
	s := &Server{cfg: cfg, deps: deps, log: log.Named("http"), now: time.Now}

	mux := http.NewServeMux()
	s.routes(mux)
	s.handler = chain(mux,
		withRequestID,
		s.logRequests,
		s.recoverPanics,
		s.cors,
		s.timeout,
		trimSlash,
	)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then drains connections.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) routes(mux *http.ServeMux) {
	d := s.deps
	lim := func(bucket string, h http.HandlerFunc) http.HandlerFunc { return s.limited(d.Limiter, bucket, h) }
	authLim := func(bucket string, h http.HandlerFunc) http.HandlerFunc { return s.limited(d.AuthLimiter, bucket, h) }
	user := s.requireUser
	admin := s.requireAdmin

	mux.HandleFunc("GET /api/health", s.health)

	// auth
	mux.HandleFunc("POST /api/auth/register", authLim("register", s.register))
	mux.HandleFunc("POST /api/auth/login", authLim("login", s.login))
	mux.HandleFunc("POST /api/auth/refresh", authLim("refresh", s.refresh))
	mux.HandleFunc("GET /api/auth/verify", user(s.verify))
	mux.HandleFunc("POST /api/auth/change-password", authLim("change-password", user(s.changePassword)))
	mux.HandleFunc("POST /api/auth/forgot-password", authLim("forgot-password", s.forgotPassword))
	mux.HandleFunc("POST /api/auth/confirm-reset-password", authLim("reset", s.confirmResetPassword))
	mux.HandleFunc("POST /api/auth/logout", user(s.logout))

	// notes
	mux.HandleFunc("GET /api/notes", user(s.listNotes))
	mux.HandleFunc("POST /api/notes", user(s.createNote))
	mux.HandleFunc("GET /api/notes/shared-with-me", user(s.sharedWithMe))
	mux.HandleFunc("GET /api/notes/{id}", user(s.getNote))
	mux.HandleFunc("PATCH /api/notes/{id}", user(s.updateNote))
	mux.HandleFunc("PUT /api/notes/{id}", user(s.updateNote))
	mux.HandleFunc("DELETE /api/notes/{id}", user(s.deleteNote))
	mux.HandleFunc("GET /api/notes/{id}/versions", user(s.listVersions))
	mux.HandleFunc("GET /api/notes/{id}/versions/{version}", user(s.getVersion))
	mux.HandleFunc("POST /api/notes/{id}/versions/{version}/restore", user(s.restoreVersion))
	mux.HandleFunc("GET /api/notes/{id}/shares", user(s.listShares))
	mux.HandleFunc("POST /api/notes/{id}/shares", user(s.createShare))
	mux.HandleFunc("DELETE /api/notes/{id}/shares/{shareID}", user(s.revokeShare))
	mux.HandleFunc("GET /api/notes/{id}/attachments", user(s.listAttachments))
	mux.HandleFunc("POST /api/notes/{id}/attachments", user(s.addAttachment))
	mux.HandleFunc("DELETE /api/notes/{id}/attachments/{attachmentID}", user(s.deleteAttachment))
	mux.HandleFunc("GET /api/shared/{token}", lim("shared", s.openShared))

	mux.HandleFunc("GET /api/notebooks", user(s.listNotebooks))
	mux.HandleFunc("POST /api/notebooks", user(s.createNotebook))
	mux.HandleFunc("PATCH /api/notebooks/{id}", user(s.renameNotebook))
	mux.HandleFunc("DELETE /api/notebooks/{id}", user(s.deleteNotebook))
	mux.HandleFunc("GET /api/tags", user(s.listTags))
	mux.HandleFunc("POST /api/tags", user(s.createTag))
	mux.HandleFunc("DELETE /api/tags/{id}", user(s.deleteTag))

	// goals
	mux.HandleFunc("GET /api/goals", user(s.listGoals))
	mux.HandleFunc("POST /api/goals", user(s.createGoal))
	mux.HandleFunc("GET /api/goals/{id}", user(s.getGoal))
	mux.HandleFunc("PATCH /api/goals/{id}", user(s.updateGoal))
	mux.HandleFunc("PUT /api/goals/{id}", user(s.updateGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", user(s.deleteGoal))
	mux.HandleFunc("POST /api/goals/{id}/milestones", user(s.addMilestone))
	mux.HandleFunc("PATCH /api/goals/{id}/milestones/{mid}", user(s.updateMilestone))
	mux.HandleFunc("PUT /api/goals/{id}/milestones/{mid}", user(s.updateMilestone))
	mux.HandleFunc("DELETE /api/goals/{id}/milestones/{mid}", user(s.deleteMilestone))

	// contact, email, logs
	mux.HandleFunc("POST /api/contact", lim("contact", s.contact))
	mux.HandleFunc("POST /api/email/send", admin(s.sendEmail))
	mux.HandleFunc("GET /api/email/can-send", admin(s.canSend))
	mux.HandleFunc("GET /api/email/domain-auth", admin(s.domainAuth))
	mux.HandleFunc("POST /api/logs/error", lim("logs", s.logError))
	mux.HandleFunc("POST /api/logs/analytics", lim("logs", s.logEvent))
	mux.HandleFunc("GET /api/logs/error", admin(s.listErrors))
	mux.HandleFunc("GET /api/logs/analytics/summary", admin(s.analyticsSummary))

	// third-party proxies
	mux.HandleFunc("GET /api/overview", s.overview)
	mux.HandleFunc("GET /api/github/profile", s.githubProfile)
	mux.HandleFunc("GET /api/github/repos", s.githubRepos)
	mux.HandleFunc("GET /api/github/activity", s.githubActivity)
	mux.HandleFunc("GET /api/devto/articles", s.devtoArticles)
	mux.HandleFunc("GET /api/medium/posts", s.mediumPosts)
	mux.HandleFunc("GET /api/spotify/now-playing", s.spotifyNowPlaying)
	mux.HandleFunc("GET /api/spotify/top-tracks", s.spotifyTopTracks)
	mux.HandleFunc("GET /api/strava/stats", s.stravaStats)
	mux.HandleFunc("GET /api/strava/activities", s.stravaActivities)
	mux.HandleFunc("GET /api/weather", s.weather)
	mux.HandleFunc("GET /api/quote", s.quote)
	mux.HandleFunc("GET /api/vercel/deployments", s.vercelDeployments)
	mux.HandleFunc("GET /api/vercel/projects", s.vercelProjects)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "route not found"})
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status, dbStatus, code := "ok", "ok", http.StatusOK
	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := repository.Ping(ctx, s.deps.DB); err != nil {
			s.log.Warn("health check: database unreachable", zap.Error(err))
			status, dbStatus, code = "degraded", "unreachable", http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]any{
		"status":   status,
		"time":     s.now().UTC().Format(time.RFC3339),
		"database": dbStatus,
	})
}
