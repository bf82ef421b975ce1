package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/apperr"
	"portfolio/internal/auth"
	"portfolio/internal/config"
	"portfolio/internal/notify"
	"portfolio/internal/provider"
	"portfolio/internal/ratelimit"
	"portfolio/internal/repository"
	"portfolio/internal/service"
)

type fakeAuth struct {
	users map[string]*auth.User
}

func (f *fakeAuth) Register(_ context.Context, email, _, name string) (*auth.Session, error) {
	return &auth.Session{User: auth.User{ID: "new", Email: email, Name: name}}, nil
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*auth.Session, error) {
	if password != "correct horse" {
		return nil, apperr.ErrUnauthorized
	}
	return &auth.Session{AccessToken: "tok", RefreshToken: "ref", TokenType: "bearer", User: auth.User{Email: email}}, nil
}

func (f *fakeAuth) Refresh(context.Context, string) (*auth.Session, error) {
	return nil, apperr.ErrUnauthorized
}

func (f *fakeAuth) Verify(_ context.Context, token string) (*auth.User, error) {
	u, ok := f.users[token]
	if !ok {
		return nil, apperr.ErrUnauthorized
	}
	return u, nil
}

func (f *fakeAuth) ChangePassword(context.Context, string, string, string, string) error { return nil }

func (f *fakeAuth) ForgotPassword(context.Context, string, string) error { return nil }

func (f *fakeAuth) ConfirmResetPassword(context.Context, string, string) error { return nil }

func (f *fakeAuth) Logout(context.Context, string) error { return nil }

type stubMailer struct{ sent int }

func (m *stubMailer) Configured() bool { return true }

func (m *stubMailer) Send(context.Context, provider.Email) (string, error) {
	m.sent++
	return "<stub>", nil
}

type testServer struct {
	*Server
	messages *repository.MessageRepository
	mailer   *stubMailer
}

func newTestServer(t *testing.T, tweak func(*config.Config, *Deps)) *testServer {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "api.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := config.Config{
		Env:            "test",
		RequestTimeout: 5 * time.Second,
		AllowedOrigins: []string{"https://site.example"},
		AdminEmails:    []string{"Admin@example.com"},
		RateLimit:      config.RateLimitConfig{Max: 100, Window: time.Minute},
	}
	messages := repository.NewMessageRepository(db)
	mailer := &stubMailer{}
	email := service.NewEmailService(mailer, messages, nil, 10, "example.com", "brevo", nil)
	deps := Deps{
		DB: db,
		Auth: &fakeAuth{users: map[string]*auth.User{
			"owner-token":  {ID: "u-owner", Email: "owner@example.com", Name: "Owner"},
			"editor-token": {ID: "u-editor", Email: "editor@example.com"},
			"admin-token":  {ID: "u-admin", Email: "admin@example.com"},
		}},
		Users: repository.NewUserRepository(db),
		Notes: service.NewNoteService(
			repository.NewNoteRepository(db),
			repository.NewTagRepository(db),
			repository.NewNotebookRepository(db),
			repository.NewShareRepository(db),
			repository.NewAttachmentRepository(db),
		),
		Notebooks: service.NewNotebookService(repository.NewNotebookRepository(db), repository.NewTagRepository(db)),
		Goals:     service.NewGoalService(repository.NewGoalRepository(db)),
		Contact:   service.NewContactService(messages, email, notify.Nop{}, "me@example.com", nil),
		Email:     email,
		Logs:      service.NewLogService(repository.NewLogRepository(db)),
		GitHub:    provider.NewGitHub("", "", nil),
	}
	if tweak != nil {
		tweak(&cfg, &deps)
	}
	return &testServer{Server: NewServer(cfg, deps, nil), messages: messages, mailer: mailer}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.1:5555"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	rec := ts.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string]string](t, rec)
	want := map[string]string{"status": "ok", "time": "2024-05-01T12:00:00Z", "database": "ok"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("health mismatch (-want +got):\n%s", diff)
	}
}

func TestErrorShapes(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		want   errorBody
	}{
		{
			name: "missing token", method: http.MethodGet, path: "/api/notes",
			status: http.StatusUnauthorized, want: errorBody{Error: "unauthorized"},
		},
		{
			name: "unknown token", method: http.MethodGet, path: "/api/notes", token: "nope",
			status: http.StatusUnauthorized, want: errorBody{Error: "unauthorized"},
		},
		{
			name: "unknown field", method: http.MethodPost, path: "/api/notes", token: "owner-token",
			body:   `{"titel":"typo"}`,
			status: http.StatusBadRequest,
			want:   errorBody{Error: "titel: is not a known field", Details: map[string]any{"field": "titel"}},
		},
		{
			name: "empty body", method: http.MethodPost, path: "/api/goals", token: "owner-token",
			status: http.StatusBadRequest, want: errorBody{Error: "request body is empty"},
		},
		{
			name: "missing note", method: http.MethodGet, path: "/api/notes/does-not-exist", token: "owner-token",
			status: http.StatusNotFound, want: errorBody{Error: "not found"},
		},
		{
			name: "unknown route", method: http.MethodGet, path: "/api/nothing-here",
			status: http.StatusNotFound, want: errorBody{Error: "route not found"},
		},
		{
			name: "bad date", method: http.MethodPost, path: "/api/goals", token: "owner-token",
			body:   map[string]any{"title": "Ship", "targetDate": "next tuesday"},
			status: http.StatusBadRequest,
			want:   errorBody{Error: "targetDate: must be a date like 2024-12-31", Details: map[string]any{"field": "targetDate"}},
		},
		{
			name: "provider not configured", method: http.MethodGet, path: "/api/github/profile",
			status: http.StatusServiceUnavailable, want: errorBody{Error: "github: service not configured"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, tt.path, tt.token, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
			got := decode[errorBody](t, rec)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAuthEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": " New@Example.com ", "password": "whatever", "name": "New",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode[struct {
		Session              auth.Session `json:"session"`
		ConfirmationRequired bool         `json:"confirmationRequired"`
	}](t, rec)
	assert.True(t, reg.ConfirmationRequired)
	assert.Equal(t, "new@example.com", reg.Session.User.Email)

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "bad", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@example.com", "password": "correct horse"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"accessToken":"tok"`)

	rec = ts.do(t, http.MethodGet, "/api/auth/verify", "owner-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"owner@example.com"`)

	rec = ts.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/auth/logout", "owner-token", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthNotConfigured(t *testing.T) {
	ts := newTestServer(t, func(_ *config.Config, d *Deps) { d.Auth = nil })

	rec := ts.do(t, http.MethodGet, "/api/notes", "owner-token", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminOnlyRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/email/can-send", "owner-token", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/email/can-send", "admin-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	quota := decode[service.Quota](t, rec)
	assert.True(t, quota.CanSend)
	assert.Equal(t, 10, quota.DailyLimit)

	rec = ts.do(t, http.MethodPost, "/api/email/send", "admin-token", map[string]string{
		"to": "friend@example.com", "subject": "Hi", "text": "hello there",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sent := decode[map[string]any](t, rec)
	assert.Equal(t, "<stub>", sent["messageId"])
	assert.Equal(t, 1, ts.mailer.sent)
}

func TestRateLimitedContact(t *testing.T) {
	ts := newTestServer(t, func(_ *config.Config, d *Deps) {
		d.Limiter = ratelimit.New(2, time.Minute)
	})
	body := map[string]string{
		"name": "Ada", "email": "ada@example.com", "message": "I would like to talk about a project.",
	}

	for i := 0; i < 2; i++ {
		rec := ts.do(t, http.MethodPost, "/api/contact", "", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec := ts.do(t, http.MethodPost, "/api/contact", "", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	stored, err := ts.messages.ListContactsSince(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestContactHoneypot(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/contact", "", map[string]string{
		"name": "Bot", "email": "bot@example.com", "message": "Buy cheap things today!", "website": "http://spam.example",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)

	stored, err := ts.messages.ListContactsSince(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Zero(t, ts.mailer.sent)
}

func TestShareExpiryIsBounded(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/notes", "owner-token", map[string]any{"title": "Plans"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	note := decode[struct {
		ID string `json:"id"`
	}](t, rec)

	for _, expiresIn := range []int64{-1, 9223372036, 365*24*3600 + 1} {
		rec = ts.do(t, http.MethodPost, "/api/notes/"+note.ID+"/shares", "owner-token", map[string]any{
			"public": true, "expiresIn": expiresIn,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code, "expiresIn=%d", expiresIn)
		body := decode[errorBody](t, rec)
		assert.Equal(t, "expiresIn", body.Details["field"])
	}

	rec = ts.do(t, http.MethodPost, "/api/notes/"+note.ID+"/shares", "owner-token", map[string]any{
		"public": true, "expiresIn": 365 * 24 * 3600,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	share := decode[struct {
		ExpiresAt *time.Time `json:"expiresAt"`
	}](t, rec)
	require.NotNil(t, share.ExpiresAt)
	assert.True(t, share.ExpiresAt.After(time.Now().Add(364*24*time.Hour)))
}

func TestNoteSharingFlow(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/notes", "owner-token", map[string]any{
		"title": "Plans",
		"tags":  []string{"Work"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	note := decode[struct {
		ID      string `json:"id"`
		Version int    `json:"version"`
	}](t, rec)
	require.NotEmpty(t, note.ID)
	assert.Equal(t, 1, note.Version)

	rec = ts.do(t, http.MethodGet, "/api/notes/"+note.ID, "editor-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/notes/"+note.ID+"/shares", "owner-token", map[string]any{
		"email": "editor@example.com", "permission": "edit",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPatch, "/api/notes/"+note.ID, "editor-token", map[string]any{"title": "Plans v2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[struct {
		Title   string `json:"title"`
		Version int    `json:"version"`
	}](t, rec)
	assert.Equal(t, "Plans v2", updated.Title)
	assert.Equal(t, 2, updated.Version)

	rec = ts.do(t, http.MethodPatch, "/api/notes/"+note.ID, "editor-token", map[string]any{"isPinned": true})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/notes/"+note.ID+"/versions", "owner-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	versions := decode[struct {
		Versions []struct {
			Version int    `json:"version"`
			Title   string `json:"title"`
		} `json:"versions"`
	}](t, rec)
	require.Len(t, versions.Versions, 1)
	assert.Equal(t, "Plans", versions.Versions[0].Title)

	rec = ts.do(t, http.MethodPost, "/api/notes/"+note.ID+"/versions/1/restore", "owner-token", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"title":"Plans"`)

	rec = ts.do(t, http.MethodGet, "/api/notes/shared-with-me", "editor-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	shared := decode[struct {
		Notes []service.SharedNoteView `json:"notes"`
	}](t, rec)
	require.Len(t, shared.Notes, 1)
	assert.Equal(t, "edit", shared.Notes[0].Permission)

	rec = ts.do(t, http.MethodPost, "/api/notes/"+note.ID+"/shares", "owner-token", map[string]any{"public": true})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	link := decode[struct {
		Token string `json:"token"`
	}](t, rec)
	require.Len(t, link.Token, 32)

	rec = ts.do(t, http.MethodGet, "/api/shared/"+link.Token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"permission":"view"`)

	rec = ts.do(t, http.MethodDelete, "/api/notes/"+note.ID, "owner-token", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/shared/"+link.Token, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGoalMilestonesOverHTTP(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/goals", "owner-token", map[string]any{
		"title": "Run a marathon", "targetDate": "2030-04-20",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	goal := decode[struct {
		ID         uint       `json:"id"`
		TargetDate *time.Time `json:"targetDate"`
	}](t, rec)
	require.NotNil(t, goal.TargetDate)
	assert.Equal(t, time.Date(2030, 4, 20, 0, 0, 0, 0, time.UTC), goal.TargetDate.UTC())

	base := "/api/goals/" + jsonNumber(goal.ID)
	rec = ts.do(t, http.MethodPost, base+"/milestones", "owner-token", map[string]any{"title": "10k"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = ts.do(t, http.MethodPost, base+"/milestones", "owner-token", map[string]any{"title": "Half"})
	require.Equal(t, http.StatusCreated, rec.Code)
	withMilestones := decode[struct {
		Milestones []struct {
			ID uint `json:"id"`
		} `json:"milestones"`
	}](t, rec)
	require.Len(t, withMilestones.Milestones, 2)

	mid := jsonNumber(withMilestones.Milestones[0].ID)
	rec = ts.do(t, http.MethodPatch, base+"/milestones/"+mid, "owner-token", map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"progress":50`)

	rec = ts.do(t, http.MethodPatch, base, "owner-token", map[string]any{"targetDate": nil})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "targetDate")

	rec = ts.do(t, http.MethodGet, "/api/goals/abc", "owner-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func jsonNumber(n uint) string {
	raw, _ := json.Marshal(n)
	return string(raw)
}

func TestMiddleware(t *testing.T) {
	ts := newTestServer(t, nil)

	t.Run("request id is generated", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/health", "", nil)
		assert.Len(t, rec.Header().Get("X-Request-ID"), 26)
	})

	t.Run("request id is reused", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("X-Request-ID", "trace-123")
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, req)
		assert.Equal(t, "trace-123", rec.Header().Get("X-Request-ID"))
	})

	t.Run("trailing slash", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/notes/", "owner-token", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/notes", nil)
		req.Header.Set("Origin", "https://site.example")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://site.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	})

	t.Run("cors unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("client ip ignores forwarded headers by default", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "198.51.100.2:1234"
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		assert.Equal(t, "198.51.100.2", ts.clientIP(req))
	})
}

func TestClientIPBehindProxies(t *testing.T) {
	tests := []struct {
		name    string
		proxies int
		xff     []string
		want    string
	}{
		{name: "one proxy takes the last hop", proxies: 1, xff: []string{"6.6.6.6, 203.0.113.7"}, want: "203.0.113.7"},
		{name: "two proxies", proxies: 2, xff: []string{"6.6.6.6, 203.0.113.7", "10.0.0.2"}, want: "203.0.113.7"},
		{name: "too few hops falls back to peer", proxies: 2, xff: []string{"203.0.113.7"}, want: "192.0.2.1"},
		{name: "no header falls back to peer", proxies: 1, want: "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, func(c *config.Config, _ *Deps) { c.TrustedProxies = tt.proxies })
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.0.2.1:5555"
			for _, v := range tt.xff {
				req.Header.Add("X-Forwarded-For", v)
			}
			assert.Equal(t, tt.want, ts.clientIP(req))
		})
	}
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	ts := newTestServer(t, func(_ *config.Config, d *Deps) {
		d.Limiter = ratelimit.New(2, time.Minute)
	})

	accepted := 0
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/logs/error",
			strings.NewReader(`{"message":"boom"}`))
		req.RemoteAddr = "192.0.2.1:5555"
		req.Header.Set("X-Forwarded-For", "10.0.0."+strconv.Itoa(i))
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, req)
		if rec.Code == http.StatusCreated {
			accepted++
		}
	}
	assert.Equal(t, 2, accepted)
}

func TestTimeoutAnswersJSON(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config, _ *Deps) { c.RequestTimeout = 20 * time.Millisecond })
	h := ts.timeout(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "request timed out", decode[errorBody](t, rec).Error)
}

func TestPanicsBecome500(t *testing.T) {
	ts := newTestServer(t, nil)
	h := ts.recoverPanics(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestGitHubProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/users/octo") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"login":"octo","name":"Octo Cat","public_repos":8}`))
	}))
	t.Cleanup(upstream.Close)

	ts := newTestServer(t, func(_ *config.Config, d *Deps) {
		d.GitHub = provider.NewGitHub("octo", "", upstream.Client()).WithBaseURL(upstream.URL)
	})

	rec := ts.do(t, http.MethodGet, "/api/github/profile", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "Octo Cat")

	rec = ts.do(t, http.MethodGet, "/api/github/repos?limit=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
