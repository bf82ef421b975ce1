package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"portfolio/internal/apperr"
)

type Deployment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	State     string    `json:"state"`
	Target    string    `json:"target,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Framework string    `json:"framework,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Vercel lists deployments and projects of the token's account or team.
type Vercel struct {
	baseURL    string
	token      string
	teamID     string
	httpClient *http.Client
}

func NewVercel(token, teamID string, httpClient *http.Client) *Vercel {
	return &Vercel{
		baseURL:    "https://api.vercel.com",
		token:      token,
		teamID:     teamID,
		httpClient: defaultHTTPClient(httpClient),
	}
}

func (v *Vercel) WithBaseURL(u string) *Vercel {
	v.baseURL = u
	return v
}

func (v *Vercel) Configured() bool {
	return v.token != ""
}

func (v *Vercel) get(ctx context.Context, path string, params url.Values, out any) error {
	if !v.Configured() {
		return apperr.NotConfigured("vercel")
	}
	if v.teamID != "" {
		params.Set("teamId", v.teamID)
	}
	u := fmt.Sprintf("%s%s?%s", v.baseURL, path, params.Encode())
	_, err := call(ctx, v.httpClient, "vercel", http.MethodGet, u, map[string]string{"Authorization": "Bearer " + v.token}, nil, out)
	return err
}

func (v *Vercel) Deployments(ctx context.Context, limit int) ([]Deployment, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var raw struct {
		Deployments []struct {
			UID     string `json:"uid"`
			Name    string `json:"name"`
			URL     string `json:"url"`
			State   string `json:"state"`
			Target  string `json:"target"`
			Created int64  `json:"created"`
		} `json:"deployments"`
	}
	if err := v.get(ctx, "/v6/deployments", url.Values{"limit": {fmt.Sprint(limit)}}, &raw); err != nil {
		return nil, err
	}
	out := make([]Deployment, 0, len(raw.Deployments))
	for _, d := range raw.Deployments {
		out = append(out, Deployment{
			ID:        d.UID,
			Name:      d.Name,
			URL:       "https://" + d.URL,
			State:     d.State,
			Target:    d.Target,
			CreatedAt: time.UnixMilli(d.Created).UTC(),
		})
	}
	return out, nil
}

func (v *Vercel) Projects(ctx context.Context) ([]Project, error) {
	var raw struct {
		Projects []struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			Framework string `json:"framework"`
			UpdatedAt int64  `json:"updatedAt"`
		} `json:"projects"`
	}
	if err := v.get(ctx, "/v9/projects", url.Values{}, &raw); err != nil {
		return nil, err
	}
	out := make([]Project, 0, len(raw.Projects))
	for _, p := range raw.Projects {
		out = append(out, Project{ID: p.ID, Name: p.Name, Framework: p.Framework, UpdatedAt: time.UnixMilli(p.UpdatedAt).UTC()})
	}
	return out, nil
}
