package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"portfolio/internal/apperr"
)

// GitHubProfile is the public profile of the portfolio owner.
type GitHubProfile struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatarUrl"`
	Bio         string `json:"bio"`
	HTMLURL     string `json:"htmlUrl"`
	PublicRepos int    `json:"publicRepos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
}

type GitHubRepo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	HTMLURL     string    `json:"htmlUrl"`
	Homepage    string    `json:"homepage,omitempty"`
	Language    string    `json:"language,omitempty"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	Topics      []string  `json:"topics,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type GitHubEvent struct {
	Type      string    `json:"type"`
	Repo      string    `json:"repo"`
	CreatedAt time.Time `json:"createdAt"`
}

// GitHub reads public data for a single account.
type GitHub struct {
	baseURL    string
	username   string
	token      string
	httpClient *http.Client

	profiles *ttlCache[*GitHubProfile]
	repos    *ttlCache[[]GitHubRepo]
	events   *ttlCache[[]GitHubEvent]
}

func NewGitHub(username, token string, httpClient *http.Client) *GitHub {
	return &GitHub{
		baseURL:    "https://api.github.com",
		username:   username,
		token:      token,
		httpClient: defaultHTTPClient(httpClient),
		profiles:   newTTLCache[*GitHubProfile](10 * time.Minute),
		repos:      newTTLCache[[]GitHubRepo](10 * time.Minute),
		events:     newTTLCache[[]GitHubEvent](5 * time.Minute),
	}
}

// WithBaseURL points the client at another API root.
func (g *GitHub) WithBaseURL(u string) *GitHub {
	g.baseURL = u
	return g
}

func (g *GitHub) Configured() bool {
	return g.username != ""
}

func (g *GitHub) get(ctx context.Context, path string, out any) error {
	if !g.Configured() {
		return apperr.NotConfigured("github")
	}
	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if g.token != "" {
		headers["Authorization"] = "Bearer " + g.token
	}
	_, err := call(ctx, g.httpClient, "github", http.MethodGet, g.baseURL+path, headers, nil, out)
	return err
}

func (g *GitHub) Profile(ctx context.Context) (*GitHubProfile, error) {
	return cached(g.profiles, "profile", func() (*GitHubProfile, error) {
		var raw struct {
			Login       string `json:"login"`
			Name        string `json:"name"`
			AvatarURL   string `json:"avatar_url"`
			Bio         string `json:"bio"`
			HTMLURL     string `json:"html_url"`
			PublicRepos int    `json:"public_repos"`
			Followers   int    `json:"followers"`
			Following   int    `json:"following"`
		}
		if err := g.get(ctx, "/users/"+url.PathEscape(g.username), &raw); err != nil {
			return nil, err
		}
		p := GitHubProfile(raw)
		return &p, nil
	})
}

// Repos lists the owner's non-fork repositories, most starred first.
func (g *GitHub) Repos(ctx context.Context, limit int) ([]GitHubRepo, error) {
	all, err := cached(g.repos, "repos", func() ([]GitHubRepo, error) {
		var raw []struct {
			Name        string    `json:"name"`
			Description string    `json:"description"`
			HTMLURL     string    `json:"html_url"`
			Homepage    string    `json:"homepage"`
			Language    string    `json:"language"`
			Stars       int       `json:"stargazers_count"`
			Forks       int       `json:"forks_count"`
			Topics      []string  `json:"topics"`
			Fork        bool      `json:"fork"`
			Archived    bool      `json:"archived"`
			UpdatedAt   time.Time `json:"updated_at"`
		}
		path := fmt.Sprintf("/users/%s/repos?per_page=100&sort=updated", url.PathEscape(g.username))
		if err := g.get(ctx, path, &raw); err != nil {
			return nil, err
		}
		repos := make([]GitHubRepo, 0, len(raw))
		for _, r := range raw {
			if r.Fork || r.Archived {
				continue
			}
			repos = append(repos, GitHubRepo{
				Name:        r.Name,
				Description: r.Description,
				HTMLURL:     r.HTMLURL,
				Homepage:    r.Homepage,
				Language:    r.Language,
				Stars:       r.Stars,
				Forks:       r.Forks,
				Topics:      r.Topics,
				UpdatedAt:   r.UpdatedAt,
			})
		}
		sort.SliceStable(repos, func(i, j int) bool {
			if repos[i].Stars != repos[j].Stars {
				return repos[i].Stars > repos[j].Stars
			}
			return repos[i].UpdatedAt.After(repos[j].UpdatedAt)
		})
		return repos, nil
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (g *GitHub) Activity(ctx context.Context) ([]GitHubEvent, error) {
	return cached(g.events, "events", func() ([]GitHubEvent, error) {
		var raw []struct {
			Type string `json:"type"`
			Repo struct {
				Name string `json:"name"`
			} `json:"repo"`
			CreatedAt time.Time `json:"created_at"`
		}
		path := fmt.Sprintf("/users/%s/events/public?per_page=30", url.PathEscape(g.username))
		if err := g.get(ctx, path, &raw); err != nil {
			return nil, err
		}
		events := make([]GitHubEvent, 0, len(raw))
		for _, e := range raw {
			events = append(events, GitHubEvent{Type: e.Type, Repo: e.Repo.Name, CreatedAt: e.CreatedAt})
		}
		return events, nil
	})
}
