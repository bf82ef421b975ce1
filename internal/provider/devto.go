package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"portfolio/internal/apperr"
)

type Article struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	CoverImage  string    `json:"coverImage,omitempty"`
	Tags        []string  `json:"tags"`
	Reactions   int       `json:"reactions"`
	Comments    int       `json:"comments"`
	ReadingTime int       `json:"readingTimeMinutes"`
	PublishedAt time.Time `json:"publishedAt"`
}

// DevTo lists published articles of one Dev.to author.
type DevTo struct {
	baseURL    string
	username   string
	httpClient *http.Client
	articles   *ttlCache[[]Article]
}

func NewDevTo(username string, httpClient *http.Client) *DevTo {
	return &DevTo{
		baseURL:    "https://dev.to/api",
		username:   username,
		httpClient: defaultHTTPClient(httpClient),
		articles:   newTTLCache[[]Article](15 * time.Minute),
	}
}

func (d *DevTo) WithBaseURL(u string) *DevTo {
	d.baseURL = u
	return d
}

func (d *DevTo) Configured() bool {
	return d.username != ""
}

func (d *DevTo) Articles(ctx context.Context, limit int) ([]Article, error) {
	if !d.Configured() {
		return nil, apperr.NotConfigured("devto")
	}
	if limit <= 0 || limit > 30 {
		limit = 30
	}
	key := fmt.Sprintf("articles:%d", limit)
	return cached(d.articles, key, func() ([]Article, error) {
		var raw []struct {
			ID          int       `json:"id"`
			Title       string    `json:"title"`
			Description string    `json:"description"`
			URL         string    `json:"url"`
			CoverImage  string    `json:"cover_image"`
			TagList     []string  `json:"tag_list"`
			Reactions   int       `json:"positive_reactions_count"`
			Comments    int       `json:"comments_count"`
			ReadingTime int       `json:"reading_time_minutes"`
			PublishedAt time.Time `json:"published_at"`
		}
		u := fmt.Sprintf("%s/articles?username=%s&per_page=%d", d.baseURL, url.QueryEscape(d.username), limit)
		if _, err := call(ctx, d.httpClient, "devto", http.MethodGet, u, nil, nil, &raw); err != nil {
			return nil, err
		}
		out := make([]Article, 0, len(raw))
		for _, a := range raw {
			out = append(out, Article{
				ID:          a.ID,
				Title:       a.Title,
				Description: a.Description,
				URL:         a.URL,
				CoverImage:  a.CoverImage,
				Tags:        a.TagList,
				Reactions:   a.Reactions,
				Comments:    a.Comments,
				ReadingTime: a.ReadingTime,
				PublishedAt: a.PublishedAt,
			})
		}
		return out, nil
	})
}
