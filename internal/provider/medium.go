package provider

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"portfolio/internal/apperr"
	"portfolio/internal/sanitize"
)

const excerptLength = 240

type MediumPost struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Categories  []string  `json:"categories"`
	Excerpt     string    `json:"excerpt"`
	PublishedAt time.Time `json:"publishedAt"`
}

type rssFeed struct {
	Channel struct {
		Items []struct {
			Title      string   `xml:"title"`
			Link       string   `xml:"link"`
			PubDate    string   `xml:"pubDate"`
			Categories []string `xml:"category"`
			Encoded    string   `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
		} `xml:"item"`
	} `xml:"channel"`
}

// Medium reads the public RSS feed of one Medium author.
type Medium struct {
	baseURL    string
	username   string
	httpClient *http.Client
	posts      *ttlCache[[]MediumPost]
}

func NewMedium(username string, httpClient *http.Client) *Medium {
	return &Medium{
		baseURL:    "https://medium.com/feed",
		username:   username,
		httpClient: defaultHTTPClient(httpClient),
		posts:      newTTLCache[[]MediumPost](15 * time.Minute),
	}
}

func (m *Medium) WithBaseURL(u string) *Medium {
	m.baseURL = u
	return m
}

func (m *Medium) Configured() bool {
	return m.username != ""
}

func (m *Medium) Posts(ctx context.Context) ([]MediumPost, error) {
	if !m.Configured() {
		return nil, apperr.NotConfigured("medium")
	}
	return cached(m.posts, "posts", func() ([]MediumPost, error) {
		u := fmt.Sprintf("%s/@%s", m.baseURL, url.PathEscape(m.username))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("medium: build request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/rss+xml, application/xml")

		resp, err := m.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("medium: request: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, &apperr.UpstreamError{Service: "medium", Status: resp.StatusCode}
		}
		return parseMediumFeed(io.LimitReader(resp.Body, maxBodyBytes))
	})
}

func parseMediumFeed(r io.Reader) ([]MediumPost, error) {
	var feed rssFeed
	if err := xml.NewDecoder(r).Decode(&feed); err != nil {
		return nil, fmt.Errorf("medium: decode feed: %w", err)
	}
	posts := make([]MediumPost, 0, len(feed.Channel.Items))
	for _, it := range feed.Channel.Items {
		published, _ := time.Parse(time.RFC1123, it.PubDate)
		posts = append(posts, MediumPost{
			Title:       it.Title,
			Link:        stripTracking(it.Link),
			Categories:  it.Categories,
			Excerpt:     sanitize.Text(it.Encoded, excerptLength),
			PublishedAt: published,
		})
	}
	return posts, nil
}

// stripTracking drops the source query Medium appends to feed links.
func stripTracking(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	u.RawQuery = ""
	return u.String()
}
