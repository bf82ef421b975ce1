package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"portfolio/internal/apperr"
	"portfolio/internal/config"
)

type Track struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	AlbumImage string `json:"albumImageUrl,omitempty"`
	URL        string `json:"songUrl"`
	DurationMS int    `json:"durationMs"`
}

type NowPlaying struct {
	IsPlaying  bool   `json:"isPlaying"`
	ProgressMS int    `json:"progressMs,omitempty"`
	Track      *Track `json:"track,omitempty"`
}

type spotifyTrack struct {
	Name       string `json:"name"`
	DurationMS int    `json:"duration_ms"`
	Artists    []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name   string `json:"name"`
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

func (t spotifyTrack) toTrack() Track {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	out := Track{
		Title:      t.Name,
		Artist:     strings.Join(artists, ", "),
		Album:      t.Album.Name,
		URL:        t.ExternalURLs.Spotify,
		DurationMS: t.DurationMS,
	}
	if len(t.Album.Images) > 0 {
		out.AlbumImage = t.Album.Images[0].URL
	}
	return out
}

// Spotify reads listening data of the account behind the refresh token.
type Spotify struct {
	apiURL     string
	configured bool
	httpClient *http.Client
	top        *ttlCache[[]Track]
}

func NewSpotify(cfg config.OAuthConfig, base *http.Client) *Spotify {
	return newSpotify(cfg, "https://accounts.spotify.com/api/token", "https://api.spotify.com/v1", base)
}

func newSpotify(cfg config.OAuthConfig, tokenURL, apiURL string, base *http.Client) *Spotify {
	base = defaultHTTPClient(base)
	return &Spotify{
		apiURL:     apiURL,
		configured: cfg.Configured(),
		httpClient: refreshingClient(cfg, tokenURL, oauth2.AuthStyleInHeader, base),
		top:        newTTLCache[[]Track](time.Hour),
	}
}

func (s *Spotify) Configured() bool {
	return s.configured
}

// NowPlaying reports the current track. Spotify answers 204 when nothing plays.
func (s *Spotify) NowPlaying(ctx context.Context) (*NowPlaying, error) {
	if !s.configured {
		return nil, apperr.NotConfigured("spotify")
	}
	var raw struct {
		IsPlaying  bool          `json:"is_playing"`
		ProgressMS int           `json:"progress_ms"`
		Item       *spotifyTrack `json:"item"`
	}
	status, err := call(ctx, s.httpClient, "spotify", http.MethodGet, s.apiURL+"/me/player/currently-playing", nil, nil, &raw)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent || raw.Item == nil {
		return &NowPlaying{IsPlaying: false}, nil
	}
	track := raw.Item.toTrack()
	return &NowPlaying{IsPlaying: raw.IsPlaying, ProgressMS: raw.ProgressMS, Track: &track}, nil
}

var spotifyRanges = map[string]bool{"short_term": true, "medium_term": true, "long_term": true}

func (s *Spotify) TopTracks(ctx context.Context, timeRange string, limit int) ([]Track, error) {
	if !s.configured {
		return nil, apperr.NotConfigured("spotify")
	}
	if !spotifyRanges[timeRange] {
		timeRange = "short_term"
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	key := fmt.Sprintf("%s:%d", timeRange, limit)
	return cached(s.top, key, func() ([]Track, error) {
		var raw struct {
			Items []spotifyTrack `json:"items"`
		}
		u := fmt.Sprintf("%s/me/top/tracks?time_range=%s&limit=%d", s.apiURL, timeRange, limit)
		if _, err := call(ctx, s.httpClient, "spotify", http.MethodGet, u, nil, nil, &raw); err != nil {
			return nil, err
		}
		tracks := make([]Track, 0, len(raw.Items))
		for _, it := range raw.Items {
			tracks = append(tracks, it.toTrack())
		}
		return tracks, nil
	})
}
