package provider

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"portfolio/internal/apperr"
)

// Overview bundles the landing-page widgets. Sources that fail or are not
// configured are left empty.
type Overview struct {
	GitHub     *GitHubProfile `json:"github,omitempty"`
	Repos      []GitHubRepo   `json:"repos,omitempty"`
	Articles   []Article      `json:"articles,omitempty"`
	Posts      []MediumPost   `json:"posts,omitempty"`
	NowPlaying *NowPlaying    `json:"nowPlaying,omitempty"`
	Quote      *Quote         `json:"quote,omitempty"`
}

// Aggregator fetches every source concurrently.
type Aggregator struct {
	GitHub  *GitHub
	DevTo   *DevTo
	Medium  *Medium
	Spotify *Spotify
	Quotes  *Quotes
	Log     *zap.Logger
}

func (a *Aggregator) Overview(ctx context.Context) (*Overview, error) {
	var out Overview
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := a.GitHub.Profile(ctx)
		out.GitHub = p
		return a.soft("github profile", err)
	})
	g.Go(func() error {
		r, err := a.GitHub.Repos(ctx, 6)
		out.Repos = r
		return a.soft("github repos", err)
	})
	g.Go(func() error {
		arts, err := a.DevTo.Articles(ctx, 3)
		out.Articles = arts
		return a.soft("devto", err)
	})
	g.Go(func() error {
		posts, err := a.Medium.Posts(ctx)
		if len(posts) > 3 {
			posts = posts[:3]
		}
		out.Posts = posts
		return a.soft("medium", err)
	})
	g.Go(func() error {
		np, err := a.Spotify.NowPlaying(ctx)
		out.NowPlaying = np
		return a.soft("spotify", err)
	})
	g.Go(func() error {
		q, _ := a.Quotes.Random(ctx)
		out.Quote = &q
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// soft logs a source failure without failing the whole overview. Only
// context cancellation propagates.
func (a *Aggregator) soft(source string, err error) error {
	if err == nil || errors.Is(err, apperr.ErrNotConfigured) {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if a.Log != nil {
		a.Log.Warn("overview source failed", zap.String("source", source), zap.Error(err))
	}
	return nil
}
