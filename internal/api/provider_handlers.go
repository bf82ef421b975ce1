package api

import (
	"net/http"
	"strconv"
	"strings"

	"portfolio/internal/apperr"
	"portfolio/internal/provider"
)

// public caching for proxied third-party data.
func cacheFor(w http.ResponseWriter, seconds int) {
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(seconds))
}

func (s *Server) overview(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.Overview.Overview(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cacheFor(w, 60)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) githubProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.GitHub.Profile(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cacheFor(w, 300)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) githubRepos(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 6, 1, 100)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	repos, err := s.deps.GitHub.Repos(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cacheFor(w, 300)
	writeJSON(w, http.StatusOK, map[string]any{"repos": repos})
}

func (s *Server) githubActivity(w http.ResponseWriter, r *http.Request) {
	events, err := s.deps.GitHub.Activity(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cacheFor(w, 120)
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) devtoArticles(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10, 1, 30)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	articles, err := s.deps.DevTo.Articles(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cacheFor(w, 600)
	writeJSON(w, http.StatusOK, map[string]any{"articles": articles})
}

func (s *Server) mediumPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.deps.Medium.Posts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cacheFor(w, 600)
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (s *Server) spotifyNowPlaying(w http.ResponseWriter, r *http.Request) {
	np, err := s.deps.Spotify.NowPlaying(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, np)
}

func (s *Server) spotifyTopTracks(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10, 1, 50)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tracks, err := s.deps.Spotify.TopTracks(r.Context(), r.URL.Query().Get("range"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cacheFor(w, 3600)
	writeJSON(w, http.StatusOK, map[string]any{"tracks": tracks})
}

func (s *Server) stravaStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Strava.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cacheFor(w, 900)
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) stravaActivities(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10, 1, 50)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items, err := s.deps.Strava.Activities(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cacheFor(w, 900)
	writeJSON(w, http.StatusOK, map[string]any{"activities": items})
}

func (s *Server) weather(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := provider.WeatherQuery{City: strings.TrimSpace(q.Get("city"))}
	if lat, lon := q.Get("lat"), q.Get("lon"); lat != "" || lon != "" {
		la, err1 := strconv.ParseFloat(lat, 64)
		lo, err2 := strconv.ParseFloat(lon, 64)
		if err1 != nil || err2 != nil || la < -90 || la > 90 || lo < -180 || lo > 180 {
			s.writeError(w, r, apperr.Invalid("lat", "lat and lon must be valid coordinates"))
			return
		}
		query.Lat, query.Lon = &la, &lo
	}
	weather, err := s.deps.Weather.Current(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cacheFor(w, 600)
	writeJSON(w, http.StatusOK, weather)
}

func (s *Server) quote(w http.ResponseWriter, r *http.Request) {
	q, err := s.deps.Quotes.Random(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) vercelDeployments(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10, 1, 100)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	deployments, err := s.deps.Vercel.Deployments(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cacheFor(w, 60)
	writeJSON(w, http.StatusOK, map[string]any{"deployments": deployments})
}

func (s *Server) vercelProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.deps.Vercel.Projects(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cacheFor(w, 300)
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}
