package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"portfolio/internal/apperr"
	"portfolio/internal/config"
)

type Totals struct {
	Count         int     `json:"count"`
	DistanceKM    float64 `json:"distanceKm"`
	MovingHours   float64 `json:"movingHours"`
	ElevationGain float64 `json:"elevationGainM"`
}

type AthleteStats struct {
	RecentRuns  Totals `json:"recentRuns"`
	YearRuns    Totals `json:"yearRuns"`
	AllRuns     Totals `json:"allRuns"`
	RecentRides Totals `json:"recentRides"`
	YearRides   Totals `json:"yearRides"`
	AllRides    Totals `json:"allRides"`
}

type Activity struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	DistanceKM    float64   `json:"distanceKm"`
	MovingMinutes float64   `json:"movingMinutes"`
	ElevationGain float64   `json:"elevationGainM"`
	StartDate     time.Time `json:"startDate"`
}

type stravaTotals struct {
	Count         int     `json:"count"`
	Distance      float64 `json:"distance"`
	MovingTime    float64 `json:"moving_time"`
	ElevationGain float64 `json:"elevation_gain"`
}

func (t stravaTotals) convert() Totals {
	return Totals{
		Count:         t.Count,
		DistanceKM:    round1(t.Distance / 1000),
		MovingHours:   round1(t.MovingTime / 3600),
		ElevationGain: round1(t.ElevationGain),
	}
}

func round1(f float64) float64 {
	return float64(int64(f*10+0.5)) / 10
}

// Strava reads activity data of the athlete behind the refresh token.
type Strava struct {
	apiURL     string
	configured bool
	httpClient *http.Client
	stats      *ttlCache[*AthleteStats]
	activities *ttlCache[[]Activity]
}

func NewStrava(cfg config.OAuthConfig, base *http.Client) *Strava {
	return newStrava(cfg, "https://www.strava.com/oauth/token", "https://www.strava.com/api/v3", base)
}

func newStrava(cfg config.OAuthConfig, tokenURL, apiURL string, base *http.Client) *Strava {
	base = defaultHTTPClient(base)
	return &Strava{
		apiURL:     apiURL,
		configured: cfg.Configured(),
		httpClient: refreshingClient(cfg, tokenURL, oauth2.AuthStyleInParams, base),
		stats:      newTTLCache[*AthleteStats](30 * time.Minute),
		activities: newTTLCache[[]Activity](10 * time.Minute),
	}
}

func (s *Strava) Configured() bool {
	return s.configured
}

func (s *Strava) Stats(ctx context.Context) (*AthleteStats, error) {
	if !s.configured {
		return nil, apperr.NotConfigured("strava")
	}
	return cached(s.stats, "stats", func() (*AthleteStats, error) {
		var athlete struct {
			ID int64 `json:"id"`
		}
		if _, err := call(ctx, s.httpClient, "strava", http.MethodGet, s.apiURL+"/athlete", nil, nil, &athlete); err != nil {
			return nil, err
		}
		var raw struct {
			RecentRun  stravaTotals `json:"recent_run_totals"`
			YTDRun     stravaTotals `json:"ytd_run_totals"`
			AllRun     stravaTotals `json:"all_run_totals"`
			RecentRide stravaTotals `json:"recent_ride_totals"`
			YTDRide    stravaTotals `json:"ytd_ride_totals"`
			AllRide    stravaTotals `json:"all_ride_totals"`
		}
		u := fmt.Sprintf("%s/athletes/%d/stats", s.apiURL, athlete.ID)
		if _, err := call(ctx, s.httpClient, "strava", http.MethodGet, u, nil, nil, &raw); err != nil {
			return nil, err
		}
		return &AthleteStats{
			RecentRuns:  raw.RecentRun.convert(),
			YearRuns:    raw.YTDRun.convert(),
			AllRuns:     raw.AllRun.convert(),
			RecentRides: raw.RecentRide.convert(),
			YearRides:   raw.YTDRide.convert(),
			AllRides:    raw.AllRide.convert(),
		}, nil
	})
}

func (s *Strava) Activities(ctx context.Context, limit int) ([]Activity, error) {
	if !s.configured {
		return nil, apperr.NotConfigured("strava")
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return cached(s.activities, fmt.Sprint(limit), func() ([]Activity, error) {
		var raw []struct {
			ID                 int64     `json:"id"`
			Name               string    `json:"name"`
			Type               string    `json:"type"`
			Distance           float64   `json:"distance"`
			MovingTime         float64   `json:"moving_time"`
			TotalElevationGain float64   `json:"total_elevation_gain"`
			StartDate          time.Time `json:"start_date"`
		}
		u := fmt.Sprintf("%s/athlete/activities?per_page=%d", s.apiURL, limit)
		if _, err := call(ctx, s.httpClient, "strava", http.MethodGet, u, nil, nil, &raw); err != nil {
			return nil, err
		}
		out := make([]Activity, 0, len(raw))
		for _, a := range raw {
			out = append(out, Activity{
				ID:            a.ID,
				Name:          a.Name,
				Type:          a.Type,
				DistanceKM:    round1(a.Distance / 1000),
				MovingMinutes: round1(a.MovingTime / 60),
				ElevationGain: round1(a.TotalElevationGain),
				StartDate:     a.StartDate,
			})
		}
		return out, nil
	})
}
