package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/apperr"
	"portfolio/internal/config"
)

func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestCacheDropsExpiredEntries(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := newTTLCache[string](time.Minute)
	c.now = func() time.Time { return now }

	c.set("berlin", "sunny")
	c.set("paris", "rain")
	v, ok := c.get("paris")
	require.True(t, ok)
	assert.Equal(t, "rain", v)

	now = now.Add(2 * time.Minute)
	_, ok = c.get("berlin")
	assert.False(t, ok)

	c.set("oslo", "snow")
	assert.Len(t, c.items, 1, "expired cities are swept on write")
	_, ok = c.items["oslo"]
	assert.True(t, ok)
}

func TestGitHubReposFiltersAndSorts(t *testing.T) {
	var hits atomic.Int32
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/users/octo/repos", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`[
			{"name":"small","stargazers_count":1,"updated_at":"2024-01-01T00:00:00Z"},
			{"name":"forked","fork":true,"stargazers_count":99,"updated_at":"2024-01-01T00:00:00Z"},
			{"name":"big","stargazers_count":50,"language":"Go","updated_at":"2023-01-01T00:00:00Z"},
			{"name":"old","archived":true,"stargazers_count":70,"updated_at":"2020-01-01T00:00:00Z"}
		]`))
	})
	gh := NewGitHub("octo", "secret", srv.Client()).WithBaseURL(srv.URL)

	repos, err := gh.Repos(context.Background(), 0)
	require.NoError(t, err)
	names := make([]string, 0, len(repos))
	for _, r := range repos {
		names = append(names, r.Name)
	}
	if diff := cmp.Diff([]string{"big", "small"}, names); diff != "" {
		t.Errorf("repo order mismatch (-want +got):\n%s", diff)
	}

	limited, err := gh.Repos(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
	assert.EqualValues(t, 1, hits.Load(), "second call served from cache")
}

func TestGitHubNotConfigured(t *testing.T) {
	_, err := NewGitHub("", "", nil).Profile(context.Background())
	assert.ErrorIs(t, err, apperr.ErrNotConfigured)
}

func TestGitHubUpstreamError(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"API rate limit exceeded"}`))
	})
	_, err := NewGitHub("octo", "", srv.Client()).WithBaseURL(srv.URL).Profile(context.Background())

	var ue *apperr.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusForbidden, ue.Status)
	assert.Equal(t, "API rate limit exceeded", ue.Message)
}

const mediumFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss xmlns:content="http://purl.org/rss/1.0/modules/content/" version="2.0">
<channel>
  <title>Stories by Ada</title>
  <item>
    <title>Writing Go services</title>
    <link>https://medium.com/@ada/writing-go-services-123?source=rss-abc</link>
    <category>go</category>
    <category>backend</category>
    <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    <content:encoded><![CDATA[<h3>Intro</h3><p>Services should be <b>boring</b>.</p><script>x()</script>]]></content:encoded>
  </item>
</channel>
</rss>`

func TestMediumPosts(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/@ada", r.URL.Path)
		w.Write([]byte(mediumFeed))
	})
	posts, err := NewMedium("ada", srv.Client()).WithBaseURL(srv.URL).Posts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)

	p := posts[0]
	assert.Equal(t, "Writing Go services", p.Title)
	assert.Equal(t, "https://medium.com/@ada/writing-go-services-123", p.Link)
	assert.Equal(t, []string{"go", "backend"}, p.Categories)
	assert.Equal(t, "IntroServices should be boring.", p.Excerpt)
	assert.Equal(t, 2006, p.PublishedAt.Year())
}

func TestDevToArticles(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ada", r.URL.Query().Get("username"))
		assert.Equal(t, "3", r.URL.Query().Get("per_page"))
		w.Write([]byte(`[{"id":7,"title":"Hello","tag_list":["go"],"positive_reactions_count":12,"published_at":"2024-05-01T10:00:00Z"}]`))
	})
	arts, err := NewDevTo("ada", srv.Client()).WithBaseURL(srv.URL).Articles(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, arts, 1)
	assert.Equal(t, 12, arts[0].Reactions)
	assert.Equal(t, []string{"go"}, arts[0].Tags)
}

// spotifyFake serves both the token endpoint and the API.
func spotifyFake(t *testing.T, playing bool) *httptest.Server {
	return serve(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "cid", user)
			assert.Equal(t, "csecret", pass)
			r.ParseForm()
			assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
			assert.Equal(t, "rtok", r.PostForm.Get("refresh_token"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"atok","token_type":"Bearer","expires_in":3600}`))
		case "/v1/me/player/currently-playing":
			assert.Equal(t, "Bearer atok", r.Header.Get("Authorization"))
			if !playing {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			w.Write([]byte(`{"is_playing":true,"progress_ms":1000,"item":{"name":"Song","duration_ms":200000,
				"artists":[{"name":"A"},{"name":"B"}],"album":{"name":"LP","images":[{"url":"img"}]},
				"external_urls":{"spotify":"https://open.spotify.com/track/1"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func TestSpotifyNowPlaying(t *testing.T) {
	cfg := config.OAuthConfig{ClientID: "cid", ClientSecret: "csecret", RefreshToken: "rtok"}

	srv := spotifyFake(t, true)
	np, err := newSpotify(cfg, srv.URL+"/token", srv.URL+"/v1", srv.Client()).NowPlaying(context.Background())
	require.NoError(t, err)
	assert.True(t, np.IsPlaying)
	require.NotNil(t, np.Track)
	assert.Equal(t, Track{Title: "Song", Artist: "A, B", Album: "LP", AlbumImage: "img",
		URL: "https://open.spotify.com/track/1", DurationMS: 200000}, *np.Track)

	idle := spotifyFake(t, false)
	np, err = newSpotify(cfg, idle.URL+"/token", idle.URL+"/v1", idle.Client()).NowPlaying(context.Background())
	require.NoError(t, err)
	assert.False(t, np.IsPlaying)
	assert.Nil(t, np.Track)
}

func TestSpotifyNotConfigured(t *testing.T) {
	_, err := NewSpotify(config.OAuthConfig{}, nil).TopTracks(context.Background(), "", 0)
	assert.ErrorIs(t, err, apperr.ErrNotConfigured)
}

func TestStravaStats(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			r.ParseForm()
			assert.Equal(t, "cid", r.PostForm.Get("client_id"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"atok","token_type":"Bearer","expires_in":21600,"refresh_token":"rtok2"}`))
		case "/api/v3/athlete":
			w.Write([]byte(`{"id":42}`))
		case "/api/v3/athletes/42/stats":
			w.Write([]byte(`{"recent_run_totals":{"count":3,"distance":15250,"moving_time":5400,"elevation_gain":120.04}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	cfg := config.OAuthConfig{ClientID: "cid", ClientSecret: "cs", RefreshToken: "rtok"}
	stats, err := newStrava(cfg, srv.URL+"/oauth/token", srv.URL+"/api/v3", srv.Client()).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Totals{Count: 3, DistanceKM: 15.3, MovingHours: 1.5, ElevationGain: 120}, stats.RecentRuns)
}

func TestWeatherByCity(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Paris", q.Get("q"))
		assert.Equal(t, "metric", q.Get("units"))
		assert.Equal(t, "key", q.Get("appid"))
		w.Write([]byte(`{"name":"Paris","sys":{"country":"FR"},"main":{"temp":21.46,"feels_like":20.9,"humidity":40},
			"wind":{"speed":3.1},"weather":[{"main":"Clear","description":"clear sky","icon":"01d"}]}`))
	})
	ow := NewOpenWeather("key", "London", srv.Client()).WithBaseURL(srv.URL)

	wx, err := ow.Current(context.Background(), WeatherQuery{City: "Paris"})
	require.NoError(t, err)
	assert.Equal(t, "Paris", wx.Location)
	assert.Equal(t, 21.5, wx.Temperature)
	assert.Equal(t, "Clear", wx.Condition)

	lat, lon := 95.0, 0.0
	_, err = ow.Current(context.Background(), WeatherQuery{Lat: &lat, Lon: &lon})
	var ve *apperr.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestQuoteFallback(t *testing.T) {
	ok := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"q":"Stay hungry. ","a":"Steve Jobs"}]`))
	})
	q, err := NewQuotes(ok.Client()).WithURL(ok.URL).Random(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Quote{Text: "Stay hungry.", Author: "Steve Jobs", Source: "zenquotes"}, q)

	down := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	q, err = NewQuotes(down.Client()).WithURL(down.URL).Random(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "fallback", q.Source)
	assert.NotEmpty(t, q.Text)
}

func TestVercelDeployments(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "team_1", r.URL.Query().Get("teamId"))
		assert.Equal(t, "Bearer vt", r.Header.Get("Authorization"))
		w.Write([]byte(`{"deployments":[{"uid":"dpl_1","name":"site","url":"site-abc.vercel.app","state":"READY","created":1700000000000}]}`))
	})
	deps, err := NewVercel("vt", "team_1", srv.Client()).WithBaseURL(srv.URL).Deployments(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, "https://site-abc.vercel.app", deps[0].URL)
	assert.Equal(t, int64(1700000000), deps[0].CreatedAt.Unix())
}

func TestBrevoSend(t *testing.T) {
	var got brevoRequest
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/smtp/email", r.URL.Path)
		assert.Equal(t, "bk", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"messageId":"<abc@smtp>"}`))
	})
	b := NewBrevo("bk", "me@site.dev", "Me", srv.Client()).WithBaseURL(srv.URL)

	id, err := b.Send(context.Background(), Email{To: "you@x.dev", Subject: "Hi", Text: "hello", ReplyTo: "r@x.dev"})
	require.NoError(t, err)
	assert.Equal(t, "<abc@smtp>", id)
	assert.Equal(t, "me@site.dev", got.Sender.Email)
	assert.Equal(t, "you@x.dev", got.To[0].Email)
	require.NotNil(t, got.ReplyTo)
	assert.Equal(t, "r@x.dev", got.ReplyTo.Email)

	_, err = NewBrevo("", "", "", nil).Send(context.Background(), Email{})
	assert.ErrorIs(t, err, apperr.ErrNotConfigured)
}

func TestOverviewSkipsUnconfiguredSources(t *testing.T) {
	quotes := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"q":"q","a":"a"}]`))
	})
	gh := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/repos") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"login":"octo","public_repos":4}`))
	})

	agg := &Aggregator{
		GitHub:  NewGitHub("octo", "", gh.Client()).WithBaseURL(gh.URL),
		DevTo:   NewDevTo("", nil),
		Medium:  NewMedium("", nil),
		Spotify: NewSpotify(config.OAuthConfig{}, nil),
		Quotes:  NewQuotes(quotes.Client()).WithURL(quotes.URL),
	}
	ov, err := agg.Overview(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ov.GitHub)
	assert.Equal(t, 4, ov.GitHub.PublicRepos)
	assert.Empty(t, ov.Repos)
	assert.Empty(t, ov.Articles)
	assert.Nil(t, ov.NowPlaying)
	assert.Equal(t, "q", ov.Quote.Text)
}
