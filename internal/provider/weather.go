package provider

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"portfolio/internal/apperr"
)

type Weather struct {
	Location    string  `json:"location"`
	Country     string  `json:"country,omitempty"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feelsLike"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	Icon        string  `json:"icon,omitempty"`
}

// WeatherQuery selects a location by city name or by coordinates.
type WeatherQuery struct {
	City     string
	Lat, Lon *float64
}

// OpenWeather reads current conditions in metric units.
type OpenWeather struct {
	baseURL     string
	apiKey      string
	defaultCity string
	httpClient  *http.Client
	cache       *ttlCache[*Weather]
}

func NewOpenWeather(apiKey, defaultCity string, httpClient *http.Client) *OpenWeather {
	return &OpenWeather{
		baseURL:     "https://api.openweathermap.org/data/2.5",
		apiKey:      apiKey,
		defaultCity: defaultCity,
		httpClient:  defaultHTTPClient(httpClient),
		cache:       newTTLCache[*Weather](10 * time.Minute),
	}
}

func (o *OpenWeather) WithBaseURL(u string) *OpenWeather {
	o.baseURL = u
	return o
}

func (o *OpenWeather) Configured() bool {
	return o.apiKey != ""
}

func (o *OpenWeather) Current(ctx context.Context, q WeatherQuery) (*Weather, error) {
	if !o.Configured() {
		return nil, apperr.NotConfigured("weather")
	}

	params := url.Values{}
	params.Set("units", "metric")
	var key string
	switch {
	case q.Lat != nil && q.Lon != nil:
		if math.Abs(*q.Lat) > 90 || math.Abs(*q.Lon) > 180 {
			return nil, apperr.Invalid("lat", "coordinates out of range")
		}
		lat := strconv.FormatFloat(*q.Lat, 'f', 2, 64)
		lon := strconv.FormatFloat(*q.Lon, 'f', 2, 64)
		params.Set("lat", lat)
		params.Set("lon", lon)
		key = lat + "," + lon
	default:
		city := strings.TrimSpace(q.City)
		if city == "" {
			city = o.defaultCity
		}
		if len(city) > 100 {
			return nil, apperr.Invalid("city", "is too long")
		}
		params.Set("q", city)
		key = strings.ToLower(city)
	}

	return cached(o.cache, key, func() (*Weather, error) {
		var raw struct {
			Name string `json:"name"`
			Sys  struct {
				Country string `json:"country"`
			} `json:"sys"`
			Main struct {
				Temp      float64 `json:"temp"`
				FeelsLike float64 `json:"feels_like"`
				Humidity  int     `json:"humidity"`
			} `json:"main"`
			Wind struct {
				Speed float64 `json:"speed"`
			} `json:"wind"`
			Weather []struct {
				Main        string `json:"main"`
				Description string `json:"description"`
				Icon        string `json:"icon"`
			} `json:"weather"`
		}
		params.Set("appid", o.apiKey)
		u := fmt.Sprintf("%s/weather?%s", o.baseURL, params.Encode())
		if _, err := call(ctx, o.httpClient, "weather", http.MethodGet, u, nil, nil, &raw); err != nil {
			return nil, err
		}
		w := &Weather{
			Location:    raw.Name,
			Country:     raw.Sys.Country,
			Temperature: round1(raw.Main.Temp),
			FeelsLike:   round1(raw.Main.FeelsLike),
			Humidity:    raw.Main.Humidity,
			WindSpeed:   raw.Wind.Speed,
		}
		if len(raw.Weather) > 0 {
			w.Condition = raw.Weather[0].Main
			w.Description = raw.Weather[0].Description
			w.Icon = raw.Weather[0].Icon
		}
		return w, nil
	})
}
