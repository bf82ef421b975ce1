package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config keeps runtime settings for the API server.
type Config struct {
	Env            string        `yaml:"env"`
	HTTPAddr       string        `yaml:"http_addr"`
	DatabaseURL    string        `yaml:"database_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	AdminEmails    []string      `yaml:"admin_emails"`
	// TrustedProxies is how many reverse proxies sit in front of the server.
	// Zero ignores X-Forwarded-For entirely.
	TrustedProxies int `yaml:"trusted_proxies"`

	Supabase  SupabaseConfig  `yaml:"supabase"`
	GitHub    GitHubConfig    `yaml:"github"`
	DevTo     DevToConfig     `yaml:"devto"`
	Medium    MediumConfig    `yaml:"medium"`
	Spotify   OAuthConfig     `yaml:"spotify"`
	Strava    OAuthConfig     `yaml:"strava"`
	Weather   WeatherConfig   `yaml:"weather"`
	Vercel    VercelConfig    `yaml:"vercel"`
	Brevo     BrevoConfig     `yaml:"brevo"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	ContactRecipient string `yaml:"contact_recipient"`
	EmailDomain      string `yaml:"email_domain"`
	DKIMSelector     string `yaml:"dkim_selector"`
	DigestTime       string `yaml:"digest_time"`
}

type SupabaseConfig struct {
	URL     string `yaml:"url"`
	AnonKey string `yaml:"anon_key"`
}

type GitHubConfig struct {
	Username string `yaml:"username"`
	Token    string `yaml:"token"`
}

type DevToConfig struct {
	Username string `yaml:"username"`
}

type MediumConfig struct {
	Username string `yaml:"username"`
}

// OAuthConfig holds a long-lived refresh token for a single account.
type OAuthConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
}

func (c OAuthConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

type WeatherConfig struct {
	APIKey      string `yaml:"api_key"`
	DefaultCity string `yaml:"default_city"`
}

type VercelConfig struct {
	Token  string `yaml:"token"`
	TeamID string `yaml:"team_id"`
}

type BrevoConfig struct {
	APIKey      string `yaml:"api_key"`
	SenderEmail string `yaml:"sender_email"`
	SenderName  string `yaml:"sender_name"`
	DailyLimit  int    `yaml:"daily_limit"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

type RateLimitConfig struct {
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads an optional YAML file and then overlays environment variables.
// Missing values fall back to sane defaults.
func Load(path string) (Config, error) {
	var cfg Config

	if path == "" {
		path = strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	overlayEnv(&cfg)
	applyDefaults(&cfg)

	if cfg.DigestTime != "" && !validClock(cfg.DigestTime) {
		return cfg, fmt.Errorf("DIGEST_TIME %q: expected HH:MM", cfg.DigestTime)
	}
	return cfg, nil
}

func overlayEnv(cfg *Config) {
	setString(&cfg.Env, "APP_ENV")
	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setDuration(&cfg.RequestTimeout, "REQUEST_TIMEOUT")
	setList(&cfg.AllowedOrigins, "ALLOWED_ORIGINS")
	setList(&cfg.AdminEmails, "ADMIN_EMAILS")
	setInt(&cfg.TrustedProxies, "TRUSTED_PROXIES")

	setString(&cfg.Supabase.URL, "SUPABASE_URL")
	setString(&cfg.Supabase.AnonKey, "SUPABASE_ANON_KEY")
	setString(&cfg.GitHub.Username, "GITHUB_USERNAME")
	setString(&cfg.GitHub.Token, "GITHUB_TOKEN")
	setString(&cfg.DevTo.Username, "DEVTO_USERNAME")
	setString(&cfg.Medium.Username, "MEDIUM_USERNAME")
	setString(&cfg.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	setString(&cfg.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	setString(&cfg.Spotify.RefreshToken, "SPOTIFY_REFRESH_TOKEN")
	setString(&cfg.Strava.ClientID, "STRAVA_CLIENT_ID")
	setString(&cfg.Strava.ClientSecret, "STRAVA_CLIENT_SECRET")
	setString(&cfg.Strava.RefreshToken, "STRAVA_REFRESH_TOKEN")
	setString(&cfg.Weather.APIKey, "OPENWEATHER_API_KEY")
	setString(&cfg.Weather.DefaultCity, "WEATHER_DEFAULT_CITY")
	setString(&cfg.Vercel.Token, "VERCEL_TOKEN")
	setString(&cfg.Vercel.TeamID, "VERCEL_TEAM_ID")
	setString(&cfg.Brevo.APIKey, "BREVO_API_KEY")
	setString(&cfg.Brevo.SenderEmail, "BREVO_SENDER_EMAIL")
	setString(&cfg.Brevo.SenderName, "BREVO_SENDER_NAME")
	setInt(&cfg.Brevo.DailyLimit, "BREVO_DAILY_LIMIT")
	setString(&cfg.Telegram.Token, "TELEGRAM_TOKEN")
	setInt64(&cfg.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setInt(&cfg.RateLimit.Max, "RATE_LIMIT_MAX")
	setDuration(&cfg.RateLimit.Window, "RATE_LIMIT_WINDOW")

	setString(&cfg.ContactRecipient, "CONTACT_RECIPIENT")
	setString(&cfg.EmailDomain, "EMAIL_DOMAIN")
	setString(&cfg.DKIMSelector, "DKIM_SELECTOR")
	setString(&cfg.DigestTime, "DIGEST_TIME")
}

func applyDefaults(cfg *Config) {
	if cfg.Env == "" {
		cfg.Env = "production"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "data/portfolio.db"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.TrustedProxies < 0 {
		cfg.TrustedProxies = 0
	}
	if cfg.Brevo.DailyLimit <= 0 {
		cfg.Brevo.DailyLimit = 300
	}
	if cfg.Brevo.SenderName == "" {
		cfg.Brevo.SenderName = "Portfolio"
	}
	if cfg.DKIMSelector == "" {
		cfg.DKIMSelector = "brevo"
	}
	if cfg.DigestTime == "" {
		cfg.DigestTime = "08:00"
	}
	if cfg.RateLimit.Max <= 0 {
		cfg.RateLimit.Max = 10
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = time.Minute
	}
	if cfg.Weather.DefaultCity == "" {
		cfg.Weather.DefaultCity = "London"
	}
	if cfg.ContactRecipient == "" {
		cfg.ContactRecipient = cfg.Brevo.SenderEmail
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		*dst = v
	}
}

func setInt64(dst *int64, key string) {
	if v, err := strconv.ParseInt(strings.TrimSpace(os.Getenv(key)), 10, 64); err == nil {
		*dst = v
	}
}

// setDuration accepts Go durations ("90s") or a bare number of seconds.
func setDuration(dst *time.Duration, key string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		*dst = d
		return
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		*dst = time.Duration(secs) * time.Second
	}
}

func validClock(s string) bool {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return false
	}
	m, err := strconv.Atoi(parts[1])
	return err == nil && m >= 0 && m <= 59
}
