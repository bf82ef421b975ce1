package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"portfolio/internal/api"
	"portfolio/internal/auth"
	"portfolio/internal/config"
	"portfolio/internal/notify"
	"portfolio/internal/provider"
	"portfolio/internal/ratelimit"
	"portfolio/internal/repository"
	"portfolio/internal/service"
)

// app holds everything the commands need, built once from config.
type app struct {
	db       *gorm.DB
	deps     api.Deps
	digest   *service.DigestService
	notifier notify.Notifier
	// telegram reports whether notifier reaches a real chat.
	telegram bool
}

func buildApp(ctx context.Context, cfg config.Config, log *zap.Logger) (*app, error) {
	db, err := repository.OpenWithRetry(ctx, cfg.DatabaseURL, log, 3, 2*time.Second)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: 15 * time.Second}

	users := repository.NewUserRepository(db)
	notes := repository.NewNoteRepository(db)
	notebooks := repository.NewNotebookRepository(db)
	tags := repository.NewTagRepository(db)
	shares := repository.NewShareRepository(db)
	attachments := repository.NewAttachmentRepository(db)
	goals := repository.NewGoalRepository(db)
	messages := repository.NewMessageRepository(db)
	logs := repository.NewLogRepository(db)

	a := &app{db: db, notifier: notify.Nop{}}
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, "", httpClient, log.Named("telegram"))
		if err != nil {
			log.Warn("telegram disabled", zap.Error(err))
		} else {
			a.notifier, a.telegram = tg, true
		}
	}

	brevo := provider.NewBrevo(cfg.Brevo.APIKey, cfg.Brevo.SenderEmail, cfg.Brevo.SenderName, httpClient)
	email := service.NewEmailService(brevo, messages, nil, cfg.Brevo.DailyLimit, cfg.EmailDomain, cfg.DKIMSelector, log.Named("email"))

	github := provider.NewGitHub(cfg.GitHub.Username, cfg.GitHub.Token, httpClient)
	devto := provider.NewDevTo(cfg.DevTo.Username, httpClient)
	medium := provider.NewMedium(cfg.Medium.Username, httpClient)
	spotify := provider.NewSpotify(cfg.Spotify, httpClient)
	quotes := provider.NewQuotes(httpClient)

	a.digest = service.NewDigestService(goals, messages)
	a.deps = api.Deps{
		DB:        db,
		Auth:      auth.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, httpClient),
		Users:     users,
		Notes:     service.NewNoteService(notes, tags, notebooks, shares, attachments),
		Notebooks: service.NewNotebookService(notebooks, tags),
		Goals:     service.NewGoalService(goals),
		Contact:   service.NewContactService(messages, email, a.notifier, cfg.ContactRecipient, log.Named("contact")),
		Email:     email,
		Logs:      service.NewLogService(logs),

		GitHub:  github,
		DevTo:   devto,
		Medium:  medium,
		Spotify: spotify,
		Strava:  provider.NewStrava(cfg.Strava, httpClient),
		Weather: provider.NewOpenWeather(cfg.Weather.APIKey, cfg.Weather.DefaultCity, httpClient),
		Quotes:  quotes,
		Vercel:  provider.NewVercel(cfg.Vercel.Token, cfg.Vercel.TeamID, httpClient),
		Overview: &provider.Aggregator{
			GitHub:  github,
			DevTo:   devto,
			Medium:  medium,
			Spotify: spotify,
			Quotes:  quotes,
			Log:     log.Named("overview"),
		},

		Limiter:     ratelimit.New(cfg.RateLimit.Max, cfg.RateLimit.Window),
		AuthLimiter: ratelimit.New(cfg.RateLimit.Max, cfg.RateLimit.Window),
	}
	return a, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// sendDigest pushes the daily summary to the owner's chat.
func (a *app) sendDigest(ctx context.Context) error {
	text, err := a.digest.DailySummary(ctx, time.Now())
	if err != nil {
		return err
	}
	return a.notifier.Notify(ctx, text)
}
