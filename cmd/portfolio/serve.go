package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"portfolio/internal/api"
	"portfolio/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background jobs",
	RunE:  runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides HTTP_ADDR")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if serveAddr != "" {
		cfg.HTTPAddr = serveAddr
	}
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	scheduler := service.NewSchedulerService(time.Local, logger)
	if err := scheduleJobs(scheduler, a); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Info("portfolio api starting",
		zap.String("env", cfg.Env),
		zap.Int("jobs", scheduler.Entries()),
		zap.Bool("telegram", a.telegram))
	return api.NewServer(cfg, a.deps, logger).ListenAndServe(ctx, cfg.HTTPAddr)
}

func scheduleJobs(s *service.SchedulerService, a *app) error {
	d := a.deps
	if _, err := s.ScheduleInterval("ratelimit-sweep", d.Limiter.Window(), func(context.Context) error {
		n := d.Limiter.Sweep() + d.AuthLimiter.Sweep()
		logger.Debug("rate limit windows swept", zap.Int("removed", n))
		return nil
	}); err != nil {
		return err
	}
	if _, err := s.ScheduleDaily("purge-shares", "03:00", func(ctx context.Context) error {
		n, err := d.Notes.PurgeExpiredShares(ctx)
		if err == nil && n > 0 {
			logger.Info("expired shares removed", zap.Int64("count", n))
		}
		return err
	}); err != nil {
		return err
	}
	if _, err := s.ScheduleDaily("prune-logs", "03:30", func(ctx context.Context) error {
		n, err := d.Logs.Prune(ctx)
		if err == nil && n > 0 {
			logger.Info("old log rows removed", zap.Int64("count", n))
		}
		return err
	}); err != nil {
		return err
	}
	if a.telegram {
		if _, err := s.ScheduleDaily("digest", cfg.DigestTime, a.sendDigest); err != nil {
			return err
		}
	}
	return nil
}
