// File: cmd/app/serve.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lexbrief/internal/config"
	"lexbrief/internal/domain/ports/adapter"
	"lexbrief/internal/infra/adapters/telegram"
	"lexbrief/internal/infra/api"
	"lexbrief/internal/infra/attachments"
	"lexbrief/internal/infra/catalog"
	"lexbrief/internal/infra/db/postgres"
	"lexbrief/internal/infra/i18n"
	"lexbrief/internal/infra/metrics"
	lexredis "lexbrief/internal/infra/redis"
	"lexbrief/internal/infra/scheduler"
	"lexbrief/internal/infra/security"
	"lexbrief/internal/infra/storage/minio"
	"lexbrief/internal/infra/worker"
	"lexbrief/internal/usecase"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the onboarding HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	metrics.MustRegister()

	pool, err := postgres.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	rdb, err := lexredis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rdb.Close()

	var sealer lexredis.Sealer
	if cfg.Security.EncryptionKey != "" {
		enc, err := security.NewEncryptionService(cfg.Security.EncryptionKey)
		if err != nil {
			return fmt.Errorf("encryption: %w", err)
		}
		sealer = enc
	} else {
		logger.Warn().Msg("security.encryption_key not set; drafts are stored unencrypted")
	}

	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Onboarding.Language)
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}
	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	docs, err := minio.NewClient(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("minio: %w", err)
	}

	var notifier adapter.ReviewNotifier
	if cfg.Notify.TelegramToken != "" {
		rn, err := telegram.NewReviewNotifier(cfg.Notify.TelegramToken, cfg.Notify.ReviewerChats, tr, cfg.Runtime.Dev, logger)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		notifier = rn
	} else {
		notifier = telegram.NewNoopNotifier(logger)
	}

	// repositories
	userRepo := postgres.NewPostgresUserRepo(pool)
	expertiseRepo := postgres.NewPostgresExpertiseRepo(pool)
	tm := postgres.NewTxManager(pool)
	draftRepo := lexredis.NewDraftRepo(rdb, sealer, cfg.Onboarding.DraftTTL, logger)
	sessionCache := lexredis.NewSessionCache(rdb, cfg.Redis.TTL)
	locker := lexredis.NewLocker(rdb)
	limiter := lexredis.NewRateLimiter(rdb)
	holder := attachments.NewHolder()

	workers := worker.NewPool(cfg.Onboarding.Workers, logger)

	// use cases
	drafts := usecase.NewDraftStore(draftRepo, logger)
	sessions := usecase.NewSessionUseCase(sessionCache, userRepo, logger)
	profiles := usecase.NewProfileUseCase(userRepo, tm, logger)
	lookups := usecase.NewLookupUseCase(cat, expertiseRepo, logger)
	guard := usecase.NewCompletionGuard(sessions, logger)
	submission := usecase.NewSubmissionReducer(usecase.SubmissionDeps{
		Profiles:   profiles,
		Sessions:   sessions,
		Drafts:     drafts,
		Holder:     holder,
		Documents:  docs,
		Locker:     locker,
		Tasks:      workers,
		Notifier:   notifier,
		Translator: tr,
		LockTTL:    cfg.Onboarding.SubmitLockTTL,
	}, logger)
	steps := usecase.NewStepController(usecase.StepControllerDeps{
		Drafts:            drafts,
		Sessions:          sessions,
		Lookups:           lookups,
		Holder:            holder,
		Submission:        submission,
		Translator:        tr,
		MaxAttachmentSize: cfg.Onboarding.MaxAttachmentSize,
	}, logger)

	auth := api.NewAuthManager(cfg.Auth, !cfg.Runtime.Dev)
	server := api.NewServer(api.Deps{
		Steps:    steps,
		Lookups:  lookups,
		Sessions: sessions,
		Guard:    guard,
		Auth:     auth,
		Limiter:  limiter,
		Tr:       tr,
	}, cfg.HTTP, cfg.Onboarding, logger)

	jobs := scheduler.NewScheduler(logger,
		scheduler.Job{
			Name:     "attachment_sweep",
			Interval: time.Minute,
			Run: func(context.Context) error {
				if n := holder.Sweep(cfg.Onboarding.AttachmentTTL); n > 0 {
					metrics.AddAttachmentsEvicted(n)
					logger.Debug().Int("evicted", n).Msg("swept stale attachments")
				}
				return nil
			},
		},
		scheduler.Job{
			Name:     "onboarded_users",
			Interval: 5 * time.Minute,
			Timeout:  10 * time.Second,
			Run: func(ctx context.Context) error {
				total, done, err := profiles.Stats(ctx)
				if err != nil {
					return err
				}
				metrics.SetOnboardedUsers(total, done)
				return nil
			},
		},
		scheduler.Job{
			Name:     "db_pool_stats",
			Interval: 15 * time.Second,
			Run: func(context.Context) error {
				postgres.ReportPoolStats(pool)
				return nil
			},
		},
	)

	workers.Start(ctx)
	defer workers.Stop()
	jobs.Start(ctx)
	defer jobs.Stop()

	logger.Info().Str("addr", cfg.HTTP.Addr).Str("version", version).Str("lang", tr.Lang()).Msg("lexbrief starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx) })
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("shutdown complete")
	return nil
}
