package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"lexbrief/internal/config"
	"lexbrief/internal/domain/model"
	"lexbrief/internal/domain/ports/repository"
	"lexbrief/internal/infra/i18n"
	"lexbrief/internal/infra/metrics"
	"lexbrief/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type Deps struct {
	Steps    usecase.StepController
	Lookups  usecase.LookupUseCase
	Sessions usecase.SessionUseCase
	Guard    usecase.CompletionGuard
	Auth     *AuthManager
	Limiter  repository.RateLimiter
	Tr       *i18n.Translator
}

// Server exposes the onboarding flow and the guarded application API over HTTP.
type Server struct {
	steps       usecase.StepController
	lookups     usecase.LookupUseCase
	sessions    usecase.SessionUseCase
	guard       usecase.CompletionGuard
	auth        *AuthManager
	limiter     repository.RateLimiter
	tr          *i18n.Translator
	http        config.HTTPConfig
	submitLimit int
	maxUpload   int64
	log         *zerolog.Logger
}

func NewServer(deps Deps, httpCfg config.HTTPConfig, onb config.OnboardingConfig, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "http").Logger()
	return &Server{
		steps:       deps.Steps,
		lookups:     deps.Lookups,
		sessions:    deps.Sessions,
		guard:       deps.Guard,
		auth:        deps.Auth,
		limiter:     deps.Limiter,
		tr:          deps.Tr,
		http:        httpCfg,
		submitLimit: onb.SubmitRateLimit,
		maxUpload:   onb.MaxAttachmentSize,
		log:         &l,
	}
}

// Routes builds the router. Step routes are fixed per step: /onboarding/step-1 .. step-8.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), Recover(s.log), RequestLog(s.log), s.Authenticate())
	if s.http.WriteTimeout > 0 {
		r.Use(Timeout(s.http.WriteTimeout))
	}

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/onboarding", func(r chi.Router) {
		r.Route("/lookups", func(r chi.Router) {
			r.Get("/countries", s.handleCountries)
			r.Get("/universities", s.handleUniversities)
			r.Get("/expertise", s.handleExpertise)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.RequireOnboarder())
			r.Get("/", s.handleEntry)
			r.Get("/step-{n}", s.handleMount)
			r.Post("/step-{n}/back", s.handleBack)
			r.Post("/step-8/documents/{kind}", s.handleUpload)
			r.With(s.RateLimit(s.limiter, s.submitLimit, time.Minute)).Post("/step-{n}", s.handleSubmit)
		})
	})

	r.With(s.Guard(s.guard)).Get(model.AppEntryPath, s.handleApp)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.Guard(s.guard))
		r.Get("/me", s.handleMe)
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.http.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  s.http.ReadTimeout,
		WriteTimeout: s.http.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.http.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	timeout := s.http.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(shCtx)
}
