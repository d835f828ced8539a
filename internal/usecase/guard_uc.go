package usecase

import (
	"context"

	"lexbrief/internal/domain/model"
	"lexbrief/internal/infra/logging"
	"lexbrief/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ CompletionGuard = (*guardUC)(nil)

// CompletionGuard decides whether an application route may run for the caller.
// An empty redirect means pass.
type CompletionGuard interface {
	Check(ctx context.Context, p *model.Principal) (redirect string, err error)
}

type guardUC struct {
	sessions SessionUseCase
	log      *zerolog.Logger
}

func NewCompletionGuard(sessions SessionUseCase, logger *zerolog.Logger) *guardUC {
	return &guardUC{sessions: sessions, log: logger}
}

// Check reloads the user on every call so a just-finished onboarding is honoured immediately.
func (g *guardUC) Check(ctx context.Context, p *model.Principal) (string, error) {
	defer logging.TraceDuration(g.log, "CompletionGuard.Check")()

	if !p.Authenticated() || p.Guest {
		metrics.IncGuardDecision("pass_anonymous")
		return "", nil
	}
	usr, err := g.sessions.CurrentUser(ctx, p.UserID)
	if err != nil {
		return "", err
	}
	if usr.IsGuest {
		metrics.IncGuardDecision("pass_anonymous")
		return "", nil
	}
	if usr.HasCompletedOnboarding() {
		metrics.IncGuardDecision("pass")
		return "", nil
	}
	metrics.IncGuardDecision("redirect")
	return model.FlowEntryPath, nil
}
