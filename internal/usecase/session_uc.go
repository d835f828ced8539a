package usecase

import (
	"context"
	"errors"
	"fmt"

	"lexbrief/internal/domain"
	"lexbrief/internal/domain/model"
	"lexbrief/internal/domain/ports/repository"
	"lexbrief/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ SessionUseCase = (*sessionUC)(nil)

// SessionUseCase owns the signed-in user's cached view. Reads always go through
// the cache so a completed onboarding is visible on the very next request.
type SessionUseCase interface {
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
	// UpdateUser merges patch into the session user and returns once the write is acknowledged.
	UpdateUser(ctx context.Context, userID string, patch model.UserPatch) (*model.User, error)
	Invalidate(ctx context.Context, userID string) error
}

type sessionUC struct {
	cache repository.SessionCache
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewSessionUseCase(cache repository.SessionCache, users repository.UserRepository, logger *zerolog.Logger) *sessionUC {
	return &sessionUC{cache: cache, users: users, log: logger}
}

func (u *sessionUC) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "SessionUC.CurrentUser")()

	usr, err := u.cache.Get(ctx, userID)
	if err == nil {
		return usr, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		// A broken cache must not lock users out; fall through to the database.
		u.log.Warn().Err(err).Str("user_id", userID).Msg("session cache read failed")
	}

	usr, err = u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	if err := u.cache.Put(ctx, usr); err != nil {
		u.log.Warn().Err(err).Str("user_id", userID).Msg("session cache write failed")
	}
	return usr, nil
}

func (u *sessionUC) UpdateUser(ctx context.Context, userID string, patch model.UserPatch) (*model.User, error) {
	defer logging.TraceDuration(u.log, "SessionUC.UpdateUser")()

	usr, err := u.CurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	usr.Merge(patch)
	if err := u.cache.Put(ctx, usr); err != nil {
		return nil, fmt.Errorf("update session user: %w", err)
	}
	return usr, nil
}

func (u *sessionUC) Invalidate(ctx context.Context, userID string) error {
	defer logging.TraceDuration(u.log, "SessionUC.Invalidate")()
	return u.cache.Delete(ctx, userID)
}
