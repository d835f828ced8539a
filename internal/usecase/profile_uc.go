package usecase

import (
	"context"
	"errors"

	"lexbrief/internal/domain"
	"lexbrief/internal/domain/model"
	"lexbrief/internal/domain/ports/adapter"
	"lexbrief/internal/domain/ports/repository"
	"lexbrief/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ ProfileUseCase = (*profileUC)(nil)

// ProfileUseCase is the durable side of a user: the profile-update collaborator
// used at submission, plus the account helpers used by the CLI and scheduler.
type ProfileUseCase interface {
	adapter.ProfileUpdater
	RegisterOrFetch(ctx context.Context, email, fullName string) (*model.User, error)
	Stats(ctx context.Context) (total, onboarded int, err error)
}

type profileUC struct {
	users repository.UserRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewProfileUseCase(users repository.UserRepository, tm repository.TransactionManager, logger *zerolog.Logger) *profileUC {
	return &profileUC{users: users, tm: tm, log: logger}
}

func (u *profileUC) UpdateProfile(ctx context.Context, userID string, upd model.ProfileUpdate) (*model.User, error) {
	defer logging.TraceDuration(u.log, "ProfileUC.UpdateProfile")()

	var out *model.User
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		usr.ApplyProfileUpdate(upd)
		if err := u.users.Save(ctx, tx, usr); err != nil {
			u.log.Error().Err(err).Str("user_id", userID).Msg("failed to save profile")
			return err
		}
		out = usr
		return nil
	})
	return out, err
}

func (u *profileUC) RegisterOrFetch(ctx context.Context, email, fullName string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "ProfileUC.RegisterOrFetch")()

	var user *model.User
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByEmail(ctx, tx, email)
		if err == nil {
			user = usr
			return nil
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		nu, err := model.NewUser("", email, fullName)
		if err != nil {
			return err
		}
		if err := u.users.Save(ctx, tx, nu); err != nil {
			return err
		}
		user = nu
		return nil
	})
	return user, err
}

func (u *profileUC) Stats(ctx context.Context) (int, int, error) {
	defer logging.TraceDuration(u.log, "ProfileUC.Stats")()
	total, err := u.users.CountUsers(ctx, repository.NoTX)
	if err != nil {
		return 0, 0, err
	}
	done, err := u.users.CountOnboarded(ctx, repository.NoTX)
	if err != nil {
		return 0, 0, err
	}
	return total, done, nil
}
