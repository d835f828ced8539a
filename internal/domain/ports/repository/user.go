package repository

import (
	"context"

	"lexbrief/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
	CountOnboarded(ctx context.Context, tx Tx) (int, error)
}

// -----------------------------
// Expertise areas
// -----------------------------

type ExpertiseRepository interface {
	List(ctx context.Context, tx Tx) ([]model.Option, error)
}
