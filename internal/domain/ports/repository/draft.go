package repository

import (
	"context"

	"lexbrief/internal/domain/model"
)

// DraftRepository persists the in-progress onboarding draft per user.
// Load returns an empty draft, not an error, when nothing is stored.
type DraftRepository interface {
	Load(ctx context.Context, userID string) (*model.Draft, error)
	Save(ctx context.Context, userID string, d *model.Draft) error
	Delete(ctx context.Context, userID string) error
}
