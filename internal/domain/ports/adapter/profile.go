package adapter

import (
	"context"

	"lexbrief/internal/domain/model"
)

// ProfileUpdater persists a completed onboarding and returns the stored user.
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, userID string, upd model.ProfileUpdate) (*model.User, error)
}
