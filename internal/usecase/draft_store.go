package usecase

import (
	"context"

	"lexbrief/internal/domain/model"
	"lexbrief/internal/domain/ports/repository"
	"lexbrief/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ DraftStore = (*draftStore)(nil)

// DraftStore is the per-user onboarding draft. Set shallow-merges a patch and
// persists the result; applying the same patch twice changes nothing.
type DraftStore interface {
	Get(ctx context.Context, userID string) (*model.Draft, error)
	Set(ctx context.Context, userID string, patch model.DraftPatch) (*model.Draft, error)
	Reset(ctx context.Context, userID string) error
}

type draftStore struct {
	repo repository.DraftRepository
	log  *zerolog.Logger
}

func NewDraftStore(repo repository.DraftRepository, logger *zerolog.Logger) *draftStore {
	return &draftStore{repo: repo, log: logger}
}

func (s *draftStore) Get(ctx context.Context, userID string) (*model.Draft, error) {
	defer logging.TraceDuration(s.log, "DraftStore.Get")()
	return s.repo.Load(ctx, userID)
}

func (s *draftStore) Set(ctx context.Context, userID string, patch model.DraftPatch) (*model.Draft, error) {
	defer logging.TraceDuration(s.log, "DraftStore.Set")()
	cur, err := s.repo.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	next := cur.Apply(patch)
	if err := s.repo.Save(ctx, userID, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Reset persists the initial empty draft.
func (s *draftStore) Reset(ctx context.Context, userID string) error {
	defer logging.TraceDuration(s.log, "DraftStore.Reset")()
	return s.repo.Save(ctx, userID, model.NewDraft())
}
