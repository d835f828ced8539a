package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lexbrief/internal/domain/model"
	"lexbrief/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Ensure the adapter implements the port interface.
var _ repository.DraftRepository = (*DraftRepo)(nil)

// Sealer encrypts draft blobs at rest.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(ciphertext []byte) ([]byte, error)
}

// DraftRepo keeps one onboarding draft per user under onboarding:draft:<user>.
// The TTL is refreshed on every write so an active user never loses progress.
type DraftRepo struct {
	client RedisClient
	sealer Sealer
	ttl    time.Duration
	log    *zerolog.Logger
}

// NewDraftRepo stores drafts as plain JSON when sealer is nil.
func NewDraftRepo(client RedisClient, sealer Sealer, ttl time.Duration, logger *zerolog.Logger) *DraftRepo {
	l := logger.With().Str("component", "draft_repo").Logger()
	return &DraftRepo{client: client, sealer: sealer, ttl: ttl, log: &l}
}

func draftKey(userID string) string {
	return fmt.Sprintf("onboarding:draft:%s", userID)
}

func (r *DraftRepo) Load(ctx context.Context, userID string) (*model.Draft, error) {
	data, err := r.client.Get(ctx, draftKey(userID))
	if IsNil(err) {
		return model.NewDraft(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}

	raw := []byte(data)
	if r.sealer != nil {
		if raw, err = r.sealer.Open(raw); err != nil {
			// A draft sealed with a rotated key can never be read again.
			r.log.Warn().Err(err).Str("user_id", userID).Msg("discarding unreadable draft")
			return model.NewDraft(), nil
		}
	}

	var d model.Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		r.log.Warn().Err(err).Str("user_id", userID).Msg("discarding malformed draft")
		return model.NewDraft(), nil
	}
	return &d, nil
}

func (r *DraftRepo) Save(ctx context.Context, userID string, d *model.Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if r.sealer != nil {
		if raw, err = r.sealer.Seal(raw); err != nil {
			return fmt.Errorf("seal draft: %w", err)
		}
	}
	if err := r.client.Set(ctx, draftKey(userID), raw, r.ttl); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (r *DraftRepo) Delete(ctx context.Context, userID string) error {
	return r.client.Del(ctx, draftKey(userID))
}
