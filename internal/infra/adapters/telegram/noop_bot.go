package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"lexbrief/internal/domain/ports/adapter"
)

var _ adapter.ReviewNotifier = (*NoopNotifier)(nil)

// NoopNotifier logs review notices instead of sending them; used when no bot token is configured.
type NoopNotifier struct {
	log *zerolog.Logger
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	return &NoopNotifier{log: logger}
}

func (b *NoopNotifier) NotifyVerification(ctx context.Context, n adapter.VerificationNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.log.Info().Str("user_id", n.UserID).Int("documents", len(n.Documents)).Msg("[noop-telegram] verification submitted")
	return nil
}
