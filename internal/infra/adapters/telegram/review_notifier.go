package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"lexbrief/internal/domain/ports/adapter"
	"lexbrief/internal/infra/i18n"
	"lexbrief/internal/infra/logging"
)

var _ adapter.ReviewNotifier = (*ReviewNotifier)(nil)

// sender is the part of *tgbotapi.BotAPI used here.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ReviewNotifier posts new lawyer verifications to the reviewers' chats.
type ReviewNotifier struct {
	bot   sender
	chats []int64
	t     *i18n.Translator
	dev   bool
	log   *zerolog.Logger
}

func NewReviewNotifier(token string, chats []int64, t *i18n.Translator, dev bool, logger *zerolog.Logger) (*ReviewNotifier, error) {
	if token == "" {
		return nil, errors.New("telegram token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return newReviewNotifier(bot, chats, t, dev, logger), nil
}

func newReviewNotifier(bot sender, chats []int64, t *i18n.Translator, dev bool, logger *zerolog.Logger) *ReviewNotifier {
	l := logger.With().Str("component", "review_notifier").Logger()
	return &ReviewNotifier{bot: bot, chats: chats, t: t, dev: dev, log: &l}
}

// NotifyVerification sends to every chat and returns the first failure.
func (r *ReviewNotifier) NotifyVerification(ctx context.Context, n adapter.VerificationNotice) error {
	text := r.t.T("review_notice", n.FullName, n.Email, logging.Redact(n.CallNumber, r.dev), n.Country, len(n.Documents))
	var firstErr error
	for _, chatID := range r.chats {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := r.bot.Send(msg); err != nil {
			r.log.Error().Err(err).Int64("chat_id", chatID).Str("user_id", n.UserID).Msg("review notice failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("send to %d: %w", chatID, err)
			}
		}
	}
	return firstErr
}
