package repository

import (
	"time"

	"lexbrief/internal/domain/model"
)

// AttachmentStore keeps uploaded files for one login session. Nothing here is
// ever written to durable storage; a new session starts empty.
type AttachmentStore interface {
	Put(sessionID string, a model.Attachment)
	Get(sessionID string, kind model.DocumentKind) (model.Attachment, bool)
	List(sessionID string) []model.Attachment
	Clear(sessionID string)
	Sweep(olderThan time.Duration) int
}
