package attachments

import (
	"sort"
	"sync"
	"time"

	"lexbrief/internal/domain/model"
	"lexbrief/internal/domain/ports/repository"
)

var _ repository.AttachmentStore = (*Holder)(nil)

// Holder keeps uploaded verification documents in process memory, keyed by
// login session. A restart or a new login starts with nothing.
type Holder struct {
	mu    sync.Mutex
	items map[string]map[model.DocumentKind]model.Attachment
	now   func() time.Time
}

func NewHolder() *Holder {
	return &Holder{items: map[string]map[model.DocumentKind]model.Attachment{}, now: time.Now}
}

func (h *Holder) Put(sessionID string, a model.Attachment) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if a.AttachedAt.IsZero() {
		a.AttachedAt = h.now()
	}
	byKind, ok := h.items[sessionID]
	if !ok {
		byKind = map[model.DocumentKind]model.Attachment{}
		h.items[sessionID] = byKind
	}
	byKind[a.Kind] = a
}

func (h *Holder) Get(sessionID string, kind model.DocumentKind) (model.Attachment, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	a, ok := h.items[sessionID][kind]
	return a, ok
}

// List returns the session's attachments ordered by kind.
func (h *Holder) List(sessionID string) []model.Attachment {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]model.Attachment, 0, len(h.items[sessionID]))
	for _, a := range h.items[sessionID] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

func (h *Holder) Clear(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.items, sessionID)
}

// Sweep drops attachments older than olderThan and returns how many went.
func (h *Holder) Sweep(olderThan time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	cutoff := h.now().Add(-olderThan)
	n := 0
	for sid, byKind := range h.items {
		for kind, a := range byKind {
			if a.AttachedAt.Before(cutoff) {
				delete(byKind, kind)
				n++
			}
		}
		if len(byKind) == 0 {
			delete(h.items, sid)
		}
	}
	return n
}
