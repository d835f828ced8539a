//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing/fstest"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"lexbrief/internal/domain"
	"lexbrief/internal/domain/model"
	"lexbrief/internal/domain/ports/adapter"
	"lexbrief/internal/domain/ports/repository"
	"lexbrief/internal/infra/i18n"
	"lexbrief/internal/infra/worker"
)

// =============================
// Repositories
// =============================

// ---- Mock DraftRepository ----

type MockDraftRepo struct {
	mu     sync.Mutex
	drafts map[string]*model.Draft
	Saves  int

	LoadFunc   func(ctx context.Context, userID string) (*model.Draft, error)
	SaveFunc   func(ctx context.Context, userID string, d *model.Draft) error
	DeleteFunc func(ctx context.Context, userID string) error
}

var _ repository.DraftRepository = (*MockDraftRepo)(nil)

func NewMockDraftRepo() *MockDraftRepo {
	return &MockDraftRepo{drafts: map[string]*model.Draft{}}
}

func (r *MockDraftRepo) Load(ctx context.Context, userID string) (*model.Draft, error) {
	if r.LoadFunc != nil {
		return r.LoadFunc(ctx, userID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.drafts[userID]; ok {
		return d.Clone(), nil
	}
	return model.NewDraft(), nil
}

func (r *MockDraftRepo) Save(ctx context.Context, userID string, d *model.Draft) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, userID, d)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Saves++
	r.drafts[userID] = d.Clone()
	return nil
}

func (r *MockDraftRepo) Delete(ctx context.Context, userID string) error {
	if r.DeleteFunc != nil {
		return r.DeleteFunc(ctx, userID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, userID)
	return nil
}

// Stored returns a copy of what is persisted for userID, nil when nothing is.
func (r *MockDraftRepo) Stored(userID string) *model.Draft {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.drafts[userID]; ok {
		return d.Clone()
	}
	return nil
}

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu   sync.Mutex
	byID map[string]*model.User

	SaveFunc           func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByIDFunc       func(ctx context.Context, tx repository.Tx, id string) (*model.User, error)
	FindByEmailFunc    func(ctx context.Context, tx repository.Tx, email string) (*model.User, error)
	CountUsersFunc     func(ctx context.Context, tx repository.Tx) (int, error)
	CountOnboardedFunc func(ctx context.Context, tx repository.Tx) (int, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{byID: map[string]*model.User{}}
}

func (r *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	r.byID[cp.ID] = &cp
	return nil
}

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *MockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	if r.FindByEmailFunc != nil {
		return r.FindByEmailFunc(ctx, tx, email)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	if r.CountUsersFunc != nil {
		return r.CountUsersFunc(ctx, tx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

func (r *MockUserRepo) CountOnboarded(ctx context.Context, tx repository.Tx) (int, error) {
	if r.CountOnboardedFunc != nil {
		return r.CountOnboardedFunc(ctx, tx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.byID {
		if u.HasCompletedOnboarding() {
			n++
		}
	}
	return n, nil
}

// ---- Mock ExpertiseRepository ----

type MockExpertiseRepo struct {
	Options  []model.Option
	ListFunc func(ctx context.Context, tx repository.Tx) ([]model.Option, error)
}

var _ repository.ExpertiseRepository = (*MockExpertiseRepo)(nil)

func (r *MockExpertiseRepo) List(ctx context.Context, tx repository.Tx) ([]model.Option, error) {
	if r.ListFunc != nil {
		return r.ListFunc(ctx, tx)
	}
	if r.Options != nil {
		return r.Options, nil
	}
	return []model.Option{{ID: 1, Label: "Corporate"}, {ID: 2, Label: "Criminal"}, {ID: 3, Label: "Family"}}, nil
}

// ---- In-memory SessionCache ----

type MockSessionCache struct {
	mu    sync.Mutex
	users map[string]*model.User
	Puts  int

	GetFunc    func(ctx context.Context, userID string) (*model.User, error)
	PutFunc    func(ctx context.Context, u *model.User) error
	DeleteFunc func(ctx context.Context, userID string) error
}

var _ repository.SessionCache = (*MockSessionCache)(nil)

func NewMockSessionCache() *MockSessionCache {
	return &MockSessionCache{users: map[string]*model.User{}}
}

func (c *MockSessionCache) Get(ctx context.Context, userID string) (*model.User, error) {
	if c.GetFunc != nil {
		return c.GetFunc(ctx, userID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if u, ok := c.users[userID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (c *MockSessionCache) Put(ctx context.Context, u *model.User) error {
	if c.PutFunc != nil {
		return c.PutFunc(ctx, u)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Puts++
	cp := *u
	c.users[u.ID] = &cp
	return nil
}

func (c *MockSessionCache) Delete(ctx context.Context, userID string) error {
	if c.DeleteFunc != nil {
		return c.DeleteFunc(ctx, userID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, userID)
	return nil
}

// ---- In-memory Locker ----

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
	Keys  []string
}

var _ repository.Locker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Keys = append(l.Keys, key)
	if err, bad := l.ErrOn[key]; bad {
		return "", err
	}
	if tok, ok := l.held[key]; ok && tok != "" {
		return "", domain.ErrSubmissionInProgress
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		return nil
	}
	return domain.ErrInvalidArgument
}

func (l *MockLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// =============================
// Adapters
// =============================

// ---- Mock ProfileUpdater ----

type MockProfileUpdater struct {
	mu      sync.Mutex
	Updates []model.ProfileUpdate

	UpdateProfileFunc func(ctx context.Context, userID string, upd model.ProfileUpdate) (*model.User, error)
}

var _ adapter.ProfileUpdater = (*MockProfileUpdater)(nil)

func (m *MockProfileUpdater) UpdateProfile(ctx context.Context, userID string, upd model.ProfileUpdate) (*model.User, error) {
	m.mu.Lock()
	m.Updates = append(m.Updates, upd)
	m.mu.Unlock()
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, userID, upd)
	}
	u := &model.User{ID: userID, Email: userID + "@example.com", FullName: "Test User"}
	u.ApplyProfileUpdate(upd)
	return u, nil
}

// ---- Mock DocumentStorage ----

type MockDocumentStorage struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Removed []string

	PutFunc    func(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	RemoveFunc func(ctx context.Context, key string) error
}

var _ adapter.DocumentStorage = (*MockDocumentStorage)(nil)

func NewMockDocumentStorage() *MockDocumentStorage {
	return &MockDocumentStorage{Objects: map[string][]byte{}}
}

func (m *MockDocumentStorage) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, contentType, r, size)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = b
	return nil
}

func (m *MockDocumentStorage) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	m.Removed = append(m.Removed, key)
	delete(m.Objects, key)
	m.mu.Unlock()
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, key)
	}
	return nil
}

// ---- Mock ReviewNotifier ----

type MockNotifier struct {
	mu      sync.Mutex
	Notices []adapter.VerificationNotice

	NotifyVerificationFunc func(ctx context.Context, n adapter.VerificationNotice) error
}

var _ adapter.ReviewNotifier = (*MockNotifier)(nil)

func (m *MockNotifier) NotifyVerification(ctx context.Context, n adapter.VerificationNotice) error {
	if m.NotifyVerificationFunc != nil {
		return m.NotifyVerificationFunc(ctx, n)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notices = append(m.Notices, n)
	return nil
}

// ---- Mock Catalog ----

type MockCatalog struct{}

var _ adapter.Catalog = MockCatalog{}

func (MockCatalog) Countries() []model.Country {
	return []model.Country{{Name: "Nigeria", Code: "NG"}, {Name: "United Kingdom", Code: "GB"}}
}

func (MockCatalog) Universities(code string) []model.University {
	if code == "NG" {
		return []model.University{{Name: "University of Lagos", CountryCode: "NG"}}
	}
	return nil
}

// ---- Inline task submitter ----

// InlineTasks runs submitted tasks synchronously so tests can assert on their effects.
type InlineTasks struct {
	mu    sync.Mutex
	Names []string
	Err   error
}

func (t *InlineTasks) Submit(name string, task worker.Task) error {
	if t.Err != nil {
		return t.Err
	}
	t.mu.Lock()
	t.Names = append(t.Names, name)
	t.mu.Unlock()
	return task(context.Background())
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestTranslator() *i18n.Translator {
	testFS := fstest.MapFS{
		"locales/en.yaml": {
			Data: []byte(strings.Join([]string{
				`err_profile_update_failed: "profile update failed"`,
				`err_submission_in_progress: "already saving"`,
				`err_attachment_too_large: "too large, limit %d MB"`,
				`attachments_lost: "attachments lost"`,
			}, "\n")),
		},
	}
	tr, err := i18n.NewTranslator(testFS, "en")
	if err != nil {
		panic(err)
	}
	return tr
}
