//go:build !integration

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexbrief/internal/config"
	"lexbrief/internal/domain"
	"lexbrief/internal/domain/model"
	"lexbrief/internal/infra/i18n"
	"lexbrief/internal/usecase"
)

// ---------------- fakes ----------------

type fakeSteps struct {
	entry  func(p *model.Principal) (*usecase.Outcome, error)
	mount  func(p *model.Principal, route int, dir model.Direction) (*usecase.Outcome, error)
	submit func(p *model.Principal, route int, raw []byte, country string) (*usecase.Outcome, error)
	back   func(p *model.Principal, route int) (*usecase.Outcome, error)
	attach func(p *model.Principal, a model.Attachment) (*usecase.StepView, error)
}

func (f *fakeSteps) Entry(_ context.Context, p *model.Principal) (*usecase.Outcome, error) {
	return f.entry(p)
}

func (f *fakeSteps) Mount(_ context.Context, p *model.Principal, route int, dir model.Direction) (*usecase.Outcome, error) {
	return f.mount(p, route, dir)
}

func (f *fakeSteps) Submit(_ context.Context, p *model.Principal, route int, raw []byte, country string) (*usecase.Outcome, error) {
	return f.submit(p, route, raw, country)
}

func (f *fakeSteps) Back(_ context.Context, p *model.Principal, route int) (*usecase.Outcome, error) {
	return f.back(p, route)
}

func (f *fakeSteps) Attach(_ context.Context, p *model.Principal, a model.Attachment) (*usecase.StepView, error) {
	return f.attach(p, a)
}

type fakeGuard struct{ redirect string }

func (g fakeGuard) Check(_ context.Context, p *model.Principal) (string, error) {
	if !p.Authenticated() {
		return "", nil
	}
	return g.redirect, nil
}

type fakeSessions struct{}

func (fakeSessions) CurrentUser(_ context.Context, id string) (*model.User, error) {
	return &model.User{ID: id, Email: id + "@example.com"}, nil
}

func (fakeSessions) UpdateUser(context.Context, string, model.UserPatch) (*model.User, error) {
	return nil, nil
}

func (fakeSessions) Invalidate(context.Context, string) error { return nil }

type fakeLookups struct{}

func (fakeLookups) Countries(context.Context) []model.Country {
	return []model.Country{{Name: "Nigeria", Code: "NG"}}
}

func (fakeLookups) Universities(_ context.Context, code string) []model.University {
	return []model.University{{Name: "Uni of " + code, CountryCode: code}}
}

func (fakeLookups) Expertise(context.Context) ([]model.Option, error) {
	return []model.Option{{ID: 1, Label: "Corporate"}}, nil
}

func (fakeLookups) UnknownExpertise(context.Context, []int) ([]int, error) { return nil, nil }

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *fakeLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

// ---------------- helpers ----------------

func newTestAuth() *AuthManager {
	return NewAuthManager(config.AuthConfig{Secret: "test-secret", CookieName: "lexbrief_session", TokenTTL: time.Hour}, false)
}

func newTestServer(t *testing.T, steps *fakeSteps, guard fakeGuard, limiter *fakeLimiter) (http.Handler, *AuthManager) {
	t.Helper()
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	require.NoError(t, err)
	logger := zerolog.New(io.Discard)
	auth := newTestAuth()
	srv := NewServer(Deps{
		Steps:    steps,
		Lookups:  fakeLookups{},
		Sessions: fakeSessions{},
		Guard:    guard,
		Auth:     auth,
		Limiter:  limiter,
		Tr:       tr,
	}, config.HTTPConfig{}, config.OnboardingConfig{SubmitRateLimit: 10, MaxAttachmentSize: 1 << 20}, &logger)
	return srv.Routes(), auth
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func authed(t *testing.T, auth *AuthManager, req *http.Request, userID string, guest bool) *http.Request {
	t.Helper()
	tok, err := auth.Mint(userID, guest)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}

// ---------------- tests ----------------

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t, &fakeSteps{}, fakeGuard{}, &fakeLimiter{allow: true})
	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestOnboarding_RequiresSignedInUser(t *testing.T) {
	steps := &fakeSteps{mount: func(*model.Principal, int, model.Direction) (*usecase.Outcome, error) {
		t.Fatal("controller must not run for anonymous callers")
		return nil, nil
	}}
	h, auth := newTestServer(t, steps, fakeGuard{}, &fakeLimiter{allow: true})

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/onboarding/step-1", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := authed(t, auth, httptest.NewRequest(http.MethodGet, "/onboarding/step-1", nil), "g1", true)
	rec = do(t, h, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOnboarding_MountRendersViewOrRedirect(t *testing.T) {
	var gotDir model.Direction
	var gotPrincipal *model.Principal
	steps := &fakeSteps{mount: func(p *model.Principal, route int, dir model.Direction) (*usecase.Outcome, error) {
		gotDir, gotPrincipal = dir, p
		if route == 3 {
			return &usecase.Outcome{Redirect: "/onboarding/step-1", Reason: "prerequisite"}, nil
		}
		return &usecase.Outcome{View: &usecase.StepView{Step: model.StepCommunication, Route: route, Position: 2, Total: 4}}, nil
	}}
	h, auth := newTestServer(t, steps, fakeGuard{}, &fakeLimiter{allow: true})

	t.Run("should render the step view", func(t *testing.T) {
		rec := do(t, h, authed(t, auth, httptest.NewRequest(http.MethodGet, "/onboarding/step-2", nil), "u1", false))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var v usecase.StepView
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
		assert.Equal(t, 2, v.Position)
		assert.Equal(t, 4, v.Total)
		assert.Equal(t, model.Forward, gotDir)
		assert.Equal(t, "u1", gotPrincipal.UserID)
		assert.NotEmpty(t, gotPrincipal.SessionID)
	})

	t.Run("should answer redirects with 303 and a location", func(t *testing.T) {
		rec := do(t, h, authed(t, auth, httptest.NewRequest(http.MethodGet, "/onboarding/step-3?from=back", nil), "u1", false))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/onboarding/step-1", rec.Header().Get("Location"))
		assert.JSONEq(t, `{"redirect":"/onboarding/step-1"}`, rec.Body.String())
		assert.Equal(t, model.Backward, gotDir)
	})

	t.Run("should map unknown steps to 404", func(t *testing.T) {
		rec := do(t, h, authed(t, auth, httptest.NewRequest(http.MethodGet, "/onboarding/step-x", nil), "u1", false))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestOnboarding_Entry(t *testing.T) {
	steps := &fakeSteps{entry: func(*model.Principal) (*usecase.Outcome, error) {
		return &usecase.Outcome{Redirect: "/onboarding/step-4"}, nil
	}}
	h, auth := newTestServer(t, steps, fakeGuard{}, &fakeLimiter{allow: true})

	rec := do(t, h, authed(t, auth, httptest.NewRequest(http.MethodGet, "/onboarding", nil), "u1", false))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/onboarding/step-4", rec.Header().Get("Location"))
}

func TestOnboarding_Submit(t *testing.T) {
	tests := []struct {
		name       string
		result     error
		wantStatus int
		wantError  string
	}{
		{
			name:       "validation errors become 422 with fields",
			result:     &usecase.ValidationError{Fields: map[string]string{"user_type": "required"}},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "collaborator failures become 502 with the localized message",
			result:     &usecase.UserError{Msg: "We couldn't save your profile.", Err: domain.ErrProfileUpdateFailed},
			wantStatus: http.StatusBadGateway,
			wantError:  "We couldn't save your profile.",
		},
		{
			name:       "a concurrent submission becomes 409",
			result:     &usecase.UserError{Msg: "busy", Err: domain.ErrSubmissionInProgress},
			wantStatus: http.StatusConflict,
			wantError:  "busy",
		},
		{
			name:       "unexpected errors become 500",
			result:     errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := &fakeSteps{submit: func(*model.Principal, int, []byte, string) (*usecase.Outcome, error) {
				return nil, tt.result
			}}
			h, auth := newTestServer(t, steps, fakeGuard{}, &fakeLimiter{allow: true})

			req := authed(t, auth, httptest.NewRequest(http.MethodPost, "/onboarding/step-1", bytes.NewBufferString(`{}`)), "u1", false)
			rec := do(t, h, req)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var body errorBody
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body.Error)
			}
		})
	}

	t.Run("should pass the body and detected country through and redirect to the app", func(t *testing.T) {
		var gotRaw []byte
		var gotCountry string
		steps := &fakeSteps{submit: func(_ *model.Principal, route int, raw []byte, country string) (*usecase.Outcome, error) {
			gotRaw, gotCountry = raw, country
			return &usecase.Outcome{Redirect: model.AppEntryPath}, nil
		}}
		limiter := &fakeLimiter{allow: true}
		h, auth := newTestServer(t, steps, fakeGuard{}, limiter)

		req := authed(t, auth, httptest.NewRequest(http.MethodPost, "/onboarding/step-8", bytes.NewBufferString(`{"call_number":"1"}`)), "u1", false)
		req.Header.Set("CF-IPCountry", "ng")
		rec := do(t, h, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/app", rec.Header().Get("Location"))
		assert.JSONEq(t, `{"call_number":"1"}`, string(gotRaw))
		assert.Equal(t, "NG", gotCountry)
		assert.Equal(t, []string{"rate_limit:u1:step_submit"}, limiter.keys)

		follow := do(t, h, authed(t, auth, httptest.NewRequest(http.MethodGet, rec.Header().Get("Location"), nil), "u1", false))
		require.Equal(t, http.StatusOK, follow.Code, follow.Body.String())
		var home appHome
		require.NoError(t, json.NewDecoder(follow.Body).Decode(&home))
		require.NotNil(t, home.User)
		assert.Equal(t, "u1", home.User.ID)
	})

	t.Run("should throttle step submissions", func(t *testing.T) {
		steps := &fakeSteps{submit: func(*model.Principal, int, []byte, string) (*usecase.Outcome, error) {
			t.Fatal("controller must not run when throttled")
			return nil, nil
		}}
		h, auth := newTestServer(t, steps, fakeGuard{}, &fakeLimiter{allow: false})

		rec := do(t, h, authed(t, auth, httptest.NewRequest(http.MethodPost, "/onboarding/step-2", bytes.NewBufferString(`{}`)), "u1", false))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("should let submissions through when the limiter is down", func(t *testing.T) {
		steps := &fakeSteps{submit: func(*model.Principal, int, []byte, string) (*usecase.Outcome, error) {
			return &usecase.Outcome{Redirect: "/onboarding/step-3"}, nil
		}}
		h, auth := newTestServer(t, steps, fakeGuard{}, &fakeLimiter{err: errors.New("redis down")})

		rec := do(t, h, authed(t, auth, httptest.NewRequest(http.MethodPost, "/onboarding/step-2", bytes.NewBufferString(`{}`)), "u1", false))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})
}

func TestOnboarding_Back(t *testing.T) {
	steps := &fakeSteps{back: func(_ *model.Principal, route int) (*usecase.Outcome, error) {
		return &usecase.Outcome{Redirect: fmt.Sprintf("/onboarding/step-%d", route-3)}, nil
	}}
	h, auth := newTestServer(t, steps, fakeGuard{}, &fakeLimiter{allow: true})

	rec := do(t, h, authed(t, auth, httptest.NewRequest(http.MethodPost, "/onboarding/step-6/back", nil), "u1", false))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/onboarding/step-3", rec.Header().Get("Location"))
}

func TestOnboarding_Upload(t *testing.T) {
	var got model.Attachment
	steps := &fakeSteps{attach: func(_ *model.Principal, a model.Attachment) (*usecase.StepView, error) {
		got = a
		return &usecase.StepView{Step: model.StepVerification, Attachments: []usecase.AttachmentInfo{{Kind: a.Kind, FileName: a.FileName, Size: a.Size()}}}, nil
	}}
	h, auth := newTestServer(t, steps, fakeGuard{}, &fakeLimiter{allow: true})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "license.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.4 test"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/onboarding/step-8/documents/practising_license", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := do(t, h, authed(t, auth, req, "u1", false))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.DocumentPractisingLicense, got.Kind)
	assert.Equal(t, "license.pdf", got.FileName)
	assert.Equal(t, "%PDF-1.4 test", string(got.Data))
}

func TestLookups(t *testing.T) {
	h, _ := newTestServer(t, &fakeSteps{}, fakeGuard{}, &fakeLimiter{allow: true})

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/onboarding/lookups/universities?country=NG", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[{"name":"Uni of NG","country_code":"NG"}]}`, rec.Body.String())

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/onboarding/lookups/expertise", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[{"id":1,"label":"Corporate"}]}`, rec.Body.String())
}

func TestGuardedRoutes(t *testing.T) {
	t.Run("should redirect incomplete users to onboarding", func(t *testing.T) {
		h, auth := newTestServer(t, &fakeSteps{}, fakeGuard{redirect: "/onboarding"}, &fakeLimiter{allow: true})
		rec := do(t, h, authed(t, auth, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), "u1", false))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/onboarding", rec.Header().Get("Location"))
	})

	t.Run("should serve completed users", func(t *testing.T) {
		h, auth := newTestServer(t, &fakeSteps{}, fakeGuard{}, &fakeLimiter{allow: true})
		rec := do(t, h, authed(t, auth, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), "u1", false))
		require.Equal(t, http.StatusOK, rec.Code)

		var u model.User
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&u))
		assert.Equal(t, "u1", u.ID)
	})

	t.Run("should guard the application entry", func(t *testing.T) {
		h, auth := newTestServer(t, &fakeSteps{}, fakeGuard{redirect: "/onboarding"}, &fakeLimiter{allow: true})
		rec := do(t, h, authed(t, auth, httptest.NewRequest(http.MethodGet, model.AppEntryPath, nil), "u1", false))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/onboarding", rec.Header().Get("Location"))

		anon := do(t, h, httptest.NewRequest(http.MethodGet, model.AppEntryPath, nil))
		assert.Equal(t, http.StatusOK, anon.Code)
	})

	t.Run("should let anonymous callers reach the handler", func(t *testing.T) {
		h, _ := newTestServer(t, &fakeSteps{}, fakeGuard{redirect: "/onboarding"}, &fakeLimiter{allow: true})
		rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestDetectedCountry(t *testing.T) {
	cases := map[string]string{"gb": "GB", "XX": "", "T1": "", "": "", "USA": ""}
	for in, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if in != "" {
			req.Header.Set("X-Country-Code", in)
		}
		assert.Equal(t, want, detectedCountry(req), "input %q", in)
	}
}
