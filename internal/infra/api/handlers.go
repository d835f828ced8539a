package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"lexbrief/internal/domain"
	"lexbrief/internal/domain/model"
	"lexbrief/internal/infra/logging"
	"lexbrief/internal/usecase"

	"github.com/go-chi/chi/v5"
)

const maxAnswerBytes = 64 << 10

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRedirect answers with 303 so the client follows with a GET.
func writeRedirect(w http.ResponseWriter, to string) {
	w.Header().Set("Location", to)
	writeJSON(w, http.StatusSeeOther, map[string]string{"redirect": to})
}

func (s *Server) writeOutcome(w http.ResponseWriter, out *usecase.Outcome) {
	if out.Redirect != "" {
		writeRedirect(w, out.Redirect)
		return
	}
	writeJSON(w, http.StatusOK, out.View)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *usecase.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: s.tr.T("err_validation"), Fields: verr.Fields})
		return
	}

	var uerr *usecase.UserError
	msg := ""
	if errors.As(err, &uerr) {
		msg = uerr.Msg
	}
	status, key := http.StatusInternalServerError, "err_internal"
	switch {
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrUserNotFound):
		status, key = http.StatusUnauthorized, "err_unauthenticated"
	case errors.Is(err, domain.ErrGuestSession):
		status, key = http.StatusForbidden, "err_guest_session"
	case errors.Is(err, domain.ErrRateLimited):
		status, key = http.StatusTooManyRequests, "err_rate_limited"
	case errors.Is(err, domain.ErrUnknownStep):
		status, key = http.StatusNotFound, "err_unknown_step"
	case errors.Is(err, domain.ErrStepNotApplicable), errors.Is(err, domain.ErrSubmissionInProgress):
		status = http.StatusConflict
		if errors.Is(err, domain.ErrSubmissionInProgress) {
			key = "err_submission_in_progress"
		}
	case errors.Is(err, domain.ErrAttachmentTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrProfileUpdateFailed):
		status, key = http.StatusBadGateway, "err_profile_update_failed"
	}
	if msg == "" {
		msg = s.tr.T(key)
	}
	if status >= http.StatusInternalServerError {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func stepRoute(r *http.Request) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		return 0, domain.ErrUnknownStep
	}
	return n, nil
}

// detectedCountry reads the edge-provided geolocation. Cloudflare uses XX and T1 for unknown.
func detectedCountry(r *http.Request) string {
	c := r.Header.Get("X-Country-Code")
	if c == "" {
		c = r.Header.Get("CF-IPCountry")
	}
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "XX" || c == "T1" || len(c) != 2 {
		return ""
	}
	return c
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	out, err := s.steps.Entry(r.Context(), principalFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOutcome(w, out)
}

func (s *Server) handleMount(w http.ResponseWriter, r *http.Request) {
	n, err := stepRoute(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dir := model.Forward
	if r.URL.Query().Get("from") == "back" {
		dir = model.Backward
	}
	out, err := s.steps.Mount(r.Context(), principalFrom(r.Context()), n, dir)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOutcome(w, out)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	n, err := stepRoute(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAnswerBytes))
	if err != nil {
		s.writeError(w, r, &usecase.ValidationError{Fields: map[string]string{"body": "too_large"}})
		return
	}
	out, err := s.steps.Submit(r.Context(), principalFrom(r.Context()), n, raw, detectedCountry(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOutcome(w, out)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	n, err := stepRoute(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.steps.Back(r.Context(), principalFrom(r.Context()), n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOutcome(w, out)
}

// handleUpload accepts one multipart "file" part for the document kind in the path.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.maxUpload
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	if err := r.ParseMultipartForm(limit); err != nil {
		s.writeError(w, r, domain.ErrAttachmentTooLarge)
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, &usecase.ValidationError{Fields: map[string]string{"file": "required"}})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ct := hdr.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	view, err := s.steps.Attach(r.Context(), principalFrom(r.Context()), model.Attachment{
		Kind:        model.DocumentKind(chi.URLParam(r, "kind")),
		FileName:    hdr.Filename,
		ContentType: ct,
		Data:        data,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": s.lookups.Countries(r.Context())})
}

func (s *Server) handleUniversities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": s.lookups.Universities(r.Context(), r.URL.Query().Get("country"))})
}

func (s *Server) handleExpertise(w http.ResponseWriter, r *http.Request) {
	items, err := s.lookups.Expertise(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type appHome struct {
	User  *model.User `json:"user,omitempty"`
	Guest bool        `json:"guest"`
}

// handleApp is the landing point of the application area. Incomplete users never
// get here; the guard sends them back into onboarding.
func (s *Server) handleApp(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	home := appHome{Guest: p.Guest}
	if p.Authenticated() && !p.Guest {
		u, err := s.sessions.CurrentUser(r.Context(), p.UserID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		home.User = u
	}
	writeJSON(w, http.StatusOK, home)
}

// handleMe serves the session user; it only runs behind the completion guard.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	if !p.Authenticated() {
		s.writeError(w, r, domain.ErrUnauthenticated)
		return
	}
	u, err := s.sessions.CurrentUser(r.Context(), p.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
