package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"lexbrief/internal/domain"
	"lexbrief/internal/domain/model"
	"lexbrief/internal/domain/ports/adapter"
	"lexbrief/internal/domain/ports/repository"
	"lexbrief/internal/infra/i18n"
	"lexbrief/internal/infra/logging"
	"lexbrief/internal/infra/metrics"
	"lexbrief/internal/infra/worker"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ SubmissionReducer = (*submissionUC)(nil)

// UserError carries a localized message that is safe to show to the user.
type UserError struct {
	Msg string
	Err error
}

func (e *UserError) Error() string { return e.Msg }
func (e *UserError) Unwrap() error { return e.Err }

// TaskSubmitter queues work that must not delay the response.
type TaskSubmitter interface {
	Submit(name string, task worker.Task) error
}

// SubmissionReducer turns a finished draft into a persisted profile and returns
// where the user goes next.
type SubmissionReducer interface {
	Submit(ctx context.Context, p *model.Principal, d *model.Draft) (redirect string, err error)
}

type SubmissionDeps struct {
	Profiles   adapter.ProfileUpdater
	Sessions   SessionUseCase
	Drafts     DraftStore
	Holder     repository.AttachmentStore
	Documents  adapter.DocumentStorage
	Locker     repository.Locker
	Tasks      TaskSubmitter
	Notifier   adapter.ReviewNotifier
	Translator *i18n.Translator
	LockTTL    time.Duration
}

type submissionUC struct {
	SubmissionDeps
	log *zerolog.Logger
}

func NewSubmissionReducer(deps SubmissionDeps, logger *zerolog.Logger) *submissionUC {
	if deps.LockTTL <= 0 {
		deps.LockTTL = 30 * time.Second
	}
	return &submissionUC{SubmissionDeps: deps, log: logger}
}

func submitLockKey(userID string) string { return "onboarding:submit:" + userID }

// Submit persists the profile, then the session, and only then clears the draft.
// The redirect is returned after the session write so the guard on /app sees a
// completed user. On any failure before the profile is stored the draft is untouched.
func (u *submissionUC) Submit(ctx context.Context, p *model.Principal, d *model.Draft) (string, error) {
	defer logging.TraceDuration(u.log, "SubmissionReducer.Submit")()
	log := logging.With(ctx, u.log)
	userType := string(d.UserType)

	token, err := u.Locker.TryLock(ctx, submitLockKey(p.UserID), u.LockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrSubmissionInProgress) {
			metrics.IncSubmission(userType, "conflict")
			return "", &UserError{Msg: u.Translator.T("err_submission_in_progress"), Err: err}
		}
		return "", fmt.Errorf("acquire submit lock: %w", err)
	}
	defer func() {
		if err := u.Locker.Unlock(context.WithoutCancel(ctx), submitLockKey(p.UserID), token); err != nil {
			log.Warn().Err(err).Msg("failed to release submit lock")
		}
	}()

	upd := model.BuildProfileUpdate(d)

	var uploaded []string
	if model.StepApplies(d, model.StepVerification) {
		uploaded, err = u.uploadDocuments(ctx, p, &upd)
		if err != nil {
			u.removeDocuments(ctx, uploaded)
			metrics.IncSubmission(userType, "failed")
			log.Error().Err(err).Msg("verification document upload failed")
			return "", u.failed(err)
		}
	}

	usr, err := u.Profiles.UpdateProfile(ctx, p.UserID, upd)
	if err != nil {
		u.removeDocuments(ctx, uploaded)
		metrics.IncSubmission(userType, "failed")
		log.Error().Err(err).Msg("profile update failed")
		return "", u.failed(err)
	}

	patch := model.UserPatch{Profile: &usr.Profile, OnboardingCompleted: model.Ptr(true)}
	if _, err := u.Sessions.UpdateUser(ctx, p.UserID, patch); err != nil {
		// The stored profile is already complete; dropping the cached view makes the
		// next read fall back to it.
		log.Warn().Err(err).Msg("session update failed, invalidating")
		if ierr := u.Sessions.Invalidate(ctx, p.UserID); ierr != nil {
			metrics.IncSubmission(userType, "failed")
			return "", fmt.Errorf("refresh session after submission: %w", errors.Join(err, ierr))
		}
	}

	if err := u.Drafts.Reset(ctx, p.UserID); err != nil {
		log.Warn().Err(err).Msg("failed to reset draft after submission")
	}
	u.Holder.Clear(p.SessionID)

	if d.UserType == model.UserTypeLawyer {
		u.queueReviewNotice(log, usr, d, upd)
	}

	metrics.IncSubmission(userType, "ok")
	log.Info().Str("user_type", userType).Int("documents", len(upd.Documents)).Msg("onboarding submitted")
	return model.AppEntryPath, nil
}

func (u *submissionUC) failed(err error) error {
	return &UserError{
		Msg: u.Translator.T("err_profile_update_failed"),
		Err: fmt.Errorf("%w: %w", domain.ErrProfileUpdateFailed, err),
	}
}

func (u *submissionUC) uploadDocuments(ctx context.Context, p *model.Principal, upd *model.ProfileUpdate) ([]string, error) {
	var keys []string
	for _, a := range u.Holder.List(p.SessionID) {
		key := fmt.Sprintf("verification/%s/%s-%s", p.UserID, ulid.Make(), a.Kind)
		if err := u.Documents.Put(ctx, key, a.ContentType, bytes.NewReader(a.Data), a.Size()); err != nil {
			return keys, fmt.Errorf("upload %s: %w", a.Kind, err)
		}
		keys = append(keys, key)
		if upd.Documents == nil {
			upd.Documents = map[string]string{}
		}
		upd.Documents[string(a.Kind)] = key
	}
	return keys, nil
}

func (u *submissionUC) removeDocuments(ctx context.Context, keys []string) {
	ctx = context.WithoutCancel(ctx)
	for _, k := range keys {
		if err := u.Documents.Remove(ctx, k); err != nil {
			u.log.Warn().Err(err).Str("key", k).Msg("failed to remove orphaned document")
		}
	}
}

func (u *submissionUC) queueReviewNotice(log *zerolog.Logger, usr *model.User, d *model.Draft, upd model.ProfileUpdate) {
	if u.Tasks == nil || u.Notifier == nil {
		return
	}
	notice := adapter.VerificationNotice{
		UserID:     usr.ID,
		FullName:   usr.FullName,
		Email:      usr.Email,
		CallNumber: d.Verification.CallNumber,
		Country:    upd.Country,
		Documents:  upd.Documents,
	}
	err := u.Tasks.Submit("review_notice", func(ctx context.Context) error {
		return u.Notifier.NotifyVerification(ctx, notice)
	})
	if err != nil {
		log.Warn().Err(err).Msg("review notice not queued")
	}
}
