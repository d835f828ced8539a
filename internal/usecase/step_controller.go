package usecase

import (
	"context"
	"fmt"
	"slices"
	"time"

	"lexbrief/internal/domain"
	"lexbrief/internal/domain/model"
	"lexbrief/internal/domain/ports/repository"
	"lexbrief/internal/infra/i18n"
	"lexbrief/internal/infra/logging"
	"lexbrief/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StepController = (*stepController)(nil)

// AttachmentInfo describes a held document without its body.
type AttachmentInfo struct {
	Kind     model.DocumentKind `json:"kind"`
	FileName string             `json:"file_name"`
	Size     int64              `json:"size"`
}

// StepView is what a mounted step renders. Position and Total are recomputed
// from the live draft on every call.
type StepView struct {
	Step            model.StepID     `json:"step"`
	Route           int              `json:"route"`
	Path            string           `json:"path"`
	Position        int              `json:"position"`
	Total           int              `json:"total"`
	Final           bool             `json:"final"`
	Answer          any              `json:"answer,omitempty"`
	PrevPath        string           `json:"prev_path,omitempty"`
	Attachments     []AttachmentInfo `json:"attachments,omitempty"`
	AttachmentsLost bool             `json:"attachments_lost"`
	Notice          string           `json:"notice,omitempty"`
}

// Outcome is either a view to render or a path to redirect to.
type Outcome struct {
	View     *StepView
	Redirect string
	Reason   string
}

func redirectTo(path, reason string) *Outcome { return &Outcome{Redirect: path, Reason: reason} }

// StepController mounts, submits and rewinds onboarding steps addressed by route number.
type StepController interface {
	// Entry resolves the bare flow path to the step the user should resume at.
	Entry(ctx context.Context, p *model.Principal) (*Outcome, error)
	Mount(ctx context.Context, p *model.Principal, route int, dir model.Direction) (*Outcome, error)
	Submit(ctx context.Context, p *model.Principal, route int, raw []byte, detectedCountry string) (*Outcome, error)
	Back(ctx context.Context, p *model.Principal, route int) (*Outcome, error)
	Attach(ctx context.Context, p *model.Principal, a model.Attachment) (*StepView, error)
}

type StepControllerDeps struct {
	Drafts            DraftStore
	Sessions          SessionUseCase
	Lookups           LookupUseCase
	Holder            repository.AttachmentStore
	Submission        SubmissionReducer
	Translator        *i18n.Translator
	MaxAttachmentSize int64
}

type stepController struct {
	StepControllerDeps
	log *zerolog.Logger
	now func() time.Time
}

func NewStepController(deps StepControllerDeps, logger *zerolog.Logger) *stepController {
	return &stepController{StepControllerDeps: deps, log: logger, now: time.Now}
}

func onboarder(p *model.Principal) error {
	if !p.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if p.Guest {
		return domain.ErrGuestSession
	}
	return nil
}

// completed sends users that already finished onboarding back to the app.
func (c *stepController) completed(ctx context.Context, p *model.Principal) (bool, error) {
	usr, err := c.Sessions.CurrentUser(ctx, p.UserID)
	if err != nil {
		return false, err
	}
	return usr.HasCompletedOnboarding(), nil
}

func (c *stepController) Entry(ctx context.Context, p *model.Principal) (*Outcome, error) {
	defer logging.TraceDuration(c.log, "StepController.Entry")()
	if err := onboarder(p); err != nil {
		return nil, err
	}
	if done, err := c.completed(ctx, p); err != nil {
		return nil, err
	} else if done {
		return redirectTo(model.AppEntryPath, "completed"), nil
	}
	d, err := c.Drafts.Get(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	s, _ := model.LookupStep(model.ResumeStep(d))
	return redirectTo(s.Path(), "resume"), nil
}

func (c *stepController) Mount(ctx context.Context, p *model.Principal, route int, dir model.Direction) (*Outcome, error) {
	defer logging.TraceDuration(c.log, "StepController.Mount")()
	if err := onboarder(p); err != nil {
		return nil, err
	}
	desc, ok := model.LookupRoute(route)
	if !ok {
		return nil, domain.ErrUnknownStep
	}
	if done, err := c.completed(ctx, p); err != nil {
		return nil, err
	} else if done {
		return redirectTo(model.AppEntryPath, "completed"), nil
	}
	d, err := c.Drafts.Get(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if out := c.misplaced(d, desc, dir); out != nil {
		return out, nil
	}
	metrics.IncStepView(string(desc.ID))
	return &Outcome{View: c.view(p, d, desc)}, nil
}

// misplaced returns a redirect when desc cannot be shown for d.
func (c *stepController) misplaced(d *model.Draft, desc model.StepDescriptor, dir model.Direction) *Outcome {
	target := model.Resolve(d, desc.ID, dir)
	if target == desc.ID {
		return nil
	}
	reason := "not_applicable"
	if _, unmet := model.FirstUnmet(d, desc.ID); unmet {
		reason = "prerequisite"
	}
	metrics.IncStepRedirect(string(desc.ID), reason)
	s, _ := model.LookupStep(target)
	return redirectTo(s.Path(), reason)
}

func (c *stepController) view(p *model.Principal, d *model.Draft, desc model.StepDescriptor) *StepView {
	v := &StepView{
		Step:     desc.ID,
		Route:    desc.Route,
		Path:     desc.Path(),
		Position: model.Position(d, desc.ID),
		Total:    d.TotalSteps(),
		Final:    model.IsFinalStep(d, desc.ID),
		Answer:   storedAnswer(d, desc.ID),
	}
	if prev, ok := model.PrevStep(d, desc.ID); ok {
		s, _ := model.LookupStep(prev)
		v.PrevPath = s.Path()
	}
	if desc.ID == model.StepVerification {
		held := c.Holder.List(p.SessionID)
		have := make([]model.DocumentKind, 0, len(held))
		for _, a := range held {
			v.Attachments = append(v.Attachments, AttachmentInfo{Kind: a.Kind, FileName: a.FileName, Size: a.Size()})
			have = append(have, a.Kind)
		}
		for _, k := range d.Verification.AttachedKinds {
			if !slices.Contains(have, k) {
				v.AttachmentsLost = true
				break
			}
		}
		if v.AttachmentsLost {
			v.Notice = c.Translator.T("attachments_lost")
		}
	}
	return v
}

func (c *stepController) Submit(ctx context.Context, p *model.Principal, route int, raw []byte, detectedCountry string) (*Outcome, error) {
	defer logging.TraceDuration(c.log, "StepController.Submit")()
	if err := onboarder(p); err != nil {
		return nil, err
	}
	desc, ok := model.LookupRoute(route)
	if !ok {
		return nil, domain.ErrUnknownStep
	}
	ctx = logging.WithStep(ctx, string(desc.ID))
	if done, err := c.completed(ctx, p); err != nil {
		return nil, err
	} else if done {
		return redirectTo(model.AppEntryPath, "completed"), nil
	}
	d, err := c.Drafts.Get(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if out := c.misplaced(d, desc, model.Forward); out != nil {
		return out, nil
	}

	ans, err := decodeAnswer(desc.ID, raw)
	if err != nil {
		return nil, err
	}
	if ea, ok := ans.(*ExpertiseAnswer); ok {
		unknown, err := c.Lookups.UnknownExpertise(ctx, ea.IDs)
		if err != nil {
			return nil, err
		}
		if len(unknown) > 0 {
			return nil, fieldError("ids", fmt.Sprintf("unknown=%v", unknown))
		}
	}
	env := answerEnv{DetectedCountry: detectedCountry, Now: c.now()}
	if desc.ID == model.StepVerification {
		env.Attached = heldKinds(c.Holder.List(p.SessionID))
	}
	patch, err := ans.patch(d, env)
	if err != nil {
		return nil, err
	}

	if desc.ID == model.StepUserType && d.UserType != "" && *patch.UserType != d.UserType {
		// A different user type starts a different flow; answers from the old branch are dropped.
		logging.With(ctx, c.log).Info().Str("from", string(d.UserType)).Str("to", string(*patch.UserType)).Msg("user type changed, resetting draft")
		if err := c.Drafts.Reset(ctx, p.UserID); err != nil {
			return nil, err
		}
		c.Holder.Clear(p.SessionID)
	}

	next, err := c.Drafts.Set(ctx, p.UserID, patch)
	if err != nil {
		return nil, err
	}
	metrics.IncStepTransition(string(desc.ID), "forward")

	if n, ok := model.NextStep(next, desc.ID); ok {
		s, _ := model.LookupStep(n)
		return redirectTo(s.Path(), "next"), nil
	}
	to, err := c.Submission.Submit(ctx, p, next)
	if err != nil {
		return nil, err
	}
	return redirectTo(to, "submitted"), nil
}

func (c *stepController) Back(ctx context.Context, p *model.Principal, route int) (*Outcome, error) {
	defer logging.TraceDuration(c.log, "StepController.Back")()
	if err := onboarder(p); err != nil {
		return nil, err
	}
	desc, ok := model.LookupRoute(route)
	if !ok {
		return nil, domain.ErrUnknownStep
	}
	if done, err := c.completed(ctx, p); err != nil {
		return nil, err
	} else if done {
		return redirectTo(model.AppEntryPath, "completed"), nil
	}
	d, err := c.Drafts.Get(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	metrics.IncStepTransition(string(desc.ID), "backward")
	target := model.Resolve(d, desc.ID, model.Backward)
	if prev, ok := model.PrevStep(d, desc.ID); ok && target == desc.ID {
		target = prev
	}
	s, _ := model.LookupStep(target)
	return redirectTo(s.Path(), "back"), nil
}

// Attach holds an uploaded verification document for the current login session
// and records its kind in the draft.
func (c *stepController) Attach(ctx context.Context, p *model.Principal, a model.Attachment) (*StepView, error) {
	defer logging.TraceDuration(c.log, "StepController.Attach")()
	if err := onboarder(p); err != nil {
		return nil, err
	}
	if !a.Kind.Valid() {
		return nil, fieldError("kind", "oneof=identity call_to_bar practising_license cv")
	}
	if c.MaxAttachmentSize > 0 && a.Size() > c.MaxAttachmentSize {
		return nil, &UserError{
			Msg: c.Translator.T("err_attachment_too_large", c.MaxAttachmentSize>>20),
			Err: domain.ErrAttachmentTooLarge,
		}
	}
	d, err := c.Drafts.Get(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if !model.StepApplies(d, model.StepVerification) {
		return nil, domain.ErrStepNotApplicable
	}

	a.AttachedAt = c.now()
	c.Holder.Put(p.SessionID, a)
	d, err = c.Drafts.Set(ctx, p.UserID, model.DraftPatch{
		Verification: &model.VerificationPatch{AttachedKinds: heldKinds(c.Holder.List(p.SessionID))},
	})
	if err != nil {
		return nil, err
	}
	desc, _ := model.LookupStep(model.StepVerification)
	return c.view(p, d, desc), nil
}

func heldKinds(as []model.Attachment) []model.DocumentKind {
	out := make([]model.DocumentKind, 0, len(as))
	for _, a := range as {
		out = append(out, a.Kind)
	}
	return out
}
