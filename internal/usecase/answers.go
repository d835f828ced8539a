package usecase

import (
	"encoding/json"
	"strings"
	"time"

	"lexbrief/internal/domain"
	"lexbrief/internal/domain/model"
)

// answerEnv carries request facts an answer may need besides its own fields.
type answerEnv struct {
	DetectedCountry string
	Attached        []model.DocumentKind
	Now             time.Time
}

type stepAnswer interface {
	patch(d *model.Draft, env answerEnv) (model.DraftPatch, error)
}

type UserTypeAnswer struct {
	UserType string `json:"user_type" validate:"required,oneof=lawyer law_student other"`
}

func (a *UserTypeAnswer) patch(*model.Draft, answerEnv) (model.DraftPatch, error) {
	return model.DraftPatch{UserType: model.Ptr(model.UserType(a.UserType)), Answered: model.StepUserType}, nil
}

type CommunicationAnswer struct {
	Style string `json:"communication_style" validate:"required,oneof=formal friendly concise detailed"`
}

func (a *CommunicationAnswer) patch(*model.Draft, answerEnv) (model.DraftPatch, error) {
	return model.DraftPatch{
		CommunicationStyle: model.Ptr(model.CommunicationStyle(a.Style)),
		Answered:           model.StepCommunication,
	}, nil
}

type LocationAnswer struct {
	Country     string `json:"country" validate:"required,max=100"`
	CountryCode string `json:"country_code" validate:"required,len=2,alpha"`
	Region      string `json:"region,omitempty" validate:"omitempty,max=100"`
	City        string `json:"city,omitempty" validate:"omitempty,max=100"`
	// Detected is informational on reads; the server-side detection always wins.
	Detected bool `json:"selected_country_matches_detected,omitempty"`
}

// The confirmed location is copied into the profile so the profile step starts prefilled.
func (a *LocationAnswer) patch(_ *model.Draft, env answerEnv) (model.DraftPatch, error) {
	loc := model.NewLocationSelection(a.Country, a.CountryCode, a.Region, a.City, env.DetectedCountry)
	return model.DraftPatch{
		Location: &loc,
		Profile: &model.ProfilePatch{
			Country: model.Ptr(loc.Country),
			Region:  model.Ptr(loc.Region),
			City:    model.Ptr(loc.City),
		},
		Answered: model.StepLocation,
	}, nil
}

type ProfileAnswer struct {
	Profession string `json:"profession,omitempty" validate:"omitempty,max=100"`
	Bio        string `json:"bio,omitempty" validate:"omitempty,max=1000"`
	Country    string `json:"country,omitempty" validate:"omitempty,max=100"`
	Region     string `json:"region,omitempty" validate:"omitempty,max=100"`
	City       string `json:"city,omitempty" validate:"omitempty,max=100"`
}

// Profession is only asked of "other" users; legal users get it derived at submission.
func (a *ProfileAnswer) patch(d *model.Draft, _ answerEnv) (model.DraftPatch, error) {
	p := &model.ProfilePatch{
		Bio:     model.Ptr(a.Bio),
		Country: model.Ptr(a.Country),
		Region:  model.Ptr(a.Region),
		City:    model.Ptr(a.City),
	}
	if d.UserType == model.UserTypeOther {
		if strings.TrimSpace(a.Profession) == "" {
			return model.DraftPatch{}, fieldError("profession", "required")
		}
		p.Profession = model.Ptr(a.Profession)
	}
	return model.DraftPatch{Profile: p, Answered: model.StepProfile}, nil
}

type EducationLevelAnswer struct {
	Level string `json:"education_level" validate:"required,oneof=university law_school"`
}

func (a *EducationLevelAnswer) patch(*model.Draft, answerEnv) (model.DraftPatch, error) {
	return model.DraftPatch{
		EducationLevel: model.Ptr(model.EducationLevel(a.Level)),
		Answered:       model.StepEducationLevel,
	}, nil
}

type EducationAnswer struct {
	University  string `json:"university,omitempty" validate:"omitempty,max=200"`
	Level       string `json:"level,omitempty" validate:"omitempty,max=100"`
	LawSchool   string `json:"law_school,omitempty" validate:"omitempty,max=200"`
	YearOfCall  *int   `json:"year_of_call,omitempty" validate:"omitempty,min=1900"`
	AreaOfStudy string `json:"area_of_study,omitempty" validate:"omitempty,max=200"`
}

// Each branch only requires and keeps its own fields.
func (a *EducationAnswer) patch(d *model.Draft, env answerEnv) (model.DraftPatch, error) {
	p := &model.ProfilePatch{AreaOfStudy: model.Ptr(a.AreaOfStudy)}
	switch {
	case d.UserType == model.UserTypeLawStudent && d.EducationLevel == model.EducationLevelLawSchool:
		if strings.TrimSpace(a.LawSchool) == "" {
			return model.DraftPatch{}, fieldError("law_school", "required")
		}
		p.LawSchool = model.Ptr(a.LawSchool)
	case d.UserType == model.UserTypeLawyer:
		if strings.TrimSpace(a.University) == "" {
			return model.DraftPatch{}, fieldError("university", "required")
		}
		p.University = model.Ptr(a.University)
		p.LawSchool = model.Ptr(a.LawSchool)
		if a.YearOfCall != nil {
			if *a.YearOfCall > env.Now.Year() {
				return model.DraftPatch{}, fieldError("year_of_call", "not_future")
			}
			p.YearOfCall = a.YearOfCall
		}
	default:
		if strings.TrimSpace(a.University) == "" {
			return model.DraftPatch{}, fieldError("university", "required")
		}
		p.University = model.Ptr(a.University)
		p.Level = model.Ptr(a.Level)
	}
	return model.DraftPatch{Profile: p, Answered: model.StepEducation}, nil
}

type ExpertiseAnswer struct {
	IDs []int `json:"ids" validate:"required,min=1,max=10,dive,gt=0"`
}

func (a *ExpertiseAnswer) patch(*model.Draft, answerEnv) (model.DraftPatch, error) {
	return model.DraftPatch{Expertise: &model.ExpertiseSelection{IDs: a.IDs}, Answered: model.StepExpertise}, nil
}

type VerificationAnswer struct {
	CallNumber           string `json:"call_number" validate:"required,max=50"`
	WantsClientReferrals *bool  `json:"wants_client_referrals" validate:"required"`
}

// AttachedKinds is recomputed from what the session actually holds.
func (a *VerificationAnswer) patch(_ *model.Draft, env answerEnv) (model.DraftPatch, error) {
	kinds := env.Attached
	if kinds == nil {
		kinds = []model.DocumentKind{}
	}
	return model.DraftPatch{
		Verification: &model.VerificationPatch{
			CallNumber:           model.Ptr(strings.TrimSpace(a.CallNumber)),
			WantsClientReferrals: a.WantsClientReferrals,
			AttachedKinds:        kinds,
		},
		Answered: model.StepVerification,
	}, nil
}

func newAnswer(step model.StepID) (stepAnswer, error) {
	switch step {
	case model.StepUserType:
		return &UserTypeAnswer{}, nil
	case model.StepCommunication:
		return &CommunicationAnswer{}, nil
	case model.StepLocation:
		return &LocationAnswer{}, nil
	case model.StepProfile:
		return &ProfileAnswer{}, nil
	case model.StepEducationLevel:
		return &EducationLevelAnswer{}, nil
	case model.StepEducation:
		return &EducationAnswer{}, nil
	case model.StepExpertise:
		return &ExpertiseAnswer{}, nil
	case model.StepVerification:
		return &VerificationAnswer{}, nil
	}
	return nil, domain.ErrUnknownStep
}

// decodeAnswer parses and tag-validates the raw body for step.
func decodeAnswer(step model.StepID, raw []byte) (stepAnswer, error) {
	a, err := newAnswer(step)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, a); err != nil {
		return nil, fieldError("body", "malformed")
	}
	if err := validateStruct(a); err != nil {
		return nil, err
	}
	return a, nil
}

// storedAnswer pre-populates a step view from the draft. Nil means nothing stored yet.
func storedAnswer(d *model.Draft, step model.StepID) any {
	switch step {
	case model.StepUserType:
		if d.UserType == "" {
			return nil
		}
		return &UserTypeAnswer{UserType: string(d.UserType)}
	case model.StepCommunication:
		if d.CommunicationStyle == "" {
			return nil
		}
		return &CommunicationAnswer{Style: string(d.CommunicationStyle)}
	case model.StepLocation:
		if d.Location == nil {
			return nil
		}
		l := d.Location
		return &LocationAnswer{Country: l.Country, CountryCode: l.CountryCode, Region: l.Region, City: l.City, Detected: l.SelectedCountryMatchesDetected}
	case model.StepProfile:
		p := d.Profile
		return &ProfileAnswer{Profession: p.Profession, Bio: p.Bio, Country: p.Country, Region: p.Region, City: p.City}
	case model.StepEducationLevel:
		if d.EducationLevel == "" {
			return nil
		}
		return &EducationLevelAnswer{Level: string(d.EducationLevel)}
	case model.StepEducation:
		p := d.Profile
		return &EducationAnswer{University: p.University, Level: p.Level, LawSchool: p.LawSchool, YearOfCall: p.YearOfCall, AreaOfStudy: p.AreaOfStudy}
	case model.StepExpertise:
		if d.Expertise == nil {
			return nil
		}
		return &ExpertiseAnswer{IDs: d.Expertise.IDs}
	case model.StepVerification:
		v := d.Verification
		return &VerificationAnswer{CallNumber: v.CallNumber, WantsClientReferrals: v.WantsClientReferrals}
	}
	return nil
}
