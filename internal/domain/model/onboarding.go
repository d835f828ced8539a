package model

import (
	"slices"
	"strings"
)

// UserType is chosen in the first onboarding step and drives every later branch.
type UserType string

const (
	UserTypeLawyer     UserType = "lawyer"
	UserTypeLawStudent UserType = "law_student"
	UserTypeOther      UserType = "other"
)

func (t UserType) Valid() bool {
	switch t {
	case UserTypeLawyer, UserTypeLawStudent, UserTypeOther:
		return true
	}
	return false
}

// IsLegal reports whether the user type belongs to the legal profession track.
func (t UserType) IsLegal() bool {
	return t == UserTypeLawyer || t == UserTypeLawStudent
}

type CommunicationStyle string

const (
	CommunicationFormal   CommunicationStyle = "formal"
	CommunicationFriendly CommunicationStyle = "friendly"
	CommunicationConcise  CommunicationStyle = "concise"
	CommunicationDetailed CommunicationStyle = "detailed"
)

// EducationLevel is the law student's fork between university and law school details.
type EducationLevel string

const (
	EducationLevelUniversity EducationLevel = "university"
	EducationLevelLawSchool  EducationLevel = "law_school"
)

func (l EducationLevel) Valid() bool {
	return l == EducationLevelUniversity || l == EducationLevelLawSchool
}

const (
	ProfessionLawyer  = "lawyer"
	ProfessionStudent = "student"
)

// IsStudentProfession compares a free-text profession against "student".
func IsStudentProfession(profession string) bool {
	return strings.EqualFold(strings.TrimSpace(profession), ProfessionStudent)
}

// LocationSelection is what the user confirmed in the location step.
type LocationSelection struct {
	Country                        string `json:"country"`
	CountryCode                    string `json:"country_code"`
	Region                         string `json:"region,omitempty"`
	City                           string `json:"city,omitempty"`
	SelectedCountryMatchesDetected bool   `json:"selected_country_matches_detected"`
}

// NewLocationSelection derives the detected-country match from the geolocated code.
// An empty detected code never matches.
func NewLocationSelection(country, countryCode, region, city, detectedCode string) LocationSelection {
	code := strings.ToUpper(strings.TrimSpace(countryCode))
	detected := strings.ToUpper(strings.TrimSpace(detectedCode))
	return LocationSelection{
		Country:                        strings.TrimSpace(country),
		CountryCode:                    code,
		Region:                         strings.TrimSpace(region),
		City:                           strings.TrimSpace(city),
		SelectedCountryMatchesDetected: detected != "" && code == detected,
	}
}

type ProfileDraft struct {
	Profession  string `json:"profession,omitempty"`
	University  string `json:"university,omitempty"`
	Level       string `json:"level,omitempty"`
	LawSchool   string `json:"law_school,omitempty"`
	YearOfCall  *int   `json:"year_of_call,omitempty"`
	AreaOfStudy string `json:"area_of_study,omitempty"`
	Bio         string `json:"bio,omitempty"`
	City        string `json:"city,omitempty"`
	Region      string `json:"region,omitempty"`
	Country     string `json:"country,omitempty"`
}

type ExpertiseSelection struct {
	IDs []int `json:"ids"`
}

// VerificationDraft holds the serialisable part of the lawyer verification step.
// Uploaded documents live in the session-only attachment holder; AttachedKinds
// only remembers which kinds were attached so a lost upload can be reported.
type VerificationDraft struct {
	CallNumber           string         `json:"call_number,omitempty"`
	WantsClientReferrals *bool          `json:"wants_client_referrals,omitempty"`
	AttachedKinds        []DocumentKind `json:"attached_kinds,omitempty"`
}

// Draft is the accumulated, not yet submitted set of onboarding answers.
type Draft struct {
	UserType           UserType            `json:"user_type,omitempty"`
	CommunicationStyle CommunicationStyle  `json:"communication_style,omitempty"`
	Location           *LocationSelection  `json:"location,omitempty"`
	EducationLevel     EducationLevel      `json:"education_level,omitempty"`
	Profile            ProfileDraft        `json:"profile"`
	Expertise          *ExpertiseSelection `json:"expertise,omitempty"`
	Verification       VerificationDraft   `json:"verification"`
	Answered           []StepID            `json:"answered,omitempty"`
}

func NewDraft() *Draft { return &Draft{} }

// CountryMatchesDetected is false until the location step has been answered.
func (d *Draft) CountryMatchesDetected() bool {
	return d.Location != nil && d.Location.SelectedCountryMatchesDetected
}

func (d *Draft) SkipProfile() bool {
	return SkipProfile(d.UserType, d.CountryMatchesDetected())
}

func (d *Draft) TotalSteps() int {
	return TotalSteps(d.UserType, d.Profile.Profession, d.SkipProfile())
}

// educationFilled reports whether the field the current education branch requires is set.
func (d *Draft) educationFilled() bool {
	if d.UserType == UserTypeLawStudent && d.EducationLevel == EducationLevelLawSchool {
		return d.Profile.LawSchool != ""
	}
	return d.Profile.University != ""
}

func (d *Draft) marked(id StepID) bool {
	return slices.Contains(d.Answered, id)
}

// Clone returns a deep copy so callers can never alias stored state.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return NewDraft()
	}
	cp := *d
	if d.Location != nil {
		loc := *d.Location
		cp.Location = &loc
	}
	if d.Profile.YearOfCall != nil {
		y := *d.Profile.YearOfCall
		cp.Profile.YearOfCall = &y
	}
	if d.Expertise != nil {
		cp.Expertise = &ExpertiseSelection{IDs: slices.Clone(d.Expertise.IDs)}
	}
	if d.Verification.WantsClientReferrals != nil {
		v := *d.Verification.WantsClientReferrals
		cp.Verification.WantsClientReferrals = &v
	}
	cp.Verification.AttachedKinds = slices.Clone(d.Verification.AttachedKinds)
	cp.Answered = slices.Clone(d.Answered)
	return &cp
}

// ProfilePatch lists the profile fields a step wants to overwrite; nil means untouched.
type ProfilePatch struct {
	Profession  *string
	University  *string
	Level       *string
	LawSchool   *string
	YearOfCall  *int
	AreaOfStudy *string
	Bio         *string
	City        *string
	Region      *string
	Country     *string
}

type VerificationPatch struct {
	CallNumber           *string
	WantsClientReferrals *bool
	AttachedKinds        []DocumentKind // nil means untouched
}

// DraftPatch is a partial update. Top-level fields replace, sub-objects merge shallowly.
type DraftPatch struct {
	UserType           *UserType
	CommunicationStyle *CommunicationStyle
	Location           *LocationSelection
	EducationLevel     *EducationLevel
	Profile            *ProfilePatch
	Expertise          *ExpertiseSelection
	Verification       *VerificationPatch
	// Answered marks a step as submitted.
	Answered StepID
}

// Apply returns a new draft with the patch merged in. Applying the same patch
// twice yields the same draft as applying it once.
func (d *Draft) Apply(p DraftPatch) *Draft {
	out := d.Clone()
	if p.UserType != nil {
		out.UserType = *p.UserType
	}
	if p.CommunicationStyle != nil {
		out.CommunicationStyle = *p.CommunicationStyle
	}
	if p.Location != nil {
		loc := *p.Location
		out.Location = &loc
	}
	if p.EducationLevel != nil {
		if out.EducationLevel != *p.EducationLevel {
			// the education answer belongs to the old branch
			out.Answered = slices.DeleteFunc(out.Answered, func(id StepID) bool { return id == StepEducation })
		}
		out.EducationLevel = *p.EducationLevel
	}
	if p.Profile != nil {
		mergeProfile(&out.Profile, p.Profile)
	}
	if p.Expertise != nil {
		ids := slices.Clone(p.Expertise.IDs)
		slices.Sort(ids)
		out.Expertise = &ExpertiseSelection{IDs: slices.Compact(ids)}
	}
	if p.Verification != nil {
		if p.Verification.CallNumber != nil {
			out.Verification.CallNumber = *p.Verification.CallNumber
		}
		if p.Verification.WantsClientReferrals != nil {
			v := *p.Verification.WantsClientReferrals
			out.Verification.WantsClientReferrals = &v
		}
		if p.Verification.AttachedKinds != nil {
			kinds := slices.Clone(p.Verification.AttachedKinds)
			slices.Sort(kinds)
			out.Verification.AttachedKinds = slices.Compact(kinds)
		}
	}
	if p.Answered != "" && !out.marked(p.Answered) {
		out.Answered = append(out.Answered, p.Answered)
		slices.SortFunc(out.Answered, func(a, b StepID) int { return stepIndex(a) - stepIndex(b) })
	}
	return out
}

func mergeProfile(dst *ProfileDraft, p *ProfilePatch) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&dst.Profession, p.Profession)
	set(&dst.University, p.University)
	set(&dst.Level, p.Level)
	set(&dst.LawSchool, p.LawSchool)
	set(&dst.AreaOfStudy, p.AreaOfStudy)
	set(&dst.Bio, p.Bio)
	set(&dst.City, p.City)
	set(&dst.Region, p.Region)
	set(&dst.Country, p.Country)
	if p.YearOfCall != nil {
		y := *p.YearOfCall
		dst.YearOfCall = &y
	}
}

// Ptr is a small helper for building patches.
func Ptr[T any](v T) *T { return &v }
