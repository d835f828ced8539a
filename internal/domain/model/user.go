package model

import (
	"maps"
	"slices"
	"strings"
	"time"

	"lexbrief/internal/domain"

	"github.com/google/uuid"
)

// Profile is the server-confirmed profile attached to a user.
type Profile struct {
	UserType             UserType                `json:"user_type,omitempty"`
	Profession           string                  `json:"profession,omitempty"`
	CommunicationStyle   CommunicationStyle      `json:"communication_style,omitempty"`
	Country              string                  `json:"country,omitempty"`
	CountryCode          string                  `json:"country_code,omitempty"`
	Region               string                  `json:"region,omitempty"`
	City                 string                  `json:"city,omitempty"`
	Bio                  string                  `json:"bio,omitempty"`
	University           string                  `json:"university,omitempty"`
	Level                string                  `json:"level,omitempty"`
	LawSchool            string                  `json:"law_school,omitempty"`
	CallToBarYear        *int                    `json:"call_to_bar_year,omitempty"`
	AreaOfStudy          string                  `json:"area_of_study,omitempty"`
	ExpertiseIDs         []int                   `json:"expertise_ids,omitempty"`
	CallNumber           string                  `json:"call_number,omitempty"`
	WantsClientReferrals *bool                   `json:"wants_client_referrals,omitempty"`
	Documents            map[DocumentKind]string `json:"documents,omitempty"`
}

// User is the session's view of an account.
// OnboardingCompleted is nil when the server never reported the flag.
type User struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	FullName            string    `json:"full_name,omitempty"`
	IsGuest             bool      `json:"is_guest"`
	Profile             Profile   `json:"profile"`
	OnboardingCompleted *bool     `json:"onboarding_completed,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func NewUser(id, email, fullName string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:        id,
		Email:     email,
		FullName:  strings.TrimSpace(fullName),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }

// HasCompletedOnboarding trusts an explicit true flag and otherwise falls back to
// "profession is set". The fallback is an approximation kept for older records
// that never carried the flag; it can report complete for a user who stopped
// after choosing a profession.
func (u *User) HasCompletedOnboarding() bool {
	if u == nil {
		return false
	}
	if u.OnboardingCompleted != nil && *u.OnboardingCompleted {
		return true
	}
	return strings.TrimSpace(u.Profile.Profession) != ""
}

// ApplyProfileUpdate copies every present field of the update onto the user.
func (u *User) ApplyProfileUpdate(upd ProfileUpdate) {
	p := &u.Profile
	setStr := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	if upd.UserType != "" {
		p.UserType = UserType(upd.UserType)
	}
	if upd.CommunicationStyle != "" {
		p.CommunicationStyle = CommunicationStyle(upd.CommunicationStyle)
	}
	setStr(&p.Profession, upd.Profession)
	setStr(&p.Country, upd.Country)
	setStr(&p.CountryCode, upd.CountryCode)
	setStr(&p.Region, upd.Region)
	setStr(&p.City, upd.City)
	setStr(&p.Bio, upd.Bio)
	setStr(&p.University, upd.University)
	setStr(&p.Level, upd.Level)
	setStr(&p.LawSchool, upd.LawSchool)
	setStr(&p.AreaOfStudy, upd.AreaOfStudy)
	setStr(&p.CallNumber, upd.CallNumber)
	if upd.CallToBarYear != nil {
		y := *upd.CallToBarYear
		p.CallToBarYear = &y
	}
	if len(upd.ExpertiseIDs) > 0 {
		p.ExpertiseIDs = slices.Clone(upd.ExpertiseIDs)
	}
	if upd.WantsClientReferrals != nil {
		v := *upd.WantsClientReferrals
		p.WantsClientReferrals = &v
	}
	if len(upd.Documents) > 0 {
		if p.Documents == nil {
			p.Documents = map[DocumentKind]string{}
		}
		for k, v := range upd.Documents {
			p.Documents[DocumentKind(k)] = v
		}
	}
	done := upd.OnboardingCompleted
	u.OnboardingCompleted = &done
	u.UpdatedAt = time.Now()
}

// UserPatch is a partial session update.
type UserPatch struct {
	Profile             *Profile
	OnboardingCompleted *bool
}

// Merge folds the patch into the user. Profile fields present in the patch win.
func (u *User) Merge(p UserPatch) {
	if p.Profile != nil {
		mergeServerProfile(&u.Profile, p.Profile)
	}
	if p.OnboardingCompleted != nil {
		v := *p.OnboardingCompleted
		u.OnboardingCompleted = &v
	}
}

func mergeServerProfile(dst, src *Profile) {
	upd := ProfileUpdate{
		UserType:             string(src.UserType),
		Profession:           src.Profession,
		CommunicationStyle:   string(src.CommunicationStyle),
		Country:              src.Country,
		CountryCode:          src.CountryCode,
		Region:               src.Region,
		City:                 src.City,
		Bio:                  src.Bio,
		University:           src.University,
		Level:                src.Level,
		LawSchool:            src.LawSchool,
		CallToBarYear:        src.CallToBarYear,
		AreaOfStudy:          src.AreaOfStudy,
		ExpertiseIDs:         src.ExpertiseIDs,
		CallNumber:           src.CallNumber,
		WantsClientReferrals: src.WantsClientReferrals,
	}
	tmp := User{Profile: *dst}
	tmp.ApplyProfileUpdate(upd)
	if len(src.Documents) > 0 {
		if tmp.Profile.Documents == nil {
			tmp.Profile.Documents = map[DocumentKind]string{}
		}
		maps.Copy(tmp.Profile.Documents, src.Documents)
	}
	*dst = tmp.Profile
}
