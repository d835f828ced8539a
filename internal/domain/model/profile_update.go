package model

// ProfileUpdate is the payload sent to the profile-update collaborator.
// Absent optional fields are omitted from the wire, never sent as null or zero.
type ProfileUpdate struct {
	UserType             string            `json:"user_type,omitempty"`
	Profession           string            `json:"profession,omitempty"`
	CommunicationStyle   string            `json:"communication_style,omitempty"`
	Country              string            `json:"country,omitempty"`
	CountryCode          string            `json:"country_code,omitempty"`
	Region               string            `json:"region,omitempty"`
	City                 string            `json:"city,omitempty"`
	Bio                  string            `json:"bio,omitempty"`
	University           string            `json:"university,omitempty"`
	Level                string            `json:"level,omitempty"`
	LawSchool            string            `json:"law_school,omitempty"`
	CallToBarYear        *int              `json:"call_to_bar_year,omitempty"`
	AreaOfStudy          string            `json:"area_of_study,omitempty"`
	ExpertiseIDs         []int             `json:"expertise_ids,omitempty"`
	CallNumber           string            `json:"call_number,omitempty"`
	WantsClientReferrals *bool             `json:"wants_client_referrals,omitempty"`
	Documents            map[string]string `json:"documents,omitempty"`
	OnboardingCompleted  bool              `json:"onboarding_completed"`
}

// BuildProfileUpdate reduces a draft into a profile update. Only fields of steps
// that apply to the draft's branch are carried over.
func BuildProfileUpdate(d *Draft) ProfileUpdate {
	upd := ProfileUpdate{
		UserType:            string(d.UserType),
		CommunicationStyle:  string(d.CommunicationStyle),
		OnboardingCompleted: true,
	}

	switch d.UserType {
	case UserTypeLawyer:
		upd.Profession = ProfessionLawyer
	case UserTypeLawStudent:
		upd.Profession = ProfessionStudent
	}
	if d.Profile.Profession != "" {
		upd.Profession = d.Profile.Profession
	}

	if d.Location != nil {
		upd.Country = d.Location.Country
		upd.CountryCode = d.Location.CountryCode
		upd.Region = d.Location.Region
		upd.City = d.Location.City
	}
	if StepApplies(d, StepProfile) {
		upd.Bio = d.Profile.Bio
		if d.Profile.Country != "" {
			upd.Country = d.Profile.Country
		}
		if d.Profile.Region != "" {
			upd.Region = d.Profile.Region
		}
		if d.Profile.City != "" {
			upd.City = d.Profile.City
		}
	}

	if StepApplies(d, StepEducation) {
		p := d.Profile
		upd.AreaOfStudy = p.AreaOfStudy
		switch {
		case d.UserType == UserTypeLawStudent && d.EducationLevel == EducationLevelLawSchool:
			upd.LawSchool = p.LawSchool
		case d.UserType == UserTypeLawStudent, d.UserType == UserTypeOther:
			upd.University = p.University
			upd.Level = p.Level
		default:
			upd.University = p.University
			upd.LawSchool = p.LawSchool
		}
		if d.UserType == UserTypeLawyer && p.YearOfCall != nil && *p.YearOfCall > 0 {
			y := *p.YearOfCall
			upd.CallToBarYear = &y
		}
	}

	if StepApplies(d, StepExpertise) && d.Expertise != nil && len(d.Expertise.IDs) > 0 {
		upd.ExpertiseIDs = append([]int(nil), d.Expertise.IDs...)
	}

	if StepApplies(d, StepVerification) {
		upd.CallNumber = d.Verification.CallNumber
		if d.Verification.WantsClientReferrals != nil {
			v := *d.Verification.WantsClientReferrals
			upd.WantsClientReferrals = &v
		}
	}
	return upd
}
