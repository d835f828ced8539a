package model

import "fmt"

// StepID names a logical onboarding step.
type StepID string

const (
	StepUserType       StepID = "user_type"
	StepCommunication  StepID = "communication_style"
	StepLocation       StepID = "location"
	StepProfile        StepID = "profile"
	StepEducationLevel StepID = "education_level"
	StepEducation      StepID = "education"
	StepExpertise      StepID = "expertise"
	StepVerification   StepID = "verification"
)

// TotalSteps is the number of steps the user will face. An unset user type
// reports the transient default of 4.
func TotalSteps(userType UserType, profession string, skipProfile bool) int {
	switch userType {
	case UserTypeLawyer, UserTypeLawStudent:
		if skipProfile {
			return 6
		}
		return 7
	case UserTypeOther:
		if IsStudentProfession(profession) {
			return 5
		}
		return 4
	default:
		return 4
	}
}

// SkipProfile is true only for legal users who confirmed the detected country.
func SkipProfile(userType UserType, countryMatchesDetected bool) bool {
	return userType.IsLegal() && countryMatchesDetected
}

func ShowEducationStep(userType UserType, profession string) bool {
	switch userType {
	case UserTypeLawyer, UserTypeLawStudent:
		return true
	case UserTypeOther:
		return IsStudentProfession(profession)
	}
	return false
}

func ShowExpertiseStep(userType UserType) bool { return userType.IsLegal() }

func ShowVerificationStep(userType UserType) bool { return userType == UserTypeLawyer }

func ShowEducationLevelStep(userType UserType) bool { return userType == UserTypeLawStudent }

// StepDescriptor couples a step with its fixed route number and its predicates.
type StepDescriptor struct {
	ID       StepID
	Route    int
	Applies  func(d *Draft) bool
	Answered func(d *Draft) bool
}

func (s StepDescriptor) Path() string { return StepPath(s.Route) }

const (
	FlowEntryPath = "/onboarding"
	AppEntryPath  = "/app"
)

func StepPath(route int) string { return fmt.Sprintf("%s/step-%d", FlowEntryPath, route) }

var stepGraph = []StepDescriptor{
	{
		ID:       StepUserType,
		Route:    1,
		Applies:  func(*Draft) bool { return true },
		Answered: func(d *Draft) bool { return d.UserType.Valid() },
	},
	{
		ID:       StepCommunication,
		Route:    2,
		Applies:  func(*Draft) bool { return true },
		Answered: func(d *Draft) bool { return d.CommunicationStyle != "" },
	},
	{
		ID:       StepLocation,
		Route:    3,
		Applies:  func(*Draft) bool { return true },
		Answered: func(d *Draft) bool { return d.Location != nil && d.Location.CountryCode != "" },
	},
	{
		ID:      StepProfile,
		Route:   4,
		Applies: func(d *Draft) bool { return !d.SkipProfile() },
		Answered: func(d *Draft) bool {
			if d.UserType == UserTypeOther && d.Profile.Profession == "" {
				return false
			}
			return d.marked(StepProfile)
		},
	},
	{
		ID:       StepEducationLevel,
		Route:    5,
		Applies:  func(d *Draft) bool { return ShowEducationLevelStep(d.UserType) },
		Answered: func(d *Draft) bool { return d.EducationLevel.Valid() },
	},
	{
		ID:       StepEducation,
		Route:    6,
		Applies:  func(d *Draft) bool { return ShowEducationStep(d.UserType, d.Profile.Profession) },
		Answered: func(d *Draft) bool { return d.marked(StepEducation) && d.educationFilled() },
	},
	{
		ID:       StepExpertise,
		Route:    7,
		Applies:  func(d *Draft) bool { return ShowExpertiseStep(d.UserType) },
		Answered: func(d *Draft) bool { return d.Expertise != nil && len(d.Expertise.IDs) > 0 },
	},
	{
		ID:       StepVerification,
		Route:    8,
		Applies:  func(d *Draft) bool { return ShowVerificationStep(d.UserType) },
		Answered: func(d *Draft) bool { return d.marked(StepVerification) },
	},
}

func stepIndex(id StepID) int {
	for i, s := range stepGraph {
		if s.ID == id {
			return i
		}
	}
	return len(stepGraph)
}

// Steps returns the full ordered step table.
func Steps() []StepDescriptor {
	out := make([]StepDescriptor, len(stepGraph))
	copy(out, stepGraph)
	return out
}

func LookupStep(id StepID) (StepDescriptor, bool) {
	i := stepIndex(id)
	if i == len(stepGraph) {
		return StepDescriptor{}, false
	}
	return stepGraph[i], true
}

func LookupRoute(route int) (StepDescriptor, bool) {
	if route < 1 || route > len(stepGraph) {
		return StepDescriptor{}, false
	}
	return stepGraph[route-1], true
}

// ApplicableSteps lists the steps the draft's branch goes through, in order.
func ApplicableSteps(d *Draft) []StepID {
	var out []StepID
	for _, s := range stepGraph {
		if s.Applies(d) {
			out = append(out, s.ID)
		}
	}
	return out
}

func StepApplies(d *Draft, id StepID) bool {
	s, ok := LookupStep(id)
	return ok && s.Applies(d)
}

// Position is the 1-based ordinal of id among applicable steps, 0 when it does not apply.
func Position(d *Draft, id StepID) int {
	for i, s := range ApplicableSteps(d) {
		if s == id {
			return i + 1
		}
	}
	return 0
}

// NextStep walks forward from id and returns the first applicable step.
// ok is false when id is the final step of the branch.
func NextStep(d *Draft, id StepID) (StepID, bool) {
	for i := stepIndex(id) + 1; i < len(stepGraph); i++ {
		if stepGraph[i].Applies(d) {
			return stepGraph[i].ID, true
		}
	}
	return "", false
}

// PrevStep walks backward from id and returns the first applicable step.
func PrevStep(d *Draft, id StepID) (StepID, bool) {
	for i := min(stepIndex(id), len(stepGraph)) - 1; i >= 0; i-- {
		if stepGraph[i].Applies(d) {
			return stepGraph[i].ID, true
		}
	}
	return "", false
}

// FirstUnmet returns the earliest applicable step before id whose answer is missing.
// A missing user type always points back to the first step.
func FirstUnmet(d *Draft, id StepID) (StepID, bool) {
	if id != StepUserType && !d.UserType.Valid() {
		return StepUserType, true
	}
	for i := 0; i < stepIndex(id) && i < len(stepGraph); i++ {
		s := stepGraph[i]
		if s.Applies(d) && !s.Answered(d) {
			return s.ID, true
		}
	}
	return "", false
}

// ResumeStep is where a returning user lands: the first applicable unanswered
// step, or the final step when everything is answered.
func ResumeStep(d *Draft) StepID {
	if !d.UserType.Valid() {
		return StepUserType
	}
	var last StepID
	for _, s := range stepGraph {
		if !s.Applies(d) {
			continue
		}
		if !s.Answered(d) {
			return s.ID
		}
		last = s.ID
	}
	return last
}

func IsFinalStep(d *Draft, id StepID) bool {
	if !StepApplies(d, id) {
		return false
	}
	_, hasNext := NextStep(d, id)
	return !hasNext
}

// Direction tells Resolve which neighbour to prefer for an inapplicable step.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Resolve returns the step the user should actually see when asking for id.
// It equals id when id is mountable.
func Resolve(d *Draft, id StepID, dir Direction) StepID {
	if unmet, ok := FirstUnmet(d, id); ok {
		return unmet
	}
	if StepApplies(d, id) {
		return id
	}
	first, second := NextStep, PrevStep
	if dir == Backward {
		first, second = PrevStep, NextStep
	}
	if s, ok := first(d, id); ok {
		return s
	}
	if s, ok := second(d, id); ok {
		return s
	}
	return StepUserType
}
