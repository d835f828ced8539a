package adapter

import "lexbrief/internal/domain/model"

// Catalog serves the static lookup lists shown in the onboarding forms.
type Catalog interface {
	Countries() []model.Country
	Universities(countryCode string) []model.University
}
