package usecase

import (
	"context"
	"strings"

	"lexbrief/internal/domain/model"
	"lexbrief/internal/domain/ports/adapter"
	"lexbrief/internal/domain/ports/repository"
	"lexbrief/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ LookupUseCase = (*lookupUC)(nil)

// LookupUseCase serves the read-only option lists shown in the onboarding forms.
type LookupUseCase interface {
	Countries(ctx context.Context) []model.Country
	Universities(ctx context.Context, countryCode string) []model.University
	Expertise(ctx context.Context) ([]model.Option, error)
	// UnknownExpertise returns the ids that are not known expertise areas.
	UnknownExpertise(ctx context.Context, ids []int) ([]int, error)
}

type lookupUC struct {
	catalog   adapter.Catalog
	expertise repository.ExpertiseRepository
	log       *zerolog.Logger
}

func NewLookupUseCase(catalog adapter.Catalog, expertise repository.ExpertiseRepository, logger *zerolog.Logger) *lookupUC {
	return &lookupUC{catalog: catalog, expertise: expertise, log: logger}
}

func (u *lookupUC) Countries(context.Context) []model.Country {
	return u.catalog.Countries()
}

func (u *lookupUC) Universities(_ context.Context, countryCode string) []model.University {
	return u.catalog.Universities(strings.ToUpper(strings.TrimSpace(countryCode)))
}

func (u *lookupUC) Expertise(ctx context.Context) ([]model.Option, error) {
	defer logging.TraceDuration(u.log, "LookupUC.Expertise")()
	return u.expertise.List(ctx, repository.NoTX)
}

func (u *lookupUC) UnknownExpertise(ctx context.Context, ids []int) ([]int, error) {
	opts, err := u.Expertise(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[int]struct{}, len(opts))
	for _, o := range opts {
		known[o.ID] = struct{}{}
	}
	var unknown []int
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	return unknown, nil
}
