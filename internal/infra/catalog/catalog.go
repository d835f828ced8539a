package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"lexbrief/internal/domain/model"
	"lexbrief/internal/domain/ports/adapter"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

var _ adapter.Catalog = (*Catalog)(nil)

// Catalog serves the country and university lists bundled with the binary.
type Catalog struct {
	countries    []model.Country
	universities []model.University
}

func Load() (*Catalog, error) { return LoadFS(dataFS) }

// LoadFS reads data/countries.yaml and data/universities.yaml from fsys.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	var c Catalog
	if err := decode(fsys, "data/countries.yaml", &c.countries); err != nil {
		return nil, err
	}
	if err := decode(fsys, "data/universities.yaml", &c.universities); err != nil {
		return nil, err
	}
	for i := range c.countries {
		c.countries[i].Code = strings.ToUpper(c.countries[i].Code)
	}
	sort.Slice(c.countries, func(i, j int) bool { return c.countries[i].Name < c.countries[j].Name })
	sort.Slice(c.universities, func(i, j int) bool { return c.universities[i].Name < c.universities[j].Name })
	return &c, nil
}

func decode(fsys fs.FS, path string, into any) error {
	b, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, into); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Catalog) Countries() []model.Country {
	return append([]model.Country(nil), c.countries...)
}

// Universities filters by country code; an empty code returns everything.
func (c *Catalog) Universities(countryCode string) []model.University {
	code := strings.ToUpper(strings.TrimSpace(countryCode))
	var out []model.University
	for _, u := range c.universities {
		if code == "" || u.CountryCode == code {
			out = append(out, u)
		}
	}
	return out
}
