package model

// Option is an {id, label} lookup entry.
type Option struct {
	ID    int    `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Country is a {name, code} lookup entry.
type Country struct {
	Name string `json:"name" yaml:"name"`
	Code string `json:"code" yaml:"code"`
}

type University struct {
	Name        string `json:"name" yaml:"name"`
	CountryCode string `json:"country_code" yaml:"country_code"`
}
