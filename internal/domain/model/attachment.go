package model

import "time"

// DocumentKind identifies a lawyer verification document.
type DocumentKind string

const (
	DocumentIdentity          DocumentKind = "identity"
	DocumentCallToBar         DocumentKind = "call_to_bar"
	DocumentPractisingLicense DocumentKind = "practising_license"
	DocumentCV                DocumentKind = "cv"
)

func (k DocumentKind) Valid() bool {
	switch k {
	case DocumentIdentity, DocumentCallToBar, DocumentPractisingLicense, DocumentCV:
		return true
	}
	return false
}

// Attachment is an uploaded file held for the lifetime of one login session only.
type Attachment struct {
	Kind        DocumentKind
	FileName    string
	ContentType string
	Data        []byte
	AttachedAt  time.Time
}

func (a Attachment) Size() int64 { return int64(len(a.Data)) }
