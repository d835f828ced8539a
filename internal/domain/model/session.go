package model

// Principal is the authenticated caller behind a request.
type Principal struct {
	UserID    string
	SessionID string
	Guest     bool
}

func (p *Principal) Authenticated() bool { return p != nil && p.UserID != "" }
