package adapter

import "context"

// VerificationNotice is what reviewers see when a lawyer finishes onboarding.
type VerificationNotice struct {
	UserID     string
	FullName   string
	Email      string
	CallNumber string
	Country    string
	Documents  map[string]string
}

// ReviewNotifier tells the review team about a new lawyer verification.
type ReviewNotifier interface {
	NotifyVerification(ctx context.Context, n VerificationNotice) error
}
