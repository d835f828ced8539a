//go:build !integration

package postgres

import (
	"errors"
	"fmt"
	"testing"

	"lexbrief/internal/domain"

	"github.com/jackc/pgconn"
)

func TestGetExecutor(t *testing.T) {
	t.Run("should reject nil tx without a pool", func(t *testing.T) {
		_, err := getExecutor(nil, nil)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("should reject foreign executor types", func(t *testing.T) {
		_, err := getExecutor(nil, "not-a-tx")
		if !errors.Is(err, domain.ErrInvalidExecContext) {
			t.Errorf("expected ErrInvalidExecContext, got %v", err)
		}
	})
}

func TestIsSerializationFailure(t *testing.T) {
	wrapped := fmt.Errorf("save user: %w", &pgconn.PgError{Code: "40001"})
	if !isSerializationFailure(wrapped) {
		t.Error("expected a wrapped 40001 to be retryable")
	}
	if isSerializationFailure(&pgconn.PgError{Code: "23505"}) {
		t.Error("unique violations must not be retried")
	}
	if isSerializationFailure(errors.New("boom")) || isSerializationFailure(nil) {
		t.Error("plain errors must not be retried")
	}
}
