package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapOrderItemError(t *testing.T) {
	fk := &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}
	err := mapOrderItemError(fmt.Errorf("insert: %w", fk), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for fk violation, got %v", err)
	}

	plain := errors.New("connection reset")
	err = mapOrderItemError(plain, 42)
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("unexpected ErrNotFound for %v", err)
	}
	if !errors.Is(err, plain) {
		t.Fatalf("original error not wrapped: %v", err)
	}
}
