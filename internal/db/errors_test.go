package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindOther},
		{"no rows", pgx.ErrNoRows, KindNotFound},
		{"wrapped no rows", fmt.Errorf("lookup account: %w", pgx.ErrNoRows), KindNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, KindConflict},
		{"too many connections", &pgconn.PgError{Code: "53300"}, KindInfrastructure},
		{"connection failure", &pgconn.PgError{Code: "08006"}, KindInfrastructure},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, KindInfrastructure},
		{"syntax error", &pgconn.PgError{Code: "42601"}, KindOther},
		{"deadline", context.DeadlineExceeded, KindInfrastructure},
		{"net error", &net.OpError{Op: "dial", Err: errors.New("refused")}, KindInfrastructure},
		{"plain error", errors.New("boom"), KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Fatalf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if KindConflict.String() != "conflict" || KindInfrastructure.String() != "infrastructure" {
		t.Fatalf("unexpected kind strings: %s, %s", KindConflict, KindInfrastructure)
	}
}
