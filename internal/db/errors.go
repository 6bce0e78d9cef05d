package db

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Kind classifies a database error so callers can branch on what went
// wrong without matching on error message strings. Infrastructure
// failures (pool exhausted, connection lost) need different operator
// attention than a unique-key conflict or a missing row.
type Kind int

const (
	KindOther Kind = iota
	KindConflict
	KindNotFound
	KindInfrastructure
)

func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindInfrastructure:
		return "infrastructure"
	default:
		return "other"
	}
}

// Postgres error classes/codes we branch on.
const (
	codeUniqueViolation = "23505"
	classConnection     = "08"
	classResources      = "53"
	classOperator       = "57"
)

// Classify maps an error returned by pgx into a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindOther
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return KindNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation:
			return KindConflict
		case strings.HasPrefix(pgErr.Code, classConnection),
			strings.HasPrefix(pgErr.Code, classResources),
			strings.HasPrefix(pgErr.Code, classOperator):
			return KindInfrastructure
		}
		return KindOther
	}

	// Pool acquire timeouts and dead connections surface as context or
	// net errors rather than server-side SQLSTATEs.
	if errors.Is(err, context.DeadlineExceeded) {
		return KindInfrastructure
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindInfrastructure
	}
	if pgconn.Timeout(err) {
		return KindInfrastructure
	}

	return KindOther
}
