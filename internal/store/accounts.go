package store

import (
	"context"

	"github.com/cloudpost/mailmirror/internal/db"
	"github.com/cloudpost/mailmirror/internal/models"
)

// Accounts reads the accounts table. Webhook processing never mutates
// accounts; it only resolves routing.
type Accounts struct{}

func NewAccounts() *Accounts {
	return &Accounts{}
}

func (a *Accounts) GetByGrantID(ctx context.Context, grantID string) (models.Account, error) {
	query := `SELECT id, grant_id, email, provider, created_at
		FROM accounts WHERE grant_id = $1`

	var account models.Account
	err := db.Pool.QueryRow(ctx, query, grantID).Scan(
		&account.ID,
		&account.GrantID,
		&account.Email,
		&account.Provider,
		&account.CreatedAt,
	)

	return account, err
}
