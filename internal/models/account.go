package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is one connected mailbox. GrantID is the sync provider's
// identifier for the authorized connection and is what inbound webhook
// events carry to reference the account.
type Account struct {
	ID        uuid.UUID `db:"id"`
	GrantID   string    `db:"grant_id"`
	Email     string    `db:"email"`
	Provider  string    `db:"provider"`
	CreatedAt time.Time `db:"created_at"`
}
