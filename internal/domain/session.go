package domain

import "time"

// UserSession is the durable record for one authenticated user, keyed by an
// unguessable id under session:<id>. The phone number, not the session id, is
// the identity the voting ledger keys on. Lifetime is fixed at 30 days from
// creation and is never extended by use.
type UserSession struct {
	SessionID  string    `json:"id"`
	Phone      string    `json:"phone"`
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
