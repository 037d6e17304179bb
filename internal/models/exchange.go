package models

type ExchangeStatus string

const (
	ExchangeStatusPending   ExchangeStatus = "pending"
	ExchangeStatusCompleted ExchangeStatus = "completed"
	ExchangeStatusCancelled ExchangeStatus = "cancelled"
)

// Exchange is a request to convert points to off-platform credit. The
// amount is debited at request time; a pending exchange holds it out of
// circulation until completion (no further ledger effect) or
// cancellation (refunded exactly once).
type Exchange struct {
	ID          string         `json:"id" redis:"id"`
	UserID      int64          `json:"user_id" redis:"user_id"`
	Amount      int64          `json:"amount" redis:"amount"`
	Status      ExchangeStatus `json:"status" redis:"status"`
	PhoneNumber string         `json:"phone_number" redis:"phone_number"`

	CreatedAt   int64 `json:"created_at" redis:"created_at"`
	CompletedAt int64 `json:"completed_at,omitempty" redis:"completed_at"`
	CancelledAt int64 `json:"cancelled_at,omitempty" redis:"cancelled_at"`
}
