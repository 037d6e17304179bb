package models

type DuelStatus string

const (
	DuelStatusPending   DuelStatus = "pending"
	DuelStatusAccepted  DuelStatus = "accepted"
	DuelStatusCancelled DuelStatus = "cancelled"
	DuelStatusCompleted DuelStatus = "completed"
)

// Duel is a two-party wager. The challenger's wager is escrowed at
// creation, the opponent's at acceptance. Exactly one party collects
// both wagers on completion; cancellation refunds the challenger once.
type Duel struct {
	ID           string     `json:"id" redis:"id"`
	ChallengerID int64      `json:"challenger_id" redis:"challenger_id"`
	OpponentID   int64      `json:"opponent_id" redis:"opponent_id"`
	Wager        int64      `json:"wager" redis:"wager"`
	Status       DuelStatus `json:"status" redis:"status"`
	WinnerID     int64      `json:"winner_id,omitempty" redis:"winner_id"`

	CreatedAt   int64 `json:"created_at" redis:"created_at"`
	AcceptedAt  int64 `json:"accepted_at,omitempty" redis:"accepted_at"`
	CancelledAt int64 `json:"cancelled_at,omitempty" redis:"cancelled_at"`
	CompletedAt int64 `json:"completed_at,omitempty" redis:"completed_at"`
}
