package models

import "time"

// Wallet holds a user's point balance. Balances are whole points only;
// every mutation goes through the ledger scripts, never direct writes.
type Wallet struct {
	UserID       int64 `json:"user_id" redis:"user_id"`
	Balance      int64 `json:"balance" redis:"balance"`
	TotalWagered int64 `json:"total_wagered" redis:"total_wagered"`
	TotalWon     int64 `json:"total_won" redis:"total_won"`
}

type TransactionType string

const (
	TransactionTypeBet             TransactionType = "bet"
	TransactionTypeWin             TransactionType = "win"
	TransactionTypeDuelStake       TransactionType = "duel_stake"
	TransactionTypeDuelPayout      TransactionType = "duel_payout"
	TransactionTypeDuelRefund      TransactionType = "duel_refund"
	TransactionTypeExchangeReserve TransactionType = "exchange_reserve"
	TransactionTypeExchangeRefund  TransactionType = "exchange_refund"
)

type Transaction struct {
	ID          string          `json:"id" redis:"id"`
	UserID      int64           `json:"user_id" redis:"user_id"`
	Type        TransactionType `json:"type" redis:"type"`
	Amount      int64           `json:"amount" redis:"amount"`
	RefID       string          `json:"ref_id,omitempty" redis:"ref_id"`
	Description string          `json:"description" redis:"description"`
	CreatedAt   time.Time       `json:"created_at" redis:"created_at"`
}

type BalanceResponse struct {
	Balance      int64 `json:"balance"`
	TotalWagered int64 `json:"total_wagered"`
	TotalWon     int64 `json:"total_won"`
}
