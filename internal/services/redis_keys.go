package services

import "time"

const (
	KeyUserSession      = "user:%d:session:%s"
	KeyWallet           = "wallet:%d"
	KeyRound            = "round:%s"
	KeyBet              = "bet:%s"
	KeyRoundBets        = "round:%s:bets"
	KeyUserBets         = "user:%d:bets"
	KeyDuel             = "duel:%s"
	KeyUserDuels        = "user:%d:duels"
	KeyExchange         = "exchange:%s"
	KeyUserExchanges    = "user:%d:exchanges"
	KeyTransaction      = "transaction:%s"
	KeyUserTransactions = "user:%d:transactions"
	KeyRateLimit        = "ratelimit:%d:%s"
	KeyCrashCurrent     = "crash:current"

	// Pub/sub channel for state-change events consumed by the
	// websocket hubs of every API instance.
	EventsChannel = "arcade:events"

	TTLUserSession = 24 * time.Hour
	TTLRound       = 7 * 24 * time.Hour
	TTLBet         = 7 * 24 * time.Hour
	TTLTransaction = 30 * 24 * time.Hour

	DefaultRateLimitRounds   = 30 // rounds per minute
	DefaultRateLimitCashouts = 60 // crash cashouts per minute
)
