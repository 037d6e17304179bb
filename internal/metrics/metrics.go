package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoundsPlayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arcade_rounds_played_total",
		Help: "Settled rounds by game type and result.",
	}, []string{"game_type", "result"})

	PointsWagered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arcade_points_wagered_total",
		Help: "Points staked by game type.",
	}, []string{"game_type"})

	PointsPaidOut = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arcade_points_paid_out_total",
		Help: "Points credited as winnings by game type.",
	}, []string{"game_type"})

	DuelTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arcade_duel_transitions_total",
		Help: "Duel state transitions by target state.",
	}, []string{"status"})

	ExchangeTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arcade_exchange_transitions_total",
		Help: "Exchange state transitions by target state.",
	}, []string{"status"})

	LedgerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arcade_ledger_failures_total",
		Help: "Declined ledger operations by reason.",
	}, []string{"reason"})
)
