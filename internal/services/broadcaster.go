package services

import (
	"context"
	"encoding/json"

	"points-arcade-backend/internal/models"

	"go.uber.org/zap"
)

const (
	EventCrashTick      = "CRASH_TICK"
	EventCrashBust      = "CRASH_BUST"
	EventRoundSettled   = "ROUND_SETTLED"
	EventDuelUpdate     = "DUEL_UPDATE"
	EventExchangeUpdate = "EXCHANGE_UPDATE"
)

// Event is the wire form of a state-change notification. Events with a
// UserID are delivered only to that user's connections; the rest are
// broadcast.
type Event struct {
	Type    string                 `json:"type"`
	UserID  int64                  `json:"user_id,omitempty"`
	RoundID string                 `json:"round_id,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

type Broadcaster interface {
	BroadcastCrashTick(roundID string, multiplier float64)
	BroadcastCrashBust(roundID string, crashPoint float64)
	BroadcastRoundSettled(bet *models.Bet)
	BroadcastDuelUpdate(duel *models.Duel)
	BroadcastExchangeUpdate(exchange *models.Exchange)
}

// RedisBroadcaster publishes events on the shared pub/sub channel so
// every API instance's websocket hub can fan them out.
type RedisBroadcaster struct {
	rs  *RedisService
	log *zap.Logger
}

func NewRedisBroadcaster(rs *RedisService, log *zap.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{rs: rs, log: log}
}

func (b *RedisBroadcaster) publish(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		b.log.Error("failed to marshal event", zap.Error(err))
		return
	}

	if err := b.rs.PublishEvent(context.Background(), data); err != nil {
		b.log.Error("failed to publish event",
			zap.String("type", event.Type), zap.Error(err))
	}
}

func (b *RedisBroadcaster) BroadcastCrashTick(roundID string, multiplier float64) {
	b.publish(&Event{
		Type:    EventCrashTick,
		RoundID: roundID,
		Data:    map[string]interface{}{"multiplier": multiplier},
	})
}

func (b *RedisBroadcaster) BroadcastCrashBust(roundID string, crashPoint float64) {
	b.publish(&Event{
		Type:    EventCrashBust,
		RoundID: roundID,
		Data:    map[string]interface{}{"crash_point": crashPoint},
	})
}

func (b *RedisBroadcaster) BroadcastRoundSettled(bet *models.Bet) {
	b.publish(&Event{
		Type:    EventRoundSettled,
		UserID:  bet.UserID,
		RoundID: bet.RoundID,
		Data: map[string]interface{}{
			"bet_id":    bet.ID,
			"game_type": bet.GameType,
			"stake":     bet.Stake,
			"won":       bet.Won,
			"payout":    bet.Payout,
		},
	})
}

func (b *RedisBroadcaster) BroadcastDuelUpdate(duel *models.Duel) {
	for _, userID := range []int64{duel.ChallengerID, duel.OpponentID} {
		b.publish(&Event{
			Type:   EventDuelUpdate,
			UserID: userID,
			Data: map[string]interface{}{
				"duel_id":   duel.ID,
				"status":    duel.Status,
				"wager":     duel.Wager,
				"winner_id": duel.WinnerID,
			},
		})
	}
}

func (b *RedisBroadcaster) BroadcastExchangeUpdate(exchange *models.Exchange) {
	b.publish(&Event{
		Type:   EventExchangeUpdate,
		UserID: exchange.UserID,
		Data: map[string]interface{}{
			"exchange_id": exchange.ID,
			"status":      exchange.Status,
			"amount":      exchange.Amount,
		},
	})
}

// NopBroadcaster drops every event; used by tests.
type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastCrashTick(string, float64)       {}
func (NopBroadcaster) BroadcastCrashBust(string, float64)       {}
func (NopBroadcaster) BroadcastRoundSettled(*models.Bet)        {}
func (NopBroadcaster) BroadcastDuelUpdate(*models.Duel)         {}
func (NopBroadcaster) BroadcastExchangeUpdate(*models.Exchange) {}
