package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"points-arcade-backend/internal/metrics"
	"points-arcade-backend/internal/models"

	"go.uber.org/zap"
)

// ExchangeService handles point-to-currency redemption. The amount is
// reserved (debited) at request time; cancellation restores it exactly
// once, completion never touches the balance again.
type ExchangeService struct {
	rs          *RedisService
	ledger      *Ledger
	broadcaster Broadcaster
	log         *zap.Logger
}

func NewExchangeService(rs *RedisService, ledger *Ledger, broadcaster Broadcaster, log *zap.Logger) *ExchangeService {
	return &ExchangeService{
		rs:          rs,
		ledger:      ledger,
		broadcaster: broadcaster,
		log:         log,
	}
}

// Request reserves the amount and creates a pending exchange.
func (s *ExchangeService) Request(ctx context.Context, userID int64, req *models.ExchangeRequest) (*models.Exchange, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid exchange request: %v", err)
	}

	if _, err := s.rs.GetWallet(ctx, userID); err != nil {
		return nil, err
	}

	if _, err := s.ledger.Debit(ctx, userID, req.Amount); err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			metrics.LedgerFailures.WithLabelValues("insufficient_balance").Inc()
		}
		return nil, err
	}

	exchange := &models.Exchange{
		ID:          models.GenerateExchangeID(),
		UserID:      userID,
		Amount:      req.Amount,
		Status:      models.ExchangeStatusPending,
		PhoneNumber: req.PhoneNumber,
		CreatedAt:   time.Now().Unix(),
	}

	if err := s.rs.SaveExchange(ctx, exchange); err != nil {
		if _, refundErr := s.ledger.Credit(ctx, userID, req.Amount); refundErr != nil {
			s.log.Error("failed to refund reservation after save failure",
				zap.Int64("user_id", userID),
				zap.Int64("amount", req.Amount),
				zap.Error(refundErr))
		}
		return nil, err
	}

	s.recordExchangeTransaction(ctx, userID, models.TransactionTypeExchangeReserve, -req.Amount, exchange.ID,
		fmt.Sprintf("Reserved %d points for exchange", req.Amount))

	metrics.ExchangeTransitions.WithLabelValues(string(models.ExchangeStatusPending)).Inc()
	s.broadcaster.BroadcastExchangeUpdate(exchange)

	return exchange, nil
}

// Cancel refunds a pending exchange exactly once. A second cancel hits
// the status guard and fails with ErrInvalidTransition, so the amount
// can never be credited twice.
func (s *ExchangeService) Cancel(ctx context.Context, exchangeID string, callerID int64) (*models.Exchange, error) {
	exchange, err := s.rs.GetExchange(ctx, exchangeID)
	if err != nil {
		return nil, err
	}
	if exchange.UserID != callerID {
		return nil, fmt.Errorf("user %d does not own this exchange", callerID)
	}

	exchangeKey := fmt.Sprintf(KeyExchange, exchangeID)
	err = s.ledger.CreditWithGuard(ctx, exchangeKey,
		string(models.ExchangeStatusPending), string(models.ExchangeStatusCancelled), "cancelled_at",
		exchange.UserID, exchange.Amount, "", 0)
	if err != nil {
		return nil, err
	}

	s.recordExchangeTransaction(ctx, exchange.UserID, models.TransactionTypeExchangeRefund, exchange.Amount, exchange.ID,
		fmt.Sprintf("Refunded %d points from cancelled exchange", exchange.Amount))

	metrics.ExchangeTransitions.WithLabelValues(string(models.ExchangeStatusCancelled)).Inc()

	exchange, err = s.rs.GetExchange(ctx, exchangeID)
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastExchangeUpdate(exchange)

	return exchange, nil
}

// Complete marks a pending exchange fulfilled. The points already left
// circulation at request time, so this is a pure status transition.
// Only the owner may complete; a completed exchange can no longer be
// cancelled, so letting anyone flip it would destroy the refund path.
func (s *ExchangeService) Complete(ctx context.Context, exchangeID string, callerID int64) (*models.Exchange, error) {
	exchange, err := s.rs.GetExchange(ctx, exchangeID)
	if err != nil {
		return nil, err
	}
	if exchange.UserID != callerID {
		return nil, fmt.Errorf("user %d does not own this exchange", callerID)
	}

	exchangeKey := fmt.Sprintf(KeyExchange, exchangeID)
	err = s.rs.TransitionStatus(ctx, exchangeKey,
		string(models.ExchangeStatusPending), string(models.ExchangeStatusCompleted), "completed_at")
	if err != nil {
		return nil, err
	}

	metrics.ExchangeTransitions.WithLabelValues(string(models.ExchangeStatusCompleted)).Inc()

	exchange, err = s.rs.GetExchange(ctx, exchangeID)
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastExchangeUpdate(exchange)

	return exchange, nil
}

func (s *ExchangeService) GetExchange(ctx context.Context, exchangeID string) (*models.Exchange, error) {
	return s.rs.GetExchange(ctx, exchangeID)
}

func (s *ExchangeService) ListUserExchanges(ctx context.Context, userID int64, limit int64) ([]*models.Exchange, error) {
	return s.rs.GetUserExchanges(ctx, userID, limit)
}

func (s *ExchangeService) recordExchangeTransaction(ctx context.Context, userID int64, txType models.TransactionType, amount int64, exchangeID, description string) {
	tx := &models.Transaction{
		ID:          models.GenerateTransactionID(),
		UserID:      userID,
		Type:        txType,
		Amount:      amount,
		RefID:       exchangeID,
		Description: description,
		CreatedAt:   time.Now(),
	}
	if err := s.rs.SaveTransaction(ctx, tx); err != nil {
		s.log.Error("failed to record exchange transaction",
			zap.String("exchange_id", exchangeID), zap.Error(err))
	}
}
