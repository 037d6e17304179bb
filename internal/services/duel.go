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

// DuelService runs the two-party escrow protocol. Wagers are debited
// into escrow as each side commits; every transition is guarded on the
// stored status, so a race between two callers has exactly one winner
// and the loser sees ErrInvalidTransition with no balance change.
type DuelService struct {
	rs          *RedisService
	ledger      *Ledger
	broadcaster Broadcaster
	log         *zap.Logger
}

func NewDuelService(rs *RedisService, ledger *Ledger, broadcaster Broadcaster, log *zap.Logger) *DuelService {
	return &DuelService{
		rs:          rs,
		ledger:      ledger,
		broadcaster: broadcaster,
		log:         log,
	}
}

// Challenge escrows the challenger's wager and creates a pending duel.
func (s *DuelService) Challenge(ctx context.Context, challengerID int64, req *models.DuelChallengeRequest) (*models.Duel, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid challenge: %v", err)
	}
	if req.OpponentID == challengerID {
		return nil, fmt.Errorf("cannot duel yourself")
	}

	if _, err := s.rs.GetWallet(ctx, challengerID); err != nil {
		return nil, err
	}
	// Make sure the opponent's wallet exists before they are asked to
	// accept against it.
	if _, err := s.rs.GetWallet(ctx, req.OpponentID); err != nil {
		return nil, err
	}

	if _, err := s.ledger.Debit(ctx, challengerID, req.Wager); err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			metrics.LedgerFailures.WithLabelValues("insufficient_balance").Inc()
		}
		return nil, err
	}

	duel := &models.Duel{
		ID:           models.GenerateDuelID(),
		ChallengerID: challengerID,
		OpponentID:   req.OpponentID,
		Wager:        req.Wager,
		Status:       models.DuelStatusPending,
		CreatedAt:    time.Now().Unix(),
	}

	if err := s.rs.SaveDuel(ctx, duel); err != nil {
		// Escrow was taken but the duel record failed; give it back.
		if _, refundErr := s.ledger.Credit(ctx, challengerID, req.Wager); refundErr != nil {
			s.log.Error("failed to refund escrow after save failure",
				zap.Int64("user_id", challengerID),
				zap.Int64("wager", req.Wager),
				zap.Error(refundErr))
		}
		return nil, err
	}

	s.recordDuelTransaction(ctx, challengerID, models.TransactionTypeDuelStake, -req.Wager, duel.ID,
		fmt.Sprintf("Escrowed %d for duel against %d", req.Wager, req.OpponentID))

	metrics.DuelTransitions.WithLabelValues(string(models.DuelStatusPending)).Inc()
	s.broadcaster.BroadcastDuelUpdate(duel)

	return duel, nil
}

// Accept escrows the opponent's wager and moves the duel to accepted.
// The status guard and the debit are a single atomic step, so a
// concurrent double-accept rejects all but one caller.
func (s *DuelService) Accept(ctx context.Context, duelID string, opponentID int64) (*models.Duel, error) {
	duel, err := s.rs.GetDuel(ctx, duelID)
	if err != nil {
		return nil, err
	}
	if duel.OpponentID != opponentID {
		return nil, fmt.Errorf("user %d is not the challenged opponent", opponentID)
	}

	if _, err := s.rs.GetWallet(ctx, opponentID); err != nil {
		return nil, err
	}

	duelKey := fmt.Sprintf(KeyDuel, duelID)
	err = s.ledger.DebitWithGuard(ctx, duelKey,
		string(models.DuelStatusPending), string(models.DuelStatusAccepted), "accepted_at",
		opponentID, duel.Wager)
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			metrics.LedgerFailures.WithLabelValues("insufficient_balance").Inc()
		}
		return nil, err
	}

	s.recordDuelTransaction(ctx, opponentID, models.TransactionTypeDuelStake, -duel.Wager, duel.ID,
		fmt.Sprintf("Escrowed %d accepting duel from %d", duel.Wager, duel.ChallengerID))

	metrics.DuelTransitions.WithLabelValues(string(models.DuelStatusAccepted)).Inc()

	duel, err = s.rs.GetDuel(ctx, duelID)
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastDuelUpdate(duel)

	return duel, nil
}

// Decline cancels a pending duel and refunds the challenger's escrow
// exactly once. Challenger cancel and opponent decline are the same
// transition.
func (s *DuelService) Decline(ctx context.Context, duelID string, callerID int64) (*models.Duel, error) {
	duel, err := s.rs.GetDuel(ctx, duelID)
	if err != nil {
		return nil, err
	}
	if callerID != duel.ChallengerID && callerID != duel.OpponentID {
		return nil, fmt.Errorf("user %d is not part of this duel", callerID)
	}

	duelKey := fmt.Sprintf(KeyDuel, duelID)
	err = s.ledger.CreditWithGuard(ctx, duelKey,
		string(models.DuelStatusPending), string(models.DuelStatusCancelled), "cancelled_at",
		duel.ChallengerID, duel.Wager, "", 0)
	if err != nil {
		return nil, err
	}

	s.recordDuelTransaction(ctx, duel.ChallengerID, models.TransactionTypeDuelRefund, duel.Wager, duel.ID,
		fmt.Sprintf("Refunded %d from cancelled duel", duel.Wager))

	metrics.DuelTransitions.WithLabelValues(string(models.DuelStatusCancelled)).Inc()

	duel, err = s.rs.GetDuel(ctx, duelID)
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastDuelUpdate(duel)

	return duel, nil
}

// Resolve pays the full pot to the winner and completes the duel.
// Winner determination happens in gameplay outside this service; only
// the settlement lives here.
func (s *DuelService) Resolve(ctx context.Context, duelID string, callerID, winnerID int64) (*models.Duel, error) {
	duel, err := s.rs.GetDuel(ctx, duelID)
	if err != nil {
		return nil, err
	}
	if callerID != duel.ChallengerID && callerID != duel.OpponentID {
		return nil, fmt.Errorf("user %d is not part of this duel", callerID)
	}
	if winnerID != duel.ChallengerID && winnerID != duel.OpponentID {
		return nil, fmt.Errorf("winner %d is not part of this duel", winnerID)
	}

	duelKey := fmt.Sprintf(KeyDuel, duelID)
	err = s.ledger.CreditWithGuard(ctx, duelKey,
		string(models.DuelStatusAccepted), string(models.DuelStatusCompleted), "completed_at",
		winnerID, 2*duel.Wager, "winner_id", winnerID)
	if err != nil {
		return nil, err
	}

	s.recordDuelTransaction(ctx, winnerID, models.TransactionTypeDuelPayout, 2*duel.Wager, duel.ID,
		fmt.Sprintf("Won duel pot of %d", 2*duel.Wager))

	metrics.DuelTransitions.WithLabelValues(string(models.DuelStatusCompleted)).Inc()

	duel, err = s.rs.GetDuel(ctx, duelID)
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastDuelUpdate(duel)

	return duel, nil
}

func (s *DuelService) GetDuel(ctx context.Context, duelID string) (*models.Duel, error) {
	return s.rs.GetDuel(ctx, duelID)
}

func (s *DuelService) ListUserDuels(ctx context.Context, userID int64, limit int64) ([]*models.Duel, error) {
	return s.rs.GetUserDuels(ctx, userID, limit)
}

func (s *DuelService) recordDuelTransaction(ctx context.Context, userID int64, txType models.TransactionType, amount int64, duelID, description string) {
	tx := &models.Transaction{
		ID:          models.GenerateTransactionID(),
		UserID:      userID,
		Type:        txType,
		Amount:      amount,
		RefID:       duelID,
		Description: description,
		CreatedAt:   time.Now(),
	}
	if err := s.rs.SaveTransaction(ctx, tx); err != nil {
		s.log.Error("failed to record duel transaction",
			zap.String("duel_id", duelID), zap.Error(err))
	}
}
