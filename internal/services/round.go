package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"points-arcade-backend/internal/metrics"
	"points-arcade-backend/internal/models"

	"go.uber.org/zap"
)

var errRoundInProgress = errors.New("crash round already live")

// RoundService orchestrates outcome generation, payout evaluation and
// ledger settlement for game rounds. Instant games settle in one call;
// crash rounds run as a communal live round that players settle
// against via cashout.
type RoundService struct {
	rs          *RedisService
	ledger      *Ledger
	source      OutcomeSource
	broadcaster Broadcaster
	log         *zap.Logger

	tickInterval time.Duration
	intermission time.Duration

	mu      sync.Mutex
	current *crashRound
}

type crashRound struct {
	round *models.Round
	stop  chan struct{}
	done  chan struct{}
}

func NewRoundService(rs *RedisService, ledger *Ledger, source OutcomeSource, broadcaster Broadcaster, log *zap.Logger, tickInterval, intermission time.Duration) *RoundService {
	return &RoundService{
		rs:           rs,
		ledger:       ledger,
		source:       source,
		broadcaster:  broadcaster,
		log:          log,
		tickInterval: tickInterval,
		intermission: intermission,
	}
}

// PlayInstantRound settles a wheel, lottery or mirror wager as one
// unit: draw, evaluate, then stake debit and payout credit in a single
// ledger step. A failed draw touches nothing; a short balance leaves
// the wallet untouched and the drawn outcome is discarded unseen.
func (s *RoundService) PlayInstantRound(ctx context.Context, userID int64, req *models.PlayRoundRequest) (*models.Round, *models.Bet, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid round request: %v", err)
	}

	if _, err := s.rs.GetWallet(ctx, userID); err != nil {
		return nil, nil, err
	}

	now := time.Now().Unix()
	round := &models.Round{
		ID:        models.GenerateRoundID(),
		GameType:  req.GameType,
		Status:    models.RoundStatusSettled,
		CreatedAt: now,
		EndedAt:   now,
	}

	if err := s.drawOutcome(round); err != nil {
		s.log.Error("outcome generation failure",
			zap.String("game_type", string(req.GameType)),
			zap.Error(err))
		return nil, nil, ErrGenerationFailure
	}

	won, payout := s.evaluate(round, req.Stake, req.Selection)

	if _, err := s.ledger.SettleWager(ctx, userID, req.Stake, payout); err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			metrics.LedgerFailures.WithLabelValues("insufficient_balance").Inc()
		}
		return nil, nil, err
	}

	bet := &models.Bet{
		ID:        models.GenerateBetID(),
		UserID:    userID,
		RoundID:   round.ID,
		GameType:  req.GameType,
		Stake:     req.Stake,
		Selection: req.Selection,
		Status:    models.BetStatusSettled,
		Won:       won,
		Payout:    payout,
		CreatedAt: now,
		SettledAt: now,
	}

	if err := s.rs.SaveRound(ctx, round); err != nil {
		return nil, nil, err
	}
	if err := s.rs.SaveBet(ctx, bet); err != nil {
		return nil, nil, err
	}

	s.recordSettlement(ctx, bet)
	s.broadcaster.BroadcastRoundSettled(bet)

	return round, bet, nil
}

func (s *RoundService) drawOutcome(round *models.Round) error {
	switch round.GameType {
	case models.GameTypeWheel:
		tile := s.source.WheelTile()
		if tile < 0 || tile >= models.WheelTileCount {
			return fmt.Errorf("wheel tile out of range: %d", tile)
		}
		round.Tile = tile
		round.Color = models.ColorForTile(tile)

	case models.GameTypeLottery:
		numbers := s.source.LotteryNumbers()
		if len(numbers) != models.LotteryPickCount {
			return fmt.Errorf("lottery drew %d numbers", len(numbers))
		}
		seen := make(map[int]bool, len(numbers))
		for _, n := range numbers {
			if n < 1 || n > models.LotteryMaxNumber || seen[n] {
				return fmt.Errorf("invalid lottery number: %d", n)
			}
			seen[n] = true
		}
		round.Numbers = numbers

	case models.GameTypeMirror:
		index := s.source.MirrorIndex()
		if index < 0 || index >= models.MirrorCount {
			return fmt.Errorf("mirror index out of range: %d", index)
		}
		round.WinningIndex = index

	default:
		return fmt.Errorf("unsupported instant game: %s", round.GameType)
	}

	return nil
}

func (s *RoundService) evaluate(round *models.Round, stake int64, selection models.Selection) (bool, int64) {
	switch round.GameType {
	case models.GameTypeWheel:
		return EvaluateWheel(stake, selection.Color, round.Color)
	case models.GameTypeLottery:
		return EvaluateLottery(stake, selection.Picks, round.Numbers)
	case models.GameTypeMirror:
		return EvaluateMirror(stake, selection.Index, round.WinningIndex)
	}
	return false, 0
}

// StartCrashRound fixes the hidden crash point, claims the communal
// round slot and starts the live multiplier loop. The crash point is
// never sent to clients until the round busts.
func (s *RoundService) StartCrashRound(ctx context.Context) (*models.Round, error) {
	crashPoint := s.source.CrashPoint()
	if crashPoint < models.CrashMinPoint || crashPoint > models.CrashMaxPoint {
		s.log.Error("crash point out of range", zap.Float64("crash_point", crashPoint))
		return nil, ErrGenerationFailure
	}

	now := time.Now().Unix()
	round := &models.Round{
		ID:         models.GenerateRoundID(),
		GameType:   models.GameTypeCrash,
		Status:     models.RoundStatusLive,
		CrashPoint: crashPoint,
		Multiplier: 1.00,
		CreatedAt:  now,
	}

	claimed, err := s.rs.ClaimCrashRound(ctx, round.ID, 30*time.Minute)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, errRoundInProgress
	}

	if err := s.rs.SaveRound(ctx, round); err != nil {
		s.rs.ReleaseCrashRound(ctx, round.ID)
		return nil, err
	}

	cr := &crashRound{
		round: round,
		stop:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}

	s.mu.Lock()
	s.current = cr
	s.mu.Unlock()

	go s.runCrashRound(cr)

	return round, nil
}

func (s *RoundService) runCrashRound(cr *crashRound) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	defer close(cr.done)

	ctx := context.Background()
	round := cr.round

	for {
		select {
		case <-ticker.C:
			round.Multiplier = math.Round(round.Multiplier*100+1) / 100

			if round.Multiplier >= round.CrashPoint {
				s.bust(ctx, cr)
				return
			}

			if err := s.rs.SaveRound(ctx, round); err != nil {
				s.log.Error("failed to persist crash tick", zap.Error(err))
			}
			s.broadcaster.BroadcastCrashTick(round.ID, round.Multiplier)

		case <-cr.stop:
			s.bust(ctx, cr)
			return
		}
	}
}

func (s *RoundService) bust(ctx context.Context, cr *crashRound) {
	round := cr.round
	round.Status = models.RoundStatusBusted
	round.Multiplier = round.CrashPoint
	round.EndedAt = time.Now().Unix()

	if err := s.rs.SaveRound(ctx, round); err != nil {
		s.log.Error("failed to persist busted round", zap.Error(err))
	}
	if err := s.rs.ReleaseCrashRound(ctx, round.ID); err != nil {
		s.log.Error("failed to release crash round claim", zap.Error(err))
	}

	s.mu.Lock()
	if s.current == cr {
		s.current = nil
	}
	s.mu.Unlock()

	s.broadcaster.BroadcastCrashBust(round.ID, round.CrashPoint)
}

// CashOut places and settles a crash wager in one step. The stake is
// debited against the live round and wins only if the hidden crash
// point strictly exceeds the requested target; the round busting first
// yields ErrTooLate with no balance change.
func (s *RoundService) CashOut(ctx context.Context, userID int64, req *models.CrashCashoutRequest) (*models.Bet, int64, error) {
	if err := req.Validate(); err != nil {
		return nil, 0, fmt.Errorf("invalid cashout request: %v", err)
	}

	round, err := s.rs.GetRound(ctx, req.RoundID)
	if err != nil {
		return nil, 0, err
	}
	if round.GameType != models.GameTypeCrash {
		return nil, 0, fmt.Errorf("round %s is not a crash round", round.ID)
	}
	if round.Status != models.RoundStatusLive {
		return nil, 0, ErrTooLate
	}

	if _, err := s.rs.GetWallet(ctx, userID); err != nil {
		return nil, 0, err
	}

	won, payout := EvaluateCrash(req.Stake, req.TargetMultiplier, round.CrashPoint)

	roundKey := fmt.Sprintf(KeyRound, round.ID)
	balance, err := s.ledger.WagerWithGuard(ctx, roundKey, string(models.RoundStatusLive), userID, req.Stake, payout)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			// Lost the race against the bust.
			return nil, 0, ErrTooLate
		}
		if errors.Is(err, ErrInsufficientBalance) {
			metrics.LedgerFailures.WithLabelValues("insufficient_balance").Inc()
		}
		return nil, 0, err
	}

	now := time.Now().Unix()
	bet := &models.Bet{
		ID:       models.GenerateBetID(),
		UserID:   userID,
		RoundID:  round.ID,
		GameType: models.GameTypeCrash,
		Stake:    req.Stake,
		Selection: models.Selection{
			TargetMultiplier: req.TargetMultiplier,
		},
		Status:    models.BetStatusSettled,
		Won:       won,
		Payout:    payout,
		CreatedAt: now,
		SettledAt: now,
	}

	if err := s.rs.SaveBet(ctx, bet); err != nil {
		return nil, 0, err
	}

	s.recordSettlement(ctx, bet)
	s.broadcaster.BroadcastRoundSettled(bet)

	return bet, balance, nil
}

// CurrentCrashRound returns the live communal round, if any.
func (s *RoundService) CurrentCrashRound(ctx context.Context) (*models.Round, error) {
	roundID, err := s.rs.CurrentCrashRoundID(ctx)
	if err != nil {
		return nil, err
	}
	return s.rs.GetRound(ctx, roundID)
}

// Run keeps communal crash rounds going: claim, play out, pause,
// repeat. Instances that lose the claim just wait for the next slot.
func (s *RoundService) Run(ctx context.Context) {
	for {
		round, err := s.StartCrashRound(ctx)
		if err != nil && !errors.Is(err, errRoundInProgress) {
			s.log.Error("failed to start crash round", zap.Error(err))
		}

		if round != nil {
			s.mu.Lock()
			cr := s.current
			s.mu.Unlock()

			if cr != nil {
				select {
				case <-cr.done:
				case <-ctx.Done():
					return
				}
			}
		}

		select {
		case <-time.After(s.intermission):
		case <-ctx.Done():
			return
		}
	}
}

// CleanupStaleRounds force-busts a live round that has outlived maxAge,
// protecting against a wedged loop holding the communal slot forever.
func (s *RoundService) CleanupStaleRounds(maxAge time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}

	started := time.Unix(s.current.round.CreatedAt, 0)
	if time.Since(started) > maxAge {
		select {
		case s.current.stop <- struct{}{}:
		default:
		}
	}
}

func (s *RoundService) recordSettlement(ctx context.Context, bet *models.Bet) {
	metrics.RoundsPlayed.WithLabelValues(string(bet.GameType), resultLabel(bet.Won)).Inc()
	metrics.PointsWagered.WithLabelValues(string(bet.GameType)).Add(float64(bet.Stake))

	tx := &models.Transaction{
		ID:          models.GenerateTransactionID(),
		UserID:      bet.UserID,
		Type:        models.TransactionTypeBet,
		Amount:      -bet.Stake,
		RefID:       bet.ID,
		Description: fmt.Sprintf("Staked %d on %s", bet.Stake, bet.GameType),
		CreatedAt:   time.Now(),
	}
	if err := s.rs.SaveTransaction(ctx, tx); err != nil {
		s.log.Error("failed to record bet transaction", zap.Error(err))
	}

	if !bet.Won {
		return
	}

	metrics.PointsPaidOut.WithLabelValues(string(bet.GameType)).Add(float64(bet.Payout))

	winTx := &models.Transaction{
		ID:          models.GenerateTransactionID(),
		UserID:      bet.UserID,
		Type:        models.TransactionTypeWin,
		Amount:      bet.Payout,
		RefID:       bet.ID,
		Description: fmt.Sprintf("Won %d on %s", bet.Payout, bet.GameType),
		CreatedAt:   time.Now(),
	}
	if err := s.rs.SaveTransaction(ctx, winTx); err != nil {
		s.log.Error("failed to record win transaction", zap.Error(err))
	}
}

func resultLabel(won bool) string {
	if won {
		return "won"
	}
	return "lost"
}
