package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"points-arcade-backend/internal/models"
	"points-arcade-backend/internal/services"
)

func newTestDuelService(t *testing.T) (*services.RedisService, *services.DuelService) {
	t.Helper()

	redisService := setupTestRedis(t)
	ledger := services.NewLedger(redisService)
	duelService := services.NewDuelService(redisService, ledger, services.NopBroadcaster{}, zap.NewNop())

	return redisService, duelService
}

func TestDuelLifecycle(t *testing.T) {
	redisService, duelService := newTestDuelService(t)
	defer redisService.Close()

	ctx := context.Background()
	challengerID := int64(930001)
	opponentID := int64(930002)

	redisService.DeleteWallet(ctx, challengerID)
	redisService.DeleteWallet(ctx, opponentID)
	defer redisService.DeleteWallet(ctx, challengerID)
	defer redisService.DeleteWallet(ctx, opponentID)

	duel, err := duelService.Challenge(ctx, challengerID, &models.DuelChallengeRequest{
		OpponentID: opponentID,
		Wager:      200,
	})
	if err != nil {
		t.Fatalf("Failed to challenge: %v", err)
	}
	defer redisService.DeleteDuel(ctx, duel.ID)

	if duel.Status != models.DuelStatusPending {
		t.Errorf("Expected pending duel, got %s", duel.Status)
	}

	wallet, _ := redisService.GetWallet(ctx, challengerID)
	if wallet.Balance != 800 {
		t.Errorf("Expected challenger balance 800 after escrow, got %d", wallet.Balance)
	}

	// Only the challenged opponent may accept.
	if _, err := duelService.Accept(ctx, duel.ID, challengerID); err == nil {
		t.Error("Challenger accepting their own duel should fail")
	}

	duel, err = duelService.Accept(ctx, duel.ID, opponentID)
	if err != nil {
		t.Fatalf("Failed to accept: %v", err)
	}
	if duel.Status != models.DuelStatusAccepted {
		t.Errorf("Expected accepted duel, got %s", duel.Status)
	}
	if duel.AcceptedAt == 0 {
		t.Error("Accepted duel should have accepted_at set")
	}

	wallet, _ = redisService.GetWallet(ctx, opponentID)
	if wallet.Balance != 800 {
		t.Errorf("Expected opponent balance 800 after escrow, got %d", wallet.Balance)
	}

	duel, err = duelService.Resolve(ctx, duel.ID, challengerID, opponentID)
	if err != nil {
		t.Fatalf("Failed to resolve: %v", err)
	}
	if duel.Status != models.DuelStatusCompleted {
		t.Errorf("Expected completed duel, got %s", duel.Status)
	}
	if duel.WinnerID != opponentID {
		t.Errorf("Expected winner %d, got %d", opponentID, duel.WinnerID)
	}

	wallet, _ = redisService.GetWallet(ctx, opponentID)
	if wallet.Balance != 1200 {
		t.Errorf("Expected winner balance 1200 (800 + pot 400), got %d", wallet.Balance)
	}

	// The pot pays out exactly once.
	_, err = duelService.Resolve(ctx, duel.ID, challengerID, opponentID)
	if !errors.Is(err, services.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition on second resolve, got %v", err)
	}

	wallet, _ = redisService.GetWallet(ctx, opponentID)
	if wallet.Balance != 1200 {
		t.Errorf("Second resolve changed balance: %d", wallet.Balance)
	}
}

func TestDuelDeclineRefundsOnce(t *testing.T) {
	redisService, duelService := newTestDuelService(t)
	defer redisService.Close()

	ctx := context.Background()
	challengerID := int64(930003)
	opponentID := int64(930004)

	redisService.DeleteWallet(ctx, challengerID)
	redisService.DeleteWallet(ctx, opponentID)
	defer redisService.DeleteWallet(ctx, challengerID)
	defer redisService.DeleteWallet(ctx, opponentID)

	duel, err := duelService.Challenge(ctx, challengerID, &models.DuelChallengeRequest{
		OpponentID: opponentID,
		Wager:      300,
	})
	if err != nil {
		t.Fatalf("Failed to challenge: %v", err)
	}
	defer redisService.DeleteDuel(ctx, duel.ID)

	wallet, _ := redisService.GetWallet(ctx, challengerID)
	if wallet.Balance != 700 {
		t.Fatalf("Expected challenger balance 700, got %d", wallet.Balance)
	}

	duel, err = duelService.Decline(ctx, duel.ID, opponentID)
	if err != nil {
		t.Fatalf("Failed to decline: %v", err)
	}
	if duel.Status != models.DuelStatusCancelled {
		t.Errorf("Expected cancelled duel, got %s", duel.Status)
	}

	wallet, _ = redisService.GetWallet(ctx, challengerID)
	if wallet.Balance != 1000 {
		t.Errorf("Expected escrow refunded to 1000, got %d", wallet.Balance)
	}

	_, err = duelService.Decline(ctx, duel.ID, opponentID)
	if !errors.Is(err, services.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition on second decline, got %v", err)
	}

	wallet, _ = redisService.GetWallet(ctx, challengerID)
	if wallet.Balance != 1000 {
		t.Errorf("Second decline changed balance: %d", wallet.Balance)
	}
}

func TestDuelConcurrentAccept(t *testing.T) {
	redisService, duelService := newTestDuelService(t)
	defer redisService.Close()

	ctx := context.Background()
	challengerID := int64(930005)
	opponentID := int64(930006)

	redisService.DeleteWallet(ctx, challengerID)
	redisService.DeleteWallet(ctx, opponentID)
	defer redisService.DeleteWallet(ctx, challengerID)
	defer redisService.DeleteWallet(ctx, opponentID)

	duel, err := duelService.Challenge(ctx, challengerID, &models.DuelChallengeRequest{
		OpponentID: opponentID,
		Wager:      100,
	})
	if err != nil {
		t.Fatalf("Failed to challenge: %v", err)
	}
	defer redisService.DeleteDuel(ctx, duel.ID)

	// Racing accepts must debit the opponent exactly once.
	var wg sync.WaitGroup
	results := make(chan error, 4)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := duelService.Accept(ctx, duel.ID, opponentID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, services.ErrInvalidTransition) {
			t.Errorf("Unexpected accept error: %v", err)
		}
	}

	if succeeded != 1 {
		t.Errorf("Expected exactly 1 successful accept, got %d", succeeded)
	}

	wallet, _ := redisService.GetWallet(ctx, opponentID)
	if wallet.Balance != 900 {
		t.Errorf("Expected opponent debited exactly once to 900, got %d", wallet.Balance)
	}
}

func TestDuelChallengeInsufficientBalance(t *testing.T) {
	redisService, duelService := newTestDuelService(t)
	defer redisService.Close()

	ctx := context.Background()
	challengerID := int64(930007)
	opponentID := int64(930008)

	redisService.DeleteWallet(ctx, challengerID)
	redisService.DeleteWallet(ctx, opponentID)
	defer redisService.DeleteWallet(ctx, challengerID)
	defer redisService.DeleteWallet(ctx, opponentID)

	_, err := duelService.Challenge(ctx, challengerID, &models.DuelChallengeRequest{
		OpponentID: opponentID,
		Wager:      5000,
	})
	if !errors.Is(err, services.ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}

	wallet, _ := redisService.GetWallet(ctx, challengerID)
	if wallet.Balance != 1000 {
		t.Errorf("Rejected challenge changed balance: %d", wallet.Balance)
	}
}
