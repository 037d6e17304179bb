package services_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"points-arcade-backend/internal/models"
	"points-arcade-backend/internal/services"
)

func newTestExchangeService(t *testing.T) (*services.RedisService, *services.ExchangeService) {
	t.Helper()

	redisService := setupTestRedis(t)
	ledger := services.NewLedger(redisService)
	exchangeService := services.NewExchangeService(redisService, ledger, services.NopBroadcaster{}, zap.NewNop())

	return redisService, exchangeService
}

func TestExchangeLifecycle(t *testing.T) {
	redisService, exchangeService := newTestExchangeService(t)
	defer redisService.Close()

	ctx := context.Background()
	userID := int64(940001)

	redisService.DeleteWallet(ctx, userID)
	defer redisService.DeleteWallet(ctx, userID)

	exchange, err := exchangeService.Request(ctx, userID, &models.ExchangeRequest{
		Amount:      300,
		PhoneNumber: "0911000000",
	})
	if err != nil {
		t.Fatalf("Failed to request exchange: %v", err)
	}
	defer redisService.DeleteExchange(ctx, exchange.ID)

	if exchange.Status != models.ExchangeStatusPending {
		t.Errorf("Expected pending exchange, got %s", exchange.Status)
	}

	wallet, _ := redisService.GetWallet(ctx, userID)
	if wallet.Balance != 700 {
		t.Errorf("Expected balance 700 after reservation, got %d", wallet.Balance)
	}

	// A stranger must not be able to complete someone else's exchange
	// and burn their refund path.
	if _, err := exchangeService.Complete(ctx, exchange.ID, userID+1); err == nil {
		t.Error("Complete by a different user should fail")
	}

	retrieved, err := exchangeService.GetExchange(ctx, exchange.ID)
	if err != nil {
		t.Fatalf("Failed to get exchange: %v", err)
	}
	if retrieved.Status != models.ExchangeStatusPending {
		t.Errorf("Rejected complete changed status to %s", retrieved.Status)
	}

	exchange, err = exchangeService.Complete(ctx, exchange.ID, userID)
	if err != nil {
		t.Fatalf("Failed to complete exchange: %v", err)
	}
	if exchange.Status != models.ExchangeStatusCompleted {
		t.Errorf("Expected completed exchange, got %s", exchange.Status)
	}
	if exchange.CompletedAt == 0 {
		t.Error("Completed exchange should have completed_at set")
	}

	// Completion never touches the balance; the points already left.
	wallet, _ = redisService.GetWallet(ctx, userID)
	if wallet.Balance != 700 {
		t.Errorf("Completion changed balance: %d", wallet.Balance)
	}

	_, err = exchangeService.Cancel(ctx, exchange.ID, userID)
	if !errors.Is(err, services.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition cancelling completed exchange, got %v", err)
	}

	wallet, _ = redisService.GetWallet(ctx, userID)
	if wallet.Balance != 700 {
		t.Errorf("Rejected cancel changed balance: %d", wallet.Balance)
	}
}

func TestExchangeCancelRefundsOnce(t *testing.T) {
	redisService, exchangeService := newTestExchangeService(t)
	defer redisService.Close()

	ctx := context.Background()
	userID := int64(940002)

	redisService.DeleteWallet(ctx, userID)
	defer redisService.DeleteWallet(ctx, userID)

	exchange, err := exchangeService.Request(ctx, userID, &models.ExchangeRequest{
		Amount:      250,
		PhoneNumber: "0911000001",
	})
	if err != nil {
		t.Fatalf("Failed to request exchange: %v", err)
	}
	defer redisService.DeleteExchange(ctx, exchange.ID)

	// Only the owner may cancel.
	if _, err := exchangeService.Cancel(ctx, exchange.ID, userID+1); err == nil {
		t.Error("Cancel by a different user should fail")
	}

	exchange, err = exchangeService.Cancel(ctx, exchange.ID, userID)
	if err != nil {
		t.Fatalf("Failed to cancel exchange: %v", err)
	}
	if exchange.Status != models.ExchangeStatusCancelled {
		t.Errorf("Expected cancelled exchange, got %s", exchange.Status)
	}

	wallet, _ := redisService.GetWallet(ctx, userID)
	if wallet.Balance != 1000 {
		t.Errorf("Expected reservation refunded to 1000, got %d", wallet.Balance)
	}

	_, err = exchangeService.Cancel(ctx, exchange.ID, userID)
	if !errors.Is(err, services.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition on second cancel, got %v", err)
	}

	wallet, _ = redisService.GetWallet(ctx, userID)
	if wallet.Balance != 1000 {
		t.Errorf("Second cancel changed balance: %d", wallet.Balance)
	}
}

func TestExchangeInsufficientBalance(t *testing.T) {
	redisService, exchangeService := newTestExchangeService(t)
	defer redisService.Close()

	ctx := context.Background()
	userID := int64(940003)

	redisService.DeleteWallet(ctx, userID)
	defer redisService.DeleteWallet(ctx, userID)

	_, err := exchangeService.Request(ctx, userID, &models.ExchangeRequest{
		Amount:      5000,
		PhoneNumber: "0911000002",
	})
	if !errors.Is(err, services.ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}

	wallet, _ := redisService.GetWallet(ctx, userID)
	if wallet.Balance != 1000 {
		t.Errorf("Rejected request changed balance: %d", wallet.Balance)
	}
}
