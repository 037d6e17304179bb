package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"points-arcade-backend/internal/config"
	"points-arcade-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisService struct {
	client          *redis.Client
	startingBalance int64
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisService{
		client:          client,
		startingBalance: cfg.StartingBalance,
	}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

func (s *RedisService) StoreUserSession(ctx context.Context, session *models.UserSession, expiry time.Duration) error {
	key := fmt.Sprintf(KeyUserSession, session.ID, session.SessionID)

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, key, data, expiry).Err()
}

func (s *RedisService) GetUserSession(ctx context.Context, userID int64, sessionID string) (*models.UserSession, error) {
	key := fmt.Sprintf(KeyUserSession, userID, sessionID)

	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var session models.UserSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}

	session.LastAccessed = time.Now().Unix()
	updatedData, _ := json.Marshal(session)
	s.client.Set(ctx, key, updatedData, TTLUserSession)

	return &session, nil
}

func (s *RedisService) DeleteUserSession(ctx context.Context, userID int64, sessionID string) error {
	key := fmt.Sprintf(KeyUserSession, userID, sessionID)
	return s.client.Del(ctx, key).Err()
}

// GetWallet fetches a user's wallet, creating it with the starting
// balance on first access. Wallet provisioning is the only write that
// bypasses the ledger scripts.
func (s *RedisService) GetWallet(ctx context.Context, userID int64) (*models.Wallet, error) {
	key := fmt.Sprintf(KeyWallet, userID)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		wallet := &models.Wallet{
			UserID:  userID,
			Balance: s.startingBalance,
		}

		created, err := s.createWallet(ctx, wallet)
		if err != nil {
			return nil, fmt.Errorf("failed to create wallet: %v", err)
		}
		if !created {
			// Lost the creation race, re-read the winner's wallet.
			return s.GetWallet(ctx, userID)
		}
		return wallet, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %v", err)
	}

	var wallet models.Wallet
	if err := json.Unmarshal([]byte(data), &wallet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %v", err)
	}

	return &wallet, nil
}

func (s *RedisService) createWallet(ctx context.Context, wallet *models.Wallet) (bool, error) {
	key := fmt.Sprintf(KeyWallet, wallet.UserID)

	data, err := json.Marshal(wallet)
	if err != nil {
		return false, err
	}

	return s.client.SetNX(ctx, key, data, 0).Result()
}

func (s *RedisService) SaveRound(ctx context.Context, round *models.Round) error {
	key := fmt.Sprintf(KeyRound, round.ID)

	data, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("failed to marshal round: %v", err)
	}

	return s.client.Set(ctx, key, data, TTLRound).Err()
}

func (s *RedisService) GetRound(ctx context.Context, roundID string) (*models.Round, error) {
	key := fmt.Sprintf(KeyRound, roundID)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %v", err)
	}

	var round models.Round
	if err := json.Unmarshal([]byte(data), &round); err != nil {
		return nil, fmt.Errorf("failed to unmarshal round: %v", err)
	}

	return &round, nil
}

func (s *RedisService) SaveBet(ctx context.Context, bet *models.Bet) error {
	key := fmt.Sprintf(KeyBet, bet.ID)

	data, err := json.Marshal(bet)
	if err != nil {
		return fmt.Errorf("failed to marshal bet: %v", err)
	}

	if err := s.client.Set(ctx, key, data, TTLBet).Err(); err != nil {
		return fmt.Errorf("failed to save bet: %v", err)
	}

	roundBetsKey := fmt.Sprintf(KeyRoundBets, bet.RoundID)
	if err := s.client.SAdd(ctx, roundBetsKey, bet.ID).Err(); err != nil {
		return fmt.Errorf("failed to index bet by round: %v", err)
	}
	s.client.Expire(ctx, roundBetsKey, TTLBet)

	userBetsKey := fmt.Sprintf(KeyUserBets, bet.UserID)
	if err := s.client.ZAdd(ctx, userBetsKey, redis.Z{
		Score:  float64(bet.CreatedAt),
		Member: bet.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to index bet by user: %v", err)
	}

	// Keep only the last 100 bets per user.
	s.client.ZRemRangeByRank(ctx, userBetsKey, 0, -101)

	return nil
}

func (s *RedisService) GetBet(ctx context.Context, betID string) (*models.Bet, error) {
	key := fmt.Sprintf(KeyBet, betID)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %v", err)
	}

	var bet models.Bet
	if err := json.Unmarshal([]byte(data), &bet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bet: %v", err)
	}

	return &bet, nil
}

func (s *RedisService) GetUserBets(ctx context.Context, userID int64, limit int64) ([]*models.Bet, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	userBetsKey := fmt.Sprintf(KeyUserBets, userID)

	betIDs, err := s.client.ZRevRange(ctx, userBetsKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bet IDs: %v", err)
	}

	var bets []*models.Bet
	for _, betID := range betIDs {
		bet, err := s.GetBet(ctx, betID)
		if err != nil {
			continue
		}
		bets = append(bets, bet)
	}

	return bets, nil
}

func (s *RedisService) SaveDuel(ctx context.Context, duel *models.Duel) error {
	key := fmt.Sprintf(KeyDuel, duel.ID)

	data, err := json.Marshal(duel)
	if err != nil {
		return fmt.Errorf("failed to marshal duel: %v", err)
	}

	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save duel: %v", err)
	}

	for _, userID := range []int64{duel.ChallengerID, duel.OpponentID} {
		userDuelsKey := fmt.Sprintf(KeyUserDuels, userID)
		if err := s.client.ZAdd(ctx, userDuelsKey, redis.Z{
			Score:  float64(duel.CreatedAt),
			Member: duel.ID,
		}).Err(); err != nil {
			return fmt.Errorf("failed to index duel: %v", err)
		}
	}

	return nil
}

func (s *RedisService) GetDuel(ctx context.Context, duelID string) (*models.Duel, error) {
	key := fmt.Sprintf(KeyDuel, duelID)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get duel: %v", err)
	}

	var duel models.Duel
	if err := json.Unmarshal([]byte(data), &duel); err != nil {
		return nil, fmt.Errorf("failed to unmarshal duel: %v", err)
	}

	return &duel, nil
}

func (s *RedisService) GetUserDuels(ctx context.Context, userID int64, limit int64) ([]*models.Duel, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	userDuelsKey := fmt.Sprintf(KeyUserDuels, userID)

	duelIDs, err := s.client.ZRevRange(ctx, userDuelsKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get duel IDs: %v", err)
	}

	var duels []*models.Duel
	for _, duelID := range duelIDs {
		duel, err := s.GetDuel(ctx, duelID)
		if err != nil {
			continue
		}
		duels = append(duels, duel)
	}

	return duels, nil
}

func (s *RedisService) SaveExchange(ctx context.Context, exchange *models.Exchange) error {
	key := fmt.Sprintf(KeyExchange, exchange.ID)

	data, err := json.Marshal(exchange)
	if err != nil {
		return fmt.Errorf("failed to marshal exchange: %v", err)
	}

	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save exchange: %v", err)
	}

	userExchangesKey := fmt.Sprintf(KeyUserExchanges, exchange.UserID)
	if err := s.client.ZAdd(ctx, userExchangesKey, redis.Z{
		Score:  float64(exchange.CreatedAt),
		Member: exchange.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to index exchange: %v", err)
	}

	return nil
}

func (s *RedisService) GetExchange(ctx context.Context, exchangeID string) (*models.Exchange, error) {
	key := fmt.Sprintf(KeyExchange, exchangeID)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange: %v", err)
	}

	var exchange models.Exchange
	if err := json.Unmarshal([]byte(data), &exchange); err != nil {
		return nil, fmt.Errorf("failed to unmarshal exchange: %v", err)
	}

	return &exchange, nil
}

func (s *RedisService) GetUserExchanges(ctx context.Context, userID int64, limit int64) ([]*models.Exchange, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	userExchangesKey := fmt.Sprintf(KeyUserExchanges, userID)

	exchangeIDs, err := s.client.ZRevRange(ctx, userExchangesKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange IDs: %v", err)
	}

	var exchanges []*models.Exchange
	for _, exchangeID := range exchangeIDs {
		exchange, err := s.GetExchange(ctx, exchangeID)
		if err != nil {
			continue
		}
		exchanges = append(exchanges, exchange)
	}

	return exchanges, nil
}

// transitionScript flips an entity's status only when the stored
// status matches the expected source state. The compare and the write
// happen in one script, so concurrent racers get exactly one winner.
var transitionScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("not found")
	end

	local e = cjson.decode(data)

	if e.status ~= ARGV[1] then
		return redis.error_reply("invalid transition")
	end

	e.status = ARGV[2]
	e[ARGV[3]] = tonumber(ARGV[4])

	redis.call("SET", KEYS[1], cjson.encode(e))

	return "OK"
`)

// TransitionStatus performs a guarded state transition with no ledger
// effect. tsField names the timestamp field stamped on success.
func (s *RedisService) TransitionStatus(ctx context.Context, key, from, to, tsField string) error {
	err := transitionScript.Run(ctx, s.client, []string{key},
		from, to, tsField, time.Now().Unix()).Err()
	return mapScriptErr(err)
}

func (s *RedisService) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	txKey := fmt.Sprintf(KeyTransaction, tx.ID)

	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %v", err)
	}

	if err := s.client.Set(ctx, txKey, data, TTLTransaction).Err(); err != nil {
		return fmt.Errorf("failed to save transaction: %v", err)
	}

	userTxKey := fmt.Sprintf(KeyUserTransactions, tx.UserID)
	if err := s.client.ZAdd(ctx, userTxKey, redis.Z{
		Score:  float64(tx.CreatedAt.Unix()),
		Member: tx.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to index transaction: %v", err)
	}

	// Keep only last 100 transactions
	s.client.ZRemRangeByRank(ctx, userTxKey, 0, -101)

	return nil
}

func (s *RedisService) GetUserTransactions(ctx context.Context, userID int64, limit int64) ([]*models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	userTxKey := fmt.Sprintf(KeyUserTransactions, userID)

	txIDs, err := s.client.ZRevRange(ctx, userTxKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction IDs: %v", err)
	}

	var transactions []*models.Transaction
	for _, txID := range txIDs {
		txKey := fmt.Sprintf(KeyTransaction, txID)

		data, err := s.client.Get(ctx, txKey).Result()
		if err != nil {
			continue
		}

		var tx models.Transaction
		if err := json.Unmarshal([]byte(data), &tx); err != nil {
			continue
		}

		transactions = append(transactions, &tx)
	}

	return transactions, nil
}

func (s *RedisService) CheckRateLimit(ctx context.Context, userID int64, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, userID, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

// ClaimCrashRound marks roundID as the live communal round. Only one
// API instance wins the claim; the rest skip starting a duplicate.
func (s *RedisService) ClaimCrashRound(ctx context.Context, roundID string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, KeyCrashCurrent, roundID, ttl).Result()
}

func (s *RedisService) CurrentCrashRoundID(ctx context.Context) (string, error) {
	id, err := s.client.Get(ctx, KeyCrashCurrent).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	return id, err
}

func (s *RedisService) ReleaseCrashRound(ctx context.Context, roundID string) error {
	// Delete only if still pointing at this round.
	script := redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		end
		return 0
	`)
	return script.Run(ctx, s.client, []string{KeyCrashCurrent}, roundID).Err()
}

func (s *RedisService) PublishEvent(ctx context.Context, payload []byte) error {
	return s.client.Publish(ctx, EventsChannel, payload).Err()
}

func (s *RedisService) SubscribeEvents(ctx context.Context) *redis.PubSub {
	return s.client.Subscribe(ctx, EventsChannel)
}

func (s *RedisService) DeleteWallet(ctx context.Context, userID int64) error {
	key := fmt.Sprintf(KeyWallet, userID)
	return s.client.Del(ctx, key).Err()
}

func (s *RedisService) DeleteRound(ctx context.Context, roundID string) error {
	key := fmt.Sprintf(KeyRound, roundID)
	return s.client.Del(ctx, key).Err()
}

func (s *RedisService) DeleteDuel(ctx context.Context, duelID string) error {
	key := fmt.Sprintf(KeyDuel, duelID)
	return s.client.Del(ctx, key).Err()
}

func (s *RedisService) DeleteExchange(ctx context.Context, exchangeID string) error {
	key := fmt.Sprintf(KeyExchange, exchangeID)
	return s.client.Del(ctx, key).Err()
}
