package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ledger is the single owner of point balance mutation. Every mutation
// runs as one Lua script, so the balance check and the write are a
// single atomic step: concurrent debits can never overdraw a wallet or
// lose an update.
type Ledger struct {
	rs *RedisService
}

func NewLedger(rs *RedisService) *Ledger {
	return &Ledger{rs: rs}
}

var debitScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("wallet not found")
	end

	local w = cjson.decode(data)
	local amount = tonumber(ARGV[1])

	if w.balance < amount then
		return redis.error_reply("insufficient balance")
	end

	w.balance = w.balance - amount
	if ARGV[2] == "stake" then
		w.total_wagered = w.total_wagered + amount
	end

	redis.call("SET", KEYS[1], cjson.encode(w))

	return w.balance
`)

var creditScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("wallet not found")
	end

	local w = cjson.decode(data)
	local amount = tonumber(ARGV[1])

	w.balance = w.balance + amount
	if ARGV[2] == "payout" then
		w.total_won = w.total_won + amount
	elseif ARGV[2] == "unstake" then
		w.total_wagered = w.total_wagered - amount
		if w.total_wagered < 0 then
			w.total_wagered = 0
		end
	end

	redis.call("SET", KEYS[1], cjson.encode(w))

	return w.balance
`)

var transferScript = redis.NewScript(`
	local fromData = redis.call("GET", KEYS[1])
	if not fromData then
		return redis.error_reply("wallet not found")
	end
	local toData = redis.call("GET", KEYS[2])
	if not toData then
		return redis.error_reply("wallet not found")
	end

	local from = cjson.decode(fromData)
	local to = cjson.decode(toData)
	local amount = tonumber(ARGV[1])

	if from.balance < amount then
		return redis.error_reply("insufficient balance")
	end

	from.balance = from.balance - amount
	to.balance = to.balance + amount

	redis.call("SET", KEYS[1], cjson.encode(from))
	redis.call("SET", KEYS[2], cjson.encode(to))

	return "OK"
`)

// debitWithGuardScript couples an entity status transition with a
// wallet debit. Either both apply or neither does; a stale expected
// status or a short balance leaves both keys untouched.
var debitWithGuardScript = redis.NewScript(`
	local edata = redis.call("GET", KEYS[1])
	if not edata then
		return redis.error_reply("not found")
	end
	local e = cjson.decode(edata)

	if e.status ~= ARGV[1] then
		return redis.error_reply("invalid transition")
	end

	local wdata = redis.call("GET", KEYS[2])
	if not wdata then
		return redis.error_reply("wallet not found")
	end
	local w = cjson.decode(wdata)
	local amount = tonumber(ARGV[3])

	if w.balance < amount then
		return redis.error_reply("insufficient balance")
	end

	w.balance = w.balance - amount
	e.status = ARGV[2]
	e[ARGV[4]] = tonumber(ARGV[5])

	redis.call("SET", KEYS[1], cjson.encode(e))
	redis.call("SET", KEYS[2], cjson.encode(w))

	return "OK"
`)

var creditWithGuardScript = redis.NewScript(`
	local edata = redis.call("GET", KEYS[1])
	if not edata then
		return redis.error_reply("not found")
	end
	local e = cjson.decode(edata)

	if e.status ~= ARGV[1] then
		return redis.error_reply("invalid transition")
	end

	local wdata = redis.call("GET", KEYS[2])
	if not wdata then
		return redis.error_reply("wallet not found")
	end
	local w = cjson.decode(wdata)

	w.balance = w.balance + tonumber(ARGV[3])
	e.status = ARGV[2]
	e[ARGV[4]] = tonumber(ARGV[5])
	if ARGV[6] ~= "" then
		e[ARGV[6]] = tonumber(ARGV[7])
	end

	redis.call("SET", KEYS[1], cjson.encode(e))
	redis.call("SET", KEYS[2], cjson.encode(w))

	return "OK"
`)

// settleWagerScript debits the stake and credits the payout (zero on a
// loss) in one step, so a settled wager can never leave the wallet
// between the two halves.
var settleWagerScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("wallet not found")
	end

	local w = cjson.decode(data)
	local stake = tonumber(ARGV[1])
	local payout = tonumber(ARGV[2])

	if w.balance < stake then
		return redis.error_reply("insufficient balance")
	end

	w.balance = w.balance - stake + payout
	w.total_wagered = w.total_wagered + stake
	if payout > 0 then
		w.total_won = w.total_won + payout
	end

	redis.call("SET", KEYS[1], cjson.encode(w))

	return w.balance
`)

// wagerWithGuardScript settles a wager against a live entity in one
// step: status guard, stake debit and payout credit together. The
// entity itself is only read, never rewritten.
var wagerWithGuardScript = redis.NewScript(`
	local edata = redis.call("GET", KEYS[1])
	if not edata then
		return redis.error_reply("not found")
	end
	local e = cjson.decode(edata)

	if e.status ~= ARGV[1] then
		return redis.error_reply("invalid transition")
	end

	local wdata = redis.call("GET", KEYS[2])
	if not wdata then
		return redis.error_reply("wallet not found")
	end
	local w = cjson.decode(wdata)
	local stake = tonumber(ARGV[2])
	local payout = tonumber(ARGV[3])

	if w.balance < stake then
		return redis.error_reply("insufficient balance")
	end

	w.balance = w.balance - stake + payout
	w.total_wagered = w.total_wagered + stake
	if payout > 0 then
		w.total_won = w.total_won + payout
	end

	redis.call("SET", KEYS[2], cjson.encode(w))

	return w.balance
`)

// Debit removes amount from the user's balance, failing with
// ErrInsufficientBalance when it would go negative.
func (l *Ledger) Debit(ctx context.Context, userID int64, amount int64) (int64, error) {
	return l.runBalanceScript(ctx, debitScript, userID, amount, "")
}

// DebitStake is Debit plus the total_wagered counter.
func (l *Ledger) DebitStake(ctx context.Context, userID int64, amount int64) (int64, error) {
	return l.runBalanceScript(ctx, debitScript, userID, amount, "stake")
}

// Credit adds amount to the user's balance.
func (l *Ledger) Credit(ctx context.Context, userID int64, amount int64) (int64, error) {
	return l.runBalanceScript(ctx, creditScript, userID, amount, "")
}

// CreditPayout is Credit plus the total_won counter.
func (l *Ledger) CreditPayout(ctx context.Context, userID int64, amount int64) (int64, error) {
	return l.runBalanceScript(ctx, creditScript, userID, amount, "payout")
}

// RefundStake undoes a DebitStake that could not be honored, restoring
// the balance and the wagered counter.
func (l *Ledger) RefundStake(ctx context.Context, userID int64, amount int64) (int64, error) {
	return l.runBalanceScript(ctx, creditScript, userID, amount, "unstake")
}

func (l *Ledger) runBalanceScript(ctx context.Context, script *redis.Script, userID, amount int64, mode string) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("negative amount: %d", amount)
	}

	key := fmt.Sprintf(KeyWallet, userID)
	balance, err := script.Run(ctx, l.rs.client, []string{key}, amount, mode).Int64()
	if err != nil {
		return 0, mapScriptErr(err)
	}

	return balance, nil
}

// SettleWager applies a full wager settlement (stake out, payout in,
// counters maintained) as one atomic step. Returns the new balance.
func (l *Ledger) SettleWager(ctx context.Context, userID, stake, payout int64) (int64, error) {
	if stake < 0 || payout < 0 {
		return 0, fmt.Errorf("negative amount")
	}

	key := fmt.Sprintf(KeyWallet, userID)
	balance, err := settleWagerScript.Run(ctx, l.rs.client, []string{key}, stake, payout).Int64()
	if err != nil {
		return 0, mapScriptErr(err)
	}

	return balance, nil
}

// Transfer moves amount between two users, all or nothing.
func (l *Ledger) Transfer(ctx context.Context, fromID, toID int64, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative amount: %d", amount)
	}
	if fromID == toID {
		return fmt.Errorf("cannot transfer to self")
	}

	fromKey := fmt.Sprintf(KeyWallet, fromID)
	toKey := fmt.Sprintf(KeyWallet, toID)

	err := transferScript.Run(ctx, l.rs.client, []string{fromKey, toKey}, amount).Err()
	return mapScriptErr(err)
}

// Balance reads the current balance, provisioning the wallet if absent.
func (l *Ledger) Balance(ctx context.Context, userID int64) (int64, error) {
	wallet, err := l.rs.GetWallet(ctx, userID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

// DebitWithGuard atomically transitions the entity at entityKey from
// one status to another and debits the user's wallet. This is the
// cross-entity transaction the duel accept path needs: exactly one of
// two racing acceptors can pass the guard.
func (l *Ledger) DebitWithGuard(ctx context.Context, entityKey, from, to, tsField string, userID, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative amount: %d", amount)
	}

	walletKey := fmt.Sprintf(KeyWallet, userID)
	err := debitWithGuardScript.Run(ctx, l.rs.client,
		[]string{entityKey, walletKey},
		from, to, amount, tsField, time.Now().Unix()).Err()
	return mapScriptErr(err)
}

// CreditWithGuard is the credit-side counterpart, used for refunds and
// payouts tied to a transition. extraField optionally stamps one more
// numeric field on the entity (e.g. the duel winner).
func (l *Ledger) CreditWithGuard(ctx context.Context, entityKey, from, to, tsField string, userID, amount int64, extraField string, extraValue int64) error {
	if amount < 0 {
		return fmt.Errorf("negative amount: %d", amount)
	}

	walletKey := fmt.Sprintf(KeyWallet, userID)
	err := creditWithGuardScript.Run(ctx, l.rs.client,
		[]string{entityKey, walletKey},
		from, to, amount, tsField, time.Now().Unix(),
		extraField, extraValue).Err()
	return mapScriptErr(err)
}

// WagerWithGuard debits a stake and credits a payout (zero when lost)
// in one step, guarded on the entity still being in expectedStatus.
// Returns the new balance.
func (l *Ledger) WagerWithGuard(ctx context.Context, entityKey, expectedStatus string, userID, stake, payout int64) (int64, error) {
	if stake < 0 || payout < 0 {
		return 0, fmt.Errorf("negative amount")
	}

	walletKey := fmt.Sprintf(KeyWallet, userID)
	balance, err := wagerWithGuardScript.Run(ctx, l.rs.client,
		[]string{entityKey, walletKey},
		expectedStatus, stake, payout).Int64()
	if err != nil {
		return 0, mapScriptErr(err)
	}

	return balance, nil
}
