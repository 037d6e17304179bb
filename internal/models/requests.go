package models

import "fmt"

type PlayRoundRequest struct {
	GameType  GameType  `json:"game_type" binding:"required"`
	Stake     int64     `json:"stake" binding:"required"`
	Selection Selection `json:"selection"`
}

func (r *PlayRoundRequest) Validate() error {
	if r.Stake < 1 {
		return fmt.Errorf("stake must be at least 1 point")
	}

	switch r.GameType {
	case GameTypeWheel:
		switch r.Selection.Color {
		case WheelColorBlue, WheelColorRed, WheelColorGreen:
		default:
			return fmt.Errorf("invalid wheel color: %s", r.Selection.Color)
		}
	case GameTypeLottery:
		if len(r.Selection.Picks) != LotteryPickCount {
			return fmt.Errorf("lottery requires exactly %d picks", LotteryPickCount)
		}
		seen := make(map[int]bool, LotteryPickCount)
		for _, n := range r.Selection.Picks {
			if n < 1 || n > LotteryMaxNumber {
				return fmt.Errorf("lottery pick %d out of range 1-%d", n, LotteryMaxNumber)
			}
			if seen[n] {
				return fmt.Errorf("duplicate lottery pick: %d", n)
			}
			seen[n] = true
		}
	case GameTypeMirror:
		if r.Selection.Index < 0 || r.Selection.Index >= MirrorCount {
			return fmt.Errorf("mirror index must be between 0 and %d", MirrorCount-1)
		}
	case GameTypeCrash:
		return fmt.Errorf("crash rounds are played through cashout, not instant rounds")
	default:
		return fmt.Errorf("invalid game type: %s", r.GameType)
	}

	return nil
}

type CrashCashoutRequest struct {
	RoundID          string  `json:"round_id" binding:"required"`
	Stake            int64   `json:"stake" binding:"required"`
	TargetMultiplier float64 `json:"target_multiplier" binding:"required"`
}

func (r *CrashCashoutRequest) Validate() error {
	if r.Stake < 1 {
		return fmt.Errorf("stake must be at least 1 point")
	}
	if r.TargetMultiplier < CrashMinPoint || r.TargetMultiplier > CrashMaxPoint {
		return fmt.Errorf("target multiplier must be between %.2f and %.2f", CrashMinPoint, CrashMaxPoint)
	}
	return nil
}

type DuelChallengeRequest struct {
	OpponentID int64 `json:"opponent_id" binding:"required"`
	Wager      int64 `json:"wager" binding:"required"`
}

func (r *DuelChallengeRequest) Validate() error {
	if r.Wager < 1 {
		return fmt.Errorf("wager must be at least 1 point")
	}
	if r.OpponentID <= 0 {
		return fmt.Errorf("invalid opponent id")
	}
	return nil
}

type DuelResolveRequest struct {
	WinnerID int64 `json:"winner_id" binding:"required"`
}

type ExchangeRequest struct {
	Amount      int64  `json:"amount" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
}

func (r *ExchangeRequest) Validate() error {
	if r.Amount < 1 {
		return fmt.Errorf("amount must be at least 1 point")
	}
	if len(r.PhoneNumber) < 7 {
		return fmt.Errorf("invalid phone number")
	}
	return nil
}
