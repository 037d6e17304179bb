package models

type GameType string

const (
	GameTypeWheel   GameType = "wheel"
	GameTypeCrash   GameType = "crash"
	GameTypeLottery GameType = "lottery"
	GameTypeMirror  GameType = "mirror"
)

type WheelColor string

const (
	WheelColorBlue  WheelColor = "blue"
	WheelColorRed   WheelColor = "red"
	WheelColorGreen WheelColor = "green"
)

type RoundStatus string

const (
	RoundStatusCreated RoundStatus = "created"
	RoundStatusLive    RoundStatus = "live"
	RoundStatusSettled RoundStatus = "settled"
	RoundStatusBusted  RoundStatus = "busted"
)

// Round is one instance of a game's random outcome. Instant rounds are
// created already settled; crash rounds go live -> busted.
type Round struct {
	ID       string      `json:"id" redis:"id"`
	GameType GameType    `json:"game_type" redis:"game_type"`
	Status   RoundStatus `json:"status" redis:"status"`

	// Wheel outcome
	Tile  int        `json:"tile" redis:"tile"`
	Color WheelColor `json:"color,omitempty" redis:"color"`

	// Crash outcome. CrashPoint is fixed at round start and must not be
	// sent to clients until the round busts.
	CrashPoint float64 `json:"crash_point,omitempty" redis:"crash_point"`
	Multiplier float64 `json:"multiplier,omitempty" redis:"multiplier"`

	// Lottery outcome, 5 distinct numbers in [1,90], ascending.
	Numbers []int `json:"numbers,omitempty" redis:"numbers"`

	// Mirror outcome, index in [0,5].
	WinningIndex int `json:"winning_index" redis:"winning_index"`

	CreatedAt int64 `json:"created_at" redis:"created_at"`
	EndedAt   int64 `json:"ended_at,omitempty" redis:"ended_at"`
}

// Selection is the player's prediction for a round. Which fields are
// meaningful depends on the game type.
type Selection struct {
	Color            WheelColor `json:"color,omitempty"`
	TargetMultiplier float64    `json:"target_multiplier,omitempty"`
	Picks            []int      `json:"picks,omitempty"`
	Index            int        `json:"index"`
}

type BetStatus string

const (
	BetStatusLive    BetStatus = "live"
	BetStatusSettled BetStatus = "settled"
)

type Bet struct {
	ID        string    `json:"id" redis:"id"`
	UserID    int64     `json:"user_id" redis:"user_id"`
	RoundID   string    `json:"round_id" redis:"round_id"`
	GameType  GameType  `json:"game_type" redis:"game_type"`
	Stake     int64     `json:"stake" redis:"stake"`
	Selection Selection `json:"selection" redis:"selection"`

	Status    BetStatus `json:"status" redis:"status"`
	Won       bool      `json:"won" redis:"won"`
	Payout    int64     `json:"payout" redis:"payout"`
	CreatedAt int64     `json:"created_at" redis:"created_at"`
	SettledAt int64     `json:"settled_at,omitempty" redis:"settled_at"`
}

// LotteryMultipliers maps match count to payout multiplier.
var LotteryMultipliers = map[int]int64{
	2: 25,
	3: 200,
	4: 1500,
	5: 10000,
}

const (
	WheelTileCount             = 15
	WheelBluePayoutMultiplier  = 14
	WheelColorPayoutMultiplier = 2

	MirrorCount            = 6
	MirrorPayoutMultiplier = 5.5

	CrashMinPoint = 1.0
	CrashMaxPoint = 1000.0

	LotteryPickCount = 5
	LotteryMaxNumber = 90
)
