package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

func GenerateRoundID() string {
	return fmt.Sprintf("round_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateBetID() string {
	return fmt.Sprintf("bet_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateDuelID() string {
	return fmt.Sprintf("duel_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateExchangeID() string {
	return fmt.Sprintf("exchange_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateTransactionID() string {
	return fmt.Sprintf("tx_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

// ColorForTile maps a wheel tile to its color. Tile 0 is the single
// blue tile, 1-7 red, 8-14 green.
func ColorForTile(tile int) WheelColor {
	switch {
	case tile == 0:
		return WheelColorBlue
	case tile <= 7:
		return WheelColorRed
	default:
		return WheelColorGreen
	}
}
