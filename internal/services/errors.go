package services

import (
	"errors"
	"strings"
)

// Declined actions. These are expected outcomes, never logged as
// system errors, and guarantee no balance was touched.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrTooLate             = errors.New("too late")
)

// System errors.
var (
	ErrNotFound          = errors.New("not found")
	ErrGenerationFailure = errors.New("outcome generation failure")
)

// mapScriptErr translates redis.error_reply messages from the Lua
// scripts into the typed taxonomy. Scripts can only signal failures
// through their reply string.
func mapScriptErr(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "insufficient balance"):
		return ErrInsufficientBalance
	case strings.Contains(msg, "invalid transition"):
		return ErrInvalidTransition
	case strings.Contains(msg, "not found"):
		return ErrNotFound
	}

	return err
}
