package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a rejected setup or move.
type ErrorCode string

const (
	CodeInvalidPlayerCount   ErrorCode = "invalid_player_count"
	CodeUnknownGameType      ErrorCode = "unknown_game_type"
	CodeNotYourTurn          ErrorCode = "not_your_turn"
	CodeGameAlreadyEnded     ErrorCode = "game_already_ended"
	CodeOutOfBounds          ErrorCode = "out_of_bounds"
	CodeCellOccupied         ErrorCode = "cell_occupied"
	CodeInvalidAction        ErrorCode = "invalid_action"
	CodeRarityOrderViolation ErrorCode = "rarity_order_violation"
	CodeNotInGame            ErrorCode = "not_in_game"
)

// RuleError is a rejection raised by a game engine. Two RuleErrors match under
// errors.Is when their codes are equal, so callers compare against the sentinels below.
type RuleError struct {
	Code    ErrorCode
	Message string
}

func (e *RuleError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *RuleError) Is(target error) bool {
	var t *RuleError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func Reject(code ErrorCode, format string, args ...any) *RuleError {
	return &RuleError{Code: code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrInvalidPlayerCount   = &RuleError{Code: CodeInvalidPlayerCount, Message: "invalid player count"}
	ErrUnknownGameType      = &RuleError{Code: CodeUnknownGameType, Message: "unknown game type"}
	ErrNotYourTurn          = &RuleError{Code: CodeNotYourTurn, Message: "not your turn"}
	ErrGameAlreadyEnded     = &RuleError{Code: CodeGameAlreadyEnded, Message: "game already ended"}
	ErrOutOfBounds          = &RuleError{Code: CodeOutOfBounds, Message: "coordinates out of range"}
	ErrCellOccupied         = &RuleError{Code: CodeCellOccupied, Message: "cell already occupied"}
	ErrInvalidAction        = &RuleError{Code: CodeInvalidAction, Message: "invalid action"}
	ErrRarityOrderViolation = &RuleError{Code: CodeRarityOrderViolation, Message: "cannot cast a rarer spell than the previous one"}
	ErrNotInGame            = &RuleError{Code: CodeNotInGame, Message: "you are not in this game"}
)

// CodeOf extracts the rule code from err, or "" when err is not a RuleError.
func CodeOf(err error) ErrorCode {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
