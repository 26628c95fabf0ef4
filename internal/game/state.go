package game

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/park285/cheese-rooms/internal/cbmfs"
	"github.com/park285/cheese-rooms/internal/domain"
	"github.com/park285/cheese-rooms/internal/gomoku"
)

// State is a game state of either variant. Only *gomoku.State and *cbmfs.State
// implement it; callers recover the variant with a type switch.
type State interface {
	GameType() domain.GameType
	Current() string
	WinnerID() string
	Drawn() bool
	Finished() bool
}

var (
	_ State = (*gomoku.State)(nil)
	_ State = (*cbmfs.State)(nil)
)

var ErrEmptyState = errors.New("empty game state")

// Encode marshals the concrete variant; the "type" field carries the tag.
func Encode(s State) ([]byte, error) {
	if s == nil {
		return nil, ErrEmptyState
	}
	return json.Marshal(s)
}

// Decode restores the variant named by the "type" field of data.
func Decode(data []byte) (State, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, ErrEmptyState
	}
	var head domain.Header
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode game header: %w", err)
	}
	switch head.Type {
	case domain.GameGomoku:
		var s gomoku.State
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decode gomoku state: %w", err)
		}
		return &s, nil
	case domain.GameCbmfs:
		var s cbmfs.State
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decode cbmfs state: %w", err)
		}
		return &s, nil
	default:
		return nil, domain.Reject(domain.CodeUnknownGameType, "unknown game type %q", string(head.Type))
	}
}

// Players returns the roster of s in seat order.
func Players(s State) []string {
	switch v := s.(type) {
	case *gomoku.State:
		return append([]string(nil), v.Players...)
	case *cbmfs.State:
		return append([]string(nil), v.Players...)
	default:
		return nil
	}
}

// Clone deep-copies s.
func Clone(s State) State {
	switch v := s.(type) {
	case *gomoku.State:
		return v.Clone()
	case *cbmfs.State:
		return v.Clone()
	default:
		return s
	}
}
