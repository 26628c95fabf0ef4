package room

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/park285/cheese-rooms/internal/domain"
	"github.com/park285/cheese-rooms/internal/game"
)

// Status represents the lifecycle of a room.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Room is stored as JSON in Redis under room:<id>.
type Room struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	GameType   domain.GameType `json:"gameType"`
	Status     Status          `json:"status"`
	HostID     string          `json:"hostId"`
	Players    []domain.Player `json:"players"`
	MaxPlayers int             `json:"maxPlayers"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	GameState  game.State      `json:"-"`
}

type roomRecord struct {
	roomAlias
	GameState json.RawMessage `json:"gameState,omitempty"`
}

// roomAlias drops Room's methods so that encoding does not recurse.
type roomAlias Room

func (r Room) MarshalJSON() ([]byte, error) {
	rec := roomRecord{roomAlias: roomAlias(r)}
	if r.GameState != nil {
		raw, err := game.Encode(r.GameState)
		if err != nil {
			return nil, err
		}
		rec.GameState = raw
	}
	return json.Marshal(rec)
}

func (r *Room) UnmarshalJSON(b []byte) error {
	var rec roomRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}
	*r = Room(rec.roomAlias)
	if len(rec.GameState) > 0 && string(rec.GameState) != "null" {
		s, err := game.Decode(rec.GameState)
		if err != nil {
			return fmt.Errorf("room %s: %w", rec.ID, err)
		}
		r.GameState = s
	}
	return nil
}

// HasPlayer reports whether userID is seated in the room.
func (r *Room) HasPlayer(userID string) bool {
	for _, p := range r.Players {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// MaxPlayersFor is the seat count of a room hosting t.
func MaxPlayersFor(t domain.GameType) int {
	switch t {
	case domain.GameGomoku:
		return 2
	default:
		return 5
	}
}

// MoveOutcome is the result of MakeMove: the room after the move plus the engine result.
type MoveOutcome struct {
	Room   *Room
	Result game.Result
	// Ended is set only on the move that finished the match.
	Ended bool
}

// Errors
var (
	ErrInvalidArgs      = errf("invalid arguments")
	ErrRoomNotFound     = errf("room not found or expired")
	ErrRoomFull         = errf("room is full")
	ErrNotHost          = errf("only the host can do that")
	ErrNotEnoughPlayers = errf("not enough players")
	ErrAlreadyPlaying   = errf("game already in progress")
	ErrNotPlaying       = errf("no game in progress")
	ErrRoomLimit        = errf("room limit reached")
	// returned when WATCH retries are exhausted
	ErrBusy = errf("room busy, retry later")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }
