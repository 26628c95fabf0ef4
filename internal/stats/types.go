package stats

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/park285/cheese-rooms/internal/cbmfs"
	"github.com/park285/cheese-rooms/internal/domain"
	"github.com/park285/cheese-rooms/internal/game"
	"github.com/park285/cheese-rooms/internal/room"
)

var ErrInvalidResult = errors.New("invalid match result")

// Standing is the aggregate record of one player in one game type.
type Standing struct {
	PlayerID   string          `json:"playerId"`
	Name       string          `json:"name"`
	GameType   domain.GameType `json:"gameType"`
	Games      int             `json:"games"`
	Wins       int             `json:"wins"`
	Losses     int             `json:"losses"`
	Draws      int             `json:"draws"`
	LastPlayed time.Time       `json:"lastPlayed"`
}

// MatchResult is a finished match as seen by the standings table.
type MatchResult struct {
	RoomID   string
	GameType domain.GameType
	Players  []domain.Player
	Winner   string
	Draw     bool
	Scores   map[string]int
	EndedAt  time.Time
}

func (m MatchResult) validate() error {
	if len(m.Players) == 0 || m.GameType == "" {
		return ErrInvalidResult
	}
	if !m.Draw && m.Winner == "" {
		return ErrInvalidResult
	}
	return nil
}

// outcome returns the (wins, losses, draws) increments for playerID.
func (m MatchResult) outcome(playerID string) (int, int, int) {
	switch {
	case m.Draw:
		return 0, 0, 1
	case m.Winner == playerID:
		return 1, 0, 0
	default:
		return 0, 1, 0
	}
}

type Repository interface {
	RecordMatch(ctx context.Context, res MatchResult) error
	Standings(ctx context.Context, playerID string) ([]*Standing, error)
	Close() error
}

// FromRoom builds the result of the match that just finished in r.
func FromRoom(r *room.Room, endedAt time.Time) (MatchResult, error) {
	if r == nil || r.GameState == nil || !r.GameState.Finished() {
		return MatchResult{}, ErrInvalidResult
	}
	res := MatchResult{
		RoomID:   r.ID,
		GameType: r.GameType,
		Winner:   r.GameState.WinnerID(),
		Draw:     r.GameState.Drawn(),
		EndedAt:  endedAt,
	}
	// Only seats that took part in the match count; late joiners are skipped.
	seated := game.Players(r.GameState)
	if s, ok := r.GameState.(*cbmfs.State); ok {
		res.Scores = maps.Clone(s.Scores)
	}
	for _, p := range r.Players {
		for _, id := range seated {
			if p.ID == id {
				res.Players = append(res.Players, p)
				break
			}
		}
	}
	return res, res.validate()
}
