package gomoku

import (
	"time"

	"github.com/park285/cheese-rooms/internal/domain"
)

// directions scanned from the placed stone: horizontal, vertical, diagonal, anti-diagonal.
var directions = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

type Engine struct {
	now func() time.Time
}

type Option func(*Engine)

// WithClock overrides the clock used for move timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// New starts a match; the first listed player moves first.
func (e *Engine) New(players []domain.Player) (*State, error) {
	if len(players) != 2 {
		return nil, domain.Reject(domain.CodeInvalidPlayerCount, "gomoku needs exactly 2 players, got %d", len(players))
	}
	return &State{
		Header: domain.Header{
			Type:          domain.GameGomoku,
			CurrentPlayer: players[0].ID,
		},
		Board:   emptyBoard(),
		Moves:   []Move{},
		Players: domain.PlayerIDs(players),
	}, nil
}

// Play places playerID's stone at (x, y) and returns the next state. On rejection the
// returned error is a *domain.RuleError and s is left untouched.
func (e *Engine) Play(s *State, playerID string, x, y int) (*State, error) {
	if s == nil {
		return nil, domain.ErrInvalidAction
	}
	if !inBounds(x, y) {
		return nil, domain.ErrOutOfBounds
	}
	if s.Cell(x, y) != "" {
		return nil, domain.ErrCellOccupied
	}
	if s.CurrentPlayer != playerID {
		return nil, domain.ErrNotYourTurn
	}
	if s.Finished() {
		return nil, domain.ErrGameAlreadyEnded
	}

	next := s.Clone()
	if len(next.Board) != BoardSize {
		next.Board = emptyBoard()
	}
	next.Board[y][x] = playerID
	next.Moves = append(next.Moves, Move{
		PlayerID:  playerID,
		X:         x,
		Y:         y,
		Timestamp: e.now().UnixMilli(),
	})

	if wins(next.Board, x, y, playerID) {
		next.Winner = playerID
		return next, nil
	}
	if len(next.Moves) >= MaxMoves {
		next.IsDraw = true
		return next, nil
	}
	next.CurrentPlayer = opponent(next.Players, playerID)
	return next, nil
}

func opponent(players []string, playerID string) string {
	for _, p := range players {
		if p != playerID {
			return p
		}
	}
	return playerID
}

// wins reports whether the stone at (x, y) completes a run of WinLength.
func wins(board [][]string, x, y int, owner string) bool {
	at := func(cx, cy int) bool {
		return inBounds(cx, cy) && board[cy][cx] == owner
	}
	for _, d := range directions {
		count := 1
		for i := 1; i < WinLength; i++ {
			if !at(x+d[0]*i, y+d[1]*i) {
				break
			}
			count++
		}
		for i := 1; i < WinLength; i++ {
			if !at(x-d[0]*i, y-d[1]*i) {
				break
			}
			count++
		}
		if count >= WinLength {
			return true
		}
	}
	return false
}
