package gomoku

import "github.com/park285/cheese-rooms/internal/domain"

const (
	BoardSize = 15
	WinLength = 5
	MaxMoves  = BoardSize * BoardSize
)

// Move records one placed stone.
type Move struct {
	PlayerID  string `json:"playerId"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Timestamp int64  `json:"timestamp"`
}

// State is the five-in-a-row variant of the game state. Board is indexed [y][x];
// an empty string marks an empty cell.
type State struct {
	domain.Header
	Board   [][]string `json:"board"`
	Moves   []Move     `json:"moves"`
	Players []string   `json:"players"`
}

func emptyBoard() [][]string {
	board := make([][]string, BoardSize)
	for y := range board {
		board[y] = make([]string, BoardSize)
	}
	return board
}

// Clone returns a deep copy; the engine never writes to a state it was given.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Board = make([][]string, len(s.Board))
	for y, row := range s.Board {
		out.Board[y] = append([]string(nil), row...)
	}
	out.Moves = append([]Move(nil), s.Moves...)
	out.Players = append([]string(nil), s.Players...)
	return &out
}

// Cell returns the owner of (x, y), or "" when empty or out of range.
func (s *State) Cell(x, y int) string {
	if !inBounds(x, y) || y >= len(s.Board) || x >= len(s.Board[y]) {
		return ""
	}
	return s.Board[y][x]
}

// FilledCells counts non-empty cells.
func (s *State) FilledCells() int {
	n := 0
	for _, row := range s.Board {
		for _, c := range row {
			if c != "" {
				n++
			}
		}
	}
	return n
}

// LastMove returns the most recent move, if any.
func (s *State) LastMove() (Move, bool) {
	if len(s.Moves) == 0 {
		return Move{}, false
	}
	return s.Moves[len(s.Moves)-1], true
}

func inBounds(x, y int) bool {
	return x >= 0 && x < BoardSize && y >= 0 && y < BoardSize
}
