package gomoku

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/cheese-rooms/internal/domain"
)

var (
	alice = domain.Player{ID: "alice", Name: "Alice"}
	bob   = domain.Player{ID: "bob", Name: "Bob"}
)

func newTestEngine() *Engine {
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return NewEngine(WithClock(func() time.Time { return fixed }))
}

func newMatch(t *testing.T, e *Engine) *State {
	t.Helper()
	s, err := e.New([]domain.Player{alice, bob})
	require.NoError(t, err)
	return s
}

func TestNewRequiresTwoPlayers(t *testing.T) {
	e := newTestEngine()
	for _, players := range [][]domain.Player{nil, {alice}, {alice, bob, {ID: "carol"}}} {
		_, err := e.New(players)
		require.ErrorIs(t, err, domain.ErrInvalidPlayerCount)
	}

	s := newMatch(t, e)
	assert.Equal(t, domain.GameGomoku, s.Type)
	assert.Equal(t, "alice", s.CurrentPlayer)
	assert.Equal(t, []string{"alice", "bob"}, s.Players)
	assert.Len(t, s.Board, BoardSize)
	assert.Zero(t, s.FilledCells())
}

func TestPlayRejections(t *testing.T) {
	e := newTestEngine()
	s := newMatch(t, e)

	s1, err := e.Play(s, "alice", 7, 7)
	require.NoError(t, err)

	cases := []struct {
		name   string
		state  *State
		player string
		x, y   int
		want   error
	}{
		{"negative x", s1, "bob", -1, 0, domain.ErrOutOfBounds},
		{"y too large", s1, "bob", 0, BoardSize, domain.ErrOutOfBounds},
		{"occupied", s1, "bob", 7, 7, domain.ErrCellOccupied},
		{"wrong player", s1, "alice", 0, 0, domain.ErrNotYourTurn},
		{"stranger", s1, "mallory", 0, 0, domain.ErrNotYourTurn},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := e.Play(tc.state, tc.player, tc.x, tc.y)
			require.ErrorIs(t, err, tc.want)
			assert.Nil(t, next)
			assert.Equal(t, 1, tc.state.FilledCells())
			assert.Len(t, tc.state.Moves, 1)
		})
	}

	ended := s1.Clone()
	ended.Winner = "alice"
	ended.CurrentPlayer = "bob"
	_, err = e.Play(ended, "bob", 0, 0)
	require.ErrorIs(t, err, domain.ErrGameAlreadyEnded)
}

func TestPlayDoesNotMutateInput(t *testing.T) {
	e := newTestEngine()
	s := newMatch(t, e)

	next, err := e.Play(s, "alice", 3, 4)
	require.NoError(t, err)

	assert.Equal(t, "", s.Board[4][3])
	assert.Empty(t, s.Moves)
	assert.Equal(t, "alice", s.CurrentPlayer)

	assert.Equal(t, "alice", next.Board[4][3])
	assert.Equal(t, "bob", next.CurrentPlayer)
	require.Len(t, next.Moves, 1)
	assert.Equal(t, Move{PlayerID: "alice", X: 3, Y: 4, Timestamp: 1735787045000}, next.Moves[0])
}

func TestFifthStoneWinsInEveryDirection(t *testing.T) {
	cases := []struct {
		name   string
		stones [][2]int
	}{
		{"horizontal", [][2]int{{3, 7}, {4, 7}, {5, 7}, {6, 7}, {7, 7}}},
		{"vertical", [][2]int{{2, 2}, {2, 3}, {2, 4}, {2, 5}, {2, 6}}},
		{"diagonal", [][2]int{{10, 10}, {11, 11}, {12, 12}, {13, 13}, {14, 14}}},
		{"anti-diagonal", [][2]int{{4, 8}, {5, 7}, {6, 6}, {7, 5}, {8, 4}}},
		{"gap filled last", [][2]int{{0, 14}, {1, 14}, {3, 14}, {4, 14}, {2, 14}}},
	}
	filler := [][2]int{{0, 0}, {2, 0}, {4, 0}, {6, 0}, {8, 0}}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine()
			s := newMatch(t, e)
			var err error
			for i, stone := range tc.stones {
				s, err = e.Play(s, "alice", stone[0], stone[1])
				require.NoError(t, err)
				if i < len(tc.stones)-1 {
					require.Empty(t, s.Winner, "won early at stone %d", i)
					s, err = e.Play(s, "bob", filler[i][0], filler[i][1])
					require.NoError(t, err)
				}
			}
			assert.Equal(t, "alice", s.Winner)
			assert.False(t, s.IsDraw)
			assert.Equal(t, "alice", s.CurrentPlayer)

			_, err = e.Play(s, "alice", 9, 9)
			require.Error(t, err)
		})
	}
}

func TestFourInARowDoesNotWin(t *testing.T) {
	e := newTestEngine()
	s := newMatch(t, e)
	var err error
	for i := 0; i < 4; i++ {
		s, err = e.Play(s, "alice", i, 0)
		require.NoError(t, err)
		s, err = e.Play(s, "bob", i, 5)
		require.NoError(t, err)
	}
	// (4, 0) is still open.
	s, err = e.Play(s, "alice", 5, 0)
	require.NoError(t, err)
	assert.Empty(t, s.Winner)
}

// drawOwner colours the board so that no line holds more than two equal stones in a row.
func drawOwner(x, y int) int { return (x/2 + y) % 2 }

func TestFullBoardWithoutFiveIsDraw(t *testing.T) {
	var first, second [][2]int
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			if drawOwner(x, y) == 0 {
				first = append(first, [2]int{x, y})
			} else {
				second = append(second, [2]int{x, y})
			}
		}
	}
	require.Len(t, first, 113)
	require.Len(t, second, 112)

	e := newTestEngine()
	s := newMatch(t, e)
	var err error
	for i := 0; i < len(first); i++ {
		s, err = e.Play(s, "alice", first[i][0], first[i][1])
		require.NoError(t, err)
		require.Equal(t, len(s.Moves), s.FilledCells())
		if i < len(second) {
			require.False(t, s.IsDraw)
			s, err = e.Play(s, "bob", second[i][0], second[i][1])
			require.NoError(t, err)
			require.Equal(t, len(s.Moves), s.FilledCells())
		}
		require.Empty(t, s.Winner)
	}

	assert.True(t, s.IsDraw)
	assert.Empty(t, s.Winner)
	assert.Len(t, s.Moves, MaxMoves)
}
