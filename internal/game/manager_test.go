package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/cheese-rooms/internal/cbmfs"
	"github.com/park285/cheese-rooms/internal/domain"
	"github.com/park285/cheese-rooms/internal/gomoku"
)

func newTestManager() *Manager {
	fixed := time.UnixMilli(1_700_000_000_000)
	return NewManager(
		WithDice(domain.NewSeededDice(3, 5)),
		WithClock(func() time.Time { return fixed }),
	)
}

func roster(ids ...string) []domain.Player {
	out := make([]domain.Player, len(ids))
	for i, id := range ids {
		out[i] = domain.Player{ID: id, Name: id}
	}
	return out
}

func intp(v int) *int { return &v }

func TestCreateGame(t *testing.T) {
	m := newTestManager()

	s, err := m.CreateGame(domain.GameGomoku, roster("a", "b"))
	require.NoError(t, err)
	require.IsType(t, &gomoku.State{}, s)
	assert.Equal(t, "a", s.Current())

	s, err = m.CreateGame(domain.GameCbmfs, roster("a", "b", "c"))
	require.NoError(t, err)
	require.IsType(t, &cbmfs.State{}, s)
	assert.Equal(t, []string{"a", "b", "c"}, Players(s))

	s, err = m.CreateGame(domain.GameGomoku, roster("a", "b", "c"))
	require.ErrorIs(t, err, domain.ErrInvalidPlayerCount)
	assert.Nil(t, s)

	s, err = m.CreateGame(domain.GameCbmfs, roster("a"))
	require.ErrorIs(t, err, domain.ErrInvalidPlayerCount)
	assert.Nil(t, s)

	_, err = m.CreateGame("chess", roster("a", "b"))
	require.ErrorIs(t, err, domain.ErrUnknownGameType)
}

func TestMakeMoveGomoku(t *testing.T) {
	m := newTestManager()
	s, err := m.CreateGame(domain.GameGomoku, roster("a", "b"))
	require.NoError(t, err)

	res := m.MakeMove(s, "a", Place(7, 7))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "b", res.State.Current())

	// The legacy client omits the action field.
	res = m.MakeMove(res.State, "b", MoveRequest{X: intp(8), Y: intp(8)})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "a", res.State.Current())

	cases := []struct {
		name string
		req  MoveRequest
		code domain.ErrorCode
	}{
		{"missing y", MoveRequest{Action: ActionGomokuPlace, X: intp(1)}, domain.CodeInvalidAction},
		{"card action", MoveRequest{Action: ActionCbmfsEnd}, domain.CodeInvalidAction},
		{"occupied", Place(7, 7), domain.CodeCellOccupied},
		{"off board", Place(15, 0), domain.CodeOutOfBounds},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := Clone(res.State)
			got := m.MakeMove(res.State, "a", tc.req)
			assert.False(t, got.Success)
			assert.Equal(t, tc.code, got.Code)
			assert.NotEmpty(t, got.Error)
			assert.Same(t, res.State, got.State)
			assert.Equal(t, before, got.State)
		})
	}
}

func TestMakeMoveCbmfs(t *testing.T) {
	m := newTestManager()
	s, err := m.CreateGame(domain.GameCbmfs, roster("a", "b"))
	require.NoError(t, err)

	res := m.MakeMove(s, "a", MoveRequest{Action: ActionCbmfsEnd})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "b", res.State.Current())

	bad := []MoveRequest{
		{Action: ActionGomokuPlace, X: intp(0), Y: intp(0)},
		{X: intp(0), Y: intp(0)},
		{Action: ActionCbmfsCast, SpellType: "meteor"},
		{Action: ActionCbmfsCast},
	}
	for _, req := range bad {
		got := m.MakeMove(res.State, "b", req)
		assert.False(t, got.Success)
		assert.Equal(t, domain.CodeInvalidAction, got.Code)
		assert.Same(t, res.State, got.State)
	}

	got := m.MakeMove(res.State, "a", MoveRequest{Action: ActionCbmfsEnd})
	assert.Equal(t, domain.CodeNotYourTurn, got.Code)

	got = m.MakeMove(res.State, "z", MoveRequest{Action: ActionCbmfsEnd})
	assert.Equal(t, domain.CodeNotInGame, got.Code)

	// turn order is checked before the spell name
	got = m.MakeMove(res.State, "a", MoveRequest{Action: ActionCbmfsCast, SpellType: "meteor"})
	assert.Equal(t, domain.CodeNotYourTurn, got.Code)

	card := res.State.(*cbmfs.State).Hands["b"][0]
	got = m.MakeMove(res.State, "b", MoveRequest{Action: ActionCbmfsCast, SpellType: "  " + string(card) + " "})
	assert.True(t, got.Success, got.Error)
}

func TestMakeMoveWithoutState(t *testing.T) {
	m := newTestManager()
	res := m.MakeMove(nil, "a", Place(0, 0))
	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeUnknownGameType, res.Code)

	var empty *gomoku.State
	res = m.MakeMove(empty, "a", Place(0, 0))
	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeInvalidAction, res.Code)
}

func TestEncodeDecodeKeepsVariant(t *testing.T) {
	m := newTestManager()
	g, err := m.CreateGame(domain.GameGomoku, roster("a", "b"))
	require.NoError(t, err)
	g = m.MakeMove(g, "a", Place(3, 4)).State

	c, err := m.CreateGame(domain.GameCbmfs, roster("a", "b", "c"))
	require.NoError(t, err)

	for _, s := range []State{g, c} {
		raw, err := Encode(s)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"type":"`+string(s.GameType())+`"`)

		back, err := Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, s, back)
	}

	_, err = Decode([]byte(`{"type":"chess"}`))
	require.ErrorIs(t, err, domain.ErrUnknownGameType)
	_, err = Decode(nil)
	require.ErrorIs(t, err, ErrEmptyState)
}
