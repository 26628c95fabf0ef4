package wsapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/cheese-rooms/internal/cbmfs"
	"github.com/park285/cheese-rooms/internal/domain"
	"github.com/park285/cheese-rooms/internal/gomoku"
)

func cardState(t *testing.T) *cbmfs.State {
	t.Helper()
	s, err := cbmfs.NewEngine(domain.NewSeededDice(3, 5)).New([]domain.Player{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"}})
	require.NoError(t, err)
	return s
}

func TestProjectorHidesOtherHands(t *testing.T) {
	s := cardState(t)
	v, ok := projector{hideHands: true}.state(s, "b").(cbmfsView)
	require.True(t, ok)
	assert.Len(t, v.Hands["b"], cbmfs.HandSize)
	assert.Empty(t, v.Hands["a"])
	assert.NotNil(t, v.Hands["a"])
	assert.Equal(t, map[string]int{"a": 5, "b": 5, "c": 5}, v.HandCounts)
	assert.Len(t, s.Hands["a"], cbmfs.HandSize, "projection leaves the stored state alone")

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"a":[]`)
	assert.Contains(t, string(raw), `"handCounts"`)
	assert.Contains(t, string(raw), `"type":"cbmfs"`)
}

func TestProjectorPassesThrough(t *testing.T) {
	s := cardState(t)
	assert.Same(t, s, projector{}.state(s, "a"))

	g, err := gomoku.NewEngine().New([]domain.Player{{ID: "a"}, {ID: "b"}})
	require.NoError(t, err)
	assert.Same(t, g, projector{hideHands: true}.state(g, "a"))
	assert.Nil(t, projector{hideHands: true}.state(nil, "a"))
}
