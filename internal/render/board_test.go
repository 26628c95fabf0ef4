package render

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/cheese-rooms/internal/domain"
	"github.com/park285/cheese-rooms/internal/gomoku"
)

func playedState(t *testing.T) *gomoku.State {
	t.Helper()
	eng := gomoku.NewEngine()
	s, err := eng.New([]domain.Player{{ID: "black", Name: "B"}, {ID: "white", Name: "W"}})
	require.NoError(t, err)
	s, err = eng.Play(s, "black", 7, 7)
	require.NoError(t, err)
	s, err = eng.Play(s, "white", 8, 7)
	require.NoError(t, err)
	return s
}

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestRenderPNGDimensions(t *testing.T) {
	r := NewRenderer(Options{})
	data, err := r.RenderPNG(context.Background(), playedState(t))
	require.NoError(t, err)

	img := decode(t, data)
	want := 36*(gomoku.BoardSize-1) + 40*2
	assert.Equal(t, want, img.Bounds().Dx())
	assert.Equal(t, want, img.Bounds().Dy())
}

func TestRenderPNGStoneColors(t *testing.T) {
	r := NewRenderer(Options{Cell: 30, Margin: 30})
	data, err := r.RenderPNG(context.Background(), playedState(t))
	require.NoError(t, err)
	img := decode(t, data)

	// sample above each stone centre, clear of the last-move ring
	lum := func(x, y int) uint32 {
		c := img.At(30+x*30, 30+y*30-9)
		r, g, b, _ := c.RGBA()
		return (r + g + b) / 3
	}
	assert.Less(t, lum(7, 7), uint32(0x7000), "first seat stone is dark")
	assert.Greater(t, lum(8, 7), uint32(0xC000), "second seat stone is light")
	r0, g0, b0, _ := img.At(30+3*30+10, 30+30+10).RGBA()
	assert.InDelta(t, 0xAFAF, (r0+g0+b0)/3, 0x200, "open area shows the board")
}

func TestRenderPNGEmptyBoard(t *testing.T) {
	s, err := gomoku.NewEngine().New([]domain.Player{{ID: "a"}, {ID: "b"}})
	require.NoError(t, err)
	data, err := NewRenderer(Options{}).RenderPNG(context.Background(), s)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestRenderPNGRejectsNil(t *testing.T) {
	_, err := NewRenderer(Options{}).RenderPNG(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilState)
}

func TestRenderPNGCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRenderer(Options{}).RenderPNG(ctx, playedState(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestColumnLabel(t *testing.T) {
	assert.Equal(t, "A", ColumnLabel(0))
	assert.Equal(t, "O", ColumnLabel(gomoku.BoardSize-1))
}
