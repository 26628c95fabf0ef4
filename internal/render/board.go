// Package render draws a gomoku board snapshot as PNG.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strconv"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/cheese-rooms/internal/gomoku"
)

var ErrNilState = errors.New("render: nil gomoku state")

var (
	boardColor    = color.RGBA{222, 184, 120, 255}
	frameColor    = color.RGBA{92, 62, 32, 255}
	gridColor     = color.RGBA{60, 40, 20, 255}
	lastMoveColor = color.NRGBA{R: 220, G: 40, B: 40, A: 255}
	labelColor    = color.NRGBA{R: 40, G: 40, B: 40, A: 255}
)

// Options controls board geometry.
type Options struct {
	Cell   int // px between grid lines
	Margin int
}

// Renderer renders gomoku states.
type Renderer struct {
	opts Options
}

func NewRenderer(opts Options) *Renderer {
	if opts.Cell <= 0 {
		opts.Cell = 36
	}
	if opts.Margin <= 0 {
		opts.Margin = 40
	}
	return &Renderer{opts: opts}
}

// ColumnLabel returns the letter used for column x (A..O).
func ColumnLabel(x int) string {
	return string(rune('A' + x))
}

// RenderPNG draws s: grid, star points, stones (first seat black), last move marker and labels.
func (r *Renderer) RenderPNG(ctx context.Context, s *gomoku.State) ([]byte, error) {
	if s == nil {
		return nil, ErrNilState
	}
	cell, margin := r.opts.Cell, r.opts.Margin
	span := cell * (gomoku.BoardSize - 1)
	size := span + margin*2
	origin := image.Point{X: margin, Y: margin}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(frameColor), image.Point{}, imagedraw.Src)
	inner := image.Rect(margin/2, margin/2, size-margin/2, size-margin/2)
	imagedraw.Draw(img, inner, image.NewUniform(boardColor), image.Point{}, imagedraw.Src)

	drawGrid(img, origin, cell)
	if err := drawStones(img, s, origin, cell); err != nil {
		return nil, err
	}
	if last, ok := s.LastMove(); ok {
		center := point(origin, cell, last.X, last.Y)
		drawRing(img, center, float64(cell)*0.18, lastMoveColor)
	}
	drawLabels(img, origin, cell, margin)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func point(origin image.Point, cell, x, y int) image.Point {
	return image.Point{X: origin.X + x*cell, Y: origin.Y + y*cell}
}

func drawGrid(img *image.RGBA, origin image.Point, cell int) {
	span := cell * (gomoku.BoardSize - 1)
	line := image.NewUniform(gridColor)
	for i := range gomoku.BoardSize {
		off := i * cell
		imagedraw.Draw(img, image.Rect(origin.X, origin.Y+off, origin.X+span+1, origin.Y+off+1), line, image.Point{}, imagedraw.Src)
		imagedraw.Draw(img, image.Rect(origin.X+off, origin.Y, origin.X+off+1, origin.Y+span+1), line, image.Point{}, imagedraw.Src)
	}
	// star points
	for _, y := range []int{3, 7, 11} {
		for _, x := range []int{3, 7, 11} {
			c := point(origin, cell, x, y)
			imagedraw.Draw(img, image.Rect(c.X-2, c.Y-2, c.X+3, c.Y+3), line, image.Point{}, imagedraw.Src)
		}
	}
}

func drawStones(img *image.RGBA, s *gomoku.State, origin image.Point, cell int) error {
	stoneSize := cell - 2
	for y := range gomoku.BoardSize {
		for x := range gomoku.BoardSize {
			owner := s.Cell(x, y)
			if owner == "" {
				continue
			}
			kind := whiteStone
			if len(s.Players) > 0 && owner == s.Players[0] {
				kind = blackStone
			}
			stone, err := renderStone(kind, stoneSize)
			if err != nil {
				return err
			}
			c := point(origin, cell, x, y)
			tl := image.Point{X: c.X - stoneSize/2, Y: c.Y - stoneSize/2}
			imagedraw.Draw(img, image.Rectangle{Min: tl, Max: tl.Add(image.Pt(stoneSize, stoneSize))}, stone, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

// drawRing strokes a small circle with rasterx.
func drawRing(img *image.RGBA, center image.Point, radius float64, clr color.Color) {
	b := img.Bounds()
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), img, b)
	dasher := rasterx.NewDasher(b.Dx(), b.Dy(), scanner)
	dasher.SetStroke(fixed.I(3), 0, rasterx.RoundCap, nil, rasterx.RoundGap, rasterx.ArcClip, nil, 0)
	dasher.SetColor(clr)
	rasterx.AddCircle(float64(center.X), float64(center.Y), radius, dasher)
	dasher.Draw()
}

func drawLabels(img *image.RGBA, origin image.Point, cell, margin int) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: img, Src: image.NewUniform(labelColor), Face: face}
	ascent := face.Metrics().Ascent.Ceil()
	span := cell * (gomoku.BoardSize - 1)
	for i := range gomoku.BoardSize {
		c := point(origin, cell, i, i)
		drawCenteredText(drawer, ColumnLabel(i), c.X, origin.Y+span+margin/2-2+ascent/2)
		drawCenteredText(drawer, strconv.Itoa(i+1), origin.X-margin/2-2, c.Y+ascent/2)
	}
}

func drawCenteredText(d *font.Drawer, text string, centerX, baseline int) {
	width := d.MeasureString(text).Ceil()
	d.Dot = fixed.P(centerX-width/2, baseline)
	d.DrawString(text)
}
