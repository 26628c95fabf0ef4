package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

type stoneKind int

const (
	blackStone stoneKind = iota
	whiteStone
)

// stone icons: flat fill plus a translucent highlight
var stoneSVG = map[stoneKind]string{
	blackStone: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">
<circle cx="50" cy="50" r="46" fill="#1a1a1a" stroke="#000000" stroke-width="2"/>
<circle cx="36" cy="36" r="12" fill="#ffffff" fill-opacity="0.15"/></svg>`,
	whiteStone: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">
<circle cx="50" cy="50" r="46" fill="#f2f2f2" stroke="#6b6b6b" stroke-width="2"/>
<circle cx="36" cy="36" r="12" fill="#ffffff" fill-opacity="0.6"/></svg>`,
}

type stoneCacheKey struct {
	kind stoneKind
	size int
}

var (
	stoneCache   = map[stoneCacheKey]image.Image{}
	stoneCacheMu sync.RWMutex
)

func renderStone(kind stoneKind, size int) (image.Image, error) {
	key := stoneCacheKey{kind: kind, size: size}

	stoneCacheMu.RLock()
	if img, ok := stoneCache[key]; ok {
		stoneCacheMu.RUnlock()
		return img, nil
	}
	stoneCacheMu.RUnlock()

	src, ok := stoneSVG[kind]
	if !ok {
		return nil, fmt.Errorf("unknown stone kind %d", kind)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(sanitizeSVG([]byte(src))))
	if err != nil {
		return nil, fmt.Errorf("parse stone svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	stoneCacheMu.Lock()
	stoneCache[key] = img
	stoneCacheMu.Unlock()

	return img, nil
}

func sanitizeSVG(svg []byte) []byte {
	fixed := bytes.ReplaceAll(svg, []byte("fill: #"), []byte("fill:#"))
	fixed = bytes.ReplaceAll(fixed, []byte("stroke: #"), []byte("stroke:#"))
	fixed = bytes.ReplaceAll(fixed, []byte("stop-color: #"), []byte("stop-color:#"))
	return fixed
}
