package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/park285/cheese-board/internal/rules"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Pieces are primitive solids: pawn sphere, rook cube, knight and queen cylinders,
// bishop torus, king box with a crown ring. Each is drawn on a 100x100 view box.
const pieceViewBox = 100

type pieceCacheKey struct {
	typ   rules.PieceType
	color rules.Color
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func renderPieceImage(p rules.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{typ: p.Type, color: p.Color, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	src, err := pieceSVG(p.Type, p.Color)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img, nil
}

func pieceSVG(t rules.PieceType, c rules.Color) ([]byte, error) {
	fill, stroke := "#f4f1ea", "#2b2b2b"
	if c == rules.Black {
		fill, stroke = "#2b2b2b", "#f4f1ea"
	}

	var body string
	switch t {
	case rules.Pawn:
		body = fmt.Sprintf(`<circle cx="50" cy="50" r="22" fill="%s" stroke="%s" stroke-width="4"/>`, fill, stroke)
	case rules.Rook:
		body = fmt.Sprintf(`<rect x="28" y="28" width="44" height="44" fill="%s" stroke="%s" stroke-width="4"/>`, fill, stroke)
	case rules.Knight:
		body = cylinder(fill, stroke, 20, 30, 60)
	case rules.Queen:
		body = cylinder(fill, stroke, 18, 34, 76)
	case rules.Bishop:
		body = fmt.Sprintf(`<circle cx="50" cy="50" r="26" fill="none" stroke="%s" stroke-width="16"/>`+
			`<circle cx="50" cy="50" r="26" fill="none" stroke="%s" stroke-width="10"/>`, stroke, fill)
	case rules.King:
		body = fmt.Sprintf(`<rect x="30" y="34" width="40" height="50" fill="%s" stroke="%s" stroke-width="4"/>`+
			`<circle cx="50" cy="22" r="12" fill="none" stroke="%s" stroke-width="6"/>`, fill, stroke, stroke)
	default:
		return nil, fmt.Errorf("%w: %q", rules.ErrInvalidPieceType, string(t))
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`,
		pieceViewBox, pieceViewBox, pieceViewBox, pieceViewBox)
	b.WriteString(body)
	b.WriteString(`</svg>`)
	return []byte(b.String()), nil
}

// cylinder draws a side view: a body rect capped with an ellipse.
func cylinder(fill, stroke string, radius, width, height int) string {
	x := 50 - width/2
	top := 50 - height/2
	return fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s" stroke="%s" stroke-width="4"/>`+
		`<ellipse cx="50" cy="%d" rx="%d" ry="%d" fill="%s" stroke="%s" stroke-width="4"/>`,
		x, top, width, height, fill, stroke, top, width/2, radius/3, fill, stroke)
}
