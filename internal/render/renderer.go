package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	"github.com/park285/cheese-board/internal/rules"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	DefaultSquarePx = 64
	captionHeight   = 28
)

// Options controls overlays drawn on top of the board.
type Options struct {
	Selected *rules.Square
	Targets  []rules.Square
	Caption  string
}

// Renderer draws piece sets as PNG images. Rank 7 is at the top.
type Renderer struct {
	squarePx int
}

func New(squarePx int) *Renderer {
	if squarePx <= 0 {
		squarePx = DefaultSquarePx
	}
	return &Renderer{squarePx: squarePx}
}

func (r *Renderer) SquarePx() int { return r.squarePx }

func (r *Renderer) RenderPNG(ctx context.Context, pieces []rules.Piece, opts Options) ([]byte, error) {
	img, err := r.Render(ctx, pieces, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Render draws the board into an RGBA image.
func (r *Renderer) Render(ctx context.Context, pieces []rules.Piece, opts Options) (*image.RGBA, error) {
	sq := r.squarePx
	margin := sq / 2
	boardPx := sq * rules.BoardSize
	top := margin
	caption := strings.TrimSpace(opts.Caption)
	if caption != "" {
		top += captionHeight
	}
	origin := image.Point{X: margin, Y: top}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, boardPx+margin*2, boardPx+top+margin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	if caption != "" {
		drawCaption(img, caption, image.Rect(0, margin/2, img.Bounds().Dx(), margin/2+captionHeight))
	}
	drawSquares(img, sq, origin)
	if opts.Selected != nil && rules.InBounds(*opts.Selected) {
		drawSquareOverlay(img, *opts.Selected, sq, origin, selectedColor)
	}
	for _, p := range pieces {
		if !rules.InBounds(p.Square) {
			continue
		}
		pimg, err := renderPieceImage(p, sq)
		if err != nil {
			return nil, err
		}
		imagedraw.Draw(img, squareRect(p.Square, sq, origin), pimg, image.Point{}, imagedraw.Over)
	}
	for _, t := range opts.Targets {
		if !rules.InBounds(t) {
			continue
		}
		rect := squareRect(t, sq, origin)
		center := image.Point{X: rect.Min.X + sq/2, Y: rect.Min.Y + sq/2}
		drawDisc(img, center, sq/6, targetColor)
	}
	drawCoordinates(img, sq, origin, margin)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return img, nil
}

var (
	backgroundColor     = color.RGBA{R: 28, G: 31, B: 46, A: 255}
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	selectedColor       = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	targetColor         = color.NRGBA{R: 8, G: 214, B: 120, A: 200}
	captionTextColor    = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	coordinateTextColor = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
)

func drawSquares(dst imagedraw.Image, squareSize int, origin image.Point) {
	for rank := 0; rank < rules.BoardSize; rank++ {
		for file := 0; file < rules.BoardSize; file++ {
			s := rules.Square{File: file, Rank: rank}
			imagedraw.Draw(dst, squareRect(s, squareSize, origin), image.NewUniform(squareColor(s)), image.Point{}, imagedraw.Src)
		}
	}
}

func drawSquareOverlay(img *image.RGBA, s rules.Square, squareSize int, origin image.Point, clr color.Color) {
	imagedraw.Draw(img, squareRect(s, squareSize, origin), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawCaption(dst imagedraw.Image, text string, rect image.Rectangle) {
	drawer := &font.Drawer{Dst: dst, Face: basicfont.Face7x13, Src: image.NewUniform(captionTextColor)}
	metrics := drawer.Face.Metrics()
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawCenteredText(drawer, text, rect.Min.X+rect.Dx()/2, baseline)
}

func drawCoordinates(dst imagedraw.Image, squareSize int, origin image.Point, margin int) {
	drawer := &font.Drawer{Dst: dst, Face: basicfont.Face7x13, Src: image.NewUniform(coordinateTextColor)}
	ascent := drawer.Face.Metrics().Ascent.Ceil()
	boardEndY := origin.Y + rules.BoardSize*squareSize

	for i := 0; i < rules.BoardSize; i++ {
		rankRect := squareRect(rules.Square{File: 0, Rank: i}, squareSize, origin)
		drawCenteredText(drawer, fmt.Sprintf("%d", i+1), origin.X-margin/2, rankRect.Min.Y+squareSize/2+ascent/2)

		fileRect := squareRect(rules.Square{File: i, Rank: 0}, squareSize, origin)
		drawCenteredText(drawer, string(rune('a'+i)), fileRect.Min.X+squareSize/2, boardEndY+ascent)
	}
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func drawDisc(img *image.RGBA, center image.Point, radius int, clr color.Color) {
	rSquared := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y > rSquared {
				continue
			}
			p := image.Point{X: center.X + x, Y: center.Y + y}
			if !p.In(img.Bounds()) {
				continue
			}
			imagedraw.Draw(img, image.Rect(p.X, p.Y, p.X+1, p.Y+1), image.NewUniform(clr), image.Point{}, imagedraw.Over)
		}
	}
}

func squareRect(s rules.Square, squareSize int, origin image.Point) image.Rectangle {
	row := rules.BoardSize - 1 - s.Rank
	x := origin.X + s.File*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func squareColor(s rules.Square) color.Color {
	if (s.File+s.Rank)%2 == 0 {
		return darkSquare
	}
	return lightSquare
}
