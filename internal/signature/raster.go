package signature

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	pkgerrors "github.com/freightline/freightline-backend/pkg/errors"
)

// Point is one sampled pen coordinate on the drawing surface.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous pen movement.
type Stroke struct {
	Points []Point `json:"points"`
}

const (
	rasterMaxWidth  = 800
	rasterMaxHeight = 400
	rasterPadding   = 16
	strokeThickness = 2
)

// rasterize renders the strokes as black lines on a white canvas and
// returns the encoded PNG. The drawing is scaled to fit the canvas while
// preserving aspect ratio.
func rasterize(strokes []Stroke) ([]byte, error) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	points := 0
	for _, stroke := range strokes {
		for _, p := range stroke.Points {
			points++
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}
	if points == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptySignature, "signature has no strokes")
	}

	spanX := maxX - minX
	spanY := maxY - minY
	if spanX <= 0 {
		spanX = 1
	}
	if spanY <= 0 {
		spanY = 1
	}

	drawableW := float64(rasterMaxWidth - 2*rasterPadding)
	drawableH := float64(rasterMaxHeight - 2*rasterPadding)
	scale := math.Min(drawableW/spanX, drawableH/spanY)
	if scale > 1 {
		scale = 1
	}

	width := int(spanX*scale) + 2*rasterPadding
	height := int(spanY*scale) + 2*rasterPadding

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	project := func(p Point) (int, int) {
		return rasterPadding + int((p.X-minX)*scale), rasterPadding + int((p.Y-minY)*scale)
	}

	ink := color.RGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xff}
	for _, stroke := range strokes {
		if len(stroke.Points) == 1 {
			x, y := project(stroke.Points[0])
			drawDot(canvas, x, y, ink)
			continue
		}
		for i := 0; i < len(stroke.Points)-1; i++ {
			x0, y0 := project(stroke.Points[i])
			x1, y1 := project(stroke.Points[i+1])
			drawLine(canvas, x0, y0, x1, y1, ink)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode signature image")
	}
	return buf.Bytes(), nil
}

// drawLine walks the segment with Bresenham's algorithm, stamping a small
// dot at each step for thickness.
func drawLine(canvas *image.RGBA, x0, y0, x1, y1 int, ink color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := step(x0, x1)
	sy := step(y0, y1)
	err := dx + dy

	for {
		drawDot(canvas, x0, y0, ink)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func drawDot(canvas *image.RGBA, x, y int, ink color.RGBA) {
	for dx := -strokeThickness / 2; dx <= strokeThickness/2; dx++ {
		for dy := -strokeThickness / 2; dy <= strokeThickness/2; dy++ {
			canvas.Set(x+dx, y+dy, ink)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func step(from, to int) int {
	if from < to {
		return 1
	}
	return -1
}
