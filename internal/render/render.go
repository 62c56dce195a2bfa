package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/mvaldenegro/auv-perception/internal/detection"
	"github.com/mvaldenegro/auv-perception/internal/geometry"
)

// Options controls Proposals.
type Options struct {
	// LowColor and HighColor are the hex colors for scores 0 and 1.
	LowColor  string
	HighColor string

	// GroundTruthColor is the hex color of ground-truth boxes.
	GroundTruthColor string

	// Thickness is the outline width in pixels.
	Thickness int

	// ShowScores prints each proposal's score above its box.
	ShowScores bool
}

// DefaultOptions returns a blue-to-red score ramp with green ground truth.
func DefaultOptions() Options {
	return Options{
		LowColor:         "#0000ff",
		HighColor:        "#ff0000",
		GroundTruthColor: "#00ff00",
		Thickness:        1,
	}
}

// Proposals returns a copy of base with proposal and ground-truth outlines.
// Ground truth is drawn last so it stays visible under overlapping proposals.
func Proposals(base image.Image, proposals []detection.Proposal, groundTruth []geometry.Rectangle, opts Options) (*image.RGBA, error) {
	ramp, err := NewRamp(opts.LowColor, opts.HighColor)
	if err != nil {
		return nil, err
	}
	gtColor, err := parseHexColor(opts.GroundTruthColor)
	if err != nil {
		return nil, fmt.Errorf("ground truth color: %w", err)
	}
	thickness := max(opts.Thickness, 1)

	b := base.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), base, b.Min, draw.Src)

	for _, p := range proposals {
		c := ramp.At(p.Score)
		outline(out, p.Window, c, thickness)
		if opts.ShowScores {
			drawLabel(out, p.Window.Left(), p.Window.Top()-8, fmt.Sprintf("%.2f", p.Score), c, color.RGBA{0, 0, 0, 180})
		}
	}
	for _, r := range groundTruth {
		outline(out, r, gtColor, thickness)
	}

	return out, nil
}

// Ramp maps scores in [0, 1] to colors.
type Ramp struct {
	low, high colorful.Color
}

// NewRamp parses the two end colors of a score ramp.
func NewRamp(lowHex, highHex string) (*Ramp, error) {
	low, err := colorful.Hex(lowHex)
	if err != nil {
		return nil, fmt.Errorf("low color %q: %w", lowHex, err)
	}
	high, err := colorful.Hex(highHex)
	if err != nil {
		return nil, fmt.Errorf("high color %q: %w", highHex, err)
	}
	return &Ramp{low: low, high: high}, nil
}

// At returns the color for score, clamped to [0, 1]. NaN maps to the low end.
func (r *Ramp) At(score float64) color.RGBA {
	if math.IsNaN(score) {
		score = 0
	}
	score = math.Min(math.Max(score, 0), 1)

	c := r.low.BlendLab(r.high, score).Clamped()
	red, green, blue := c.RGB255()
	return color.RGBA{R: red, G: green, B: blue, A: 255}
}

// parseHexColor parses "#rrggbb" into an opaque color.
func parseHexColor(hex string) (color.RGBA, error) {
	if hex == "" {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// outline draws the border of r, thickness pixels wide, growing inward.
func outline(img *image.RGBA, r geometry.Rectangle, c color.RGBA, thickness int) {
	box := r.Bounds().Intersect(img.Bounds())
	if box.Empty() {
		return
	}

	for i := 0; i < thickness; i++ {
		inner := image.Rect(box.Min.X+i, box.Min.Y+i, box.Max.X-i, box.Max.Y-i)
		if inner.Empty() {
			return
		}
		for x := inner.Min.X; x < inner.Max.X; x++ {
			img.SetRGBA(x, inner.Min.Y, c)
			img.SetRGBA(x, inner.Max.Y-1, c)
		}
		for y := inner.Min.Y; y < inner.Max.Y; y++ {
			img.SetRGBA(inner.Min.X, y, c)
			img.SetRGBA(inner.Max.X-1, y, c)
		}
	}
}
