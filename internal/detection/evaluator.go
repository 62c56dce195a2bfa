package detection

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"image"

	"github.com/mvaldenegro/auv-perception/internal/geometry"
	"github.com/mvaldenegro/auv-perception/internal/imaging"
)

// Evaluator scores fixed-size window images.
//
// The search crops every candidate window and resizes it to InputSize before
// calling the evaluator. A zero InputSize means windows are passed at their
// native size. Implementations must be safe for concurrent use when the search
// runs with more than one worker.
type Evaluator interface {
	// InputSize returns the window size the evaluator expects.
	InputSize() image.Point

	// Evaluate returns whether the window contains an object, and its score.
	Evaluate(window *image.Gray) (bool, float64)

	// Score returns the window's score without a decision.
	Score(window *image.Gray) float64
}

// ClassEvaluator scores windows and assigns them a class label.
type ClassEvaluator interface {
	InputSize() image.Point
	EvaluateClass(window *image.Gray) (bool, float64, string)
}

// Evaluator modes accepted by NewEvaluator.
const (
	ModeRandom      = "random"
	ModeTemplateCC  = "template-cc"
	ModeTemplateSQD = "template-sqd"
)

// EvaluatorOptions configures NewEvaluator.
type EvaluatorOptions struct {
	// Threshold is the score a window must exceed to be accepted.
	Threshold float64

	// Seed initializes the random evaluator.
	Seed int64

	// InputSize is the window size handed to the evaluator. Template
	// evaluators use their template size instead.
	InputSize image.Point

	// Templates are the positive examples for the template modes.
	Templates []*image.Gray
}

// NewEvaluator builds the evaluator strategy named by mode.
//
// Supported modes:
//   - "random": pseudo-random baseline scores, see RandomEvaluator
//   - "template-cc": normalized cross-correlation template matching
//   - "template-sqd": squared-difference template matching
//
// Any other mode returns a *ConfigurationError.
func NewEvaluator(mode string, opts EvaluatorOptions) (Evaluator, error) {
	switch mode {
	case ModeRandom:
		return NewRandomEvaluator(opts.Seed, opts.Threshold, opts.InputSize), nil
	case ModeTemplateCC, ModeTemplateSQD:
		match := MatchCC
		if mode == ModeTemplateSQD {
			match = MatchSQD
		}
		e, err := NewTemplateEvaluator(opts.Templates, match, opts.Threshold)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, &ConfigurationError{Field: "evaluator mode", Value: mode, Reason: "unknown evaluator"}
	}
}

// RandomEvaluator assigns uniform pseudo-random scores in [0, 1). It serves
// as a baseline against which real scorers are compared.
//
// A score is drawn from the seed and the window's pixels rather than from a
// shared stream, so it does not depend on the order or goroutine in which
// windows are scored. Windows with identical content get identical scores.
type RandomEvaluator struct {
	seed      int64
	threshold float64
	inputSize image.Point
}

// NewRandomEvaluator returns a RandomEvaluator seeded with seed. Windows
// scoring above threshold are accepted.
func NewRandomEvaluator(seed int64, threshold float64, inputSize image.Point) *RandomEvaluator {
	return &RandomEvaluator{
		seed:      seed,
		threshold: threshold,
		inputSize: inputSize,
	}
}

func (e *RandomEvaluator) InputSize() image.Point { return e.inputSize }

func (e *RandomEvaluator) Evaluate(window *image.Gray) (bool, float64) {
	score := e.Score(window)
	return score > e.threshold, score
}

func (e *RandomEvaluator) Score(window *image.Gray) float64 {
	b := window.Bounds()

	h := fnv.New64a()
	var key [24]byte
	binary.LittleEndian.PutUint64(key[0:], uint64(e.seed))
	binary.LittleEndian.PutUint64(key[8:], uint64(b.Dx()))
	binary.LittleEndian.PutUint64(key[16:], uint64(b.Dy()))
	h.Write(key[:])
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := window.PixOffset(b.Min.X, y)
		h.Write(window.Pix[i : i+b.Dx()])
	}

	return float64(mix64(h.Sum64())>>11) / (1 << 53)
}

// mix64 is the splitmix64 finalizer. It spreads FNV's output over all bits.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// labeled adapts an Evaluator into a ClassEvaluator with a fixed label.
type labeled struct {
	Evaluator
	label string
}

// WithClass returns a ClassEvaluator that reports label for every accepted
// window and an empty label for rejected ones.
func WithClass(e Evaluator, label string) ClassEvaluator {
	return labeled{Evaluator: e, label: label}
}

func (l labeled) EvaluateClass(window *image.Gray) (bool, float64, string) {
	ok, score := l.Evaluate(window)
	if !ok {
		return false, score, ""
	}
	return true, score, l.label
}

// fitInput resizes window to size when they differ. A zero size leaves the
// window untouched.
func fitInput(window *image.Gray, size image.Point) (*image.Gray, error) {
	if size == (image.Point{}) || window.Bounds().Size() == size {
		return window, nil
	}

	full, err := geometry.New(geometry.Point{}, window.Bounds().Dx(), window.Bounds().Dy())
	if err != nil {
		return nil, err
	}
	out, err := imaging.CropWindow(window, full, size)
	if err != nil {
		return nil, fmt.Errorf("failed to resize window: %w", err)
	}
	return out, nil
}
