package detection

import (
	"context"
	"image"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/mvaldenegro/auv-perception/internal/geometry"
	"github.com/mvaldenegro/auv-perception/internal/imaging"
	"github.com/mvaldenegro/auv-perception/internal/polar"
)

// SearchOptions controls the multi-scale sliding-window search.
type SearchOptions struct {
	// MinWindowSize is the window height at scale 1.
	MinWindowSize int

	// MaxWindowSize bounds the larger window side; scales stop once exceeded.
	MaxWindowSize int

	// ScaleFactor multiplies the scale between passes. Must exceed 1.
	ScaleFactor float64

	// AspectRatios are width/height ratios, searched in order.
	AspectRatios []float64

	// Stride is the step between window positions, in pixels.
	Stride int

	// NMS applies Suppress to every output list when set.
	NMS bool

	// NMSThreshold is the IoU above which NMS merges two proposals.
	NMSThreshold float64

	// Workers is the number of concurrent evaluator calls. Values below 2
	// evaluate windows sequentially.
	Workers int

	// Logger receives per-pass debug records. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultSearchOptions returns a single-scale 96x96 search with stride 8.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MinWindowSize: 96,
		MaxWindowSize: 96,
		ScaleFactor:   1.5,
		AspectRatios:  []float64{1.0},
		Stride:        8,
		NMSThreshold:  0.5,
		Workers:       1,
	}
}

// Validate reports the first invalid option as a *ConfigurationError.
func (o SearchOptions) Validate() error {
	switch {
	case o.MinWindowSize <= 0:
		return &ConfigurationError{Field: "min window size", Value: o.MinWindowSize, Reason: "must be positive"}
	case o.MaxWindowSize < o.MinWindowSize:
		return &ConfigurationError{Field: "max window size", Value: o.MaxWindowSize, Reason: "must be at least the min window size"}
	case o.ScaleFactor <= 1:
		return &ConfigurationError{Field: "scale factor", Value: o.ScaleFactor, Reason: "must be greater than 1"}
	case o.Stride <= 0:
		return &ConfigurationError{Field: "stride", Value: o.Stride, Reason: "must be positive"}
	case len(o.AspectRatios) == 0:
		return &ConfigurationError{Field: "aspect ratios", Value: o.AspectRatios, Reason: "at least one is required"}
	case o.NMSThreshold < 0 || o.NMSThreshold > 1:
		return &ConfigurationError{Field: "nms threshold", Value: o.NMSThreshold, Reason: "must be within [0, 1]"}
	}

	for _, ar := range o.AspectRatios {
		if ar <= 0 || math.Floor(float64(o.MinWindowSize)*ar) < 1 {
			return &ConfigurationError{Field: "aspect ratio", Value: ar, Reason: "window width rounds to zero"}
		}
	}
	return nil
}

// WindowSize is one (aspect ratio, scale) pass of the search.
type WindowSize struct {
	AspectRatio float64
	Scale       float64
	Size        image.Point
}

// WindowSizes lists the search passes in traversal order: aspect ratios in
// order, and for each the scales 1, f, f^2, ... while the larger window side
// stays within MaxWindowSize. At scale s the window is
// floor(MinWindowSize*s) high and floor(MinWindowSize*s*ar) wide.
func (o SearchOptions) WindowSizes() []WindowSize {
	var out []WindowSize
	for _, ar := range o.AspectRatios {
		scale := 1.0
		size := windowAt(o.MinWindowSize, scale, ar)
		for max(size.X, size.Y) <= o.MaxWindowSize {
			out = append(out, WindowSize{AspectRatio: ar, Scale: scale, Size: size})
			scale *= o.ScaleFactor
			size = windowAt(o.MinWindowSize, scale, ar)
		}
	}
	return out
}

func windowAt(minSize int, scale, ar float64) image.Point {
	h := int(math.Floor(float64(minSize) * scale))
	w := int(math.Floor(float64(minSize) * scale * ar))
	return image.Pt(w, h)
}

func (o SearchOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// scored is one evaluated window.
type scored struct {
	window   geometry.Rectangle
	accepted bool
	score    float64
	class    string
}

// windowFunc evaluates a cropped window.
type windowFunc func(crop *image.Gray) (bool, float64, string)

// sweep runs the shared traversal: it extracts the polar mask of img once,
// enumerates the field-of-view windows of every pass, crops and resizes each
// to inputSize and hands it to eval. Results come back in traversal order
// regardless of Workers.
func (o SearchOptions) sweep(ctx context.Context, img *image.Gray, inputSize image.Point, eval windowFunc) ([]scored, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	log := o.logger()
	mask := polar.ExtractMask(img)
	imageSize := img.Bounds().Size()

	var out []scored
	for _, pass := range o.WindowSizes() {
		windows, err := polar.SlidingWindows(imageSize, pass.Size, mask, o.Stride)
		if err != nil {
			return nil, err
		}

		results, err := o.evaluateAll(ctx, img, windows, inputSize, eval)
		if err != nil {
			return nil, err
		}

		accepted := 0
		for _, r := range results {
			if r.accepted {
				accepted++
			}
		}
		log.Debug("search pass",
			"aspect_ratio", pass.AspectRatio,
			"scale", pass.Scale,
			"window", pass.Size,
			"candidates", len(windows),
			"accepted", accepted)

		out = append(out, results...)
	}

	return out, nil
}

func (o SearchOptions) evaluateAll(ctx context.Context, img *image.Gray, windows []geometry.Rectangle, inputSize image.Point, eval windowFunc) ([]scored, error) {
	results := make([]scored, len(windows))

	one := func(ctx context.Context, i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		crop, err := imaging.CropWindow(img, windows[i], inputSize)
		if err != nil {
			return err
		}
		ok, score, class := eval(crop)
		results[i] = scored{window: windows[i], accepted: ok, score: score, class: class}
		return nil
	}

	if o.Workers < 2 {
		for i := range windows {
			if err := one(ctx, i); err != nil {
				return nil, err
			}
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Workers)
	for i := range windows {
		i := i
		g.Go(func() error { return one(gctx, i) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (o SearchOptions) suppress(proposals []Proposal) []Proposal {
	if !o.NMS {
		return proposals
	}
	return Suppress(proposals, o.NMSThreshold)
}

func (o SearchOptions) suppressBuckets(buckets Buckets) Buckets {
	if !o.NMS {
		return buckets
	}
	for i := range buckets {
		buckets[i].Proposals = Suppress(buckets[i].Proposals, o.NMSThreshold)
	}
	return buckets
}

// Proposals searches img and returns every window the evaluator accepts, in
// traversal order, suppressed with NMS when o.NMS is set.
func Proposals(ctx context.Context, img *image.Gray, eval Evaluator, o SearchOptions) ([]Proposal, error) {
	results, err := o.sweep(ctx, img, eval.InputSize(), func(crop *image.Gray) (bool, float64, string) {
		ok, score := eval.Evaluate(crop)
		return ok, score, ""
	})
	if err != nil {
		return nil, err
	}

	proposals := []Proposal{}
	for _, r := range results {
		if r.accepted {
			proposals = append(proposals, Proposal{Window: r.window, Score: r.score})
		}
	}

	return o.suppress(proposals), nil
}

// ProposalsMultiThreshold searches img once and sorts windows into one bucket
// per threshold. A window joins every bucket whose threshold its score
// strictly exceeds; the evaluator's own decision is ignored.
func ProposalsMultiThreshold(ctx context.Context, img *image.Gray, eval Evaluator, thresholds []float64, o SearchOptions) (Buckets, error) {
	results, err := o.sweep(ctx, img, eval.InputSize(), func(crop *image.Gray) (bool, float64, string) {
		ok, score := eval.Evaluate(crop)
		return ok, score, ""
	})
	if err != nil {
		return nil, err
	}

	return o.suppressBuckets(bucketize(results, thresholds)), nil
}

// DenseScores scores every field-of-view window without thresholding. Each
// result is a Stride x Stride marker centered on its window, for rendering
// score density rather than detections.
func DenseScores(ctx context.Context, img *image.Gray, eval Evaluator, o SearchOptions) ([]Proposal, error) {
	results, err := o.sweep(ctx, img, eval.InputSize(), func(crop *image.Gray) (bool, float64, string) {
		return true, eval.Score(crop), ""
	})
	if err != nil {
		return nil, err
	}

	proposals := make([]Proposal, 0, len(results))
	for _, r := range results {
		marker, err := geometry.FromCenter(r.window.Center(), o.Stride, o.Stride)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, Proposal{Window: marker, Score: r.score})
	}

	return proposals, nil
}

// ClassDetections is Proposals for a class-aware evaluator. Every accepted
// proposal carries the evaluator's class label. Like the other variants it
// suppresses with o.NMSThreshold, and only when o.NMS is set.
func ClassDetections(ctx context.Context, img *image.Gray, eval ClassEvaluator, o SearchOptions) ([]Proposal, error) {
	results, err := o.sweep(ctx, img, eval.InputSize(), eval.EvaluateClass)
	if err != nil {
		return nil, err
	}

	proposals := []Proposal{}
	for _, r := range results {
		if r.accepted {
			proposals = append(proposals, Proposal{Window: r.window, Score: r.score, Class: r.class})
		}
	}

	return o.suppress(proposals), nil
}

// ClassDetectionsMultiThreshold is ProposalsMultiThreshold for a class-aware
// evaluator.
func ClassDetectionsMultiThreshold(ctx context.Context, img *image.Gray, eval ClassEvaluator, thresholds []float64, o SearchOptions) (Buckets, error) {
	results, err := o.sweep(ctx, img, eval.InputSize(), eval.EvaluateClass)
	if err != nil {
		return nil, err
	}

	return o.suppressBuckets(bucketize(results, thresholds)), nil
}

func bucketize(results []scored, thresholds []float64) Buckets {
	buckets := newBuckets(thresholds)
	for _, r := range results {
		for i, t := range thresholds {
			if r.score > t {
				buckets[i].Proposals = append(buckets[i].Proposals, Proposal{Window: r.window, Score: r.score, Class: r.class})
			}
		}
	}
	return buckets
}
