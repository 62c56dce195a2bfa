package detection

import (
	"context"
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mvaldenegro/auv-perception/internal/polar"
)

// ObjectnessOptions controls window enumeration for objectness-map proposals.
type ObjectnessOptions struct {
	WindowSize   int
	Stride       int
	NMS          bool
	NMSThreshold float64
}

// DefaultObjectnessOptions returns 96x96 windows at stride 8 without NMS.
func DefaultObjectnessOptions() ObjectnessOptions {
	return ObjectnessOptions{WindowSize: 96, Stride: 8, NMSThreshold: 0.5}
}

// ObjectnessProposals proposes every field-of-view window whose center has an
// objectness value of at least threshold. No evaluator is called; the
// objectness map must have the same shape as img (rows = height).
func ObjectnessProposals(ctx context.Context, img *image.Gray, objectness mat.Matrix, threshold float64, o ObjectnessOptions) ([]Proposal, error) {
	buckets, err := ObjectnessProposalsMultiThreshold(ctx, img, objectness, []float64{threshold}, o)
	if err != nil {
		return nil, err
	}
	return buckets[0].Proposals, nil
}

// ObjectnessProposalsMultiThreshold sorts field-of-view windows into one
// bucket per threshold by the objectness value at each window's center. A
// window joins every bucket whose threshold its value meets or exceeds.
func ObjectnessProposalsMultiThreshold(ctx context.Context, img *image.Gray, objectness mat.Matrix, thresholds []float64, o ObjectnessOptions) (Buckets, error) {
	if o.WindowSize <= 0 {
		return nil, &ConfigurationError{Field: "window size", Value: o.WindowSize, Reason: "must be positive"}
	}
	if o.Stride <= 0 {
		return nil, &ConfigurationError{Field: "stride", Value: o.Stride, Reason: "must be positive"}
	}

	size := img.Bounds().Size()
	if rows, cols := objectness.Dims(); rows != size.Y || cols != size.X {
		return nil, fmt.Errorf("objectness map is %dx%d, image is %dx%d", rows, cols, size.Y, size.X)
	}

	mask := polar.ExtractMask(img)
	windows, err := polar.SlidingWindows(size, image.Pt(o.WindowSize, o.WindowSize), mask, o.Stride)
	if err != nil {
		return nil, err
	}

	buckets := newBuckets(thresholds)
	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c := w.Center()
		value := objectness.At(c.Y, c.X)
		for i, t := range thresholds {
			if value >= t {
				buckets[i].Proposals = append(buckets[i].Proposals, Proposal{Window: w, Score: value})
			}
		}
	}

	if o.NMS {
		for i := range buckets {
			buckets[i].Proposals = Suppress(buckets[i].Proposals, o.NMSThreshold)
		}
	}

	return buckets, nil
}

// ResampleObjectness scales m to rows x cols with bilinear interpolation,
// mapping corner samples onto corner samples. It is used to bring a coarse
// dense-scorer response up to image resolution. rows and cols must be
// positive.
func ResampleObjectness(m mat.Matrix, rows, cols int) *mat.Dense {
	inRows, inCols := m.Dims()
	out := mat.NewDense(rows, cols, nil)

	for i := 0; i < rows; i++ {
		y := sourceCoord(i, rows, inRows)
		y0 := int(math.Floor(y))
		y1 := min(y0+1, inRows-1)
		fy := y - float64(y0)

		for j := 0; j < cols; j++ {
			x := sourceCoord(j, cols, inCols)
			x0 := int(math.Floor(x))
			x1 := min(x0+1, inCols-1)
			fx := x - float64(x0)

			top := (1-fx)*m.At(y0, x0) + fx*m.At(y0, x1)
			bottom := (1-fx)*m.At(y1, x0) + fx*m.At(y1, x1)
			out.Set(i, j, (1-fy)*top+fy*bottom)
		}
	}

	return out
}

func sourceCoord(o, outN, inN int) float64 {
	if outN <= 1 || inN <= 1 {
		return 0
	}
	return float64(o) * float64(inN-1) / float64(outN-1)
}

// ObjectnessFromGray reads an 8-bit objectness image as a matrix of values in
// [0, 1].
func ObjectnessFromGray(img *image.Gray) *mat.Dense {
	b := img.Bounds()
	out := mat.NewDense(b.Dy(), b.Dx(), nil)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(y-b.Min.Y, x-b.Min.X, float64(img.GrayAt(x, y).Y)/255)
		}
	}
	return out
}
