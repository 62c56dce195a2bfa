package detection

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mvaldenegro/auv-perception/internal/geometry"
)

// rect builds a rectangle, panicking on invalid test input.
func rect(x, y, w, h int) geometry.Rectangle {
	r, err := geometry.New(geometry.Point{X: x, Y: y}, w, h)
	if err != nil {
		panic(err)
	}
	return r
}

func prop(r geometry.Rectangle, score float64) Proposal {
	return Proposal{Window: r, Score: score}
}

var proposalCmp = cmp.AllowUnexported(geometry.Rectangle{})

func TestSuppress(t *testing.T) {
	a := rect(0, 0, 10, 10)
	far := rect(50, 50, 10, 10)

	tests := []struct {
		name      string
		in        []Proposal
		threshold float64
		want      []Proposal
	}{
		{
			name:      "empty",
			in:        nil,
			threshold: 0.5,
			want:      []Proposal{},
		},
		{
			name:      "single proposal unchanged",
			in:        []Proposal{prop(a, 0.7)},
			threshold: 0.5,
			want:      []Proposal{prop(a, 0.7)},
		},
		{
			name:      "disjoint proposals kept",
			in:        []Proposal{prop(a, 0.7), prop(far, 0.2)},
			threshold: 0.5,
			want:      []Proposal{prop(a, 0.7), prop(far, 0.2)},
		},
		{
			name:      "identical boxes keep higher score",
			in:        []Proposal{prop(a, 0.3), prop(a, 0.9)},
			threshold: 0.5,
			want:      []Proposal{prop(a, 0.9)},
		},
		{
			name:      "lower score arriving later is dropped",
			in:        []Proposal{prop(a, 0.9), prop(a, 0.3)},
			threshold: 0.5,
			want:      []Proposal{prop(a, 0.9)},
		},
		{
			name:      "equal score does not replace",
			in:        []Proposal{prop(a, 0.5), prop(rect(1, 0, 10, 10), 0.5)},
			threshold: 0.5,
			want:      []Proposal{prop(a, 0.5)},
		},
		{
			name:      "iou equal to threshold is not an overlap",
			in:        []Proposal{prop(a, 0.5), prop(rect(0, 0, 10, 5), 0.9)},
			threshold: 0.5,
			want:      []Proposal{prop(a, 0.5), prop(rect(0, 0, 10, 5), 0.9)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Suppress(tt.in, tt.threshold)
			if diff := cmp.Diff(tt.want, got, proposalCmp); diff != "" {
				t.Errorf("Suppress() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSuppressOrderDependent(t *testing.T) {
	low := prop(rect(0, 0, 10, 10), 0.2)
	high := prop(rect(2, 0, 10, 10), 0.9)
	third := prop(rect(6, 0, 10, 10), 0.5)

	// low anchors the cluster, high replaces it, third overlaps high and loses.
	got := Suppress([]Proposal{low, high, third}, 0.4)
	if diff := cmp.Diff([]Proposal{high}, got, proposalCmp); diff != "" {
		t.Errorf("order low,high,third (-want +got):\n%s", diff)
	}

	// third anchors first and low is too far from it to merge.
	got = Suppress([]Proposal{third, low, high}, 0.4)
	if diff := cmp.Diff([]Proposal{third, high}, got, proposalCmp); diff != "" {
		t.Errorf("order third,low,high (-want +got):\n%s", diff)
	}
}

func TestSuppressTieGoesToFirstKept(t *testing.T) {
	left := prop(rect(0, 0, 10, 10), 0.1)
	right := prop(rect(20, 0, 10, 10), 0.1)
	middle := prop(rect(5, 0, 20, 10), 0.5)

	if l, r := middle.Window.IoU(left.Window), middle.Window.IoU(right.Window); l != r {
		t.Fatalf("fixture IoUs differ: %v vs %v", l, r)
	}

	got := Suppress([]Proposal{left, right, middle}, 0.1)
	if diff := cmp.Diff([]Proposal{middle, right}, got, proposalCmp); diff != "" {
		t.Errorf("Suppress() mismatch (-want +got):\n%s", diff)
	}
}

func TestSuppressKeepsClass(t *testing.T) {
	in := []Proposal{
		{Window: rect(0, 0, 10, 10), Score: 0.4, Class: "tire"},
		{Window: rect(0, 0, 10, 10), Score: 0.8, Class: "bottle"},
	}

	got := Suppress(in, 0.5)
	if len(got) != 1 || got[0].Class != "bottle" {
		t.Errorf("Suppress() = %+v, want the bottle proposal", got)
	}
}
