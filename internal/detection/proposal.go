package detection

import (
	"fmt"

	"github.com/mvaldenegro/auv-perception/internal/geometry"
)

// Proposal is a candidate window with the score assigned to it.
type Proposal struct {
	// Window is the candidate region in image coordinates.
	Window geometry.Rectangle `json:"window"`

	// Score is the evaluator or objectness score of the window.
	Score float64 `json:"score"`

	// Class is the label assigned by a class-aware evaluator. Empty otherwise.
	Class string `json:"class,omitempty"`
}

// Bucket holds the proposals that passed one threshold of a multi-threshold search.
type Bucket struct {
	Threshold float64    `json:"threshold"`
	Proposals []Proposal `json:"proposals"`
}

// Buckets is the result of a multi-threshold search, in the order the
// thresholds were supplied.
type Buckets []Bucket

func newBuckets(thresholds []float64) Buckets {
	b := make(Buckets, len(thresholds))
	for i, t := range thresholds {
		b[i] = Bucket{Threshold: t, Proposals: []Proposal{}}
	}
	return b
}

// At returns the proposals of the bucket for threshold, or nil when no bucket
// was created for it.
func (b Buckets) At(threshold float64) []Proposal {
	for _, bucket := range b {
		if bucket.Threshold == threshold {
			return bucket.Proposals
		}
	}
	return nil
}

// Windows returns the windows of proposals in order.
func Windows(proposals []Proposal) []geometry.Rectangle {
	out := make([]geometry.Rectangle, len(proposals))
	for i, p := range proposals {
		out[i] = p.Window
	}
	return out
}

// ConfigurationError reports an invalid search or evaluator setting.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}
