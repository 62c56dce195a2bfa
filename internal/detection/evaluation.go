package detection

import (
	"gonum.org/v1/gonum/stat"

	"github.com/mvaldenegro/auv-perception/internal/geometry"
)

// BestMatch returns the rectangle in set with the highest IoU against
// candidate, and that IoU. Ties keep the earliest rectangle. ok is false when
// set is empty, in which case the IoU is 0.
func BestMatch(candidate geometry.Rectangle, set []geometry.Rectangle) (best geometry.Rectangle, iou float64, ok bool) {
	iou = -1
	for _, r := range set {
		if v := candidate.IoU(r); v > iou {
			best, iou, ok = r, v, true
		}
	}
	if !ok {
		return geometry.Rectangle{}, 0, false
	}
	return best, iou, true
}

// RecallResult is the outcome of ComputeRecall.
type RecallResult struct {
	// Recall is the fraction of ground-truth boxes matched above the threshold.
	Recall float64 `json:"recall"`

	// IoUs holds the best IoU found for each ground-truth box, in input order.
	IoUs []float64 `json:"ious"`

	// Matched is the number of ground-truth boxes counted as recalled.
	Matched int `json:"matched"`
}

// ComputeRecall matches every ground-truth box to its best proposal and
// reports the fraction whose IoU strictly exceeds iouThreshold.
//
// An empty groundTruth yields a recall of 1. A ground-truth box with no
// proposals to match gets an IoU of 0.
func ComputeRecall(groundTruth, proposals []geometry.Rectangle, iouThreshold float64) RecallResult {
	if len(groundTruth) == 0 {
		return RecallResult{Recall: 1, IoUs: []float64{}}
	}

	hits := make([]float64, len(groundTruth))
	ious := make([]float64, len(groundTruth))
	matched := 0

	for i, gt := range groundTruth {
		_, iou, _ := BestMatch(gt, proposals)
		ious[i] = iou
		if iou > iouThreshold {
			hits[i] = 1
			matched++
		}
	}

	return RecallResult{
		Recall:  stat.Mean(hits, nil),
		IoUs:    ious,
		Matched: matched,
	}
}
