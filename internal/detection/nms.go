package detection

import "github.com/mvaldenegro/auv-perception/internal/geometry"

// Suppress reduces overlapping proposals with greedy non-maximum suppression.
//
// Proposals are processed in the order given, not by score. Each incoming
// proposal is compared against the kept list; the kept entry with the highest
// IoU (the earliest one on ties) is its match. When that IoU exceeds
// iouThreshold the match is replaced only if the incoming score is strictly
// higher, otherwise the incoming proposal is dropped. When it does not exceed
// the threshold the proposal is appended as a new kept entry.
//
// Because the first proposal of a cluster becomes its anchor, the output
// depends on input order. A replaced entry keeps its position in the output.
func Suppress(proposals []Proposal, iouThreshold float64) []Proposal {
	kept := make([]Proposal, 0, len(proposals))

	for _, p := range proposals {
		if len(kept) == 0 {
			kept = append(kept, p)
			continue
		}

		idx, iou := bestOverlap(p.Window, kept)
		if iou > iouThreshold {
			if kept[idx].Score < p.Score {
				kept[idx] = p
			}
			continue
		}

		kept = append(kept, p)
	}

	return kept
}

// bestOverlap returns the index and IoU of the kept proposal overlapping w the
// most. kept must not be empty.
func bestOverlap(w geometry.Rectangle, kept []Proposal) (int, float64) {
	bestIdx, bestIoU := 0, -1.0
	for i, k := range kept {
		if iou := w.IoU(k.Window); iou > bestIoU {
			bestIdx, bestIoU = i, iou
		}
	}
	return bestIdx, bestIoU
}
