// Package detection generates, scores and reduces object proposals in
// forward-looking sonar images.
//
// # Proposal Search
//
// All search variants share one traversal:
//
//  1. Field of View: extract the polar mask of the image once
//  2. Passes: for each aspect ratio, grow the window from MinWindowSize by
//     ScaleFactor while its larger side stays within MaxWindowSize
//  3. Windows: enumerate the field-of-view windows of each pass at Stride
//  4. Scoring: crop each window, resize it to the evaluator's input size and
//     evaluate it
//
// The variants differ only in what they keep:
//
//   - Proposals: windows the evaluator accepts
//   - ProposalsMultiThreshold: one bucket per threshold, score > threshold
//   - DenseScores: every window, re-centered as a Stride-sized marker
//   - ClassDetections, ClassDetectionsMultiThreshold: as above with class labels
//   - ObjectnessProposals: no evaluator, the value of a precomputed objectness
//     map at each window center, value >= threshold
//
// # Evaluators
//
// Scoring is delegated to the Evaluator interface. Learned models live outside
// this package; the built-in strategies are a seeded random baseline and
// template matching by correlation or squared difference.
//
// # Ordering
//
// Results are returned in traversal order: aspect ratios in order, scales
// ascending, and windows column by column. Parallel evaluation (Workers > 1)
// writes into index-ordered slots, so the output is identical to a sequential
// run for a deterministic evaluator.
//
// Suppress depends on that order. It keeps the first proposal of an
// overlapping cluster as the anchor and replaces it only with a strictly
// higher score, so sorting proposals before suppression changes the result.
//
// # Evaluation
//
// BestMatch and ComputeRecall measure how well a proposal set covers labeled
// ground truth.
package detection
