// Package report turns tracking summaries into comparison output.
//
// RowFromSummary reduces one run (a detector/descriptor combination over a
// frame sequence) to averages: keypoints per frame, keypoint size mean and
// standard deviation, matches per matched pair, and per-stage timings.
// WriteTable prints any number of rows as an aligned table, which is how the
// sweep command compares every combination on the same sequence.
//
// SavePlot draws keypoint and match counts per frame with gonum/plot. The
// output format follows the file extension.
package report
