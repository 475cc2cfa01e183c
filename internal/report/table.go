package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ironsheep/feature-tracker/internal/tracking"
)

// Row aggregates one detector/descriptor run.
type Row struct {
	Detector     string  `json:"detector"`
	Descriptor   string  `json:"descriptor"`
	Frames       int     `json:"frames"`
	Skipped      int     `json:"skipped"`
	PairErrors   int     `json:"pair_errors"`
	AvgKeypoints float64 `json:"avg_keypoints"`
	AvgSizeMean  float64 `json:"avg_size_mean"`
	AvgSizeStd   float64 `json:"avg_size_std"`
	AvgMatches   float64 `json:"avg_matches"`
	AvgDetectMS  float64 `json:"avg_detect_ms"`
	AvgExtractMS float64 `json:"avg_extract_ms"`
	// Failed holds the configuration error for combinations that could not run.
	Failed string `json:"failed,omitempty"`
}

// RowFromSummary averages the per-frame reports of s. Size statistics only
// count frames with keypoints; match averages only count matched frames.
func RowFromSummary(s *tracking.Summary) Row {
	row := Row{
		Detector:   s.Detector,
		Descriptor: s.Descriptor,
		Frames:     len(s.Frames),
		Skipped:    len(s.Skipped),
		PairErrors: s.PairErrors,
	}
	if len(s.Frames) == 0 {
		return row
	}

	var statFrames, matchFrames int
	var detect, extract time.Duration
	for _, f := range s.Frames {
		row.AvgKeypoints += float64(f.Keypoints)
		detect += f.DetectTime
		extract += f.DescribeTime
		if f.Stats != nil {
			row.AvgSizeMean += f.Stats.Mean
			row.AvgSizeStd += f.Stats.StdDev
			statFrames++
		}
		if f.MatchedWith >= 0 {
			row.AvgMatches += float64(f.Matches)
			matchFrames++
		}
	}

	n := float64(len(s.Frames))
	row.AvgKeypoints /= n
	row.AvgDetectMS = float64(detect) / float64(time.Millisecond) / n
	row.AvgExtractMS = float64(extract) / float64(time.Millisecond) / n
	if statFrames > 0 {
		row.AvgSizeMean /= float64(statFrames)
		row.AvgSizeStd /= float64(statFrames)
	}
	if matchFrames > 0 {
		row.AvgMatches /= float64(matchFrames)
	}
	return row
}

// WriteTable prints rows as an aligned text table.
func WriteTable(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DETECTOR\tDESCRIPTOR\tFRAMES\tSKIPPED\tKEYPOINTS\tSIZE MEAN\tSIZE STD\tMATCHES\tPAIR ERR\tDETECT ms\tEXTRACT ms")
	for _, r := range rows {
		if r.Failed != "" {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\t-\t-\t-\t-\t%s\n", r.Detector, r.Descriptor, r.Failed)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.1f\t%.3f\t%.3f\t%.1f\t%d\t%.2f\t%.2f\n",
			r.Detector, r.Descriptor, r.Frames, r.Skipped, r.AvgKeypoints,
			r.AvgSizeMean, r.AvgSizeStd, r.AvgMatches, r.PairErrors, r.AvgDetectMS, r.AvgExtractMS)
	}
	return tw.Flush()
}
