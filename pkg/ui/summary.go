package ui

import (
	"fmt"
	"time"
)

// RunSummary tallies the outcome of a multi-item run
type RunSummary struct {
	Downloaded int
	Extracted  int
	Failed     int
	Bytes      int64
	StartTime  time.Time
}

// NewRunSummary creates a summary starting now
func NewRunSummary() *RunSummary {
	return &RunSummary{StartTime: time.Now()}
}

// Record adds one item outcome
func (s *RunSummary) Record(written int64, extracted bool, err error) {
	if err != nil {
		s.Failed++
		return
	}
	s.Downloaded++
	s.Bytes += written
	if extracted {
		s.Extracted++
	}
}

// Print writes the summary lines
func (s *RunSummary) Print() {
	elapsed := time.Since(s.StartTime)

	fmt.Fprintf(Output, "\n%s Downloaded %d item(s), %s in %s\n",
		Green("✓"),
		s.Downloaded,
		FormatBytes(s.Bytes),
		formatDuration(elapsed),
	)
	if s.Extracted > 0 {
		fmt.Fprintf(Output, "  %s %d extracted\n", Dim("•"), s.Extracted)
	}
	if s.Failed > 0 {
		fmt.Fprintf(Output, "  %s %s\n", Dim("•"), Red(fmt.Sprintf("%d failed", s.Failed)))
	}
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
