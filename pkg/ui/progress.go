package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// DownloadProgress renders the percentage of one download in place.
// When the writer is not a terminal only the final value is printed.
type DownloadProgress struct {
	mu          sync.Mutex
	out         io.Writer
	interactive bool
	width       int
	filename    string
	total       int64
	last        float64
}

// NewDownloadProgress creates a reporter writing to out
func NewDownloadProgress(out io.Writer) *DownloadProgress {
	return &DownloadProgress{
		out:         out,
		interactive: IsTerminal(out),
		width:       Width(out, 80),
	}
}

// Start announces a download
func (p *DownloadProgress) Start(filename string, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.filename = filename
	p.total = total
	p.last = 0
	fmt.Fprintf(p.out, "%s %s %s\n", Cyan("Downloading:"), filename, Dim("("+FormatBytes(total)+")"))
}

// Update redraws the percentage line
func (p *DownloadProgress) Update(percent float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.last = percent
	if !p.interactive {
		return
	}
	line := fmt.Sprintf("%.1f%%", percent)
	pad := p.width - len(line) - 1
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(p.out, "\r%s%s", line, strings.Repeat(" ", pad))
}

// Finish ends the progress line
func (p *DownloadProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.interactive {
		fmt.Fprintln(p.out)
		return
	}
	fmt.Fprintf(p.out, "%.1f%%\n", p.last)
}

// FormatBytes formats bytes in a human-readable way
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
