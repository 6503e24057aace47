package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// ProgressDisplay renders a single-line progress bar for the download
// phase and batch status lines for the resolution phase. All methods are
// no-ops in quiet mode. It is driven from a single goroutine (the result
// collector), so it keeps no locks.
type ProgressDisplay struct {
	total     int
	completed int
	failed    int
	startTime time.Time
}

// NewProgressDisplay creates a progress display for total tasks.
func NewProgressDisplay(total int) *ProgressDisplay {
	return &ProgressDisplay{
		total:     total,
		startTime: time.Now(),
	}
}

// ScanningBatch prints the resolution status for one asset-URL batch.
func ScanningBatch(batch, totalBatches int) {
	if IsQuietMode() {
		return
	}
	fmt.Printf("\r%s resolving batch %d/%d", Magenta("[SCANNING]"), batch, totalBatches)
	if batch == totalBatches {
		fmt.Println()
	}
}

// TaskDone records one finished transfer and redraws the progress line.
func (p *ProgressDisplay) TaskDone(filename string, ok bool) {
	p.completed++
	if !ok {
		p.failed++
	}
	if IsQuietMode() {
		return
	}
	fmt.Printf("\r%s %s %s", Green("[DOWNLOADING]"), p.bar(), Dim(filename))
}

// Complete finishes the progress line and prints the elapsed time.
func (p *ProgressDisplay) Complete() {
	if IsQuietMode() {
		return
	}
	fmt.Printf("\r%s %s in %s\n",
		Green("[DONE]"),
		p.bar(),
		time.Since(p.startTime).Round(time.Millisecond))
}

// bar renders the progress bar with the completed/total counters.
func (p *ProgressDisplay) bar() string {
	const width = 20
	filled := 0
	if p.total > 0 {
		filled = p.completed * width / p.total
	}
	if filled > width {
		filled = width
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	status := fmt.Sprintf("[%s] %d/%d", bar, p.completed, p.total)
	if p.failed > 0 {
		status += " " + Red(fmt.Sprintf("(%d failed)", p.failed))
	}
	return status
}
