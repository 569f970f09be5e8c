// Package progressbar implements functionality of printing a progress
// bar to the terminal window
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressBar implements a progress bar that must be manually managed.
// That is, Display must be called whenever an updated progress bar
// should be printed. Each display overwrites the previous one.
//
// ProgressBar does not use concurrency.
type ProgressBar struct {
	out             io.Writer
	width           float64
	maxProgress     float64
	currentProgress float64
	startTime       time.Time
}

// New returns a new ProgressBar which is width characters wide, reaches
// 100% after max calls to Increment, and prints to out
func New(out io.Writer, width, max int) *ProgressBar {
	if max <= 0 {
		panic(fmt.Sprintf("new: max progress must be positive but got %v",
			max))
	}
	return &ProgressBar{
		out:         out,
		width:       float64(width),
		maxProgress: float64(max),
		startTime:   time.Now(),
	}
}

// Increment increments the interal progress counter. Each time an
// iteration is performed, Increment should be called.
func (p *ProgressBar) Increment() {
	if p.currentProgress < p.maxProgress {
		p.currentProgress++
	}
}

// Done returns whether the progress bar is full
func (p *ProgressBar) Done() bool {
	return p.currentProgress >= p.maxProgress
}

// Display prints the progress bar followed by status, overwriting the
// previously displayed bar
func (p *ProgressBar) Display(status string) {
	fmt.Fprintf(p.out, "\n\033[1A\033[K%v", p.Bar(status))
}

// Close prints a newline so that further output starts below the bar
func (p *ProgressBar) Close() {
	fmt.Fprintln(p.out)
}

// Bar returns the progress bar followed by status
func (p *ProgressBar) Bar(status string) string {
	var bar strings.Builder
	bar.WriteString("|")

	currentProg := p.currentProgress / p.maxProgress * p.width
	for i := 0.0; i < currentProg; i++ {
		bar.WriteString("█")
	}
	for i := currentProg; i < p.width; i++ {
		bar.WriteString(" ")
	}

	fmt.Fprintf(&bar, "| [%.2f%% | elapsed: %v]",
		p.currentProgress/p.maxProgress*100,
		time.Since(p.startTime).Truncate(time.Second))
	if status != "" {
		fmt.Fprintf(&bar, " %v", status)
	}
	return bar.String()
}
