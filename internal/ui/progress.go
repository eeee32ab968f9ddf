package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// ProgressBar creates and manages progress bars
type ProgressBar struct {
	bar   *progressbar.ProgressBar
	label string
}

// NewProgressBar creates a new progress bar on stderr
func NewProgressBar(count int, label string) *ProgressBar {
	return newProgressBar(count, label, os.Stderr)
}

func newProgressBar(count int, label string, w io.Writer) *ProgressBar {
	p := &ProgressBar{label: label}
	p.bar = progressbar.NewOptions(count,
		progressbar.OptionSetDescription(p.describe(0, 0)),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(w),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
	return p
}

func (p *ProgressBar) describe(done, failed int) string {
	return color.CyanString("%s: ", p.label) +
		color.GreenString("[done: %d", done) +
		" | " +
		color.RedString("failed: %d]", failed)
}

// SetTotal changes the number of expected items
func (p *ProgressBar) SetTotal(count int) {
	p.bar.ChangeMax(count)
}

// Update updates the progress bar with done and failed counts
func (p *ProgressBar) Update(done, failed int) {
	_ = p.bar.Set(done + failed)
	p.bar.Describe(p.describe(done, failed))
}

// Finish completes the progress bar
func (p *ProgressBar) Finish() {
	_ = p.bar.Finish()
}
