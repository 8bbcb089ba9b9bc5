package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	progressBarChar   = "█"
	progressEmptyChar = "░"
	progressBarWidth  = 25
)

// StagedProgress tracks progress through nested loops: an outer stage
// (breeds) and an inner substage (images of the current breed). The
// rendered bar shows both counters in its right section, in the form
// "2/7 breeds, 15/50 images".
type StagedProgress struct {
	stage          int
	totalStages    int
	substage       int
	totalSubstages int
	stageUnits     string
	substageUnits  string
	startTime      time.Time
	updates        int
	out            io.Writer
}

// NewStagedProgress creates a progress tracker with the given units
func NewStagedProgress(stageUnits, substageUnits string) *StagedProgress {
	return &StagedProgress{
		stageUnits:    stageUnits,
		substageUnits: substageUnits,
		startTime:     time.Now(),
		out:           os.Stdout,
	}
}

// SetOutput redirects rendering, mainly for tests
func (p *StagedProgress) SetOutput(w io.Writer) {
	p.out = w
}

// ResetStages sets the stage position back to zero for repeated use.
// A negative total leaves the current total unchanged.
func (p *StagedProgress) ResetStages(totalStages int) {
	p.stage = 0
	if totalStages >= 0 {
		p.totalStages = totalStages
	}
}

// UpdateStage advances the outer loop position
func (p *StagedProgress) UpdateStage(diff int) {
	p.stage += diff
	p.updates++
	p.render()
}

// ResetSubstages sets the substage position back to zero for the next
// stage. A negative total leaves the current total unchanged.
func (p *StagedProgress) ResetSubstages(totalSubstages int) {
	p.substage = 0
	if totalSubstages >= 0 {
		p.totalSubstages = totalSubstages
	}
}

// UpdateSubstage advances the inner loop position
func (p *StagedProgress) UpdateSubstage(diff int) {
	p.substage += diff
	p.updates++
	p.render()
}

// position is the current overall progress position
func (p *StagedProgress) position() int {
	if p.totalStages > 0 {
		return p.stage*p.totalSubstages + p.substage
	}
	return p.substage
}

// total is the overall progress span
func (p *StagedProgress) total() int {
	if p.totalStages > 0 {
		return p.totalStages * p.totalSubstages
	}
	return p.totalSubstages
}

// Render formats the progress bar line
func (p *StagedProgress) Render() string {
	total := p.total()
	pos := p.position()

	filled := 0
	if total > 0 {
		ratio := float64(pos) / float64(total)
		if ratio > 1 {
			ratio = 1
		}
		filled = int(ratio * progressBarWidth)
	}
	bar := strings.Repeat(progressBarChar, filled) +
		strings.Repeat(progressEmptyChar, progressBarWidth-filled)

	var stats []string
	if p.totalStages > 0 {
		stats = append(stats, fmt.Sprintf("%d/%d %s", p.stage, p.totalStages, p.stageUnits))
	}
	stats = append(stats, fmt.Sprintf("%d/%d %s", p.substage, p.totalSubstages, p.substageUnits))

	elapsed := time.Since(p.startTime).Round(time.Second)
	rate := 0.0
	if secs := time.Since(p.startTime).Seconds(); secs > 0 {
		rate = float64(p.updates) / secs
	}

	return fmt.Sprintf("[%s] %s [%s, %.1f/s]", bar, strings.Join(stats, ", "), elapsed, rate)
}

// render redraws the bar in place
func (p *StagedProgress) render() {
	if quietMode {
		return
	}
	fmt.Fprintf(p.out, "\r%s", p.Render())
}

// Finish terminates the progress line
func (p *StagedProgress) Finish() {
	if quietMode {
		return
	}
	fmt.Fprintln(p.out)
}
