// Package token provides heuristic token estimation with optional
// self-calibration against observed provider counts.
package token

import (
	"math"
	"regexp"
	"strings"
	"sync"
)

// Per-span character densities. Each pass removes its matches before the
// next pass runs, so a span is only ever counted once.
const (
	fenceCharsPerToken = 3.5
	urlCharsPerToken   = 2.5
	pathCharsPerToken  = 3.0
	digitsPerToken     = 3.0
	punctTokenWeight   = 0.7
	structuralOverhead = 3

	// Calibration engages once this many samples have been recorded and the
	// mean ratio lies inside [minRatio, maxRatio].
	minCalibrationSamples = 10
	minRatio              = 0.5
	maxRatio              = 2.0

	// DefaultCalibrationWindow bounds the ring of retained samples so a
	// provider swap re-converges instead of being averaged into history.
	DefaultCalibrationWindow = 200
)

var (
	fencePattern = regexp.MustCompile("(?s)```.*?```")
	urlPattern   = regexp.MustCompile(`https?://[^\s)\]}"']+`)
	pathPattern  = regexp.MustCompile(`(?:[A-Za-z0-9_.-]+/){1,}[A-Za-z0-9_.-]+`)
	digitPattern = regexp.MustCompile(`\d+`)
	punctPattern = regexp.MustCompile(`[{}()\[\]<>;:,.!?'"=+\-*/\\|&^%$#@~]`)
)

// Estimator approximates model token counts without a real tokenizer.
// The zero value is not usable; construct with NewEstimator.
type Estimator struct {
	mu      sync.Mutex
	window  int
	samples []float64 // ring of actual/estimated ratios
	next    int       // ring write position
	filled  bool
}

// NewEstimator creates an Estimator with the default calibration window.
func NewEstimator() *Estimator {
	return NewEstimatorWindow(DefaultCalibrationWindow)
}

// NewEstimatorWindow creates an Estimator retaining at most window
// calibration samples. window <= 0 falls back to the default.
func NewEstimatorWindow(window int) *Estimator {
	if window <= 0 {
		window = DefaultCalibrationWindow
	}
	return &Estimator{window: window}
}

// Estimate returns a non-negative approximate token count for text.
// Deterministic for a fixed calibration state; appending non-trivial text
// never decreases the result.
func (e *Estimator) Estimate(text string) int {
	raw := rawEstimate(text)
	e.mu.Lock()
	factor := e.factorLocked()
	e.mu.Unlock()
	scaled := int(math.Round(raw * factor))
	if scaled < 0 {
		return 0
	}
	return scaled
}

// Record feeds back the provider's actual token count for a previously
// estimated text, updating the calibration ratio.
func (e *Estimator) Record(text string, actualTokens int) {
	if actualTokens <= 0 {
		return
	}
	raw := rawEstimate(text)
	if raw <= 0 {
		return
	}
	ratio := float64(actualTokens) / raw

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.samples) < e.window {
		e.samples = append(e.samples, ratio)
	} else {
		e.samples[e.next] = ratio
		e.filled = true
	}
	e.next = (e.next + 1) % e.window
}

// CalibrationFactor reports the multiplier currently applied to estimates
// (1.0 when calibration has not engaged).
func (e *Estimator) CalibrationFactor() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.factorLocked()
}

// SampleCount reports how many calibration samples are retained.
func (e *Estimator) SampleCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.samples)
}

func (e *Estimator) factorLocked() float64 {
	if len(e.samples) < minCalibrationSamples {
		return 1.0
	}
	var sum float64
	for _, r := range e.samples {
		sum += r
	}
	mean := sum / float64(len(e.samples))
	if mean < minRatio || mean > maxRatio {
		return 1.0
	}
	return mean
}

// rawEstimate applies the layered heuristics with no calibration.
func rawEstimate(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	var tokens float64
	remaining := text

	// Code fences: dense, symbol-heavy content. A fence is never priced
	// below what the same characters cost through the later passes, so
	// closing a fence cannot shrink the estimate of what came before.
	remaining = consume(remaining, fencePattern, func(span string) {
		dense := float64(len(span)) / fenceCharsPerToken
		if plain := plainEstimate(span); plain > dense {
			dense = plain
		}
		tokens += dense
	})

	return tokens + plainEstimate(remaining) + structuralOverhead
}

// plainEstimate prices text through every pass except the fence pass.
func plainEstimate(text string) float64 {
	var tokens float64
	remaining := text

	// URLs tokenize poorly.
	remaining = consume(remaining, urlPattern, func(span string) {
		tokens += float64(len(span)) / urlCharsPerToken
	})

	// File-path-like runs.
	remaining = consume(remaining, pathPattern, func(span string) {
		tokens += float64(len(span)) / pathCharsPerToken
	})

	// Digit runs.
	remaining = consume(remaining, digitPattern, func(span string) {
		tokens += math.Ceil(float64(len(span)) / digitsPerToken)
	})

	// Punctuation, typically fractional tokens.
	remaining = consume(remaining, punctPattern, func(string) {
		tokens += punctTokenWeight
	})

	// Remaining prose, bucketed by word length.
	for _, word := range strings.Fields(remaining) {
		n := len(word)
		switch {
		case n <= 4:
			tokens++
		case n <= 8:
			tokens += 1.3
		default:
			tokens += math.Ceil(float64(n) / 4.0)
		}
	}

	return tokens
}

// consume invokes fn for every match of p in s and returns s with the
// matched spans replaced by a single space.
func consume(s string, p *regexp.Regexp, fn func(span string)) string {
	matches := p.FindAllString(s, -1)
	if len(matches) == 0 {
		return s
	}
	for _, m := range matches {
		fn(m)
	}
	return p.ReplaceAllString(s, " ")
}
