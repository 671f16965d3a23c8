package token

import (
	"fmt"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Calibrator feeds an Estimator with reference counts from a real BPE
// encoding. The heuristic estimator stays the source of truth for all
// estimates; the calibrator only supplies Record samples.
type Calibrator struct {
	enc       *tiktoken.Tiktoken
	estimator *Estimator
}

// NewCalibrator creates a Calibrator using the cl100k_base encoding, a
// reasonable reference for all current chat providers.
func NewCalibrator(est *Estimator) (*Calibrator, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("token: get encoding: %w", err)
	}
	return &Calibrator{enc: enc, estimator: est}, nil
}

// Observe counts text with the reference encoding and records the sample.
// Returns the reference count.
func (c *Calibrator) Observe(text string) int {
	n := len(c.enc.Encode(text, nil, nil))
	c.estimator.Record(text, n)
	return n
}

// ObserveAll records a batch of texts and returns the total reference count.
func (c *Calibrator) ObserveAll(texts []string) int {
	total := 0
	for _, t := range texts {
		total += c.Observe(t)
	}
	return total
}
