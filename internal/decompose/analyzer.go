package decompose

import (
	"regexp"
	"strings"
)

const (
	// Prompts scoring below DecomposeThreshold pass through as a single step.
	DecomposeThreshold = 8.0
	// Prompts scoring at or above OptimizeThreshold get the context-window
	// post-pass applied to the plan.
	OptimizeThreshold = 14.0

	featureBonus      = 1.0
	sentenceBonus     = 0.5
	longPromptBonus   = 1.5
	longPromptWords   = 40
	multiSentenceFrom = 3
)

// complexitySignal weights a pattern by how much generation work it implies.
type complexitySignal struct {
	pattern *regexp.Regexp
	weight  float64
}

var complexitySignals = []complexitySignal{
	{regexp.MustCompile(`(?i)\b(?:login|auth|sign ?in|sign ?up|register)\b`), 2.5},
	{regexp.MustCompile(`(?i)\b(?:payment|checkout|stripe|billing)\b`), 3.0},
	{regexp.MustCompile(`(?i)\b(?:database|api|backend|crud|endpoint)\b`), 2.0},
	{regexp.MustCompile(`(?i)\b(?:real[- ]?time|websocket|live)\b`), 2.5},
	{regexp.MustCompile(`(?i)\b(?:uploads?|file attach)\b`), 2.0},
	{regexp.MustCompile(`(?i)\b(?:dashboard|analytics|chart|graph)\b`), 2.0},
	{regexp.MustCompile(`(?i)\b(?:todo|task|checklist)\b`), 1.5},
	{regexp.MustCompile(`(?i)\b(?:search|filter|pagination)\b`), 1.5},
	{regexp.MustCompile(`(?i)\b(?:form|validation)\b`), 1.0},
	{regexp.MustCompile(`(?i)\b(?:responsive|dark mode|theme|animation)\b`), 1.0},
	{regexp.MustCompile(`(?i)\b(?:and|with|plus|also|then)\b`), 0.5},
	{regexp.MustCompile(`(?i)\b(?:multiple|several|various|full|complete|entire)\b`), 1.0},
}

var sentenceEnd = regexp.MustCompile(`[.!?]+`)

// Analysis is the scored shape of a prompt before planning.
type Analysis struct {
	Score     float64
	Features  []Feature
	Sentences int
	Words     int
}

// Decompose reports whether the prompt is complex enough to split.
func (a Analysis) Decompose() bool { return a.Score >= DecomposeThreshold }

// Analyze scores a prompt: weighted signal matches, a bonus per distinct
// detected feature, and bonuses for long or multi-sentence requests.
func Analyze(prompt string) Analysis {
	a := Analysis{
		Features:  ExtractFeatures(prompt),
		Sentences: countSentences(prompt),
		Words:     len(strings.Fields(prompt)),
	}
	for _, sig := range complexitySignals {
		if sig.pattern.MatchString(prompt) {
			a.Score += sig.weight
		}
	}
	a.Score += float64(len(a.Features)) * featureBonus
	if a.Sentences >= multiSentenceFrom {
		a.Score += float64(a.Sentences-multiSentenceFrom+1) * sentenceBonus
	}
	if a.Words > longPromptWords {
		a.Score += longPromptBonus
	}
	return a
}

func countSentences(s string) int {
	n := 0
	for _, part := range sentenceEnd.Split(s, -1) {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	if n == 0 && strings.TrimSpace(s) != "" {
		n = 1
	}
	return n
}
