// Package retry classifies unusable generation output and reworks the
// request before the next attempt.
package retry

import (
	"regexp"
	"strings"
)

// FailureMode is the structural classification of bad output.
type FailureMode string

const (
	FailureNone       FailureMode = ""
	FailureEmpty      FailureMode = "empty-output"
	FailureRepetition FailureMode = "repetition"
	FailureSyntax     FailureMode = "syntax-error"
	FailureIncomplete FailureMode = "incomplete-output"
	FailureFormat     FailureMode = "wrong-format"
	FailureOffTopic   FailureMode = "off-topic"
	FailureUnknown    FailureMode = "unknown"
)

const (
	minOutputChars   = 10
	repetitionUnit   = 50
	repetitionCount  = 3
	repetitionStride = 25
	overlapFloor     = 0.10
)

var (
	codeRequestPattern = regexp.MustCompile(`(?i)\b(?:code|function|component|class|implement|build|write|create)\b|\.\w{1,4}\b`)
	codeTokenPattern   = regexp.MustCompile("[{};]|=>|```|\\bfunc\\b|\\bdef\\b|\\bconst\\b|\\breturn\\b")
	wordPattern        = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
)

// continuation suffixes that suggest the model stopped mid-statement.
var danglingSuffixes = []string{",", ":", "(", "{", "[", "=", "+", "&&", "||", "and", "the", "to", "with"}

// DetectFailureMode classifies output that a caller has judged unusable.
// Checks run in a fixed order; the first match wins. Output that trips no
// check comes back as unknown.
func DetectFailureMode(prompt, output string) FailureMode {
	if mode := detect(prompt, output); mode != FailureNone {
		return mode
	}
	return FailureUnknown
}

// Acceptable reports whether output passes every structural check.
func Acceptable(prompt, output string) bool {
	return detect(prompt, output) == FailureNone
}

func detect(prompt, output string) FailureMode {
	trimmed := strings.TrimSpace(output)
	if len(trimmed) < minOutputChars {
		return FailureEmpty
	}
	if hasRepetition(trimmed) {
		return FailureRepetition
	}
	if unbalancedBrackets(trimmed) {
		return FailureSyntax
	}
	if unterminatedFence(trimmed) || endsDangling(trimmed) {
		return FailureIncomplete
	}
	if codeRequestPattern.MatchString(prompt) && !codeTokenPattern.MatchString(trimmed) {
		return FailureFormat
	}
	if promptOverlap(prompt, trimmed) < overlapFloor {
		return FailureOffTopic
	}
	return FailureNone
}

func hasRepetition(s string) bool {
	for i := 0; i+repetitionUnit <= len(s); i += repetitionStride {
		if strings.Count(s, s[i:i+repetitionUnit]) >= repetitionCount {
			return true
		}
	}
	return false
}

func unbalancedBrackets(s string) bool {
	var braces, brackets, parens int
	for _, r := range s {
		switch r {
		case '{':
			braces++
		case '}':
			braces--
		case '[':
			brackets++
		case ']':
			brackets--
		case '(':
			parens++
		case ')':
			parens--
		}
	}
	return braces != 0 || brackets != 0 || parens != 0
}

func unterminatedFence(s string) bool {
	return strings.Count(s, "```")%2 != 0
}

func endsDangling(s string) bool {
	for _, suffix := range danglingSuffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

// promptOverlap is the fraction of the prompt's significant words that
// appear somewhere in the output.
func promptOverlap(prompt, output string) float64 {
	lower := strings.ToLower(output)
	words := wordPattern.FindAllString(strings.ToLower(prompt), -1)
	total, matched := 0, 0
	for _, w := range words {
		if len(w) < 4 {
			continue
		}
		total++
		if strings.Contains(lower, w) {
			matched++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(matched) / float64(total)
}
