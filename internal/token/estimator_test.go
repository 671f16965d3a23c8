package token

import (
	"strings"
	"testing"
)

func TestEstimate_NonNegative(t *testing.T) {
	est := NewEstimator()
	inputs := []string{
		"",
		"   ",
		"hello world",
		"```go\nfunc main() {}\n```",
		"see https://example.com/docs for details",
		"src/internal/token/estimator.go",
		"1234567890",
		"!!!???",
	}
	for _, in := range inputs {
		if got := est.Estimate(in); got < 0 {
			t.Errorf("Estimate(%q) = %d, want >= 0", in, got)
		}
	}
}

func TestEstimate_EmptyIsZero(t *testing.T) {
	est := NewEstimator()
	if got := est.Estimate(""); got != 0 {
		t.Errorf("Estimate(\"\") = %d, want 0", got)
	}
	if got := est.Estimate("  \n\t "); got != 0 {
		t.Errorf("Estimate(whitespace) = %d, want 0", got)
	}
}

func TestEstimate_MonotonicUnderAppend(t *testing.T) {
	est := NewEstimator()
	base := "The quick brown fox jumps over the lazy dog."
	prev := est.Estimate(base)
	text := base
	for i := 0; i < 10; i++ {
		text += " More meaningful words appended to the running text."
		cur := est.Estimate(text)
		if cur < prev {
			t.Fatalf("estimate decreased after append: %d -> %d", prev, cur)
		}
		prev = cur
	}
}

func TestEstimate_MonotonicWhenFenceCloses(t *testing.T) {
	est := NewEstimator()
	open := "```\na b c d e f g h i j k l m n o p\n"
	before := est.Estimate(open)
	after := est.Estimate(open + "```")
	if after < before {
		t.Fatalf("closing a fence decreased the estimate: %d -> %d", before, after)
	}

	// Same property when the fence closes mid-stream with prose following.
	withTail := est.Estimate(open + "```\nand then some trailing prose")
	if withTail < before {
		t.Fatalf("closed fence plus prose decreased the estimate: %d -> %d", before, withTail)
	}
}

func TestEstimate_WordBuckets(t *testing.T) {
	est := NewEstimator()
	short := est.Estimate("cat dog fox owl")
	long := est.Estimate("extraordinarily incomprehensible internationalization considerations")
	if long <= short {
		t.Errorf("long words should estimate higher: short=%d long=%d", short, long)
	}
}

func TestEstimate_CodeFenceDensity(t *testing.T) {
	est := NewEstimator()
	code := "```\n" + strings.Repeat("x := compute(a, b)\n", 20) + "```"
	got := est.Estimate(code)
	// ~400 chars of fence at 3.5 chars/token plus overhead.
	if got < 80 {
		t.Errorf("fence estimate too low: %d", got)
	}
}

func TestRecord_CalibrationEngagesAfterTenSamples(t *testing.T) {
	est := NewEstimator()
	text := "a reasonably sized calibration sample with several plain words"
	before := est.Estimate(text)

	// Nine samples: below the threshold, factor must stay 1.
	for i := 0; i < 9; i++ {
		est.Record(text, int(float64(before)*1.5))
	}
	if f := est.CalibrationFactor(); f != 1.0 {
		t.Fatalf("factor engaged early: %f", f)
	}

	est.Record(text, int(float64(before)*1.5))
	f := est.CalibrationFactor()
	if f < 1.3 || f > 1.7 {
		t.Fatalf("calibration factor = %f, want ~1.5", f)
	}

	after := est.Estimate(text)
	lo := int(float64(before) * 1.3)
	hi := int(float64(before) * 1.7)
	if after < lo || after > hi {
		t.Errorf("calibrated estimate = %d, want within [%d, %d]", after, lo, hi)
	}
}

func TestRecord_OutOfRangeRatioIgnored(t *testing.T) {
	est := NewEstimator()
	text := "short sample text for ratio clamping behaviour checks"
	base := est.Estimate(text)
	for i := 0; i < 12; i++ {
		est.Record(text, base*10) // ratio ~10, outside [0.5, 2.0]
	}
	if f := est.CalibrationFactor(); f != 1.0 {
		t.Errorf("out-of-range mean should not engage, factor = %f", f)
	}
}

func TestRecord_WindowedSamples(t *testing.T) {
	est := NewEstimatorWindow(20)
	text := "windowed calibration sample text with enough plain words here"
	base := est.Estimate(text)

	// Fill the window at ratio ~1.8, then overwrite with ratio ~0.9.
	for i := 0; i < 20; i++ {
		est.Record(text, int(float64(base)*1.8))
	}
	for i := 0; i < 20; i++ {
		est.Record(text, int(float64(base)*0.9))
	}
	if n := est.SampleCount(); n != 20 {
		t.Fatalf("sample count = %d, want 20", n)
	}
	f := est.CalibrationFactor()
	if f > 1.1 {
		t.Errorf("stale ratios should have aged out, factor = %f", f)
	}
}

func TestRecord_IgnoresNonPositiveActuals(t *testing.T) {
	est := NewEstimator()
	est.Record("some text", 0)
	est.Record("some text", -4)
	if n := est.SampleCount(); n != 0 {
		t.Errorf("non-positive actuals recorded: %d samples", n)
	}
}

func TestEstimate_Deterministic(t *testing.T) {
	est := NewEstimator()
	text := "deterministic output for a fixed calibration state ```x=1``` path/to/file.go"
	a := est.Estimate(text)
	b := est.Estimate(text)
	if a != b {
		t.Errorf("estimates differ for identical input: %d vs %d", a, b)
	}
}
