package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/weaverhq/weaver/internal/decompose"
	"github.com/weaverhq/weaver/internal/engine"
	"github.com/weaverhq/weaver/internal/retry"
)

func sampleReport() ReportData {
	return ReportData{
		Project: "demo",
		Branch:  "main",
		Prompt:  "Build a todo app with login",
		Reason:  "decomposed into 3 steps",
		Score:   9.5,
		Outcomes: []engine.StepOutcome{
			{
				Step:   decompose.Step{Index: 0, Label: "page layout and navigation", Category: decompose.CategoryLayout},
				Output: "layout code",
			},
			{
				Step:   decompose.Step{Index: 1, Label: "user authentication", Category: decompose.CategoryAuth},
				Output: "auth code",
				Session: &retry.Session{Attempts: []retry.Attempt{
					{Number: 1, Strategy: ""},
					{Number: 2, Strategy: retry.StrategyRephrase, Succeeded: true},
				}},
			},
			{
				Step: decompose.Step{Index: 2, Label: "task management", Category: decompose.CategoryData},
				Err:  errors.New("attempts exhausted"),
			},
		},
	}
}

func TestValidFormats(t *testing.T) {
	formats := ValidFormats()
	if len(formats) != 2 {
		t.Fatalf("expected 2 formats, got %v", formats)
	}
	for _, name := range formats {
		if _, ok := Get(name); !ok {
			t.Errorf("format %q not retrievable", name)
		}
	}
}

func TestMarkdownExport(t *testing.T) {
	e := &MarkdownExporter{}
	out, err := e.Export(sampleReport())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, want := range []string{
		"# Run Report: demo",
		"Branch: `main`",
		"user authentication",
		"2 attempts",
		"retried with rephrase",
		"[failed]",
		"attempts exhausted",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestJSONExport(t *testing.T) {
	e := &JSONExporter{}
	out, err := e.Export(sampleReport())
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var report jsonReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(report.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(report.Steps))
	}
	if report.Steps[1].Attempts != 2 {
		t.Errorf("step 2 attempts: got %d, want 2", report.Steps[1].Attempts)
	}
	if report.Steps[2].Status != "failed" || report.Steps[2].Error == "" {
		t.Errorf("step 3 should be failed with an error: %+v", report.Steps[2])
	}
	if report.Steps[2].Output != "" {
		t.Error("failed step should not carry output")
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	if err := WriteReport(dir, sampleReport()); err != nil {
		t.Fatalf("write report: %v", err)
	}

	for _, name := range []string{"last-run.md", "last-run.json"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("missing %s: %v", name, err)
			continue
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}
