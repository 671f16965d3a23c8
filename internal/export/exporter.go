// Package export renders run reports so a generation session leaves an
// inspectable record behind.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/weaverhq/weaver/internal/engine"
)

// ReportData is passed to every Exporter.
type ReportData struct {
	Project  string
	Branch   string
	Prompt   string
	Reason   string
	Score    float64
	Outcomes []engine.StepOutcome
}

// Exporter renders ReportData to a string in a specific format.
type Exporter interface {
	Export(data ReportData) (string, error)
}

// registry maps format names to Exporter implementations.
var registry = map[string]Exporter{
	"markdown": &MarkdownExporter{},
	"json":     &JSONExporter{},
}

// fileNames maps format names to the file written under .weaver/.
var fileNames = map[string]string{
	"markdown": "last-run.md",
	"json":     "last-run.json",
}

// Get returns the Exporter registered under name, and whether it was found.
func Get(name string) (Exporter, bool) {
	e, ok := registry[name]
	return e, ok
}

// ValidFormats returns the list of supported export format names.
func ValidFormats() []string {
	formats := make([]string, 0, len(registry))
	for k := range registry {
		formats = append(formats, k)
	}
	sort.Strings(formats)
	return formats
}

// WriteReport renders every registered format into dir. Individual
// format failures are collected, not fatal.
func WriteReport(dir string, data ReportData) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: mkdir: %w", err)
	}

	var firstErr error
	for name, exporter := range registry {
		out, err := exporter.Export(data)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("export: render %s: %w", name, err)
			}
			continue
		}
		path := filepath.Join(dir, fileNames[name])
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("export: write %s: %w", path, err)
		}
	}
	return firstErr
}
