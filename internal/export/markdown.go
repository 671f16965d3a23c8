package export

import (
	"fmt"
	"strings"
)

// MarkdownExporter renders a run report as human-readable markdown.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(data ReportData) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Run Report: %s\n\n", data.Project)

	if data.Branch != "" {
		fmt.Fprintf(&b, "Branch: `%s`\n\n", data.Branch)
	}
	fmt.Fprintf(&b, "## Request\n\n%s\n\n", data.Prompt)
	fmt.Fprintf(&b, "Plan: %s (complexity %.1f)\n\n", data.Reason, data.Score)

	fmt.Fprintf(&b, "## Steps\n\n")
	for _, oc := range data.Outcomes {
		status := "ok"
		if oc.Err != nil {
			status = "failed"
		}
		fmt.Fprintf(&b, "### %d. %s [%s]\n\n", oc.Step.Index+1, oc.Step.Label, status)
		if oc.Session != nil && len(oc.Session.Attempts) > 1 {
			fmt.Fprintf(&b, "%d attempts", len(oc.Session.Attempts))
			var strategies []string
			for _, at := range oc.Session.Attempts {
				if at.Strategy != "" {
					strategies = append(strategies, string(at.Strategy))
				}
			}
			if len(strategies) > 0 {
				fmt.Fprintf(&b, " (retried with %s)", strings.Join(strategies, ", "))
			}
			b.WriteString("\n\n")
		}
		if oc.Err != nil {
			fmt.Fprintf(&b, "Error: %v\n\n", oc.Err)
			continue
		}
		fmt.Fprintf(&b, "```\n%s\n```\n\n", strings.TrimRight(oc.Output, "\n"))
	}

	return b.String(), nil
}
