package memory

import (
	"fmt"
	"strings"
)

// Render flattens a snapshot into the prompt block injected ahead of
// generation requests.
func Render(snap Snapshot) string {
	if snap.Empty() {
		return ""
	}

	var sb strings.Builder

	sb.WriteString("## Project Context\n")
	state := snap.State
	fmt.Fprintf(&sb, "Phase: %s\n", state.Phase)
	if len(state.TechStack) > 0 {
		fmt.Fprintf(&sb, "Tech stack: %s\n", strings.Join(state.TechStack, ", "))
	}
	if len(state.Files) > 0 {
		fmt.Fprintf(&sb, "Files built: %s\n", strings.Join(state.Files, ", "))
	}
	if len(state.Components) > 0 {
		fmt.Fprintf(&sb, "Components: %s\n", strings.Join(state.Components, ", "))
	}
	if len(state.Endpoints) > 0 {
		fmt.Fprintf(&sb, "Endpoints: %s\n", strings.Join(state.Endpoints, ", "))
	}
	if len(state.Decisions) > 0 {
		sb.WriteString("Decisions:\n")
		for _, d := range state.Decisions {
			fmt.Fprintf(&sb, "- %s\n", d)
		}
	}

	if len(snap.Entries) > 0 {
		sb.WriteString("\n## Conversation Summary\n")
		for _, e := range snap.Entries {
			if e.Summary == "" {
				continue
			}
			fmt.Fprintf(&sb, "[%s] %s\n", e.Role, e.Summary)
		}
	}

	return sb.String()
}
