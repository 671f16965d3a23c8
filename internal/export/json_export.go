package export

import (
	"encoding/json"
)

// JSONExporter renders a run report as structured JSON.
type JSONExporter struct{}

type jsonReport struct {
	Project string     `json:"project"`
	Branch  string     `json:"branch,omitempty"`
	Prompt  string     `json:"prompt"`
	Reason  string     `json:"reason"`
	Score   float64    `json:"score"`
	Steps   []jsonStep `json:"steps"`
}

type jsonStep struct {
	Index    int    `json:"index"`
	Label    string `json:"label"`
	Category string `json:"category"`
	Status   string `json:"status"`
	Attempts int    `json:"attempts"`
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (e *JSONExporter) Export(data ReportData) (string, error) {
	out := jsonReport{
		Project: data.Project,
		Branch:  data.Branch,
		Prompt:  data.Prompt,
		Reason:  data.Reason,
		Score:   data.Score,
		Steps:   make([]jsonStep, 0, len(data.Outcomes)),
	}

	for _, oc := range data.Outcomes {
		step := jsonStep{
			Index:    oc.Step.Index + 1,
			Label:    oc.Step.Label,
			Category: oc.Step.Category.String(),
			Status:   "ok",
			Attempts: 1,
			Output:   oc.Output,
		}
		if oc.Session != nil {
			step.Attempts = len(oc.Session.Attempts)
		}
		if oc.Err != nil {
			step.Status = "failed"
			step.Error = oc.Err.Error()
			step.Output = ""
		}
		out.Steps = append(out.Steps, step)
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
