package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/tesoro/internal/presentation/tui"
	"github.com/aretw0/tesoro/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by RunExec.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Commander runs raw engine commands through the facade.
type Commander interface {
	ExecuteCommand(ctx context.Context, text string) domain.Outcome
	State() domain.State
}

// ExecResult is the outcome of one command in an exec report.
type ExecResult struct {
	Command string        `json:"command" yaml:"command"`
	Status  domain.Status `json:"status" yaml:"status"`
	Payload string        `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// ExecReport is what RunExec prints in structured formats.
type ExecReport struct {
	Results []ExecResult `json:"results" yaml:"results"`
	State   domain.State `json:"state" yaml:"state"`
}

// ExecError reports that some commands did not succeed.
type ExecError struct {
	Failed int
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%d command(s) did not succeed", e.Failed)
}

// RunExec sends each command in order, then prints the outcomes and the final
// cached state in format. Warnings count as success; every other non-ok
// status is counted in the returned *ExecError.
func RunExec(ctx context.Context, c Commander, commands []string, w io.Writer, format string) error {
	report := ExecReport{Results: make([]ExecResult, 0, len(commands))}
	failed := 0
	for _, cmd := range commands {
		out := c.ExecuteCommand(ctx, cmd)
		report.Results = append(report.Results, ExecResult{Command: cmd, Status: out.Status, Payload: out.Payload})
		if out.Status != domain.StatusOk && out.Status != domain.StatusWarning {
			failed++
		}
	}
	report.State = c.State()

	if err := writeReport(w, report, format); err != nil {
		return err
	}
	if failed > 0 {
		return &ExecError{Failed: failed}
	}
	return nil
}

func writeReport(w io.Writer, report ExecReport, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		styler := tui.NewStyler(w)
		for _, r := range report.Results {
			text := styler.Outcome(domain.Outcome{Status: r.Status, Payload: r.Payload})
			fmt.Fprintf(w, "%s => %s\n", r.Command, text)
		}
		fmt.Fprintln(w, styler.State(report.State))
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}
