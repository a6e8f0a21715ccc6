package domain

import (
	"strings"
	"time"
)

// Status is the classification tag of an engine reply.
type Status string

const (
	StatusOk          Status = "ok"
	StatusWarning     Status = "warn"
	StatusError       Status = "error"
	StatusTimeout     Status = "timeout"
	StatusNoReply     Status = "no_reply"
	StatusUnavailable Status = "unavailable"
)

// RawReply is the accumulated text the engine produced for a single command.
type RawReply struct {
	// Output holds the standard output lines read before the sentinel, newline-joined.
	Output string
	// Stderr holds diagnostic lines seen on the error stream while waiting.
	Stderr string
	// TimedOut is set when no sentinel arrived within the time budget.
	TimedOut bool
	// Elapsed is the wall time spent waiting for the reply.
	Elapsed time.Duration
}

// Text returns the reply as seen by the classifier: error stream first, then output.
func (r RawReply) Text() string {
	stderr := strings.TrimSpace(r.Stderr)
	output := strings.TrimSpace(r.Output)
	switch {
	case stderr == "":
		return output
	case output == "":
		return stderr
	default:
		return stderr + "\n" + output
	}
}

// Outcome is the classified result of a command.
type Outcome struct {
	Status Status `json:"status" yaml:"status"`
	// Payload is the human-readable text with any status prefix stripped.
	Payload string `json:"payload,omitempty" yaml:"payload,omitempty"`
	// Body is the full reply text (all lines), used by list-shaped queries.
	Body string `json:"-" yaml:"-"`
}

// Ok reports whether the outcome allows cached state to be updated.
func (o Outcome) Ok() bool {
	return o.Status == StatusOk
}

// String renders the outcome for display. Non-ok outcomes carry a visible tag.
func (o Outcome) String() string {
	switch o.Status {
	case StatusOk:
		return o.Payload
	case StatusWarning:
		return "[aviso] " + o.Payload
	case StatusError:
		return "[error] " + o.Payload
	case StatusTimeout:
		return "[tiempo agotado] el motor no respondio a tiempo"
	case StatusNoReply:
		return ""
	case StatusUnavailable:
		if o.Payload == "" {
			return "[motor no disponible]"
		}
		return "[motor no disponible] " + o.Payload
	default:
		return o.Payload
	}
}
