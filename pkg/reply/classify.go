package reply

import (
	"strings"

	"github.com/aretw0/tesoro/pkg/domain"
)

// prefixes are matched case-sensitively against the first line.
var prefixes = []struct {
	prefix string
	status domain.Status
}{
	{"ok:", domain.StatusOk},
	{"warn:", domain.StatusWarning},
	{"error:", domain.StatusError},
}

// Classify inspects the first line of raw and returns the tagged outcome.
// Lines after the first are payload continuation and are kept in Body.
// A first line without a known prefix is treated as ok.
func Classify(raw string) domain.Outcome {
	body := strings.TrimSpace(raw)
	if body == "" {
		return domain.Outcome{Status: domain.StatusNoReply}
	}

	first, _, _ := strings.Cut(body, "\n")
	first = strings.TrimSpace(first)

	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(first, p.prefix); ok {
			return domain.Outcome{
				Status:  p.status,
				Payload: strings.TrimSpace(rest),
				Body:    body,
			}
		}
	}

	return domain.Outcome{Status: domain.StatusOk, Payload: first, Body: body}
}

// markers are the engine's own diagnostic prefixes on the error stream.
var markers = []struct {
	prefix string
	status domain.Status
}{
	{"ERROR:", domain.StatusError},
	{"Warning:", domain.StatusWarning},
}

// ClassifyReply classifies a session reply, honoring its timeout flag.
// A status line on standard output decides the outcome. Without one, an
// engine ERROR: or Warning: marker on the error stream does. Body always
// carries both streams, error stream first.
func ClassifyReply(r domain.RawReply) domain.Outcome {
	text := r.Text()
	if r.TimedOut {
		return domain.Outcome{Status: domain.StatusTimeout, Body: text}
	}

	out := Classify(r.Output)
	if !statusLine(r.Output) {
		if marked, ok := engineMarker(r.Stderr); ok {
			marked.Body = text
			return marked
		}
		if out.Status == domain.StatusNoReply {
			return Classify(text)
		}
	}
	out.Body = text
	return out
}

// statusLine reports whether the first line of raw carries a status prefix.
func statusLine(raw string) bool {
	first, _, _ := strings.Cut(strings.TrimSpace(raw), "\n")
	first = strings.TrimSpace(first)
	for _, p := range prefixes {
		if strings.HasPrefix(first, p.prefix) {
			return true
		}
	}
	return false
}

// engineMarker finds the first engine diagnostic on the error stream.
func engineMarker(stderr string) (domain.Outcome, bool) {
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		for _, m := range markers {
			if rest, ok := strings.CutPrefix(line, m.prefix); ok {
				return domain.Outcome{Status: m.status, Payload: strings.TrimSpace(rest)}, true
			}
		}
	}
	return domain.Outcome{}, false
}
