package tui

import (
	"io"
	"os"
	"strings"

	"github.com/aretw0/tesoro/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Styler colors outcomes for a terminal.
type Styler struct {
	profile termenv.Profile
}

// NewStyler picks a color profile for w: full colors on a terminal, plain text
// otherwise (pipes, files, tests).
func NewStyler(w io.Writer) Styler {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return Styler{profile: termenv.ColorProfile()}
	}
	return Styler{profile: termenv.Ascii}
}

// Profile returns the color profile in use.
func (s Styler) Profile() termenv.Profile {
	return s.profile
}

// Outcome renders an outcome with a status color. Empty outcomes render as "".
func (s Styler) Outcome(out domain.Outcome) string {
	text := out.String()
	if text == "" {
		return ""
	}
	var color string
	switch out.Status {
	case domain.StatusOk:
		color = "#4ade80"
	case domain.StatusWarning:
		color = "#facc15"
	case domain.StatusError:
		color = "#f87171"
	default:
		color = "#94a3b8"
	}
	return s.profile.String(text).Foreground(s.profile.Color(color)).String()
}

// List renders items as a bulleted list under title.
func (s Styler) List(title string, items []string) string {
	var b strings.Builder
	b.WriteString(s.profile.String(title).Bold().String())
	if len(items) == 0 {
		b.WriteString("\n  (nada)")
		return b.String()
	}
	for _, item := range items {
		b.WriteString("\n  - ")
		b.WriteString(item)
	}
	return b.String()
}

// State renders the cached state on one line.
func (s Styler) State(st domain.State) string {
	loc := st.Location
	if loc == "" {
		loc = "?"
	}
	inv := "vacio"
	if len(st.Inventory) > 0 {
		inv = strings.Join(st.Inventory, ", ")
	}
	return s.profile.String("Lugar: " + loc + " | Inventario: " + inv).Foreground(s.profile.Color("#60a5fa")).String()
}
