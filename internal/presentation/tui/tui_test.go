package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/tesoro/pkg/domain"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestStyler_PlainWhenNotATerminal(t *testing.T) {
	var buf bytes.Buffer
	s := NewStyler(&buf)
	assert.Equal(t, termenv.Ascii, s.Profile())

	assert.Equal(t, "[error] no puedes", s.Outcome(domain.Outcome{Status: domain.StatusError, Payload: "no puedes"}))
	assert.Equal(t, "", s.Outcome(domain.Outcome{Status: domain.StatusNoReply}))
	assert.Equal(t, "Caminos\n  - templo\n  - rio", s.List("Caminos", []string{"templo", "rio"}))
	assert.Equal(t, "Caminos\n  (nada)", s.List("Caminos", nil))
	assert.Equal(t, "Lugar: templo | Inventario: llave, mapa", s.State(domain.State{
		Location:  "templo",
		Inventory: []string{"llave", "mapa"},
	}))
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, termenv.Ascii, "v1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
}

func TestNewRenderer_Plain(t *testing.T) {
	render := NewRenderer(0)
	out, err := render("# Ayuda")
	assert.NoError(t, err)
	assert.Equal(t, "# Ayuda", out)
}
