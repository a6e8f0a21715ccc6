package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunREPL(t *testing.T) {
	client := openFake(t, OpenOptions{})

	input := strings.Join([]string{
		"ir al templo",
		"tomar antorcha",
		"inventario",
		"caminos",
		"usar mapa",
		"xyzzy",
		"",
		"mover(abismo).",
		"estado",
		"ayuda",
		"salir",
		"donde",
	}, "\n")

	var out bytes.Buffer
	err := RunREPL(context.Background(), client, REPLOptions{In: strings.NewReader(input), Out: &out})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "llegaste a templo")
	assert.Contains(t, text, "Lugar: templo | Inventario: vacio")
	assert.Contains(t, text, "tomaste antorcha")
	assert.Contains(t, text, "Lugar: templo | Inventario: antorcha")
	assert.Contains(t, text, "Inventario\n  - antorcha")
	assert.Contains(t, text, "Caminos\n  - templo\n  - rio")
	assert.Contains(t, text, "[aviso] no tienes mapa")
	assert.Contains(t, text, `No entiendo "xyzzy"`)
	assert.Contains(t, text, "[error] no puedes ir a abismo")
	assert.Contains(t, text, "# Comandos")
	assert.Contains(t, text, ">>> Hasta luego.")
	assert.NotContains(t, text, "estas en", "lines after salir are not read")
	assert.Equal(t, "templo", client.State().Location)
}

func TestRunREPL_EndOfInput(t *testing.T) {
	client := openFake(t, OpenOptions{})

	var out bytes.Buffer
	err := RunREPL(context.Background(), client, REPLOptions{In: strings.NewReader("donde\n"), Out: &out, Prompt: "$ "})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "$ estas en [bosque]")
}

func TestRunREPL_Cancelled(t *testing.T) {
	client := openFake(t, OpenOptions{})

	in, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- RunREPL(ctx, client, REPLOptions{In: in, Out: io.Discard})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RunREPL did not return after cancellation")
	}
}
