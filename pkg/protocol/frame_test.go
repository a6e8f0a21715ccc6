package protocol_test

import (
	"strings"
	"testing"

	"github.com/aretw0/tesoro/pkg/protocol"
	"github.com/stretchr/testify/assert"
)

func TestFrame(t *testing.T) {
	framed := protocol.Frame("mover(templo)")

	assert.True(t, strings.HasSuffix(framed, ".\n"), "framed command must end the clause")
	assert.Contains(t, framed, "call((mover(templo)))")
	assert.Contains(t, framed, "; true )")
	assert.Contains(t, framed, "write('"+protocol.Sentinel+"'), nl")
	assert.Equal(t, 1, strings.Count(framed, "\n"), "one request is one line")
}

func TestFrame_StripsTrailingPeriod(t *testing.T) {
	assert.Equal(t, protocol.Frame("tomar(llave)"), protocol.Frame("  tomar(llave).  "))
	assert.Equal(t, protocol.Frame("x"), protocol.Frame("x.."))
}

func TestFrame_ExceptionVariableIsAnonymous(t *testing.T) {
	// Named variables would make the toplevel print bindings after the sentinel.
	assert.Contains(t, protocol.Frame("boom"), "_E")
	assert.NotContains(t, protocol.Frame("boom"), " E,")
}

func TestLoadDirective_QuotesPath(t *testing.T) {
	d := protocol.LoadDirective(`/tmp/it's/reglas.pl`)
	assert.Contains(t, d, `exists_file('/tmp/it\'s/reglas.pl')`)
	assert.Contains(t, d, "ok: ")
	assert.Contains(t, d, "error: ")
	assert.False(t, strings.HasSuffix(d, "."), "directives are framed like any other command")
}

func TestCollector(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
		done  bool
	}{
		{"Single line", []string{"ok: hecho", protocol.Sentinel}, "ok: hecho", true},
		{"Multi line", []string{"ok: lista", "[a,b]", protocol.Sentinel}, "ok: lista\n[a,b]", true},
		{"Empty reply", []string{protocol.Sentinel}, "", true},
		{"Text before sentinel on same line", []string{"parcial" + protocol.Sentinel}, "parcial", true},
		{"Stops at first sentinel", []string{"a", protocol.Sentinel, "stale", protocol.Sentinel}, "a", true},
		{"Incomplete", []string{"a", "b"}, "a\nb", false},
		{"Carriage returns", []string{"ok: fin\r", protocol.Sentinel + "\r"}, "ok: fin", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c protocol.Collector
			for _, l := range tt.lines {
				c.Add(l)
			}
			assert.Equal(t, tt.done, c.Done())
			assert.Equal(t, tt.want, c.String())
		})
	}
}

func TestCollector_Reset(t *testing.T) {
	var c protocol.Collector
	c.Add("uno")
	c.Add(protocol.Sentinel)
	c.Reset()

	assert.False(t, c.Done())
	assert.Empty(t, c.Lines())
	assert.False(t, c.Add("dos"))
	assert.Equal(t, "dos", c.String())
}
