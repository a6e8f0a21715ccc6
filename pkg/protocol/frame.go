package protocol

import (
	"fmt"
	"strings"
)

// Sentinel marks the end of a reply. It must never appear in game text.
const Sentinel = "__END__"

// HaltDirective asks the engine to exit.
const HaltDirective = "halt.\n"

// Normalize trims whitespace and a trailing full stop from a command.
func Normalize(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	for strings.HasSuffix(cmd, ".") {
		cmd = strings.TrimSpace(strings.TrimSuffix(cmd, "."))
	}
	return cmd
}

// Goal returns the framed goal without the terminating full stop.
// It is the form used when the goal is passed on a command line.
func Goal(cmd string) string {
	return fmt.Sprintf(
		"( catch(call((%s)), _E, (write('error: '), print(_E), nl)) ; true ), write('%s'), nl",
		Normalize(cmd), Sentinel,
	)
}

// Frame returns the exact bytes to write to the engine for cmd.
// The disjunction with true keeps failures from skipping the sentinel and the
// catch keeps exceptions from doing so.
func Frame(cmd string) string {
	return Goal(cmd) + ".\n"
}

// LoadDirective builds the command that consults a rules file and reports the
// result with an ok:/error: status line.
func LoadDirective(path string) string {
	p := quoteAtom(path)
	return fmt.Sprintf(
		"( exists_file(%s) -> ( consult(%s) -> write('ok: reglas cargadas') ; write('error: no se pudieron cargar las reglas') ) ; write('error: no existe el archivo de reglas') ), nl",
		p, p,
	)
}

// quoteAtom renders s as a single-quoted atom.
func quoteAtom(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
