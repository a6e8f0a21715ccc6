package testutils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aretw0/tesoro/pkg/protocol"
)

// EnvFakeEngine switches a test binary into fake engine mode. Its value selects
// the behavior: "interactive" (persistent session), "oneshot" (one goal from -g),
// "deaf" (ignores halt), "crash" (exits immediately) or "sleeper" (holds its
// inherited streams for a few seconds and exits).
const EnvFakeEngine = "TESORO_FAKE_ENGINE"

// RunFakeEngineIfRequested turns the current process into a fake logic engine
// when EnvFakeEngine is set. Call it first thing in TestMain.
func RunFakeEngineIfRequested() {
	mode := os.Getenv(EnvFakeEngine)
	if mode == "" {
		return
	}
	os.Exit(runFakeEngine(mode, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// FakeEngineCommand returns the executable and environment that start the
// current test binary as a fake engine in the given mode.
func FakeEngineCommand(mode string) (string, []string) {
	return os.Args[0], []string{EnvFakeEngine + "=" + mode}
}

// fakeWorld is the tiny game the fake engine pretends to run.
type fakeWorld struct {
	location  string
	inventory []string
	visited   []string
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{location: "bosque", visited: []string{"bosque"}}
}

type fakeEngine struct {
	world    *fakeWorld
	out      io.Writer
	errOut   io.Writer
	busy     atomic.Bool
	overlaps atomic.Int64
	deaf     bool
}

func runFakeEngine(mode string, args []string, in io.Reader, out, errOut io.Writer) int {
	e := &fakeEngine{world: newFakeWorld(), out: out, errOut: errOut}

	switch mode {
	case "crash":
		fmt.Fprintln(errOut, "fatal: crashed on startup")
		return 3
	case "sleeper":
		time.Sleep(5 * time.Second)
		return 0
	case "oneshot":
		goal := ""
		for i := 0; i+1 < len(args); i++ {
			if args[i] == "-g" {
				goal = args[i+1]
			}
		}
		e.handle(goal)
		return 0
	case "deaf":
		e.deaf = true
	}

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			if e.busy.Load() {
				e.overlaps.Add(1)
			}
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for line := range lines {
		if strings.TrimSpace(line) == strings.TrimSpace(protocol.HaltDirective) {
			if e.deaf {
				continue
			}
			return 0
		}
		e.busy.Store(true)
		e.handle(line)
	}
	if e.deaf {
		// Outlive stdin so only a kill can stop us.
		time.Sleep(time.Hour)
	}
	return 0
}

// handle executes one framed line.
func (e *fakeEngine) handle(line string) {
	if path, ok := between(line, "exists_file('", "')"); ok {
		path = strings.ReplaceAll(path, `\'`, `'`)
		if _, err := os.Stat(path); err != nil {
			e.reply("error: no existe el archivo de reglas")
		} else {
			e.reply("ok: reglas cargadas")
		}
		return
	}

	cmd, ok := between(line, "call((", ")), _E")
	if !ok {
		e.reply("error: syntax_error(" + strings.TrimSpace(line) + ")")
		return
	}

	verb, arg := cmd, ""
	if i := strings.Index(cmd, "("); i >= 0 && strings.HasSuffix(cmd, ")") {
		verb, arg = cmd[:i], cmd[i+1:len(cmd)-1]
	}
	w := e.world

	switch verb {
	case "echo":
		e.reply("ok: " + arg)
	case "warn":
		e.reply("warn: " + arg)
	case "fail":
		e.reply()
	case "boom":
		e.reply("error: boom")
	case "lista":
		e.reply("[a, b, c]")
	case "stderr":
		fmt.Fprintln(e.errOut, arg)
		// Give the client's stderr reader a head start over the sentinel.
		time.Sleep(20 * time.Millisecond)
		e.reply("ok: hecho")
	case "plain":
		e.reply(arg)
	case "enorme":
		fmt.Fprintln(e.out, strings.Repeat("x", 2_000_000))
		e.reply("ok: enorme")
	case "nieto":
		// The child inherits our stdout and outlives us.
		exe, env := FakeEngineCommand("sleeper")
		child := exec.Command(exe)
		child.Env = append(os.Environ(), env...)
		child.Stdout = e.out
		if err := child.Start(); err != nil {
			e.reply("error: " + err.Error())
			return
		}
		e.reply("ok: nieto")
	case "sleep":
		ms, _ := strconv.Atoi(arg)
		time.Sleep(time.Duration(ms) * time.Millisecond)
		e.reply("ok: desperte")
	case "hang":
		time.Sleep(time.Hour)
	case "die":
		os.Exit(4)
	case "overlaps":
		e.reply("ok: " + strconv.FormatInt(e.overlaps.Load(), 10))
	case "mover":
		if arg == "abismo" {
			e.reply("error: no puedes ir a " + arg)
			return
		}
		w.location = arg
		if !slices.Contains(w.visited, arg) {
			w.visited = append(w.visited, arg)
		}
		e.reply("ok: llegaste a " + arg)
	case "tomar":
		if !slices.Contains(w.inventory, arg) {
			w.inventory = append(w.inventory, arg)
		}
		e.reply("ok: tomaste " + arg)
	case "usar":
		if !slices.Contains(w.inventory, arg) {
			e.reply("warn: no tienes " + arg)
			return
		}
		e.reply("ok: usaste " + arg)
	case "reiniciar_juego":
		e.world = newFakeWorld()
		e.reply("ok: juego reiniciado")
	case "lugares_posibles":
		e.reply("ok: caminos", "[templo, rio]")
	case "objetos_lugar":
		e.reply("ok: objetos", "['llave dorada', antorcha]")
	case "inventario":
		e.reply("ok: inventario", "["+strings.Join(w.inventory, ", ")+"]")
	case "lugares_visitados":
		e.reply("ok: visitados", "["+strings.Join(w.visited, ", ")+"]")
	case "todos_objetos":
		e.reply("ok: objetos", "[llave, antorcha, mapa]")
	case "donde_estoy":
		e.reply("ok: estas en [" + w.location + "]")
	case "donde_esta":
		e.reply("ok: " + arg + " esta en templo")
	case "puedo_ir":
		e.reply("ok: puedes ir a " + arg)
	case "como_gano":
		e.reply("ok: instrucciones", "['encuentra la llave', 'abre el cofre']")
	case "verificar_gane":
		e.reply("warn: aun no ganas")
	default:
		e.reply("error: existence_error(procedure," + verb + ")")
	}
}

// reply prints lines followed by the sentinel. The busy flag is cleared before
// the sentinel so a well-behaved client can never be seen writing early.
func (e *fakeEngine) reply(lines ...string) {
	for _, l := range lines {
		fmt.Fprintln(e.out, l)
	}
	e.busy.Store(false)
	fmt.Fprintln(e.out, protocol.Sentinel)
}

func between(s, open, close string) (string, bool) {
	i := strings.Index(s, open)
	if i < 0 {
		return "", false
	}
	rest := s[i+len(open):]
	j := strings.LastIndex(rest, close)
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}
