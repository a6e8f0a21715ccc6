package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/tesoro/internal/logging"
	"github.com/aretw0/tesoro/internal/presentation/tui"
	"github.com/aretw0/tesoro/pkg/adapters/mcp"
	"github.com/aretw0/tesoro/pkg/domain"
)

// Player is the facade the interactive loop drives. *tesoro.Client satisfies it.
type Player interface {
	mcp.Facade
	AllObjects(ctx context.Context) ([]string, domain.Outcome)
	Sync(ctx context.Context) error
	Subscribe(fn func(domain.State)) (unsubscribe func())
}

// REPLOptions configures RunREPL.
type REPLOptions struct {
	In       io.Reader
	Out      io.Writer
	Logger   *slog.Logger
	Renderer func(string) (string, error)
	Prompt   string
}

const helpText = `# Comandos

| Frase | Efecto |
|---|---|
| ir al templo | moverse a un lugar |
| tomar llave | recoger un objeto |
| usar llave | usar un objeto del inventario |
| caminos | lugares a los que se puede ir |
| objetos | objetos en el lugar actual |
| inventario | objetos que llevas |
| visitados | lugares ya visitados |
| todos | todos los objetos del juego |
| donde | lugar actual |
| donde esta llave | ubicacion de un objeto |
| puedo ir al rio | si el camino existe |
| como gano | pistas para ganar |
| gane | comprobar si ganaste |
| reiniciar | empezar de nuevo |
| estado / sincronizar | estado en cache / volver a consultarlo |
| salir | terminar |

Tambien puedes escribir un predicado directamente, por ejemplo ` + "`mover(templo).`"

type repl struct {
	player  Player
	out     io.Writer
	styler  tui.Styler
	render  func(string) (string, error)
	logger  *slog.Logger
	prompt  string
	mu      sync.Mutex
	changed *domain.State
}

// RunREPL reads phrases from o.In until EOF, a quit phrase or ctx is done.
// Cancellation is not an error.
func RunREPL(ctx context.Context, p Player, o REPLOptions) error {
	r := &repl{
		player: p,
		out:    o.Out,
		styler: tui.NewStyler(o.Out),
		render: o.Renderer,
		logger: o.Logger,
		prompt: o.Prompt,
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	if r.render == nil {
		r.render = tui.NewRenderer(0)
	}
	if r.prompt == "" {
		r.prompt = "> "
	}

	unsubscribe := p.Subscribe(func(s domain.State) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.changed = &s
	})
	defer unsubscribe()

	lines := make(chan string)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(o.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(r.out, r.prompt)
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out)
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(r.out)
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			intent := ParsePhrase(line)
			r.logger.Debug("Phrase parsed", "raw", line, "kind", intent.Kind, "arg", intent.Arg)
			if intent.Kind == IntentQuit {
				printSystemMessage(r.out, "Hasta luego.")
				return nil
			}
			r.print(r.dispatch(ctx, intent))
			r.printStateChange()
		}
	}
}

func (r *repl) print(text string) {
	if text != "" {
		fmt.Fprintln(r.out, text)
	}
}

func (r *repl) printStateChange() {
	r.mu.Lock()
	s := r.changed
	r.changed = nil
	r.mu.Unlock()
	if s != nil {
		r.print(r.styler.State(*s))
	}
}

func (r *repl) dispatch(ctx context.Context, in Intent) string {
	p := r.player
	switch in.Kind {
	case IntentEmpty:
		return ""
	case IntentUnknown:
		if len(in.Suggestions) > 0 {
			return fmt.Sprintf("No entiendo %q. Quisiste decir: %s?", strings.TrimSpace(in.Raw), strings.Join(in.Suggestions, ", "))
		}
		return fmt.Sprintf("No entiendo %q. Escribe 'ayuda'.", strings.TrimSpace(in.Raw))
	case IntentCommand:
		return r.styler.Outcome(p.ExecuteCommand(ctx, in.Arg))
	case IntentMove:
		return r.styler.Outcome(p.Move(ctx, in.Arg))
	case IntentTake:
		return r.styler.Outcome(p.Take(ctx, in.Arg))
	case IntentUse:
		return r.styler.Outcome(p.Use(ctx, in.Arg))
	case IntentReset:
		return r.styler.Outcome(p.Reset(ctx))
	case IntentDestinations:
		return r.list(ctx, "Caminos", p.Destinations)
	case IntentObjects:
		return r.list(ctx, "Objetos aqui", p.ObjectsHere)
	case IntentInventory:
		return r.list(ctx, "Inventario", p.Inventory)
	case IntentVisited:
		return r.list(ctx, "Visitados", p.Visited)
	case IntentAllObjects:
		return r.list(ctx, "Objetos del juego", p.AllObjects)
	case IntentHowToWin:
		return r.list(ctx, "Como ganar", p.HowToWin)
	case IntentWhereAmI:
		return r.styler.Outcome(p.WhereAmI(ctx))
	case IntentWhereIs:
		return r.styler.Outcome(p.WhereIs(ctx, in.Arg))
	case IntentCanGo:
		return r.styler.Outcome(p.CanGo(ctx, in.Arg))
	case IntentCheckWin:
		return r.styler.Outcome(p.CheckWin(ctx))
	case IntentState:
		return r.styler.State(p.State())
	case IntentSync:
		if err := p.Sync(ctx); err != nil {
			return r.styler.Outcome(domain.Outcome{Status: domain.StatusUnavailable, Payload: err.Error()})
		}
		return r.styler.State(p.State())
	case IntentHelp:
		text, err := r.render(helpText)
		if err != nil {
			return helpText
		}
		return strings.TrimRight(text, "\n")
	}
	return ""
}

func (r *repl) list(ctx context.Context, title string, query func(context.Context) ([]string, domain.Outcome)) string {
	items, out := query(ctx)
	if !out.Ok() {
		return r.styler.Outcome(out)
	}
	return r.styler.List(title, items)
}
