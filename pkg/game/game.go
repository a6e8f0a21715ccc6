package game

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/tesoro/internal/logging"
	"github.com/aretw0/tesoro/pkg/domain"
	"github.com/aretw0/tesoro/pkg/ports"
	"github.com/aretw0/tesoro/pkg/protocol"
	"github.com/aretw0/tesoro/pkg/reply"
)

// Game is the facade over an engine transport. It is safe for concurrent use.
type Game struct {
	transport ports.Transport
	vocab     Vocabulary
	logger    *slog.Logger

	// deliver is held from a mutation until its subscribers return, so
	// notifications arrive in mutation order.
	deliver sync.Mutex

	mu          sync.Mutex // guards state and subscribers
	state       domain.State
	subscribers map[int]func(domain.State)
	nextID      int
}

// Option configures the Game.
type Option func(*Game)

// WithLogger configures a logger for the Game.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Game) {
		g.logger = logger
	}
}

// WithVocabulary overrides predicate names. Empty names keep their defaults.
func WithVocabulary(v Vocabulary) Option {
	return func(g *Game) {
		g.vocab = v.WithDefaults()
	}
}

// WithInitialState seeds the cached state, e.g. after a Sync elsewhere.
func WithInitialState(s domain.State) Option {
	return func(g *Game) {
		g.state = s.Clone()
	}
}

// New creates a Game on top of transport. The Game does not own the transport;
// call Close to release it.
func New(transport ports.Transport, opts ...Option) *Game {
	g := &Game{
		transport:   transport,
		vocab:       DefaultVocabulary(),
		logger:      logging.NewNop(),
		subscribers: make(map[int]func(domain.State)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Vocabulary returns the predicate names in use.
func (g *Game) Vocabulary() Vocabulary {
	return g.vocab
}

// ExecuteCommand sends a raw predicate call and applies its effect on the
// cached state when the engine accepts it.
func (g *Game) ExecuteCommand(ctx context.Context, text string) domain.Outcome {
	cmd := protocol.Normalize(text)
	if cmd == "" {
		return domain.Outcome{Status: domain.StatusNoReply}
	}

	raw, err := g.transport.Send(ctx, cmd)
	if err != nil {
		g.logger.Warn("Engine request failed", "command", cmd, "err", err)
		return unavailable(err)
	}

	out := reply.ClassifyReply(raw)
	kind := g.vocab.kind(reply.Verb(cmd))
	if !out.Ok() || kind == verbOther {
		return out
	}

	g.deliver.Lock()
	defer g.deliver.Unlock()
	if next, changed := g.apply(kind, cmd); changed {
		g.notify(next)
	}
	return out
}

// apply updates the cached state for a successful command.
func (g *Game) apply(kind verbKind, cmd string) (domain.State, bool) {
	arg, _ := reply.ExtractArgument(cmd)

	g.mu.Lock()
	defer g.mu.Unlock()

	changed := false
	switch kind {
	case verbMove:
		changed = g.state.MoveTo(arg)
	case verbTake:
		changed = g.state.AddItem(arg)
	case verbReset:
		changed = true
		g.state = domain.State{}
	}
	return g.state.Clone(), changed
}

// Move asks the engine to move the player to dest.
func (g *Game) Move(ctx context.Context, dest string) domain.Outcome {
	return g.ExecuteCommand(ctx, call(g.vocab.Move, Atom(dest)))
}

// Take picks up obj.
func (g *Game) Take(ctx context.Context, obj string) domain.Outcome {
	return g.ExecuteCommand(ctx, call(g.vocab.Take, Atom(obj)))
}

// Use uses obj. It does not change the cached state.
func (g *Game) Use(ctx context.Context, obj string) domain.Outcome {
	return g.ExecuteCommand(ctx, call(g.vocab.Use, Atom(obj)))
}

// Reset restarts the game and clears the cached state.
func (g *Game) Reset(ctx context.Context) domain.Outcome {
	return g.ExecuteCommand(ctx, g.vocab.Reset)
}

// Destinations lists the places reachable from the current location.
func (g *Game) Destinations(ctx context.Context) ([]string, domain.Outcome) {
	return g.list(ctx, call(g.vocab.Destinations, "L"))
}

// ObjectsHere lists the objects at the current location.
func (g *Game) ObjectsHere(ctx context.Context) ([]string, domain.Outcome) {
	return g.list(ctx, g.vocab.ObjectsHere)
}

// Inventory lists the items the engine says the player holds.
func (g *Game) Inventory(ctx context.Context) ([]string, domain.Outcome) {
	return g.list(ctx, g.vocab.Inventory)
}

// Visited lists the places visited so far.
func (g *Game) Visited(ctx context.Context) ([]string, domain.Outcome) {
	return g.list(ctx, g.vocab.Visited)
}

// AllObjects lists every object in the world.
func (g *Game) AllObjects(ctx context.Context) ([]string, domain.Outcome) {
	return g.list(ctx, g.vocab.AllObjects)
}

// HowToWin lists the steps required to win.
func (g *Game) HowToWin(ctx context.Context) ([]string, domain.Outcome) {
	return g.list(ctx, g.vocab.HowToWin)
}

// WhereAmI asks the engine for the current location.
func (g *Game) WhereAmI(ctx context.Context) domain.Outcome {
	return g.ExecuteCommand(ctx, g.vocab.WhereAmI)
}

// WhereIs asks where obj is.
func (g *Game) WhereIs(ctx context.Context, obj string) domain.Outcome {
	return g.ExecuteCommand(ctx, call(g.vocab.WhereIs, Atom(obj)))
}

// CanGo asks whether dest is reachable from here.
func (g *Game) CanGo(ctx context.Context, dest string) domain.Outcome {
	return g.ExecuteCommand(ctx, call(g.vocab.CanGo, Atom(dest)))
}

// CheckWin asks whether the win condition holds.
func (g *Game) CheckWin(ctx context.Context) domain.Outcome {
	return g.ExecuteCommand(ctx, g.vocab.CheckWin)
}

// list runs a read-only query and extracts its bracketed list. Non-ok outcomes
// yield an empty list.
func (g *Game) list(ctx context.Context, cmd string) ([]string, domain.Outcome) {
	out := g.ExecuteCommand(ctx, cmd)
	if !out.Ok() {
		return []string{}, out
	}
	return reply.ExtractList(out.Body), out
}

// Sync refreshes location, inventory and visited places from the engine.
// Queries that do not succeed leave their field untouched. Subscribers are
// notified once if anything changed.
func (g *Game) Sync(ctx context.Context) error {
	where := g.WhereAmI(ctx)
	if where.Status == domain.StatusUnavailable {
		return domain.Unavailable("sync", errors.New(where.Payload))
	}
	inventory, invOut := g.Inventory(ctx)
	visited, visOut := g.Visited(ctx)

	g.deliver.Lock()
	defer g.deliver.Unlock()

	g.mu.Lock()
	next := g.state.Clone()
	if where.Ok() {
		if loc, ok := reply.ExtractArgument(where.Payload); ok {
			next.Location = loc
		}
	}
	if invOut.Ok() {
		next.Inventory = inventory
	}
	if visOut.Ok() {
		next.Visited = visited
	}
	changed := !equalState(g.state, next)
	if changed {
		g.state = next
	}
	g.mu.Unlock()

	if changed {
		g.notify(next.Clone())
	}
	return nil
}

// State returns a copy of the cached state.
func (g *Game) State() domain.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Clone()
}

// Subscribe registers fn to receive the new state after every mutation.
// Callbacks run on the mutating goroutine, one mutation at a time. They may
// read State, run queries or unsubscribe, but must not move, take or reset
// through this Game.
// The returned function removes the subscription; it is safe to call twice.
func (g *Game) Subscribe(fn func(domain.State)) (unsubscribe func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextID
	g.nextID++
	g.subscribers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			delete(g.subscribers, id)
		})
	}
}

// notify calls subscribers outside the lock, in subscription order.
func (g *Game) notify(s domain.State) {
	g.mu.Lock()
	ids := make([]int, 0, len(g.subscribers))
	for id := range g.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(domain.State), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, g.subscribers[id])
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(s.Clone())
	}
}

// Close releases the underlying transport.
func (g *Game) Close() error {
	return g.transport.Close()
}

func unavailable(err error) domain.Outcome {
	msg := err.Error()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		msg = "solicitud cancelada"
	}
	return domain.Outcome{Status: domain.StatusUnavailable, Payload: msg}
}

var plainAtom = regexp.MustCompile(`^([a-z][a-zA-Z0-9_]*|[0-9]+)$`)

// Atom renders s as an engine atom. Simple atoms and numbers pass through;
// anything else, including capitalized words, is single-quoted.
func Atom(s string) string {
	s = strings.TrimSpace(s)
	if plainAtom.MatchString(s) || isQuoted(s) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

func equalState(a, b domain.State) bool {
	return a.Location == b.Location &&
		slices.Equal(a.Inventory, b.Inventory) &&
		slices.Equal(a.Visited, b.Visited)
}

func isQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\''
}
