package cli

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
)

// IntentKind is what a REPL line asks for.
type IntentKind int

const (
	IntentUnknown IntentKind = iota
	IntentEmpty
	IntentCommand // raw predicate call, sent as typed
	IntentMove
	IntentTake
	IntentUse
	IntentReset
	IntentDestinations
	IntentObjects
	IntentInventory
	IntentVisited
	IntentAllObjects
	IntentWhereAmI
	IntentWhereIs
	IntentCanGo
	IntentHowToWin
	IntentCheckWin
	IntentState
	IntentSync
	IntentHelp
	IntentQuit
)

// Intent is a parsed REPL line.
type Intent struct {
	Kind IntentKind
	Arg  string
	Raw  string
	// Suggestions lists close verbs when Kind is IntentUnknown.
	Suggestions []string
}

type verbDef struct {
	kind     IntentKind
	needsArg bool
	words    []string
}

// verbs lists every phrase word, Spanish first. Multi-word phrases are matched
// before single words.
var verbs = []verbDef{
	{IntentMove, true, []string{"ir", "mover", "ve", "caminar", "go", "move", "walk"}},
	{IntentTake, true, []string{"tomar", "coger", "agarrar", "recoger", "take", "get", "grab"}},
	{IntentUse, true, []string{"usar", "use"}},
	{IntentReset, false, []string{"reiniciar", "reset", "restart"}},
	{IntentDestinations, false, []string{"caminos", "destinos", "lugares", "salidas", "exits"}},
	{IntentObjects, false, []string{"objetos", "mirar", "look"}},
	{IntentInventory, false, []string{"inventario", "inv", "i", "inventory"}},
	{IntentVisited, false, []string{"visitados", "visited"}},
	{IntentAllObjects, false, []string{"todos", "all"}},
	{IntentWhereAmI, false, []string{"donde", "where"}},
	{IntentHowToWin, false, []string{"pistas", "hint", "hints"}},
	{IntentCheckWin, false, []string{"gane", "verificar", "win"}},
	{IntentState, false, []string{"estado", "state"}},
	{IntentSync, false, []string{"sincronizar", "sync"}},
	{IntentHelp, false, []string{"ayuda", "help", "?"}},
	{IntentQuit, false, []string{"salir", "quit", "exit", "q"}},
}

var phrases = []struct {
	words    []string
	kind     IntentKind
	needsArg bool
}{
	{[]string{"donde", "esta"}, IntentWhereIs, true},
	{[]string{"where", "is"}, IntentWhereIs, true},
	{[]string{"puedo", "ir"}, IntentCanGo, true},
	{[]string{"can", "i", "go"}, IntentCanGo, true},
	{[]string{"como", "gano"}, IntentHowToWin, false},
	{[]string{"como", "ganar"}, IntentHowToWin, false},
	{[]string{"how", "to", "win"}, IntentHowToWin, false},
}

// fillers are dropped between a verb and its argument.
var fillers = map[string]bool{
	"a": true, "al": true, "el": true, "la": true, "los": true, "las": true,
	"hacia": true, "un": true, "una": true, "to": true, "the": true,
}

var (
	predicateCall = regexp.MustCompile(`^[a-z_][a-zA-Z0-9_]*\s*\(.*\)\s*\.?$`)
	accents       = strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n", "¿", "", "¡", "")
)

// ParsePhrase interprets a REPL line. Predicate calls such as "mover(templo)."
// pass through untouched; anything else is read as a short phrase
// ("ir al templo", "tomar llave") with typo tolerance on the verb.
func ParsePhrase(raw string) Intent {
	intent := Intent{Raw: raw}
	line := strings.TrimSpace(raw)
	if line == "" {
		intent.Kind = IntentEmpty
		return intent
	}
	if predicateCall.MatchString(line) {
		intent.Kind = IntentCommand
		intent.Arg = line
		return intent
	}

	tokens := tokenise(line)
	if len(tokens) == 0 {
		intent.Kind = IntentEmpty
		return intent
	}

	for _, p := range phrases {
		if hasPrefix(tokens, p.words) {
			return withArg(intent, p.kind, p.needsArg, tokens[len(p.words):])
		}
	}

	def, ok := exactVerb(tokens[0])
	if !ok {
		var suggestions []string
		def, suggestions, ok = fuzzyVerb(tokens[0])
		if !ok {
			intent.Kind = IntentUnknown
			intent.Suggestions = suggestions
			return intent
		}
	}
	return withArg(intent, def.kind, def.needsArg, tokens[1:])
}

func withArg(intent Intent, kind IntentKind, needsArg bool, rest []string) Intent {
	args := make([]string, 0, len(rest))
	for _, tok := range rest {
		if len(args) == 0 && fillers[tok] {
			continue
		}
		args = append(args, tok)
	}
	intent.Kind = kind
	intent.Arg = strings.Join(args, " ")
	if needsArg && intent.Arg == "" {
		intent.Kind = IntentUnknown
	}
	return intent
}

// tokenise lowercases, folds accents and drops trailing punctuation.
// Underscores survive so atoms like llave_dorada stay intact.
func tokenise(line string) []string {
	line = accents.Replace(strings.ToLower(line))
	fields := strings.Fields(line)
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func hasPrefix(tokens, words []string) bool {
	if len(tokens) < len(words) {
		return false
	}
	for i, w := range words {
		if tokens[i] != w {
			return false
		}
	}
	return true
}

func exactVerb(token string) (verbDef, bool) {
	for _, def := range verbs {
		for _, w := range def.words {
			if w == token {
				return def, true
			}
		}
	}
	return verbDef{}, false
}

// fuzzyVerb picks the single closest verb word within the typo budget.
// Ambiguous matches return the candidates as suggestions instead.
func fuzzyVerb(token string) (verbDef, []string, bool) {
	if len(token) < 3 {
		return verbDef{}, nil, false
	}

	best := -1
	var (
		bestDef verbDef
		matches []string
	)
	for _, def := range verbs {
		for _, w := range def.words {
			if len(w) < 3 {
				continue
			}
			dist := levenshtein.ComputeDistance(token, w)
			if dist > levenshteinLimit(len(w)) {
				continue
			}
			switch {
			case best < 0 || dist < best:
				best, bestDef, matches = dist, def, []string{w}
			case dist == best && def.kind != bestDef.kind:
				matches = append(matches, w)
			}
		}
	}
	if best < 0 {
		return verbDef{}, nil, false
	}
	if len(matches) > 1 {
		return verbDef{}, matches, false
	}
	return bestDef, nil, true
}

func levenshteinLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
