package game

// Vocabulary maps facade operations to engine predicate names.
type Vocabulary struct {
	Move  string `yaml:"move" json:"move" mapstructure:"move"`
	Take  string `yaml:"take" json:"take" mapstructure:"take"`
	Use   string `yaml:"use" json:"use" mapstructure:"use"`
	Reset string `yaml:"reset" json:"reset" mapstructure:"reset"`

	Destinations string `yaml:"destinations" json:"destinations" mapstructure:"destinations"`
	ObjectsHere  string `yaml:"objects_here" json:"objects_here" mapstructure:"objects_here"`
	Inventory    string `yaml:"inventory" json:"inventory" mapstructure:"inventory"`
	Visited      string `yaml:"visited" json:"visited" mapstructure:"visited"`
	AllObjects   string `yaml:"all_objects" json:"all_objects" mapstructure:"all_objects"`
	WhereAmI     string `yaml:"where_am_i" json:"where_am_i" mapstructure:"where_am_i"`
	WhereIs      string `yaml:"where_is" json:"where_is" mapstructure:"where_is"`
	CanGo        string `yaml:"can_go" json:"can_go" mapstructure:"can_go"`
	HowToWin     string `yaml:"how_to_win" json:"how_to_win" mapstructure:"how_to_win"`
	CheckWin     string `yaml:"check_win" json:"check_win" mapstructure:"check_win"`
}

// DefaultVocabulary returns the predicate names of the bundled adventure rules.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Move:         "mover",
		Take:         "tomar",
		Use:          "usar",
		Reset:        "reiniciar_juego",
		Destinations: "lugares_posibles",
		ObjectsHere:  "objetos_lugar",
		Inventory:    "inventario",
		Visited:      "lugares_visitados",
		AllObjects:   "todos_objetos",
		WhereAmI:     "donde_estoy",
		WhereIs:      "donde_esta",
		CanGo:        "puedo_ir",
		HowToWin:     "como_gano",
		CheckWin:     "verificar_gane",
	}
}

// WithDefaults fills empty names from DefaultVocabulary.
func (v Vocabulary) WithDefaults() Vocabulary {
	d := DefaultVocabulary()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&v.Move, d.Move)
	fill(&v.Take, d.Take)
	fill(&v.Use, d.Use)
	fill(&v.Reset, d.Reset)
	fill(&v.Destinations, d.Destinations)
	fill(&v.ObjectsHere, d.ObjectsHere)
	fill(&v.Inventory, d.Inventory)
	fill(&v.Visited, d.Visited)
	fill(&v.AllObjects, d.AllObjects)
	fill(&v.WhereAmI, d.WhereAmI)
	fill(&v.WhereIs, d.WhereIs)
	fill(&v.CanGo, d.CanGo)
	fill(&v.HowToWin, d.HowToWin)
	fill(&v.CheckWin, d.CheckWin)
	return v
}

// verbKind is the state transition a command may trigger.
type verbKind int

const (
	verbOther verbKind = iota
	verbMove
	verbTake
	verbReset
)

// kind classifies a predicate name. The English aliases are always accepted.
func (v Vocabulary) kind(verb string) verbKind {
	switch verb {
	case v.Move, "move":
		return verbMove
	case v.Take, "take":
		return verbTake
	case v.Reset, "reset":
		return verbReset
	}
	return verbOther
}

// call renders a predicate call with optional arguments.
func call(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	out := name + "("
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out + ")"
}
