package domain

import "slices"

// State is the client-side mirror of engine-visible game state.
// The zero value is the default state.
type State struct {
	Location  string   `json:"location" yaml:"location"`
	Inventory []string `json:"inventory" yaml:"inventory"`
	Visited   []string `json:"visited" yaml:"visited"`
}

// Clone returns a deep copy.
func (s State) Clone() State {
	return State{
		Location:  s.Location,
		Inventory: slices.Clone(s.Inventory),
		Visited:   slices.Clone(s.Visited),
	}
}

// HasItem reports whether the item is in the inventory.
func (s State) HasItem(item string) bool {
	return slices.Contains(s.Inventory, item)
}

// AddItem appends item to the inventory unless already present.
// It returns false when the inventory did not change.
func (s *State) AddItem(item string) bool {
	if item == "" || slices.Contains(s.Inventory, item) {
		return false
	}
	s.Inventory = append(s.Inventory, item)
	return true
}

// MoveTo sets the location and records it as visited.
// It returns false when nothing changed.
func (s *State) MoveTo(place string) bool {
	if place == "" {
		return false
	}
	changed := s.Location != place
	s.Location = place
	if !slices.Contains(s.Visited, place) {
		s.Visited = append(s.Visited, place)
		changed = true
	}
	return changed
}
