package persona

// Store exposes persona retrieval for HTTP handlers and sessions.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
	Default() Persona
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items     []Persona
	defaultID string
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
// defaultID falls back to the first item when it names no persona.
func NewMemoryStore(items []Persona, defaultID string) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...), defaultID: defaultID}
}

// List returns the persona list.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// Default returns the persona used when a request names none.
func (s *MemoryStore) Default() Persona {
	if p, ok := s.FindByID(s.defaultID); ok {
		return p
	}
	if len(s.items) > 0 {
		return s.items[0]
	}
	return Persona{}
}

// Resolve returns the persona with id, or the default one when id is empty.
func Resolve(store Store, id string) (Persona, bool) {
	if id == "" {
		return store.Default(), true
	}
	return store.FindByID(id)
}
