package atomspace

import (
	"sort"

	"github.com/lazypower/workbench/internal/truth"
)

// Space is the in-memory atom store. It is not safe for concurrent use;
// callers serialize access (see engine.Engine).
type Space struct {
	atoms    map[Key]*Atom
	order    []Key
	links    []*Atom
	incoming map[Key]map[Key]struct{}
	models   map[string]*Atom
	merges   int
}

// New returns an empty Space.
func New() *Space {
	return &Space{
		atoms:    make(map[Key]*Atom),
		incoming: make(map[Key]map[Key]struct{}),
		models:   make(map[string]*Atom),
	}
}

// Intern inserts an atom, or merges it into the atom already stored under
// the same key. On a merge the stored truth value becomes
// Revision(stored, incoming) and nothing else about the stored atom changes.
// On insert, a link registers itself in the incoming index of each endpoint,
// and endpoints that are already stored are replaced by the stored instance.
// Links interned before one of their endpoints are re-pointed at it when the
// endpoint arrives. Intern returns the atom now present in the store.
func (s *Space) Intern(a *Atom) *Atom {
	if a == nil {
		return nil
	}
	if existing, ok := s.atoms[a.key]; ok {
		existing.TV = truth.Revision(existing.TV, a.TV)
		s.merges++
		return existing
	}

	s.atoms[a.key] = a
	s.order = append(s.order, a.key)
	s.repoint(a)
	if a.IsLink() {
		s.links = append(s.links, a)
		for i, out := range a.outgoing {
			if out == nil {
				continue
			}
			if stored, ok := s.atoms[out.key]; ok {
				a.outgoing[i] = stored
			}
			refs := s.incoming[out.key]
			if refs == nil {
				refs = make(map[Key]struct{})
				s.incoming[out.key] = refs
			}
			refs[a.key] = struct{}{}
		}
	}
	return a
}

// repoint swaps a into every waiting link that refers to its key through a
// detached instance.
func (s *Space) repoint(a *Atom) {
	for ref := range s.incoming[a.key] {
		link, ok := s.atoms[ref]
		if !ok {
			continue
		}
		for i, out := range link.outgoing {
			if out != nil && out.key == a.key {
				link.outgoing[i] = a
			}
		}
	}
}

// Get looks an atom up by type and name.
func (s *Space) Get(t Type, name string) (*Atom, bool) {
	return s.Lookup(Key{Type: t, Name: name})
}

// Lookup looks an atom up by key.
func (s *Space) Lookup(k Key) (*Atom, bool) {
	a, ok := s.atoms[k]
	return a, ok
}

// ByType returns every atom with the given type in insertion order.
func (s *Space) ByType(t Type) []*Atom {
	var out []*Atom
	for _, k := range s.order {
		if k.Type == t {
			out = append(out, s.atoms[k])
		}
	}
	return out
}

// ByName returns every atom with the given name regardless of type.
func (s *Space) ByName(name string) []*Atom {
	var out []*Atom
	for _, k := range s.order {
		if k.Name == name {
			out = append(out, s.atoms[k])
		}
	}
	return out
}

// Query returns the atoms matching every constraint of the pattern.
func (s *Space) Query(p Pattern) []*Atom {
	var out []*Atom
	for _, k := range s.order {
		a := s.atoms[k]
		if p.Matches(a) {
			out = append(out, a)
		}
	}
	return out
}

// All returns every stored atom in insertion order.
func (s *Space) All() []*Atom {
	out := make([]*Atom, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.atoms[k])
	}
	return out
}

// Links returns the stored link atoms in insertion order.
func (s *Space) Links() []*Atom {
	return append([]*Atom(nil), s.links...)
}

// Len returns the number of stored atoms.
func (s *Space) Len() int { return len(s.atoms) }

// Merges returns how many Intern calls merged into an existing atom.
func (s *Space) Merges() int { return s.merges }

// IncomingKeys returns the keys of the links pointing at k, sorted.
func (s *Space) IncomingKeys(k Key) []Key {
	refs := s.incoming[k]
	keys := make([]Key, 0, len(refs))
	for ref := range refs {
		keys = append(keys, ref)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Incoming returns the links pointing at a, sorted by key.
func (s *Space) Incoming(a *Atom) []*Atom {
	if a == nil {
		return nil
	}
	keys := s.IncomingKeys(a.key)
	out := make([]*Atom, 0, len(keys))
	for _, k := range keys {
		if link, ok := s.atoms[k]; ok {
			out = append(out, link)
		}
	}
	return out
}

// Outgoing returns the endpoint sequence of a.
func (s *Space) Outgoing(a *Atom) []*Atom {
	if a == nil {
		return nil
	}
	return a.Outgoing()
}

// Neighbors returns incoming ∪ outgoing of a: the incoming links first,
// then the endpoints in order, each key at most once.
func (s *Space) Neighbors(a *Atom) []*Atom {
	if a == nil {
		return nil
	}
	seen := make(map[Key]bool)
	var out []*Atom
	add := func(n *Atom) {
		if n == nil || seen[n.key] {
			return
		}
		seen[n.key] = true
		out = append(out, n)
	}
	for _, n := range s.Incoming(a) {
		add(n)
	}
	for _, n := range a.outgoing {
		add(n)
	}
	return out
}

// RegisterModel records a as the root atom of the named model.
func (s *Space) RegisterModel(name string, a *Atom) {
	s.models[name] = a
}

// Model returns the root atom of a registered model.
func (s *Space) Model(name string) (*Atom, bool) {
	a, ok := s.models[name]
	return a, ok
}

// Models returns the registered model names, sorted.
func (s *Space) Models() []string {
	names := make([]string, 0, len(s.models))
	for name := range s.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
