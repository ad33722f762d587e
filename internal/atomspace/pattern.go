package atomspace

import "reflect"

// Reserved pattern keys. Any other key is matched against metadata.
const (
	PatternType = "type"
	PatternName = "name"
)

// Pattern is a conjunctive equality match. "type" and "name" constrain the
// key; every other entry must be present in the atom's metadata with an
// equal value. An empty pattern matches everything.
type Pattern map[string]any

// Matches reports whether a satisfies every constraint of p.
func (p Pattern) Matches(a *Atom) bool {
	if a == nil {
		return false
	}
	for k, want := range p {
		switch k {
		case PatternType:
			if !typeEquals(a.key.Type, want) {
				return false
			}
		case PatternName:
			name, ok := want.(string)
			if !ok || a.key.Name != name {
				return false
			}
		default:
			got, ok := a.Metadata[k]
			if !ok || !reflect.DeepEqual(got, want) {
				return false
			}
		}
	}
	return true
}

func typeEquals(t Type, want any) bool {
	switch w := want.(type) {
	case Type:
		return t == w
	case string:
		return string(t) == w
	default:
		return false
	}
}
