// Package atomspace is the content-addressed hypergraph of typed atoms.
//
// An atom is identified by its (type, name) Key. Links are atoms whose type
// is a link type; their outgoing sequence names the atoms they connect. The
// Space owns the reverse (incoming) index and is the only code that writes it.
package atomspace

import (
	"github.com/lazypower/workbench/internal/truth"
)

// Type tags an atom.
type Type string

const (
	Concept     Type = "ConceptNode"
	Predicate   Type = "PredicateNode"
	Variable    Type = "VariableNode"
	Number      Type = "NumberNode"
	Link        Type = "Link"
	Evaluation  Type = "EvaluationLink"
	Inheritance Type = "InheritanceLink"
	Model       Type = "ModelNode"
	Mode        Type = "ModeNode"
	Parameter   Type = "ParameterNode"
	Flow        Type = "FlowNode"
	Jump        Type = "JumpNode"
	Goal        Type = "GoalNode"
)

// linkTypes are the types whose atoms register themselves in the incoming
// index of their endpoints.
var linkTypes = map[Type]bool{
	Link:        true,
	Evaluation:  true,
	Inheritance: true,
}

// IsLink reports whether atoms of this type are hyperedges.
func (t Type) IsLink() bool { return linkTypes[t] }

// Key is the identity of an atom. It is comparable and used as a map key
// everywhere an atom has to be referenced without owning it.
type Key struct {
	Type Type
	Name string
}

// String renders the key as "Type:Name".
func (k Key) String() string { return string(k.Type) + ":" + k.Name }

// Atom is a node or hyperedge of the graph. Identity (type, name) is fixed at
// construction; the truth value, cached attention and metadata are mutable
// and take no part in equality.
type Atom struct {
	key      Key
	outgoing []*Atom

	TV        truth.Value
	Attention float64
	Metadata  map[string]any
}

// NewNode creates an atom with no endpoints and a certain truth value.
func NewNode(t Type, name string) *Atom {
	return &Atom{
		key:      Key{Type: t, Name: name},
		TV:       truth.Certain(),
		Metadata: map[string]any{},
	}
}

// NewLink creates an atom that points at the given endpoints, in order.
func NewLink(t Type, name string, outgoing ...*Atom) *Atom {
	a := NewNode(t, name)
	a.outgoing = append([]*Atom(nil), outgoing...)
	return a
}

func (a *Atom) Key() Key { return a.key }

func (a *Atom) Type() Type { return a.key.Type }

func (a *Atom) Name() string { return a.key.Name }

// IsLink reports whether the atom is a hyperedge.
func (a *Atom) IsLink() bool { return a.key.Type.IsLink() }

// Equal compares identity keys only.
func (a *Atom) Equal(b *Atom) bool {
	return a != nil && b != nil && a.key == b.key
}

// Outgoing returns a copy of the endpoint sequence.
func (a *Atom) Outgoing() []*Atom {
	return append([]*Atom(nil), a.outgoing...)
}

// Meta returns a metadata value and whether it was set.
func (a *Atom) Meta(key string) (any, bool) {
	v, ok := a.Metadata[key]
	return v, ok
}

// SetMeta sets a metadata value, allocating the map if needed.
func (a *Atom) SetMeta(key string, value any) {
	if a.Metadata == nil {
		a.Metadata = map[string]any{}
	}
	a.Metadata[key] = value
}
