// Package snapshot exports session state as JSON. The per-atom record
// layout is the compatibility contract for any persisted state.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/lazypower/workbench/internal/atomspace"
	"github.com/lazypower/workbench/internal/attention"
	"github.com/lazypower/workbench/internal/truth"
	"github.com/lazypower/workbench/internal/workflow"
)

// Record is one exported atom.
type Record struct {
	Type       atomspace.Type `json:"type"`
	Name       string         `json:"name"`
	TruthValue truth.Value    `json:"truth_value"`
	Attention  float64        `json:"attention"`
	Metadata   map[string]any `json:"metadata"`
}

// Space holds the atom records.
type Space struct {
	Atoms []Record `json:"atoms"`
}

// Document is a full session export.
type Document struct {
	Atomspace   Space           `json:"atomspace"`
	Attention   attention.Stats `json:"attention"`
	Coordinator workflow.Stats  `json:"coordinator"`
}

// NewRecord converts one atom.
func NewRecord(a *atomspace.Atom) Record {
	meta := a.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return Record{
		Type:       a.Type(),
		Name:       a.Name(),
		TruthValue: a.TV,
		Attention:  a.Attention,
		Metadata:   meta,
	}
}

// Build exports every atom of s in insertion order.
func Build(s *atomspace.Space) Space {
	atoms := s.All()
	out := Space{Atoms: make([]Record, 0, len(atoms))}
	for _, a := range atoms {
		out.Atoms = append(out.Atoms, NewRecord(a))
	}
	return out
}

// Write encodes doc as indented JSON.
func Write(w io.Writer, doc any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}
