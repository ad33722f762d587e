package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/lazypower/workbench/internal/atomspace"
	"github.com/lazypower/workbench/internal/snapshot"
)

const (
	defaultTopN   = 10
	maxIterations = 1000
	metaPrefix    = "meta."
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Status())
}

// handleQueryAtoms answers GET /api/atoms?type=&name=&meta.<key>=<value>.
// Metadata values are compared by their printed form since query strings
// carry no types.
func (s *Server) handleQueryAtoms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := atomspace.Pattern{}
	if t := q.Get("type"); t != "" {
		p[atomspace.PatternType] = t
	}
	if n := q.Get("name"); n != "" {
		p[atomspace.PatternName] = n
	}
	meta := map[string]string{}
	for k, v := range q {
		if key, ok := strings.CutPrefix(k, metaPrefix); ok && key != "" && len(v) > 0 {
			meta[key] = v[0]
		}
	}

	atoms := []snapshot.Record{}
	for _, rec := range s.backend.Query(p) {
		if metaMatches(rec, meta) {
			atoms = append(atoms, rec)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"atoms": atoms,
		"count": len(atoms),
	})
}

func metaMatches(rec snapshot.Record, want map[string]string) bool {
	for k, v := range want {
		got, ok := rec.Metadata[k]
		if !ok || fmt.Sprint(got) != v {
			return false
		}
	}
	return true
}

func (s *Server) handleGetAtom(w http.ResponseWriter, r *http.Request) {
	t := atomspace.Type(chi.URLParam(r, "type"))
	name := chi.URLParam(r, "name")

	d, err := s.backend.Atom(t, name)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleAttentionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Stats())
}

func (s *Server) handleTopAtoms(w http.ResponseWriter, r *http.Request) {
	n := defaultTopN
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}
	var types []atomspace.Type
	for _, t := range r.URL.Query()["type"] {
		types = append(types, atomspace.Type(t))
	}

	atoms := s.backend.TopAtoms(n, types...)
	writeJSON(w, http.StatusOK, map[string]any{
		"atoms": atoms,
		"count": len(atoms),
	})
}

func (s *Server) handleStimulate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type   string  `json:"type"`
		Name   string  `json:"name"`
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Type == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "type and name required")
		return
	}

	moved, err := s.backend.Stimulate(atomspace.Type(req.Type), req.Name, req.Amount)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stimulated": moved,
		"attention":  s.backend.Stats(),
	})
}

func (s *Server) handleCycle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Iterations int `json:"iterations"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
	}
	if req.Iterations == 0 {
		req.Iterations = 1
	}
	if req.Iterations < 0 || req.Iterations > maxIterations {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("iterations must be between 1 and %d", maxIterations))
		return
	}
	writeJSON(w, http.StatusOK, s.backend.RunCycle(req.Iterations))
}

func (s *Server) handleGoalReasoning(w http.ResponseWriter, r *http.Request) {
	res, err := s.backend.ReasonAboutGoal(chi.URLParam(r, "name"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	report, err := s.backend.ExecuteWorkflow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Snapshot())
}
