// Package truth implements the probabilistic truth values carried by atoms
// and the evidence-combination rules that operate on them.
//
// Every function here is pure and total over [0,1]² inputs. Results are
// always built with New, so they are clamped like any other value.
package truth

import (
	"fmt"
	"math"
)

// Value is a (strength, confidence) pair. Strength is the estimated
// probability; confidence is how much evidence backs the estimate.
type Value struct {
	Strength   float64 `json:"strength"`
	Confidence float64 `json:"confidence"`
}

// New returns a Value with both fields clamped to [0,1].
// NaN inputs collapse to 0.
func New(strength, confidence float64) Value {
	return Value{Strength: clamp01(strength), Confidence: clamp01(confidence)}
}

// Certain is the default truth value of a freshly created atom.
func Certain() Value { return Value{Strength: 1, Confidence: 1} }

// Neutral is the value returned when no evidence can be combined.
func Neutral() Value { return Value{Strength: 0.5, Confidence: 0} }

func (v Value) String() string {
	return fmt.Sprintf("<%.4f, %.4f>", v.Strength, v.Confidence)
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
