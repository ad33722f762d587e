package truth

import "math"

// DefaultEvidenceCount is the evidence count Induction is usually called with.
const DefaultEvidenceCount = 10

// Deduction combines A→B and B→C into A→C.
func Deduction(ab, bc Value) Value {
	s := ab.Strength * bc.Strength
	c := ab.Confidence * bc.Confidence / (1 + math.Abs(ab.Strength-bc.Strength))
	return New(s, c)
}

// Induction infers B→A from A→B backed by n pieces of evidence.
// Negative counts are treated as no evidence.
func Induction(ab Value, n int) Value {
	if n < 0 {
		n = 0
	}
	count := float64(n)
	return New(0.8*ab.Strength, ab.Confidence*count/(count+10))
}

// Abduction infers A→B from A→C and B→C. When the denominator vanishes
// (one strength is 0 and the other 1) the strength falls back to 0.5.
func Abduction(ac, bc Value) Value {
	num := ac.Strength * bc.Strength
	den := num + (1-ac.Strength)*(1-bc.Strength)
	s := 0.5
	if den != 0 {
		s = num / den
	}
	return New(s, ac.Confidence*bc.Confidence*0.5)
}

// Revision merges two pieces of evidence about the same statement.
// Strengths are averaged with confidences as weights. It is also the
// formula the atom store uses to merge duplicate insertions.
func Revision(a, b Value) Value {
	w := a.Confidence + b.Confidence
	if w == 0 {
		return Neutral()
	}
	s := (a.Confidence*a.Strength + b.Confidence*b.Strength) / w
	return New(s, w/(w+1))
}

// Conjunction combines conditions with AND: product of strengths,
// geometric mean of confidences. The empty conjunction is (1, 1).
func Conjunction(values []Value) Value {
	if len(values) == 0 {
		return Certain()
	}
	s := 1.0
	for _, v := range values {
		s *= v.Strength
	}
	return New(s, geometricMeanConfidence(values))
}

// Disjunction combines alternatives with OR: 1 - ∏(1-sᵢ), geometric mean
// of confidences. The empty disjunction is (0, 1).
func Disjunction(values []Value) Value {
	if len(values) == 0 {
		return Value{Strength: 0, Confidence: 1}
	}
	miss := 1.0
	for _, v := range values {
		miss *= 1 - v.Strength
	}
	return New(1-miss, geometricMeanConfidence(values))
}

func geometricMeanConfidence(values []Value) float64 {
	product := 1.0
	for _, v := range values {
		product *= v.Confidence
	}
	return math.Pow(product, 1/float64(len(values)))
}
