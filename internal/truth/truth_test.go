package truth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

func TestNewClamps(t *testing.T) {
	cases := []struct {
		s, c         float64
		wantS, wantC float64
	}{
		{0.5, 0.5, 0.5, 0.5},
		{-1, 2, 0, 1},
		{1.5, -0.2, 1, 0},
		{math.NaN(), math.Inf(1), 0, 1},
		{math.Inf(-1), 0.3, 0, 0.3},
	}
	for _, tc := range cases {
		v := New(tc.s, tc.c)
		assert.Equal(t, tc.wantS, v.Strength, "strength for (%v, %v)", tc.s, tc.c)
		assert.Equal(t, tc.wantC, v.Confidence, "confidence for (%v, %v)", tc.s, tc.c)
	}
}

func TestDeduction(t *testing.T) {
	got := Deduction(New(0.8, 0.9), New(0.7, 0.8))
	assert.InDelta(t, 0.56, got.Strength, eps)
	assert.InDelta(t, 0.72/1.1, got.Confidence, eps)
}

func TestInduction(t *testing.T) {
	got := Induction(New(0.5, 0.8), DefaultEvidenceCount)
	assert.InDelta(t, 0.4, got.Strength, eps)
	assert.InDelta(t, 0.4, got.Confidence, eps)

	none := Induction(New(0.5, 0.8), -3)
	assert.Equal(t, 0.0, none.Confidence)
}

func TestAbduction(t *testing.T) {
	got := Abduction(New(0.6, 0.8), New(0.7, 0.5))
	want := 0.42 / (0.42 + 0.4*0.3)
	assert.InDelta(t, want, got.Strength, eps)
	assert.InDelta(t, 0.2, got.Confidence, eps)
}

func TestAbductionDegenerateDenominator(t *testing.T) {
	got := Abduction(New(0, 1), New(1, 1))
	assert.Equal(t, 0.5, got.Strength)
	assert.Equal(t, 0.5, got.Confidence)
}

func TestRevision(t *testing.T) {
	got := Revision(New(0.2, 0.5), New(0.8, 0.5))
	assert.InDelta(t, 0.5, got.Strength, eps)
	assert.InDelta(t, 0.5, got.Confidence, eps)

	got = Revision(New(1, 0.75), New(0, 0.25))
	assert.InDelta(t, 0.75, got.Strength, eps)
	assert.InDelta(t, 0.5, got.Confidence, eps)
}

func TestRevisionZeroConfidence(t *testing.T) {
	assert.Equal(t, Neutral(), Revision(New(0.9, 0), New(0.1, 0)))
}

func TestRevisionCommutes(t *testing.T) {
	values := []Value{
		New(0, 0), New(1, 1), New(0.3, 0.7), New(0.9, 0.1), New(0.5, 0), New(0.01, 0.99),
	}
	for _, a := range values {
		for _, b := range values {
			ab, ba := Revision(a, b), Revision(b, a)
			assert.InDelta(t, ab.Strength, ba.Strength, eps, "%v %v", a, b)
			assert.InDelta(t, ab.Confidence, ba.Confidence, eps, "%v %v", a, b)
		}
	}
}

func TestIdentityElements(t *testing.T) {
	assert.Equal(t, Value{Strength: 1, Confidence: 1}, Conjunction(nil))
	assert.Equal(t, Value{Strength: 0, Confidence: 1}, Disjunction([]Value{}))
}

func TestConjunctionDisjunction(t *testing.T) {
	in := []Value{New(0.5, 0.25), New(0.5, 1)}

	and := Conjunction(in)
	assert.InDelta(t, 0.25, and.Strength, eps)
	assert.InDelta(t, 0.5, and.Confidence, eps)

	or := Disjunction(in)
	assert.InDelta(t, 0.75, or.Strength, eps)
	assert.InDelta(t, 0.5, or.Confidence, eps)
}

func TestResultsStayInRange(t *testing.T) {
	grid := []float64{0, 0.25, 0.5, 0.75, 1}
	for _, s1 := range grid {
		for _, c1 := range grid {
			for _, s2 := range grid {
				for _, c2 := range grid {
					a, b := New(s1, c1), New(s2, c2)
					for _, v := range []Value{
						Deduction(a, b), Abduction(a, b), Revision(a, b),
						Induction(a, 4), Conjunction([]Value{a, b}), Disjunction([]Value{a, b}),
					} {
						assert.True(t, v.Strength >= 0 && v.Strength <= 1, "strength %v", v)
						assert.True(t, v.Confidence >= 0 && v.Confidence <= 1, "confidence %v", v)
					}
				}
			}
		}
	}
}
