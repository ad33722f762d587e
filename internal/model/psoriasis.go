package model

func ptr(f float64) *float64 { return &f }

// Psoriasis is the built-in psoriasis therapy model: a treatment and a
// recovery mode, five uncertain parameters and a one-year remission goal.
func Psoriasis() *Spec {
	return &Spec{
		Name: "psoriasis",
		File: "model/psoriasis/psoriasis.pdrh",
		Modes: []Mode{
			{ID: 1, Name: "treatment"},
			{ID: 2, Name: "recovery"},
		},
		Parameters: []Parameter{
			{Name: "gamma1", Value: 0.0033, Bounds: []float64{0.002, 0.005}, Uncertainty: ptr(0.1)},
			{Name: "gamma1d", Value: 0.0132, Bounds: []float64{0.008, 0.016}, Uncertainty: ptr(0.1)},
			{Name: "k1as", Value: 0.0131, Bounds: []float64{0.01, 0.02}, Uncertainty: ptr(0.1)},
			{Name: "beta1", Value: 1.97e-06, Bounds: []float64{1e-06, 3e-06}, Uncertainty: ptr(0.15)},
			{Name: "InA", Value: 60000, Bounds: []float64{50000, 70000}, Uncertainty: ptr(0.2)},
		},
		Goals: []Goal{
			{Name: "remission_365", Condition: "tau = 365 and SC_d < 100", Probability: 0},
		},
	}
}
