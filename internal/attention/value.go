// Package attention implements the attention economy: a fixed short-term
// importance budget shared between the atoms of a Space and an unallocated
// bank. Diffusion, rent, forgetting and spreading activation move importance
// around; normalization restores the budget.
package attention

// Tuning constants used by the composite operations.
const (
	// DefaultTotalSTI is the budget B when none is configured.
	DefaultTotalSTI = 1000.0

	// DefaultFocusBoundary is the focus threshold expressed as a percentage
	// of the budget: an atom is in focus when sti >= boundary*B/100.
	DefaultFocusBoundary = 0.3

	// DefaultLearningRate drives UpdateLTI inside a cycle.
	DefaultLearningRate = 0.01

	// ltiDecayFactor scales the learning rate when LTI decays.
	ltiDecayFactor = 0.1
)

// Rates applied by RunCycle and FocusOnGoal.
const (
	CycleDiffusionRate = 0.1
	CycleRentRate      = 0.05
	GoalDiffusionRate  = 0.2

	// NeighborStimulusFactor is the share of a goal stimulus its neighbors get.
	NeighborStimulusFactor = 0.5

	// ActivationStimulusScale turns spreading activation into STI.
	ActivationStimulusScale = 10.0
)

// Defaults for callers that have no better values.
const (
	DefaultRentRate        = 0.1
	DefaultForgetThreshold = 0.01
	DefaultSpreadSteps     = 3
	DefaultSpreadDecay     = 0.5
	DefaultGoalIntensity   = 100.0
)

// Value is the attention record of one atom.
type Value struct {
	STI  float64 `json:"sti"`
	LTI  float64 `json:"lti"`
	VLTI float64 `json:"vlti"`
}

// Total weighs the three importance horizons into one scalar.
func (v Value) Total() float64 {
	return v.STI + 0.5*v.LTI + 0.25*v.VLTI
}

// Config holds the economy parameters. TotalSTI never changes at runtime.
type Config struct {
	TotalSTI      float64
	FocusBoundary float64
}

// DefaultConfig returns the stock budget and focus boundary.
func DefaultConfig() Config {
	return Config{
		TotalSTI:      DefaultTotalSTI,
		FocusBoundary: DefaultFocusBoundary,
	}
}

// Stats summarizes the economy.
type Stats struct {
	TotalSTI  float64 `json:"total_sti"`
	BankSTI   float64 `json:"attention_bank"`
	MeanSTI   float64 `json:"mean_sti"`
	MaxSTI    float64 `json:"max_sti"`
	FocusSize int     `json:"focus_size"`
	MeanLTI   float64 `json:"mean_lti"`
}
