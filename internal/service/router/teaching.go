package router

const (
	// DefaultTeachingThreshold is the step at which the tutor stops guiding and answers directly.
	DefaultTeachingThreshold = 3

	ModeGuiding       = "guiding"
	ModeSolutionReady = "solution-ready"

	defaultUnderstanding = "exploring"
)

// TeachingState tracks how far a learner is into a problem. The caller advances it after
// every successful turn.
type TeachingState struct {
	Step          int    `json:"step"`
	Understanding string `json:"understanding"`
}

// Mode returns ModeGuiding below threshold and ModeSolutionReady from it on.
func (s TeachingState) Mode(threshold int) string {
	if s.Step < threshold {
		return ModeGuiding
	}
	return ModeSolutionReady
}

// Advance returns a copy with the step counter incremented.
func (s TeachingState) Advance() TeachingState {
	s.Step++
	if s.Understanding == "" {
		s.Understanding = defaultUnderstanding
	}
	return s
}

func (s TeachingState) understanding() string {
	if s.Understanding == "" {
		return defaultUnderstanding
	}
	return s.Understanding
}
