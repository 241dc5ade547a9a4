package valueobjects

import "errors"

// MoodState is a value object representing the 7-level ordinal mood scale
// used for all trend and decay math across the intelligence core.
type MoodState string

const (
	MoodEuphoric   MoodState = "euphoric"
	MoodExcited    MoodState = "excited"
	MoodContent    MoodState = "content"
	MoodNeutral    MoodState = "neutral"
	MoodConcerned  MoodState = "concerned"
	MoodFrustrated MoodState = "frustrated"
	MoodDejected   MoodState = "dejected"
)

// moodValues maps each ordinal state to its continuous numeric value.
var moodValues = map[MoodState]float64{
	MoodEuphoric:   1.0,
	MoodExcited:    0.7,
	MoodContent:    0.5,
	MoodNeutral:    0.0,
	MoodConcerned:  -0.3,
	MoodFrustrated: -0.6,
	MoodDejected:   -1.0,
}

// NewMoodState creates a MoodState from its string tag
func NewMoodState(tag string) (MoodState, error) {
	state := MoodState(tag)
	if _, ok := moodValues[state]; !ok {
		return "", errors.New("unknown mood state: " + tag)
	}
	return state, nil
}

// Numeric returns the continuous value of the mood state
func (m MoodState) Numeric() float64 {
	return moodValues[m]
}

// IsValid reports whether the state is one of the seven ordinal levels
func (m MoodState) IsValid() bool {
	_, ok := moodValues[m]
	return ok
}

// String returns the string tag of the mood state
func (m MoodState) String() string {
	return string(m)
}

// MoodFromNumeric maps a continuous mood value back onto the ordinal scale
// using fixed thresholds.
func MoodFromNumeric(value float64) MoodState {
	switch {
	case value >= 0.8:
		return MoodEuphoric
	case value >= 0.5:
		return MoodExcited
	case value >= 0.2:
		return MoodContent
	case value >= -0.2:
		return MoodNeutral
	case value >= -0.5:
		return MoodConcerned
	case value >= -0.8:
		return MoodFrustrated
	default:
		return MoodDejected
	}
}
