package firefly

import "fmt"

// FlashID selects one of the defined flash patterns. Every species
// the jar can imitate has exactly one pattern in the table.
type FlashID int

const (
	PhotinusPallens FlashID = iota
	PhotinusLewisi
	PhotinusAmplus
	PhotinusXanthophotis
	PhoturisJamaicensis
	PhotinusLeucopyge

	FlashCount
)

// MaxFlashPoints is the maximum number of keyframes a single pattern
// may contain.
const MaxFlashPoints = 15

// MaxBrightness is the upper bound of the internal brightness scale.
const MaxBrightness = 1000

func (id FlashID) String() string {
	switch id {
	case PhotinusPallens:
		return "Photinus pallens"
	case PhotinusLewisi:
		return "Photinus lewisi"
	case PhotinusAmplus:
		return "Photinus amplus"
	case PhotinusXanthophotis:
		return "Photinus xanthophotis"
	case PhoturisJamaicensis:
		return "Photuris jamaicensis"
	case PhotinusLeucopyge:
		return "Photinus leucopyge"
	}
	return fmt.Sprintf("FlashID(%d)", int(id))
}

// FlashPoint is a single keyframe of a flash pattern: ramp linearly
// from the previous keyframe's target to Target over Duration
// milliseconds.
type FlashPoint struct {
	Target   int
	Duration int
}

// Pattern is an ordered keyframe sequence describing one species'
// light curve. A pattern implicitly starts at brightness 0 and is
// over at its first keyframe with Target == 0.
type Pattern []FlashPoint

// Flash pattern definitions, one per species. Brightness targets are
// on a 0..1000 scale, durations in milliseconds.
//
// Flash shapes based on research by McDermott and Buck (1959).
var flashPatterns = [FlashCount]Pattern{
	PhotinusPallens: {
		{800, 300},
		{1000, 100},
		{800, 200},
		{0, 400},
	},
	PhotinusLewisi: {
		{500, 100},
		{500, 800},
		{0, 100},
	},
	PhotinusAmplus: {
		{1000, 100},
		{1, 100},
		{1, 100},
		{1000, 100},
		{0, 100},
	},
	PhotinusXanthophotis: {
		{1000, 200},
		{1, 100},
		{1, 200},
		{300, 100},
		{1, 100},
		{300, 100},
		{0, 100},
	},
	PhoturisJamaicensis: {
		{500, 50},
		{500, 200},
		{0, 50},
	},
	PhotinusLeucopyge: {
		{1000, 50},
		{1000, 200},
		{0, 50},
	},
}

// Pattern returns the flash pattern for this id. It panics on an
// undefined id; ids always come from the validated table range.
func (id FlashID) Pattern() Pattern {
	return flashPatterns[id]
}

// Length returns the total active duration of the pattern: the sum of
// all keyframe durations up to and including the terminating
// zero-target keyframe.
func (p Pattern) Length() int {
	length := 0
	for _, fp := range p {
		length += fp.Duration
		if fp.Target == 0 {
			break
		}
	}
	return length
}

// Validate checks the structural invariants of a single pattern.
func (p Pattern) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("pattern is empty")
	}
	if len(p) > MaxFlashPoints {
		return fmt.Errorf("pattern has %d keyframes, maximum is %d", len(p), MaxFlashPoints)
	}
	for i, fp := range p {
		if fp.Duration <= 0 {
			return fmt.Errorf("keyframe %d has non-positive duration %d", i, fp.Duration)
		}
		if fp.Target < 0 || fp.Target > MaxBrightness {
			return fmt.Errorf("keyframe %d target %d out of range [0, %d]", i, fp.Target, MaxBrightness)
		}
		if fp.Target == 0 && i != len(p)-1 {
			return fmt.Errorf("keyframe %d reaches target 0 but %d keyframes follow", i, len(p)-1-i)
		}
	}
	if p[len(p)-1].Target != 0 {
		return fmt.Errorf("pattern does not terminate with a zero-target keyframe")
	}
	return nil
}

// ValidatePatterns checks the whole built-in table. It is called once
// during initialization so that a malformed table is rejected before
// the first tick ever runs.
func ValidatePatterns() error {
	for id, p := range flashPatterns {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("flash pattern %s: %w", FlashID(id), err)
		}
	}
	return nil
}
