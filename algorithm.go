package vocab

import "math"

// step holds the SRS counters that a single grade transforms.
type step struct {
	ease     float64
	interval int
	reps     int
	lapses   int
}

// nextStep applies one SM-2 grade to the counters.
// Inputs are sanitized first: ease below MinEase (including zero or negative)
// is lifted to MinEase, negative intervals become 0 and grades are clamped.
func nextStep(in step, g Grade) step {
	in.ease = clampEase(in.ease)
	in.interval = max(in.interval, 0)
	in.reps = max(in.reps, 0)
	in.lapses = max(in.lapses, 0)
	g = g.clamp()

	// A lapse always demotes the card back to new.
	if g == Again {
		return step{
			ease:     clampEase(in.ease - AgainEasePenalty),
			interval: 0,
			reps:     0,
			lapses:   in.lapses + 1,
		}
	}

	if in.reps == 0 {
		return nextNew(in, g)
	}
	return nextGraduated(in, g)
}

// nextNew handles Hard/Good/Easy for a card with zero reps.
func nextNew(in step, g Grade) step {
	out := step{ease: in.ease, reps: 1, lapses: in.lapses}
	switch g {
	case Hard:
		out.ease = clampEase(in.ease - HardEasePenalty)
		out.interval = 0
	case Good:
		out.interval = NewGoodInterval
	case Easy:
		out.ease = in.ease + EasyEaseBonus
		out.interval = NewEasyInterval
	}
	return out
}

// nextGraduated handles Hard/Good/Easy for a card with reps > 0.
// The resulting interval is never below one day.
func nextGraduated(in step, g Grade) step {
	out := step{ease: in.ease, reps: in.reps + 1, lapses: in.lapses}
	ivl := float64(in.interval)
	switch g {
	case Hard:
		out.ease = clampEase(in.ease - HardEasePenalty)
		out.interval = roundDays(ivl * HardIntervalFactor)
	case Good:
		out.interval = roundDays(ivl * in.ease)
	case Easy:
		out.ease = in.ease + EasyEaseBonus
		out.interval = roundDays(ivl * (in.ease + EasyEaseBonus) * EasyIntervalBonus)
	}
	out.interval = max(out.interval, 1)
	return out
}

// clampEase enforces the ease floor. NaN is treated as the floor.
func clampEase(e float64) float64 {
	if math.IsNaN(e) || e < MinEase {
		return MinEase
	}
	return e
}

// roundDays rounds to the nearest whole day, saturating instead of overflowing.
func roundDays(d float64) int {
	r := math.Round(d)
	if r >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(r)
}
