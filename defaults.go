package vocab

// SM-2 tuning constants. Ease is a multiplicative interval factor with a
// floor of MinEase and no ceiling.
const (
	DefaultEase = 2.5
	MinEase     = 1.3

	AgainEasePenalty = 0.2
	HardEasePenalty  = 0.15
	EasyEaseBonus    = 0.15

	HardIntervalFactor = 1.2 // graduated Hard: interval × 1.2
	EasyIntervalBonus  = 1.3 // graduated Easy: interval × (ease+bonus) × 1.3

	NewGoodInterval = 1 // days for a new card graded Good
	NewEasyInterval = 4 // days for a new card graded Easy

	DefaultMaximumInterval = 36500
)
