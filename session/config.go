package session

import (
	"encoding"
	"fmt"
	"math"
)

// Mode selects the session's card-selection strategy.
type Mode int

const (
	Smart    Mode = iota // Blend due, weak-topic and new cards. The zero value.
	DueOnly              // Only cards that are due.
	TagFocus             // Only cards carrying Config.Tag.
)

var (
	modeNames  = [...]string{Smart: "smart", DueOnly: "due-only", TagFocus: "tag-focus"}
	modeByName = map[string]Mode{
		"smart":     Smart,
		"due-only":  DueOnly,
		"tag-focus": TagFocus,
	}
)

var (
	_ fmt.Stringer             = Mode(0)
	_ encoding.TextMarshaler   = Mode(0)
	_ encoding.TextUnmarshaler = (*Mode)(nil)
)

func (m Mode) isValid() bool {
	return m >= Smart && m <= TagFocus
}

// String returns "smart", "due-only" or "tag-focus".
func (m Mode) String() string {
	if m.isValid() {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	m, ok := modeByName[s]
	if !ok {
		return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
	}
	return m, nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.isValid() {
		return nil, fmt.Errorf("%w: mode %d", ErrInvalidConfig, int(m))
	}
	return []byte(modeNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Weights is the target share of each category within a smart session.
type Weights struct {
	Due  float64 `json:"due" toml:"due"`
	Weak float64 `json:"weak" toml:"weak"`
	New  float64 `json:"new" toml:"new"`
}

// DefaultWeights is the 60% due / 25% weak-topic / 15% new session mix.
var DefaultWeights = Weights{Due: 0.60, Weak: 0.25, New: 0.15}

func (w Weights) sum() float64 {
	return w.Due + w.Weak + w.New
}

func (w Weights) validate() error {
	for _, v := range []float64{w.Due, w.Weak, w.New} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: weights must be finite and non-negative, got %+v", ErrInvalidConfig, w)
		}
	}
	if w.sum() <= 0 {
		return fmt.Errorf("%w: weights must not all be zero", ErrInvalidConfig)
	}
	return nil
}

// normalized scales the weights to sum to 1. Zero weights become DefaultWeights.
func (w Weights) normalized() Weights {
	s := w.sum()
	if s <= 0 {
		return DefaultWeights
	}
	return Weights{Due: w.Due / s, Weak: w.Weak / s, New: w.New / s}
}

// Thresholds are the tag classification policy constants.
// Zero fields are replaced with the matching DefaultThresholds field.
type Thresholds struct {
	WeakRate       float64 `json:"weak_rate" toml:"weak_rate"`               // success rate strictly below → weak
	WeakMinCards   int     `json:"weak_min_cards" toml:"weak_min_cards"`     // cards needed to call a tag weak
	StrongRate     float64 `json:"strong_rate" toml:"strong_rate"`           // success rate at or above → strong
	StrongMinCards int     `json:"strong_min_cards" toml:"strong_min_cards"` // cards needed to call a tag strong
}

// DefaultThresholds: weak below 70% with 5+ cards, strong at 85%+ with 3+ cards.
var DefaultThresholds = Thresholds{
	WeakRate:       0.70,
	WeakMinCards:   5,
	StrongRate:     0.85,
	StrongMinCards: 3,
}

func (t Thresholds) withDefaults() Thresholds {
	if t.WeakRate == 0 {
		t.WeakRate = DefaultThresholds.WeakRate
	}
	if t.WeakMinCards == 0 {
		t.WeakMinCards = DefaultThresholds.WeakMinCards
	}
	if t.StrongRate == 0 {
		t.StrongRate = DefaultThresholds.StrongRate
	}
	if t.StrongMinCards == 0 {
		t.StrongMinCards = DefaultThresholds.StrongMinCards
	}
	return t
}

func (t Thresholds) validate() error {
	t = t.withDefaults()
	if t.WeakRate < 0 || t.WeakRate > 1 || t.StrongRate < 0 || t.StrongRate > 1 {
		return fmt.Errorf("%w: threshold rates must be within [0, 1], got weak %.2f strong %.2f",
			ErrInvalidConfig, t.WeakRate, t.StrongRate)
	}
	if t.WeakMinCards < 0 || t.StrongMinCards < 0 {
		return fmt.Errorf("%w: minimum card counts must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Config holds the learner's choices for one session.
// Zero values produce sensible defaults; see field comments.
type Config struct {
	Mode            Mode       `json:"mode"`
	TargetCards     int        `json:"target_cards"`     // required, typically 10–50
	Tag             string     `json:"tag,omitempty"`    // required for TagFocus
	Weights         Weights    `json:"weights"`          // zero → DefaultWeights
	Thresholds      Thresholds `json:"thresholds"`       // zero fields → DefaultThresholds
	DisableRecovery bool       `json:"disable_recovery"` // zero false → confidence recovery on
}

// Validate reports whether the config can start a session.
func (c Config) Validate() error {
	if !c.Mode.isValid() {
		return fmt.Errorf("%w: mode %d", ErrInvalidConfig, int(c.Mode))
	}
	if c.TargetCards < 1 {
		return fmt.Errorf("%w: target cards must be positive, got %d", ErrInvalidConfig, c.TargetCards)
	}
	if c.Mode == TagFocus && c.Tag == "" {
		return fmt.Errorf("%w: tag-focus mode requires a tag", ErrInvalidConfig)
	}
	if c.Weights != (Weights{}) {
		if err := c.Weights.validate(); err != nil {
			return err
		}
	}
	return c.Thresholds.validate()
}

func (c Config) withDefaults() Config {
	if c.Weights == (Weights{}) {
		c.Weights = DefaultWeights
	}
	c.Weights = c.Weights.normalized()
	c.Thresholds = c.Thresholds.withDefaults()
	return c
}
