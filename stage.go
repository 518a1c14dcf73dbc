package vocab

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// Stage describes where a card sits in its learning lifecycle.
// It is derived from the card's counters, never stored.
type Stage int

const (
	New        Stage = iota + 1 // Never reviewed.
	Relearning                  // Lapsed back to zero reps after being reviewed.
	Review                      // At least one successful review since the last lapse.
)

var (
	stageNames  = [...]string{New: "New", Relearning: "Relearning", Review: "Review"}
	stageByName = map[string]Stage{
		"New":        New,
		"Relearning": Relearning,
		"Review":     Review,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Stage(0)
	_ json.Marshaler           = Stage(0)
	_ json.Unmarshaler         = (*Stage)(nil)
	_ encoding.TextMarshaler   = Stage(0)
	_ encoding.TextUnmarshaler = (*Stage)(nil)
)

func (s Stage) isValid() bool {
	return s >= New && s <= Review
}

// String returns the name of the stage ("New", "Relearning", "Review").
// For invalid values it returns "Stage(n)".
func (s Stage) String() string {
	if s.isValid() {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	if !s.isValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStage, int(s))
	}
	return []byte(stageNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	v, ok := stageByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidStage, text)
	}
	*s = v
	return nil
}

// MarshalJSON implements json.Marshaler. Stage serializes as a JSON string.
func (s Stage) MarshalJSON() ([]byte, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidStage, data)
	}
	return s.UnmarshalText([]byte(str))
}
