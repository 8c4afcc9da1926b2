package indicator

import (
	"errors"
	"fmt"
	"strings"

	"sensoralert/condition"
	"sensoralert/shared"
)

var (
	ErrUnknownColor   = errors.New("unknown color")
	ErrUnknownBuzzer  = errors.New("unknown buzzer mode")
	ErrUnknownBackend = errors.New("unknown indicator backend")
)

// BuzzerMode selects what the buzzer does for a condition.
type BuzzerMode int

const (
	Silent BuzzerMode = iota
	// Tone is a continuous half volume tone.
	Tone
	// Pulse sounds only during the on phase of a blink.
	Pulse
)

func (m BuzzerMode) String() string {
	switch m {
	case Tone:
		return "tone"
	case Pulse:
		return "pulse"
	}
	return "silent"
}

func ParseBuzzerMode(s string) (BuzzerMode, error) {
	switch strings.ToLower(s) {
	case "", "silent", "off":
		return Silent, nil
	case "tone":
		return Tone, nil
	case "pulse":
		return Pulse, nil
	}
	return Silent, fmt.Errorf("%w: %q", ErrUnknownBuzzer, s)
}

// Behavior is how one condition is shown.
type Behavior struct {
	Color  Color
	Blink  bool
	Buzzer BuzzerMode
}

// Table maps every condition to its behavior.
type Table map[condition.Tag]Behavior

func DefaultTable() Table {
	return Table{
		condition.Normal:      {Color: Green},
		condition.BelowRange:  {Color: Blue, Blink: true, Buzzer: Pulse},
		condition.AboveRange:  {Color: Red, Blink: true, Buzzer: Pulse},
		condition.SensorError: {Color: Red, Buzzer: Tone},
	}
}

// TableFromConfig starts from DefaultTable and applies overrides keyed by
// condition name.
func TableFromConfig(overrides map[string]shared.BehaviorConfig) (Table, error) {
	t := DefaultTable()
	for name, bc := range overrides {
		tag, err := condition.ParseTag(name)
		if err != nil {
			return nil, err
		}
		b := t[tag]
		if bc.Color != "" {
			if b.Color, err = ParseColor(bc.Color); err != nil {
				return nil, err
			}
		}
		if bc.Buzzer != "" {
			if b.Buzzer, err = ParseBuzzerMode(bc.Buzzer); err != nil {
				return nil, err
			}
		}
		if bc.Blink != nil {
			b.Blink = *bc.Blink
		}
		t[tag] = b
	}
	return t, nil
}
