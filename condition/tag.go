package condition

import "fmt"

// Tag is the classification of a single reading.
type Tag int

const (
	Normal Tag = iota
	BelowRange
	AboveRange
	SensorError
)

// Tags lists every condition in declaration order.
var Tags = []Tag{Normal, BelowRange, AboveRange, SensorError}

func (t Tag) String() string {
	switch t {
	case Normal:
		return "Normal"
	case BelowRange:
		return "BelowRange"
	case AboveRange:
		return "AboveRange"
	case SensorError:
		return "SensorError"
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// Status is the label used in published telemetry.
func (t Tag) Status() string {
	switch t {
	case Normal:
		return "Normal"
	case BelowRange:
		return "Below Normal"
	case AboveRange:
		return "Above Normal"
	}
	return "Error"
}

// ParseTag accepts the names returned by String.
func ParseTag(s string) (Tag, error) {
	for _, t := range Tags {
		if t.String() == s {
			return t, nil
		}
	}
	return SensorError, fmt.Errorf("%w: %q", ErrUnknownTag, s)
}
