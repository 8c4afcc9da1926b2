package condition

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnknownTag    = errors.New("unknown condition tag")
	ErrInvalidBounds = errors.New("invalid threshold bounds")
)

// Bounds is an inclusive acceptable range.
type Bounds struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// ThresholdSet maps a quantity name to its acceptable range.
type ThresholdSet map[string]Bounds

// Validate rejects empty sets, NaN bounds and Low > High.
func (t ThresholdSet) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: no quantities monitored", ErrInvalidBounds)
	}
	for q, b := range t {
		if math.IsNaN(b.Low) || math.IsNaN(b.High) {
			return fmt.Errorf("%w: %s has NaN bound", ErrInvalidBounds, q)
		}
		if b.Low > b.High {
			return fmt.Errorf("%w: %s low %.2f > high %.2f", ErrInvalidBounds, q, b.Low, b.High)
		}
	}
	return nil
}

// Classify maps a reading onto a Tag. Below range is checked before above
// range, so a reading with one quantity low and another high is BelowRange.
func Classify(r Reading, t ThresholdSet) Tag {
	if !r.Valid {
		return SensorError
	}
	for q := range t {
		if _, ok := r.Values[q]; !ok {
			return SensorError
		}
	}
	for q, b := range t {
		if r.Values[q] < b.Low {
			return BelowRange
		}
	}
	for q, b := range t {
		if r.Values[q] > b.High {
			return AboveRange
		}
	}
	return Normal
}
