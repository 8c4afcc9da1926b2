package condition

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Well known quantity names.
const (
	Temperature = "temperature"
	Humidity    = "humidity"
	Pressure    = "pressure"
	Distance    = "distance"
)

// Reading is one sample from a sensor. A Reading is never modified after it
// is produced.
type Reading struct {
	Values map[string]float64
	Valid  bool
	At     time.Time
}

// NewReading copies values into a Reading. The reading is invalid when it
// carries no values or any of them is NaN.
func NewReading(values map[string]float64, at time.Time) Reading {
	r := Reading{Values: make(map[string]float64, len(values)), Valid: len(values) > 0, At: at}
	for k, v := range values {
		if math.IsNaN(v) {
			r.Valid = false
		}
		r.Values[k] = v
	}
	return r
}

// Invalid is the failure marker returned by samplers.
func Invalid(at time.Time) Reading {
	return Reading{At: at}
}

// Value returns the named quantity.
func (r Reading) Value(quantity string) (float64, bool) {
	v, ok := r.Values[quantity]
	return v, ok
}

// Quantities returns the quantity names in sorted order.
func (r Reading) Quantities() []string {
	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r Reading) String() string {
	if !r.Valid {
		return "invalid"
	}
	parts := make([]string, 0, len(r.Values))
	for _, k := range r.Quantities() {
		parts = append(parts, fmt.Sprintf("%s=%.2f", k, r.Values[k]))
	}
	return strings.Join(parts, " ")
}
