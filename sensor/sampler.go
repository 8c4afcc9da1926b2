// Package sensor produces condition.Readings from hardware, simulators and
// MQTT feeds. A failed read is an invalid Reading, never an error.
package sensor

import (
	"errors"
	"time"

	"sensoralert/condition"
)

var (
	ErrUnknownDriver = errors.New("unknown sensor driver")
	ErrNoRegisters   = errors.New("no modbus registers configured")
)

// Sampler takes one reading. Callers enforce the minimum interval between
// calls.
type Sampler interface {
	Sample() condition.Reading
	Close() error
}

// Func adapts a function to the Sampler interface.
type Func func() condition.Reading

func (f Func) Sample() condition.Reading { return f() }
func (f Func) Close() error              { return nil }

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
