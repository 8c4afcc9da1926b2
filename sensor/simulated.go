package sensor

import (
	"math/rand"
	"time"

	"sensoralert/condition"
)

// Wave describes one simulated quantity: Base plus uniform noise in
// [-Jitter, +Jitter].
type Wave struct {
	Base   float64 `json:"base"`
	Jitter float64 `json:"jitter"`
}

// Simulated generates random readings. FailureRate is the probability of an
// invalid reading.
type Simulated struct {
	Quantities  map[string]Wave
	FailureRate float64

	rng *rand.Rand
	now clock
}

// NewSimulated seeds the generator; seed 0 picks a time based seed.
func NewSimulated(quantities map[string]Wave, failureRate float64, seed int64, now func() time.Time) *Simulated {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if len(quantities) == 0 {
		// DHT11 on a desk
		quantities = map[string]Wave{
			condition.Temperature: {Base: 23, Jitter: 5},
			condition.Humidity:    {Base: 50, Jitter: 20},
		}
	}
	return &Simulated{
		Quantities:  quantities,
		FailureRate: failureRate,
		rng:         rand.New(rand.NewSource(seed)),
		now:         now,
	}
}

func (s *Simulated) Sample() condition.Reading {
	at := s.now.now()
	if s.FailureRate > 0 && s.rng.Float64() < s.FailureRate {
		return condition.Invalid(at)
	}
	values := make(map[string]float64, len(s.Quantities))
	for q, w := range s.Quantities {
		values[q] = w.Base + (s.rng.Float64()*2-1)*w.Jitter
	}
	return condition.NewReading(values, at)
}

func (s *Simulated) Close() error { return nil }
