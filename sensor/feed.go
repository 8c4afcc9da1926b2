package sensor

import (
	"sync"
	"time"

	"sensoralert/condition"
)

// Feed holds the latest values pushed by an MQTT feed handler. Samples older
// than MaxAge are reported as invalid.
type Feed struct {
	MaxAge time.Duration

	mu     sync.Mutex
	values map[string]float64
	at     time.Time
	now    clock
}

func NewFeed(maxAge time.Duration, now func() time.Time) *Feed {
	return &Feed{MaxAge: maxAge, now: now}
}

// Put replaces the held values. It is safe to call from MQTT callbacks.
func (f *Feed) Put(values map[string]float64, at time.Time) {
	cp := make(map[string]float64, len(values))
	for k, v := range values {
		cp[k] = v
	}
	f.mu.Lock()
	f.values = cp
	f.at = at
	f.mu.Unlock()
}

func (f *Feed) Sample() condition.Reading {
	now := f.now.now()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values == nil {
		return condition.Invalid(now)
	}
	if f.MaxAge > 0 && now.Sub(f.at) > f.MaxAge {
		return condition.Invalid(now)
	}
	return condition.NewReading(f.values, now)
}

func (f *Feed) Close() error { return nil }
