package sensor

import (
	"time"

	"github.com/charmbracelet/log"

	"sensoralert/condition"
)

// Retry re-reads a flaky sensor a bounded number of times, sleeping Delay
// between attempts. It returns the first valid reading, or the last invalid
// one.
type Retry struct {
	Sampler  Sampler
	Attempts int
	Delay    time.Duration
	Sleep    func(time.Duration)
}

func (r *Retry) Sample() condition.Reading {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var last condition.Reading
	for i := 0; i < attempts; i++ {
		if i > 0 {
			log.Debug("retrying sensor read", "attempt", i+1, "of", attempts)
			sleep(r.Delay)
		}
		last = r.Sampler.Sample()
		if last.Valid {
			return last
		}
	}
	log.Warnf("sensor read failed after %d attempts", attempts)
	return last
}

func (r *Retry) Close() error {
	return r.Sampler.Close()
}
