// Package escalate restarts the process after a run of consecutive sensor
// failures.
package escalate

import (
	"fmt"

	"github.com/charmbracelet/log"
)

const DefaultCap = 3

// Escalator counts consecutive invalid readings. Reaching Cap calls Restart
// once and clears the count; any valid reading clears it too.
type Escalator struct {
	Cap     int
	Restart func(reason string)

	count int
}

func New(limit int, restart func(reason string)) *Escalator {
	if limit <= 0 {
		limit = DefaultCap
	}
	return &Escalator{Cap: limit, Restart: restart}
}

// OnResult records one sample outcome and reports whether the restart hook
// fired.
func (e *Escalator) OnResult(valid bool) bool {
	if valid {
		if e.count > 0 {
			log.Info("sensor recovered", "after", e.count)
		}
		e.count = 0
		return false
	}

	e.count++
	log.Warnf("sensor read failed (%d/%d)", e.count, e.Cap)
	if e.count < e.Cap {
		return false
	}

	e.count = 0
	reason := fmt.Sprintf("%d consecutive sensor failures", e.Cap)
	log.Error("failure cap reached, restarting", "reason", reason)
	if e.Restart != nil {
		e.Restart(reason)
	}
	return true
}

// Count is the current run of consecutive failures.
func (e *Escalator) Count() int { return e.count }
