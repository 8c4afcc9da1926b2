// Package status exposes the controller state over HTTP and as Prometheus
// metrics.
package status

import (
	"sort"
	"sync"
	"time"

	"sensoralert/controller"
	"sensoralert/indicator"
)

// Store keeps the latest snapshot for readers on other goroutines.
type Store struct {
	mu       sync.RWMutex
	snap     controller.Snapshot
	deviceID string
	started  time.Time
}

func NewStore(deviceID string) *Store {
	return &Store{deviceID: deviceID, started: time.Now()}
}

func (s *Store) Observe(snap controller.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

func (s *Store) Snapshot() controller.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Quantity is one monitored value with its bounds.
type Quantity struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
	Low   *float64 `json:"low,omitempty"`
	High  *float64 `json:"high,omitempty"`
}

// Report is the /status document.
type Report struct {
	DeviceID   string     `json:"deviceID"`
	Condition  string     `json:"condition"`
	Status     string     `json:"status"`
	Valid      bool       `json:"valid"`
	Quantities []Quantity `json:"quantities"`
	LED        string     `json:"led"`
	Blinking   bool       `json:"blinking"`
	Buzzer     bool       `json:"buzzer"`
	LinkFault  bool       `json:"linkFault"`
	Failures   int        `json:"failures"`
	Samples    uint64     `json:"samples"`
	LastSample *time.Time `json:"lastSample,omitempty"`
	Uptime     string     `json:"uptime"`
}

func f(v float64) *float64 { return &v }

func (s *Store) Report() Report {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()

	rep := Report{
		DeviceID:  s.deviceID,
		Condition: snap.Tag.String(),
		Status:    snap.Tag.Status(),
		Valid:     snap.Reading.Valid,
		LED:       snap.Indicator.Color.String(),
		Blinking:  snap.Indicator.Mode == indicator.Blinking,
		Buzzer:    snap.Indicator.Volume != indicator.VolumeOff,
		LinkFault: snap.Indicator.LinkFault,
		Failures:  snap.Failures,
		Samples:   snap.Samples,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
	}
	if !snap.Sampled {
		rep.Condition, rep.Status = "Pending", "Pending"
	} else {
		t := snap.LastSample
		rep.LastSample = &t
	}

	names := map[string]bool{}
	for q := range snap.Thresholds {
		names[q] = true
	}
	if snap.Reading.Valid {
		for q := range snap.Reading.Values {
			names[q] = true
		}
	}
	for q := range names {
		qty := Quantity{Name: q}
		if v, ok := snap.Reading.Values[q]; ok && snap.Reading.Valid {
			qty.Value = f(v)
		}
		if b, ok := snap.Thresholds[q]; ok {
			qty.Low, qty.High = f(b.Low), f(b.High)
		}
		rep.Quantities = append(rep.Quantities, qty)
	}
	sort.Slice(rep.Quantities, func(i, j int) bool { return rep.Quantities[i].Name < rep.Quantities[j].Name })
	return rep
}
