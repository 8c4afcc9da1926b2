// Package controller runs the sample, classify, indicate and escalate loop.
// Everything here happens on one goroutine; other components only see
// Snapshots and Events.
package controller

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"sensoralert/condition"
	"sensoralert/escalate"
	"sensoralert/indicator"
	"sensoralert/sensor"
)

var (
	ErrFailureCapReached = errors.New("sensor failure cap reached")
	ErrMissingComponent  = errors.New("controller component missing")
)

const DefaultTick = 10 * time.Millisecond

// Event is handed to the telemetry side after every publishable sample.
type Event struct {
	Tag     condition.Tag
	Reading condition.Reading
}

// Observer receives a snapshot after each sample and each blink toggle.
// Observe must not block.
type Observer interface {
	Observe(Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

func (f ObserverFunc) Observe(s Snapshot) { f(s) }

// Snapshot is a copy of the controller state.
type Snapshot struct {
	Tag        condition.Tag
	Reading    condition.Reading
	Sampled    bool
	LastSample time.Time
	Samples    uint64
	Failures   int
	Indicator  indicator.State
	Thresholds condition.ThresholdSet
}

// State is the loop bookkeeping between steps.
type State struct {
	LastSample time.Time
	Sampled    bool
	Samples    uint64
	Tag        condition.Tag
	Reading    condition.Reading
}

type Options struct {
	Sampler        sensor.Sampler
	Thresholds     condition.ThresholdSet
	Indicator      *indicator.Driver
	Escalator      *escalate.Escalator
	SampleInterval time.Duration
	// PublishErrors also hands invalid readings to Publish.
	PublishErrors bool
	Publish       func(Event)
	Observers     []Observer
	Now           func() time.Time
}

type Controller struct {
	opts  Options
	state State
}

func New(opts Options) (*Controller, error) {
	if opts.Sampler == nil || opts.Indicator == nil || opts.Escalator == nil {
		return nil, ErrMissingComponent
	}
	if err := opts.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{opts: opts}, nil
}

func (c *Controller) State() State { return c.state }

func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Tag:        c.state.Tag,
		Reading:    c.state.Reading,
		Sampled:    c.state.Sampled,
		LastSample: c.state.LastSample,
		Samples:    c.state.Samples,
		Failures:   c.opts.Escalator.Count(),
		Indicator:  c.opts.Indicator.State(),
		Thresholds: c.opts.Thresholds,
	}
}

// Step runs one loop iteration. A sample is taken when the sample interval
// has elapsed since the previous one; the blink timer is serviced on every
// call.
func (c *Controller) Step(now time.Time) error {
	if !c.state.Sampled || now.Sub(c.state.LastSample) >= c.opts.SampleInterval {
		if err := c.sample(now); err != nil {
			return err
		}
	}
	if c.opts.Indicator.TickBlink(now) {
		c.notify()
	}
	return nil
}

func (c *Controller) sample(now time.Time) error {
	c.state.LastSample = now
	c.state.Sampled = true
	c.state.Samples++

	r := c.opts.Sampler.Sample()
	if c.opts.Escalator.OnResult(r.Valid) {
		return ErrFailureCapReached
	}

	tag := condition.Classify(r, c.opts.Thresholds)
	c.state.Tag = tag
	c.state.Reading = r
	c.opts.Indicator.Render(tag, now)

	st := c.opts.Indicator.State()
	buzzer := "off"
	if st.Volume != indicator.VolumeOff {
		buzzer = "on"
	}
	log.Infof("%s | condition: %s | led: %s %s | buzzer: %s", r, tag, st.Mode, st.Color, buzzer)

	if c.opts.Publish != nil && (r.Valid || c.opts.PublishErrors) {
		c.opts.Publish(Event{Tag: tag, Reading: r})
	}
	c.notify()
	return nil
}

func (c *Controller) notify() {
	if len(c.opts.Observers) == 0 {
		return
	}
	s := c.Snapshot()
	for _, o := range c.opts.Observers {
		o.Observe(s)
	}
}

// Run calls Step on every tick until ctx is cancelled or the failure cap is
// reached.
func (c *Controller) Run(ctx context.Context, tick time.Duration) error {
	if tick <= 0 {
		tick = DefaultTick
	}
	log.Info("control loop started", "sampleInterval", c.opts.SampleInterval, "tick", tick)

	if err := c.Step(c.opts.Now()); err != nil {
		return err
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("control loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := c.Step(c.opts.Now()); err != nil {
				return err
			}
		}
	}
}
