package controller

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensoralert/condition"
	"sensoralert/escalate"
	"sensoralert/indicator"
	"sensoralert/sensor"
)

var (
	t0         = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	thresholds = condition.ThresholdSet{
		condition.Temperature: {Low: 10, High: 25},
		condition.Humidity:    {Low: 10, High: 80},
	}
)

const (
	sampleEvery = 3 * time.Second
	blinkEvery  = 100 * time.Millisecond
)

type outputs struct {
	color  indicator.Color
	volume indicator.Volume
	shows  int
}

func (o *outputs) Show(c indicator.Color) error  { o.color = c; o.shows++; return nil }
func (o *outputs) Tone(v indicator.Volume) error { o.volume = v; return nil }

type queue struct {
	readings []condition.Reading
	calls    int
}

func (q *queue) Sample() condition.Reading {
	r := q.readings[q.calls]
	if q.calls < len(q.readings)-1 {
		q.calls++
	}
	return r
}

func (q *queue) Close() error { return nil }

func dht(temp, hum float64) condition.Reading {
	return condition.NewReading(map[string]float64{condition.Temperature: temp, condition.Humidity: hum}, t0)
}

type rig struct {
	ctrl     *Controller
	out      *outputs
	sampler  *queue
	restarts []string
	events   []Event
	snaps    []Snapshot
}

func newRig(t *testing.T, readings ...condition.Reading) *rig {
	t.Helper()
	r := &rig{out: &outputs{}, sampler: &queue{readings: readings}}
	drv := indicator.NewDriver(indicator.Outputs{LED: r.out, Buzzer: r.out}, nil, blinkEvery)
	esc := escalate.New(3, func(reason string) { r.restarts = append(r.restarts, reason) })
	ctrl, err := New(Options{
		Sampler:        &sensor.Retry{Sampler: r.sampler, Attempts: 1},
		Thresholds:     thresholds,
		Indicator:      drv,
		Escalator:      esc,
		SampleInterval: sampleEvery,
		Publish:        func(e Event) { r.events = append(r.events, e) },
		Observers:      []Observer{ObserverFunc(func(s Snapshot) { r.snaps = append(r.snaps, s) })},
		Now:            func() time.Time { return t0 },
	})
	require.NoError(t, err)
	r.ctrl = ctrl
	return r
}

func TestNormalReading(t *testing.T) {
	r := newRig(t, dht(22, 50))
	require.NoError(t, r.ctrl.Step(t0))

	assert.Equal(t, condition.Normal, r.ctrl.State().Tag)
	assert.Equal(t, indicator.Green, r.out.color)
	assert.Equal(t, indicator.VolumeOff, r.out.volume)
	assert.Equal(t, indicator.Steady, r.ctrl.Snapshot().Indicator.Mode)
	assert.Equal(t, 0, r.ctrl.Snapshot().Failures)
	require.Len(t, r.events, 1)
	assert.Equal(t, condition.Normal, r.events[0].Tag)
}

func TestHumidityNaN(t *testing.T) {
	r := newRig(t, dht(22, math.NaN()))
	require.NoError(t, r.ctrl.Step(t0))

	assert.Equal(t, condition.SensorError, r.ctrl.State().Tag)
	assert.Equal(t, indicator.Red, r.out.color)
	assert.Equal(t, indicator.VolumeHalf, r.out.volume)
	assert.Equal(t, indicator.Steady, r.ctrl.Snapshot().Indicator.Mode)
	assert.Equal(t, 1, r.ctrl.Snapshot().Failures)
	assert.Empty(t, r.events, "invalid readings are not published by default")
}

func TestAboveRangeBlinksInLockstep(t *testing.T) {
	r := newRig(t, dht(30, 50))
	require.NoError(t, r.ctrl.Step(t0))
	require.Equal(t, condition.AboveRange, r.ctrl.State().Tag)
	assert.Equal(t, indicator.Red, r.out.color)
	assert.Equal(t, indicator.VolumeHalf, r.out.volume)

	for i := 1; i <= 10; i++ {
		require.NoError(t, r.ctrl.Step(t0.Add(time.Duration(i)*blinkEvery)))
		if i%2 == 1 {
			assert.Equal(t, indicator.Off, r.out.color, "step %d", i)
			assert.Equal(t, indicator.VolumeOff, r.out.volume, "step %d", i)
		} else {
			assert.Equal(t, indicator.Red, r.out.color, "step %d", i)
			assert.Equal(t, indicator.VolumeHalf, r.out.volume, "step %d", i)
		}
	}
	assert.Equal(t, uint64(1), r.ctrl.State().Samples)
}

func TestRestartAfterThreeFailures(t *testing.T) {
	r := newRig(t, condition.Invalid(t0))
	require.NoError(t, r.ctrl.Step(t0))
	require.NoError(t, r.ctrl.Step(t0.Add(sampleEvery)))
	assert.Empty(t, r.restarts)

	err := r.ctrl.Step(t0.Add(2 * sampleEvery))
	assert.ErrorIs(t, err, ErrFailureCapReached)
	assert.Len(t, r.restarts, 1)
}

func TestRecoveryResetsFailures(t *testing.T) {
	r := newRig(t, condition.Invalid(t0), condition.Invalid(t0), dht(22, 50), condition.Invalid(t0))
	for i := 0; i < 4; i++ {
		require.NoError(t, r.ctrl.Step(t0.Add(time.Duration(i)*sampleEvery)))
	}
	assert.Empty(t, r.restarts)
	assert.Equal(t, 1, r.ctrl.Snapshot().Failures)
}

func TestSampleInterval(t *testing.T) {
	r := newRig(t, dht(22, 50))
	require.NoError(t, r.ctrl.Step(t0))
	require.NoError(t, r.ctrl.Step(t0.Add(sampleEvery-time.Millisecond)))
	assert.Equal(t, uint64(1), r.ctrl.State().Samples)
	require.NoError(t, r.ctrl.Step(t0.Add(sampleEvery)))
	assert.Equal(t, uint64(2), r.ctrl.State().Samples)
	assert.Len(t, r.events, 2)
}

func TestConditionChangeStopsBlinking(t *testing.T) {
	r := newRig(t, dht(5, 50), dht(22, 50))
	require.NoError(t, r.ctrl.Step(t0))
	assert.Equal(t, indicator.Blue, r.out.color)
	require.NoError(t, r.ctrl.Step(t0.Add(blinkEvery)))
	assert.Equal(t, indicator.Off, r.out.color)

	require.NoError(t, r.ctrl.Step(t0.Add(sampleEvery)))
	assert.Equal(t, indicator.Green, r.out.color)
	shows := r.out.shows
	require.NoError(t, r.ctrl.Step(t0.Add(sampleEvery+blinkEvery)))
	assert.Equal(t, shows, r.out.shows)
}

func TestObserversSeeSnapshots(t *testing.T) {
	r := newRig(t, dht(30, 50))
	require.NoError(t, r.ctrl.Step(t0))
	require.NoError(t, r.ctrl.Step(t0.Add(blinkEvery)))
	require.Len(t, r.snaps, 2)
	assert.True(t, r.snaps[0].Indicator.On)
	assert.False(t, r.snaps[1].Indicator.On)
	assert.Equal(t, condition.AboveRange, r.snaps[1].Tag)
}

func TestPublishErrors(t *testing.T) {
	r := newRig(t, condition.Invalid(t0))
	r.ctrl.opts.PublishErrors = true
	require.NoError(t, r.ctrl.Step(t0))
	require.Len(t, r.events, 1)
	assert.Equal(t, condition.SensorError, r.events[0].Tag)
}

func TestRunStopsOnCancel(t *testing.T) {
	r := newRig(t, dht(22, 50))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.ctrl.Run(ctx, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(1), r.ctrl.State().Samples)
}

func TestRunReturnsFailureCap(t *testing.T) {
	r := newRig(t, condition.Invalid(t0))
	now := t0
	r.ctrl.opts.Now = func() time.Time {
		now = now.Add(sampleEvery)
		return now
	}
	err := r.ctrl.Run(context.Background(), time.Millisecond)
	assert.ErrorIs(t, err, ErrFailureCapReached)
	assert.Len(t, r.restarts, 1)
}

func TestNewValidates(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, ErrMissingComponent)

	drv := indicator.NewDriver(indicator.Outputs{}, nil, blinkEvery)
	_, err = New(Options{
		Sampler:    sensor.Func(func() condition.Reading { return dht(1, 1) }),
		Indicator:  drv,
		Escalator:  escalate.New(3, nil),
		Thresholds: condition.ThresholdSet{},
	})
	assert.ErrorIs(t, err, condition.ErrInvalidBounds)
}
