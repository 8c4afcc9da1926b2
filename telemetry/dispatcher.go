package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"sensoralert/condition"
)

var (
	ErrConnect       = errors.New("broker connect failed")
	ErrNotConnected  = errors.New("not connected")
	ErrPublishStatus = errors.New("publish rejected")
	ErrUnknownSink   = errors.New("unknown sink")
)

const (
	DefaultQueueSize      = 16
	DefaultPublishTimeout = 10 * time.Second
)

// Sink delivers one message to one destination.
type Sink interface {
	Name() string
	Publish(ctx context.Context, m Message) error
	Close() error
}

type item struct {
	tag condition.Tag
	r   condition.Reading
}

// Dispatcher moves readings from the control loop to the sinks. Submit
// never blocks; Run owns the sinks.
type Dispatcher struct {
	// OnPublish is called after every sink publish attempt.
	OnPublish func(sink string, err error)
	// OnDrop is called when the queue is full.
	OnDrop func()

	builder *Builder
	sinks   []Sink
	queue   chan item
	timeout time.Duration
}

func NewDispatcher(b *Builder, sinks []Sink, size int) *Dispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Dispatcher{
		builder: b,
		sinks:   sinks,
		queue:   make(chan item, size),
		timeout: DefaultPublishTimeout,
	}
}

// Submit queues a reading for publishing. It reports false when the reading
// was dropped.
func (d *Dispatcher) Submit(tag condition.Tag, r condition.Reading) bool {
	select {
	case d.queue <- item{tag: tag, r: r}:
		return true
	default:
		log.Warn("telemetry queue full, dropping reading", "condition", tag)
		if d.OnDrop != nil {
			d.OnDrop()
		}
		return false
	}
}

// Run publishes queued readings until ctx is cancelled, then closes every
// sink.
func (d *Dispatcher) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer d.close()

	for {
		select {
		case it := <-d.queue:
			d.publish(ctx, it)
		case <-ctx.Done():
			log.Info("Publisher received shutdown signal (cancelled).")
			return
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, it item) {
	if len(d.sinks) == 0 {
		return
	}
	msg := d.builder.Build(ctx, it.tag, it.r)
	for _, s := range d.sinks {
		pctx, cancel := context.WithTimeout(ctx, d.timeout)
		err := s.Publish(pctx, msg)
		cancel()
		if err != nil {
			log.Error("publish failed", "sink", s.Name(), "err", err)
		} else {
			log.Debugf("published %s reading to %s", msg.Status, s.Name())
		}
		if d.OnPublish != nil {
			d.OnPublish(s.Name(), err)
		}
	}
}

func (d *Dispatcher) close() {
	for _, s := range d.sinks {
		if err := s.Close(); err != nil {
			log.Warn("failed to close sink", "sink", s.Name(), "err", err)
		}
	}
}
