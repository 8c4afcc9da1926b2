package sensor

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"sensoralert/shared"
	"sensoralert/sysfs"
)

const (
	DefaultRetries    = 3
	DefaultRetryDelay = 100 * time.Millisecond
	DefaultFeedMaxAge = 5 * time.Minute
)

// New builds the configured driver wrapped in a Retry. feed is used by the
// "feed" driver and may be nil otherwise.
func New(cfg shared.SensorConfig, feed *Feed, now func() time.Time) (Sampler, error) {
	var (
		s   Sampler
		err error
	)
	switch cfg.Driver {
	case "", "simulated":
		waves := make(map[string]Wave, len(cfg.Simulated.Quantities))
		for q, w := range cfg.Simulated.Quantities {
			waves[q] = Wave{Base: w.Base, Jitter: w.Jitter}
		}
		s = NewSimulated(waves, cfg.Simulated.FailureRate, cfg.Simulated.Seed, now)
	case "hwmon":
		s = NewHwmon(cfg.Root, cfg.Hwmon.Device, cfg.Hwmon.Channel, now)
	case "iio", "dht11":
		s = NewIIO(cfg.Root, cfg.IIO.Device, cfg.IIO.Channels, now)
	case "gpio":
		line := sysfs.GPIO{Root: cfg.Root, Pin: cfg.GPIO.Pin, ActiveLow: cfg.GPIO.ActiveLow}
		quantity := cfg.GPIO.Quantity
		if quantity == "" {
			quantity = "detected"
		}
		s, err = NewDigital(line, quantity, now)
	case "modbus":
		s, err = NewModbus(cfg.Modbus, now)
	case "feed":
		if feed == nil {
			return nil, fmt.Errorf("%w: feed driver needs a feed", ErrUnknownDriver)
		}
		s = feed
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	attempts := cfg.Retries
	if attempts == 0 {
		attempts = DefaultRetries
	}
	delay := shared.Ms(cfg.RetryDelayMs)
	if cfg.RetryDelayMs == 0 {
		delay = DefaultRetryDelay
	}
	log.Info("sensor ready", "driver", cfg.Driver, "attempts", attempts, "retryDelay", delay)
	return &Retry{Sampler: s, Attempts: attempts, Delay: delay}, nil
}
