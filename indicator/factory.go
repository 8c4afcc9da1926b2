package indicator

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"sensoralert/shared"
	"sensoralert/sysfs"
)

const (
	DefaultBlinkInterval = 100 * time.Millisecond
	MinBlinkInterval     = 100 * time.Millisecond
	MaxBlinkInterval     = time.Second

	ledFrequencyHz    = 5000
	buzzerFrequencyHz = 2000
)

// New builds the outputs named in cfg and the driver on top of them.
func New(cfg shared.IndicatorConfig) (*Driver, error) {
	table, err := TableFromConfig(cfg.Behaviors)
	if err != nil {
		return nil, err
	}
	interval := shared.Ms(cfg.BlinkIntervalMs)
	if interval == 0 {
		interval = DefaultBlinkInterval
	}
	if interval < MinBlinkInterval || interval > MaxBlinkInterval {
		return nil, fmt.Errorf("%w: blink interval %s outside [%s, %s]", shared.ErrInvalidConfig, interval, MinBlinkInterval, MaxBlinkInterval)
	}

	var out Outputs
	gpio := func(pin int) sysfs.GPIO {
		return sysfs.GPIO{Root: cfg.Root, Pin: pin, ActiveLow: cfg.ActiveLow}
	}

	switch cfg.Backend {
	case "", "console":
		out.LED = &ConsoleLED{}
	case "gpio":
		if out.LED, err = NewGPIOLED(gpio(cfg.GPIO.Red), gpio(cfg.GPIO.Green), gpio(cfg.GPIO.Blue)); err != nil {
			return nil, err
		}
	case "pwm":
		hz := cfg.PWMFrequencyHz
		if hz == 0 {
			hz = ledFrequencyHz
		}
		pwm := func(ch int) sysfs.PWM {
			return sysfs.PWM{Root: cfg.Root, Chip: cfg.PWMChip, Channel: ch, Period: sysfs.FrequencyPeriod(hz)}
		}
		if out.LED, err = NewPWMLED(pwm(cfg.PWM.Red), pwm(cfg.PWM.Green), pwm(cfg.PWM.Blue)); err != nil {
			return nil, err
		}
	case "none":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}

	switch cfg.Buzzer {
	case "", "console":
		out.Buzzer = &ConsoleBuzzer{}
	case "pwm":
		hz := cfg.BuzzerPWM.FrequencyHz
		if hz == 0 {
			hz = buzzerFrequencyHz
		}
		ch := sysfs.PWM{Root: cfg.Root, Chip: cfg.BuzzerPWM.Chip, Channel: cfg.BuzzerPWM.Channel, Period: sysfs.FrequencyPeriod(hz)}
		if out.Buzzer, err = NewPWMBuzzer(ch); err != nil {
			return nil, err
		}
	case "none":
	default:
		return nil, fmt.Errorf("%w: buzzer %q", ErrUnknownBackend, cfg.Buzzer)
	}

	// pin 0 means no lamp fitted
	if cfg.LinkLampPin > 0 {
		if out.LinkLamp, err = NewGPIOLamp(gpio(cfg.LinkLampPin)); err != nil {
			return nil, err
		}
	} else if cfg.Backend == "" || cfg.Backend == "console" {
		out.LinkLamp = ConsoleLamp{Name: "link"}
	}
	if cfg.ErrorLampPin > 0 {
		if out.ErrorLamp, err = NewGPIOLamp(gpio(cfg.ErrorLampPin)); err != nil {
			return nil, err
		}
	} else if cfg.Backend == "" || cfg.Backend == "console" {
		out.ErrorLamp = ConsoleLamp{Name: "error"}
	}

	log.Info("indicator ready", "backend", cfg.Backend, "buzzer", cfg.Buzzer, "blink", interval)
	return NewDriver(out, table, interval), nil
}
