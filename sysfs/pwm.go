package sysfs

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"
)

// PWM is one channel under /sys/class/pwm/pwmchipN.
type PWM struct {
	Root    string
	Chip    int
	Channel int
	Period  time.Duration
}

func (p PWM) chipDir() string {
	root := p.Root
	if root == "" {
		root = DefaultRoot
	}
	return filepath.Join(root, "class", "pwm", "pwmchip"+strconv.Itoa(p.Chip))
}

func (p PWM) dir() string {
	return filepath.Join(p.chipDir(), "pwm"+strconv.Itoa(p.Channel))
}

// FrequencyPeriod converts a frequency in Hz into a PWM period.
func FrequencyPeriod(hz int) time.Duration {
	if hz <= 0 {
		return 0
	}
	return time.Second / time.Duration(hz)
}

// Export exports the channel, programs the period and enables output with
// zero duty.
func (p PWM) Export() error {
	if !exists(p.dir()) {
		if err := Write(filepath.Join(p.chipDir(), "export"), strconv.Itoa(p.Channel)); err != nil {
			return fmt.Errorf("export pwmchip%d/pwm%d: %w", p.Chip, p.Channel, err)
		}
	}
	if !exists(p.dir()) {
		return fmt.Errorf("%w: pwmchip%d/pwm%d", ErrNotExported, p.Chip, p.Channel)
	}
	if err := Write(filepath.Join(p.dir(), "duty_cycle"), "0"); err != nil {
		return err
	}
	if err := Write(filepath.Join(p.dir(), "period"), strconv.FormatInt(p.Period.Nanoseconds(), 10)); err != nil {
		return err
	}
	return Write(filepath.Join(p.dir(), "enable"), "1")
}

// Duty sets the duty cycle as level/max of the period.
func (p PWM) Duty(level, max uint32) error {
	if max == 0 {
		return fmt.Errorf("%w: zero duty range", ErrBadValue)
	}
	if level > max {
		level = max
	}
	ns := p.Period.Nanoseconds() * int64(level) / int64(max)
	return Write(filepath.Join(p.dir(), "duty_cycle"), strconv.FormatInt(ns, 10))
}
