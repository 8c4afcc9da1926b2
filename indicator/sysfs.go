package indicator

import (
	"errors"

	"sensoralert/sysfs"
)

// GPIOLED drives a common cathode RGB LED from three GPIO lines. A channel
// at half brightness or more turns its leg on.
type GPIOLED struct {
	Red, Green, Blue sysfs.GPIO
}

func NewGPIOLED(red, green, blue sysfs.GPIO) (*GPIOLED, error) {
	for _, g := range []sysfs.GPIO{red, green, blue} {
		if err := g.Export("out"); err != nil {
			return nil, err
		}
	}
	return &GPIOLED{Red: red, Green: green, Blue: blue}, nil
}

func (l *GPIOLED) Show(c Color) error {
	return errors.Join(
		l.Red.Set(c.R >= 0x80),
		l.Green.Set(c.G >= 0x80),
		l.Blue.Set(c.B >= 0x80),
	)
}

// PWMLED drives an RGB LED from three PWM channels with 8 bit duty.
type PWMLED struct {
	Red, Green, Blue sysfs.PWM
}

func NewPWMLED(red, green, blue sysfs.PWM) (*PWMLED, error) {
	for _, p := range []sysfs.PWM{red, green, blue} {
		if err := p.Export(); err != nil {
			return nil, err
		}
	}
	return &PWMLED{Red: red, Green: green, Blue: blue}, nil
}

func (l *PWMLED) Show(c Color) error {
	return errors.Join(
		l.Red.Duty(uint32(c.R), 0xff),
		l.Green.Duty(uint32(c.G), 0xff),
		l.Blue.Duty(uint32(c.B), 0xff),
	)
}

// PWMBuzzer drives a passive piezo; the volume is the 10 bit duty.
type PWMBuzzer struct {
	Channel sysfs.PWM
}

func NewPWMBuzzer(ch sysfs.PWM) (*PWMBuzzer, error) {
	if err := ch.Export(); err != nil {
		return nil, err
	}
	return &PWMBuzzer{Channel: ch}, nil
}

func (b *PWMBuzzer) Tone(v Volume) error {
	return b.Channel.Duty(uint32(v), uint32(VolumeMax))
}

// GPIOLamp is a status LED on one GPIO line.
type GPIOLamp struct {
	Line sysfs.GPIO
}

func NewGPIOLamp(line sysfs.GPIO) (*GPIOLamp, error) {
	if err := line.Export("out"); err != nil {
		return nil, err
	}
	return &GPIOLamp{Line: line}, nil
}

func (l *GPIOLamp) Set(on bool) error {
	return l.Line.Set(on)
}
