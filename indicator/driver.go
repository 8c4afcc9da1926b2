// Package indicator drives the RGB LED, the piezo buzzer and the optional
// status lamps from a condition tag.
package indicator

import (
	"time"

	"github.com/charmbracelet/log"

	"sensoralert/condition"
)

// LED shows one color on an RGB LED.
type LED interface {
	Show(Color) error
}

// Buzzer plays a tone at the given volume; VolumeOff silences it.
type Buzzer interface {
	Tone(Volume) error
}

// Lamp is a single color status LED.
type Lamp interface {
	Set(on bool) error
}

// Outputs are the devices driven. LinkLamp and ErrorLamp may be nil.
type Outputs struct {
	LED       LED
	Buzzer    Buzzer
	LinkLamp  Lamp
	ErrorLamp Lamp
}

type Mode int

const (
	Steady Mode = iota
	Blinking
)

func (m Mode) String() string {
	if m == Blinking {
		return "blinking"
	}
	return "steady"
}

// State is a snapshot of what the indicator is showing.
type State struct {
	Mode       Mode
	Tag        condition.Tag
	Rendered   bool
	On         bool
	Color      Color
	Volume     Volume
	LinkFault  bool
	LastToggle time.Time
}

// Driver owns the indicator state machine. It is not safe for concurrent
// use; the control loop is its only caller.
type Driver struct {
	out      Outputs
	table    Table
	interval time.Duration
	volume   Volume

	state   State
	lastErr string
}

// NewDriver starts in Steady(Off) with the buzzer silent.
func NewDriver(out Outputs, table Table, blinkInterval time.Duration) *Driver {
	if table == nil {
		table = DefaultTable()
	}
	d := &Driver{out: out, table: table, interval: blinkInterval, volume: VolumeHalf}
	d.show(Off)
	d.tone(VolumeOff)
	d.lamp(d.out.LinkLamp, false)
	d.lamp(d.out.ErrorLamp, false)
	return d
}

func (d *Driver) State() State { return d.state }

func (d *Driver) Interval() time.Duration { return d.interval }

// Render switches to the behavior for tag. A blinking behavior starts in the
// on phase and its timer restarts at now.
func (d *Driver) Render(tag condition.Tag, now time.Time) {
	b := d.table[tag]
	d.state.Tag = tag
	d.state.Rendered = true
	d.lamp(d.out.ErrorLamp, tag == condition.SensorError)

	if b.Blink {
		d.state.Mode = Blinking
		d.state.On = true
		d.state.LastToggle = now
		d.show(b.Color)
		if b.Buzzer == Silent {
			d.tone(VolumeOff)
		} else {
			d.tone(d.volume)
		}
		return
	}

	d.state.Mode = Steady
	d.state.On = b.Color != Off
	d.show(b.Color)
	if b.Buzzer == Tone {
		d.tone(d.volume)
	} else {
		d.tone(VolumeOff)
	}
}

// TickBlink flips the blink phase once the interval has elapsed since the
// last toggle. It reports whether a toggle happened.
func (d *Driver) TickBlink(now time.Time) bool {
	if d.state.Mode != Blinking || now.Sub(d.state.LastToggle) < d.interval {
		return false
	}
	b := d.table[d.state.Tag]
	d.state.On = !d.state.On
	d.state.LastToggle = now
	if d.state.On {
		d.show(b.Color)
	} else {
		d.show(Off)
	}
	if b.Buzzer != Silent && d.state.On {
		d.tone(d.volume)
	} else {
		d.tone(VolumeOff)
	}
	return true
}

// LinkFault lights the link lamp and sounds a half volume tone while the
// network is unavailable.
func (d *Driver) LinkFault(on bool) {
	d.state.LinkFault = on
	d.lamp(d.out.LinkLamp, on)
	if on {
		d.tone(d.volume)
	} else {
		d.tone(VolumeOff)
	}
}

// Shutdown turns every output off.
func (d *Driver) Shutdown() {
	d.state.Mode = Steady
	d.state.On = false
	d.show(Off)
	d.tone(VolumeOff)
	d.lamp(d.out.LinkLamp, false)
	d.lamp(d.out.ErrorLamp, false)
}

func (d *Driver) show(c Color) {
	d.state.Color = c
	if d.out.LED != nil {
		d.report("led", d.out.LED.Show(c))
	}
}

func (d *Driver) tone(v Volume) {
	d.state.Volume = v
	if d.out.Buzzer != nil {
		d.report("buzzer", d.out.Buzzer.Tone(v))
	}
}

func (d *Driver) lamp(l Lamp, on bool) {
	if l != nil {
		d.report("lamp", l.Set(on))
	}
}

// report logs output failures once until the failure changes.
func (d *Driver) report(output string, err error) {
	if err == nil {
		return
	}
	msg := output + ": " + err.Error()
	if msg == d.lastErr {
		return
	}
	d.lastErr = msg
	log.Warn("indicator output failed", "output", output, "err", err)
}
