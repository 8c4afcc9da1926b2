package sensor

import (
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"sensoralert/condition"
	"sensoralert/sysfs"
)

// Hwmon reads a single hwmon temperature input in millidegrees Celsius.
type Hwmon struct {
	Path string
	now  clock
}

func NewHwmon(root string, device, channel int, now func() time.Time) *Hwmon {
	return &Hwmon{Path: sysfs.HwmonInput(root, device, channel), now: now}
}

func (h *Hwmon) Sample() condition.Reading {
	at := h.now.now()
	v, err := sysfs.ReadMilli(h.Path)
	if err != nil {
		log.Debug("hwmon read failed", "path", h.Path, "err", err)
		return condition.Invalid(at)
	}
	return condition.NewReading(map[string]float64{condition.Temperature: v}, at)
}

func (h *Hwmon) Close() error { return nil }

// IIO reads a humidity/temperature sensor bound to the Linux IIO subsystem,
// such as the dht11 driver. The DHT11 routinely fails a read with EIO, which
// becomes an invalid reading.
type IIO struct {
	Dir      string
	Channels map[string]string
	now      clock
}

// DHTChannels maps IIO attributes to quantities for dht11/dht22.
var DHTChannels = map[string]string{
	"in_temp_input":             condition.Temperature,
	"in_humidityrelative_input": condition.Humidity,
}

func NewIIO(root string, device int, channels map[string]string, now func() time.Time) *IIO {
	if len(channels) == 0 {
		channels = DHTChannels
	}
	return &IIO{Dir: sysfs.IIODevice(root, device), Channels: channels, now: now}
}

func (s *IIO) Sample() condition.Reading {
	at := s.now.now()
	values := make(map[string]float64, len(s.Channels))
	for attr, q := range s.Channels {
		v, err := sysfs.ReadMilli(filepath.Join(s.Dir, attr))
		if err != nil {
			log.Debug("iio read failed", "attr", attr, "err", err)
			return condition.Invalid(at)
		}
		values[q] = v
	}
	return condition.NewReading(values, at)
}

func (s *IIO) Close() error { return nil }

// Digital reads a sensor module with a digital output (tilt switch, flame,
// PIR motion, vibration, soil moisture). The value is 1 when the condition
// is detected.
type Digital struct {
	Line     sysfs.GPIO
	Quantity string
	now      clock
}

func NewDigital(line sysfs.GPIO, quantity string, now func() time.Time) (*Digital, error) {
	if err := line.Export("in"); err != nil {
		return nil, err
	}
	return &Digital{Line: line, Quantity: quantity, now: now}, nil
}

func (d *Digital) Sample() condition.Reading {
	at := d.now.now()
	on, err := d.Line.Read()
	if err != nil {
		log.Debug("gpio read failed", "pin", d.Line.Pin, "err", err)
		return condition.Invalid(at)
	}
	v := 0.0
	if on {
		v = 1
	}
	return condition.NewReading(map[string]float64{d.Quantity: v}, at)
}

func (d *Digital) Close() error { return nil }
