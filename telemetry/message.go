// Package telemetry publishes readings to MQTT, Telegraf, webhooks, Kafka
// and Meshtastic channels without blocking the control loop.
package telemetry

import (
	"context"
	"math"
	"time"

	"sensoralert/condition"
	"sensoralert/device"
)

// Message is the JSON document published for every reading.
type Message struct {
	DeviceType     string             `json:"deviceType"`
	DeviceFunction string             `json:"deviceFunction"`
	DeviceModel    string             `json:"deviceModel"`
	DeviceID       string             `json:"deviceID"`
	TempC          *float64           `json:"temp_C"`
	TempF          *float64           `json:"temp_F"`
	Humidity       *float64           `json:"humidity"`
	Status         string             `json:"status"`
	SSID           string             `json:"SSID"`
	IP             string             `json:"IP"`
	RSSI           int                `json:"RSSI"`
	Timestamp      string             `json:"timestamp,omitempty"`
	Values         map[string]float64 `json:"values,omitempty"`

	Tag condition.Tag `json:"-"`
	At  time.Time     `json:"-"`
}

// Fahrenheit converts and rounds to a whole degree.
func Fahrenheit(c float64) float64 {
	return math.Round(c*9/5 + 32)
}

func ptr(v float64) *float64 { return &v }

// NewMessage fills a Message from one classified reading. Invalid readings
// carry no values.
func NewMessage(info device.Info, nw device.Network, tag condition.Tag, r condition.Reading) Message {
	m := Message{
		DeviceType:     info.Type,
		DeviceFunction: info.Function,
		DeviceModel:    info.Model,
		DeviceID:       info.ID,
		Status:         tag.Status(),
		SSID:           nw.SSID,
		IP:             nw.IP,
		RSSI:           nw.RSSI,
		Tag:            tag,
		At:             r.At,
	}
	if !r.At.IsZero() {
		m.Timestamp = r.At.UTC().Format(time.RFC3339)
	}
	if !r.Valid {
		return m
	}
	m.Values = make(map[string]float64, len(r.Values))
	for k, v := range r.Values {
		m.Values[k] = v
	}
	if c, ok := r.Value(condition.Temperature); ok {
		m.TempC = ptr(c)
		m.TempF = ptr(Fahrenheit(c))
	}
	if h, ok := r.Value(condition.Humidity); ok {
		m.Humidity = ptr(h)
	}
	return m
}

// Builder stamps messages with the device identity and a cached view of
// the network.
type Builder struct {
	Info   device.Info
	Lookup func(context.Context) device.Network
	TTL    time.Duration

	nw  device.Network
	at  time.Time
	now func() time.Time
}

func NewBuilder(info device.Info, lookup func(context.Context) device.Network, ttl time.Duration) *Builder {
	return &Builder{Info: info, Lookup: lookup, TTL: ttl, now: time.Now}
}

// Build is called from the publisher goroutine only.
func (b *Builder) Build(ctx context.Context, tag condition.Tag, r condition.Reading) Message {
	if b.Lookup != nil && (b.at.IsZero() || b.now().Sub(b.at) >= b.TTL) {
		b.nw = b.Lookup(ctx)
		b.at = b.now()
	}
	return NewMessage(b.Info, b.nw, tag, r)
}
