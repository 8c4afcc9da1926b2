package rtl433

import (
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensoralert/condition"
)

type message struct {
	mqtt.Message
	payload []byte
}

func (m message) Payload() []byte { return m.payload }

type sink struct {
	values map[string]float64
	at     time.Time
}

func (s *sink) Put(values map[string]float64, at time.Time) { s.values, s.at = values, at }

func TestProcess(t *testing.T) {
	s := &sink{}
	payload := `{"time":"2024-05-01 12:00:00","model":"Acurite-Tower","id":1234,"channel":"A","battery_ok":1,"temperature_C":21.3,"humidity":44,"mic":"CHECKSUM"}`
	require.NoError(t, Handler{}.Process("rtl_433/pi/events", s, message{payload: []byte(payload)}))
	assert.Equal(t, map[string]float64{condition.Temperature: 21.3, condition.Humidity: 44}, s.values)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local), s.at)
}

func TestProcessFahrenheitAndPressure(t *testing.T) {
	s := &sink{}
	payload := `{"model":"Fineoffset-WH24","id":7,"temperature_F":50,"pressure_kPa":101.3}`
	require.NoError(t, Handler{}.Process("rtl_433/pi/events", s, message{payload: []byte(payload)}))
	assert.InDelta(t, 10.0, s.values[condition.Temperature], 1e-9)
	assert.InDelta(t, 1013.0, s.values[condition.Pressure], 1e-9)
}

func TestProcessRejects(t *testing.T) {
	s := &sink{}
	assert.ErrorIs(t, Handler{}.Process("t", s, message{payload: []byte("{")}), ErrHandleRTL433Data)
	assert.ErrorIs(t, Handler{}.Process("t", s, message{payload: []byte(`{"model":"Door","id":1}`)}), ErrNoQuantities)
	assert.Nil(t, s.values)
}
