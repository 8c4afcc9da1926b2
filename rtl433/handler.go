// Package rtl433 turns rtl_433 JSON events received over MQTT into
// readings.
package rtl433

import (
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"sensoralert/condition"
	"sensoralert/shared"
)

const timeLayout = "2006-01-02 15:04:05"

// Values maps the event onto quantity names. Fahrenheit only devices are
// converted to Celsius.
func (sd SensorData) Values() map[string]float64 {
	v := map[string]float64{}
	switch {
	case sd.TemperatureC != nil:
		v[condition.Temperature] = *sd.TemperatureC
	case sd.TemperatureF != nil:
		v[condition.Temperature] = (*sd.TemperatureF - 32) * 5 / 9
	}
	if sd.Humidity != nil {
		v[condition.Humidity] = *sd.Humidity
	}
	switch {
	case sd.PressureHPa != nil:
		v[condition.Pressure] = *sd.PressureHPa
	case sd.PressureKPa != nil:
		v[condition.Pressure] = *sd.PressureKPa * 10
	}
	if sd.Moisture != nil {
		v["moisture"] = *sd.Moisture
	}
	return v
}

// At parses the event time in local time, falling back to now.
func (sd SensorData) At(now time.Time) time.Time {
	if t, err := time.ParseInLocation(timeLayout, sd.Time, time.Local); err == nil {
		return t
	}
	return now
}

type Handler struct{}

func (Handler) Process(topic string, sink shared.ReadingSink, msg mqtt.Message) error {
	var sd SensorData
	if err := json.Unmarshal(msg.Payload(), &sd); err != nil {
		log.Warnf("Error unmarshaling JSON: payload: [%s]  %v", msg.Payload(), err)
		return ErrHandleRTL433Data
	}
	values := sd.Values()
	if len(values) == 0 {
		return ErrNoQuantities
	}
	if sd.BatteryOK != nil && *sd.BatteryOK == 0 {
		log.Warn("rtl_433 sensor battery low", "model", sd.Model, "id", sd.ID)
	}
	log.Debug("rtl_433 reading", "topic", topic, "model", sd.Model, "id", sd.ID, "values", values)
	sink.Put(values, sd.At(time.Now()))
	return nil
}
