package rtl433

import "errors"

var (
	ErrHandleRTL433Data = errors.New("failed to handle RTL433 topic")
	ErrNoQuantities     = errors.New("rtl_433 event carries no known quantity")
)

// SensorData is one rtl_433 JSON event. Pointer fields are absent for
// devices that do not report them.
type SensorData struct {
	Time         string   `json:"time"`
	Model        string   `json:"model"`
	ID           int      `json:"id"`
	BatteryOK    *int     `json:"battery_ok"`
	TemperatureC *float64 `json:"temperature_C"`
	TemperatureF *float64 `json:"temperature_F"`
	Humidity     *float64 `json:"humidity"`
	PressureHPa  *float64 `json:"pressure_hPa"`
	PressureKPa  *float64 `json:"pressure_kPa"`
	Moisture     *float64 `json:"moisture"`
	MIC          string   `json:"mic"`
}
