package sensor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/simonvetter/modbus"

	"sensoralert/condition"
	"sensoralert/shared"
)

// Modbus reads one register per quantity from an RTU or TCP device.
type Modbus struct {
	client    *modbus.ModbusClient
	registers []shared.ModbusRegister
	now       clock
}

func parity(s string) uint {
	switch strings.ToLower(s) {
	case "even", "e":
		return modbus.PARITY_EVEN
	case "odd", "o":
		return modbus.PARITY_ODD
	}
	return modbus.PARITY_NONE
}

func NewModbus(cfg shared.ModbusConfig, now func() time.Time) (*Modbus, error) {
	if len(cfg.Registers) == 0 {
		return nil, ErrNoRegisters
	}
	timeout := shared.Ms(cfg.TimeoutMs)
	if timeout == 0 {
		timeout = time.Second
	}
	stopBits := cfg.StopBits
	if stopBits == 0 {
		stopBits = 1
	}
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:      cfg.URL,
		Speed:    cfg.Speed,
		DataBits: 8,
		Parity:   parity(cfg.Parity),
		StopBits: stopBits,
		Timeout:  timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("modbus client %s: %w", cfg.URL, err)
	}
	if err := client.Open(); err != nil {
		return nil, fmt.Errorf("modbus open %s: %w", cfg.URL, err)
	}
	if cfg.UnitID != 0 {
		if err := client.SetUnitId(cfg.UnitID); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("modbus unit id: %w", err)
		}
	}
	log.Infof("modbus sensor opened on %s (unit %d, %d registers)", cfg.URL, cfg.UnitID, len(cfg.Registers))
	return &Modbus{client: client, registers: cfg.Registers, now: now}, nil
}

// registerValue applies sign and scale to a raw 16 bit register.
func registerValue(raw uint16, reg shared.ModbusRegister) float64 {
	v := float64(raw)
	if reg.Signed {
		v = float64(int16(raw))
	}
	if reg.Scale != 0 {
		v *= reg.Scale
	}
	return v
}

func (m *Modbus) Sample() condition.Reading {
	at := m.now.now()
	values := make(map[string]float64, len(m.registers))
	for _, reg := range m.registers {
		kind := modbus.HOLDING_REGISTER
		if reg.Input {
			kind = modbus.INPUT_REGISTER
		}
		raw, err := m.client.ReadRegister(reg.Address, kind)
		if err != nil {
			log.Debug("modbus read failed", "quantity", reg.Quantity, "address", reg.Address, "err", err)
			return condition.Invalid(at)
		}
		values[reg.Quantity] = registerValue(raw, reg)
	}
	return condition.NewReading(values, at)
}

func (m *Modbus) Close() error {
	return m.client.Close()
}
