package sysfs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func read(t *testing.T, path string) string {
	t.Helper()
	s, err := ReadString(path)
	require.NoError(t, err)
	return s
}

func TestGPIOOutput(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "class", "gpio", "gpio17")
	touch(t, filepath.Join(dir, "direction"), "in")
	touch(t, filepath.Join(dir, "value"), "0")

	g := GPIO{Root: root, Pin: 17}
	require.NoError(t, g.Export("out"))
	assert.Equal(t, "out", read(t, filepath.Join(dir, "direction")))

	require.NoError(t, g.Set(true))
	assert.Equal(t, "1", read(t, filepath.Join(dir, "value")))

	g.ActiveLow = true
	require.NoError(t, g.Set(true))
	assert.Equal(t, "0", read(t, filepath.Join(dir, "value")))
}

func TestGPIOInputActiveLow(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "class", "gpio", "gpio4", "value"), "0\n")

	on, err := GPIO{Root: root, Pin: 4}.Read()
	require.NoError(t, err)
	assert.False(t, on)

	on, err = GPIO{Root: root, Pin: 4, ActiveLow: true}.Read()
	require.NoError(t, err)
	assert.True(t, on)
}

func TestGPIOBadValue(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "class", "gpio", "gpio4", "value"), "x")
	_, err := GPIO{Root: root, Pin: 4}.Read()
	assert.ErrorIs(t, err, ErrBadValue)
}

func TestGPIOExportMissing(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "class", "gpio", "export"), "")
	err := GPIO{Root: root, Pin: 9}.Export("out")
	assert.ErrorIs(t, err, ErrNotExported)
}

func TestPWMDuty(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "class", "pwm", "pwmchip0", "pwm1")
	for _, f := range []string{"duty_cycle", "period", "enable"} {
		touch(t, filepath.Join(dir, f), "")
	}
	p := PWM{Root: root, Chip: 0, Channel: 1, Period: FrequencyPeriod(2000)}
	require.NoError(t, p.Export())
	assert.Equal(t, "500000", read(t, filepath.Join(dir, "period")))
	assert.Equal(t, "1", read(t, filepath.Join(dir, "enable")))

	require.NoError(t, p.Duty(512, 1024))
	assert.Equal(t, "250000", read(t, filepath.Join(dir, "duty_cycle")))

	require.NoError(t, p.Duty(5000, 1024))
	assert.Equal(t, "500000", read(t, filepath.Join(dir, "duty_cycle")))

	assert.ErrorIs(t, p.Duty(1, 0), ErrBadValue)
}

func TestReadMilli(t *testing.T) {
	root := t.TempDir()
	path := HwmonInput(root, 0, 1)
	touch(t, path, "42500\n")
	v, err := ReadMilli(path)
	require.NoError(t, err)
	assert.InDelta(t, 42.5, v, 1e-9)

	assert.Equal(t, filepath.Join(root, "bus", "iio", "devices", "iio:device2"), IIODevice(root, 2))
	assert.Equal(t, time.Duration(0), FrequencyPeriod(0))
}
