package restart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRestart(t *testing.T) {
	var (
		code   = -1
		slept  time.Duration
		before bool
	)
	p := New(2*time.Second, 0)
	p.exit = func(c int) { code = c }
	p.sleep = func(d time.Duration) { slept = d }
	p.Before = func() { before = true }

	p.Restart("sensor failed")
	assert.Equal(t, DefaultExitCode, code)
	assert.Equal(t, 2*time.Second, slept)
	assert.True(t, before)
}
