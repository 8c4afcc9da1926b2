// Package restart ends the process so its supervisor starts a fresh one,
// the host equivalent of a microcontroller reset.
package restart

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

const (
	DefaultDelay    = 5 * time.Second
	DefaultExitCode = 3
)

// Process waits Delay and exits with ExitCode. Before, if set, runs first
// so outputs can be switched off.
type Process struct {
	Delay    time.Duration
	ExitCode int
	Before   func()

	exit  func(int)
	sleep func(time.Duration)
}

func New(delay time.Duration, exitCode int) *Process {
	if exitCode == 0 {
		exitCode = DefaultExitCode
	}
	return &Process{Delay: delay, ExitCode: exitCode, exit: os.Exit, sleep: time.Sleep}
}

// Restart never returns when exit is os.Exit.
func (p *Process) Restart(reason string) {
	log.Errorf("restarting in %s: %s", p.Delay, reason)
	if p.Before != nil {
		p.Before()
	}
	p.sleep(p.Delay)
	log.Error("Rebooting...")
	p.exit(p.ExitCode)
}
