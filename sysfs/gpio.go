package sysfs

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"
)

// GPIO is one line under /sys/class/gpio.
type GPIO struct {
	Root      string
	Pin       int
	ActiveLow bool
}

func (g GPIO) dir() string {
	root := g.Root
	if root == "" {
		root = DefaultRoot
	}
	return filepath.Join(root, "class", "gpio", "gpio"+strconv.Itoa(g.Pin))
}

// Export makes the line available and sets its direction ("in" or "out").
func (g GPIO) Export(direction string) error {
	if !exists(g.dir()) {
		root := g.Root
		if root == "" {
			root = DefaultRoot
		}
		if err := Write(filepath.Join(root, "class", "gpio", "export"), strconv.Itoa(g.Pin)); err != nil {
			return fmt.Errorf("export gpio%d: %w", g.Pin, err)
		}
		// udev needs a moment to fix permissions on the new node
		for i := 0; i < 10 && !exists(filepath.Join(g.dir(), "direction")); i++ {
			time.Sleep(10 * time.Millisecond)
		}
	}
	if !exists(g.dir()) {
		return fmt.Errorf("%w: gpio%d", ErrNotExported, g.Pin)
	}
	if err := Write(filepath.Join(g.dir(), "direction"), direction); err != nil {
		return fmt.Errorf("gpio%d direction: %w", g.Pin, err)
	}
	return nil
}

// Read returns the logical level, honoring ActiveLow.
func (g GPIO) Read() (bool, error) {
	s, err := ReadString(filepath.Join(g.dir(), "value"))
	if err != nil {
		return false, err
	}
	var high bool
	switch s {
	case "1":
		high = true
	case "0":
	default:
		return false, fmt.Errorf("%w: gpio%d value %q", ErrBadValue, g.Pin, s)
	}
	return high != g.ActiveLow, nil
}

// Set drives the line to the logical level on.
func (g GPIO) Set(on bool) error {
	v := "0"
	if on != g.ActiveLow {
		v = "1"
	}
	return Write(filepath.Join(g.dir(), "value"), v)
}
