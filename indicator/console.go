package indicator

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Swatch renders a colored dot for terminals.
func Swatch(c Color) string {
	if c == Off {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("○")
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render("●")
}

// ConsoleLED logs color changes at debug level.
type ConsoleLED struct {
	last *Color
}

func (l *ConsoleLED) Show(c Color) error {
	if l.last != nil && *l.last == c {
		return nil
	}
	l.last = &c
	log.Debugf("LED %s %s", Swatch(c), c)
	return nil
}

// ConsoleBuzzer logs volume changes at debug level.
type ConsoleBuzzer struct {
	last Volume
	set  bool
}

func (b *ConsoleBuzzer) Tone(v Volume) error {
	if b.set && b.last == v {
		return nil
	}
	b.last, b.set = v, true
	if v == VolumeOff {
		log.Debug("buzzer off")
	} else {
		log.Debug("buzzer on", "volume", int(v))
	}
	return nil
}

// ConsoleLamp logs a named lamp.
type ConsoleLamp struct {
	Name string
}

func (l ConsoleLamp) Set(on bool) error {
	log.Debug("lamp", "name", l.Name, "on", on)
	return nil
}
