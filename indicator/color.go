package indicator

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an 8 bit per channel RGB value.
type Color struct {
	R, G, B uint8
}

var (
	Off    = Color{}
	Red    = Color{R: 0xff}
	Green  = Color{G: 0xff}
	Blue   = Color{B: 0xff}
	Yellow = Color{R: 0xff, G: 0xff}
	White  = Color{R: 0xff, G: 0xff, B: 0xff}
)

var colorNames = map[string]Color{
	"off":    Off,
	"red":    Red,
	"green":  Green,
	"blue":   Blue,
	"yellow": Yellow,
	"white":  White,
}

// ParseColor accepts a color name or #rrggbb.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colorNames[s]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err == nil {
			return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
		}
	}
	return Off, fmt.Errorf("%w: %q", ErrUnknownColor, s)
}

// Hex is the #rrggbb form.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string {
	for name, v := range colorNames {
		if v == c {
			return name
		}
	}
	return c.Hex()
}

// Volume is a 10 bit buzzer duty.
type Volume uint16

const (
	VolumeOff  Volume = 0
	VolumeHalf Volume = 512
	VolumeMax  Volume = 1023
)
