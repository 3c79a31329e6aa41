package pixel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadHex is returned for color strings that are not #rrggbb.
var ErrBadHex = errors.New("chladni: color must be #rrggbb")

// RGB is an 8-bit color triple.
type RGB struct {
	R, G, B uint8
}

// ParseHex reads "#rrggbb" (the leading '#' is optional).
func ParseHex(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrBadHex, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrBadHex, s)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Hex formats the color as "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Gray returns a neutral color with the given luminosity.
func Gray(l uint8) RGB { return RGB{R: l, G: l, B: l} }
