package entities

import (
	"fmt"
	"strings"
)

// Color is a bettable outcome of a round
type Color string

const (
	ColorGreen  Color = "green"
	ColorRed    Color = "red"
	ColorViolet Color = "violet"
)

// AllColors lists the bettable colors in tie-break order: red, then green, then violet
var AllColors = []Color{ColorRed, ColorGreen, ColorViolet}

// ParseColor validates and normalizes a color name
func ParseColor(s string) (Color, error) {
	c := Color(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return c, nil
}

// IsValid returns true if the color is one of the bettable colors
func (c Color) IsValid() bool {
	switch c {
	case ColorGreen, ColorRed, ColorViolet:
		return true
	}
	return false
}

func (c Color) String() string {
	return string(c)
}
