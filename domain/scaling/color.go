package scaling

import (
	"fmt"
	"math"
)

// RGB is an 8-bit color.
type RGB struct {
	R, G, B uint8
}

// String renders the color as rgb(r, g, b).
func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// gradient stops, evenly spaced over [0,1].
var gradient = [...]RGB{
	{0, 0, 139},     // dark blue
	{173, 216, 230}, // light blue
	{255, 182, 193}, // light red
	{220, 20, 60},   // strong red
}

// ColorConfig selects the color encoding. Only the gradient exists today.
type ColorConfig struct{}

// DefaultColor returns the four-stop gradient encoding.
func DefaultColor() ColorConfig {
	return ColorConfig{}
}

// Color maps value within [min,max] onto the gradient.
func (ColorConfig) Color(value, min, max float64) RGB {
	return ToColor(value, min, max)
}

// ToColor maps value within [min,max] onto the four-stop gradient.
func ToColor(value, min, max float64) RGB {
	n := Normalize(value, min, max)

	segments := float64(len(gradient) - 1)
	pos := n * segments
	i := int(pos)
	if i >= len(gradient)-1 {
		i = len(gradient) - 2
	}
	t := pos - float64(i)

	from, to := gradient[i], gradient[i+1]
	return RGB{
		R: lerp(from.R, to.R, t),
		G: lerp(from.G, to.G, t),
		B: lerp(from.B, to.B, t),
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// Hue maps value within [min,max] from blue (240) to red (0) on the HSL
// wheel.
func Hue(value, min, max float64) string {
	n := Normalize(value, min, max)
	return hsl(240 - n*240)
}

// SeriesHue spreads n series evenly around the HSL wheel.
func SeriesHue(i, n int) string {
	if n <= 0 {
		return hsl(0)
	}
	return hsl(float64(i) / float64(n) * 360)
}

func hsl(hue float64) string {
	return fmt.Sprintf("hsl(%.0f, 70%%, 50%%)", hue)
}
