// Package scaling maps data values onto visual encodings: a normalized
// position in [0,1], a point radius and a gradient color.
package scaling

import (
	"errors"
	"fmt"
	"math"
)

// Radius bounds in pixels.
const (
	MinRadius   = 3.0
	RadiusRange = 15.0
	MaxRadius   = MinRadius + RadiusRange
)

// Parameter bounds.
const (
	MinLinearA  = 0.1
	MaxLinearA  = 5.0
	MinLinearB  = -2.0
	MaxLinearB  = 2.0
	MinSigmoidK = 0.1
	MaxSigmoidK = 10.0
)

// ErrInvalidParameter indicates a scaling parameter is out of bounds.
var ErrInvalidParameter = errors.New("invalid scaling parameter")

// Kind names a scaling variant.
type Kind string

// Scaling variants.
const (
	KindDefault Kind = "default"
	KindLinear  Kind = "linear"
	KindSigmoid Kind = "sigmoid"
)

// Config selects how values are normalized for the radius encoding.
// The zero value behaves as Default.
type Config struct {
	kind Kind
	a, b float64
	k    float64
}

// Default returns the plain min/max scaling.
func Default() Config {
	return Config{kind: KindDefault}
}

// NewLinear returns a scaling that applies a*x+b before normalizing.
func NewLinear(a, b float64) (Config, error) {
	if math.IsNaN(a) || a < MinLinearA || a > MaxLinearA {
		return Config{}, fmt.Errorf("%w: a must be between %g and %g", ErrInvalidParameter, MinLinearA, MaxLinearA)
	}
	if math.IsNaN(b) || b < MinLinearB || b > MaxLinearB {
		return Config{}, fmt.Errorf("%w: b must be between %g and %g", ErrInvalidParameter, MinLinearB, MaxLinearB)
	}
	return Config{kind: KindLinear, a: a, b: b}, nil
}

// NewSigmoid returns a logistic scaling with steepness k.
func NewSigmoid(k float64) (Config, error) {
	if math.IsNaN(k) || k < MinSigmoidK || k > MaxSigmoidK {
		return Config{}, fmt.Errorf("%w: k must be between %g and %g", ErrInvalidParameter, MinSigmoidK, MaxSigmoidK)
	}
	return Config{kind: KindSigmoid, k: k}, nil
}

// Kind returns the variant.
func (c Config) Kind() Kind {
	if c.kind == "" {
		return KindDefault
	}
	return c.kind
}

// A returns the linear slope.
func (c Config) A() float64 { return c.a }

// B returns the linear offset.
func (c Config) B() float64 { return c.b }

// K returns the sigmoid steepness.
func (c Config) K() float64 { return c.k }

// String implements fmt.Stringer.
func (c Config) String() string {
	switch c.Kind() {
	case KindLinear:
		return fmt.Sprintf("linear(a=%g, b=%g)", c.a, c.b)
	case KindSigmoid:
		return fmt.Sprintf("sigmoid(k=%g)", c.k)
	default:
		return string(KindDefault)
	}
}

// Normalize maps value within [min,max] to [0,1]. A constant range maps to
// 0.5 and the result is always clamped.
func (c Config) Normalize(value, min, max float64) float64 {
	if min == max {
		return 0.5
	}

	var n float64
	switch c.Kind() {
	case KindLinear:
		tv, tmin, tmax := c.a*value+c.b, c.a*min+c.b, c.a*max+c.b
		if tmin == tmax {
			return 0.5
		}
		n = (tv - tmin) / (tmax - tmin)
	case KindSigmoid:
		mid := (min + max) / 2
		x := (value - mid) / ((max - min) / 6)
		n = 1 / (1 + math.Exp(-c.k*x))
	default:
		n = (value - min) / (max - min)
	}
	return clamp(n)
}

// Radius maps value to a radius in [MinRadius, MaxRadius].
func (c Config) Radius(value, min, max float64) float64 {
	return MinRadius + RadiusRange*c.Normalize(value, min, max)
}

// Normalize applies the default scaling.
func Normalize(value, min, max float64) float64 {
	return Default().Normalize(value, min, max)
}

func clamp(n float64) float64 {
	if math.IsNaN(n) || n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// Bounds returns the minimum and maximum of values; ok is false when values
// is empty.
func Bounds(values []float64) (min, max float64, ok bool) {
	if len(values) == 0 {
		return 0, 0, false
	}
	min, max = values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, true
}
