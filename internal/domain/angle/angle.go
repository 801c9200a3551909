// Package angle provides a scalar angular quantity with explicit units.
//
// The underlying representation is always radians, so conversions between
// units are a single multiplication and involve no accumulated error. Unit
// constructors and getters make the unit of every value explicit at the
// call site; all trigonometry happens on the radian value.
package angle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unit identifies an angular unit accepted at the service boundary.
type Unit string

// Supported units.
const (
	Radian Unit = "rad"
	Degree Unit = "deg"
	// Hour is the hour angle unit: 24 hours to a full revolution, so one
	// hour equals 15 degrees.
	Hour   Unit = "hour"
	Arcmin Unit = "arcmin"
	Arcsec Unit = "arcsec"
)

// Conversion factors from one unit to radians.
const (
	radPerDeg    = math.Pi / 180
	radPerHour   = math.Pi / 12
	radPerArcmin = math.Pi / (180 * 60)
	radPerArcsec = math.Pi / (180 * 3600)
)

// Angle is a general purpose angle stored as radians.
//
// Construct from a raw radian value with a plain conversion, Angle(rad),
// or use one of the unit constructors.
type Angle float64

// FromDeg constructs an Angle from a value in degrees.
func FromDeg(d float64) Angle { return Angle(d * radPerDeg) }

// FromHour constructs an Angle from a value in hours of revolution,
// the customary unit for right ascension and hour angle.
func FromHour(h float64) Angle { return Angle(h * radPerHour) }

// FromArcmin constructs an Angle from a value in minutes of arc.
func FromArcmin(m float64) Angle { return Angle(m * radPerArcmin) }

// FromArcsec constructs an Angle from a value in seconds of arc.
func FromArcsec(s float64) Angle { return Angle(s * radPerArcsec) }

// From constructs an Angle from a value in the named unit. It returns
// ErrInvalidUnit when the unit is not one of the supported constants.
func From(v float64, u Unit) (Angle, error) {
	switch u {
	case Radian:
		return Angle(v), nil
	case Degree:
		return FromDeg(v), nil
	case Hour:
		return FromHour(v), nil
	case Arcmin:
		return FromArcmin(v), nil
	case Arcsec:
		return FromArcsec(v), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidUnit, u)
	}
}

// New constructs an Angle from sexagesimal degree components. Pass '-' for
// neg to negate the result; any other byte leaves it non-negative. The
// components themselves are combined unsigned, so New('-', 29, 56, 29.7)
// is -29°56'29.7" and not -29°+56'+29.7".
func New(neg byte, d, m int, s float64) Angle {
	a := FromArcsec(float64((d*60+m)*60) + s)
	if neg == '-' {
		return -a
	}
	return a
}

// Rad returns the angle in radians. This is the underlying representation
// and involves no scaling.
func (a Angle) Rad() float64 { return float64(a) }

// Deg returns the angle in degrees.
func (a Angle) Deg() float64 { return float64(a) / radPerDeg }

// Hour returns the angle in hours of revolution.
func (a Angle) Hour() float64 { return float64(a) / radPerHour }

// Arcmin returns the angle in minutes of arc.
func (a Angle) Arcmin() float64 { return float64(a) / radPerArcmin }

// Arcsec returns the angle in seconds of arc.
func (a Angle) Arcsec() float64 { return float64(a) / radPerArcsec }

// In returns the angle in the named unit, or ErrInvalidUnit.
func (a Angle) In(u Unit) (float64, error) {
	switch u {
	case Radian:
		return a.Rad(), nil
	case Degree:
		return a.Deg(), nil
	case Hour:
		return a.Hour(), nil
	case Arcmin:
		return a.Arcmin(), nil
	case Arcsec:
		return a.Arcsec(), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidUnit, u)
	}
}

// Mul returns the scalar product a*f.
func (a Angle) Mul(f float64) Angle { return a * Angle(f) }

// Div returns the scalar quotient a/d.
func (a Angle) Div(d float64) Angle { return a / Angle(d) }

// Wrap returns a wrapped to one full circle, in the range [0, 2π).
func (a Angle) Wrap() Angle {
	r := math.Mod(a.Rad(), 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	return Angle(r)
}

// Sin returns the trigonometric sine of a.
func (a Angle) Sin() float64 { return math.Sin(a.Rad()) }

// Cos returns the trigonometric cosine of a.
func (a Angle) Cos() float64 { return math.Cos(a.Rad()) }

// Tan returns the trigonometric tangent of a.
func (a Angle) Tan() float64 { return math.Tan(a.Rad()) }

// Sincos returns the trigonometric sine and cosine of a.
func (a Angle) Sincos() (sin, cos float64) { return math.Sincos(a.Rad()) }

// Asin returns the angle whose sine is v.
func Asin(v float64) Angle { return Angle(math.Asin(v)) }

// Acos returns the angle whose cosine is v.
func Acos(v float64) Angle { return Angle(math.Acos(v)) }

// Atan2 returns the angle of the point (x, y) in the full circle.
func Atan2(y, x float64) Angle { return Angle(math.Atan2(y, x)) }

// ParseDMS parses a colon-separated sexagesimal degree string of the form
// used at the mount boundary, e.g. "-71:14:12.5" or "42:40". Minutes and
// seconds may be omitted; seconds may carry a fraction. It returns
// ErrInvalidUnit when the string does not resolve to such an angle.
func ParseDMS(s string) (Angle, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, fmt.Errorf("%w: empty sexagesimal string", ErrInvalidUnit)
	}
	neg := byte(0)
	switch t[0] {
	case '-':
		neg = '-'
		t = t[1:]
	case '+':
		t = t[1:]
	}
	parts := strings.Split(t, ":")
	if len(parts) < 1 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q is not deg[:min[:sec]]", ErrInvalidUnit, s)
	}
	d, err := strconv.Atoi(parts[0])
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: bad degrees in %q", ErrInvalidUnit, s)
	}
	var m int
	if len(parts) > 1 {
		m, err = strconv.Atoi(parts[1])
		if err != nil || m < 0 || m >= 60 {
			return 0, fmt.Errorf("%w: bad minutes in %q", ErrInvalidUnit, s)
		}
	}
	var sec float64
	if len(parts) > 2 {
		sec, err = strconv.ParseFloat(parts[2], 64)
		if err != nil || sec < 0 || sec >= 60 {
			return 0, fmt.Errorf("%w: bad seconds in %q", ErrInvalidUnit, s)
		}
	}
	return New(neg, d, m, sec), nil
}

// DMS decomposes the angle into sign and sexagesimal degree components.
// The returned neg byte is '-' for negative angles and '+' otherwise.
func (a Angle) DMS() (neg byte, d, m int, s float64) {
	neg = '+'
	v := a.Arcsec()
	if v < 0 {
		neg = '-'
		v = -v
	}
	d = int(v) / 3600
	v -= float64(d) * 3600
	m = int(v) / 60
	s = v - float64(m)*60
	return neg, d, m, s
}

// FormatDMS renders the angle as a signed colon-separated degree string
// with one decimal on the seconds, matching the boundary form parsed by
// ParseDMS.
func (a Angle) FormatDMS() string {
	neg, d, m, s := a.DMS()
	// Guard against 59.95 rounding up to 60.0 in the formatted output.
	if s >= 59.95 {
		s = 0
		m++
		if m == 60 {
			m = 0
			d++
		}
	}
	sign := ""
	if neg == '-' {
		sign = "-"
	}
	return fmt.Sprintf("%s%02d:%02d:%04.1f", sign, d, m, s)
}

// String implements fmt.Stringer using the degree value.
func (a Angle) String() string {
	return strconv.FormatFloat(a.Deg(), 'g', -1, 64) + "°"
}
