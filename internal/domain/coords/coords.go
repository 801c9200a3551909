// Package coords defines celestial coordinate types and the time-dependent
// conversion between them.
//
// The equatorial-to-horizontal conversion is medium precision: it uses the
// IAU 1982 Greenwich mean sidereal time polynomial and neglects precession,
// nutation, aberration and refraction. That places catalog positions within
// roughly half a degree of their apparent place, which is sufficient for
// producing slew targets; calibration itself always works on coordinates
// measured through the mount.
package coords

import (
	"time"

	"github.com/telescopium/polaralign/internal/domain/angle"
	"github.com/telescopium/polaralign/internal/domain/site"
)

// Equatorial holds an hour angle or right ascension together with a
// declination. Which of the two the first component carries is up to the
// caller; the alignment math works the same on either.
type Equatorial struct {
	RA  angle.Angle
	Dec angle.Angle
}

// Horizontal is an altitude/azimuth pair valid for one UTC instant at one
// observing site. Azimuth is measured from north, increasing eastward.
type Horizontal struct {
	Alt  angle.Angle
	Az   angle.Angle
	Time time.Time
	Site site.Site
}

// julianDate returns the Julian date for a UTC instant.
func julianDate(t time.Time) float64 {
	t = t.UTC()
	y, m := t.Year(), int(t.Month())
	d := float64(t.Day()) +
		(float64(t.Hour())+float64(t.Minute())/60+
			(float64(t.Second())+float64(t.Nanosecond())/1e9)/3600)/24
	if m <= 2 {
		y--
		m += 12
	}
	a := y / 100
	b := 2 - a + a/4
	return float64(int(365.25*float64(y+4716))) +
		float64(int(30.6001*float64(m+1))) +
		d + float64(b) - 1524.5
}

// GMST returns the Greenwich mean sidereal time for a UTC instant as an
// angle in [0, 2π), using the IAU 1982 polynomial.
func GMST(t time.Time) angle.Angle {
	jd := julianDate(t)
	tc := (jd - 2451545.0) / 36525.0
	deg := 280.46061837 +
		360.98564736629*(jd-2451545.0) +
		0.000387933*tc*tc -
		tc*tc*tc/38710000.0
	return angle.FromDeg(deg).Wrap()
}

// LST returns the local mean sidereal time at the given longitude.
func LST(t time.Time, lon angle.Angle) angle.Angle {
	return (GMST(t) + lon).Wrap()
}

// ToHorizontal converts an equatorial coordinate (right ascension +
// declination) to the horizontal frame of the given site at the given UTC
// instant.
func (e Equatorial) ToHorizontal(t time.Time, s site.Site) Horizontal {
	ha := (LST(t, s.Longitude) - e.RA).Wrap()

	sinDec, cosDec := e.Dec.Sincos()
	sinLat, cosLat := s.Latitude.Sincos()
	sinHA, cosHA := ha.Sincos()

	sinAlt := sinDec*sinLat + cosDec*cosLat*cosHA
	alt := angle.Asin(sinAlt)

	cosAz := (sinDec - sinAlt*sinLat) / (alt.Cos() * cosLat)
	az := angle.Acos(clamp(cosAz))
	// Objects west of the meridian sit in the western half of the sky.
	if sinHA > 0 {
		az = angle.FromDeg(360) - az
	}

	return Horizontal{Alt: alt, Az: az.Wrap(), Time: t, Site: s}
}

// HourAngle returns the local hour angle of the coordinate's right
// ascension at the given instant and site, wrapped to [0, 2π).
func (e Equatorial) HourAngle(t time.Time, s site.Site) angle.Angle {
	return (LST(t, s.Longitude) - e.RA).Wrap()
}

// Zenith returns the equatorial coordinate of the local zenith: right
// ascension equal to the local sidereal time, declination equal to the
// site latitude.
func Zenith(t time.Time, s site.Site) Equatorial {
	return Equatorial{RA: LST(t, s.Longitude), Dec: s.Latitude}
}

func clamp(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}
