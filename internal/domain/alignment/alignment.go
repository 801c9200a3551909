// Package alignment derives the polar-axis misalignment of an equatorial
// mount from two calibration star observations.
//
// The derivation follows the two-star polar alignment method of Ralph
// Pass: the right ascension and declination error measured on the second
// star, after both stars have been centered, maps linearly onto the
// altitude and azimuth tilt of the polar axis. The 2x2 system below is
// the closed form of that map for a given latitude and star pair.
package alignment

import (
	"fmt"
	"math"

	"github.com/telescopium/polaralign/internal/domain/angle"
	"github.com/telescopium/polaralign/internal/domain/coords"
)

// defaultEpsilon is the determinant magnitude below which a star pair is
// rejected as degenerate. The determinant is dimensionless and of order
// one for any usable pair; it reaches zero exactly when the two hour
// angles coincide or the declination sum cancels.
const defaultEpsilon = 1e-9

// Option applies a configuration option to the solver.
type Option func(*solver)

type solver struct {
	epsilon float64
}

// WithEpsilon overrides the singularity threshold on the determinant.
func WithEpsilon(eps float64) Option {
	return func(s *solver) {
		if eps > 0 {
			s.epsilon = eps
		}
	}
}

// Matrix is the 2x2 correction matrix mapping an equatorial pointing
// error to an altitude/azimuth offset, together with the determinant it
// was derived from.
type Matrix struct {
	A11, A12 float64
	A21, A22 float64
	Det      float64
}

// Offset is the derived polar-axis misalignment, expressed as the
// equivalent rotation of the horizontal frame.
type Offset struct {
	DeltaAlt angle.Angle
	DeltaAz  angle.Angle
}

// Solve derives the correction matrix for the given site latitude and two
// calibration stars. The stars are given as hour angle plus declination.
// It fails with ErrSingular when the determinant is within epsilon of
// zero, meaning the pair cannot constrain the alignment and the caller
// must calibrate on different stars.
func Solve(lat angle.Angle, s1, s2 coords.Equatorial, opts ...Option) (Matrix, error) {
	s := &solver{epsilon: defaultEpsilon}
	for _, opt := range opts {
		opt(s)
	}

	sin1, cos1 := s1.RA.Sincos()
	sin2, cos2 := s2.RA.Sincos()
	tan1 := s1.Dec.Tan()
	tan2 := s2.Dec.Tan()
	cosLat := lat.Cos()

	d := cosLat * (tan1 + tan2) * (1 - (s1.RA - s2.RA).Cos())
	if math.Abs(d) < s.epsilon {
		return Matrix{}, fmt.Errorf("%w: determinant %g for stars %.6fh/%.6fh",
			ErrSingular, d, s1.RA.Hour(), s2.RA.Hour())
	}

	return Matrix{
		A11: cosLat * (sin2 - sin1) / d,
		A12: -cosLat * (tan1*cos1 - tan2*cos2) / d,
		A21: (cos1 - cos2) / d,
		A22: (tan2*sin2 - tan1*sin1) / d,
		Det: d,
	}, nil
}

// Project applies the matrix to the pointing error measured on the second
// calibration star, yielding the altitude/azimuth offset of the polar
// axis. The map is linear, which holds for the arcminute-scale errors the
// matrix was derived for.
func (m Matrix) Project(errRA, errDec angle.Angle) Offset {
	return Offset{
		DeltaAlt: errRA.Mul(m.A11) + errDec.Mul(m.A12),
		DeltaAz:  errRA.Mul(m.A21) + errDec.Mul(m.A22),
	}
}
