// Package frame rotates horizontal coordinates into the frame of a
// misaligned mount.
//
// A polar-axis misalignment expressed as an altitude/azimuth offset
// defines a tilted horizontal frame whose pole is displaced from the true
// zenith. Re-expressing a target in that frame gives the altitude and
// azimuth the mount must actually drive to, or equivalently where the
// mount believes it is pointing. The rotation is exact spherical
// trigonometry on unit vectors, not a small-angle approximation: offsets
// of tens of arcminutes are routine and would defeat a linearized form.
package frame

import (
	"fmt"
	"math"

	"github.com/telescopium/polaralign/internal/domain/alignment"
	"github.com/telescopium/polaralign/internal/domain/angle"
	"github.com/telescopium/polaralign/internal/domain/coords"
)

// vec3 is a direction on the celestial sphere as a unit column vector in
// the horizontal basis: x toward azimuth 0 on the horizon, y toward
// azimuth 90, z toward the zenith.
type vec3 struct {
	x, y, z float64
}

func fromHorizontal(az, alt angle.Angle) vec3 {
	sinAlt, cosAlt := alt.Sincos()
	sinAz, cosAz := az.Sincos()
	return vec3{
		x: cosAlt * cosAz,
		y: cosAlt * sinAz,
		z: sinAlt,
	}
}

func (v vec3) toHorizontal() (az, alt angle.Angle) {
	return angle.Atan2(v.y, v.x).Wrap(), angle.Asin(clamp(v.z))
}

// rotZ rotates the basis about the z axis by a, i.e. it expresses v in a
// frame whose x axis has been carried to azimuth a.
func (v vec3) rotZ(a angle.Angle) vec3 {
	sin, cos := a.Sincos()
	return vec3{
		x: v.x*cos + v.y*sin,
		y: -v.x*sin + v.y*cos,
		z: v.z,
	}
}

// rotY rotates the basis about the y axis by a, carrying the x axis
// upward to altitude a.
func (v vec3) rotY(a angle.Angle) vec3 {
	sin, cos := a.Sincos()
	return vec3{
		x: v.x*cos + v.z*sin,
		y: v.y,
		z: -v.x*sin + v.z*cos,
	}
}

func (v vec3) finite() bool {
	for _, c := range []float64{v.x, v.y, v.z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// ToOffset re-expresses hc in the horizontal frame displaced by off: the
// basis is first carried around the horizon to the offset azimuth, then
// tilted up by the offset altitude, so that the offset direction itself
// maps to the frame origin (azimuth 0, altitude 0). The returned
// coordinate keeps the input's time and site tags, since the offset frame
// is anchored to the same instant and observer.
func ToOffset(off alignment.Offset, hc coords.Horizontal) (coords.Horizontal, error) {
	v := fromHorizontal(hc.Az, hc.Alt)
	if !v.finite() {
		return coords.Horizontal{}, fmt.Errorf("%w: non-finite direction for alt %v az %v",
			ErrTransform, hc.Alt, hc.Az)
	}
	r := v.rotZ(off.DeltaAz).rotY(off.DeltaAlt)
	az, alt := r.toHorizontal()
	return coords.Horizontal{Alt: alt, Az: az, Time: hc.Time, Site: hc.Site}, nil
}

// FromOffset is the inverse of ToOffset: it takes a coordinate expressed
// in the displaced frame back to the true horizontal frame.
func FromOffset(off alignment.Offset, hc coords.Horizontal) (coords.Horizontal, error) {
	v := fromHorizontal(hc.Az, hc.Alt)
	if !v.finite() {
		return coords.Horizontal{}, fmt.Errorf("%w: non-finite direction for alt %v az %v",
			ErrTransform, hc.Alt, hc.Az)
	}
	r := v.rotY(-off.DeltaAlt).rotZ(-off.DeltaAz)
	az, alt := r.toHorizontal()
	return coords.Horizontal{Alt: alt, Az: az, Time: hc.Time, Site: hc.Site}, nil
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
