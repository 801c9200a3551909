// Command alignctl solves a two-star polar alignment offline, without a
// running service. It prints the alignment matrix, the projected mount
// axis offsets, and optionally a target rotated into the offset frame.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/telescopium/polaralign/internal/domain/alignment"
	"github.com/telescopium/polaralign/internal/domain/angle"
	"github.com/telescopium/polaralign/internal/domain/coords"
	"github.com/telescopium/polaralign/internal/domain/frame"
)

func main() {
	var (
		latitude = flag.String("lat", "42:40", "Observer latitude as deg[:min[:sec]]")
		ra1      = flag.Float64("ra1", 3, "First star right ascension in hours")
		dec1     = flag.Float64("dec1", 48, "First star declination in degrees")
		ra2      = flag.Float64("ra2", 23, "Second star right ascension in hours")
		dec2     = flag.Float64("dec2", 45, "Second star declination in degrees")
		errRA    = flag.Float64("err-ra", -12, "Measured RA pointing error in arcminutes")
		errDec   = flag.Float64("err-dec", -21, "Measured Dec pointing error in arcminutes")
		alt      = flag.Float64("alt", 0, "Optional target altitude in degrees")
		az       = flag.Float64("az", 0, "Optional target azimuth in degrees")
		rotate   = flag.Bool("rotate", false, "Rotate the -alt/-az target into the offset frame")
		epsilon  = flag.Float64("epsilon", 0, "Singularity threshold override (0 keeps the default)")
	)
	flag.Parse()

	lat, err := angle.ParseDMS(*latitude)
	if err != nil {
		fail("bad latitude: " + err.Error())
	}

	star1 := coords.Equatorial{RA: angle.FromHour(*ra1), Dec: angle.FromDeg(*dec1)}
	star2 := coords.Equatorial{RA: angle.FromHour(*ra2), Dec: angle.FromDeg(*dec2)}

	var opts []alignment.Option
	if *epsilon > 0 {
		opts = append(opts, alignment.WithEpsilon(*epsilon))
	}

	m, err := alignment.Solve(lat, star1, star2, opts...)
	if err != nil {
		fail("solve failed: " + err.Error())
	}

	off := m.Project(angle.FromArcmin(*errRA), angle.FromArcmin(*errDec))

	fmt.Printf("alignment matrix (det %.6f):\n", m.Det)
	fmt.Printf("  [ %12.6f %12.6f ]\n", m.A11, m.A12)
	fmt.Printf("  [ %12.6f %12.6f ]\n", m.A21, m.A22)
	fmt.Printf("axis offsets:\n")
	fmt.Printf("  delta alt  %10.4f'  (%8.5f deg)\n", off.DeltaAlt.Arcmin(), off.DeltaAlt.Deg())
	fmt.Printf("  delta az   %10.4f'  (%8.5f deg)\n", off.DeltaAz.Arcmin(), off.DeltaAz.Deg())

	if *rotate {
		rotateTarget(off, *alt, *az)
	}
}

func rotateTarget(off alignment.Offset, altDeg, azDeg float64) {
	// The frame package needs a tagged horizontal coordinate; time and
	// site only ride along here, the rotation itself ignores them.
	hc := coords.Horizontal{
		Alt: angle.FromDeg(altDeg),
		Az:  angle.FromDeg(azDeg),
	}
	got, err := frame.ToOffset(off, hc)
	if err != nil {
		fail("rotate failed: " + err.Error())
	}
	fmt.Printf("target in offset frame:\n")
	fmt.Printf("  alt %12.6f deg\n", got.Alt.Deg())
	fmt.Printf("  az  %12.6f deg\n", got.Az.Deg())
}

func fail(msg string) {
	os.Stderr.WriteString(msg + "\n")
	os.Exit(1)
}
