// Package site defines the geodetic observing site an alignment session
// is anchored to.
package site

import (
	"fmt"

	"github.com/telescopium/polaralign/internal/domain/angle"
)

// Site is an immutable geodetic observing location: signed longitude
// (east positive), signed latitude (north positive) and height above the
// reference ellipsoid in meters.
type Site struct {
	Longitude angle.Angle
	Latitude  angle.Angle
	HeightM   float64
}

// New builds a Site from longitude and latitude angles and a height in
// meters.
func New(lon, lat angle.Angle, heightM float64) Site {
	return Site{Longitude: lon, Latitude: lat, HeightM: heightM}
}

// FromDMS builds a Site from the colon-separated degree strings supplied
// at the mount boundary, e.g. ("-71:14:12.5", "-29:56:29.7", 110).
func FromDMS(lon, lat string, heightM float64) (Site, error) {
	lonA, err := angle.ParseDMS(lon)
	if err != nil {
		return Site{}, fmt.Errorf("parse longitude: %w", err)
	}
	latA, err := angle.ParseDMS(lat)
	if err != nil {
		return Site{}, fmt.Errorf("parse latitude: %w", err)
	}
	return New(lonA, latA, heightM), nil
}

// LaSerena is the default observing site used when no site has been
// configured: La Serena, Chile.
func LaSerena() Site {
	return Site{
		Longitude: angle.New('-', 71, 14, 12.5),
		Latitude:  angle.New('-', 29, 56, 29.7),
		HeightM:   110,
	}
}

// String renders the site in the boundary DMS form.
func (s Site) String() string {
	return fmt.Sprintf("lon %s lat %s height %.0fm",
		s.Longitude.FormatDMS(), s.Latitude.FormatDMS(), s.HeightM)
}
