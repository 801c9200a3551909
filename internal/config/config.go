// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// SiteLongitude and SiteLatitude hold the default observing site as
	// signed sexagesimal degree strings, east positive for longitude.
	SiteLongitude string `koanf:"site_longitude"`
	SiteLatitude  string `koanf:"site_latitude"`

	// SiteHeightM is the default site elevation in meters.
	SiteHeightM float64 `koanf:"site_height_m"`

	// SingularityEpsilon is the determinant threshold below which a
	// calibration star pair is rejected as unsolvable.
	SingularityEpsilon float64 `koanf:"singularity_epsilon"`

	// MaxBodyBytes caps the size of accepted request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// New creates a Config with defaults. The default site is the Cerro
// Tololo area reference used when no site is configured.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		SiteLongitude:      "-71:14:12.5",
		SiteLatitude:       "-29:56:29.7",
		SiteHeightM:        110,
		SingularityEpsilon: 1e-9,
		MaxBodyBytes:       1 << 20,
	}
}
