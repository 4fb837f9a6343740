// Public domain.

// Package config loads and validates the configuration of a run.
//
// Values come from, in decreasing precedence, command line flags bound by
// the caller, MOSAICCAT_ environment variables (.env files included), a
// YAML config file, and the defaults here.
package config

import (
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/soniakeys/mosaiccat/internal/errors"
	"github.com/soniakeys/mosaiccat/internal/logging"
)

// EnvPrefix prefixes environment variable names.
const EnvPrefix = "MOSAICCAT"

// Clip holds iterative clipping parameters.
type Clip struct {
	NIter        int     `mapstructure:"niter"`
	LenientNIter int     `mapstructure:"lenient_niter"`
	Eps          float64 `mapstructure:"eps"`
	SampleSize   int     `mapstructure:"sample_size"`
}

// Config is the complete configuration of a run.
type Config struct {
	MosaicDirs            []string       `mapstructure:"mosaic_dirs"`
	PointingDirs          []string       `mapstructure:"pointing_dirs"`
	OutDir                string         `mapstructure:"out_dir"`
	Release               string         `mapstructure:"release"`
	CatalogGlob           string         `mapstructure:"catalog_glob"`
	Components            bool           `mapstructure:"components"`
	Seed                  uint64         `mapstructure:"seed"`
	SurveyPrefix          string         `mapstructure:"survey_prefix"`
	NeighbourRadiusDeg    float64        `mapstructure:"neighbour_radius_deg"`
	AstromapToleranceDeg  float64        `mapstructure:"astromap_tolerance_deg"`
	AstromapDefaultArcsec float64        `mapstructure:"astromap_default_arcsec"`
	FluxScaleError        float64        `mapstructure:"flux_scale_error"`
	Clip                  Clip           `mapstructure:"clip"`
	HistBins              int            `mapstructure:"hist_bins"`
	ImageStats            bool           `mapstructure:"image_stats"`
	MetricsFile           string         `mapstructure:"metrics_file"`
	Log                   logging.Config `mapstructure:"log"`
}

// SetDefaults registers the default of every key with v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("mosaic_dirs", []string{})
	v.SetDefault("pointing_dirs", []string{})
	v.SetDefault("out_dir", ".")
	v.SetDefault("release", "LOFAR_HBA_T1_DR1_catalog_v0.95")
	v.SetDefault("catalog_glob", "*cat.fits")
	v.SetDefault("components", true)
	v.SetDefault("seed", 0)
	v.SetDefault("survey_prefix", "ILTJ")
	v.SetDefault("neighbour_radius_deg", 5.)
	v.SetDefault("astromap_tolerance_deg", .6)
	v.SetDefault("astromap_default_arcsec", 5.)
	v.SetDefault("flux_scale_error", .2)
	v.SetDefault("clip.niter", 20)
	v.SetDefault("clip.lenient_niter", 25)
	v.SetDefault("clip.eps", 1e-6)
	v.SetDefault("clip.sample_size", 500000)
	v.SetDefault("hist_bins", 100)
	v.SetDefault("image_stats", false)
	v.SetDefault("metrics_file", "")
	d := logging.DefaultConfig()
	v.SetDefault("log.level", d.Level)
	v.SetDefault("log.format", d.Format)
	v.SetDefault("log.output", d.Output)
	v.SetDefault("log.no_color", d.NoColor)
}

// EnvFiles are loaded into the environment, if present, before reading
// configuration.  Variables already set are not overridden.
var EnvFiles = []string{".env", ".env.local"}

// Load reads configuration into v and returns it validated.
//
// file names a YAML config file; empty for none.
func Load(v *viper.Viper, file string) (*Config, error) {
	for _, f := range EnvFiles {
		_ = godotenv.Load(f)
	}
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, &errors.ConfigError{Key: "config", Value: file, Message: err.Error()}
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, &errors.ConfigError{Key: "config", Value: file, Message: err.Error()}
	}
	c.MosaicDirs = splitList(c.MosaicDirs)
	c.PointingDirs = splitList(c.PointingDirs)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// splitList splits comma separated elements and drops empty ones.
func splitList(l []string) []string {
	var s []string
	for _, e := range l {
		for _, f := range strings.Split(e, ",") {
			if f = strings.TrimSpace(f); f != "" {
				s = append(s, f)
			}
		}
	}
	return s
}

// Validate checks every value for range and consistency.
func (c *Config) Validate() error {
	bad := func(key string, v interface{}, msg string) error {
		return &errors.ConfigError{Key: key, Value: v, Message: msg}
	}
	switch {
	case len(c.MosaicDirs) == 0:
		return bad("mosaic_dirs", c.MosaicDirs, "at least one mosaic directory required")
	case c.Release == "":
		return bad("release", c.Release, "empty")
	case c.CatalogGlob == "":
		return bad("catalog_glob", c.CatalogGlob, "empty")
	case c.NeighbourRadiusDeg <= 0 || c.NeighbourRadiusDeg > 180:
		return bad("neighbour_radius_deg", c.NeighbourRadiusDeg, "must be in (0, 180]")
	case c.AstromapToleranceDeg <= 0:
		return bad("astromap_tolerance_deg", c.AstromapToleranceDeg, "must be positive")
	case c.AstromapDefaultArcsec <= 0:
		return bad("astromap_default_arcsec", c.AstromapDefaultArcsec, "must be positive")
	case c.FluxScaleError < 0:
		return bad("flux_scale_error", c.FluxScaleError, "must not be negative")
	case c.Clip.NIter < 1:
		return bad("clip.niter", c.Clip.NIter, "must be positive")
	case c.Clip.LenientNIter < 1:
		return bad("clip.lenient_niter", c.Clip.LenientNIter, "must be positive")
	case c.Clip.Eps <= 0:
		return bad("clip.eps", c.Clip.Eps, "must be positive")
	case c.Clip.SampleSize < 1:
		return bad("clip.sample_size", c.Clip.SampleSize, "must be positive")
	case c.HistBins < 1:
		return bad("hist_bins", c.HistBins, "must be positive")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return bad("log.level", c.Log.Level, err.Error())
	}
	if f := strings.ToLower(c.Log.Format); f != "" && !slices.Contains(logging.Formats, f) {
		return bad("log.format", c.Log.Format, "must be one of "+strings.Join(logging.Formats, ", "))
	}
	return nil
}
