// Package config holds the process-wide conversion parameters. A Config is
// built once at pipeline start and passed explicitly to every component.
package config

import (
	"math"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// Tolerances are the geometric thresholds threaded through every comparison.
type Tolerances struct {
	// Linear is the distance below which points, planes and edges are
	// considered coincident.
	Linear float64 `json:"linear"`
	// Angle is the angular tolerance in radians for parallel and coplanar
	// tests.
	Angle float64 `json:"angle"`
	// Area is the minimum face area for a door panel candidate.
	Area float64 `json:"area"`
	// SearchRadius is the probe radius of the nearest-space query.
	SearchRadius float64 `json:"search_radius"`
	// CentroidDrift is the largest accepted distance between a merged door
	// panel and the door solid center.
	CentroidDrift float64 `json:"centroid_drift"`
	// EmbedScale shrinks a projected opening before the sub-face test.
	EmbedScale float64 `json:"embed_scale"`
	// PanelTieCount is how many equally largest faces mark a paneled door.
	PanelTieCount int `json:"panel_tie_count"`
	// AreaTie is the area difference in square meters below which two
	// door faces count as equally large.
	AreaTie float64 `json:"area_tie"`
}

// Config is the full pipeline configuration.
type Config struct {
	Tolerances Tolerances `json:"tolerances"`

	// Workers bounds the extraction and projection worker pools.
	Workers int `json:"workers"`
	// Embed attaches projected openings to room faces. When false every
	// projected opening is emitted as an orphan.
	Embed bool `json:"embed"`
	// CloseGaps offsets room faces toward neighbouring rooms.
	CloseGaps bool `json:"close_gaps"`
	// GapDistance is the longest gap closed between two rooms.
	GapDistance float64 `json:"gap_distance"`
	// StoreyTolerance groups rooms whose floors differ by less than this.
	StoreyTolerance float64 `json:"storey_tolerance"`

	LoggingLevel string `json:"logging_level"`
}

// DefaultTolerances returns the standard thresholds for models in meters.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Linear:        0.01,
		Angle:         math.Pi / 180,
		Area:          0.5,
		SearchRadius:  0.5,
		CentroidDrift: 0.1,
		EmbedScale:    0.99,
		PanelTieCount: 4,
		AreaTie:       0.01,
	}
}

// Default returns the standard configuration.
func Default() Config {
	return Config{
		Tolerances:      DefaultTolerances(),
		Workers:         runtime.NumCPU(),
		Embed:           true,
		GapDistance:     0.5,
		StoreyTolerance: 0.5,
		LoggingLevel:    "info",
	}
}

type checkFunc func(conf *Config) error

// Validate normalizes the logging level and reports the first invalid
// setting.
func (c *Config) Validate() error {
	c.LoggingLevel = strings.ToLower(c.LoggingLevel)
	checkFuncs := []checkFunc{
		checkTolerances,
		checkWorkers,
		checkGaps,
		checkLoggingLevel,
	}
	for _, check := range checkFuncs {
		if err := check(c); err != nil {
			return err
		}
	}
	return nil
}

func checkTolerances(conf *Config) error {
	t := conf.Tolerances
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"linear tolerance", t.Linear},
		{"angle tolerance", t.Angle},
		{"area threshold", t.Area},
		{"search radius", t.SearchRadius},
		{"centroid drift", t.CentroidDrift},
		{"embed scale factor", t.EmbedScale},
		{"area tie tolerance", t.AreaTie},
	} {
		if !(v.value > 0) {
			return errors.Errorf("invalid %s: %v", v.name, v.value)
		}
	}
	if t.EmbedScale > 1 {
		return errors.Errorf("invalid embed scale factor: %v (must not exceed 1)", t.EmbedScale)
	}
	if t.PanelTieCount < 2 {
		return errors.Errorf("invalid panel tie count: %d", t.PanelTieCount)
	}
	return nil
}

func checkWorkers(conf *Config) error {
	if conf.Workers < 1 {
		return errors.Errorf("invalid worker count: %d", conf.Workers)
	}
	return nil
}

func checkGaps(conf *Config) error {
	if conf.CloseGaps && conf.GapDistance <= 0 {
		return errors.Errorf("invalid gap distance: %v", conf.GapDistance)
	}
	if conf.StoreyTolerance <= 0 {
		return errors.Errorf("invalid storey tolerance: %v", conf.StoreyTolerance)
	}
	return nil
}

var availableLoggingLevels = []string{"panic", "fatal", "error", "warn", "info", "debug", "trace"}

// AvailableLoggingLevels lists the accepted LoggingLevel values.
var AvailableLoggingLevels = strings.Join(availableLoggingLevels, ", ")

func checkLoggingLevel(conf *Config) error {
	for _, l := range availableLoggingLevels {
		if l == conf.LoggingLevel {
			return nil
		}
	}
	return errors.Errorf("invalid logging level %q, expected one of: %s", conf.LoggingLevel, AvailableLoggingLevels)
}
