// Package config loads the world-modeller's YAML configuration
// document: the radar, polar, marker, robot and link tunables the
// perception core is parameterised by, with hand-written field
// validation.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/itohio/wheelly/pkg/world"
)

// ErrConfigError is wrapped by every load/validation failure; it maps
// onto the fatal-at-startup ConfigError of the core's error taxonomy.
var ErrConfigError = errors.New("config error")

// WorldConfig is the on-disk document: the world.Config tunables plus
// the static robot Spec and the link/dump parameters needed to wire
// them together at startup.
type WorldConfig struct {
	Radar  RadarConfig  `yaml:"radar"`
	Polar  PolarConfig  `yaml:"polar"`
	Marker MarkerConfig `yaml:"marker"`
	Robot  RobotConfig  `yaml:"robot"`
	Link   LinkConfig   `yaml:"link"`
}

// RadarConfig holds the occupancy-grid dimensions and decay/cleaning
// intervals, plus radarKernel selecting which of the two proxy-ray
// update kernels a deployment runs.
type RadarConfig struct {
	Width              int     `yaml:"radarWidth"`
	Height             int     `yaml:"radarHeight"`
	CellSize           float32 `yaml:"radarGrid"`
	CleanInterval      int64   `yaml:"radarCleanInterval"`
	EchoPersistence    int64   `yaml:"echoPersistence"`
	ContactPersistence int64   `yaml:"contactPersistence"`
	Decay              float32 `yaml:"decay"`
	Kernel             string  `yaml:"radarKernel"` // "ray-sweep" (default) or "square-arc"
}

// PolarConfig holds the sector-view derivation parameters.
type PolarConfig struct {
	NumSectors  int     `yaml:"numSectors"`
	MinDistance float32 `yaml:"minRadarDistance"`
}

// MarkerConfig holds the marker locator's decay and correlation
// parameters. correlationInterval is shared with the world modeller's
// camera/proxy pairing gate.
type MarkerConfig struct {
	CorrelationInterval int64   `yaml:"correlationInterval"`
	LocationDecay       float32 `yaml:"markerDecay"`
	CleanDecay          float32 `yaml:"markerCleanDecay"`
	Size                float32 `yaml:"markerSize"`
	MinNumberEvents     int     `yaml:"minNumberEvents"`
}

// RobotConfig mirrors the static robot Spec of pkg/status, plus the
// minimum interval between inference ticks.
type RobotConfig struct {
	MaxRadarDistance     float32 `yaml:"maxRadarDistance"`
	ReceptiveAngleDeg    float32 `yaml:"receptiveAngleDeg"`
	ContactRadius        float32 `yaml:"contactRadius"`
	CameraHalfViewDeg    float32 `yaml:"cameraHalfViewDeg"`
	AnglePerPixel        float32 `yaml:"anglePerPixel"`
	MinInferenceInterval int64   `yaml:"minInferenceInterval"`
}

// LinkConfig configures pkg/link's framing, queue and reconnect
// machinery over the caller-supplied transport.
type LinkConfig struct {
	Address        string `yaml:"address"`
	ConnectTimeout int64  `yaml:"connectTimeoutMs"`
	ReadTimeout    int64  `yaml:"readTimeoutMs"`
	QueueSize      int    `yaml:"queueSize"`
	InitialBackoff int64  `yaml:"initialBackoffMs"`
	MaxBackoff     int64  `yaml:"maxBackoffMs"`
	// UnsafeWindow arms the safety watchdog: a link disconnected
	// continuously for longer than this raises the unsafe signal.
	// Zero disables the watchdog.
	UnsafeWindow   int64  `yaml:"unsafeWindowMs"`
}

// Validate hand-checks the grid dimensions and cell size, the radar
// decay, the sector count, the robot range and contact radius, the
// queue size, the watchdog window and the kernel name. The marker
// decay constants and the correlation interval are not checked.
func (c WorldConfig) Validate() error {
	if c.Radar.Width <= 0 || c.Radar.Height <= 0 {
		return fmt.Errorf("%w: radarWidth and radarHeight must be positive", ErrConfigError)
	}
	if c.Radar.CellSize <= 0 {
		return fmt.Errorf("%w: radarGrid must be positive", ErrConfigError)
	}
	if c.Radar.Decay <= 0 {
		return fmt.Errorf("%w: decay must be positive", ErrConfigError)
	}
	if c.Polar.NumSectors <= 0 {
		return fmt.Errorf("%w: numSectors must be positive", ErrConfigError)
	}
	if c.Marker.MinNumberEvents < 0 {
		return fmt.Errorf("%w: minNumberEvents must be non-negative", ErrConfigError)
	}
	if c.Robot.MaxRadarDistance <= 0 {
		return fmt.Errorf("%w: maxRadarDistance must be positive", ErrConfigError)
	}
	if c.Robot.ContactRadius <= 0 {
		return fmt.Errorf("%w: contactRadius must be positive", ErrConfigError)
	}
	if c.Link.QueueSize <= 0 {
		return fmt.Errorf("%w: queueSize must be positive", ErrConfigError)
	}
	if c.Link.UnsafeWindow < 0 {
		return fmt.Errorf("%w: unsafeWindowMs must be non-negative", ErrConfigError)
	}
	switch c.Radar.Kernel {
	case "", "ray-sweep", "square-arc":
	default:
		return fmt.Errorf("%w: radarKernel must be %q or %q", ErrConfigError, "ray-sweep", "square-arc")
	}
	return nil
}

// ToWorldConfig projects the loaded document onto world.Config, the
// shape pkg/world.New consumes.
func (c WorldConfig) ToWorldConfig() world.Config {
	kernel := world.RaySweepKernel
	if c.Radar.Kernel == "square-arc" {
		kernel = world.SquareArcKernel
	}
	return world.Config{
		RadarWidth:           c.Radar.Width,
		RadarHeight:          c.Radar.Height,
		RadarCellSize:        c.Radar.CellSize,
		RadarCleanInterval:   c.Radar.CleanInterval,
		EchoPersistence:      c.Radar.EchoPersistence,
		ContactPersistence:   c.Radar.ContactPersistence,
		Decay:                c.Radar.Decay,
		Kernel:               kernel,
		NumSectors:           c.Polar.NumSectors,
		MinPolarDistance:     c.Polar.MinDistance,
		CorrelationInterval:  c.Marker.CorrelationInterval,
		MarkerLocationDecay:  c.Marker.LocationDecay,
		MarkerCleanDecay:     c.Marker.CleanDecay,
		MarkerSize:           c.Marker.Size,
		MinNumberEvents:      c.Marker.MinNumberEvents,
		MinInferenceInterval: c.Robot.MinInferenceInterval,
	}
}

// Loader loads a WorldConfig from YAML. Only yaml/yml extensions are
// accepted; other extensions are rejected rather than silently
// defaulted.
type Loader struct{}

// NewLoader returns a ready-to-use Loader.
func NewLoader() *Loader { return &Loader{} }

// Load reads and validates the document at path.
func (l *Loader) Load(path string) (WorldConfig, error) {
	if err := l.checkFormat(path); err != nil {
		return WorldConfig{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return WorldConfig{}, fmt.Errorf("%w: opening %s: %v", ErrConfigError, path, err)
	}
	defer f.Close()

	return l.LoadFromReader(f)
}

// LoadFromReader decodes and validates a WorldConfig from r.
func (l *Loader) LoadFromReader(r io.Reader) (WorldConfig, error) {
	var cfg WorldConfig
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil {
		return WorldConfig{}, fmt.Errorf("%w: decoding yaml: %v", ErrConfigError, err)
	}
	if err := cfg.Validate(); err != nil {
		return WorldConfig{}, err
	}
	return cfg, nil
}

func (l *Loader) checkFormat(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return nil
	default:
		return fmt.Errorf("%w: unsupported config format %q (supported: yaml, yml)", ErrConfigError, filepath.Ext(path))
	}
}
