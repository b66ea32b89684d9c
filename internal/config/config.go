// Package config loads the recognizer settings.
//
// Settings come from three layers, later ones winning: built-in defaults,
// a YAML file (config.yaml, or the path in SHAPES_CONFIG), and environment
// variables, optionally seeded from a .env file. The YAML file is also
// written back to remember the last image folder between sessions.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/shapes-mcp/internal/detection"
	"github.com/ironsheep/shapes-mcp/internal/imaging"
	"github.com/ironsheep/shapes-mcp/internal/shape"
)

// DefaultPath is the config file read when SHAPES_CONFIG is unset.
const DefaultPath = "config.yaml"

// Environment variables recognized by Load.
const (
	EnvConfig       = "SHAPES_CONFIG"
	EnvInputDir     = "SHAPES_INPUT_DIR"
	EnvOutputDir    = "SHAPES_OUTPUT_DIR"
	EnvLogFile      = "SHAPES_LOG_FILE"
	EnvDatabase     = "SHAPES_DB"
	EnvViewerAddr   = "SHAPES_VIEWER_ADDR"
	EnvCameraDevice = "SHAPES_CAMERA_DEVICE"
	EnvColorMode    = "SHAPES_COLOR_MODE"
)

// Color classifier modes.
const (
	ColorModeRange = "range"
	ColorModeHue   = "hue"
)

// Source modes.
const (
	SourceImage  = "image"
	SourceCamera = "camera"
)

// Config is the complete set of settings.
type Config struct {
	Paths     PathsConfig     `yaml:"paths"`
	Detection DetectionConfig `yaml:"detection"`
	Color     ColorConfig     `yaml:"color"`
	Source    SourceConfig    `yaml:"source"`
	Display   DisplayConfig   `yaml:"display"`
	Viewer    ViewerConfig    `yaml:"viewer"`
}

// PathsConfig holds file and directory locations.
type PathsConfig struct {
	// LastImageFolderPath is the folder used by image mode when none is
	// given. It is updated whenever a folder run starts.
	LastImageFolderPath string `yaml:"last_image_folder_path"`

	// OutputDir receives annotated frames, one subdirectory per run.
	// Empty disables saving.
	OutputDir string `yaml:"output_dir"`

	// LogFile is the CSV detection log.
	LogFile string `yaml:"log_file"`

	// Database is the optional SQLite store. Empty disables it.
	Database string `yaml:"database"`
}

// DetectionConfig tunes contour extraction and shape classification.
type DetectionConfig struct {
	BlurRadius        float64 `yaml:"blur_radius"`
	BlockSize         int     `yaml:"block_size"`
	C                 float64 `yaml:"c"`
	Ratio             float64 `yaml:"ratio"`
	MinCenterDistance float64 `yaml:"min_center_distance"`
	DropBackground    bool    `yaml:"drop_background"`
	EpsilonFactor     float64 `yaml:"epsilon_factor"`
	Backend           string  `yaml:"backend"`
}

// ColorConfig selects and tunes the color classifier.
type ColorConfig struct {
	Mode          string            `yaml:"mode"`
	HueWindow     float64           `yaml:"hue_window"`
	MinSaturation float64           `yaml:"min_saturation"`
	MinValue      float64           `yaml:"min_value"`
	References    []ReferenceConfig `yaml:"references"`
}

// ReferenceConfig is one named BGR reference color.
type ReferenceConfig struct {
	Name string `yaml:"name"`
	BGR  [3]int `yaml:"bgr,flow"`
}

// SourceConfig holds frame source settings.
type SourceConfig struct {
	Mode             string `yaml:"mode"`
	CameraDevice     int    `yaml:"camera_device"`
	Loop             bool   `yaml:"loop"`
	Workers          int    `yaml:"workers"`
	MaxDroppedFrames int    `yaml:"max_dropped_frames"`
}

// DisplayConfig controls how processed frames are shown.
type DisplayConfig struct {
	// Scale resizes frames kept in the viewer history.
	Scale float64 `yaml:"scale"`

	// HistoryLimit bounds the number of frames kept for prev/next.
	HistoryLimit int `yaml:"history_limit"`
}

// ViewerConfig configures the live WebSocket viewer.
type ViewerConfig struct {
	// Addr is the HTTP listen address, e.g. "127.0.0.1:8090". Empty
	// disables the viewer.
	Addr string `yaml:"addr"`
}

// Default returns the built-in settings.
func Default() *Config {
	refs := shape.DefaultReferences()
	refConfigs := make([]ReferenceConfig, len(refs))
	for i, r := range refs {
		refConfigs[i] = ReferenceConfig{
			Name: r.Color.String(),
			BGR:  [3]int{int(r.BGR.B), int(r.BGR.G), int(r.BGR.R)},
		}
	}

	th := imaging.DefaultThresholdOptions()
	ex := detection.DefaultOptions()
	return &Config{
		Paths: PathsConfig{
			LogFile: "log.csv",
		},
		Detection: DetectionConfig{
			BlurRadius:        th.BlurRadius,
			BlockSize:         th.BlockSize,
			C:                 th.C,
			Ratio:             ex.Ratio,
			MinCenterDistance: ex.MinCenterDistance,
			DropBackground:    ex.DropBackground,
			EpsilonFactor:     shape.DefaultEpsilonFactor,
			Backend:           string(detection.BackendGo),
		},
		Color: ColorConfig{
			Mode:          ColorModeRange,
			HueWindow:     shape.DefaultHueWindow,
			MinSaturation: shape.DefaultMinSaturation,
			MinValue:      shape.DefaultMinValue,
			References:    refConfigs,
		},
		Source: SourceConfig{
			Mode:             SourceImage,
			MaxDroppedFrames: 30,
		},
		Display: DisplayConfig{
			Scale:        0.7,
			HistoryLimit: 500,
		},
	}
}

// Path returns the config file location: SHAPES_CONFIG, or DefaultPath.
func Path() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return DefaultPath
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored. With no arguments it reads ".env".
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the config file at path on top of the defaults, applies
// environment overrides and validates the result. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Paths.LastImageFolderPath = getEnv(EnvInputDir, c.Paths.LastImageFolderPath)
	c.Paths.OutputDir = getEnv(EnvOutputDir, c.Paths.OutputDir)
	c.Paths.LogFile = getEnv(EnvLogFile, c.Paths.LogFile)
	c.Paths.Database = getEnv(EnvDatabase, c.Paths.Database)
	c.Viewer.Addr = getEnv(EnvViewerAddr, c.Viewer.Addr)
	c.Source.CameraDevice = getEnvAsInt(EnvCameraDevice, c.Source.CameraDevice)
	c.Color.Mode = getEnv(EnvColorMode, c.Color.Mode)
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Color.Mode) {
	case ColorModeRange, ColorModeHue:
	default:
		return fmt.Errorf("invalid color mode %q: want %q or %q", c.Color.Mode, ColorModeRange, ColorModeHue)
	}
	switch strings.ToLower(c.Source.Mode) {
	case SourceImage, SourceCamera:
	default:
		return fmt.Errorf("invalid source mode %q: want %q or %q", c.Source.Mode, SourceImage, SourceCamera)
	}
	if c.Detection.BlockSize <= 0 || c.Detection.BlockSize%2 == 0 {
		return fmt.Errorf("invalid block size %d: must be odd and positive", c.Detection.BlockSize)
	}
	backend, err := detection.ParseBackend(strings.ToLower(c.Detection.Backend))
	if err != nil {
		return err
	}
	if backend == detection.BackendOpenCV && !detection.OpenCVAvailable {
		return errors.New("detection backend \"opencv\" needs a binary built with -tags gocv")
	}
	if c.Display.Scale <= 0 {
		return fmt.Errorf("invalid display scale %v: must be positive", c.Display.Scale)
	}
	if c.Paths.LogFile == "" {
		return errors.New("log file path must not be empty")
	}
	if _, err := c.Color.ShapeReferences(); err != nil {
		return err
	}
	return nil
}

// Options converts the detection section into extraction options. An
// unknown backend maps to detection.BackendGo.
func (d DetectionConfig) Options() detection.Options {
	backend, err := detection.ParseBackend(strings.ToLower(d.Backend))
	if err != nil {
		backend = detection.BackendGo
	}
	return detection.Options{
		Threshold: imaging.ThresholdOptions{
			BlurRadius: d.BlurRadius,
			BlockSize:  d.BlockSize,
			C:          d.C,
		},
		Ratio:             d.Ratio,
		MinCenterDistance: d.MinCenterDistance,
		DropBackground:    d.DropBackground,
		Backend:           backend,
	}
}

// ShapeReferences parses the reference table.
func (c ColorConfig) ShapeReferences() ([]shape.Reference, error) {
	refs := make([]shape.Reference, 0, len(c.References))
	for _, r := range c.References {
		color, err := shape.ParseColor(r.Name)
		if err != nil || color == shape.Unknown {
			return nil, fmt.Errorf("invalid reference color name %q", r.Name)
		}
		var ch [3]uint8
		for i, v := range r.BGR {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("reference %s: channel value %d out of range", r.Name, v)
			}
			ch[i] = uint8(v)
		}
		refs = append(refs, shape.Reference{Color: color, BGR: imaging.NewBGR(ch[0], ch[1], ch[2])})
	}
	return refs, nil
}

// Classifier builds the configured color classifier.
func (c ColorConfig) Classifier() (shape.ColorClassifier, error) {
	switch strings.ToLower(c.Mode) {
	case ColorModeRange:
		return shape.NewRangeClassifier(nil), nil
	case ColorModeHue:
		refs, err := c.ShapeReferences()
		if err != nil {
			return nil, err
		}
		hc := shape.NewHueClassifier(refs)
		if c.HueWindow > 0 {
			hc.Window = c.HueWindow
		}
		if c.MinSaturation > 0 {
			hc.MinSaturation = c.MinSaturation
		}
		if c.MinValue > 0 {
			hc.MinValue = c.MinValue
		}
		return hc, nil
	default:
		return nil, fmt.Errorf("invalid color mode %q", c.Mode)
	}
}

// Recognizer builds a recognizer from the detection and color sections.
func (c *Config) Recognizer() (*shape.Recognizer, error) {
	colors, err := c.Color.Classifier()
	if err != nil {
		return nil, err
	}
	r := shape.NewRecognizer(c.Detection.Options(), colors)
	if c.Detection.EpsilonFactor > 0 {
		r.EpsilonFactor = c.Detection.EpsilonFactor
	}
	return r, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
