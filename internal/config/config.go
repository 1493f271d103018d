// Package config handles application configuration and command-line argument parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/alexflint/go-arg"
	"gopkg.in/yaml.v3"

	"github.com/joe/media-sync/internal/watermark"
)

// AppName names the per-user config and state directories.
const AppName = "media-sync"

// Defaults applied when neither a flag nor the config file sets a value.
const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultLogLevel     = "info"
	DefaultLogFileName  = "media-sync.log"
	DefaultConfigName   = "config.yaml"
)

// Exported variables.
var (
	ErrSourceRequired     = errors.New("source path is required")
	ErrDestRequired       = errors.New("destination path is required")
	ErrWatermarksRequired = errors.New("watermark file path is required")
	ErrInvalidPoll        = errors.New("poll interval must be positive")
)

// Config holds the application configuration
type Config struct {
	SourcePath     string           `arg:"-s,--source" help:"Source root folder"`
	DestPath       string           `arg:"-d,--dest" help:"Destination root folder"`
	WatermarksPath string           `arg:"-w,--watermarks" help:"Watermark control file (.xml, .yaml or .db)"`
	StoreFormat    watermark.Format `arg:"--store-format" help:"Control file format: xml|yaml|sqlite (default: from extension)"`
	Discover       bool             `arg:"--discover" help:"Also plan source folders the control file doesn't list yet"`
	Headless       bool             `arg:"--headless" help:"Copy without the terminal UI and exit when done"`
	Listen         string           `arg:"--listen" help:"Serve the HTTP control API on this address (e.g. 127.0.0.1:8787)"`
	Poll           time.Duration    `arg:"--poll" help:"Scheduler tick interval (default: 100ms)"`
	LogLevel       string           `arg:"--log-level" help:"debug|info|warn|error (default: info)"`
	LogFile        string           `arg:"--log-file" help:"Log file (default: stderr headless, state dir with the UI)"`
	ConfigFile     string           `arg:"--config" help:"YAML file with default settings"`
}

// FileConfig is the YAML defaults file. Flags always win over it.
type FileConfig struct {
	Source      string `yaml:"source"`
	Dest        string `yaml:"dest"`
	Watermarks  string `yaml:"watermarks"`
	StoreFormat string `yaml:"store_format"`
	Discover    bool   `yaml:"discover"`
	Headless    bool   `yaml:"headless"`
	Listen      string `yaml:"listen"`
	Poll        string `yaml:"poll"`
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
}

// Description returns the program description for go-arg
func (Config) Description() string {
	return "Copies new media files from a source tree to a destination tree, " +
		"tracking progress per folder in a watermark control file"
}

// Version returns the version string for go-arg
func (Config) Version() string {
	return "media-sync 1.0.0"
}

// DefaultConfigPath is the per-user config file location.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, DefaultConfigName)
}

// DefaultLogPath is where the UI writes its log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, AppName, DefaultLogFileName)
}

// ParseFlags parses command-line flags and returns configuration
func ParseFlags() (*Config, error) {
	cfg := &Config{}

	arg.MustParse(cfg)

	err := cfg.LoadFile()
	if err != nil {
		return nil, err
	}

	return PostProcessConfig(cfg)
}

// LoadFile merges the YAML defaults file into unset fields. An explicit
// --config must exist; the default location is optional.
func (cfg *Config) LoadFile() error {
	path := cfg.ConfigFile
	required := path != ""

	if !required {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path) // #nosec G304 - path comes from the command line or XDG
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	var file FileConfig

	err = yaml.Unmarshal(data, &file)
	if err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg.merge(file)
}

func (cfg *Config) merge(file FileConfig) error {
	setString(&cfg.SourcePath, file.Source)
	setString(&cfg.DestPath, file.Dest)
	setString(&cfg.WatermarksPath, file.Watermarks)
	setString(&cfg.Listen, file.Listen)
	setString(&cfg.LogLevel, file.LogLevel)
	setString(&cfg.LogFile, file.LogFile)

	cfg.Discover = cfg.Discover || file.Discover
	cfg.Headless = cfg.Headless || file.Headless

	if cfg.StoreFormat == watermark.FormatAuto && file.StoreFormat != "" {
		err := cfg.StoreFormat.UnmarshalText([]byte(file.StoreFormat))
		if err != nil {
			return fmt.Errorf("config file store_format: %w", err)
		}
	}

	if cfg.Poll == 0 && file.Poll != "" {
		poll, err := time.ParseDuration(file.Poll)
		if err != nil {
			return fmt.Errorf("config file poll: %w", err)
		}

		cfg.Poll = poll
	}

	return nil
}

func setString(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

// PostProcessConfig applies defaults and validates a parsed config
func PostProcessConfig(cfg *Config) (*Config, error) {
	if cfg.Poll == 0 {
		cfg.Poll = DefaultPollInterval
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if cfg.LogFile == "" && !cfg.Headless {
		cfg.LogFile = DefaultLogPath()
	}

	if err := cfg.ValidatePaths(); err != nil {
		return nil, err
	}

	if cfg.Poll < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPoll, cfg.Poll)
	}

	return cfg, nil
}

// ValidatePaths checks that every required path is given and that the
// control file format can be determined. Whether the source and destination
// folders exist is reported by planning, so a missing drive can be plugged
// in and re-planned without restarting.
func (cfg *Config) ValidatePaths() error {
	if cfg.SourcePath == "" {
		return ErrSourceRequired
	}

	if cfg.DestPath == "" {
		return ErrDestRequired
	}

	if cfg.WatermarksPath == "" {
		return ErrWatermarksRequired
	}

	if cfg.StoreFormat == watermark.FormatAuto {
		_, err := watermark.DetectFormat(cfg.WatermarksPath)
		if err != nil {
			return fmt.Errorf("%w (use --store-format)", err)
		}
	}

	if filepath.Clean(cfg.SourcePath) == filepath.Clean(cfg.DestPath) {
		return fmt.Errorf("source and destination are the same folder: %s", cfg.SourcePath)
	}

	return nil
}
