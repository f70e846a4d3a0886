// Package config loads the server configuration from defaults, an optional
// YAML file, FILE_TOOLS_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/gommon/bytes"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// FILE_TOOLS_SERVER_ADDR=:8080.
const EnvPrefix = "FILE_TOOLS"

// Config is the top-level configuration struct.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	WorkDir    string           `mapstructure:"work_dir"`
	Log        LogConfig        `mapstructure:"log"`
	PDF        PDFConfig        `mapstructure:"pdf"`
	Image      ImageConfig      `mapstructure:"image"`
	Background BackgroundConfig `mapstructure:"background"`
	OCR        OCRConfig        `mapstructure:"ocr"`
	Vips       VipsConfig       `mapstructure:"vips"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`

	// MaxUpload is an echo body-limit size string such as "16M".
	MaxUpload string `mapstructure:"max_upload"`

	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig selects the logrus level and formatter.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// PDFConfig holds PDF rasterization defaults.
type PDFConfig struct {
	DPI int `mapstructure:"dpi"`
}

// ImageConfig holds image encoding defaults.
type ImageConfig struct {
	DefaultQuality int `mapstructure:"default_quality"` // 1-100

	// MaxPixels caps width*height of decoded images and resize targets.
	MaxPixels int64 `mapstructure:"max_pixels"`
}

// BackgroundConfig tunes background removal.
type BackgroundConfig struct {
	// Tolerance is the maximum CIE-Lab distance from the estimated
	// background color for a pixel to count as background.
	Tolerance float64 `mapstructure:"tolerance"`

	// Feather is the Gaussian blur radius applied to the alpha mask.
	Feather float64 `mapstructure:"feather"`
}

// OCRConfig configures Tesseract.
type OCRConfig struct {
	Language       string `mapstructure:"language"`
	TessdataPrefix string `mapstructure:"tessdata_prefix"`
}

// VipsConfig configures the libvips runtime used for WebP encoding.
type VipsConfig struct {
	Concurrency int `mapstructure:"concurrency"` // 0 = libvips default
}

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":5001",
			MaxUpload:       "16M",
			RequestTimeout:  60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		WorkDir: filepath.Join(os.TempDir(), "file-tools"),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		PDF:   PDFConfig{DPI: 150},
		Image: ImageConfig{DefaultQuality: 80, MaxPixels: 100_000_000},
		Background: BackgroundConfig{
			Tolerance: 0.12,
			Feather:   1.0,
		},
		OCR: OCRConfig{Language: "eng"},
	}
}

// SetDefaults registers every default on v so that environment variables
// are picked up by Unmarshal even when no config file sets the key.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_upload", d.Server.MaxUpload)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("work_dir", d.WorkDir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("pdf.dpi", d.PDF.DPI)
	v.SetDefault("image.default_quality", d.Image.DefaultQuality)
	v.SetDefault("image.max_pixels", d.Image.MaxPixels)
	v.SetDefault("background.tolerance", d.Background.Tolerance)
	v.SetDefault("background.feather", d.Background.Feather)
	v.SetDefault("ocr.language", d.OCR.Language)
	v.SetDefault("ocr.tessdata_prefix", d.OCR.TessdataPrefix)
	v.SetDefault("vips.concurrency", d.Vips.Concurrency)
}

// NewViper returns a viper instance wired for file-tools: defaults, env
// prefix and the config file search path. cfgFile overrides the search.
func NewViper(cfgFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("file-tools")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "file-tools"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file if one is present and decodes v into a
// validated Config. A missing config file is not an error.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	if c.Server.Addr == "" {
		return errors.New("config: server.addr must not be empty")
	}
	if _, err := bytes.Parse(c.Server.MaxUpload); err != nil {
		return fmt.Errorf("config: server.max_upload: %w", err)
	}
	if c.WorkDir == "" {
		return errors.New("config: work_dir must not be empty")
	}
	if c.PDF.DPI < 36 || c.PDF.DPI > 600 {
		return errors.New("config: pdf.dpi must be between 36 and 600")
	}
	if c.Image.DefaultQuality < 1 || c.Image.DefaultQuality > 100 {
		return errors.New("config: image.default_quality must be between 1 and 100")
	}
	if c.Image.MaxPixels < 1 {
		return errors.New("config: image.max_pixels must be positive")
	}
	if c.Background.Tolerance <= 0 || c.Background.Tolerance >= 1 {
		return errors.New("config: background.tolerance must be in (0, 1)")
	}
	if c.Background.Feather < 0 {
		return errors.New("config: background.feather must not be negative")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	return nil
}
