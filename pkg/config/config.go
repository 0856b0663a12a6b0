// Package config loads the settings shared by every toroid command.
//
// Values are layered, lowest priority first: built-in defaults, a YAML
// file, dotenv files, then TOROID_* environment variables. The result is
// checked with struct tags before it is returned.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/chazu/toroid/pkg/kernel"
	"github.com/chazu/toroid/pkg/neutronics"
)

// EnvPrefix starts the name of every environment override.
const EnvPrefix = "TOROID_"

// Config is the full set of settings.
type Config struct {
	OutputDir   string        `yaml:"output_dir" validate:"required"`
	EvalTimeout time.Duration `yaml:"eval_timeout" validate:"gte=0"`
	// MergeByTag combines parts sharing a material tag into one mesh.
	MergeByTag bool `yaml:"merge_by_tag"`

	Log       LogConfig                  `yaml:"log"`
	Mesh      MeshConfig                 `yaml:"mesh"`
	Sweep     SweepConfig                `yaml:"sweep"`
	Facility  neutronics.FacilityOptions `yaml:"facility"`
	Transport neutronics.Settings        `yaml:"transport"`

	// LoadedFrom lists the sources applied, in order.
	LoadedFrom []string `yaml:"-"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// MeshConfig mirrors kernel.MeshOptions.
type MeshConfig struct {
	MinSize  float64 `yaml:"min_size" validate:"gte=0"`
	MaxSize  float64 `yaml:"max_size" validate:"gte=0"`
	MaxCells int     `yaml:"max_cells" validate:"gte=0"`
}

// Options converts the mesh settings for the kernel.
func (m MeshConfig) Options() kernel.MeshOptions {
	return kernel.MeshOptions{MinSize: m.MinSize, MaxSize: m.MaxSize, MaxCells: m.MaxCells}
}

// SweepConfig controls parameter sweeps.
type SweepConfig struct {
	Concurrency int       `yaml:"concurrency" validate:"gte=0"`
	Factors     []float64 `yaml:"factors" validate:"dive,gt=0"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		OutputDir:   "out",
		EvalTimeout: 5 * time.Second,
		Log:         LogConfig{Level: "info"},
		Mesh:        MeshConfig{MaxCells: kernel.DefaultMeshCells},
		Sweep:       SweepConfig{Concurrency: 4},
		Facility:    neutronics.DefaultFacility(),
		Transport:   neutronics.DefaultSettings(),
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment. Each dotenv file that exists is
// loaded first; variables already set in the process win over it.
func Load(path string, dotenv ...string) (*Config, error) {
	cfg := Default()
	cfg.LoadedFrom = append(cfg.LoadedFrom, "defaults")

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.LoadedFrom = append(cfg.LoadedFrom, path)
	}

	for _, f := range dotenv {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
		cfg.LoadedFrom = append(cfg.LoadedFrom, f)
	}

	applied, err := cfg.applyEnv(os.Getenv)
	if err != nil {
		return nil, err
	}
	if applied {
		cfg.LoadedFrom = append(cfg.LoadedFrom, "environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays TOROID_* variables and reports whether any was set.
func (c *Config) applyEnv(getenv func(string) string) (bool, error) {
	applied := false
	var errs []error
	str := func(key string, dst *string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
			applied = true
		}
	}
	parse := func(key string, set func(string) error) {
		v := getenv(EnvPrefix + key)
		if v == "" {
			return
		}
		if err := set(v); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		applied = true
	}

	str("OUTPUT_DIR", &c.OutputDir)
	str("LOG_LEVEL", &c.Log.Level)
	parse("LOG_DEVELOPMENT", func(v string) (err error) {
		c.Log.Development, err = strconv.ParseBool(v)
		return err
	})
	parse("EVAL_TIMEOUT", func(v string) (err error) {
		c.EvalTimeout, err = time.ParseDuration(v)
		return err
	})
	parse("MESH_CELLS", func(v string) (err error) {
		c.Mesh.MaxCells, err = strconv.Atoi(v)
		return err
	})
	parse("MESH_MIN_SIZE", func(v string) (err error) {
		c.Mesh.MinSize, err = strconv.ParseFloat(v, 64)
		return err
	})
	parse("MESH_MAX_SIZE", func(v string) (err error) {
		c.Mesh.MaxSize, err = strconv.ParseFloat(v, 64)
		return err
	})
	parse("MERGE_BY_TAG", func(v string) (err error) {
		c.MergeByTag, err = strconv.ParseBool(v)
		return err
	})
	parse("SWEEP_CONCURRENCY", func(v string) (err error) {
		c.Sweep.Concurrency, err = strconv.Atoi(v)
		return err
	})
	parse("PARTICLES", func(v string) (err error) {
		c.Transport.Particles, err = strconv.Atoi(v)
		return err
	})
	parse("BATCHES", func(v string) (err error) {
		c.Transport.Batches, err = strconv.Atoi(v)
		return err
	})
	return applied, errors.Join(errs...)
}

var validate = validator.New()

// Validate checks the struct tags and the mesh size bounds.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, formatFieldError(e))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Mesh.Options().Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// NewLogger builds a zap logger for the log settings.
func NewLogger(c LogConfig) (*zap.Logger, error) {
	var zc zap.Config
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc.Level = level
	return zc.Build()
}
