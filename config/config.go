package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/echoflaresat/raycast/logging"
	"github.com/echoflaresat/raycast/render"
	"github.com/echoflaresat/raycast/scene"
)

const (
	// DefaultWorkers of zero uses one worker per available CPU.
	DefaultWorkers = 0
	// DefaultShading renders the stored surface color and ignores lights.
	DefaultShading = "flat"
	// DefaultColorPolicy rejects color channels outside [0,1] at load time.
	DefaultColorPolicy = "strict"
	// DefaultMaxObjects bounds both the surface and the light list.
	DefaultMaxObjects = scene.DefaultMaxObjects
	// DefaultLogLevel controls diagnostic verbosity.
	DefaultLogLevel = "info"
	// DefaultSceneCache is the number of parsed scenes batch mode keeps.
	DefaultSceneCache = 16
)

// Config captures the runtime tunables of the renderer.
type Config struct {
	Workers     int
	Shading     string
	ColorPolicy string
	MaxObjects  int
	Spotlights  bool
	LogLevel    string
	Progress    bool
	SceneCache  int
}

// Default returns the configuration used when no environment overrides exist.
func Default() *Config {
	return &Config{
		Workers:     DefaultWorkers,
		Shading:     DefaultShading,
		ColorPolicy: DefaultColorPolicy,
		MaxObjects:  DefaultMaxObjects,
		LogLevel:    DefaultLogLevel,
		SceneCache:  DefaultSceneCache,
	}
}

// Load reads the configuration from RAYCAST_* environment variables,
// applying defaults and reporting every invalid override at once.
func Load() (*Config, error) {
	cfg := Default()
	cfg.Shading = getString("RAYCAST_SHADING", DefaultShading)
	cfg.ColorPolicy = getString("RAYCAST_COLOR_POLICY", DefaultColorPolicy)
	cfg.LogLevel = getString("RAYCAST_LOG_LEVEL", DefaultLogLevel)

	var problems []string

	if raw := strings.TrimSpace(os.Getenv("RAYCAST_WORKERS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("RAYCAST_WORKERS must be a non-negative integer, got %q", raw))
		} else {
			cfg.Workers = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("RAYCAST_MAX_OBJECTS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("RAYCAST_MAX_OBJECTS must be a positive integer, got %q", raw))
		} else {
			cfg.MaxObjects = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("RAYCAST_SCENE_CACHE")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("RAYCAST_SCENE_CACHE must be a positive integer, got %q", raw))
		} else {
			cfg.SceneCache = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("RAYCAST_SPOTLIGHTS")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("RAYCAST_SPOTLIGHTS must be a boolean value, got %q", raw))
		} else {
			cfg.Spotlights = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("RAYCAST_PROGRESS")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("RAYCAST_PROGRESS must be a boolean value, got %q", raw))
		} else {
			cfg.Progress = value
		}
	}

	if err := cfg.Validate(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "; "))
	}
	return cfg, nil
}

// Validate checks values that may also come from command line flags.
func (c *Config) Validate() error {
	var problems []string

	if c.Workers < 0 {
		problems = append(problems, fmt.Sprintf("workers must be non-negative, got %d", c.Workers))
	}
	if c.MaxObjects <= 0 {
		problems = append(problems, fmt.Sprintf("max objects must be positive, got %d", c.MaxObjects))
	}
	if c.SceneCache <= 0 {
		problems = append(problems, fmt.Sprintf("scene cache size must be positive, got %d", c.SceneCache))
	}
	if _, err := render.ParseShader(c.Shading, c.Spotlights); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := scene.ParseColorPolicy(c.ColorPolicy); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// SceneOptions returns the reader options for the configured policy and limits.
func (c *Config) SceneOptions() (scene.Options, error) {
	policy, err := scene.ParseColorPolicy(c.ColorPolicy)
	if err != nil {
		return scene.Options{}, err
	}
	return scene.Options{
		ColorPolicy: policy,
		MaxObjects:  c.MaxObjects,
		MaxLights:   c.MaxObjects,
	}, nil
}

// Shader returns the configured shading strategy.
func (c *Config) Shader() (render.Shader, error) {
	return render.ParseShader(c.Shading, c.Spotlights)
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
