package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/HARSHv95/Focus-Mode-Scheduler/cgroup"
	log "github.com/HARSHv95/Focus-Mode-Scheduler/pkg/pidlog"
	"github.com/HARSHv95/Focus-Mode-Scheduler/tickets"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath = "/etc/focus/focus.yaml"
	envPrefix   = "FOCUS_"
)

func Default() *Config {
	return &Config{
		CgroupRoot:       cgroup.DefaultRoot,
		StateFile:        tickets.DefaultPath,
		FocusGroup:       cgroup.FocusName,
		BackgroundGroup:  cgroup.BackgroundName,
		FocusWeight:      cgroup.DefaultFocusWeight,
		BackgroundWeight: cgroup.DefaultBackgroundWeight,
		LogLevel:         "info",
	}
}

// LoadEnvironment loads a .env file into the process environment if one exists.
func LoadEnvironment(envFile string) {
	if _, err := os.Stat(envFile); err != nil {
		return
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Warnf("load %s failed %v", envFile, err)
		return
	}
	log.Debugf("loaded environment from %s", envFile)
}

// Load reads the YAML file over the defaults, then applies FOCUS_* overrides.
// A missing file at the default path is not an error.
func Load(file string) (*Config, error) {
	config := Default()

	path := file
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
			log.Errorf("parse config %s failed %v", path, err)
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && file == "":
		log.Debugf("no config at %s, using defaults", path)
	default:
		log.Errorf("read config %s failed %v", path, err)
		return nil, err
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func expandEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		envVar := strings.Trim(match, "${}")
		if value := os.Getenv(envVar); value != "" {
			return value
		}
		return match
	})
}

func applyEnv(config *Config) error {
	strs := map[string]*string{
		"CGROUP_ROOT":      &config.CgroupRoot,
		"STATE_FILE":       &config.StateFile,
		"FOCUS_GROUP":      &config.FocusGroup,
		"BACKGROUND_GROUP": &config.BackgroundGroup,
		"LOG_LEVEL":        &config.LogLevel,
		"METRICS_ADDR":     &config.MetricsAddr,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"FOCUS_WEIGHT":      &config.FocusWeight,
		"BACKGROUND_WEIGHT": &config.BackgroundWeight,
		"TIMESLICE_MS":      &config.TimesliceMs,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %q is not an integer", envPrefix, key, v)
		}
		*dst = n
	}
	return nil
}

func (c *Config) Validate() error {
	if c.CgroupRoot == "" {
		return fmt.Errorf("cgroup_root is required")
	}
	if c.StateFile == "" {
		return fmt.Errorf("state_file is required")
	}
	if c.FocusGroup == "" || c.BackgroundGroup == "" {
		return fmt.Errorf("focus_group and background_group are required")
	}
	if c.FocusGroup == c.BackgroundGroup {
		return fmt.Errorf("focus_group and background_group must differ, both are %q", c.FocusGroup)
	}
	for name, w := range map[string]int{"focus_weight": c.FocusWeight, "background_weight": c.BackgroundWeight} {
		if w < cgroup.MinWeight || w > cgroup.MaxWeight {
			return fmt.Errorf("%s %d: %w", name, w, cgroup.ErrInvalidWeight)
		}
	}
	if c.TimesliceMs < 0 {
		return fmt.Errorf("timeslice_ms must not be negative")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}
