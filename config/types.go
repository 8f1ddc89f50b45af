package config

import "time"

type Config struct {
	CgroupRoot       string `yaml:"cgroup_root"`
	StateFile        string `yaml:"state_file"`
	FocusGroup       string `yaml:"focus_group"`
	BackgroundGroup  string `yaml:"background_group"`
	FocusWeight      int    `yaml:"focus_weight"`
	BackgroundWeight int    `yaml:"background_weight"`
	// 0 means the daemon takes it from the command line
	TimesliceMs int    `yaml:"timeslice_ms"`
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
}

func (c *Config) Timeslice() time.Duration {
	return time.Duration(c.TimesliceMs) * time.Millisecond
}
