package cgroup

import (
	"fmt"

	"github.com/HARSHv95/Focus-Mode-Scheduler/cgroup/subsystem"
)

type CgroupManager struct {
	// path of the group relative to the hierarchy root, "" is the root group itself
	Path string
	// resource config last applied through Set
	Resource *subsystem.ResourceConfig

	subsystems []subsystem.Subsystem
}

func NewCgroupManager(root, path string) *CgroupManager {
	return &CgroupManager{
		Path:       path,
		subsystems: subsystem.NewSubsystems(root),
	}
}

// Apply moves pid into this group.
func (c *CgroupManager) Apply(pid int) error {
	for _, subSysIns := range c.subsystems {
		if err := subSysIns.Apply(c.Path, pid); err != nil {
			return err
		}
	}
	return nil
}

// Set writes the resource limits of this group.
func (c *CgroupManager) Set(res *subsystem.ResourceConfig) error {
	for _, subSysIns := range c.subsystems {
		if err := subSysIns.Set(c.Path, res); err != nil {
			return err
		}
	}
	c.Resource = res
	return nil
}

// Procs returns the pids currently in this group.
func (c *CgroupManager) Procs() ([]int, error) {
	if len(c.subsystems) == 0 {
		return nil, fmt.Errorf("no subsystem for %s", c.Path)
	}
	return c.subsystems[0].Procs(c.Path)
}
