package subsystem

import "errors"

// ErrNoSuchProcess is returned by Apply when the kernel refuses a pid that has exited.
var ErrNoSuchProcess = errors.New("no such process")

type ResourceConfig struct {
	// relative weight written to cpu.weight, empty means leave untouched
	CpuWeight string
}

type Subsystem interface {
	Name() string
	// Set writes the resource config, creating the group directory if needed
	Set(cgroupPath string, res *ResourceConfig) error
	// Apply moves pid into the group
	Apply(cgroupPath string, pid int) error
	// Procs lists the group's current members
	Procs(cgroupPath string) ([]int, error)
}

// NewSubsystems returns the subsystems used on a unified hierarchy mounted at root.
// An empty root is resolved from /proc/self/mountinfo on first use.
func NewSubsystems(root string) []Subsystem {
	return []Subsystem{
		&CpuWeightSubSystem{Root: root},
	}
}
