package cgroup

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/HARSHv95/Focus-Mode-Scheduler/cgroup/subsystem"
	log "github.com/HARSHv95/Focus-Mode-Scheduler/pkg/pidlog"
	cgroups "github.com/containerd/cgroups/v3"
)

const (
	DefaultRoot    = "/sys/fs/cgroup"
	FocusName      = "focus"
	BackgroundName = "background"

	DefaultFocusWeight      = 1000
	DefaultBackgroundWeight = 10
	// kernel default for a fresh cgroup
	RelaxedWeight = 100

	MinWeight = 1
	MaxWeight = 10000
)

var (
	ErrUnsupported      = errors.New("cgroup v2 cpu controller not available")
	ErrUnknownPartition = errors.New("unknown partition")
	ErrInvalidWeight    = fmt.Errorf("cpu.weight must be in [%d, %d]", MinWeight, MaxWeight)
	ErrNoSuchProcess    = subsystem.ErrNoSuchProcess
)

// Controller is what the scheduler needs from a weighted partition backend.
type Controller interface {
	SetWeight(name string, weight int) error
	MoveInto(name string, pid int) error
	Members(name string) ([]int, error)
}

// cgroupMode is swapped in tests.
var cgroupMode = cgroups.Mode

// Hierarchy is the cgroup v2 backend: two sibling groups under Root.
type Hierarchy struct {
	Root       string
	Focus      string
	Background string

	managers map[string]*CgroupManager
	root     *CgroupManager
}

var _ Controller = &Hierarchy{}

func NewHierarchy(root, focus, background string) *Hierarchy {
	if root == "" {
		root = DefaultRoot
	}
	if focus == "" {
		focus = FocusName
	}
	if background == "" {
		background = BackgroundName
	}
	return &Hierarchy{
		Root:       root,
		Focus:      focus,
		Background: background,
		managers: map[string]*CgroupManager{
			focus:      NewCgroupManager(root, focus),
			background: NewCgroupManager(root, background),
		},
		root: NewCgroupManager(root, ""),
	}
}

// Check verifies the unified hierarchy is mounted at Root and offers the cpu controller.
func (h *Hierarchy) Check() error {
	if h.Root == DefaultRoot && cgroupMode() != cgroups.Unified {
		return fmt.Errorf("%s is not a unified hierarchy: %w", h.Root, ErrUnsupported)
	}
	controllers, err := os.ReadFile(path.Join(h.Root, "cgroup.controllers"))
	if err != nil {
		log.Errorf("cgroup v2 not found at %s: %v", h.Root, err)
		return fmt.Errorf("cgroup v2 not found at %s: %w", h.Root, ErrUnsupported)
	}
	if !hasController(string(controllers), "cpu") {
		return fmt.Errorf("cpu controller missing from %s: %w", h.Root, ErrUnsupported)
	}
	return nil
}

// Init enables the cpu controller for children of Root, creates both groups and sets their weights.
func (h *Hierarchy) Init(focusWeight, backgroundWeight int) error {
	if err := h.Check(); err != nil {
		return err
	}
	h.enableCPUController()

	if err := h.SetWeight(h.Focus, focusWeight); err != nil {
		return err
	}
	if err := h.SetWeight(h.Background, backgroundWeight); err != nil {
		return err
	}
	log.Infof("initialized %s and %s groups (%s=%d, %s=%d)",
		h.Focus, h.Background, h.Focus, focusWeight, h.Background, backgroundWeight)
	return nil
}

// Relax resets both groups to the kernel default weight.
func (h *Hierarchy) Relax() error {
	if err := h.SetWeight(h.Focus, RelaxedWeight); err != nil {
		return err
	}
	return h.SetWeight(h.Background, RelaxedWeight)
}

func (h *Hierarchy) SetWeight(name string, weight int) error {
	if weight < MinWeight || weight > MaxWeight {
		return fmt.Errorf("%s weight %d: %w", name, weight, ErrInvalidWeight)
	}
	m, err := h.manager(name)
	if err != nil {
		return err
	}
	return m.Set(&subsystem.ResourceConfig{CpuWeight: strconv.Itoa(weight)})
}

func (h *Hierarchy) MoveInto(name string, pid int) error {
	m, err := h.manager(name)
	if err != nil {
		return err
	}
	return m.Apply(pid)
}

// MoveToRoot moves pid out of both groups into the root group.
func (h *Hierarchy) MoveToRoot(pid int) error {
	return h.root.Apply(pid)
}

func (h *Hierarchy) Members(name string) ([]int, error) {
	m, err := h.manager(name)
	if err != nil {
		return nil, err
	}
	return m.Procs()
}

func (h *Hierarchy) manager(name string) (*CgroupManager, error) {
	m, ok := h.managers[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownPartition)
	}
	return m, nil
}

// enableCPUController is best effort: a delegated hierarchy may already have it on.
func (h *Hierarchy) enableCPUController() {
	subtree := path.Join(h.Root, "cgroup.subtree_control")
	current, err := os.ReadFile(subtree)
	if err != nil {
		log.Warnf("read %s failed %v", subtree, err)
		return
	}
	if hasController(string(current), "cpu") {
		return
	}
	if err := os.WriteFile(subtree, []byte("+cpu"), 0644); err != nil {
		log.Warnf("enable cpu controller in %s failed %v", subtree, err)
	}
}

func hasController(list, name string) bool {
	for _, c := range strings.Fields(list) {
		if c == name {
			return true
		}
	}
	return false
}
