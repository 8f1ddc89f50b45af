package subsystem

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"

	log "github.com/HARSHv95/Focus-Mode-Scheduler/pkg/pidlog"
	"golang.org/x/sys/unix"
)

const (
	weightFile = "cpu.weight"
	procsFile  = "cgroup.procs"
)

type CpuWeightSubSystem struct {
	Root string
}

func (c *CpuWeightSubSystem) Name() string {
	return "cpu"
}

func (c *CpuWeightSubSystem) root() (string, error) {
	if c.Root != "" {
		return c.Root, nil
	}
	root, err := FindCgroupMountPoint()
	if err != nil {
		return "", err
	}
	c.Root = root
	return root, nil
}

func (c *CpuWeightSubSystem) Set(cgroupPath string, res *ResourceConfig) error {
	root, err := c.root()
	if err != nil {
		return err
	}
	cgroupAbsolutePath, err := GetCgroupPath(root, cgroupPath, true)
	if err != nil {
		return err
	}
	if res == nil || res.CpuWeight == "" {
		log.Debugf("no cpu weight configured for %s, skip", cgroupPath)
		return nil
	}
	if err := os.WriteFile(path.Join(cgroupAbsolutePath, weightFile), []byte(res.CpuWeight), 0644); err != nil {
		log.Errorf("set cpu.weight=%s on %s failed %v", res.CpuWeight, cgroupPath, err)
		return fmt.Errorf("set cpu.weight on %s: %w", cgroupPath, err)
	}
	log.Debugf("set cpu.weight=%s on %s", res.CpuWeight, cgroupPath)
	return nil
}

func (c *CpuWeightSubSystem) Apply(cgroupPath string, pid int) error {
	root, err := c.root()
	if err != nil {
		return err
	}
	cgroupAbsolutePath, err := GetCgroupPath(root, cgroupPath, false)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path.Join(cgroupAbsolutePath, procsFile), []byte(strconv.Itoa(pid)), 0644); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return fmt.Errorf("move pid=%d to %s: %w", pid, cgroupPath, ErrNoSuchProcess)
		}
		return fmt.Errorf("move pid=%d to %s: %w", pid, cgroupPath, err)
	}
	return nil
}

func (c *CpuWeightSubSystem) Procs(cgroupPath string) ([]int, error) {
	root, err := c.root()
	if err != nil {
		return nil, err
	}
	cgroupAbsolutePath, err := GetCgroupPath(root, cgroupPath, false)
	if err != nil {
		return nil, err
	}
	pids, err := ReadProcs(path.Join(cgroupAbsolutePath, procsFile))
	if err != nil {
		return nil, fmt.Errorf("read members of %s: %w", cgroupPath, err)
	}
	return pids, nil
}
