package proc

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	log "github.com/HARSHv95/Focus-Mode-Scheduler/pkg/pidlog"
	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"
)

// FindByName returns the pids whose command name contains substr, in ascending order.
// The calling process is never included.
func FindByName(ctx context.Context, substr string) ([]int, error) {
	if substr == "" {
		return nil, fmt.Errorf("empty process name")
	}
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	self := os.Getpid()
	var pids []int
	for _, p := range procs {
		if int(p.Pid) == self {
			continue
		}
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// exited while we were scanning
			continue
		}
		if strings.Contains(name, substr) {
			pids = append(pids, int(p.Pid))
		}
	}
	sort.Ints(pids)
	return pids, nil
}

// Exists reports whether pid is a live process.
func Exists(ctx context.Context, pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := process.PidExistsWithContext(ctx, int32(pid))
	if err != nil {
		log.Debugf("check pid %d failed %v", pid, err)
		return false
	}
	return ok
}

// Signal sends sig to every pid and returns how many deliveries succeeded.
// Delivery failures are logged, the rest of the pids are still signalled.
func Signal(pids []int, sig unix.Signal) int {
	sent := 0
	for _, pid := range pids {
		if pid <= 0 {
			continue
		}
		if err := unix.Kill(pid, sig); err != nil {
			log.Errorf("kill -%d %d failed %v", int(sig), pid, err)
			continue
		}
		sent++
	}
	return sent
}
