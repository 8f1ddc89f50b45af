package subsystem

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	log "github.com/HARSHv95/Focus-Mode-Scheduler/pkg/pidlog"
)

const mountInfo = "/proc/self/mountinfo"

// FindCgroupMountPoint returns the mount point of the cgroup2 filesystem.
func FindCgroupMountPoint() (string, error) {
	f, err := os.Open(mountInfo)
	if err != nil {
		log.Errorf("open %s failed %v", mountInfo, err)
		return "", fmt.Errorf("open %s: %w", mountInfo, err)
	}
	defer f.Close()

	return findCgroup2Mount(f)
}

//	36 35 98:0 / /sys/fs/cgroup rw,nosuid,nodev,noexec,relatime shared:9 - cgroup2 cgroup2 rw,nsdelegate
func findCgroup2Mount(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 {
			continue
		}
		for i, field := range fields {
			if field == "-" && i+1 < len(fields) && fields[i+1] == "cgroup2" {
				log.Debugf("cgroup2 mounted at %s", fields[4])
				return fields[4], nil
			}
		}
	}

	if err := scanner.Err(); err != nil {
		log.Errorf("scan mountinfo failed %v", err)
		return "", fmt.Errorf("scan mountinfo: %w", err)
	}

	return "", fmt.Errorf("no cgroup2 mount point found")
}

// GetCgroupPath joins cgroupPath onto root and optionally creates the directory.
func GetCgroupPath(cgroupRoot string, cgroupPath string, autoCreate bool) (string, error) {
	cgroupAbsolutePath := path.Join(cgroupRoot, cgroupPath)

	if _, err := os.Stat(cgroupAbsolutePath); err != nil {
		if os.IsNotExist(err) && autoCreate {
			if err := os.Mkdir(cgroupAbsolutePath, 0755); err != nil && !os.IsExist(err) {
				log.Errorf("create cgroup %s failed %v", cgroupAbsolutePath, err)
				return "", fmt.Errorf("create cgroup %s: %w", cgroupAbsolutePath, err)
			}
			log.Debugf("created cgroup %s", cgroupAbsolutePath)
			return cgroupAbsolutePath, nil
		}
		log.Errorf("stat cgroup %s failed %v", cgroupAbsolutePath, err)
		return "", err
	}
	return cgroupAbsolutePath, nil
}

// ReadProcs parses a cgroup.procs style file, one pid per line.
func ReadProcs(file string) ([]int, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pids []int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil || pid <= 0 {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, scanner.Err()
}
