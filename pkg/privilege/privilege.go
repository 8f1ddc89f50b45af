package privilege

import (
	"fmt"
	"strings"

	"github.com/syndtr/gocapability/capability"
)

// Capabilities the scheduler needs: writing cgroup files outside a delegated
// subtree and signalling processes owned by other users.
var required = []string{
	"CAP_SYS_ADMIN",
	"CAP_KILL",
}

var capabilityMap map[string]capability.Cap

func init() {
	capabilityMap = make(map[string]capability.Cap, capability.CAP_LAST_CAP+1)
	for _, c := range capability.List() {
		if c > capability.CAP_LAST_CAP {
			continue
		}
		capabilityMap["CAP_"+strings.ToUpper(c.String())] = c
	}
}

func capSlice(caps []string) ([]capability.Cap, error) {
	out := make([]capability.Cap, len(caps))
	for i, c := range caps {
		v, ok := capabilityMap[c]
		if !ok {
			return nil, fmt.Errorf("unknown capability %q", c)
		}
		out[i] = v
	}
	return out, nil
}

// Missing returns the required capabilities absent from the effective set of this process.
func Missing() ([]string, error) {
	caps, err := capability.NewPid2(0)
	if err != nil {
		return nil, err
	}
	if err := caps.Load(); err != nil {
		return nil, fmt.Errorf("load capabilities: %w", err)
	}
	return missingFrom(caps, required)
}

func missingFrom(caps capability.Capabilities, names []string) ([]string, error) {
	wanted, err := capSlice(names)
	if err != nil {
		return nil, err
	}
	var missing []string
	for i, c := range wanted {
		if !caps.Get(capability.EFFECTIVE, c) {
			missing = append(missing, names[i])
		}
	}
	return missing, nil
}
