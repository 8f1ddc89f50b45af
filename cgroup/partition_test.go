package cgroup

import (
	"os"
	"path/filepath"
	"testing"

	cgroups "github.com/containerd/cgroups/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHierarchy lays out the files of a cgroup2 root in a temp dir.
func fakeHierarchy(t *testing.T, controllers string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "cgroup.controllers"), []byte(controllers), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cgroup.subtree_control"), []byte("memory"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cgroup.procs"), nil, 0644))
	return root
}

func readString(t *testing.T, file string) string {
	t.Helper()
	b, err := os.ReadFile(file)
	require.NoError(t, err)
	return string(b)
}

func TestHierarchy_Check(t *testing.T) {
	tests := []struct {
		name        string
		controllers *string
		wantErr     bool
	}{
		{"cpu available", strPtr("cpuset cpu io memory pids"), false},
		{"cpuset only", strPtr("cpuset io memory"), true},
		{"no hierarchy", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			if tt.controllers != nil {
				root = fakeHierarchy(t, *tt.controllers)
			}
			err := NewHierarchy(root, "", "").Check()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupported)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestHierarchy_CheckLegacyMode(t *testing.T) {
	saved := cgroupMode
	defer func() { cgroupMode = saved }()
	cgroupMode = func() cgroups.CGMode { return cgroups.Legacy }

	err := NewHierarchy(DefaultRoot, "", "").Check()
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestHierarchy_Init(t *testing.T) {
	root := fakeHierarchy(t, "cpu memory")
	h := NewHierarchy(root, "", "")

	require.NoError(t, h.Init(DefaultFocusWeight, DefaultBackgroundWeight))

	assert.Equal(t, "1000", readString(t, filepath.Join(root, FocusName, "cpu.weight")))
	assert.Equal(t, "10", readString(t, filepath.Join(root, BackgroundName, "cpu.weight")))
	assert.Equal(t, "+cpu", readString(t, filepath.Join(root, "cgroup.subtree_control")))

	// second init on existing groups is fine
	require.NoError(t, h.Init(500, 50))
	assert.Equal(t, "500", readString(t, filepath.Join(root, FocusName, "cpu.weight")))
}

func TestHierarchy_InitKeepsEnabledController(t *testing.T) {
	root := fakeHierarchy(t, "cpuset cpu")
	subtree := filepath.Join(root, "cgroup.subtree_control")
	require.NoError(t, os.WriteFile(subtree, []byte("cpuset cpu"), 0644))

	require.NoError(t, NewHierarchy(root, "", "").Init(DefaultFocusWeight, DefaultBackgroundWeight))
	assert.Equal(t, "cpuset cpu", readString(t, subtree))
}

func TestHierarchy_SetWeight(t *testing.T) {
	root := fakeHierarchy(t, "cpu")
	h := NewHierarchy(root, "fg", "bg")

	tests := []struct {
		name      string
		partition string
		weight    int
		wantErr   error
	}{
		{"focus", "fg", 1000, nil},
		{"background", "bg", 10, nil},
		{"zero", "fg", 0, ErrInvalidWeight},
		{"above max", "bg", MaxWeight + 1, ErrInvalidWeight},
		{"unknown", "focus", 100, ErrUnknownPartition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.SetWeight(tt.partition, tt.weight)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestHierarchy_MoveAndMembers(t *testing.T) {
	root := fakeHierarchy(t, "cpu")
	h := NewHierarchy(root, "", "")
	require.NoError(t, h.Init(DefaultFocusWeight, DefaultBackgroundWeight))

	require.NoError(t, h.MoveInto(FocusName, 4242))
	members, err := h.Members(FocusName)
	require.NoError(t, err)
	assert.Equal(t, []int{4242}, members)

	require.NoError(t, h.MoveToRoot(4242))
	assert.Equal(t, "4242", readString(t, filepath.Join(root, "cgroup.procs")))

	_, err = h.Members("nope")
	assert.ErrorIs(t, err, ErrUnknownPartition)
}

func TestHierarchy_MoveIntoMissingGroup(t *testing.T) {
	h := NewHierarchy(fakeHierarchy(t, "cpu"), "", "")
	// groups were never created
	assert.Error(t, h.MoveInto(BackgroundName, 1))
}

func TestHierarchy_Relax(t *testing.T) {
	root := fakeHierarchy(t, "cpu")
	h := NewHierarchy(root, "", "")
	require.NoError(t, h.Init(DefaultFocusWeight, DefaultBackgroundWeight))

	require.NoError(t, h.Relax())
	assert.Equal(t, "100", readString(t, filepath.Join(root, FocusName, "cpu.weight")))
	assert.Equal(t, "100", readString(t, filepath.Join(root, BackgroundName, "cpu.weight")))
}

func strPtr(s string) *string { return &s }
