package daemon

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/HARSHv95/Focus-Mode-Scheduler/cgroup"
	"github.com/HARSHv95/Focus-Mode-Scheduler/lottery"
	"github.com/HARSHv95/Focus-Mode-Scheduler/metrics"
	"github.com/HARSHv95/Focus-Mode-Scheduler/tickets"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type move struct {
	partition string
	pid       int
}

// fakeController keeps membership in memory. Pids in dead are rejected like
// the kernel rejects an exited process.
type fakeController struct {
	mu      sync.Mutex
	moves   []move
	members map[string]map[int]bool
	weights map[string]int
	dead    map[int]bool
}

func newFakeController() *fakeController {
	return &fakeController{
		members: map[string]map[int]bool{cgroup.FocusName: {}, cgroup.BackgroundName: {}},
		weights: map[string]int{},
		dead:    map[int]bool{},
	}
}

func (f *fakeController) SetWeight(name string, weight int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.weights[name] = weight
	return nil
}

func (f *fakeController) MoveInto(name string, pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves = append(f.moves, move{name, pid})
	if f.dead[pid] {
		return fmt.Errorf("move pid=%d to %s: %w", pid, name, cgroup.ErrNoSuchProcess)
	}
	for _, m := range f.members {
		delete(m, pid)
	}
	f.members[name][pid] = true
	return nil
}

func (f *fakeController) Members(name string) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pids []int
	for pid := range f.members[name] {
		pids = append(pids, pid)
	}
	return pids, nil
}

func (f *fakeController) Moves() []move {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]move(nil), f.moves...)
}

type fakeTable struct {
	mu    sync.Mutex
	table tickets.Table
	err   error
	loads int
}

func (f *fakeTable) Load() (tickets.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	return append(tickets.Table(nil), f.table...), nil
}

func (f *fakeTable) Loads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

type fixedPicker struct{ pid int }

func (p fixedPicker) PickWinner(entries []tickets.Entry) (int, bool) {
	if len(entries) == 0 {
		return 0, false
	}
	return p.pid, true
}

func newTestDaemon(t *testing.T, table TableLoader, picker Picker, ctrl cgroup.Controller) *Daemon {
	t.Helper()
	d, err := NewDaemon(Config{Timeslice: 10 * time.Millisecond}, table, picker, ctrl, metrics.NewRecorder())
	require.NoError(t, err)
	return d
}

func TestNewDaemon_InvalidTimeslice(t *testing.T) {
	for _, ts := range []time.Duration{0, -time.Millisecond} {
		_, err := NewDaemon(Config{Timeslice: ts}, &fakeTable{}, fixedPicker{}, newFakeController(), nil)
		assert.ErrorIs(t, err, ErrInvalidTimeslice)
	}
}

func TestDaemon_EmptyTableStaysIdle(t *testing.T) {
	ctrl := newFakeController()
	d := newTestDaemon(t, &fakeTable{}, fixedPicker{1}, ctrl)

	round := d.RunRound()
	assert.Equal(t, Idle, round.State)
	assert.Equal(t, Idle, d.State())
	assert.Empty(t, ctrl.Moves())
	err := testutil.GatherAndCompare(d.metrics.Registry(), strings.NewReader(`
# HELP focus_rounds_total Scheduling rounds by the state the round ended in.
# TYPE focus_rounds_total counter
focus_rounds_total{state="idle"} 1
`), "focus_rounds_total")
	assert.NoError(t, err)
}

func TestDaemon_RoundMovesWinnerThenOthersInOrder(t *testing.T) {
	ctrl := newFakeController()
	table := &fakeTable{table: tickets.Table{{Pid: 100, Tickets: 10}, {Pid: 200, Tickets: 30}, {Pid: 300, Tickets: 5}}}
	d := newTestDaemon(t, table, fixedPicker{200}, ctrl)

	round := d.RunRound()
	assert.Equal(t, Scheduling, round.State)
	assert.Equal(t, 200, round.Winner)
	assert.Equal(t, 3, round.Moved)
	assert.Zero(t, round.Failed)

	assert.Equal(t, []move{
		{cgroup.BackgroundName, 100},
		{cgroup.FocusName, 200},
		{cgroup.BackgroundName, 300},
	}, ctrl.Moves())

	focus, _ := ctrl.Members(cgroup.FocusName)
	assert.Equal(t, []int{200}, focus)
	background, _ := ctrl.Members(cgroup.BackgroundName)
	assert.ElementsMatch(t, []int{100, 300}, background)
}

func TestDaemon_DeadProcessDoesNotStopRound(t *testing.T) {
	ctrl := newFakeController()
	ctrl.dead[4242] = true
	table := &fakeTable{table: tickets.Table{{Pid: 4242, Tickets: 1}}}
	d := newTestDaemon(t, table, lottery.New(rand.NewSource(1)), ctrl)

	round := d.RunRound()
	assert.Equal(t, Scheduling, round.State)
	assert.Equal(t, 4242, round.Winner)
	assert.Equal(t, 1, round.Failed)
	err := testutil.GatherAndCompare(d.metrics.Registry(), strings.NewReader(`
# HELP focus_move_failures_total Partition membership writes that failed, by target partition.
# TYPE focus_move_failures_total counter
focus_move_failures_total{partition="focus"} 1
`), "focus_move_failures_total")
	assert.NoError(t, err)

	// the loop carries on into the next timeslice
	ctx, cancel := context.WithCancel(context.Background())
	rounds := 0
	d.sleep = func(ctx context.Context, _ time.Duration) error {
		rounds++
		if rounds == 3 {
			cancel()
		}
		return ctx.Err()
	}
	err = d.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, rounds)
	assert.Equal(t, 4, table.Loads())
}

func TestDaemon_FailedMoveContinuesWithOthers(t *testing.T) {
	ctrl := newFakeController()
	ctrl.dead[2] = true
	table := &fakeTable{table: tickets.Table{{Pid: 1, Tickets: 1}, {Pid: 2, Tickets: 1}, {Pid: 3, Tickets: 1}}}
	d := newTestDaemon(t, table, fixedPicker{1}, ctrl)

	round := d.RunRound()
	assert.Equal(t, 3, round.Moved)
	assert.Equal(t, 1, round.Failed)
	background, _ := ctrl.Members(cgroup.BackgroundName)
	assert.ElementsMatch(t, []int{3}, background)
}

func TestDaemon_LoadErrorSkipsWrites(t *testing.T) {
	ctrl := newFakeController()
	table := &fakeTable{table: tickets.Table{{Pid: 1, Tickets: 1}}}
	d := newTestDaemon(t, table, fixedPicker{1}, ctrl)

	first := d.RunRound()
	require.Equal(t, Scheduling, first.State)
	before := len(ctrl.Moves())

	table.err = errors.New("permission denied")
	round := d.RunRound()
	assert.Error(t, round.Err)
	assert.Equal(t, Scheduling, round.State, "state is kept across a failed load")
	assert.Len(t, ctrl.Moves(), before)
}

func TestDaemon_LotteryShares(t *testing.T) {
	ctrl := newFakeController()
	table := &fakeTable{table: tickets.Table{{Pid: 100, Tickets: 10}, {Pid: 200, Tickets: 30}}}
	d := newTestDaemon(t, table, lottery.New(rand.NewSource(42)), ctrl)

	const rounds = 10000
	wins := map[int]int{}
	for i := 0; i < rounds; i++ {
		wins[d.RunRound().Winner]++
	}
	assert.InDelta(t, 0.75, float64(wins[200])/rounds, 0.025)
	assert.InDelta(t, 0.25, float64(wins[100])/rounds, 0.025)
	assert.Equal(t, rounds, table.Loads())
}

func TestDaemon_RunSleepsOneTimeslicePerRound(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}
	const timeslice = 100 * time.Millisecond
	table := &fakeTable{table: tickets.Table{{Pid: 1, Tickets: 1}}}
	d, err := NewDaemon(Config{Timeslice: timeslice}, table, fixedPicker{1}, newFakeController(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var slept []time.Duration
	var loadsAtSleep []int
	d.sleep = func(ctx context.Context, dur time.Duration) error {
		loadsAtSleep = append(loadsAtSleep, table.Loads())
		start := time.Now()
		err := sleepContext(ctx, dur)
		if err == nil {
			slept = append(slept, time.Since(start))
		}
		if len(slept) == 3 {
			cancel()
		}
		return err
	}

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}

	require.Len(t, slept, 3)
	for _, s := range slept {
		assert.GreaterOrEqual(t, s, timeslice)
		assert.Less(t, s, 2*timeslice)
	}
	// exactly one reload before every sleep
	assert.Equal(t, []int{1, 2, 3}, loadsAtSleep)
}

func TestDaemon_RunStopsOnCanceledContext(t *testing.T) {
	table := &fakeTable{}
	d := newTestDaemon(t, table, fixedPicker{1}, newFakeController())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, d.Run(ctx), context.Canceled)
	assert.Zero(t, table.Loads())
}
