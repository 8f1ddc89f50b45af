package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HARSHv95/Focus-Mode-Scheduler/cgroup"
	"github.com/HARSHv95/Focus-Mode-Scheduler/metrics"
	log "github.com/HARSHv95/Focus-Mode-Scheduler/pkg/pidlog"
	"github.com/HARSHv95/Focus-Mode-Scheduler/tickets"
	"github.com/sirupsen/logrus"
)

var ErrInvalidTimeslice = errors.New("timeslice must be > 0")

type State int

const (
	Idle State = iota
	Scheduling
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Scheduling:
		return "Scheduling"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// TableLoader is the read side of the ticket table.
type TableLoader interface {
	Load() (tickets.Table, error)
}

type Picker interface {
	PickWinner(entries []tickets.Entry) (int, bool)
}

type Config struct {
	Timeslice  time.Duration
	Focus      string
	Background string
}

// Round describes what one timeslice did.
type Round struct {
	State   State
	Winner  int
	Entries int
	// membership writes issued and how many of them failed
	Moved  int
	Failed int
	Err    error
}

type Daemon struct {
	cfg     Config
	table   TableLoader
	picker  Picker
	ctrl    cgroup.Controller
	metrics *metrics.Recorder

	state State
	// sleep is swapped in tests
	sleep func(ctx context.Context, d time.Duration) error
}

func NewDaemon(cfg Config, table TableLoader, picker Picker, ctrl cgroup.Controller, rec *metrics.Recorder) (*Daemon, error) {
	if cfg.Timeslice <= 0 {
		return nil, fmt.Errorf("%v: %w", cfg.Timeslice, ErrInvalidTimeslice)
	}
	if cfg.Focus == "" {
		cfg.Focus = cgroup.FocusName
	}
	if cfg.Background == "" {
		cfg.Background = cgroup.BackgroundName
	}
	return &Daemon{
		cfg:     cfg,
		table:   table,
		picker:  picker,
		ctrl:    ctrl,
		metrics: rec,
		state:   Idle,
		sleep:   sleepContext,
	}, nil
}

func (d *Daemon) State() State {
	return d.state
}

// Run repeats RunRound and a one-timeslice sleep until ctx is done.
// A round in progress always completes; cancellation is observed while sleeping.
func (d *Daemon) Run(ctx context.Context) error {
	log.Infof("lottery scheduler started (timeslice=%v)", d.cfg.Timeslice)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.RunRound()
		if err := d.sleep(ctx, d.cfg.Timeslice); err != nil {
			log.Infof("lottery scheduler stopping: %v", err)
			return err
		}
	}
}

// RunRound loads the table, draws a winner and rewrites partition membership.
func (d *Daemon) RunRound() Round {
	start := time.Now()
	round := d.runRound()
	d.state = round.State

	label := metrics.StateIdle
	switch {
	case round.Err != nil:
		label = metrics.StateLoadError
	case round.State == Scheduling:
		label = metrics.StateScheduling
	}
	d.metrics.Round(label, time.Since(start))
	return round
}

func (d *Daemon) runRound() Round {
	table, err := d.table.Load()
	if err != nil {
		log.Errorf("load ticket table failed, skip round: %v", err)
		d.metrics.LoadFailed()
		// keep membership as it was
		return Round{State: d.state, Err: err}
	}
	d.metrics.Table(len(table), table.Total())

	if len(table) == 0 {
		return Round{State: Idle}
	}

	round := Round{State: Scheduling, Entries: len(table)}
	winner, ok := d.picker.PickWinner(table)
	if !ok {
		log.Debugf("no winner among %d entries", len(table))
		return round
	}
	round.Winner = winner
	d.metrics.Win()

	for _, e := range table {
		target := d.cfg.Background
		if e.Pid == winner {
			target = d.cfg.Focus
		}
		round.Moved++
		if err := d.ctrl.MoveInto(target, e.Pid); err != nil {
			round.Failed++
			d.metrics.MoveFailed(target)
			log.WithFields(logrus.Fields{
				"target":  target,
				"tickets": e.Tickets,
			}).WithError(err).Warnf("move pid %d failed", e.Pid)
		}
	}
	log.WithFields(logrus.Fields{
		"winner":  winner,
		"entries": round.Entries,
		"failed":  round.Failed,
	}).Debug("round scheduled")
	return round
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
