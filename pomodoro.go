package main

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/HARSHv95/Focus-Mode-Scheduler/pkg/pidlog"
	"github.com/urfave/cli/v2"
)

func pomodoroCommand() *cli.Command {
	return &cli.Command{
		Name:      "pomodoro",
		Usage:     `boost the given processes for a number of minutes, then relax the weights`,
		ArgsUsage: "<minutes> <pid1> [pid2 ...]",
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 2 {
				return fmt.Errorf("usage: pomodoro <minutes> <pid1> [pid2 ...]")
			}
			minutes, err := parsePositive("minutes", c.Args().Get(0))
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return Pomodoro(ctx, time.Duration(minutes)*time.Minute, c.Args().Tail())
		},
	}
}

// Pomodoro moves pids into the focus group and relaxes both weights once d
// has passed or ctx is cancelled, whichever comes first.
func Pomodoro(ctx context.Context, d time.Duration, pidArgs []string) error {
	h := hierarchy()
	if err := h.Init(conf.FocusWeight, conf.BackgroundWeight); err != nil {
		return fmt.Errorf("failed to init cgroups for pomodoro: %w", err)
	}

	for _, arg := range pidArgs {
		pid, err := strconv.Atoi(arg)
		if err != nil || pid <= 0 {
			log.Errorf("invalid pid: %s", arg)
			continue
		}
		if err := movePid(h, conf.FocusGroup, pid); err != nil {
			log.Errorf("%v", err)
		}
	}

	fmt.Printf("Pomodoro started for %v. Focus group boosted.\n", d)
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		fmt.Println("Pomodoro finished. Resetting weights.")
	case <-ctx.Done():
		fmt.Println("Pomodoro interrupted. Resetting weights.")
	}
	return h.Relax()
}
