package main

import (
	"fmt"

	"github.com/HARSHv95/Focus-Mode-Scheduler/proc"
	"github.com/urfave/cli/v2"
	"golang.org/x/sys/unix"
)

func stopAllCommand() *cli.Command {
	return &cli.Command{
		Name:  "stop-all",
		Usage: `send SIGTERM to every process in the focus group`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "send SIGKILL instead",
			},
		},
		Action: func(c *cli.Context) error {
			return StopFocus(c.Bool("force"))
		},
	}
}

func StopFocus(force bool) error {
	pids, err := hierarchy().Members(conf.FocusGroup)
	if err != nil {
		return err
	}

	sig, sigName := unix.SIGTERM, "SIGTERM"
	if force {
		sig, sigName = unix.SIGKILL, "SIGKILL"
	}
	sent := proc.Signal(pids, sig)
	if sent == 0 {
		fmt.Printf("No processes to stop in %s group.\n", conf.FocusGroup)
		return nil
	}
	fmt.Printf("Sent %s to %d process(es) in %s group.\n", sigName, sent, conf.FocusGroup)
	return nil
}
