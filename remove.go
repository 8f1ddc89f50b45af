package main

import (
	"fmt"

	"github.com/HARSHv95/Focus-Mode-Scheduler/proc"
	"github.com/HARSHv95/Focus-Mode-Scheduler/tickets"
	"github.com/urfave/cli/v2"
)

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     `stop lottery scheduling a process`,
		ArgsUsage: "<pid>",
		Action: func(c *cli.Context) error {
			pid, err := pidArg(c, "<pid>")
			if err != nil {
				return err
			}
			if _, err := store().Remove(pid); err != nil {
				return err
			}
			fmt.Printf("Removed pid %d from lottery list (if it was present).\n", pid)
			return nil
		},
	}
}

func pruneCommand() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: `drop ticket entries of processes that have exited`,
		Action: func(c *cli.Context) error {
			dropped, err := store().RemoveIf(func(e tickets.Entry) bool {
				return !proc.Exists(c.Context, e.Pid)
			})
			if err != nil {
				return err
			}
			for _, e := range dropped {
				fmt.Printf("Removed exited pid %d (%d tickets).\n", e.Pid, e.Tickets)
			}
			fmt.Printf("Pruned %d entries.\n", len(dropped))
			return nil
		},
	}
}
