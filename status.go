package main

import (
	"fmt"
	"io"
	"os"

	"github.com/HARSHv95/Focus-Mode-Scheduler/cgroup"
	log "github.com/HARSHv95/Focus-Mode-Scheduler/pkg/pidlog"
	"github.com/HARSHv95/Focus-Mode-Scheduler/tickets"
	"github.com/urfave/cli/v2"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: `show the members of the focus and background groups`,
		Action: func(c *cli.Context) error {
			table, err := store().Load()
			if err != nil {
				log.Warnf("ticket table unavailable: %v", err)
			}
			h := hierarchy()
			printGroup(os.Stdout, h, "Focus", h.Focus, table)
			fmt.Println()
			printGroup(os.Stdout, h, "Background", h.Background, table)
			return nil
		},
	}
}

func printGroup(out io.Writer, ctrl cgroup.Controller, title, group string, table tickets.Table) {
	fmt.Fprintf(out, "=== %s group ===\n", title)
	pids, err := ctrl.Members(group)
	if err != nil {
		log.Errorf("read %s members failed %v", group, err)
		return
	}
	for _, pid := range pids {
		if e, ok := table.Lookup(pid); ok {
			fmt.Fprintf(out, "%d\t(%d tickets)\n", pid, e.Tickets)
			continue
		}
		fmt.Fprintf(out, "%d\n", pid)
	}
}
