package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/HARSHv95/Focus-Mode-Scheduler/proc"
	"github.com/HARSHv95/Focus-Mode-Scheduler/tickets"
	"github.com/urfave/cli/v2"
)

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     `register a process for lottery scheduling, or update its tickets`,
		ArgsUsage: "<pid> <tickets>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 2 {
				return fmt.Errorf("usage: add <pid> <tickets>")
			}
			pid, err := parsePositive("pid", c.Args().Get(0))
			if err != nil {
				return err
			}
			n, err := parseTickets(c.Args().Get(1))
			if err != nil {
				return err
			}
			updated, err := store().Add(pid, n)
			if err != nil {
				return err
			}
			if updated {
				fmt.Printf("Updated pid %d tickets to %d.\n", pid, n)
			} else {
				fmt.Printf("Added pid %d with %d tickets.\n", pid, n)
			}
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: `list the processes registered for lottery scheduling`,
		Action: func(c *cli.Context) error {
			table, err := store().Load()
			if err != nil {
				return err
			}
			return ListTickets(os.Stdout, table, func(pid int) bool {
				return proc.Exists(c.Context, pid)
			})
		},
	}
}

// ListTickets prints the table with each entry's share of the total tickets.
func ListTickets(out io.Writer, table tickets.Table, alive func(pid int) bool) error {
	if len(table) == 0 {
		fmt.Fprintln(out, "No processes registered for lottery scheduling.")
		return nil
	}

	total := table.Total()
	w := tabwriter.NewWriter(out, 8, 1, 3, ' ', 0)
	fmt.Fprint(w, "PID\tTICKETS\tSHARE\tSTATUS\n")
	for _, e := range table {
		status := "running"
		if !alive(e.Pid) {
			status = "exited"
		}
		fmt.Fprintf(w, "%d\t%d\t%.1f%%\t%s\n",
			e.Pid,
			e.Tickets,
			100*float64(e.Tickets)/float64(total),
			status)
	}
	return w.Flush()
}
