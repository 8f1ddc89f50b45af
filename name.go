package main

import (
	"fmt"

	log "github.com/HARSHv95/Focus-Mode-Scheduler/pkg/pidlog"
	"github.com/HARSHv95/Focus-Mode-Scheduler/proc"
	"github.com/urfave/cli/v2"
)

func moveByNameCommand(name, usage string, group func() string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<substring>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 1 {
				return fmt.Errorf("usage: %s <substring>", name)
			}
			substr := c.Args().Get(0)
			pids, err := proc.FindByName(c.Context, substr)
			if err != nil {
				return err
			}

			h := hierarchy()
			moved := 0
			for _, pid := range pids {
				if err := movePid(h, group(), pid); err != nil {
					log.Errorf("%v", err)
					continue
				}
				moved++
			}
			if moved == 0 {
				fmt.Printf("No processes found with name containing %q.\n", substr)
				return nil
			}
			fmt.Printf("Moved %d processes matching %q to %s group.\n", moved, substr, group())
			return nil
		},
	}
}

func focusNameCommand() *cli.Command {
	return moveByNameCommand("focus-name", `move every process whose name contains a substring into the focus group`,
		func() string { return conf.FocusGroup })
}

func backgroundNameCommand() *cli.Command {
	return moveByNameCommand("background-name", `move every process whose name contains a substring into the background group`,
		func() string { return conf.BackgroundGroup })
}

func addNameCommand() *cli.Command {
	return &cli.Command{
		Name:      "add-name",
		Usage:     `register every process whose name contains a substring for lottery scheduling`,
		ArgsUsage: "<substring> <tickets>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 2 {
				return fmt.Errorf("usage: add-name <substring> <tickets>")
			}
			substr := c.Args().Get(0)
			tickets, err := parseTickets(c.Args().Get(1))
			if err != nil {
				return err
			}
			pids, err := proc.FindByName(c.Context, substr)
			if err != nil {
				return err
			}

			s := store()
			added := 0
			for _, pid := range pids {
				if _, err := s.Add(pid, tickets); err != nil {
					log.Errorf("add pid %d failed %v", pid, err)
					continue
				}
				added++
			}
			if added == 0 {
				fmt.Printf("No processes found with name containing %q.\n", substr)
				return nil
			}
			fmt.Printf("Added/updated %d processes matching %q with %d tickets.\n", added, substr, tickets)
			return nil
		},
	}
}
