package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/HARSHv95/Focus-Mode-Scheduler/cgroup"
	"github.com/HARSHv95/Focus-Mode-Scheduler/config"
	log "github.com/HARSHv95/Focus-Mode-Scheduler/pkg/pidlog"
	"github.com/HARSHv95/Focus-Mode-Scheduler/tickets"
	"github.com/urfave/cli/v2"
)

// conf is loaded once in setup, before any command runs.
var conf = config.Default()

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "YAML config file (default " + config.DefaultPath + " if present)",
			EnvVars: []string{"FOCUS_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: ".env file loaded before the config",
			Value: ".env",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "trace, debug, info, warn, error",
		},
	}
}

func setup(c *cli.Context) error {
	config.LoadEnvironment(c.String("env-file"))

	loaded, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if level := c.String("log-level"); level != "" {
		loaded.LogLevel = level
	}
	if err := log.SetLevel(loaded.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", loaded.LogLevel, err)
	}
	conf = loaded
	return nil
}

func hierarchy() *cgroup.Hierarchy {
	return cgroup.NewHierarchy(conf.CgroupRoot, conf.FocusGroup, conf.BackgroundGroup)
}

func store() *tickets.Store {
	return tickets.NewStore(conf.StateFile)
}

func parsePositive(what, arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", what, arg)
	}
	return n, nil
}

func parseTickets(arg string) (int, error) {
	n, err := parsePositive("tickets", arg)
	if err != nil {
		return 0, err
	}
	if n > tickets.MaxTickets {
		return 0, fmt.Errorf("tickets must be at most %d, got %d", tickets.MaxTickets, n)
	}
	return n, nil
}

func pidArg(c *cli.Context, usage string) (int, error) {
	if c.Args().Len() < 1 {
		return 0, fmt.Errorf("usage: %s %s", c.Command.Name, usage)
	}
	return parsePositive("pid", c.Args().Get(0))
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: `create the focus and background groups and set their weights`,
		Action: func(c *cli.Context) error {
			if err := hierarchy().Init(conf.FocusWeight, conf.BackgroundWeight); err != nil {
				return err
			}
			dir := filepath.Dir(conf.StateFile)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create state dir %s: %w", dir, err)
			}
			fmt.Printf("Initialized %s and %s groups (%s=%d, %s=%d).\n",
				conf.FocusGroup, conf.BackgroundGroup,
				conf.FocusGroup, conf.FocusWeight, conf.BackgroundGroup, conf.BackgroundWeight)
			return nil
		},
	}
}

func moveCommand(name, usage string, group func() string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<pid>",
		Action: func(c *cli.Context) error {
			pid, err := pidArg(c, "<pid>")
			if err != nil {
				return err
			}
			return movePid(hierarchy(), group(), pid)
		},
	}
}

func movePid(h *cgroup.Hierarchy, group string, pid int) error {
	if err := h.MoveInto(group, pid); err != nil {
		return fmt.Errorf("failed to move pid %d to %s: %w", pid, group, err)
	}
	fmt.Printf("Moved pid %d to %s group.\n", pid, group)
	return nil
}

func focusCommand() *cli.Command {
	return moveCommand("focus", `move a process into the focus group`, func() string { return conf.FocusGroup })
}

func backgroundCommand() *cli.Command {
	return moveCommand("background", `move a process into the background group`, func() string { return conf.BackgroundGroup })
}

func unfocusCommand() *cli.Command {
	return &cli.Command{
		Name:      "unfocus",
		Usage:     `move a process back to the root cgroup`,
		ArgsUsage: "<pid>",
		Action: func(c *cli.Context) error {
			pid, err := pidArg(c, "<pid>")
			if err != nil {
				return err
			}
			if err := hierarchy().MoveToRoot(pid); err != nil {
				return fmt.Errorf("failed to move pid %d to root cgroup: %w", pid, err)
			}
			fmt.Printf("Moved pid %d back to root cgroup (unfocused).\n", pid)
			return nil
		},
	}
}

func relaxCommand() *cli.Command {
	return &cli.Command{
		Name:  "relax",
		Usage: `reset both group weights to the kernel default`,
		Action: func(c *cli.Context) error {
			if err := hierarchy().Relax(); err != nil {
				return err
			}
			fmt.Printf("Reset cpu.weight of %s and %s to %d.\n", conf.FocusGroup, conf.BackgroundGroup, cgroup.RelaxedWeight)
			return nil
		},
	}
}
