package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

const usage = `lottery scheduling of processes between a focus and a background cgroup`

func main() {
	app := cli.NewApp()
	app.Name = "focus"
	app.Usage = usage
	app.Flags = globalFlags()
	app.Before = setup
	app.Commands = []*cli.Command{
		daemonCommand(),
		initCommand(),
		focusCommand(),
		backgroundCommand(),
		unfocusCommand(),
		focusNameCommand(),
		backgroundNameCommand(),
		pomodoroCommand(),
		stopAllCommand(),
		relaxCommand(),
		statusCommand(),
		addCommand(),
		addNameCommand(),
		removeCommand(),
		listCommand(),
		pruneCommand(),
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
