package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/kvarnsveden/dmgcore/dmgcore"
	"github.com/kvarnsveden/dmgcore/internal/host"
)

func main() {
	app := cli.NewApp()
	app.Name = "dmgcore"
	app.Usage = "dmgcore [options] <ROM file>"
	app.Description = "A cycle-accurate DMG (Game Boy) emulator core"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "boot",
			Usage: "Path to a boot ROM image; if omitted, the core starts from the documented power-on state",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without a terminal, for batch/test-ROM execution",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode",
			Value: 0,
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("dmgcore: fatal error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowAppHelp(c)
		return errors.New("dmgcore: no ROM path provided")
	}
	romPath := c.Args().Get(0)
	bootPath := c.String("boot")

	emu, err := dmgcore.NewWithFile(romPath, bootPath)
	if err != nil {
		return err
	}

	if c.Bool("headless") {
		frames := c.Int("frames")
		if frames <= 0 {
			return errors.New("dmgcore: --headless requires --frames with a positive value")
		}
		return host.RunHeadless(emu, frames)
	}

	renderer, err := host.NewTerminalRenderer(emu)
	if err != nil {
		return err
	}
	return renderer.Run()
}
