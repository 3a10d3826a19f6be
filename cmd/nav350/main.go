// Package main is a command line tool for talking to a SICK NAV350.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

const (
	flagConfig   = "config"
	flagHost     = "host"
	flagPort     = "port"
	flagDebug    = "debug"
	flagSector   = "sector"
	flagStep     = "step"
	flagCount    = "count"
	flagNoFilter = "no-filter"
)

func newApp() *cli.App {
	return &cli.App{
		Name:            "nav350",
		Usage:           "configure and read a SICK NAV350",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load connection and scan settings from a YAML `FILE`",
			},
			&cli.StringFlag{
				Name:  flagHost,
				Usage: "address of the scanner, overrides the config file",
			},
			&cli.IntFlag{
				Name:  flagPort,
				Usage: "port of the scanner, overrides the config file",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "log every telegram exchanged",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "identity",
				Usage:  "print what the scanner reports about itself",
				Action: identityAction,
			},
			{
				Name:      "mode",
				Usage:     "switch the operating mode",
				ArgsUsage: "<powerdown|standby|mapping|landmark|navigation>",
				Action:    modeAction,
			},
			{
				Name:  "scan-areas",
				Usage: "restrict measuring to the given sectors",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     flagSector,
						Usage:    "active sector as `START:STOP` in degrees, may be repeated",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  flagStep,
						Usage: "angle step in degrees",
						Value: 0.25,
					},
				},
				Action: scanAreasAction,
			},
			{
				Name:   "apply",
				Usage:  "push the global and scan area settings of the config file",
				Action: applyAction,
			},
			{
				Name:   "pose",
				Usage:  "print the current pose",
				Action: poseAction,
			},
			{
				Name:  "scan",
				Usage: "print one or more scans",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagCount,
						Usage: "number of scans to merge",
						Value: 1,
					},
					&cli.BoolFlag{
						Name:  flagNoFilter,
						Usage: "keep measurements without a range",
					},
				},
				Action: scanAction,
			},
			{
				Name:      "raw",
				Usage:     "send a telegram and print the reply",
				ArgsUsage: `"sRN DeviceIdent"`,
				Action:    rawAction,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
