package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/sicknav/lidar"
	"go.viam.com/sicknav/logging"
	"go.viam.com/sicknav/nav350"
	"go.viam.com/sicknav/sector"
)

// withDevice opens the scanner described by the flags and config file, runs fn and closes it.
func withDevice(c *cli.Context, fn func(ctx context.Context, dev *nav350.Device) error) (err error) {
	var cfg nav350.Config
	if path := c.String(flagConfig); path != "" {
		if cfg, err = nav350.LoadConfig(path); err != nil {
			return err
		}
	}
	if c.IsSet(flagHost) {
		cfg.Host = c.String(flagHost)
		cfg.SerialPath = ""
	}
	if c.IsSet(flagPort) {
		cfg.Port = c.Int(flagPort)
	}

	logger := logging.NewLogger("nav350")
	if c.Bool(flagDebug) {
		logger = logging.NewDebugLogger("nav350")
	}
	dev, err := nav350.NewDevice(cfg, logger)
	if err != nil {
		return err
	}
	ctx := c.Context
	if err := dev.Initialize(ctx); err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, dev.Uninitialize(context.Background()))
	}()
	return fn(ctx, dev)
}

func identityAction(c *cli.Context) error {
	return withDevice(c, func(ctx context.Context, dev *nav350.Device) error {
		id := dev.Identity()
		fmt.Fprintf(c.App.Writer, "name:     %s\n", id.Name)
		fmt.Fprintf(c.App.Writer, "version:  %s\n", id.Version)
		fmt.Fprintf(c.App.Writer, "serial:   %s\n", id.SerialNumber)
		fmt.Fprintf(c.App.Writer, "firmware: %s\n", id.FirmwareVersion)
		fmt.Fprintf(c.App.Writer, "info:     %s\n", id.DeviceInfo)
		return nil
	})
}

func modeAction(c *cli.Context) error {
	mode, err := nav350.ParseMode(c.Args().First())
	if err != nil {
		return err
	}
	return withDevice(c, func(ctx context.Context, dev *nav350.Device) error {
		if err := dev.SetOperatingMode(ctx, mode); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "mode: %s\n", mode)
		return nil
	})
}

// parseSector parses "START:STOP".
func parseSector(s string) (sector.ActiveSector, error) {
	start, stop, ok := strings.Cut(s, ":")
	if !ok {
		return sector.ActiveSector{}, errors.Errorf("sector %q is not START:STOP", s)
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(start), 64)
	if err != nil {
		return sector.ActiveSector{}, errors.Wrapf(err, "sector %q start", s)
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(stop), 64)
	if err != nil {
		return sector.ActiveSector{}, errors.Wrapf(err, "sector %q stop", s)
	}
	return sector.ActiveSector{Start: a, Stop: b}, nil
}

func scanAreasAction(c *cli.Context) error {
	var sectors []sector.ActiveSector
	for _, s := range c.StringSlice(flagSector) {
		as, err := parseSector(s)
		if err != nil {
			return err
		}
		sectors = append(sectors, as)
	}
	step := c.Float64(flagStep)
	// fail before connecting
	if _, err := sector.GenerateTable(sectors, step); err != nil {
		return err
	}
	return withDevice(c, func(ctx context.Context, dev *nav350.Device) error {
		if err := dev.SetAccessMode(ctx, nav350.DefaultAccessLevel, nav350.DefaultAccessPassword); err != nil {
			return err
		}
		table, err := dev.SetScanAreas(ctx, sectors, step)
		if err != nil {
			return err
		}
		fmt.Fprint(c.App.Writer, table.String())
		return nil
	})
}

func applyAction(c *cli.Context) error {
	return withDevice(c, func(ctx context.Context, dev *nav350.Device) error {
		if err := dev.ApplyConfig(ctx); err != nil {
			return err
		}
		global, err := dev.GetGlobalConfig(ctx)
		if err != nil {
			return err
		}
		table, err := dev.GetSectorTable(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "sensor id %d, motor %d Hz, step %g deg\n", global.SensorID, global.MotorSpeed, global.AngleStep)
		fmt.Fprint(c.App.Writer, table.String())
		return nil
	})
}

func poseAction(c *cli.Context) error {
	return withDevice(c, func(ctx context.Context, dev *nav350.Device) error {
		pose, err := dev.GetPose(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "x %.0f mm, y %.0f mm, heading %.3f deg\n", pose.Position.X, pose.Position.Y, pose.Heading)
		if pose.Optional != nil {
			fmt.Fprintf(c.App.Writer, "reflectors used %d, mean deviation %d mm\n",
				pose.Optional.UsedReflectors, pose.Optional.MeanDeviation)
		}
		return nil
	})
}

func scanAction(c *cli.Context) error {
	opts := lidar.ScanOptions{Count: c.Int(flagCount), NoFilter: c.Bool(flagNoFilter)}
	return withDevice(c, func(ctx context.Context, dev *nav350.Device) error {
		return printScan(ctx, c.App.Writer, dev, opts)
	})
}

// printScan writes one line per measurement of a scan.
func printScan(ctx context.Context, w io.Writer, dev lidar.Device, opts lidar.ScanOptions) error {
	ms, err := dev.Scan(ctx, opts)
	if err != nil {
		return err
	}
	res, err := dev.AngularResolution(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%d measurements, %g deg resolution\n", len(ms), res)
	for _, m := range ms {
		fmt.Fprintf(w, "%8.3f deg %8.3f m %4d\n", m.AngleDeg(), m.Distance(), m.Remission())
	}
	return nil
}

func rawAction(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")
	if text == "" {
		return errors.New("raw needs a telegram, e.g. \"sRN DeviceIdent\"")
	}
	return withDevice(c, func(ctx context.Context, dev *nav350.Device) error {
		reply, err := dev.SendRaw(ctx, text)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, reply.String())
		return nil
	})
}
