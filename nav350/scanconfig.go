package nav350

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/sicknav/sector"
)

// SetScanAreas configures the scanner to measure only within sectors, sampled every step degrees.
// The sector table is generated and checked locally first; nothing is sent when it is invalid.
// Every slot of the table is then written and read back, and the table the scanner reports is
// returned. A failure partway leaves the scanner with a partially written table.
func (d *Device) SetScanAreas(ctx context.Context, sectors []sector.ActiveSector, step float64) (*sector.Table, error) {
	table, err := sector.GenerateTable(sectors, step)
	if err != nil {
		return nil, errors.Wrap(err, "set scan areas")
	}
	if err := sector.ValidatePulseFrequency(d.cfg.motorSpeed(), step, sectors); err != nil {
		return nil, errors.Wrap(err, "set scan areas")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for i, slot := range table.Padded() {
		if _, err := d.execute(ctx, "SetSectorFunction", i, int(slot.Function), slot.StopTicks()); err != nil {
			return nil, errors.Wrapf(err, "writing sector %d", i)
		}
	}
	applied, err := d.readSectorTable(ctx, step)
	if err != nil {
		return nil, err
	}
	d.step = step
	d.logger.Debugw("scan areas set", "table", applied.String())
	return applied, nil
}

// GetSectorTable reads the scanner's sector table.
func (d *Device) GetSectorTable(ctx context.Context) (*sector.Table, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	step, err := d.angleStep(ctx)
	if err != nil {
		return nil, err
	}
	return d.readSectorTable(ctx, step)
}

// readSectorTable reads every slot and skips unused ones. The caller holds mu.
func (d *Device) readSectorTable(ctx context.Context, step float64) (*sector.Table, error) {
	table, err := sector.NewTable()
	if err != nil {
		return nil, err
	}
	start := 0.0
	for i := 0; i < sector.MaxNumSectors; i++ {
		res, err := d.execute(ctx, "GetSectorFunction", i)
		if err != nil {
			return nil, errors.Wrapf(err, "reading sector %d", i)
		}
		var reply struct {
			Function  int `mapstructure:"function"`
			StopTicks int `mapstructure:"stop_ticks"`
		}
		if err := DecodeResult(res, &reply); err != nil {
			return nil, err
		}
		fn := sector.Function(reply.Function)
		if fn == sector.FunctionUnused {
			continue
		}
		stop := sector.TicksToAngle(reply.StopTicks)
		if err := table.Append(sector.Slot{Function: fn, Start: start, Stop: stop}); err != nil {
			return nil, err
		}
		start = stop + step
	}
	return table, nil
}

// SetGlobalConfig writes the sensor id, motor speed and angle step and returns the configuration
// read back from the scanner. An invalid configuration is rejected before anything is sent.
func (d *Device) SetGlobalConfig(ctx context.Context, cfg sector.GlobalConfig) (sector.GlobalConfig, error) {
	if err := sector.ValidateGlobalConfig(cfg); err != nil {
		return sector.GlobalConfig{}, errors.Wrap(err, "set global config")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.execute(ctx, "SetGlobalConfig", cfg.SensorID, cfg.MotorSpeed, cfg.StepTicks()); err != nil {
		return sector.GlobalConfig{}, err
	}
	return d.readGlobalConfig(ctx)
}

// GetGlobalConfig reads the sensor id, motor speed and angle step.
func (d *Device) GetGlobalConfig(ctx context.Context) (sector.GlobalConfig, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readGlobalConfig(ctx)
}

func (d *Device) readGlobalConfig(ctx context.Context) (sector.GlobalConfig, error) {
	res, err := d.execute(ctx, "GetGlobalConfig")
	if err != nil {
		return sector.GlobalConfig{}, err
	}
	var reply struct {
		SensorID   int `mapstructure:"sensor_id"`
		MotorSpeed int `mapstructure:"motor_speed"`
		StepTicks  int `mapstructure:"step_ticks"`
	}
	if err := DecodeResult(res, &reply); err != nil {
		return sector.GlobalConfig{}, err
	}
	cfg := sector.GlobalConfig{
		SensorID:   reply.SensorID,
		MotorSpeed: reply.MotorSpeed,
		AngleStep:  sector.TicksToAngle(reply.StepTicks),
	}
	d.step = cfg.AngleStep
	return cfg, nil
}

// angleStep returns the angle step, reading it from the scanner the first time. The caller
// holds mu.
func (d *Device) angleStep(ctx context.Context) (float64, error) {
	if d.step > 0 {
		return d.step, nil
	}
	cfg, err := d.readGlobalConfig(ctx)
	if err != nil {
		return 0, err
	}
	return cfg.AngleStep, nil
}
