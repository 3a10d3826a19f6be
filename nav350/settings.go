package nav350

import (
	"context"

	"github.com/pkg/errors"
)

// ReflectorType is the shape of the reflectors used as landmarks.
type ReflectorType int

// The reflector types.
const (
	ReflectorFlat ReflectorType = iota + 1
	ReflectorCylindrical
)

// ScanDataMode selects which scan channels are sent with pose data.
type ScanDataMode int

// The scan data modes.
const (
	ScanDataDistance ScanDataMode = iota
	ScanDataDistanceAndRemission
)

// SetAccessMode logs in at level with password. Most writes require the authorized client level.
func (d *Device) SetAccessMode(ctx context.Context, level int, password string) error {
	_, err := d.Execute(ctx, "SetAccessMode", level, password)
	return errors.Wrapf(err, "setting access level %d", level)
}

// GetCurrentLayer returns the active landmark layer.
func (d *Device) GetCurrentLayer(ctx context.Context) (int, error) {
	res, err := d.Execute(ctx, "GetCurrentLayer")
	if err != nil {
		return 0, err
	}
	var reply struct {
		Layer int `mapstructure:"layer"`
	}
	if err := DecodeResult(res, &reply); err != nil {
		return 0, err
	}
	return reply.Layer, nil
}

// SetCurrentLayer selects the landmark layer used for navigation.
func (d *Device) SetCurrentLayer(ctx context.Context, layer int) error {
	_, err := d.Execute(ctx, "SetCurrentLayer", layer)
	return err
}

// SetScanDataFormat selects the channels sent with scan data and whether remission is included.
func (d *Device) SetScanDataFormat(ctx context.Context, mode ScanDataMode, showRSSI bool) error {
	_, err := d.Execute(ctx, "SetScanDataFormat", int(mode), flag(showRSSI))
	return err
}

// SetPoseDataFormat selects the pose output mode and whether optional pose data is sent.
func (d *Device) SetPoseDataFormat(ctx context.Context, outputMode int, showOptional bool) error {
	_, err := d.Execute(ctx, "SetPoseDataFormat", outputMode, flag(showOptional))
	return err
}

// SetLandmarkDataFormat selects the reflector format, optional reflector data and the landmark filter.
func (d *Device) SetLandmarkDataFormat(ctx context.Context, format int, showOptional bool, filter int) error {
	_, err := d.Execute(ctx, "SetLandmarkDataFormat", format, flag(showOptional), filter)
	return err
}

// SetReflectorSize sets the reflector size in millimeters.
func (d *Device) SetReflectorSize(ctx context.Context, sizeMM int) error {
	if sizeMM <= 0 {
		return errors.Errorf("reflector size must be positive, got %d", sizeMM)
	}
	_, err := d.Execute(ctx, "SetReflectorSize", sizeMM)
	return err
}

// SetReflectorType sets the reflector shape.
func (d *Device) SetReflectorType(ctx context.Context, t ReflectorType) error {
	if t != ReflectorFlat && t != ReflectorCylindrical {
		return errors.Errorf("invalid reflector type %d", t)
	}
	_, err := d.Execute(ctx, "SetReflectorType", int(t))
	return err
}

// SetSlidingMean sets the number of poses averaged by the scanner.
func (d *Device) SetSlidingMean(ctx context.Context, n int) error {
	_, err := d.Execute(ctx, "SetSlidingMean", n)
	return err
}

// StoreData writes the current parameters to the scanner's permanent memory.
func (d *Device) StoreData(ctx context.Context) error {
	_, err := d.Execute(ctx, "StoreData")
	return err
}

// ResetDevice restarts the scanner's measurement core.
func (d *Device) ResetDevice(ctx context.Context) error {
	_, err := d.Execute(ctx, "ResetDevice")
	return err
}

// BreakAsyncCall stops a running asynchronous method.
func (d *Device) BreakAsyncCall(ctx context.Context) error {
	_, err := d.Execute(ctx, "BreakAsyncCall")
	return err
}

// SyncTimestamp returns the scanner's clock, in milliseconds.
func (d *Device) SyncTimestamp(ctx context.Context) (uint64, error) {
	res, err := d.Execute(ctx, "SyncTimestamp")
	if err != nil {
		return 0, err
	}
	ts, _ := res["timestamp"].(uint64)
	return ts, nil
}

// StoreLayout stores the landmark layout in permanent memory.
func (d *Device) StoreLayout(ctx context.Context) error {
	_, err := d.Execute(ctx, "StoreLayout")
	return err
}

// EraseLayout erases the landmark layout of the current layer, or of every layer when all is set.
func (d *Device) EraseLayout(ctx context.Context, all bool) error {
	_, err := d.Execute(ctx, "EraseLayout", flag(all))
	return err
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
