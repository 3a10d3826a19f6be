// Package sector computes NAV350 scan sector configurations: angle and tick conversion, pulse
// frequency budgets, validation of active sectors and the layout of the device's sector table.
//
// Angles are in degrees, counter-clockwise in the device frame, within [0, 360].
package sector

const (
	// TicksPerRevolution is the number of odometer ticks in one revolution of the scan head.
	TicksPerRevolution = 5760
	// DegreesPerTick is the rotation of the scan head per odometer tick.
	DegreesPerTick = 360.0 / TicksPerRevolution

	// MaxNumSectors is the number of slots in the device's sector table.
	MaxNumSectors = 8
	// MaxMeasuringSectors is the number of active sectors the device accepts.
	MaxMeasuringSectors = 4

	// MaxScanArea is a full revolution.
	MaxScanArea = 360.0
	// MaxScanAngularResolution is the smallest angular step between pulses.
	MaxScanAngularResolution = 0.125

	// MeanPulseFrequencyLimit bounds the pulse rate averaged over a revolution, in Hz.
	MeanPulseFrequencyLimit = 10800.0
	// PulseFrequencyLimit bounds the instantaneous pulse rate, in Hz.
	PulseFrequencyLimit = 14400.0

	MinMotorSpeed = 8
	MaxMotorSpeed = 8

	MinSensorID = 1
	MaxSensorID = 254
)

// ActiveSector is an angular range the user wants measured.
type ActiveSector struct {
	Start float64 `json:"start" yaml:"start"`
	Stop  float64 `json:"stop" yaml:"stop"`
}

// Function is what the device does in a sector.
type Function int

// The sector functions.
const (
	FunctionUnused Function = iota
	// FunctionNotInitialized keeps the laser off in a gap between active sectors.
	FunctionNotInitialized
	FunctionNoMeasurement
	FunctionMeasuring
)

func (f Function) String() string {
	switch f {
	case FunctionUnused:
		return "unused"
	case FunctionNotInitialized:
		return "not initialized"
	case FunctionNoMeasurement:
		return "no measurement"
	case FunctionMeasuring:
		return "measuring"
	}
	return "unknown"
}
