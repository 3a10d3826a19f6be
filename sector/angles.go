package sector

import "math"

// AngleToTicks converts an angle to the nearest odometer tick.
func AngleToTicks(deg float64) int {
	return int(math.Round(deg / DegreesPerTick))
}

// TicksToAngle converts odometer ticks to an angle.
func TicksToAngle(ticks int) float64 {
	return float64(ticks) * DegreesPerTick
}

// isMultiple reports whether v is an integer multiple of step, within float tolerance.
func isMultiple(v, step float64) bool {
	r := math.Mod(v, step)
	const eps = 1e-9
	return r < eps || step-r < eps
}
