package sector

import (
	"math"
	"sort"
)

// SortActiveSectors returns a copy of sectors ordered by start angle. Sectors with equal starts
// keep their input order.
func SortActiveSectors(sectors []ActiveSector) []ActiveSector {
	sorted := make([]ActiveSector, len(sectors))
	copy(sorted, sectors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})
	return sorted
}

// ValidateStep checks that step is a whole number of ticks no finer than
// MaxScanAngularResolution and that it divides a revolution.
func ValidateStep(step float64) error {
	if step < MaxScanAngularResolution {
		return newConfigError(InvalidResolution, "step angle %g is finer than %g", step, MaxScanAngularResolution)
	}
	ticks := step / DegreesPerTick
	if math.Abs(ticks-math.Round(ticks)) > 1e-9 {
		return newConfigError(InvalidResolution, "step angle %g is not a multiple of %g", step, DegreesPerTick)
	}
	if TicksPerRevolution%int(math.Round(ticks)) != 0 {
		return newConfigError(InvalidResolution, "step angle %g does not divide a revolution", step)
	}
	return nil
}

// ValidateActiveSectors checks a set of active sectors measured with the given step: at most
// MaxMeasuringSectors, each within [0, 360] with start before stop, boundaries on the step grid
// and no overlap once sorted.
func ValidateActiveSectors(sectors []ActiveSector, step float64) error {
	if len(sectors) == 0 {
		return newConfigError(InvalidParameter, "no active sectors")
	}
	if len(sectors) > MaxMeasuringSectors {
		return newConfigError(TooManySectors, "%d active sectors, at most %d allowed", len(sectors), MaxMeasuringSectors)
	}
	for i, s := range sectors {
		if s.Start < 0 || s.Stop > MaxScanArea || s.Start >= s.Stop {
			return newConfigError(InvalidAngle, "sector %d [%g, %g] must satisfy 0 <= start < stop <= %g",
				i, s.Start, s.Stop, MaxScanArea)
		}
	}
	if step < MaxScanAngularResolution {
		return newConfigError(InvalidResolution, "step angle %g is finer than %g", step, MaxScanAngularResolution)
	}
	for i, s := range sectors {
		if !isMultiple(s.Start, step) || !isMultiple(s.Stop, step) {
			return newConfigError(InvalidResolution, "sector %d [%g, %g] is not aligned to the %g step",
				i, s.Start, s.Stop, step)
		}
	}
	sorted := SortActiveSectors(sectors)
	for i := 0; i+1 < len(sorted); i++ {
		if sorted[i].Stop > sorted[i+1].Start {
			return newConfigError(Overlap, "[%g, %g] overlaps [%g, %g]",
				sorted[i].Start, sorted[i].Stop, sorted[i+1].Start, sorted[i+1].Stop)
		}
	}
	return nil
}
