package sector

// MeanPulseFrequency is the pulse rate averaged over a revolution when only activeArea degrees
// are measured.
func MeanPulseFrequency(activeArea float64, motorSpeed int, resolution float64) float64 {
	return float64(motorSpeed) * activeArea / resolution
}

// MaxPulseFrequency is the pulse rate while measuring, expressed over totalArea degrees.
func MaxPulseFrequency(totalArea float64, motorSpeed int, resolution float64) float64 {
	return float64(motorSpeed) * totalArea / resolution
}

// ScanArea is the measured arc of the sectors, counting the closing pulse of each.
func ScanArea(sectors []ActiveSector, step float64) float64 {
	var area float64
	for _, s := range sectors {
		span := s.Stop - s.Start
		if span < 0 {
			span += MaxScanArea
		}
		area += span + step
	}
	return area
}

// ValidatePulseFrequency checks both pulse frequency ceilings. The instantaneous rate is always
// evaluated over a full revolution.
func ValidatePulseFrequency(motorSpeed int, step float64, sectors []ActiveSector) error {
	if step <= 0 {
		return newConfigError(InvalidResolution, "step angle %g must be positive", step)
	}
	if peak := MaxPulseFrequency(MaxScanArea, motorSpeed, step); peak > PulseFrequencyLimit {
		return newConfigError(InvalidFrequency,
			"max pulse frequency %.0f Hz exceeds %.0f Hz (motor speed %d Hz, step %g deg)",
			peak, PulseFrequencyLimit, motorSpeed, step)
	}
	if mean := MeanPulseFrequency(ScanArea(sectors, step), motorSpeed, step); mean > MeanPulseFrequencyLimit {
		return newConfigError(InvalidFrequency,
			"mean pulse frequency %.0f Hz exceeds %.0f Hz (motor speed %d Hz, step %g deg)",
			mean, MeanPulseFrequencyLimit, motorSpeed, step)
	}
	return nil
}
