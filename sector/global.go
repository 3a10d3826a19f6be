package sector

// GlobalConfig is the device-wide scan configuration.
type GlobalConfig struct {
	SensorID   int     `json:"sensor_id" yaml:"sensor_id" mapstructure:"sensor_id"`
	MotorSpeed int     `json:"motor_speed_hz" yaml:"motor_speed_hz" mapstructure:"motor_speed"`
	AngleStep  float64 `json:"angle_step_deg" yaml:"angle_step_deg" mapstructure:"angle_step"`
}

// StepTicks is the angle step in odometer ticks.
func (c GlobalConfig) StepTicks() int {
	return AngleToTicks(c.AngleStep)
}

// ValidateGlobalConfig checks the sensor id and motor speed ranges and the angle step.
func ValidateGlobalConfig(c GlobalConfig) error {
	if c.SensorID < MinSensorID || c.SensorID > MaxSensorID {
		return newConfigError(InvalidParameter, "sensor id %d must be within [%d, %d]", c.SensorID, MinSensorID, MaxSensorID)
	}
	if c.MotorSpeed < MinMotorSpeed || c.MotorSpeed > MaxMotorSpeed {
		return newConfigError(InvalidParameter, "motor speed %d Hz must be within [%d, %d]",
			c.MotorSpeed, MinMotorSpeed, MaxMotorSpeed)
	}
	return ValidateStep(c.AngleStep)
}
