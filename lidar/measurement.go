package lidar

import (
	"math"

	"github.com/golang/geo/r2"
)

// Measurements is a set of measurements sortable by angle and then distance.
type Measurements []*Measurement

func (ms Measurements) Len() int {
	return len(ms)
}

func (ms Measurements) Swap(i, j int) {
	ms[i], ms[j] = ms[j], ms[i]
}

func (ms Measurements) Less(i, j int) bool {
	if ms[i].angle < ms[j].angle {
		return true
	}
	if ms[i].angle == ms[j].angle {
		return ms[i].distance < ms[j].distance
	}
	return false
}

// Points returns the cartesian coordinates of every measurement.
func (ms Measurements) Points() []r2.Point {
	points := make([]r2.Point, 0, len(ms))
	for _, m := range ms {
		points = append(points, m.point)
	}
	return points
}

// Measurement is a single range reading.
type Measurement struct {
	angle     float64
	angleDeg  float64
	distance  float64
	remission int
	point     r2.Point
}

// NewMeasurement returns a measurement for an angle in degrees and a distance in meters.
func NewMeasurement(angleDeg, distance float64) *Measurement {
	// Device frame, counter-clockwise from the x axis:
	// 0°   -  (1, 0)
	// 90°  -  (0, 1)
	// 180° -  (-1,0)
	// 270° -  (0,-1)
	angle := angleDeg * math.Pi / 180
	return &Measurement{
		angle:    angle,
		angleDeg: angleDeg,
		distance: distance,
		point:    r2.Point{X: distance * math.Cos(angle), Y: distance * math.Sin(angle)},
	}
}

// WithRemission attaches a remission (reflectivity) value to the measurement.
func (m *Measurement) WithRemission(remission int) *Measurement {
	m.remission = remission
	return m
}

// Angle in radians.
func (m *Measurement) Angle() float64 {
	return m.angle
}

// AngleDeg is the angle in degrees.
func (m *Measurement) AngleDeg() float64 {
	return m.angleDeg
}

// Distance in meters.
func (m *Measurement) Distance() float64 {
	return m.distance
}

func (m *Measurement) Remission() int {
	return m.remission
}

// Point is the measurement in cartesian coordinates of the device frame.
func (m *Measurement) Point() r2.Point {
	return m.point
}
