package nav350

import (
	"context"
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/sicknav/lidar"
)

// Channel names of the scan data.
const (
	channelDistance  = "DIST1"
	channelRemission = "RSSI1"
)

// Pose is the position of the scanner in the landmark layout.
type Pose struct {
	// Position in millimeters.
	Position r2.Point
	// Heading in degrees.
	Heading  float64
	Optional *PoseOptional
}

// PoseOptional is the optional part of a pose.
type PoseOptional struct {
	OutputMode     int   `mapstructure:"output_mode"`
	Timestamp      int64 `mapstructure:"timestamp"`
	MeanDeviation  int64 `mapstructure:"mean_deviation"`
	NavMode        int   `mapstructure:"nav_mode"`
	InfoState      int64 `mapstructure:"info_state"`
	UsedReflectors int   `mapstructure:"used_reflectors"`
}

// Reflector is a landmark seen by the scanner. Either coordinate form may be absent.
type Reflector struct {
	Cartesian *struct {
		X int64 `mapstructure:"x"`
		Y int64 `mapstructure:"y"`
	} `mapstructure:"cartesian"`
	Polar *struct {
		Dist int64 `mapstructure:"dist"`
		Phi  int64 `mapstructure:"phi"`
	} `mapstructure:"polar"`
	Optional *ReflectorOptional `mapstructure:"optional"`
}

// ReflectorOptional is the optional part of a reflector.
type ReflectorOptional struct {
	LocalID    int   `mapstructure:"local_id"`
	GlobalID   int   `mapstructure:"global_id"`
	Type       int   `mapstructure:"type"`
	SubType    int   `mapstructure:"sub_type"`
	Quality    int   `mapstructure:"quality"`
	Timestamp  int64 `mapstructure:"timestamp"`
	Size       int   `mapstructure:"size"`
	HitCount   int   `mapstructure:"hit_count"`
	MeanEcho   int   `mapstructure:"mean_echo"`
	StartIndex int   `mapstructure:"start_index"`
	EndIndex   int   `mapstructure:"end_index"`
}

// PoseAndScan is one pose with the reflectors and the scan it was computed from.
type PoseAndScan struct {
	Pose       *Pose
	Reflectors []Reflector
	Scan       lidar.Measurements
}

type poseReply struct {
	X        int64         `mapstructure:"x"`
	Y        int64         `mapstructure:"y"`
	Phi      int64         `mapstructure:"phi"`
	Optional *PoseOptional `mapstructure:"optional"`
}

func (p *poseReply) pose() *Pose {
	if p == nil {
		return nil
	}
	return &Pose{
		Position: r2.Point{X: float64(p.X), Y: float64(p.Y)},
		Heading:  float64(p.Phi) / 1000,
		Optional: p.Optional,
	}
}

// channel is one channel of scan data. Angles are in millidegrees.
type channel struct {
	Content     string   `mapstructure:"content"`
	ScaleFactor float32  `mapstructure:"scale_factor"`
	ScaleOffset float32  `mapstructure:"scale_offset"`
	StartAngle  int64    `mapstructure:"start_angle"`
	AngleRes    int64    `mapstructure:"angle_res"`
	Timestamp   int64    `mapstructure:"timestamp"`
	Data        []uint64 `mapstructure:"data"`
}

type poseAndScanReply struct {
	Pose      *poseReply `mapstructure:"pose"`
	Landmarks *struct {
		Filter     int         `mapstructure:"filter"`
		Reflectors []Reflector `mapstructure:"reflectors"`
	} `mapstructure:"landmarks"`
	Scan      []channel `mapstructure:"scan"`
	Remission []channel `mapstructure:"remission"`
}

// GetPose asks for the current pose, waiting for the next one the scanner computes.
func (d *Device) GetPose(ctx context.Context) (*Pose, error) {
	res, err := d.Execute(ctx, "GetPose", 1)
	if err != nil {
		return nil, err
	}
	var reply struct {
		Pose *poseReply `mapstructure:"pose"`
	}
	if err := DecodeResult(res, &reply); err != nil {
		return nil, err
	}
	if reply.Pose == nil {
		return nil, errors.New("pose reply carries no pose")
	}
	return reply.Pose.pose(), nil
}

// GetPoseAndScan asks for the next pose together with the reflectors and scan data.
func (d *Device) GetPoseAndScan(ctx context.Context) (*PoseAndScan, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.poseAndScan(ctx)
}

func (d *Device) poseAndScan(ctx context.Context) (*PoseAndScan, error) {
	res, err := d.execute(ctx, "GetPoseAndScan", 1, 2)
	if err != nil {
		return nil, err
	}
	var reply poseAndScanReply
	if err := DecodeResult(res, &reply); err != nil {
		return nil, err
	}
	out := &PoseAndScan{Pose: reply.Pose.pose()}
	if reply.Landmarks != nil {
		out.Reflectors = reply.Landmarks.Reflectors
	}
	out.Scan = measurements(reply.Scan, reply.Remission)
	return out, nil
}

// measurements converts the distance channel, and the remission channel when present, to
// measurements. Distances are in millimeters on the wire.
func measurements(scan, remission []channel) lidar.Measurements {
	dist := findChannel(scan, channelDistance)
	if dist == nil {
		return nil
	}
	rssi := findChannel(remission, channelRemission)
	if rssi != nil && len(rssi.Data) != len(dist.Data) {
		rssi = nil
	}
	ms := make(lidar.Measurements, 0, len(dist.Data))
	for i, raw := range dist.Data {
		angle := math.Mod(float64(dist.StartAngle+int64(i)*dist.AngleRes)/1000, 360)
		if angle < 0 {
			angle += 360
		}
		mm := float64(raw)*float64(dist.ScaleFactor) + float64(dist.ScaleOffset)
		m := lidar.NewMeasurement(angle, mm/1000)
		if rssi != nil {
			m.WithRemission(int(rssi.Data[i]))
		}
		ms = append(ms, m)
	}
	return ms
}

func findChannel(channels []channel, name string) *channel {
	for i := range channels {
		if channels[i].Content == name {
			return &channels[i]
		}
	}
	return nil
}

// Scan takes options.Count scans and merges them, sorted by angle. Measurements without a range
// are dropped unless options.NoFilter is set.
func (d *Device) Scan(ctx context.Context, options lidar.ScanOptions) (lidar.Measurements, error) {
	count := options.Count
	if count <= 0 {
		count = 1
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var all lidar.Measurements
	for i := 0; i < count; i++ {
		res, err := d.poseAndScan(ctx)
		if err != nil {
			return nil, err
		}
		for _, m := range res.Scan {
			if !options.NoFilter && m.Distance() == 0 {
				continue
			}
			all = append(all, m)
		}
	}
	sort.Stable(all)
	return all, nil
}

// AngularResolution returns the angle step of the scanner, in degrees.
func (d *Device) AngularResolution(ctx context.Context) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.angleStep(ctx)
}
