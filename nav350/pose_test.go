package nav350_test

import (
	"context"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/sicknav/lidar"
	"go.viam.com/sicknav/nav350"
	"go.viam.com/sicknav/protocol"
	"go.viam.com/sicknav/testutils/fakenav"
)

func TestGetPose(t *testing.T) {
	dev, srv := initialized(t, nav350.Config{})

	pose, err := dev.GetPose(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Position, test.ShouldResemble, r2.Point{X: fakenav.PoseX, Y: fakenav.PoseY})
	test.That(t, pose.Heading, test.ShouldEqual, 180.0)
	test.That(t, pose.Optional, test.ShouldNotBeNil)
	test.That(t, pose.Optional.UsedReflectors, test.ShouldEqual, fakenav.PoseUsedRef)
	test.That(t, pose.Optional.MeanDeviation, test.ShouldEqual, int64(5))
	test.That(t, srv.Requests(), test.ShouldContain, "sMN mNPOSGetPose 1")

	t.Run("no position", func(t *testing.T) {
		srv.Handle("sMN mNPOSGetPose", fakenav.Reply("sAN mNPOSGetPose 1 4 1 0"))
		_, err := dev.GetPose(context.Background())
		de, ok := protocol.IsDeviceError(err)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, de.Context, test.ShouldContainSubstring, "no position available")
	})
}

func TestGetPoseAndScan(t *testing.T) {
	dev, _ := initialized(t, nav350.Config{})

	res, err := dev.GetPoseAndScan(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Pose.Heading, test.ShouldEqual, 180.0)
	test.That(t, res.Pose.Optional, test.ShouldBeNil)

	test.That(t, res.Reflectors, test.ShouldHaveLength, 1)
	test.That(t, res.Reflectors[0].Cartesian, test.ShouldNotBeNil)
	test.That(t, res.Reflectors[0].Cartesian.X, test.ShouldEqual, int64(500))
	test.That(t, res.Reflectors[0].Polar, test.ShouldBeNil)

	test.That(t, res.Scan, test.ShouldHaveLength, len(fakenav.ScanRanges))
	for i, m := range res.Scan {
		test.That(t, m.AngleDeg(), test.ShouldEqual, 0.25*float64(i))
		test.That(t, m.Distance(), test.ShouldEqual, float64(fakenav.ScanRanges[i])/1000)
		test.That(t, m.Remission(), test.ShouldEqual, int(fakenav.ScanRemission[i]))
	}
	test.That(t, res.Scan[0].Point().X, test.ShouldAlmostEqual, 1.0)
}

func TestScan(t *testing.T) {
	ctx := context.Background()
	dev, srv := initialized(t, nav350.Config{})
	var _ lidar.Device = dev

	ms, err := dev.Scan(ctx, lidar.ScanOptions{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ms, test.ShouldHaveLength, 3)
	for _, m := range ms {
		test.That(t, m.Distance(), test.ShouldBeGreaterThan, 0.0)
	}

	ms, err = dev.Scan(ctx, lidar.ScanOptions{NoFilter: true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ms, test.ShouldHaveLength, 4)

	before := srv.Count("sMN mNPOSGetData")
	ms, err = dev.Scan(ctx, lidar.ScanOptions{Count: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ms, test.ShouldHaveLength, 6)
	test.That(t, srv.Count("sMN mNPOSGetData")-before, test.ShouldEqual, 2)
	for i := 1; i < len(ms); i++ {
		test.That(t, ms[i].AngleDeg(), test.ShouldBeGreaterThanOrEqualTo, ms[i-1].AngleDeg())
	}
}
