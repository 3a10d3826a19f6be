package nav350_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/sicknav/nav350"
	"go.viam.com/sicknav/sector"
)

func TestSetScanAreas(t *testing.T) {
	ctx := context.Background()
	dev, srv := initialized(t, nav350.Config{})

	sectors := []sector.ActiveSector{{Start: 180, Stop: 270}, {Start: 0, Stop: 90}}
	applied, err := dev.SetScanAreas(ctx, sectors, 0.25)
	test.That(t, err, test.ShouldBeNil)

	want, err := sector.GenerateTable(sectors, 0.25)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, applied.Slots(), test.ShouldResemble, want.Slots())
	test.That(t, applied.Measuring(), test.ShouldResemble, []sector.ActiveSector{{Start: 0, Stop: 90}, {Start: 180, Stop: 270}})

	// every slot is written and read back
	test.That(t, srv.Count("sWN SectorFunction"), test.ShouldEqual, sector.MaxNumSectors)
	test.That(t, srv.Count("sRN SectorFunction"), test.ShouldEqual, sector.MaxNumSectors)
	fn, stop := srv.Sector(0)
	test.That(t, fn, test.ShouldEqual, int(sector.FunctionMeasuring))
	test.That(t, stop, test.ShouldEqual, 1440)
	fn, stop = srv.Sector(sector.MaxNumSectors - 1)
	test.That(t, fn, test.ShouldEqual, int(sector.FunctionUnused))
	test.That(t, stop, test.ShouldEqual, 0)

	table, err := dev.GetSectorTable(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, table.Slots(), test.ShouldResemble, want.Slots())
}

func TestSetScanAreasRejectedLocally(t *testing.T) {
	ctx := context.Background()
	dev, srv := initialized(t, nav350.Config{})

	for _, tc := range []struct {
		name    string
		sectors []sector.ActiveSector
		step    float64
		kind    error
	}{
		{"overlap", []sector.ActiveSector{{Start: 0, Stop: 100}, {Start: 90, Stop: 200}}, 0.25, sector.ErrOverlap},
		{"too many", []sector.ActiveSector{{Start: 10, Stop: 20}, {Start: 30, Stop: 40}, {Start: 50, Stop: 60}, {Start: 70, Stop: 80}}, 0.25, sector.ErrTooManySectors},
		{"resolution", []sector.ActiveSector{{Start: 0, Stop: 90}}, 0.0625, sector.ErrInvalidResolution},
		{"pulse frequency", []sector.ActiveSector{{Start: 0, Stop: 90}}, 0.125, sector.ErrInvalidFrequency},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := dev.SetScanAreas(ctx, tc.sectors, tc.step)
			test.That(t, errors.Is(err, tc.kind), test.ShouldBeTrue)
		})
	}
	test.That(t, srv.Count("sWN SectorFunction"), test.ShouldEqual, 0)
}

func TestGlobalConfig(t *testing.T) {
	ctx := context.Background()
	dev, srv := initialized(t, nav350.Config{})

	cfg := sector.GlobalConfig{SensorID: 7, MotorSpeed: 8, AngleStep: 0.5}
	applied, err := dev.SetGlobalConfig(ctx, cfg)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, applied, test.ShouldResemble, cfg)
	test.That(t, srv.Requests(), test.ShouldContain, "sWN GlobalConfig 7 8 8")

	read, err := dev.GetGlobalConfig(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, read, test.ShouldResemble, cfg)

	res, err := dev.AngularResolution(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res, test.ShouldEqual, 0.5)

	before := srv.Count("sWN GlobalConfig")
	_, err = dev.SetGlobalConfig(ctx, sector.GlobalConfig{SensorID: 0, MotorSpeed: 8, AngleStep: 0.25})
	test.That(t, errors.Is(err, sector.ErrInvalidParameter), test.ShouldBeTrue)
	test.That(t, srv.Count("sWN GlobalConfig"), test.ShouldEqual, before)
}

func TestApplyConfig(t *testing.T) {
	ctx := context.Background()
	dev, srv := initialized(t, nav350.Config{
		Global:  &sector.GlobalConfig{SensorID: 2, MotorSpeed: 8, AngleStep: 0.25},
		Sectors: []sector.ActiveSector{{Start: 0, Stop: 180}},
	})

	test.That(t, dev.ApplyConfig(ctx), test.ShouldBeNil)
	requests := srv.Requests()
	test.That(t, requests, test.ShouldContain, "sMN SetAccessMode 03 F4724744")
	test.That(t, requests, test.ShouldContain, "sWN GlobalConfig 2 8 4")
	fn, stop := srv.Sector(0)
	test.That(t, fn, test.ShouldEqual, int(sector.FunctionMeasuring))
	test.That(t, stop, test.ShouldEqual, 2880)
}
