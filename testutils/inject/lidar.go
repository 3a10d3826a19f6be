package inject

import (
	"context"

	"go.viam.com/sicknav/lidar"
)

// LidarDevice is an injected lidar.Device.
type LidarDevice struct {
	lidar.Device
	ScanFunc              func(ctx context.Context, options lidar.ScanOptions) (lidar.Measurements, error)
	AngularResolutionFunc func(ctx context.Context) (float64, error)
	CloseFunc             func(ctx context.Context) error
}

// Scan calls the injected Scan or the real version.
func (ld *LidarDevice) Scan(ctx context.Context, options lidar.ScanOptions) (lidar.Measurements, error) {
	if ld.ScanFunc == nil {
		return ld.Device.Scan(ctx, options)
	}
	return ld.ScanFunc(ctx, options)
}

// AngularResolution calls the injected AngularResolution or the real version.
func (ld *LidarDevice) AngularResolution(ctx context.Context) (float64, error) {
	if ld.AngularResolutionFunc == nil {
		return ld.Device.AngularResolution(ctx)
	}
	return ld.AngularResolutionFunc(ctx)
}

// Close calls the injected Close or the real version.
func (ld *LidarDevice) Close(ctx context.Context) error {
	if ld.CloseFunc == nil {
		if ld.Device == nil {
			return nil
		}
		return ld.Device.Close(ctx)
	}
	return ld.CloseFunc(ctx)
}
