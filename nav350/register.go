package nav350

import (
	"context"

	"go.viam.com/sicknav/lidar"
	"go.viam.com/sicknav/logging"
)

// Type is the lidar type of the NAV350.
const Type = lidar.Type("sick-nav350")

func init() {
	lidar.RegisterType(Type, lidar.TypeRegistration{
		Constructor: func(ctx context.Context, desc lidar.DeviceDescription, logger logging.Logger) (lidar.Device, error) {
			d, err := NewDevice(Config{Host: desc.Host, Port: desc.Port, SerialPath: desc.Path}, logger)
			if err != nil {
				return nil, err
			}
			if err := d.Initialize(ctx); err != nil {
				return nil, err
			}
			return d, nil
		},
	})
}
