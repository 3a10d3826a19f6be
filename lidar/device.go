// Package lidar defines the device-agnostic view of a scanning rangefinder and the registry of
// device models that implement it.
package lidar

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/sicknav/logging"
)

// A Device is a rotating rangefinder that produces a set of measurements per revolution.
type Device interface {
	// Scan returns the measurements of one revolution.
	Scan(ctx context.Context, options ScanOptions) (Measurements, error)

	// AngularResolution is the angle between two consecutive measurements, in degrees.
	AngularResolution(ctx context.Context) (float64, error)

	Close(ctx context.Context) error
}

// ScanOptions modify how a scan is taken.
type ScanOptions struct {
	// Count is the number of revolutions to merge; zero means one.
	Count int
	// NoFilter keeps measurements with a zero range.
	NoFilter bool
}

// Type identifies a device model.
type Type string

// TypeUnknown is used when the device model is not known.
const TypeUnknown = Type("unknown")

// DeviceDescription is what a Constructor needs to reach a device.
type DeviceDescription struct {
	Type Type
	Host string
	Port int
	Path string
}

// A Constructor opens a device from its description.
type Constructor func(ctx context.Context, desc DeviceDescription, logger logging.Logger) (Device, error)

// TypeRegistration describes how to build a device model.
type TypeRegistration struct {
	Constructor Constructor
}

var (
	registryMu    sync.RWMutex
	registrations = map[Type]TypeRegistration{}
)

// RegisterType registers a device model. It panics if the type is registered twice.
func RegisterType(deviceType Type, reg TypeRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registrations[deviceType]; ok {
		panic(errors.Errorf("lidar type %q already registered", deviceType))
	}
	registrations[deviceType] = reg
}

// RegisteredTypes returns the registered device models, sorted.
func RegisteredTypes() []Type {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]Type, 0, len(registrations))
	for t := range registrations {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// CreateDevice opens the device described by desc using its registered constructor.
func CreateDevice(ctx context.Context, desc DeviceDescription, logger logging.Logger) (Device, error) {
	registryMu.RLock()
	reg, ok := registrations[desc.Type]
	registryMu.RUnlock()
	if !ok || reg.Constructor == nil {
		return nil, errors.Errorf("do not know how to create a %q lidar device", desc.Type)
	}
	return reg.Constructor(ctx, desc, logger)
}
