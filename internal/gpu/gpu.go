// Package gpu reads GPU telemetry over NVML.
package gpu

import (
	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/aprilwade/teslafanctl/internal/errors"
	"github.com/aprilwade/teslafanctl/internal/logger"
)

// TelemetrySource supplies the readings the control loop samples each tick.
// Power values are in milliwatts, as NVML reports them.
type TelemetrySource interface {
	Temperature() (int, error)
	PowerDraw() (uint32, error)
	PowerLimit() (uint32, error)
}

// Device is the NVML-backed telemetry source for a single GPU, resolved
// by UUID at startup.
type Device struct {
	handle nvml.Device
	uuid   string
	name   string
}

// New initializes NVML and resolves the device with the given UUID.
func New(uuid string) (*Device, error) {
	errFactory := errors.New()

	if ret := nvml.Init(); !IsNVMLSuccess(ret) {
		return nil, errFactory.Wrap(ErrInitFailed, newNVMLError(ret))
	}

	handle, ret := nvml.DeviceGetHandleByUUID(uuid)
	if !IsNVMLSuccess(ret) {
		nvml.Shutdown()
		return nil, errFactory.Wrap(ErrDeviceNotFound, newNVMLError(ret)).
			WithData(uuid)
	}

	d := &Device{handle: handle, uuid: uuid}

	if name, ret := handle.GetName(); IsNVMLSuccess(ret) {
		d.name = name
	} else {
		logger.Warn().Msgf("Failed to get GPU name: %v", nvml.ErrorString(ret))
	}

	return d, nil
}

// Shutdown releases the NVML library.
func (d *Device) Shutdown() error {
	if ret := nvml.Shutdown(); !IsNVMLSuccess(ret) {
		return errors.New().Wrap(ErrShutdownFailed, newNVMLError(ret))
	}

	return nil
}

// Name returns the product name of the device, if known.
func (d *Device) Name() string {
	return d.name
}

// UUID returns the identity the device was resolved by.
func (d *Device) UUID() string {
	return d.uuid
}

// Temperature returns the current GPU core temperature in degrees Celsius.
func (d *Device) Temperature() (int, error) {
	temp, ret := d.handle.GetTemperature(nvml.TEMPERATURE_GPU)
	if !IsNVMLSuccess(ret) {
		return 0, errors.New().Wrap(ErrTelemetryUnavailable, newNVMLError(ret))
	}

	return int(temp), nil
}

// PowerDraw returns the current power usage in milliwatts.
func (d *Device) PowerDraw() (uint32, error) {
	draw, ret := d.handle.GetPowerUsage()
	if !IsNVMLSuccess(ret) {
		return 0, errors.New().Wrap(ErrTelemetryUnavailable, newNVMLError(ret))
	}

	return draw, nil
}

// PowerLimit returns the enforced power management limit in milliwatts.
func (d *Device) PowerLimit() (uint32, error) {
	limit, ret := d.handle.GetPowerManagementLimit()
	if !IsNVMLSuccess(ret) {
		return 0, errors.New().Wrap(ErrTelemetryUnavailable, newNVMLError(ret))
	}

	return limit, nil
}
