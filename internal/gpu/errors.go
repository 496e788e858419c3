package gpu

import (
	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/aprilwade/teslafanctl/internal/errors"
)

const (
	ErrInitFailed           = errors.ErrorCode("gpu_init_failed")
	ErrShutdownFailed       = errors.ErrorCode("gpu_shutdown_failed")
	ErrDeviceNotFound       = errors.ErrorCode("gpu_device_not_found")
	ErrTelemetryUnavailable = errors.ErrorCode("gpu_telemetry_unavailable")
)

// nvmlError represents an NVML-specific error
type nvmlError struct {
	ret nvml.Return
}

func (e *nvmlError) Error() string {
	return nvml.ErrorString(e.ret)
}

// newNVMLError creates an error from an NVML return code
func newNVMLError(ret nvml.Return) error {
	if ret == nvml.SUCCESS {
		return nil
	}

	return &nvmlError{ret: ret}
}

// IsNVMLSuccess checks if a Return value indicates success
func IsNVMLSuccess(ret nvml.Return) bool {
	return ret == nvml.SUCCESS
}
