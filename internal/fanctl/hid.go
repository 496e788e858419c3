package fanctl

import (
	"runtime"

	"github.com/aprilwade/teslafanctl/internal/errors"
	"github.com/sstallion/go-hid"
)

// USB identity of the fan controller.
const (
	VendorID  uint16 = 0x1209
	ProductID uint16 = 0x0010
)

const (
	frameSize       = 64
	commandSetSpeed = 1
)

// Init loads the hidapi library. Must be called once before Open.
func Init() error {
	if err := hid.Init(); err != nil {
		return errors.New().Wrap(ErrInitFailed, err)
	}

	return nil
}

// Exit releases the hidapi library.
func Exit() error {
	return hid.Exit()
}

// HID opens the fan controller over USB HID.
type HID struct{}

func NewHID() *HID {
	return &HID{}
}

// Open enumerates attached HID devices and opens the first fan controller.
func (*HID) Open() (Connection, error) {
	device, err := hid.OpenFirst(VendorID, ProductID)
	if err != nil {
		return nil, errors.New().Wrap(ErrNotFound, err)
	}

	return &hidConnection{device: device}, nil
}

type hidConnection struct {
	device *hid.Device
}

func (c *hidConnection) Send(dutyCycle byte) error {
	errFactory := errors.New()

	frame := CommandFrame(runtime.GOOS, dutyCycle)
	n, err := c.device.Write(frame)
	if err != nil {
		return errFactory.Wrap(ErrWriteFailed, err)
	}
	if n != len(frame) {
		return errFactory.WithData(ErrWriteFailed, "short write")
	}

	return nil
}

func (c *hidConnection) Close() error {
	return c.device.Close()
}

// CommandFrame builds the fixed-size set-speed report. Windows hidapi
// expects an explicit report ID byte ahead of the command tag.
func CommandFrame(goos string, dutyCycle byte) []byte {
	frame := make([]byte, frameSize)
	if goos == "windows" {
		frame[0] = 1
		frame[1] = commandSetSpeed
		frame[2] = dutyCycle
	} else {
		frame[0] = commandSetSpeed
		frame[1] = dutyCycle
	}

	return frame
}
