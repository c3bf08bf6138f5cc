package phoenix

import (
	"context"
	"fmt"
	"time"
)

// Default timeouts used by the convenience overloads of device packages.
const (
	// DefaultConfigTimeout is used by the "all settings" and PID overloads.
	DefaultConfigTimeout = 50 * time.Millisecond
	// DefaultGetTimeout bounds a read issued with a zero timeout. There is no
	// parameter cache to answer such a read from, so it always goes to the
	// device.
	DefaultGetTimeout = 50 * time.Millisecond
)

// DeviceBase is the handle prefix of a device family. It carries the FRC
// device type and manufacturer fields of the arbitration id.
type DeviceBase uint32

const (
	VictorSPXBase DeviceBase = 0x01040000
	TalonSRXBase  DeviceBase = 0x02040000
	CANifierBase  DeviceBase = 0x03040000
)

func (b DeviceBase) String() string {
	switch b {
	case VictorSPXBase:
		return "VictorSPX"
	case TalonSRXBase:
		return "TalonSRX"
	case CANifierBase:
		return "CANifier"
	default:
		return fmt.Sprintf("DeviceBase(0x%08X)", uint32(b))
	}
}

// MaxDeviceNumber is the highest device number a CAN device can be assigned.
const MaxDeviceNumber = 62

// Handle addresses one device: its family base ORed with its device number.
type Handle uint32

// NewHandle builds the handle for deviceNumber in the given family.
func NewHandle(base DeviceBase, deviceNumber int) (Handle, error) {
	if deviceNumber < 0 || deviceNumber > MaxDeviceNumber {
		return 0, fmt.Errorf("phoenix: device number %d out of range [0,%d]: %w", deviceNumber, MaxDeviceNumber, InvalidHandle)
	}
	return Handle(uint32(base) | uint32(deviceNumber)), nil
}

// Base returns the device family of h.
func (h Handle) Base() DeviceBase { return DeviceBase(uint32(h) &^ 0x3F) }

// DeviceNumber returns the device number encoded in h.
func (h Handle) DeviceNumber() int { return int(uint32(h) & 0x3F) }

func (h Handle) String() string {
	return fmt.Sprintf("%s(%d)", h.Base(), h.DeviceNumber())
}

// Native is the opaque boundary to one device. Every configuration call
// made by the device packages ends up in one of these methods.
//
// Timeouts follow one rule: a non-zero timeout waits for the device to
// confirm and fails with RxTimeout when it does not. A zero timeout on a set
// sends without waiting or checking. A zero timeout on a get uses
// DefaultGetTimeout.
type Native interface {
	// Handle returns the device this Native talks to.
	Handle() Handle

	// ConfigSetParameter writes one parameter instance.
	ConfigSetParameter(ctx context.Context, param ParamEnum, value float64, subValue uint8, ordinal int, timeout time.Duration) error

	// ConfigGetParameter reads one parameter instance.
	ConfigGetParameter(ctx context.Context, param ParamEnum, ordinal int, timeout time.Duration) (float64, error)

	// SetControlFramePeriod changes how often the last payload given to
	// SendControl for frame is repeated. A zero period stops repeating.
	SetControlFramePeriod(frame uint32, period time.Duration) error

	// SendControl transmits a control frame payload to the device.
	SendControl(ctx context.Context, frame uint32, payload []byte) error

	// LatestStatus returns the last payload received for a status frame and
	// when it arrived. ok is false if none has been received yet.
	LatestStatus(frame uint32) (payload []byte, at time.Time, ok bool)

	// GetFirmwareVersion asks the device for its firmware version
	// (major in the high byte, minor in the low byte).
	GetFirmwareVersion(ctx context.Context, timeout time.Duration) (int, error)

	// HasResetOccurred reports whether the device rebooted since the
	// previous call.
	HasResetOccurred() bool
}
