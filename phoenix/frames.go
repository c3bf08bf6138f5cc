package phoenix

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Frame APIs shared by every device family. A frame value is ORed into the
// device handle to form the arbitration id, so family-specific frame
// constants that also carry the manufacturer bits work the same way.
const (
	StatusGeneralAPI  uint32 = 0x1400
	FirmwareStatusAPI uint32 = 0x1780
)

// MaxStatusFramePeriod is the largest period a status frame accepts.
const MaxStatusFramePeriod = 255 * time.Millisecond

// StatusStaleAfter is the age after which a cached status frame is reported
// with CAN_MSG_STALE.
const StatusStaleAfter = time.Second

// FrameAPI returns the 10-bit API field of a frame constant or arbitration id.
func FrameAPI(frame uint32) int { return int((frame >> 6) & 0x3FF) }

// SetStatusFramePeriod changes the transmit period of a status frame. The
// setting is not persistent: use HasResetOccurred to know when to reapply it.
func SetStatusFramePeriod(ctx context.Context, n Native, frame uint32, period, timeout time.Duration) error {
	if period < 0 || period > MaxStatusFramePeriod {
		return fmt.Errorf("phoenix: status frame period %v out of range: %w", period, InvalidParamValue)
	}
	return n.ConfigSetParameter(ctx, StatusFramePeriod, float64(period.Milliseconds()), 0, FrameAPI(frame), timeout)
}

// GetStatusFramePeriod reads the transmit period of a status frame.
func GetStatusFramePeriod(ctx context.Context, n Native, frame uint32, timeout time.Duration) (time.Duration, error) {
	ms, err := n.ConfigGetParameter(ctx, StatusFramePeriod, FrameAPI(frame), timeout)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// MaxCustomParamIndex is the highest custom parameter index.
const MaxCustomParamIndex = 1

func checkCustomParamIndex(index int) error {
	if index < 0 || index > MaxCustomParamIndex {
		return fmt.Errorf("phoenix: custom param %d out of range [0,%d]: %w", index, MaxCustomParamIndex, InvalidParamValue)
	}
	return nil
}

// ConfigSetCustomParam stores an integer the application can read back
// later. The device does nothing else with it. Index is 0 or 1.
func ConfigSetCustomParam(ctx context.Context, n Native, value, index int, timeout time.Duration) error {
	if err := checkCustomParamIndex(index); err != nil {
		return err
	}
	return n.ConfigSetParameter(ctx, CustomParam, float64(value), 0, index, timeout)
}

// ConfigGetCustomParam reads back a value written with ConfigSetCustomParam.
func ConfigGetCustomParam(ctx context.Context, n Native, index int, timeout time.Duration) (int, error) {
	if err := checkCustomParamIndex(index); err != nil {
		return 0, err
	}
	v, err := n.ConfigGetParameter(ctx, CustomParam, index, timeout)
	if err != nil {
		return 0, err
	}
	return int(math.Round(v)), nil
}

// FaultBits decodes the live fault bits from the latest general status
// frame. Bytes 0..3 carry the bits little endian.
//
// When no general status has been received yet it returns SigNotUpdated.
// When the cached frame is older than StatusStaleAfter the bits are returned
// together with the CAN_MSG_STALE warning.
func FaultBits(n Native) (uint32, error) {
	payload, at, ok := n.LatestStatus(StatusGeneralAPI)
	if !ok || len(payload) < 4 {
		return 0, SigNotUpdated
	}
	bits := binary.LittleEndian.Uint32(payload[:4])
	if time.Since(at) > StatusStaleAfter {
		return bits, CAN_MSG_STALE
	}
	return bits, nil
}

// StickyFaultBits reads the latched fault bits from the device.
func StickyFaultBits(ctx context.Context, n Native, timeout time.Duration) (uint32, error) {
	v, err := n.ConfigGetParameter(ctx, StickyFaults, 0, timeout)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// ClearStickyFaults clears every latched fault.
func ClearStickyFaults(ctx context.Context, n Native, timeout time.Duration) error {
	return n.ConfigSetParameter(ctx, StickyFaults, 0, 0, 0, timeout)
}
