package canlink

import (
	"fmt"

	"github.com/notnil/phoenixcan/phoenix"
)

// APIs of the parameter exchange.
const (
	ParamRequestAPI  uint32 = 0x1800
	ParamResponseAPI uint32 = 0x1840
	ParamSetAPI      uint32 = 0x1880
)

// HeartbeatID is the arbitration id of the robot controller heartbeat that
// devices require before they accept control frames.
const HeartbeatID uint32 = 0x01011840

const (
	deviceNumberMask uint32 = 0x3F
	apiMask          uint32 = 0x3FF << 6
	manufacturerMask uint32 = 0xFF << 16
	deviceTypeMask   uint32 = 0x1F << 24
	deviceMask              = deviceTypeMask | manufacturerMask | deviceNumberMask
)

// ArbID identifies one frame of one FRC CAN device.
//
//	bits 28..24 device type
//	bits 23..16 manufacturer
//	bits 15..6  API (class and index)
//	bits 5..0   device number
type ArbID struct {
	DeviceType   uint8
	Manufacturer uint8
	API          uint16
	DeviceNumber uint8
}

// FrameID returns the arbitration id of frame for device h.
func FrameID(h phoenix.Handle, frame uint32) uint32 {
	return (uint32(h) | frame) & 0x1FFFFFFF
}

// ParseArbID splits a 29-bit arbitration id into its fields.
func ParseArbID(id uint32) (ArbID, error) {
	if id > 0x1FFFFFFF {
		return ArbID{}, fmt.Errorf("canlink: invalid 29-bit id 0x%X", id)
	}
	return ArbID{
		DeviceType:   uint8((id & deviceTypeMask) >> 24),
		Manufacturer: uint8((id & manufacturerMask) >> 16),
		API:          uint16((id & apiMask) >> 6),
		DeviceNumber: uint8(id & deviceNumberMask),
	}, nil
}

// ID reassembles the arbitration id.
func (a ArbID) ID() uint32 {
	return uint32(a.DeviceType&0x1F)<<24 |
		uint32(a.Manufacturer)<<16 |
		uint32(a.API&0x3FF)<<6 |
		uint32(a.DeviceNumber&0x3F)
}

// Handle returns the device handle the id belongs to.
func (a ArbID) Handle() phoenix.Handle {
	return phoenix.Handle(a.ID() & deviceMask)
}

func (a ArbID) String() string {
	return fmt.Sprintf("type=%d mfr=%d api=0x%03X dev=%d", a.DeviceType, a.Manufacturer, a.API, a.DeviceNumber)
}

// sameDevice reports whether id addresses device h.
func sameDevice(id uint32, h phoenix.Handle) bool {
	return id&deviceMask == uint32(h)&deviceMask
}

// apiOf returns the API field of an arbitration id.
func apiOf(id uint32) int { return phoenix.FrameAPI(id) }
