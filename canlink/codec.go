package canlink

import "github.com/notnil/phoenixcan/canbus"

// FrameMarshaler encodes a typed message into a CAN frame.
type FrameMarshaler interface {
	MarshalCANFrame() (canbus.Frame, error)
}

// FrameUnmarshaler decodes a typed message from a CAN frame.
type FrameUnmarshaler interface {
	UnmarshalCANFrame(canbus.Frame) error
}

// FrameCodec combines marshaling and unmarshaling of CAN frames.
type FrameCodec interface {
	FrameMarshaler
	FrameUnmarshaler
}

var (
	_ FrameCodec = (*ParamRequest)(nil)
	_ FrameCodec = (*ParamResponse)(nil)
	_ FrameCodec = (*HeartbeatFrame)(nil)
)
