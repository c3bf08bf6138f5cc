package canlink

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/notnil/phoenixcan/canbus"
)

// DefaultHeartbeatPeriod matches the robot controller's heartbeat rate.
const DefaultHeartbeatPeriod = 20 * time.Millisecond

// HeartbeatFrame is the robot controller heartbeat. Byte 0 is a rolling
// counter, bit 0 of byte 7 is set while the robot is enabled.
type HeartbeatFrame struct {
	Counter uint8
	Enabled bool
}

// MarshalCANFrame encodes the heartbeat.
func (h HeartbeatFrame) MarshalCANFrame() (canbus.Frame, error) {
	f := canbus.Frame{ID: HeartbeatID, Extended: true, Len: 8}
	f.Data[0] = h.Counter
	if h.Enabled {
		f.Data[7] = 1
	}
	return f, nil
}

// UnmarshalCANFrame decodes the heartbeat.
func (h *HeartbeatFrame) UnmarshalCANFrame(f canbus.Frame) error {
	if f.ID != HeartbeatID || !f.Extended || f.RTR {
		return fmt.Errorf("canlink: not a heartbeat frame (id=0x%08X)", f.ID)
	}
	if f.Len != 8 {
		return fmt.Errorf("canlink: heartbeat len %d, want 8", f.Len)
	}
	h.Counter = f.Data[0]
	h.Enabled = f.Data[7]&1 != 0
	return nil
}

// Heartbeat periodically transmits HeartbeatFrame so devices accept control
// frames while no robot controller is on the bus.
type Heartbeat struct {
	w       *periodicWriter
	enabled atomic.Bool
	counter uint8
}

// StartHeartbeat begins sending heartbeats on bus every period. A zero
// period selects DefaultHeartbeatPeriod. Call Stop when done.
func StartHeartbeat(bus canbus.Bus, period time.Duration, log *slog.Logger) *Heartbeat {
	if period <= 0 {
		period = DefaultHeartbeatPeriod
	}
	if log == nil {
		log = slog.Default()
	}
	h := &Heartbeat{}
	h.w = startPeriodicWriter(bus, period, log, h.frame)
	return h
}

// SetEnabled changes the enabled flag carried by the following heartbeats.
func (h *Heartbeat) SetEnabled(enabled bool) { h.enabled.Store(enabled) }

// Stop ends the heartbeat.
func (h *Heartbeat) Stop() { h.w.Stop() }

// frame is only called from the writer goroutine.
func (h *Heartbeat) frame() (canbus.Frame, bool) {
	f, _ := HeartbeatFrame{Counter: h.counter, Enabled: h.enabled.Load()}.MarshalCANFrame()
	h.counter++
	return f, true
}
