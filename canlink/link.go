package canlink

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/notnil/phoenixcan/canbus"
	"github.com/notnil/phoenixcan/phoenix"
)

// sendTimeout bounds sends that the caller asked not to wait for.
const sendTimeout = 10 * time.Millisecond

// Status frames occupy APIs 0x50..0x5F (arbitration ids 0x1400..0x17C0).
const (
	firstStatusAPI = 0x50
	lastStatusAPI  = 0x5F
)

// Link implements phoenix.Native for one device over a shared bus.
//
// Frames are sent on bus and received through mux, so any number of Links
// (one per device) can share a single bus. Parameter exchanges on one Link
// are serialized: a response is matched by parameter id and ordinal.
type Link struct {
	bus    canbus.Bus
	mux    *canbus.Mux
	handle phoenix.Handle
	log    *slog.Logger

	reqMu sync.Mutex
	ctlMu sync.Mutex

	mu         sync.Mutex
	status     map[int]statusEntry
	controls   map[uint32]*controlFrame
	resetSeen  bool
	resetCount uint8
	resetFlag  bool

	stopStatus func()
	statusDone chan struct{}
	closeOnce  sync.Once
}

type statusEntry struct {
	payload []byte
	at      time.Time
}

type controlFrame struct {
	payload []byte
	writer  *periodicWriter
}

var _ phoenix.Native = (*Link)(nil)

// NewLink starts listening for status frames of device h. Call Close when
// done; it does not close bus or mux. A nil logger uses slog.Default.
func NewLink(bus canbus.Bus, mux *canbus.Mux, h phoenix.Handle, log *slog.Logger) *Link {
	if log == nil {
		log = slog.Default()
	}
	l := &Link{
		bus:        bus,
		mux:        mux,
		handle:     h,
		log:        log.With("device", h.String()),
		status:     make(map[int]statusEntry),
		controls:   make(map[uint32]*controlFrame),
		statusDone: make(chan struct{}),
	}
	ch, cancel := mux.Subscribe(func(f canbus.Frame) bool {
		if !f.Extended || f.RTR || !sameDevice(f.ID, h) {
			return false
		}
		api := apiOf(f.ID)
		return api >= firstStatusAPI && api <= lastStatusAPI
	}, 32)
	l.stopStatus = cancel
	go l.listen(ch)
	return l
}

// Handle returns the device this Link talks to.
func (l *Link) Handle() phoenix.Handle { return l.handle }

// Close stops the status listener and every periodic control frame.
func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		l.stopStatus()
		<-l.statusDone

		l.ctlMu.Lock()
		l.mu.Lock()
		writers := make([]*periodicWriter, 0, len(l.controls))
		for _, c := range l.controls {
			if c.writer != nil {
				writers = append(writers, c.writer)
				c.writer = nil
			}
		}
		l.mu.Unlock()
		for _, w := range writers {
			w.Stop()
		}
		l.ctlMu.Unlock()
	})
	return nil
}

func (l *Link) listen(ch <-chan canbus.Frame) {
	defer close(l.statusDone)
	for f := range ch {
		api := apiOf(f.ID)
		payload := append([]byte(nil), f.Payload()...)
		l.mu.Lock()
		l.status[api] = statusEntry{payload: payload, at: time.Now()}
		if api == phoenix.FrameAPI(phoenix.StatusGeneralAPI) && f.Len == 8 {
			l.noteResetCounter(f.Data[7])
		}
		l.mu.Unlock()
	}
}

// noteResetCounter tracks byte 7 of the general status frame, which the
// device increments on every boot. The first frame sets the baseline.
func (l *Link) noteResetCounter(c uint8) {
	switch {
	case !l.resetSeen:
		l.resetSeen = true
		l.resetCount = c
	case c != l.resetCount:
		l.resetCount = c
		l.resetFlag = true
		l.log.Info("device reset detected", "boot_count", c)
	}
}

// ConfigSetParameter writes one parameter instance. With a zero timeout the
// request is sent without waiting for confirmation.
func (l *Link) ConfigSetParameter(ctx context.Context, param phoenix.ParamEnum, value float64, subValue uint8, ordinal int, timeout time.Duration) error {
	if ordinal < 0 || ordinal > MaxOrdinal {
		return fmt.Errorf("canlink: %s ordinal %d: %w", param, ordinal, phoenix.InvalidParamValue)
	}
	req := ParamRequest{
		Device:   l.handle,
		Set:      true,
		Param:    param,
		SubValue: subValue,
		Ordinal:  uint8(ordinal),
		Value:    value,
	}
	if timeout <= 0 {
		frame, _ := req.MarshalCANFrame()
		sctx, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()
		if err := l.bus.Send(sctx, frame); err != nil {
			return l.sendErr(ctx, req, err)
		}
		return nil
	}
	resp, err := l.exchange(ctx, req, timeout)
	if err != nil {
		return err
	}
	return l.statusErr(req, resp)
}

// ConfigGetParameter reads one parameter instance. A zero timeout uses
// phoenix.DefaultGetTimeout.
func (l *Link) ConfigGetParameter(ctx context.Context, param phoenix.ParamEnum, ordinal int, timeout time.Duration) (float64, error) {
	if ordinal < 0 || ordinal > MaxOrdinal {
		return 0, fmt.Errorf("canlink: %s ordinal %d: %w", param, ordinal, phoenix.InvalidParamValue)
	}
	if timeout <= 0 {
		timeout = phoenix.DefaultGetTimeout
	}
	req := ParamRequest{Device: l.handle, Param: param, Ordinal: uint8(ordinal)}
	resp, err := l.exchange(ctx, req, timeout)
	if err != nil {
		return 0, err
	}
	return resp.Value, l.statusErr(req, resp)
}

func (l *Link) exchange(ctx context.Context, req ParamRequest, timeout time.Duration) (ParamResponse, error) {
	frame, err := req.MarshalCANFrame()
	if err != nil {
		return ParamResponse{}, err
	}

	l.reqMu.Lock()
	defer l.reqMu.Unlock()

	ch, cancel := l.mux.Subscribe(responseFilter(frame, req.Set), 1)
	defer cancel()

	wctx, wcancel := context.WithTimeout(ctx, timeout)
	defer wcancel()

	// Anything matching before the request is sent answers an earlier,
	// timed out exchange.
	drain(ch)
	if err := l.bus.Send(wctx, frame); err != nil {
		return ParamResponse{}, l.sendErr(ctx, req, err)
	}

	select {
	case f, ok := <-ch:
		if !ok {
			return ParamResponse{}, l.wrap(req, canbus.ErrClosed)
		}
		var resp ParamResponse
		if err := resp.UnmarshalCANFrame(f); err != nil {
			return ParamResponse{}, l.wrap(req, err)
		}
		return resp, nil
	case <-wctx.Done():
		if err := ctx.Err(); err != nil {
			return ParamResponse{}, l.wrap(req, err)
		}
		l.log.Warn("parameter response timed out", "param", req.Param.String(), "ordinal", req.Ordinal, "timeout", timeout)
		return ParamResponse{}, l.wrap(req, phoenix.RxTimeout)
	}
}

// responseFilter matches the response to the request frame req: same
// device, parameter and ordinal, and the same kind of exchange. Set
// confirmations must also echo the requested value.
func responseFilter(req canbus.Frame, set bool) canbus.FrameFilter {
	respID := req.ID&deviceMask | ParamResponseAPI
	return func(f canbus.Frame) bool {
		if f.ID != respID || !f.Extended || f.RTR || f.Len != paramFrameLen {
			return false
		}
		if binary.LittleEndian.Uint16(f.Data[0:2]) != binary.LittleEndian.Uint16(req.Data[0:2]) || f.Data[3] != req.Data[3] {
			return false
		}
		if (f.Data[2]&setConfirmFlag != 0) != set {
			return false
		}
		return !set || binary.LittleEndian.Uint32(f.Data[4:8]) == binary.LittleEndian.Uint32(req.Data[4:8])
	}
}

func drain(ch <-chan canbus.Frame) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// sendErr classifies a failed send: the caller's cancellation is passed
// through, an expired send deadline is TxTimeout and anything else is
// TxFailed.
func (l *Link) sendErr(ctx context.Context, req ParamRequest, err error) error {
	switch {
	case ctx.Err() != nil:
		return l.wrap(req, ctx.Err())
	case errors.Is(err, context.DeadlineExceeded):
		return l.wrap(req, phoenix.TxTimeout)
	case errors.Is(err, canbus.ErrClosed):
		return l.wrap(req, err)
	default:
		return fmt.Errorf("canlink: %s %s[%d]: %w: %v", l.handle, req.Param, req.Ordinal, phoenix.TxFailed, err)
	}
}

func (l *Link) statusErr(req ParamRequest, resp ParamResponse) error {
	if resp.Status == phoenix.OK {
		return nil
	}
	l.log.Debug("parameter status", "param", req.Param.String(), "ordinal", req.Ordinal, "code", resp.Status.String())
	return l.wrap(req, resp.Status)
}

func (l *Link) wrap(req ParamRequest, err error) error {
	op := "get"
	if req.Set {
		op = "set"
	}
	return fmt.Errorf("canlink: %s %s %s[%d]: %w", l.handle, op, req.Param, req.Ordinal, err)
}

// SendControl transmits payload on control frame frame and remembers it for
// periodic repetition.
func (l *Link) SendControl(ctx context.Context, frame uint32, payload []byte) error {
	if len(payload) > 8 {
		return fmt.Errorf("canlink: control payload %d bytes: %w", len(payload), canbus.ErrInvalidLen)
	}
	l.mu.Lock()
	c, ok := l.controls[frame]
	if !ok {
		c = &controlFrame{}
		l.controls[frame] = c
	}
	c.payload = append(c.payload[:0], payload...)
	l.mu.Unlock()

	f := extFrame(FrameID(l.handle, frame), payload)
	sctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return l.bus.Send(sctx, f)
}

// SetControlFramePeriod repeats the last SendControl payload of frame every
// period. Zero stops the repetition.
func (l *Link) SetControlFramePeriod(frame uint32, period time.Duration) error {
	if period < 0 {
		return fmt.Errorf("canlink: control frame period %v: %w", period, phoenix.InvalidParamValue)
	}
	l.ctlMu.Lock()
	defer l.ctlMu.Unlock()

	l.mu.Lock()
	c, ok := l.controls[frame]
	if !ok {
		c = &controlFrame{}
		l.controls[frame] = c
	}
	old := c.writer
	c.writer = nil
	l.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	if period == 0 {
		return nil
	}

	id := FrameID(l.handle, frame)
	w := startPeriodicWriter(l.bus, period, l.log, func() (canbus.Frame, bool) {
		l.mu.Lock()
		defer l.mu.Unlock()
		if c.payload == nil {
			return canbus.Frame{}, false
		}
		return extFrame(id, c.payload), true
	})
	l.mu.Lock()
	c.writer = w
	l.mu.Unlock()
	return nil
}

// LatestStatus returns the last payload received for a status frame.
func (l *Link) LatestStatus(frame uint32) ([]byte, time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.status[phoenix.FrameAPI(frame)]
	if !ok {
		return nil, time.Time{}, false
	}
	return append([]byte(nil), e.payload...), e.at, true
}

// GetFirmwareVersion requests the firmware status frame and returns
// major<<8 | minor. A zero timeout uses phoenix.DefaultGetTimeout.
func (l *Link) GetFirmwareVersion(ctx context.Context, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		timeout = phoenix.DefaultGetTimeout
	}
	id := FrameID(l.handle, phoenix.FirmwareStatusAPI)

	l.reqMu.Lock()
	defer l.reqMu.Unlock()

	ch, cancel := l.mux.Subscribe(func(f canbus.Frame) bool {
		return f.ID == id && f.Extended && !f.RTR && f.Len >= 2
	}, 1)
	defer cancel()

	wctx, wcancel := context.WithTimeout(ctx, timeout)
	defer wcancel()

	rtr := canbus.Frame{ID: id, Extended: true, RTR: true, Len: 2}
	if err := l.bus.Send(wctx, rtr); err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("canlink: %s firmware version: %w: %v", l.handle, phoenix.TxFailed, err)
	}
	select {
	case f, ok := <-ch:
		if !ok {
			return 0, canbus.ErrClosed
		}
		return int(f.Data[0])<<8 | int(f.Data[1]), nil
	case <-wctx.Done():
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("canlink: %s firmware version: %w", l.handle, phoenix.RxTimeout)
	}
}

// HasResetOccurred reports whether the device's boot counter changed since
// the previous call.
func (l *Link) HasResetOccurred() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.resetFlag
	l.resetFlag = false
	return r
}

// extFrame builds an extended data frame. payload must be at most 8 bytes.
func extFrame(id uint32, payload []byte) canbus.Frame {
	f := canbus.Frame{ID: id, Extended: true, Len: uint8(len(payload))}
	copy(f.Data[:], payload)
	return f
}
