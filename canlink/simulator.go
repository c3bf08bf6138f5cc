package canlink

import (
	"context"
	"encoding/binary"
	"log/slog"
	"sync"
	"time"

	"github.com/notnil/phoenixcan/canbus"
	"github.com/notnil/phoenixcan/phoenix"
)

// replyTimeout bounds each frame the simulator sends.
const replyTimeout = 100 * time.Millisecond

// Simulator stands in for device firmware. It answers parameter requests
// and firmware version requests for its devices from memory, records control
// frames and publishes general status frames.
//
// Run it on its own bus endpoint, e.g. a second LoopbackBus endpoint.
type Simulator struct {
	bus canbus.Bus
	log *slog.Logger

	mu        sync.Mutex
	devices   map[phoenix.Handle]*SimDevice
	heartbeat HeartbeatFrame
	beats     int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSimulator starts serving requests received on bus. Close stops it; the
// bus itself is left open. A nil logger uses slog.Default.
func NewSimulator(bus canbus.Bus, log *slog.Logger) *Simulator {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Simulator{
		bus:     bus,
		log:     log.With("component", "simulator"),
		devices: make(map[phoenix.Handle]*SimDevice),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Close stops the simulator and waits for its goroutines.
func (s *Simulator) Close() error {
	s.cancel()
	s.wg.Wait()
	return nil
}

// AddDevice registers a device with factory default parameters. Adding an
// existing handle returns the existing device.
func (s *Simulator) AddDevice(h phoenix.Handle) *SimDevice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.devices[h]; ok {
		return d
	}
	d := newSimDevice(h)
	s.devices[h] = d
	return d
}

// Device returns a registered device.
func (s *Simulator) Device(h phoenix.Handle) (*SimDevice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[h]
	return d, ok
}

// LastHeartbeat returns the most recent heartbeat seen and how many have
// been received.
func (s *Simulator) LastHeartbeat() (HeartbeatFrame, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heartbeat, s.beats
}

// PublishStatus sends the general status frame of every responsive device,
// followed by any extra status frames set with SimDevice.SetStatus.
func (s *Simulator) PublishStatus(ctx context.Context) error {
	s.mu.Lock()
	devs := make([]*SimDevice, 0, len(s.devices))
	for _, d := range s.devices {
		devs = append(devs, d)
	}
	s.mu.Unlock()
	for _, d := range devs {
		for _, f := range d.statusFrames() {
			if err := s.bus.Send(ctx, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// StartStatus publishes status every period until Close.
func (s *Simulator) StartStatus(period time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-t.C:
				ctx, cancel := context.WithTimeout(s.ctx, period)
				err := s.PublishStatus(ctx)
				cancel()
				if err != nil && s.ctx.Err() == nil {
					s.log.Debug("status publish failed", "err", err)
				}
			}
		}
	}()
}

func (s *Simulator) run() {
	defer s.wg.Done()
	for {
		f, err := s.bus.Receive(s.ctx)
		if err != nil {
			return
		}
		s.handle(f)
	}
}

func (s *Simulator) handle(f canbus.Frame) {
	if !f.Extended {
		return
	}
	if f.ID == HeartbeatID {
		var hb HeartbeatFrame
		if hb.UnmarshalCANFrame(f) == nil {
			s.mu.Lock()
			s.heartbeat = hb
			s.beats++
			s.mu.Unlock()
		}
		return
	}
	d, ok := s.Device(phoenix.Handle(f.ID & deviceMask))
	if !ok || d.Muted() {
		return
	}
	api := uint32(apiOf(f.ID)) << 6
	switch {
	case api == ParamRequestAPI || api == ParamSetAPI:
		var req ParamRequest
		if err := req.UnmarshalCANFrame(f); err != nil {
			s.log.Debug("bad parameter request", "frame", f.String(), "err", err)
			return
		}
		s.reply(d.serve(req))
	case api == phoenix.FirmwareStatusAPI && f.RTR:
		s.reply(d.firmwareFrame())
	case !f.RTR && (api < phoenix.StatusGeneralAPI || api > phoenix.FirmwareStatusAPI):
		d.recordControl(api, f.Payload())
	}
}

func (s *Simulator) reply(m FrameMarshaler) {
	f, err := m.MarshalCANFrame()
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, replyTimeout)
	defer cancel()
	if err := s.bus.Send(ctx, f); err != nil && s.ctx.Err() == nil {
		s.log.Debug("reply failed", "frame", f.String(), "err", err)
	}
}

type simKey struct {
	param   phoenix.ParamEnum
	ordinal uint8
}

// SimDevice is the simulated state of one device. All methods are safe for
// concurrent use.
type SimDevice struct {
	handle phoenix.Handle

	mu        sync.Mutex
	params    map[simKey]float64
	failures  map[simKey]phoenix.ErrorCode
	muted     bool
	firmware  int
	faults    uint32
	sticky    uint32
	bootCount uint8
	status    map[uint32][]byte
	controls  map[uint32][]byte
}

func newSimDevice(h phoenix.Handle) *SimDevice {
	return &SimDevice{
		handle:   h,
		params:   make(map[simKey]float64),
		failures: make(map[simKey]phoenix.ErrorCode),
		firmware: 0x0400,
		status:   make(map[uint32][]byte),
		controls: make(map[uint32][]byte),
	}
}

// Handle returns the simulated device's handle.
func (d *SimDevice) Handle() phoenix.Handle { return d.handle }

// Param returns the stored value of a parameter instance, or its factory
// default.
func (d *SimDevice) Param(p phoenix.ParamEnum, ordinal int) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.get(simKey{p, uint8(ordinal)})
}

// SetParam stores a parameter value as if the device had been configured.
func (d *SimDevice) SetParam(p phoenix.ParamEnum, ordinal int, v float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.params[simKey{p, uint8(ordinal)}] = v
}

// FailParam makes every request for a parameter instance answer with code.
// OK removes the failure.
func (d *SimDevice) FailParam(p phoenix.ParamEnum, ordinal int, code phoenix.ErrorCode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code == phoenix.OK {
		delete(d.failures, simKey{p, uint8(ordinal)})
		return
	}
	d.failures[simKey{p, uint8(ordinal)}] = code
}

// SetMuted makes the device ignore all traffic, as if unplugged.
func (d *SimDevice) SetMuted(muted bool) {
	d.mu.Lock()
	d.muted = muted
	d.mu.Unlock()
}

// Muted reports whether the device ignores traffic.
func (d *SimDevice) Muted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.muted
}

// SetFirmwareVersion sets the version reported as major<<8 | minor.
func (d *SimDevice) SetFirmwareVersion(v int) {
	d.mu.Lock()
	d.firmware = v
	d.mu.Unlock()
}

// SetFaults sets the live fault bits. Every bit set also latches into the
// sticky faults.
func (d *SimDevice) SetFaults(bits uint32) {
	d.mu.Lock()
	d.faults = bits
	d.sticky |= bits
	d.mu.Unlock()
}

// StickyFaults returns the latched fault bits.
func (d *SimDevice) StickyFaults() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sticky
}

// Reboot bumps the boot counter carried in the general status frame.
func (d *SimDevice) Reboot() {
	d.mu.Lock()
	d.bootCount++
	d.mu.Unlock()
}

// SetStatus sets the payload published for an extra status frame.
func (d *SimDevice) SetStatus(frame uint32, payload []byte) {
	d.mu.Lock()
	d.status[frame&apiMask] = append([]byte(nil), payload...)
	d.mu.Unlock()
}

// LastControl returns the last payload received on a control frame.
func (d *SimDevice) LastControl(frame uint32) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.controls[frame&apiMask]
	return append([]byte(nil), p...), ok
}

func (d *SimDevice) recordControl(api uint32, payload []byte) {
	d.mu.Lock()
	d.controls[api] = append([]byte(nil), payload...)
	d.mu.Unlock()
}

func (d *SimDevice) serve(req ParamRequest) ParamResponse {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := simKey{req.Param, req.Ordinal}
	resp := ParamResponse{Device: d.handle, Set: req.Set, Param: req.Param, Ordinal: req.Ordinal}
	if req.Set {
		resp.Value = req.Value
	}
	if code, ok := d.failures[key]; ok {
		resp.Status = code
		return resp
	}
	if !req.Set {
		resp.Value = d.get(key)
		return resp
	}
	switch req.Param {
	case phoenix.DefaultConfig:
		d.params = make(map[simKey]float64)
	case phoenix.StickyFaults:
		d.sticky = uint32(req.Value)
	default:
		d.params[key] = req.Value
	}
	return resp
}

func (d *SimDevice) get(key simKey) float64 {
	switch key.param {
	case phoenix.StickyFaults:
		return float64(d.sticky)
	case phoenix.DefaultConfig:
		return 0
	}
	if v, ok := d.params[key]; ok {
		return v
	}
	return factoryDefault(d.handle.Base(), key.param, key.ordinal)
}

func (d *SimDevice) firmwareFrame() FrameMarshaler {
	d.mu.Lock()
	defer d.mu.Unlock()
	f := canbus.Frame{ID: FrameID(d.handle, phoenix.FirmwareStatusAPI), Extended: true, Len: 8}
	f.Data[0] = byte(d.firmware >> 8)
	f.Data[1] = byte(d.firmware)
	return rawFrame(f)
}

func (d *SimDevice) statusFrames() []canbus.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.muted {
		return nil
	}
	general := canbus.Frame{ID: FrameID(d.handle, phoenix.StatusGeneralAPI), Extended: true, Len: 8}
	binary.LittleEndian.PutUint32(general.Data[0:4], d.faults)
	general.Data[7] = d.bootCount
	out := []canbus.Frame{general}
	for api, p := range d.status {
		out = append(out, extFrame(FrameID(d.handle, api), p))
	}
	return out
}

// rawFrame sends a prebuilt frame through reply.
type rawFrame canbus.Frame

func (r rawFrame) MarshalCANFrame() (canbus.Frame, error) { return canbus.Frame(r), nil }

// Factory defaults that are not zero.
var commonDefaults = map[phoenix.ParamEnum]float64{
	phoenix.PeakPosOutput:                   1,
	phoenix.PeakNegOutput:                   -1,
	phoenix.NeutralDeadband:                 0.04,
	phoenix.BatteryVoltageFilterSize:        32,
	phoenix.SampleVelocityPeriod:            100,
	phoenix.SampleVelocityWindow:            64,
	phoenix.ProfileParamSlot_PeakOutput:     1,
	phoenix.PIDLoopPeriod:                   1,
	phoenix.SelectedSensorCoefficient:       1,
	phoenix.PulseWidthPeriod_EdgesPerRot:    1,
	phoenix.PulseWidthPeriod_FilterWindowSz: 1,
}

// Victor SPX has no local sensor or limit switch inputs.
var victorDefaults = map[phoenix.ParamEnum]float64{
	phoenix.FeedbackSensorType: 11, // RemoteSensor0
	phoenix.SensorTerm:         11,
	phoenix.LimitSwitchSource:  3, // Deactivated
}

func factoryDefault(base phoenix.DeviceBase, p phoenix.ParamEnum, ordinal uint8) float64 {
	if base == phoenix.VictorSPXBase {
		if v, ok := victorDefaults[p]; ok {
			return v
		}
	}
	if p == phoenix.StatusFramePeriod {
		if int(ordinal) == phoenix.FrameAPI(phoenix.StatusGeneralAPI) {
			return 10
		}
		return 100
	}
	return commonDefaults[p]
}
