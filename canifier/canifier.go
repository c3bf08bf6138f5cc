package canifier

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/notnil/phoenixcan/phoenix"
)

// Output resolution of the LED and PWM duty cycles.
const maxDutyCycle = 1023

const (
	numLEDChannels = 3
	numPWMChannels = 4
)

// PinValues is the state of every general purpose pin.
type PinValues struct {
	QuadIdx     bool
	QuadB       bool
	QuadA       bool
	LimR        bool
	LimF        bool
	SDA         bool
	SCL         bool
	SPICsPWM3   bool
	SPIMisoPWM2 bool
	SPIMosiPWM1 bool
	SPIClkPWM0  bool
}

func pinValuesFromBits(bits uint16) PinValues {
	on := func(p GeneralPin) bool { return bits&(1<<p) != 0 }
	return PinValues{
		QuadIdx:     on(QuadIdx),
		QuadB:       on(QuadB),
		QuadA:       on(QuadA),
		LimR:        on(LimR),
		LimF:        on(LimF),
		SDA:         on(SDA),
		SCL:         on(SCL),
		SPICsPWM3:   on(SPICS),
		SPIMisoPWM2: on(SPIMisoPWM2P),
		SPIMosiPWM1: on(SPIMosiPWM1P),
		SPIClkPWM0:  on(SPIClkPWM0P),
	}
}

// Faults are the live fault bits of a CANifier.
type Faults uint32

// HasAnyFault reports whether any fault is set.
func (f Faults) HasAnyFault() bool { return f != 0 }

// StickyFaults are the latched fault bits of a CANifier.
type StickyFaults uint32

// HasAnyFault reports whether any sticky fault is set.
func (f StickyFaults) HasAnyFault() bool { return f != 0 }

// CANifier drives the LED, general purpose and PWM pins of a CANifier and
// reads back its inputs from status frames.
//
// Outputs are held in two control frames. Every output call updates the
// cached frame and sends it; SetControlFramePeriod makes the device Native
// repeat it.
type CANifier struct {
	native phoenix.Native

	mu         sync.Mutex
	led        [numLEDChannels]uint16
	outputs    uint16
	outputEn   uint16
	pwm        [numPWMChannels]uint16
	pwmEnabled uint8
}

// New wraps the Native of a CANifier. The handle must be in the CANifier
// family.
func New(n phoenix.Native) (*CANifier, error) {
	if n.Handle().Base() != phoenix.CANifierBase {
		return nil, fmt.Errorf("canifier: %v is not a CANifier: %w", n.Handle(), phoenix.InvalidHandle)
	}
	return &CANifier{native: n}, nil
}

// Handle returns the device handle.
func (c *CANifier) Handle() phoenix.Handle { return c.native.Handle() }

// DeviceID returns the device number.
func (c *CANifier) DeviceID() int { return c.native.Handle().DeviceNumber() }

func dutyCycle(percent float64) uint16 {
	if math.IsNaN(percent) || percent < 0 {
		percent = 0
	}
	if percent > 1 {
		percent = 1
	}
	return uint16(percent * maxDutyCycle)
}

// SetLEDOutput sets the duty cycle of an LED channel. percentOutput is
// clamped to [0,1].
func (c *CANifier) SetLEDOutput(ctx context.Context, percentOutput float64, ch LEDChannel) error {
	if ch < 0 || ch >= numLEDChannels {
		return fmt.Errorf("canifier: %v: %w", ch, phoenix.InvalidParamValue)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.led[ch] = dutyCycle(percentOutput)
	return c.sendGeneral(ctx)
}

// SetGeneralOutput drives one pin. With outputEnable false the pin becomes
// an input and outputValue is ignored.
func (c *CANifier) SetGeneralOutput(ctx context.Context, pin GeneralPin, outputValue, outputEnable bool) error {
	if pin < 0 || pin >= numPins {
		return fmt.Errorf("canifier: %v: %w", pin, phoenix.InvalidParamValue)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	bit := uint16(1) << pin
	c.outputs &^= bit
	c.outputEn &^= bit
	if outputValue {
		c.outputs |= bit
	}
	if outputEnable {
		c.outputEn |= bit
	}
	return c.sendGeneral(ctx)
}

// SetGeneralOutputs drives every pin at once. Bit i of each mask is pin i.
func (c *CANifier) SetGeneralOutputs(ctx context.Context, outputBits, isOutputBits int) error {
	const mask = 1<<numPins - 1
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputs = uint16(outputBits) & mask
	c.outputEn = uint16(isOutputBits) & mask
	return c.sendGeneral(ctx)
}

// sendGeneral sends Control_1_General: the three 10-bit LED duty cycles
// packed in bytes 0..3, the output values in bytes 4..5 and the output
// enables in bytes 6..7, all little endian. c.mu must be held.
func (c *CANifier) sendGeneral(ctx context.Context) error {
	payload := make([]byte, 8)
	leds := uint32(c.led[0]) | uint32(c.led[1])<<10 | uint32(c.led[2])<<20
	binary.LittleEndian.PutUint32(payload[0:4], leds)
	binary.LittleEndian.PutUint16(payload[4:6], c.outputs)
	binary.LittleEndian.PutUint16(payload[6:8], c.outputEn)
	return c.native.SendControl(ctx, uint32(Control1General), payload)
}

func clampPWMChannel(ch int) int {
	if ch < 0 {
		return 0
	}
	if ch >= numPWMChannels {
		return numPWMChannels - 1
	}
	return ch
}

// SetPWMOutput sets the duty cycle of a PWM output. dutyCycle is clamped to
// [0,1] and the channel to [0,3].
func (c *CANifier) SetPWMOutput(ctx context.Context, channel int, duty float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pwm[clampPWMChannel(channel)] = dutyCycle(duty)
	return c.sendPWM(ctx)
}

// EnablePWMOutput turns a PWM output on or off. The channel is clamped to
// [0,3].
func (c *CANifier) EnablePWMOutput(ctx context.Context, channel int, enable bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	bit := uint8(1) << clampPWMChannel(channel)
	if enable {
		c.pwmEnabled |= bit
	} else {
		c.pwmEnabled &^= bit
	}
	return c.sendPWM(ctx)
}

// sendPWM sends Control_2_PwmOutput: four 10-bit duty cycles packed in
// bytes 0..4 and the enable bits in byte 5. c.mu must be held.
func (c *CANifier) sendPWM(ctx context.Context) error {
	var v uint64
	for i, d := range c.pwm {
		v |= uint64(d) << (10 * i)
	}
	v |= uint64(c.pwmEnabled) << 40
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint64(payload, v)
	return c.native.SendControl(ctx, uint32(Control2PwmOutput), payload[:6])
}

// status returns the latest payload of a status frame. A payload older than
// phoenix.StatusStaleAfter is returned with CAN_MSG_STALE.
func (c *CANifier) status(frame StatusFrame, n int) ([]byte, error) {
	payload, at, ok := c.native.LatestStatus(uint32(frame))
	if !ok || len(payload) < n {
		return nil, phoenix.SigNotUpdated
	}
	if time.Since(at) > phoenix.StatusStaleAfter {
		return payload, phoenix.CAN_MSG_STALE
	}
	return payload, nil
}

// GetGeneralInputs reads every pin from Status_2_General.
func (c *CANifier) GetGeneralInputs() (PinValues, error) {
	p, err := c.status(Status2General, 2)
	if p == nil {
		return PinValues{}, err
	}
	return pinValuesFromBits(binary.LittleEndian.Uint16(p[0:2])), err
}

// GetGeneralInput reads one pin.
func (c *CANifier) GetGeneralInput(pin GeneralPin) (bool, error) {
	if pin < 0 || pin >= numPins {
		return false, fmt.Errorf("canifier: %v: %w", pin, phoenix.InvalidParamValue)
	}
	p, err := c.status(Status2General, 2)
	if p == nil {
		return false, err
	}
	return binary.LittleEndian.Uint16(p[0:2])&(1<<pin) != 0, err
}

// GetBusVoltage returns the supply voltage in volts.
func (c *CANifier) GetBusVoltage() (float64, error) {
	p, err := c.status(Status2General, 4)
	if p == nil {
		return 0, err
	}
	return float64(binary.LittleEndian.Uint16(p[2:4])) / 1000, err
}

// GetPWMInput returns the pulse width and period of a PWM input, both in
// microseconds.
func (c *CANifier) GetPWMInput(ch PWMChannel) (pulseWidthUs, periodUs float64, err error) {
	if ch < PWMChannel0 || ch > PWMChannel3 {
		return 0, 0, fmt.Errorf("canifier: %v: %w", ch, phoenix.InvalidParamValue)
	}
	p, err := c.status(pwmInputFrame(ch), 8)
	if p == nil {
		return 0, 0, err
	}
	pulseWidthUs = float64(math.Float32frombits(binary.LittleEndian.Uint32(p[0:4])))
	periodUs = float64(math.Float32frombits(binary.LittleEndian.Uint32(p[4:8])))
	return pulseWidthUs, periodUs, err
}

// ConfigSetCustomParam stores value in custom parameter paramIndex (0 or 1).
// Other indices fail with InvalidParamValue without touching the bus.
func (c *CANifier) ConfigSetCustomParam(ctx context.Context, value, paramIndex int, timeout time.Duration) error {
	return phoenix.ConfigSetCustomParam(ctx, c.native, value, paramIndex, timeout)
}

// ConfigGetCustomParam reads custom parameter paramIndex (0 or 1).
func (c *CANifier) ConfigGetCustomParam(ctx context.Context, paramIndex int, timeout time.Duration) (int, error) {
	return phoenix.ConfigGetCustomParam(ctx, c.native, paramIndex, timeout)
}

// ConfigSetParameter writes any parameter instance.
func (c *CANifier) ConfigSetParameter(ctx context.Context, p phoenix.ParamEnum, value float64, subValue uint8, ordinal int, timeout time.Duration) error {
	return c.native.ConfigSetParameter(ctx, p, value, subValue, ordinal, timeout)
}

// ConfigGetParameter reads any parameter instance.
func (c *CANifier) ConfigGetParameter(ctx context.Context, p phoenix.ParamEnum, ordinal int, timeout time.Duration) (float64, error) {
	return c.native.ConfigGetParameter(ctx, p, ordinal, timeout)
}

// ConfigFactoryDefault reverts every persistent setting to its factory
// default.
func (c *CANifier) ConfigFactoryDefault(ctx context.Context, timeout time.Duration) error {
	return c.native.ConfigSetParameter(ctx, phoenix.DefaultConfig, 1, 0, 0, timeout)
}

// SetStatusFramePeriod changes how often the CANifier sends a status frame.
func (c *CANifier) SetStatusFramePeriod(ctx context.Context, frame StatusFrame, period, timeout time.Duration) error {
	return phoenix.SetStatusFramePeriod(ctx, c.native, uint32(frame), period, timeout)
}

// GetStatusFramePeriod reads the period of a status frame.
func (c *CANifier) GetStatusFramePeriod(ctx context.Context, frame StatusFrame, timeout time.Duration) (time.Duration, error) {
	return phoenix.GetStatusFramePeriod(ctx, c.native, uint32(frame), timeout)
}

// SetControlFramePeriod changes how often a control frame is repeated. A
// zero period sends it only when an output changes.
func (c *CANifier) SetControlFramePeriod(frame ControlFrame, period time.Duration) error {
	return c.native.SetControlFramePeriod(uint32(frame), period)
}

// GetFirmwareVersion returns major<<8 | minor.
func (c *CANifier) GetFirmwareVersion(ctx context.Context) (int, error) {
	return c.native.GetFirmwareVersion(ctx, phoenix.DefaultGetTimeout)
}

// HasResetOccurred reports whether the device rebooted since the last call.
func (c *CANifier) HasResetOccurred() bool { return c.native.HasResetOccurred() }

// GetFaults returns the live fault bits from the latest general status.
func (c *CANifier) GetFaults() (Faults, error) {
	bits, err := phoenix.FaultBits(c.native)
	return Faults(bits), err
}

// GetStickyFaults reads the faults latched since the last clear.
func (c *CANifier) GetStickyFaults(ctx context.Context, timeout time.Duration) (StickyFaults, error) {
	bits, err := phoenix.StickyFaultBits(ctx, c.native, timeout)
	return StickyFaults(bits), err
}

// ClearStickyFaults clears every latched fault.
func (c *CANifier) ClearStickyFaults(ctx context.Context, timeout time.Duration) error {
	return phoenix.ClearStickyFaults(ctx, c.native, timeout)
}
