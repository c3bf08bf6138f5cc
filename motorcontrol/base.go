package motorcontrol

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/notnil/phoenixcan/phoenix"
)

// Index limits of the ordinal-addressed settings.
const (
	maxPIDIndex    = 1
	maxSlot        = 3
	maxFilter      = 1
	maxCustomParam = 1
	limitForward   = 0
	limitReverse   = 1
)

// Control_3_General flag bits.
const (
	ctrlCurrentLimitEnable = 1 << 0
	ctrlVoltageCompEnable  = 1 << 1
	ctrlNeutralModeShift   = 2
	ctrlNeutralModeMask    = 3 << ctrlNeutralModeShift
)

// BaseMotorController holds the operations shared by every motor controller.
// Each Config call becomes one or more parameter writes on the device's
// Native; batch operations return the worst error of their writes.
//
// A BaseMotorController is safe for concurrent use if its Native is.
type BaseMotorController struct {
	native phoenix.Native

	ctrlMu    sync.Mutex
	ctrlFlags byte
}

// NewBaseMotorController wraps the Native of one motor controller.
func NewBaseMotorController(n phoenix.Native) *BaseMotorController {
	return &BaseMotorController{native: n}
}

// Native returns the underlying device boundary.
func (m *BaseMotorController) Native() phoenix.Native { return m.native }

// Handle returns the device handle.
func (m *BaseMotorController) Handle() phoenix.Handle { return m.native.Handle() }

// DeviceID returns the device number.
func (m *BaseMotorController) DeviceID() int { return m.native.Handle().DeviceNumber() }

func checkIndex(what string, i, limit int) error {
	if i < 0 || i > limit {
		return fmt.Errorf("motorcontrol: %s %d out of range [0,%d]: %w", what, i, limit, phoenix.InvalidParamValue)
	}
	return nil
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (m *BaseMotorController) set(ctx context.Context, p phoenix.ParamEnum, v float64, ordinal int, timeout time.Duration) error {
	return m.native.ConfigSetParameter(ctx, p, v, 0, ordinal, timeout)
}

// paramWriter issues a sequence of writes and keeps the worst result.
type paramWriter struct {
	ctx     context.Context
	m       *BaseMotorController
	timeout time.Duration
	errs    phoenix.ErrorCollection
}

func (w *paramWriter) set(p phoenix.ParamEnum, v float64, ordinal int) {
	w.errs.Add(w.m.set(w.ctx, p, v, ordinal, w.timeout))
}

func (w *paramWriter) add(err error) { w.errs.Add(err) }

// paramReader issues a sequence of reads and keeps the worst result. Values
// of failed reads are zero.
type paramReader struct {
	ctx     context.Context
	n       phoenix.Native
	timeout time.Duration
	errs    phoenix.ErrorCollection
}

func (r *paramReader) float(p phoenix.ParamEnum, ordinal int) float64 {
	v, err := r.n.ConfigGetParameter(r.ctx, p, ordinal, r.timeout)
	r.errs.Add(err)
	return v
}

func (r *paramReader) int(p phoenix.ParamEnum, ordinal int) int {
	return round(r.float(p, ordinal))
}

func (r *paramReader) bool(p phoenix.ParamEnum, ordinal int) bool {
	return r.float(p, ordinal) != 0
}

func (m *BaseMotorController) reader(ctx context.Context, timeout time.Duration) *paramReader {
	return &paramReader{ctx: ctx, n: m.native, timeout: timeout}
}

func (m *BaseMotorController) writer(ctx context.Context, timeout time.Duration) *paramWriter {
	return &paramWriter{ctx: ctx, m: m, timeout: timeout}
}

// ConfigSetParameter writes any parameter instance.
func (m *BaseMotorController) ConfigSetParameter(ctx context.Context, p phoenix.ParamEnum, value float64, subValue uint8, ordinal int, timeout time.Duration) error {
	return m.native.ConfigSetParameter(ctx, p, value, subValue, ordinal, timeout)
}

// ConfigGetParameter reads any parameter instance.
func (m *BaseMotorController) ConfigGetParameter(ctx context.Context, p phoenix.ParamEnum, ordinal int, timeout time.Duration) (float64, error) {
	return m.native.ConfigGetParameter(ctx, p, ordinal, timeout)
}

// ConfigFactoryDefault reverts every persistent setting to its factory
// default.
func (m *BaseMotorController) ConfigFactoryDefault(ctx context.Context, timeout time.Duration) error {
	return m.set(ctx, phoenix.DefaultConfig, 1, 0, timeout)
}

// ConfigOpenloopRamp sets the seconds from neutral to full output in open
// loop. Zero disables the ramp.
func (m *BaseMotorController) ConfigOpenloopRamp(ctx context.Context, secondsFromNeutralToFull float64, timeout time.Duration) error {
	return m.set(ctx, phoenix.OpenloopRamp, secondsFromNeutralToFull, 0, timeout)
}

// ConfigClosedloopRamp sets the seconds from neutral to full output in
// closed loop. Zero disables the ramp.
func (m *BaseMotorController) ConfigClosedloopRamp(ctx context.Context, secondsFromNeutralToFull float64, timeout time.Duration) error {
	return m.set(ctx, phoenix.ClosedloopRamp, secondsFromNeutralToFull, 0, timeout)
}

// ConfigPeakOutputForward sets the largest forward output, 0 to 1.
func (m *BaseMotorController) ConfigPeakOutputForward(ctx context.Context, percentOut float64, timeout time.Duration) error {
	return m.set(ctx, phoenix.PeakPosOutput, percentOut, 0, timeout)
}

// ConfigPeakOutputReverse sets the largest reverse output, -1 to 0.
func (m *BaseMotorController) ConfigPeakOutputReverse(ctx context.Context, percentOut float64, timeout time.Duration) error {
	return m.set(ctx, phoenix.PeakNegOutput, percentOut, 0, timeout)
}

// ConfigNominalOutputForward sets the smallest forward output applied outside the deadband.
func (m *BaseMotorController) ConfigNominalOutputForward(ctx context.Context, percentOut float64, timeout time.Duration) error {
	return m.set(ctx, phoenix.NominalPosOutput, percentOut, 0, timeout)
}

// ConfigNominalOutputReverse sets the smallest reverse output applied outside the deadband.
func (m *BaseMotorController) ConfigNominalOutputReverse(ctx context.Context, percentOut float64, timeout time.Duration) error {
	return m.set(ctx, phoenix.NominalNegOutput, percentOut, 0, timeout)
}

// ConfigNeutralDeadband sets the output below which the controller is held
// at neutral. The device accepts 0.001 to 0.25.
func (m *BaseMotorController) ConfigNeutralDeadband(ctx context.Context, percentDeadband float64, timeout time.Duration) error {
	return m.set(ctx, phoenix.NeutralDeadband, percentDeadband, 0, timeout)
}

// ConfigVoltageCompSaturation sets the battery voltage that maps to full
// output when voltage compensation is enabled.
func (m *BaseMotorController) ConfigVoltageCompSaturation(ctx context.Context, voltage float64, timeout time.Duration) error {
	return m.set(ctx, phoenix.NominalBatteryVoltage, voltage, 0, timeout)
}

// ConfigVoltageMeasurementFilter sets the number of samples in the battery
// voltage rolling average.
func (m *BaseMotorController) ConfigVoltageMeasurementFilter(ctx context.Context, filterWindowSamples int, timeout time.Duration) error {
	return m.set(ctx, phoenix.BatteryVoltageFilterSize, float64(filterWindowSamples), 0, timeout)
}

// ConfigVelocityMeasurementPeriod sets the velocity sampling period.
func (m *BaseMotorController) ConfigVelocityMeasurementPeriod(ctx context.Context, period VelocityMeasPeriod, timeout time.Duration) error {
	return m.set(ctx, phoenix.SampleVelocityPeriod, float64(period), 0, timeout)
}

// ConfigVelocityMeasurementWindow sets the number of velocity samples
// averaged. The device rounds down to a power of two.
func (m *BaseMotorController) ConfigVelocityMeasurementWindow(ctx context.Context, windowSize int, timeout time.Duration) error {
	return m.set(ctx, phoenix.SampleVelocityWindow, float64(windowSize), 0, timeout)
}

// ConfigSelectedFeedbackSensorRemote selects the sensor of PID loop pidIdx
// (0 primary, 1 auxiliary).
func (m *BaseMotorController) ConfigSelectedFeedbackSensorRemote(ctx context.Context, device RemoteFeedbackDevice, pidIdx int, timeout time.Duration) error {
	return m.configSelectedFeedbackSensor(ctx, int(device), pidIdx, timeout)
}

func (m *BaseMotorController) configSelectedFeedbackSensor(ctx context.Context, device, pidIdx int, timeout time.Duration) error {
	if err := checkIndex("pid index", pidIdx, maxPIDIndex); err != nil {
		return err
	}
	return m.set(ctx, phoenix.FeedbackSensorType, float64(device), pidIdx, timeout)
}

// ConfigSelectedFeedbackCoefficient scales the sensor of PID loop pidIdx.
// The device accepts 1/65536 to 1.
func (m *BaseMotorController) ConfigSelectedFeedbackCoefficient(ctx context.Context, coefficient float64, pidIdx int, timeout time.Duration) error {
	if err := checkIndex("pid index", pidIdx, maxPIDIndex); err != nil {
		return err
	}
	return m.set(ctx, phoenix.SelectedSensorCoefficient, coefficient, pidIdx, timeout)
}

// ConfigRemoteFeedbackFilter makes remote filter remoteOrdinal (0 or 1)
// follow a sensor of another device on the bus.
func (m *BaseMotorController) ConfigRemoteFeedbackFilter(ctx context.Context, deviceID int, source RemoteSensorSource, remoteOrdinal int, timeout time.Duration) error {
	if err := checkIndex("remote filter", remoteOrdinal, maxFilter); err != nil {
		return err
	}
	w := m.writer(ctx, timeout)
	w.set(phoenix.RemoteSensorSource, float64(source), remoteOrdinal)
	w.set(phoenix.RemoteSensorDeviceID, float64(deviceID), remoteOrdinal)
	return w.errs.Err()
}

// ConfigSensorTermRemote selects the input of a sum or difference term.
func (m *BaseMotorController) ConfigSensorTermRemote(ctx context.Context, term SensorTerm, device RemoteFeedbackDevice, timeout time.Duration) error {
	return m.configSensorTerm(ctx, term, int(device), timeout)
}

func (m *BaseMotorController) configSensorTerm(ctx context.Context, term SensorTerm, device int, timeout time.Duration) error {
	if err := checkIndex("sensor term", int(term), int(Diff1)); err != nil {
		return err
	}
	return m.set(ctx, phoenix.SensorTerm, float64(device), int(term), timeout)
}

// ConfigForwardSoftLimitThreshold sets the forward soft limit in sensor units.
func (m *BaseMotorController) ConfigForwardSoftLimitThreshold(ctx context.Context, sensorUnits int, timeout time.Duration) error {
	return m.set(ctx, phoenix.ForwardSoftLimitThreshold, float64(sensorUnits), 0, timeout)
}

// ConfigReverseSoftLimitThreshold sets the reverse soft limit in sensor units.
func (m *BaseMotorController) ConfigReverseSoftLimitThreshold(ctx context.Context, sensorUnits int, timeout time.Duration) error {
	return m.set(ctx, phoenix.ReverseSoftLimitThreshold, float64(sensorUnits), 0, timeout)
}

// ConfigForwardSoftLimitEnable turns the forward soft limit on or off.
func (m *BaseMotorController) ConfigForwardSoftLimitEnable(ctx context.Context, enable bool, timeout time.Duration) error {
	return m.set(ctx, phoenix.ForwardSoftLimitEnable, b2f(enable), 0, timeout)
}

// ConfigReverseSoftLimitEnable turns the reverse soft limit on or off.
func (m *BaseMotorController) ConfigReverseSoftLimitEnable(ctx context.Context, enable bool, timeout time.Duration) error {
	return m.set(ctx, phoenix.ReverseSoftLimitEnable, b2f(enable), 0, timeout)
}

func (m *BaseMotorController) slotParam(ctx context.Context, p phoenix.ParamEnum, v float64, slot int, timeout time.Duration) error {
	if err := checkIndex("slot", slot, maxSlot); err != nil {
		return err
	}
	return m.set(ctx, p, v, slot, timeout)
}

// Config_kP sets the proportional gain of slot.
func (m *BaseMotorController) Config_kP(ctx context.Context, slot int, value float64, timeout time.Duration) error {
	return m.slotParam(ctx, phoenix.ProfileParamSlot_P, value, slot, timeout)
}

// Config_kI sets the integral gain of slot.
func (m *BaseMotorController) Config_kI(ctx context.Context, slot int, value float64, timeout time.Duration) error {
	return m.slotParam(ctx, phoenix.ProfileParamSlot_I, value, slot, timeout)
}

// Config_kD sets the derivative gain of slot.
func (m *BaseMotorController) Config_kD(ctx context.Context, slot int, value float64, timeout time.Duration) error {
	return m.slotParam(ctx, phoenix.ProfileParamSlot_D, value, slot, timeout)
}

// Config_kF sets the feed forward gain of slot.
func (m *BaseMotorController) Config_kF(ctx context.Context, slot int, value float64, timeout time.Duration) error {
	return m.slotParam(ctx, phoenix.ProfileParamSlot_F, value, slot, timeout)
}

// Config_IntegralZone sets the closed-loop error beyond which the integral
// accumulator is cleared. Zero disables the zone.
func (m *BaseMotorController) Config_IntegralZone(ctx context.Context, slot, izone int, timeout time.Duration) error {
	return m.slotParam(ctx, phoenix.ProfileParamSlot_IZone, float64(izone), slot, timeout)
}

// ConfigAllowableClosedloopError sets the error below which the closed loop
// output is neutral.
func (m *BaseMotorController) ConfigAllowableClosedloopError(ctx context.Context, slot, allowableClosedLoopError int, timeout time.Duration) error {
	return m.slotParam(ctx, phoenix.ProfileParamSlot_AllowableErr, float64(allowableClosedLoopError), slot, timeout)
}

// ConfigMaxIntegralAccumulator caps the integral accumulator of slot.
func (m *BaseMotorController) ConfigMaxIntegralAccumulator(ctx context.Context, slot int, iaccum float64, timeout time.Duration) error {
	return m.slotParam(ctx, phoenix.ProfileParamSlot_MaxIAccum, iaccum, slot, timeout)
}

// ConfigClosedLoopPeakOutput caps the closed loop output of slot.
func (m *BaseMotorController) ConfigClosedLoopPeakOutput(ctx context.Context, slot int, percentOut float64, timeout time.Duration) error {
	return m.slotParam(ctx, phoenix.ProfileParamSlot_PeakOutput, percentOut, slot, timeout)
}

// ConfigClosedLoopPeriod sets the loop time of the slot in milliseconds.
func (m *BaseMotorController) ConfigClosedLoopPeriod(ctx context.Context, slot, loopTimeMs int, timeout time.Duration) error {
	return m.slotParam(ctx, phoenix.PIDLoopPeriod, float64(loopTimeMs), slot, timeout)
}

// ConfigAuxPIDPolarity inverts the auxiliary PID output when set.
func (m *BaseMotorController) ConfigAuxPIDPolarity(ctx context.Context, invert bool, timeout time.Duration) error {
	return m.set(ctx, phoenix.PIDLoopPolarity, b2f(invert), 1, timeout)
}

// ConfigMotionCruiseVelocity sets the Motion Magic cruise velocity.
func (m *BaseMotorController) ConfigMotionCruiseVelocity(ctx context.Context, sensorUnitsPer100ms int, timeout time.Duration) error {
	return m.set(ctx, phoenix.MotMag_VelCruise, float64(sensorUnitsPer100ms), 0, timeout)
}

// ConfigMotionAcceleration sets the Motion Magic acceleration.
func (m *BaseMotorController) ConfigMotionAcceleration(ctx context.Context, sensorUnitsPer100msPerSec int, timeout time.Duration) error {
	return m.set(ctx, phoenix.MotMag_Accel, float64(sensorUnitsPer100msPerSec), 0, timeout)
}

// ConfigMotionProfileTrajectoryPeriod sets the base duration added to every
// buffered trajectory point.
func (m *BaseMotorController) ConfigMotionProfileTrajectoryPeriod(ctx context.Context, baseTrajDurationMs int, timeout time.Duration) error {
	return m.set(ctx, phoenix.MotionProfileTrajectoryPointDurationMs, float64(baseTrajDurationMs), 0, timeout)
}

func (m *BaseMotorController) configLimitSwitch(ctx context.Context, direction, source int, normal LimitSwitchNormal, deviceID int, timeout time.Duration) error {
	w := m.writer(ctx, timeout)
	w.set(phoenix.LimitSwitchSource, float64(source), direction)
	w.set(phoenix.LimitSwitchNormClosedAndDis, float64(normal), direction)
	w.set(phoenix.LimitSwitchRemoteDevID, float64(deviceID), direction)
	return w.errs.Err()
}

// ConfigForwardLimitSwitchSourceRemote makes the forward limit switch follow
// the limit input of another device.
func (m *BaseMotorController) ConfigForwardLimitSwitchSourceRemote(ctx context.Context, source RemoteLimitSwitchSource, normal LimitSwitchNormal, deviceID int, timeout time.Duration) error {
	return m.configLimitSwitch(ctx, limitForward, int(source), normal, deviceID, timeout)
}

// ConfigReverseLimitSwitchSourceRemote makes the reverse limit switch follow
// the limit input of another device.
func (m *BaseMotorController) ConfigReverseLimitSwitchSourceRemote(ctx context.Context, source RemoteLimitSwitchSource, normal LimitSwitchNormal, deviceID int, timeout time.Duration) error {
	return m.configLimitSwitch(ctx, limitReverse, int(source), normal, deviceID, timeout)
}

// ConfigFeedbackNotContinuous stops an absolute sensor from wrapping.
func (m *BaseMotorController) ConfigFeedbackNotContinuous(ctx context.Context, notContinuous bool, timeout time.Duration) error {
	return m.set(ctx, phoenix.FeedbackNotContinuous, b2f(notContinuous), 0, timeout)
}

// ConfigRemoteSensorClosedLoopDisableNeutralOnLOS keeps the closed loop running when a remote sensor is lost.
func (m *BaseMotorController) ConfigRemoteSensorClosedLoopDisableNeutralOnLOS(ctx context.Context, disable bool, timeout time.Duration) error {
	return m.set(ctx, phoenix.RemoteSensorClosedLoopDisableNeutralOnLOS, b2f(disable), 0, timeout)
}

// ConfigClearPositionOnLimitF zeroes the sensor when the forward limit switch closes.
func (m *BaseMotorController) ConfigClearPositionOnLimitF(ctx context.Context, clear bool, timeout time.Duration) error {
	return m.set(ctx, phoenix.ClearPositionOnLimitF, b2f(clear), 0, timeout)
}

// ConfigClearPositionOnLimitR zeroes the sensor when the reverse limit switch closes.
func (m *BaseMotorController) ConfigClearPositionOnLimitR(ctx context.Context, clear bool, timeout time.Duration) error {
	return m.set(ctx, phoenix.ClearPositionOnLimitR, b2f(clear), 0, timeout)
}

// ConfigClearPositionOnQuadIdx zeroes the sensor on the quadrature index pulse.
func (m *BaseMotorController) ConfigClearPositionOnQuadIdx(ctx context.Context, clear bool, timeout time.Duration) error {
	return m.set(ctx, phoenix.ClearPositionOnQuadIdx, b2f(clear), 0, timeout)
}

// ConfigLimitSwitchDisableNeutralOnLOS keeps driving when a remote limit switch is lost.
func (m *BaseMotorController) ConfigLimitSwitchDisableNeutralOnLOS(ctx context.Context, disable bool, timeout time.Duration) error {
	return m.set(ctx, phoenix.LimitSwitchDisableNeutralOnLOS, b2f(disable), 0, timeout)
}

// ConfigSoftLimitDisableNeutralOnLOS keeps driving when the soft limit sensor is lost.
func (m *BaseMotorController) ConfigSoftLimitDisableNeutralOnLOS(ctx context.Context, disable bool, timeout time.Duration) error {
	return m.set(ctx, phoenix.SoftLimitDisableNeutralOnLOS, b2f(disable), 0, timeout)
}

// ConfigPulseWidthPeriodEdgesPerRot sets the edges per rotation of a pulse width sensor.
func (m *BaseMotorController) ConfigPulseWidthPeriodEdgesPerRot(ctx context.Context, edgesPerRot int, timeout time.Duration) error {
	return m.set(ctx, phoenix.PulseWidthPeriod_EdgesPerRot, float64(edgesPerRot), 0, timeout)
}

// ConfigPulseWidthPeriodFilterWindowSz sets the averaging window of a pulse width sensor.
func (m *BaseMotorController) ConfigPulseWidthPeriodFilterWindowSz(ctx context.Context, filterWindowSize int, timeout time.Duration) error {
	return m.set(ctx, phoenix.PulseWidthPeriod_FilterWindowSz, float64(filterWindowSize), 0, timeout)
}

// ConfigSetCustomParam stores value in custom parameter paramIndex (0 or 1).
func (m *BaseMotorController) ConfigSetCustomParam(ctx context.Context, value, paramIndex int, timeout time.Duration) error {
	if err := checkIndex("custom param", paramIndex, maxCustomParam); err != nil {
		return err
	}
	return phoenix.ConfigSetCustomParam(ctx, m.native, value, paramIndex, timeout)
}

// ConfigGetCustomParam reads custom parameter paramIndex (0 or 1).
func (m *BaseMotorController) ConfigGetCustomParam(ctx context.Context, paramIndex int, timeout time.Duration) (int, error) {
	if err := checkIndex("custom param", paramIndex, maxCustomParam); err != nil {
		return 0, err
	}
	return phoenix.ConfigGetCustomParam(ctx, m.native, paramIndex, timeout)
}

// SetStatusFramePeriod changes how often the device sends a status frame.
func (m *BaseMotorController) SetStatusFramePeriod(ctx context.Context, frame StatusFrame, period, timeout time.Duration) error {
	return phoenix.SetStatusFramePeriod(ctx, m.native, uint32(frame), period, timeout)
}

// GetStatusFramePeriod reads how often the device sends a status frame.
func (m *BaseMotorController) GetStatusFramePeriod(ctx context.Context, frame StatusFrame, timeout time.Duration) (time.Duration, error) {
	return phoenix.GetStatusFramePeriod(ctx, m.native, uint32(frame), timeout)
}

// SetControlFramePeriod changes how often a control frame is repeated.
func (m *BaseMotorController) SetControlFramePeriod(frame ControlFrame, period time.Duration) error {
	return m.native.SetControlFramePeriod(uint32(frame), period)
}

// GetFirmwareVersion returns major<<8 | minor.
func (m *BaseMotorController) GetFirmwareVersion(ctx context.Context) (int, error) {
	return m.native.GetFirmwareVersion(ctx, phoenix.DefaultGetTimeout)
}

// HasResetOccurred reports whether the device rebooted since the last call.
// Status and control frame periods revert on reboot.
func (m *BaseMotorController) HasResetOccurred() bool { return m.native.HasResetOccurred() }

// GetFaults decodes the live faults from the latest general status frame.
func (m *BaseMotorController) GetFaults() (Faults, error) {
	bits, err := phoenix.FaultBits(m.native)
	return FaultsFromBits(bits), err
}

// GetStickyFaults reads the faults latched since the last clear.
func (m *BaseMotorController) GetStickyFaults(ctx context.Context, timeout time.Duration) (StickyFaults, error) {
	bits, err := phoenix.StickyFaultBits(ctx, m.native, timeout)
	return StickyFaultsFromBits(bits), err
}

// ClearStickyFaults clears every latched fault.
func (m *BaseMotorController) ClearStickyFaults(ctx context.Context, timeout time.Duration) error {
	return phoenix.ClearStickyFaults(ctx, m.native, timeout)
}

// EnableVoltageCompensation turns voltage compensation on or off. The
// saturation voltage is set with ConfigVoltageCompSaturation.
func (m *BaseMotorController) EnableVoltageCompensation(ctx context.Context, enable bool) error {
	return m.updateControlFlags(ctx, func(f byte) byte {
		if enable {
			return f | ctrlVoltageCompEnable
		}
		return f &^ ctrlVoltageCompEnable
	})
}

// SetNeutralMode selects coast or brake at neutral output.
func (m *BaseMotorController) SetNeutralMode(ctx context.Context, mode NeutralMode) error {
	if mode < EEPROMSetting || mode > Brake {
		return fmt.Errorf("motorcontrol: neutral mode %d: %w", int(mode), phoenix.InvalidParamValue)
	}
	return m.updateControlFlags(ctx, func(f byte) byte {
		return f&^ctrlNeutralModeMask | byte(mode)<<ctrlNeutralModeShift
	})
}

func (m *BaseMotorController) updateControlFlags(ctx context.Context, update func(byte) byte) error {
	m.ctrlMu.Lock()
	defer m.ctrlMu.Unlock()
	flags := update(m.ctrlFlags)
	payload := make([]byte, 8)
	payload[0] = flags
	if err := m.native.SendControl(ctx, uint32(Control3General), payload); err != nil {
		return err
	}
	m.ctrlFlags = flags
	return nil
}

// ConfigureSlot writes every gain of one closed-loop slot.
func (m *BaseMotorController) ConfigureSlot(ctx context.Context, slot SlotConfiguration, slotIdx int, timeout time.Duration) error {
	if err := checkIndex("slot", slotIdx, maxSlot); err != nil {
		return err
	}
	w := m.writer(ctx, timeout)
	m.writeSlot(w, slot, slotIdx)
	return w.errs.Err()
}

func (m *BaseMotorController) writeSlot(w *paramWriter, slot SlotConfiguration, i int) {
	w.set(phoenix.ProfileParamSlot_P, slot.KP, i)
	w.set(phoenix.ProfileParamSlot_I, slot.KI, i)
	w.set(phoenix.ProfileParamSlot_D, slot.KD, i)
	w.set(phoenix.ProfileParamSlot_F, slot.KF, i)
	w.set(phoenix.ProfileParamSlot_IZone, float64(slot.IntegralZone), i)
	w.set(phoenix.ProfileParamSlot_AllowableErr, float64(slot.AllowableClosedloopError), i)
	w.set(phoenix.ProfileParamSlot_MaxIAccum, slot.MaxIntegralAccumulator, i)
	w.set(phoenix.ProfileParamSlot_PeakOutput, slot.ClosedLoopPeakOutput, i)
	w.set(phoenix.PIDLoopPeriod, float64(slot.ClosedLoopPeriod), i)
}

// GetSlotConfigs reads every gain of one closed-loop slot into slot.
func (m *BaseMotorController) GetSlotConfigs(ctx context.Context, slot *SlotConfiguration, slotIdx int, timeout time.Duration) error {
	if err := checkIndex("slot", slotIdx, maxSlot); err != nil {
		return err
	}
	r := m.reader(ctx, timeout)
	readSlot(r, slot, slotIdx)
	return r.errs.Err()
}

func readSlot(r *paramReader, slot *SlotConfiguration, i int) {
	slot.KP = r.float(phoenix.ProfileParamSlot_P, i)
	slot.KI = r.float(phoenix.ProfileParamSlot_I, i)
	slot.KD = r.float(phoenix.ProfileParamSlot_D, i)
	slot.KF = r.float(phoenix.ProfileParamSlot_F, i)
	slot.IntegralZone = r.int(phoenix.ProfileParamSlot_IZone, i)
	slot.AllowableClosedloopError = r.int(phoenix.ProfileParamSlot_AllowableErr, i)
	slot.MaxIntegralAccumulator = r.float(phoenix.ProfileParamSlot_MaxIAccum, i)
	slot.ClosedLoopPeakOutput = r.float(phoenix.ProfileParamSlot_PeakOutput, i)
	slot.ClosedLoopPeriod = r.int(phoenix.PIDLoopPeriod, i)
}

// ConfigureFilter writes one remote sensor filter.
func (m *BaseMotorController) ConfigureFilter(ctx context.Context, filter FilterConfiguration, ordinal int, timeout time.Duration) error {
	return m.ConfigRemoteFeedbackFilter(ctx, filter.RemoteSensorDeviceID, filter.RemoteSensorSource, ordinal, timeout)
}

// GetFilterConfigs reads one remote sensor filter into filter.
func (m *BaseMotorController) GetFilterConfigs(ctx context.Context, filter *FilterConfiguration, ordinal int, timeout time.Duration) error {
	if err := checkIndex("remote filter", ordinal, maxFilter); err != nil {
		return err
	}
	r := m.reader(ctx, timeout)
	readFilter(r, filter, ordinal)
	return r.errs.Err()
}

func readFilter(r *paramReader, filter *FilterConfiguration, i int) {
	filter.RemoteSensorDeviceID = r.int(phoenix.RemoteSensorDeviceID, i)
	filter.RemoteSensorSource = RemoteSensorSourceOf(r.float(phoenix.RemoteSensorSource, i))
}

// BaseConfigurePID writes the PID set settings shared by every controller.
func (m *BaseMotorController) BaseConfigurePID(ctx context.Context, pid BasePIDSetConfiguration, pidIdx int, timeout time.Duration) error {
	return m.ConfigSelectedFeedbackCoefficient(ctx, pid.SelectedFeedbackCoefficient, pidIdx, timeout)
}

// BaseGetPIDConfigs reads the PID set settings shared by every controller.
func (m *BaseMotorController) BaseGetPIDConfigs(ctx context.Context, pid *BasePIDSetConfiguration, pidIdx int, timeout time.Duration) error {
	if err := checkIndex("pid index", pidIdx, maxPIDIndex); err != nil {
		return err
	}
	r := m.reader(ctx, timeout)
	pid.SelectedFeedbackCoefficient = r.float(phoenix.SelectedSensorCoefficient, pidIdx)
	return r.errs.Err()
}

// BaseConfigAllSettings writes every setting of cfg and returns the worst
// error. Every write is attempted even after a failure.
func (m *BaseMotorController) BaseConfigAllSettings(ctx context.Context, cfg *BaseMotorControllerConfiguration, timeout time.Duration) error {
	w := m.writer(ctx, timeout)

	w.set(phoenix.OpenloopRamp, cfg.OpenloopRamp, 0)
	w.set(phoenix.ClosedloopRamp, cfg.ClosedloopRamp, 0)
	w.set(phoenix.PeakPosOutput, cfg.PeakOutputForward, 0)
	w.set(phoenix.PeakNegOutput, cfg.PeakOutputReverse, 0)
	w.set(phoenix.NominalPosOutput, cfg.NominalOutputForward, 0)
	w.set(phoenix.NominalNegOutput, cfg.NominalOutputReverse, 0)
	w.set(phoenix.NeutralDeadband, cfg.NeutralDeadband, 0)
	w.set(phoenix.NominalBatteryVoltage, cfg.VoltageCompSaturation, 0)
	w.set(phoenix.BatteryVoltageFilterSize, float64(cfg.VoltageMeasurementFilter), 0)
	w.set(phoenix.SampleVelocityPeriod, float64(cfg.VelocityMeasurementPeriod), 0)
	w.set(phoenix.SampleVelocityWindow, float64(cfg.VelocityMeasurementWindow), 0)
	w.set(phoenix.ForwardSoftLimitThreshold, float64(cfg.ForwardSoftLimitThreshold), 0)
	w.set(phoenix.ReverseSoftLimitThreshold, float64(cfg.ReverseSoftLimitThreshold), 0)
	w.set(phoenix.ForwardSoftLimitEnable, b2f(cfg.ForwardSoftLimitEnable), 0)
	w.set(phoenix.ReverseSoftLimitEnable, b2f(cfg.ReverseSoftLimitEnable), 0)

	for i := 0; i <= maxSlot; i++ {
		m.writeSlot(w, *cfg.Slot(i), i)
	}

	w.set(phoenix.PIDLoopPolarity, b2f(cfg.AuxPIDPolarity), 1)
	w.add(m.ConfigureFilter(ctx, cfg.RemoteFilter0, 0, timeout))
	w.add(m.ConfigureFilter(ctx, cfg.RemoteFilter1, 1, timeout))

	w.set(phoenix.MotMag_VelCruise, float64(cfg.MotionCruiseVelocity), 0)
	w.set(phoenix.MotMag_Accel, float64(cfg.MotionAcceleration), 0)
	w.set(phoenix.MotionProfileTrajectoryPointDurationMs, float64(cfg.MotionProfileTrajectoryPeriod), 0)

	w.set(phoenix.FeedbackNotContinuous, b2f(cfg.FeedbackNotContinuous), 0)
	w.set(phoenix.RemoteSensorClosedLoopDisableNeutralOnLOS, b2f(cfg.RemoteSensorClosedLoopDisableNeutralOnLOS), 0)
	w.set(phoenix.ClearPositionOnLimitF, b2f(cfg.ClearPositionOnLimitF), 0)
	w.set(phoenix.ClearPositionOnLimitR, b2f(cfg.ClearPositionOnLimitR), 0)
	w.set(phoenix.ClearPositionOnQuadIdx, b2f(cfg.ClearPositionOnQuadIdx), 0)
	w.set(phoenix.LimitSwitchDisableNeutralOnLOS, b2f(cfg.LimitSwitchDisableNeutralOnLOS), 0)
	w.set(phoenix.SoftLimitDisableNeutralOnLOS, b2f(cfg.SoftLimitDisableNeutralOnLOS), 0)
	w.set(phoenix.PulseWidthPeriod_EdgesPerRot, float64(cfg.PulseWidthPeriodEdgesPerRot), 0)
	w.set(phoenix.PulseWidthPeriod_FilterWindowSz, float64(cfg.PulseWidthPeriodFilterWindowSz), 0)

	w.add(m.ConfigSetCustomParam(ctx, cfg.CustomParam0, 0, timeout))
	w.add(m.ConfigSetCustomParam(ctx, cfg.CustomParam1, 1, timeout))

	return w.errs.Err()
}

// BaseGetAllConfigs reads every setting into cfg and returns the worst
// error. Settings whose read failed are left zero.
func (m *BaseMotorController) BaseGetAllConfigs(ctx context.Context, cfg *BaseMotorControllerConfiguration, timeout time.Duration) error {
	r := m.reader(ctx, timeout)

	cfg.OpenloopRamp = r.float(phoenix.OpenloopRamp, 0)
	cfg.ClosedloopRamp = r.float(phoenix.ClosedloopRamp, 0)
	cfg.PeakOutputForward = r.float(phoenix.PeakPosOutput, 0)
	cfg.PeakOutputReverse = r.float(phoenix.PeakNegOutput, 0)
	cfg.NominalOutputForward = r.float(phoenix.NominalPosOutput, 0)
	cfg.NominalOutputReverse = r.float(phoenix.NominalNegOutput, 0)
	cfg.NeutralDeadband = r.float(phoenix.NeutralDeadband, 0)
	cfg.VoltageCompSaturation = r.float(phoenix.NominalBatteryVoltage, 0)
	cfg.VoltageMeasurementFilter = r.int(phoenix.BatteryVoltageFilterSize, 0)
	cfg.VelocityMeasurementPeriod = VelocityMeasPeriodOf(r.float(phoenix.SampleVelocityPeriod, 0))
	cfg.VelocityMeasurementWindow = r.int(phoenix.SampleVelocityWindow, 0)
	cfg.ForwardSoftLimitThreshold = r.int(phoenix.ForwardSoftLimitThreshold, 0)
	cfg.ReverseSoftLimitThreshold = r.int(phoenix.ReverseSoftLimitThreshold, 0)
	cfg.ForwardSoftLimitEnable = r.bool(phoenix.ForwardSoftLimitEnable, 0)
	cfg.ReverseSoftLimitEnable = r.bool(phoenix.ReverseSoftLimitEnable, 0)

	for i := 0; i <= maxSlot; i++ {
		readSlot(r, cfg.Slot(i), i)
	}

	cfg.AuxPIDPolarity = r.bool(phoenix.PIDLoopPolarity, 1)
	readFilter(r, &cfg.RemoteFilter0, 0)
	readFilter(r, &cfg.RemoteFilter1, 1)

	cfg.MotionCruiseVelocity = r.int(phoenix.MotMag_VelCruise, 0)
	cfg.MotionAcceleration = r.int(phoenix.MotMag_Accel, 0)
	cfg.MotionProfileTrajectoryPeriod = r.int(phoenix.MotionProfileTrajectoryPointDurationMs, 0)

	cfg.FeedbackNotContinuous = r.bool(phoenix.FeedbackNotContinuous, 0)
	cfg.RemoteSensorClosedLoopDisableNeutralOnLOS = r.bool(phoenix.RemoteSensorClosedLoopDisableNeutralOnLOS, 0)
	cfg.ClearPositionOnLimitF = r.bool(phoenix.ClearPositionOnLimitF, 0)
	cfg.ClearPositionOnLimitR = r.bool(phoenix.ClearPositionOnLimitR, 0)
	cfg.ClearPositionOnQuadIdx = r.bool(phoenix.ClearPositionOnQuadIdx, 0)
	cfg.LimitSwitchDisableNeutralOnLOS = r.bool(phoenix.LimitSwitchDisableNeutralOnLOS, 0)
	cfg.SoftLimitDisableNeutralOnLOS = r.bool(phoenix.SoftLimitDisableNeutralOnLOS, 0)
	cfg.PulseWidthPeriodEdgesPerRot = r.int(phoenix.PulseWidthPeriod_EdgesPerRot, 0)
	cfg.PulseWidthPeriodFilterWindowSz = r.int(phoenix.PulseWidthPeriod_FilterWindowSz, 0)

	cfg.CustomParam0 = r.int(phoenix.CustomParam, 0)
	cfg.CustomParam1 = r.int(phoenix.CustomParam, 1)

	return r.errs.Err()
}
