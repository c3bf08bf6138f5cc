package motorcontrol

import (
	"context"
	"fmt"
	"time"

	"github.com/notnil/phoenixcan/phoenix"
)

// TalonSRX is a motor controller with local sensor and limit switch inputs
// and current limiting.
type TalonSRX struct {
	*BaseMotorController
}

// NewTalonSRX wraps the Native of a Talon SRX. The handle must be in the
// Talon SRX family.
func NewTalonSRX(n phoenix.Native) (*TalonSRX, error) {
	if b := n.Handle().Base(); b != phoenix.TalonSRXBase {
		return nil, fmt.Errorf("motorcontrol: %v is not a TalonSRX: %w", n.Handle(), phoenix.InvalidHandle)
	}
	return &TalonSRX{BaseMotorController: NewBaseMotorController(n)}, nil
}

// ConfigSelectedFeedbackSensor selects the sensor of PID loop pidIdx
// (0 primary, 1 auxiliary).
func (t *TalonSRX) ConfigSelectedFeedbackSensor(ctx context.Context, device FeedbackDevice, pidIdx int, timeout time.Duration) error {
	return t.configSelectedFeedbackSensor(ctx, int(device), pidIdx, timeout)
}

// ConfigSensorTerm selects the input of a sum or difference term.
func (t *TalonSRX) ConfigSensorTerm(ctx context.Context, term SensorTerm, device FeedbackDevice, timeout time.Duration) error {
	return t.configSensorTerm(ctx, term, int(device), timeout)
}

// SetStatusFramePeriodEnhanced changes how often the device sends a status
// frame, including the frames of the local sensor inputs.
func (t *TalonSRX) SetStatusFramePeriodEnhanced(ctx context.Context, frame StatusFrameEnhanced, period, timeout time.Duration) error {
	return phoenix.SetStatusFramePeriod(ctx, t.native, uint32(frame), period, timeout)
}

// GetStatusFramePeriodEnhanced reads how often the device sends a status
// frame.
func (t *TalonSRX) GetStatusFramePeriodEnhanced(ctx context.Context, frame StatusFrameEnhanced, timeout time.Duration) (time.Duration, error) {
	return phoenix.GetStatusFramePeriod(ctx, t.native, uint32(frame), timeout)
}

// ConfigForwardLimitSwitchSource selects a local forward limit switch
// source. Remote sources use device id 0; use
// ConfigForwardLimitSwitchSourceRemote to name the remote device.
func (t *TalonSRX) ConfigForwardLimitSwitchSource(ctx context.Context, source LimitSwitchSource, normal LimitSwitchNormal, timeout time.Duration) error {
	return t.configLimitSwitch(ctx, limitForward, int(source), normal, 0, timeout)
}

// ConfigReverseLimitSwitchSource selects a local reverse limit switch
// source.
func (t *TalonSRX) ConfigReverseLimitSwitchSource(ctx context.Context, source LimitSwitchSource, normal LimitSwitchNormal, timeout time.Duration) error {
	return t.configLimitSwitch(ctx, limitReverse, int(source), normal, 0, timeout)
}

// ConfigPeakCurrentLimit sets the current, in amps, above which limiting
// starts once it lasts ConfigPeakCurrentDuration. Zero disables the peak
// limit so the continuous limit applies at once.
func (t *TalonSRX) ConfigPeakCurrentLimit(ctx context.Context, amps int, timeout time.Duration) error {
	return t.set(ctx, phoenix.PeakCurrentLimitAmps, float64(amps), 0, timeout)
}

// ConfigPeakCurrentDuration sets how long, in milliseconds, current may
// exceed the peak limit.
func (t *TalonSRX) ConfigPeakCurrentDuration(ctx context.Context, milliseconds int, timeout time.Duration) error {
	return t.set(ctx, phoenix.PeakCurrentLimitMs, float64(milliseconds), 0, timeout)
}

// ConfigContinuousCurrentLimit sets the current, in amps, held while
// limiting.
func (t *TalonSRX) ConfigContinuousCurrentLimit(ctx context.Context, amps int, timeout time.Duration) error {
	return t.set(ctx, phoenix.ContinuousCurrentLimitAmps, float64(amps), 0, timeout)
}

// EnableCurrentLimit turns current limiting on or off.
func (t *TalonSRX) EnableCurrentLimit(ctx context.Context, enable bool) error {
	return t.updateControlFlags(ctx, func(f byte) byte {
		if enable {
			return f | ctrlCurrentLimitEnable
		}
		return f &^ ctrlCurrentLimitEnable
	})
}

// ConfigurePID writes one PID set. pidIdx is 0 for the primary loop and 1
// for the auxiliary loop.
func (t *TalonSRX) ConfigurePID(ctx context.Context, pid TalonSRXPIDSetConfiguration, pidIdx int, timeout time.Duration) error {
	var errs phoenix.ErrorCollection
	errs.Add(t.BaseConfigurePID(ctx, pid.BasePIDSetConfiguration, pidIdx, timeout))
	errs.Add(t.ConfigSelectedFeedbackSensor(ctx, pid.SelectedFeedbackSensor, pidIdx, timeout))
	return errs.Err()
}

// ConfigurePIDDefault writes the primary PID set with DefaultConfigTimeout.
func (t *TalonSRX) ConfigurePIDDefault(ctx context.Context, pid TalonSRXPIDSetConfiguration) error {
	return t.ConfigurePID(ctx, pid, 0, phoenix.DefaultConfigTimeout)
}

// GetPIDConfigs reads one PID set into pid.
func (t *TalonSRX) GetPIDConfigs(ctx context.Context, pid *TalonSRXPIDSetConfiguration, pidIdx int, timeout time.Duration) error {
	if err := checkIndex("pid index", pidIdx, maxPIDIndex); err != nil {
		return err
	}
	var errs phoenix.ErrorCollection
	errs.Add(t.BaseGetPIDConfigs(ctx, &pid.BasePIDSetConfiguration, pidIdx, timeout))
	r := t.reader(ctx, timeout)
	pid.SelectedFeedbackSensor = FeedbackDeviceOf(r.float(phoenix.FeedbackSensorType, pidIdx))
	errs.Add(r.errs.Err())
	return errs.Err()
}

// GetPIDConfigsDefault reads the primary PID set with DefaultConfigTimeout.
func (t *TalonSRX) GetPIDConfigsDefault(ctx context.Context, pid *TalonSRXPIDSetConfiguration) error {
	return t.GetPIDConfigs(ctx, pid, 0, phoenix.DefaultConfigTimeout)
}

// ConfigAllSettings writes every setting of cfg and returns the worst error.
// Every write is attempted even after a failure.
func (t *TalonSRX) ConfigAllSettings(ctx context.Context, cfg *TalonSRXConfiguration, timeout time.Duration) error {
	var errs phoenix.ErrorCollection
	errs.Add(t.BaseConfigAllSettings(ctx, &cfg.BaseMotorControllerConfiguration, timeout))

	errs.Add(t.ConfigurePID(ctx, cfg.PrimaryPID, 0, timeout))
	errs.Add(t.ConfigurePID(ctx, cfg.AuxiliaryPID, 1, timeout))

	errs.Add(t.configLimitSwitch(ctx, limitForward, int(cfg.ForwardLimitSwitchSource), cfg.ForwardLimitSwitchNormal, cfg.ForwardLimitSwitchDeviceID, timeout))
	errs.Add(t.configLimitSwitch(ctx, limitReverse, int(cfg.ReverseLimitSwitchSource), cfg.ReverseLimitSwitchNormal, cfg.ReverseLimitSwitchDeviceID, timeout))

	errs.Add(t.ConfigSensorTerm(ctx, Sum0, cfg.Sum0, timeout))
	errs.Add(t.ConfigSensorTerm(ctx, Sum1, cfg.Sum1, timeout))
	errs.Add(t.ConfigSensorTerm(ctx, Diff0, cfg.Diff0, timeout))
	errs.Add(t.ConfigSensorTerm(ctx, Diff1, cfg.Diff1, timeout))

	errs.Add(t.ConfigPeakCurrentLimit(ctx, cfg.PeakCurrentLimit, timeout))
	errs.Add(t.ConfigPeakCurrentDuration(ctx, cfg.PeakCurrentDuration, timeout))
	errs.Add(t.ConfigContinuousCurrentLimit(ctx, cfg.ContinuousCurrentLimit, timeout))

	return errs.Err()
}

// ConfigAllSettingsDefault is ConfigAllSettings with DefaultConfigTimeout.
func (t *TalonSRX) ConfigAllSettingsDefault(ctx context.Context, cfg *TalonSRXConfiguration) error {
	return t.ConfigAllSettings(ctx, cfg, phoenix.DefaultConfigTimeout)
}

// GetAllConfigs reads every setting into cfg and returns the worst error.
func (t *TalonSRX) GetAllConfigs(ctx context.Context, cfg *TalonSRXConfiguration, timeout time.Duration) error {
	var errs phoenix.ErrorCollection
	errs.Add(t.BaseGetAllConfigs(ctx, &cfg.BaseMotorControllerConfiguration, timeout))

	errs.Add(t.GetPIDConfigs(ctx, &cfg.PrimaryPID, 0, timeout))
	errs.Add(t.GetPIDConfigs(ctx, &cfg.AuxiliaryPID, 1, timeout))

	r := t.reader(ctx, timeout)
	cfg.ForwardLimitSwitchSource = LimitSwitchSourceOf(r.float(phoenix.LimitSwitchSource, limitForward))
	cfg.ReverseLimitSwitchSource = LimitSwitchSourceOf(r.float(phoenix.LimitSwitchSource, limitReverse))
	cfg.ForwardLimitSwitchDeviceID = r.int(phoenix.LimitSwitchRemoteDevID, limitForward)
	cfg.ReverseLimitSwitchDeviceID = r.int(phoenix.LimitSwitchRemoteDevID, limitReverse)
	cfg.ForwardLimitSwitchNormal = LimitSwitchNormalOf(r.float(phoenix.LimitSwitchNormClosedAndDis, limitForward))
	cfg.ReverseLimitSwitchNormal = LimitSwitchNormalOf(r.float(phoenix.LimitSwitchNormClosedAndDis, limitReverse))

	cfg.Sum0 = FeedbackDeviceOf(r.float(phoenix.SensorTerm, int(Sum0)))
	cfg.Sum1 = FeedbackDeviceOf(r.float(phoenix.SensorTerm, int(Sum1)))
	cfg.Diff0 = FeedbackDeviceOf(r.float(phoenix.SensorTerm, int(Diff0)))
	cfg.Diff1 = FeedbackDeviceOf(r.float(phoenix.SensorTerm, int(Diff1)))

	cfg.PeakCurrentLimit = r.int(phoenix.PeakCurrentLimitAmps, 0)
	cfg.PeakCurrentDuration = r.int(phoenix.PeakCurrentLimitMs, 0)
	cfg.ContinuousCurrentLimit = r.int(phoenix.ContinuousCurrentLimitAmps, 0)

	errs.Add(r.errs.Err())
	return errs.Err()
}

// GetAllConfigsDefault is GetAllConfigs with DefaultConfigTimeout.
func (t *TalonSRX) GetAllConfigsDefault(ctx context.Context, cfg *TalonSRXConfiguration) error {
	return t.GetAllConfigs(ctx, cfg, phoenix.DefaultConfigTimeout)
}
