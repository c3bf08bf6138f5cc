package motorcontrol

import (
	"context"
	"fmt"
	"time"

	"github.com/notnil/phoenixcan/phoenix"
)

// VictorSPX is a motor controller without local sensor inputs. Its
// feedback and limit switches come from other devices on the bus.
type VictorSPX struct {
	*BaseMotorController
}

// NewVictorSPX wraps the Native of a Victor SPX. The handle must be in the
// Victor SPX family.
func NewVictorSPX(n phoenix.Native) (*VictorSPX, error) {
	if b := n.Handle().Base(); b != phoenix.VictorSPXBase {
		return nil, fmt.Errorf("motorcontrol: %v is not a VictorSPX: %w", n.Handle(), phoenix.InvalidHandle)
	}
	return &VictorSPX{BaseMotorController: NewBaseMotorController(n)}, nil
}

// ConfigurePID writes one PID set. pidIdx is 0 for the primary loop and 1
// for the auxiliary loop.
func (v *VictorSPX) ConfigurePID(ctx context.Context, pid VictorSPXPIDSetConfiguration, pidIdx int, timeout time.Duration) error {
	var errs phoenix.ErrorCollection
	errs.Add(v.BaseConfigurePID(ctx, pid.BasePIDSetConfiguration, pidIdx, timeout))
	errs.Add(v.ConfigSelectedFeedbackSensorRemote(ctx, pid.SelectedFeedbackSensor, pidIdx, timeout))
	return errs.Err()
}

// ConfigurePIDDefault writes the primary PID set with DefaultConfigTimeout.
func (v *VictorSPX) ConfigurePIDDefault(ctx context.Context, pid VictorSPXPIDSetConfiguration) error {
	return v.ConfigurePID(ctx, pid, 0, phoenix.DefaultConfigTimeout)
}

// GetPIDConfigs reads one PID set into pid.
func (v *VictorSPX) GetPIDConfigs(ctx context.Context, pid *VictorSPXPIDSetConfiguration, pidIdx int, timeout time.Duration) error {
	if err := checkIndex("pid index", pidIdx, maxPIDIndex); err != nil {
		return err
	}
	var errs phoenix.ErrorCollection
	errs.Add(v.BaseGetPIDConfigs(ctx, &pid.BasePIDSetConfiguration, pidIdx, timeout))
	r := v.reader(ctx, timeout)
	pid.SelectedFeedbackSensor = RemoteFeedbackDeviceOf(r.float(phoenix.FeedbackSensorType, pidIdx))
	errs.Add(r.errs.Err())
	return errs.Err()
}

// GetPIDConfigsDefault reads the primary PID set with DefaultConfigTimeout.
func (v *VictorSPX) GetPIDConfigsDefault(ctx context.Context, pid *VictorSPXPIDSetConfiguration) error {
	return v.GetPIDConfigs(ctx, pid, 0, phoenix.DefaultConfigTimeout)
}

// ConfigAllSettings writes every setting of cfg and returns the worst error.
// Every write is attempted even after a failure.
func (v *VictorSPX) ConfigAllSettings(ctx context.Context, cfg *VictorSPXConfiguration, timeout time.Duration) error {
	var errs phoenix.ErrorCollection
	errs.Add(v.BaseConfigAllSettings(ctx, &cfg.BaseMotorControllerConfiguration, timeout))

	errs.Add(v.ConfigurePID(ctx, cfg.PrimaryPID, 0, timeout))
	errs.Add(v.ConfigurePID(ctx, cfg.AuxiliaryPID, 1, timeout))

	errs.Add(v.ConfigForwardLimitSwitchSourceRemote(ctx, cfg.ForwardLimitSwitchSource, cfg.ForwardLimitSwitchNormal, cfg.ForwardLimitSwitchDeviceID, timeout))
	errs.Add(v.ConfigReverseLimitSwitchSourceRemote(ctx, cfg.ReverseLimitSwitchSource, cfg.ReverseLimitSwitchNormal, cfg.ReverseLimitSwitchDeviceID, timeout))

	errs.Add(v.ConfigSensorTermRemote(ctx, Sum0, cfg.Sum0, timeout))
	errs.Add(v.ConfigSensorTermRemote(ctx, Sum1, cfg.Sum1, timeout))
	errs.Add(v.ConfigSensorTermRemote(ctx, Diff0, cfg.Diff0, timeout))
	errs.Add(v.ConfigSensorTermRemote(ctx, Diff1, cfg.Diff1, timeout))

	return errs.Err()
}

// ConfigAllSettingsDefault is ConfigAllSettings with DefaultConfigTimeout.
func (v *VictorSPX) ConfigAllSettingsDefault(ctx context.Context, cfg *VictorSPXConfiguration) error {
	return v.ConfigAllSettings(ctx, cfg, phoenix.DefaultConfigTimeout)
}

// GetAllConfigs reads every setting into cfg and returns the worst error.
func (v *VictorSPX) GetAllConfigs(ctx context.Context, cfg *VictorSPXConfiguration, timeout time.Duration) error {
	var errs phoenix.ErrorCollection
	errs.Add(v.BaseGetAllConfigs(ctx, &cfg.BaseMotorControllerConfiguration, timeout))

	errs.Add(v.GetPIDConfigs(ctx, &cfg.PrimaryPID, 0, timeout))
	errs.Add(v.GetPIDConfigs(ctx, &cfg.AuxiliaryPID, 1, timeout))

	r := v.reader(ctx, timeout)
	cfg.ForwardLimitSwitchSource = RemoteLimitSwitchSourceOf(r.float(phoenix.LimitSwitchSource, limitForward))
	cfg.ReverseLimitSwitchSource = RemoteLimitSwitchSourceOf(r.float(phoenix.LimitSwitchSource, limitReverse))
	cfg.ForwardLimitSwitchDeviceID = r.int(phoenix.LimitSwitchRemoteDevID, limitForward)
	cfg.ReverseLimitSwitchDeviceID = r.int(phoenix.LimitSwitchRemoteDevID, limitReverse)
	cfg.ForwardLimitSwitchNormal = LimitSwitchNormalOf(r.float(phoenix.LimitSwitchNormClosedAndDis, limitForward))
	cfg.ReverseLimitSwitchNormal = LimitSwitchNormalOf(r.float(phoenix.LimitSwitchNormClosedAndDis, limitReverse))

	cfg.Sum0 = RemoteFeedbackDeviceOf(r.float(phoenix.SensorTerm, int(Sum0)))
	cfg.Sum1 = RemoteFeedbackDeviceOf(r.float(phoenix.SensorTerm, int(Sum1)))
	cfg.Diff0 = RemoteFeedbackDeviceOf(r.float(phoenix.SensorTerm, int(Diff0)))
	cfg.Diff1 = RemoteFeedbackDeviceOf(r.float(phoenix.SensorTerm, int(Diff1)))

	errs.Add(r.errs.Err())
	return errs.Err()
}

// GetAllConfigsDefault is GetAllConfigs with a zero timeout, so every read
// uses phoenix.DefaultGetTimeout.
func (v *VictorSPX) GetAllConfigsDefault(ctx context.Context, cfg *VictorSPXConfiguration) error {
	return v.GetAllConfigs(ctx, cfg, 0)
}
