package motorcontrol

import (
	"context"
	"testing"
	"time"

	"github.com/notnil/phoenixcan/phoenix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseMotorController_SingleSettings(t *testing.T) {
	ctx := context.Background()
	talon, dev, _ := newSimTalon(t, 20)

	require.NoError(t, talon.ConfigOpenloopRamp(ctx, 0.75, testTimeout))
	require.NoError(t, talon.ConfigNeutralDeadband(ctx, 0.1, testTimeout))
	require.NoError(t, talon.Config_kF(ctx, 2, 0.5, testTimeout))
	require.NoError(t, talon.ConfigAuxPIDPolarity(ctx, true, testTimeout))
	require.NoError(t, talon.ConfigRemoteFeedbackFilter(ctx, 9, PigeonYaw, 1, testTimeout))
	require.NoError(t, talon.ConfigForwardLimitSwitchSourceRemote(ctx, RemoteCANifier, NormallyClosed, 4, testTimeout))
	require.NoError(t, talon.ConfigVelocityMeasurementPeriod(ctx, Period50Ms, testTimeout))

	assert.Equal(t, 0.75, dev.Param(phoenix.OpenloopRamp, 0))
	assert.Equal(t, 0.1, dev.Param(phoenix.NeutralDeadband, 0))
	assert.Equal(t, 0.5, dev.Param(phoenix.ProfileParamSlot_F, 2))
	assert.Equal(t, 1.0, dev.Param(phoenix.PIDLoopPolarity, 1))
	assert.Equal(t, 9.0, dev.Param(phoenix.RemoteSensorDeviceID, 1))
	assert.Equal(t, float64(PigeonYaw), dev.Param(phoenix.RemoteSensorSource, 1))
	assert.Equal(t, 2.0, dev.Param(phoenix.LimitSwitchSource, 0))
	assert.Equal(t, 1.0, dev.Param(phoenix.LimitSwitchNormClosedAndDis, 0))
	assert.Equal(t, 4.0, dev.Param(phoenix.LimitSwitchRemoteDevID, 0))
	assert.Equal(t, 50.0, dev.Param(phoenix.SampleVelocityPeriod, 0))

	v, err := talon.ConfigGetParameter(ctx, phoenix.OpenloopRamp, 0, testTimeout)
	require.NoError(t, err)
	assert.Equal(t, 0.75, v)
}

func TestBaseMotorController_SlotAndFilter(t *testing.T) {
	ctx := context.Background()
	talon, _, _ := newSimTalon(t, 21)

	slot := SlotConfiguration{
		KP:                       0.2,
		KI:                       0.002,
		KD:                       2,
		KF:                       0.1,
		IntegralZone:             100,
		AllowableClosedloopError: 5,
		MaxIntegralAccumulator:   1000,
		ClosedLoopPeakOutput:     0.9,
		ClosedLoopPeriod:         2,
	}
	require.NoError(t, talon.ConfigureSlot(ctx, slot, 3, testTimeout))
	var gotSlot SlotConfiguration
	require.NoError(t, talon.GetSlotConfigs(ctx, &gotSlot, 3, testTimeout))
	assert.Equal(t, slot, gotSlot)

	require.NoError(t, talon.GetSlotConfigs(ctx, &gotSlot, 0, testTimeout))
	assert.Equal(t, NewSlotConfiguration(), gotSlot)

	filter := FilterConfiguration{RemoteSensorDeviceID: 3, RemoteSensorSource: CANifierPWMInput2}
	require.NoError(t, talon.ConfigureFilter(ctx, filter, 0, testTimeout))
	var gotFilter FilterConfiguration
	require.NoError(t, talon.GetFilterConfigs(ctx, &gotFilter, 0, testTimeout))
	assert.Equal(t, filter, gotFilter)

	assert.ErrorIs(t, talon.GetSlotConfigs(ctx, &gotSlot, 4, testTimeout), phoenix.InvalidParamValue)
}

func TestBaseMotorController_CustomParams(t *testing.T) {
	ctx := context.Background()
	talon, _, _ := newSimTalon(t, 22)

	require.NoError(t, talon.ConfigSetCustomParam(ctx, 1234, 1, testTimeout))
	v, err := talon.ConfigGetCustomParam(ctx, 1, testTimeout)
	require.NoError(t, err)
	assert.Equal(t, 1234, v)

	_, err = talon.ConfigGetCustomParam(ctx, 2, testTimeout)
	assert.ErrorIs(t, err, phoenix.InvalidParamValue)
}

func TestBaseMotorController_Faults(t *testing.T) {
	ctx := context.Background()
	talon, dev, sim := newSimTalon(t, 23)

	_, err := talon.GetFaults()
	assert.ErrorIs(t, err, phoenix.SigNotUpdated)

	dev.SetFaults(faultUnderVoltage | faultForwardSoftLimit | faultHardwareFailure)
	require.NoError(t, sim.PublishStatus(ctx))

	var faults Faults
	require.Eventually(t, func() bool {
		var err error
		faults, err = talon.GetFaults()
		return err == nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, Faults{UnderVoltage: true, ForwardSoftLimit: true, HardwareFailure: true}, faults)

	sticky, err := talon.GetStickyFaults(ctx, testTimeout)
	require.NoError(t, err)
	assert.Equal(t, StickyFaults{UnderVoltage: true, ForwardSoftLimit: true}, sticky)

	require.NoError(t, talon.ClearStickyFaults(ctx, testTimeout))
	sticky, err = talon.GetStickyFaults(ctx, testTimeout)
	require.NoError(t, err)
	assert.False(t, sticky.HasAnyFault())
}

func TestBaseMotorController_FirmwareAndReset(t *testing.T) {
	ctx := context.Background()
	talon, dev, sim := newSimTalon(t, 24)
	dev.SetFirmwareVersion(0x0B02)

	v, err := talon.GetFirmwareVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0x0B02, v)

	require.NoError(t, sim.PublishStatus(ctx))
	require.Eventually(t, func() bool {
		_, err := talon.GetFaults()
		return err == nil
	}, time.Second, 5*time.Millisecond)
	assert.False(t, talon.HasResetOccurred())

	dev.Reboot()
	require.NoError(t, sim.PublishStatus(ctx))
	require.Eventually(t, talon.HasResetOccurred, time.Second, 5*time.Millisecond)
}

func TestBaseMotorController_ControlFramePeriod(t *testing.T) {
	ctx := context.Background()
	talon, dev, _ := newSimTalon(t, 25)

	require.NoError(t, talon.SetControlFramePeriod(Control3General, 5*time.Millisecond))
	require.NoError(t, talon.SetNeutralMode(ctx, Coast))
	require.Eventually(t, func() bool {
		p, ok := dev.LastControl(uint32(Control3General))
		return ok && p[0] == byte(Coast)<<ctrlNeutralModeShift
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, talon.SetControlFramePeriod(Control3General, 0))
}
