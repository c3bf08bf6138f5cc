package motorcontrol

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/notnil/phoenixcan/canlink"
	"github.com/notnil/phoenixcan/phoenix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 200 * time.Millisecond

func newSimTalon(t *testing.T, id int) (*TalonSRX, *canlink.SimDevice, *canlink.Simulator) {
	t.Helper()
	n, sim := canlink.NewSimulatedNetwork(nil)
	t.Cleanup(func() { _ = n.Close() })
	h, err := phoenix.NewHandle(phoenix.TalonSRXBase, id)
	require.NoError(t, err)
	dev := sim.AddDevice(h)
	talon, err := NewTalonSRX(n.Link(h))
	require.NoError(t, err)
	return talon, dev, sim
}

func customTalonConfig() TalonSRXConfiguration {
	cfg := NewTalonSRXConfiguration()
	cfg.OpenloopRamp = 0.5
	cfg.ClosedloopRamp = 0.25
	cfg.PeakOutputForward = 0.8
	cfg.PeakOutputReverse = -0.75
	cfg.NominalOutputForward = 0.1
	cfg.NominalOutputReverse = -0.1
	cfg.NeutralDeadband = 0.06
	cfg.VoltageCompSaturation = 11.5
	cfg.VoltageMeasurementFilter = 16
	cfg.VelocityMeasurementPeriod = Period25Ms
	cfg.VelocityMeasurementWindow = 16
	cfg.ForwardSoftLimitThreshold = 4096
	cfg.ReverseSoftLimitThreshold = -4096
	cfg.ForwardSoftLimitEnable = true
	cfg.Slot0.KP = 0.3
	cfg.Slot0.KF = 0.045
	cfg.Slot1.KI = 0.001
	cfg.Slot1.IntegralZone = 200
	cfg.Slot2.AllowableClosedloopError = 10
	cfg.Slot2.MaxIntegralAccumulator = 5000
	cfg.Slot3.KD = 12
	cfg.Slot3.ClosedLoopPeakOutput = 0.5
	cfg.Slot3.ClosedLoopPeriod = 5
	cfg.AuxPIDPolarity = true
	cfg.RemoteFilter0 = FilterConfiguration{RemoteSensorDeviceID: 7, RemoteSensorSource: TalonSRXSelectedSensor}
	cfg.RemoteFilter1 = FilterConfiguration{RemoteSensorDeviceID: 2, RemoteSensorSource: CANifierQuadrature}
	cfg.MotionCruiseVelocity = 1500
	cfg.MotionAcceleration = 3000
	cfg.MotionProfileTrajectoryPeriod = 10
	cfg.FeedbackNotContinuous = true
	cfg.ClearPositionOnLimitR = true
	cfg.SoftLimitDisableNeutralOnLOS = true
	cfg.PulseWidthPeriodEdgesPerRot = 4
	cfg.CustomParam0 = 42
	cfg.CustomParam1 = -7

	cfg.PrimaryPID.SelectedFeedbackSensor = Analog
	cfg.PrimaryPID.SelectedFeedbackCoefficient = 0.25
	cfg.AuxiliaryPID.SelectedFeedbackSensor = RemoteSensor0
	cfg.ForwardLimitSwitchSource = LimitSwitchRemoteCANifier
	cfg.ForwardLimitSwitchDeviceID = 2
	cfg.ForwardLimitSwitchNormal = NormallyClosed
	cfg.ReverseLimitSwitchNormal = LimitSwitchDisabled
	cfg.Sum0 = QuadEncoder
	cfg.Sum1 = RemoteSensor1
	cfg.Diff0 = PulseWidthEncodedPosition
	cfg.Diff1 = Analog
	cfg.PeakCurrentLimit = 40
	cfg.PeakCurrentDuration = 100
	cfg.ContinuousCurrentLimit = 30
	return cfg
}

func TestTalonSRX_FactoryDefaults(t *testing.T) {
	talon, _, _ := newSimTalon(t, 1)

	var got TalonSRXConfiguration
	require.NoError(t, talon.GetAllConfigs(context.Background(), &got, testTimeout))
	if diff := cmp.Diff(NewTalonSRXConfiguration(), got); diff != "" {
		t.Errorf("factory defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestTalonSRX_ConfigAllSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	talon, dev, _ := newSimTalon(t, 2)

	want := customTalonConfig()
	require.NoError(t, talon.ConfigAllSettings(ctx, &want, testTimeout))
	assert.Equal(t, 40.0, dev.Param(phoenix.PeakCurrentLimitAmps, 0))
	assert.Equal(t, 2.0, dev.Param(phoenix.LimitSwitchSource, 0))

	var got TalonSRXConfiguration
	require.NoError(t, talon.GetAllConfigs(ctx, &got, testTimeout))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestTalonSRX_DefaultOverloads(t *testing.T) {
	ctx := context.Background()
	talon, _, _ := newSimTalon(t, 3)

	want := customTalonConfig()
	require.NoError(t, talon.ConfigAllSettingsDefault(ctx, &want))
	var got TalonSRXConfiguration
	require.NoError(t, talon.GetAllConfigsDefault(ctx, &got))
	assert.Empty(t, cmp.Diff(want, got))

	pid := NewTalonSRXPIDSetConfiguration()
	pid.SelectedFeedbackSensor = Tachometer
	require.NoError(t, talon.ConfigurePIDDefault(ctx, pid))
	var gotPID TalonSRXPIDSetConfiguration
	require.NoError(t, talon.GetPIDConfigsDefault(ctx, &gotPID))
	assert.Equal(t, pid, gotPID)
}

func TestTalonSRX_ConfigFactoryDefault(t *testing.T) {
	ctx := context.Background()
	talon, _, _ := newSimTalon(t, 4)

	cfg := customTalonConfig()
	require.NoError(t, talon.ConfigAllSettings(ctx, &cfg, testTimeout))
	require.NoError(t, talon.ConfigFactoryDefault(ctx, testTimeout))

	var got TalonSRXConfiguration
	require.NoError(t, talon.GetAllConfigs(ctx, &got, testTimeout))
	assert.Empty(t, cmp.Diff(NewTalonSRXConfiguration(), got))
}

func TestTalonSRX_WorstErrorWins(t *testing.T) {
	ctx := context.Background()

	t.Run("error outranks warning", func(t *testing.T) {
		talon, dev, _ := newSimTalon(t, 5)
		dev.FailParam(phoenix.ClosedloopRamp, 0, phoenix.FeatureNotSupported)
		dev.FailParam(phoenix.PeakCurrentLimitAmps, 0, phoenix.InvalidParamValue)

		cfg := customTalonConfig()
		err := talon.ConfigAllSettings(ctx, &cfg, testTimeout)
		assert.ErrorIs(t, err, phoenix.InvalidParamValue)
		// The other writes still went through.
		assert.Equal(t, 30.0, dev.Param(phoenix.ContinuousCurrentLimitAmps, 0))
	})

	t.Run("warning only", func(t *testing.T) {
		talon, dev, _ := newSimTalon(t, 6)
		dev.FailParam(phoenix.ClosedloopRamp, 0, phoenix.FeatureNotSupported)

		var cfg TalonSRXConfiguration
		err := talon.GetAllConfigs(ctx, &cfg, testTimeout)
		assert.Equal(t, phoenix.FeatureNotSupported, phoenix.CodeOf(err))
		assert.Equal(t, 1.0, cfg.PeakOutputForward)
	})

	t.Run("first error kept", func(t *testing.T) {
		talon, dev, _ := newSimTalon(t, 7)
		dev.FailParam(phoenix.OpenloopRamp, 0, phoenix.SensorNotPresent)
		dev.FailParam(phoenix.PeakCurrentLimitAmps, 0, phoenix.InvalidParamValue)

		cfg := customTalonConfig()
		err := talon.ConfigAllSettings(ctx, &cfg, testTimeout)
		assert.Equal(t, phoenix.SensorNotPresent, phoenix.CodeOf(err))
	})
}

func TestTalonSRX_Timeout(t *testing.T) {
	ctx := context.Background()
	talon, dev, _ := newSimTalon(t, 8)
	dev.SetMuted(true)

	var pid TalonSRXPIDSetConfiguration
	err := talon.GetPIDConfigs(ctx, &pid, 1, 10*time.Millisecond)
	assert.ErrorIs(t, err, phoenix.RxTimeout)

	// A zero timeout set does not wait for the device.
	assert.NoError(t, talon.ConfigPeakCurrentLimit(ctx, 35, 0))
}

func TestTalonSRX_IndexValidation(t *testing.T) {
	ctx := context.Background()
	talon, _, _ := newSimTalon(t, 9)

	tests := []struct {
		name string
		err  error
	}{
		{"pid index", talon.ConfigSelectedFeedbackSensor(ctx, QuadEncoder, 2, testTimeout)},
		{"slot", talon.Config_kP(ctx, 4, 1, testTimeout)},
		{"negative slot", talon.Config_IntegralZone(ctx, -1, 1, testTimeout)},
		{"remote filter", talon.ConfigRemoteFeedbackFilter(ctx, 1, TalonSRXSelectedSensor, 2, testTimeout)},
		{"custom param", talon.ConfigSetCustomParam(ctx, 1, 2, testTimeout)},
		{"sensor term", talon.ConfigSensorTerm(ctx, SensorTerm(4), Analog, testTimeout)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, phoenix.InvalidParamValue)
		})
	}
}

func TestTalonSRX_ControlFlags(t *testing.T) {
	ctx := context.Background()
	talon, dev, _ := newSimTalon(t, 10)

	require.NoError(t, talon.EnableCurrentLimit(ctx, true))
	require.NoError(t, talon.SetNeutralMode(ctx, Brake))
	require.NoError(t, talon.EnableVoltageCompensation(ctx, true))
	require.NoError(t, talon.EnableVoltageCompensation(ctx, false))

	require.Eventually(t, func() bool {
		p, ok := dev.LastControl(uint32(Control3General))
		return ok && len(p) == 8 && p[0] == ctrlCurrentLimitEnable|byte(Brake)<<ctrlNeutralModeShift
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, talon.SetNeutralMode(ctx, NeutralMode(3)), phoenix.InvalidParamValue)
}

func TestTalonSRX_StatusFramePeriods(t *testing.T) {
	ctx := context.Background()
	talon, _, _ := newSimTalon(t, 11)

	p, err := talon.GetStatusFramePeriod(ctx, Status1General, testTimeout)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, p)

	require.NoError(t, talon.SetStatusFramePeriodEnhanced(ctx, Status3Quadrature, 20*time.Millisecond, testTimeout))
	p, err = talon.GetStatusFramePeriodEnhanced(ctx, Status3Quadrature, testTimeout)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, p)

	err = talon.SetStatusFramePeriod(ctx, Status2Feedback0, 300*time.Millisecond, testTimeout)
	assert.ErrorIs(t, err, phoenix.InvalidParamValue)
}

func TestNewTalonSRX_WrongFamily(t *testing.T) {
	n, sim := canlink.NewSimulatedNetwork(nil)
	defer n.Close()
	h, err := phoenix.NewHandle(phoenix.VictorSPXBase, 1)
	require.NoError(t, err)
	sim.AddDevice(h)

	_, err = NewTalonSRX(n.Link(h))
	assert.ErrorIs(t, err, phoenix.InvalidHandle)
}
