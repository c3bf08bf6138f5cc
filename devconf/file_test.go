package devconf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/notnil/phoenixcan/motorcontrol"
	"github.com/notnil/phoenixcan/phoenix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	f, err := Load("testdata/robot.yaml")
	require.NoError(t, err)
	require.Len(t, f.Devices, 3)

	talon := f.Devices[0]
	assert.Equal(t, "left-drive", talon.Name)
	assert.Equal(t, KindTalonSRX, talon.Kind)
	require.NotNil(t, talon.TalonSRX)
	assert.Nil(t, talon.VictorSPX)

	want := motorcontrol.NewTalonSRXConfiguration()
	want.PeakCurrentLimit = 40
	want.PeakCurrentDuration = 100
	want.ContinuousCurrentLimit = 30
	want.NeutralDeadband = 0.02
	want.OpenloopRamp = 0.25
	want.CustomParam0 = 7
	want.Slot0.KP = 0.3
	want.Slot0.KF = 0.045
	want.PrimaryPID.SelectedFeedbackSensor = motorcontrol.QuadEncoder
	want.ForwardLimitSwitchNormal = motorcontrol.NormallyClosed
	if diff := cmp.Diff(want, *talon.TalonSRX); diff != "" {
		t.Errorf("talon config mismatch (-want +got):\n%s", diff)
	}

	victor := f.Devices[1]
	require.NotNil(t, victor.VictorSPX)
	assert.Equal(t, motorcontrol.TalonSRXSelectedSensor, victor.VictorSPX.RemoteFilter0.RemoteSensorSource)
	assert.Equal(t, 1, victor.VictorSPX.RemoteFilter0.RemoteSensorDeviceID)
	assert.Equal(t, motorcontrol.RemoteFeedbackSensor0, victor.VictorSPX.PrimaryPID.SelectedFeedbackSensor)
	assert.Equal(t, -1.0, victor.VictorSPX.PeakOutputReverse, "unset fields keep factory defaults")

	bare := f.Devices[2]
	assert.Equal(t, motorcontrol.NewTalonSRXConfiguration(), *bare.TalonSRX)
	assert.Equal(t, "talonsrx 2", bare.String())

	h, err := talon.Handle()
	require.NoError(t, err)
	assert.Equal(t, phoenix.Handle(phoenix.TalonSRXBase)|1, h)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown kind",
			yaml: "devices:\n  - kind: sparkmax\n    id: 1\n",
			want: "unknown device kind",
		},
		{
			name: "id out of range",
			yaml: "devices:\n  - kind: talonsrx\n    id: 63\n",
			want: "out of range",
		},
		{
			name: "duplicate id",
			yaml: "devices:\n  - kind: victorspx\n    id: 4\n  - kind: victorspx\n    id: 4\n",
			want: "already used by devices[0]",
		},
		{
			name: "bad enum",
			yaml: "devices:\n  - kind: talonsrx\n    id: 1\n    config:\n      sum0: Sonar\n",
			want: "unknown FeedbackDevice",
		},
		{
			name: "not yaml",
			yaml: "devices: [",
			want: "devconf:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.True(t, strings.HasPrefix(err.Error(), "devconf: "), err.Error())
			assert.NotContains(t, err.Error(), "devconf: devconf:")
		})
	}
}

func TestParse_SameIDDifferentKinds(t *testing.T) {
	f, err := Parse([]byte("devices:\n  - kind: talonsrx\n    id: 4\n  - kind: victorspx\n    id: 4\n"))
	require.NoError(t, err)
	assert.Len(t, f.Devices, 2)
}

func TestFile_MarshalRoundTrip(t *testing.T) {
	f, err := Load("testdata/robot.yaml")
	require.NoError(t, err)

	data, err := f.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "selectedFeedbackSensor: QuadEncoder")

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	again, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(f, again); diff != "" {
		t.Errorf("yaml round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDiff(t *testing.T) {
	want, err := NewDevice(KindTalonSRX, 1)
	require.NoError(t, err)
	want.Name = "arm"
	want.TalonSRX.Slot0.KP = 0.1

	got, err := NewDevice(KindTalonSRX, 1)
	require.NoError(t, err)
	got.TalonSRX.Slot0.KP = float64(float32(0.1))
	assert.Empty(t, Diff(want, got))

	got.TalonSRX.Slot0.KP = 0.2
	assert.Contains(t, Diff(want, got), "KP")
}
