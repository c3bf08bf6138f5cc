package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/notnil/phoenixcan/phoenix"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const robotFile = "../../devconf/testdata/robot.yaml"

// resetFlags puts every flag of c and its subcommands back to its default,
// since cobra keeps parsed values between Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes phoenixctl with args exactly as given.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// execute runs phoenixctl against a fresh simulated bus.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return run(t, append([]string{"--sim", "--timeout", "200ms", "--log-level", "error"}, args...)...)
}

func TestParseBase(t *testing.T) {
	tests := []struct {
		in   string
		want phoenix.DeviceBase
	}{
		{"talonsrx", phoenix.TalonSRXBase},
		{"Talon", phoenix.TalonSRXBase},
		{"victorspx", phoenix.VictorSPXBase},
		{"canifier", phoenix.CANifierBase},
	}
	for _, tt := range tests {
		got, err := parseBase(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := parseBase("sparkmax")
	assert.Error(t, err)
}

func TestApplyVerify(t *testing.T) {
	out, err := execute(t, "apply", "-f", robotFile, "--verify")
	require.NoError(t, err, out)
	assert.Contains(t, out, "left-drive (talonsrx 1)")
	assert.Contains(t, out, "verified")
	assert.NotContains(t, out, "failed")
}

func TestApplyDryRunNeedsNoBus(t *testing.T) {
	out, err := run(t, "--log-level", "error", "apply", "-f", robotFile, "--dry-run")
	require.NoError(t, err, out)
	assert.Contains(t, out, "name: left-drive")
	assert.Contains(t, out, "selectedFeedbackSensor: QuadEncoder")

	// An unreachable adapter is never dialed.
	out, err = run(t, "--slcan", "/dev/phoenixctl-missing", "apply", "-f", robotFile, "--dry-run")
	require.NoError(t, err, out)
}

func TestApplyWithoutBus(t *testing.T) {
	_, err := run(t, "apply", "-f", robotFile)
	assert.ErrorContains(t, err, "exactly one")
}

func TestParamGet(t *testing.T) {
	out, err := execute(t, "param", "get", "--kind", "talonsrx", "--id", "4", "--param", "NeutralDeadband")
	require.NoError(t, err)
	assert.Equal(t, "NeutralDeadband[0] = 0.04\n", out)

	out, err = execute(t, "param", "get", "--kind", "victorspx", "--id", "4", "--param", "FeedbackSensorType", "--ordinal", "1")
	require.NoError(t, err)
	assert.Equal(t, "FeedbackSensorType[1] = 11\n", out)
}

func TestParamSet(t *testing.T) {
	_, err := execute(t, "param", "set", "--kind", "talonsrx", "--id", "4", "--param", "ProfileParamSlot_P", "--ordinal", "1", "0.5")
	require.NoError(t, err)

	_, err = execute(t, "param", "set", "--id", "4", "--param", "ProfileParamSlot_P", "fast")
	assert.ErrorContains(t, err, "invalid value")

	_, err = execute(t, "param", "get", "--id", "4", "--param", "NoSuchParam")
	assert.ErrorContains(t, err, "unknown parameter")
}

func TestFramePeriod(t *testing.T) {
	out, err := execute(t, "frame-period", "--id", "3", "--frame", "0x1400")
	require.NoError(t, err)
	assert.Equal(t, "TalonSRX(3) frame 0x01400: 10ms\n", out)

	out, err = execute(t, "frame-period", "--id", "3", "--frame", "0x1440", "--period", "20ms")
	require.NoError(t, err)
	assert.Equal(t, "TalonSRX(3) frame 0x01440: 20ms\n", out)

	_, err = execute(t, "frame-period", "--id", "3", "--frame", "0x1400", "--period", "1s")
	assert.ErrorIs(t, err, phoenix.InvalidParamValue)

	_, err = execute(t, "frame-period", "--id", "3", "--frame", "general")
	assert.ErrorContains(t, err, "invalid --frame")
}

func TestDumpAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talon.cbor")
	out, err := execute(t, "dump", "--kind", "talonsrx", "--id", "3", "--cbor", path)
	require.NoError(t, err)
	assert.Contains(t, out, "kind: talonsrx")
	assert.Contains(t, out, "id: 3")
	assert.Contains(t, out, "neutralDeadband: 0.04")

	shown, err := run(t, "show", path)
	require.NoError(t, err)
	assert.Contains(t, shown, "# taken ")
	assert.Contains(t, shown, "neutralDeadband: 0.04")

	out, err = execute(t, "dump", "-f", robotFile)
	require.NoError(t, err)
	assert.Contains(t, out, "name: left-follower")
	assert.Contains(t, out, "kind: victorspx")

	_, err = execute(t, "dump", "--kind", "canifier", "--id", "1")
	assert.Error(t, err)
}

func TestFirmware(t *testing.T) {
	out, err := execute(t, "firmware", "--kind", "victorspx", "--id", "2")
	require.NoError(t, err)
	assert.Equal(t, "VictorSPX(2) firmware 4.0\n", out)
}

func TestFaults(t *testing.T) {
	out, err := execute(t, "faults", "--kind", "talonsrx", "--id", "6")
	require.NoError(t, err)
	assert.Equal(t, "faults:        none\nsticky faults: none\n", out)
}

func TestSessionRequiresOneBus(t *testing.T) {
	_, err := execute(t, "firmware", "--slcan", "/dev/null")
	assert.ErrorContains(t, err, "exactly one")
}
