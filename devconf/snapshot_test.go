package devconf

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_Canonical(t *testing.T) {
	talon, err := NewDevice(KindTalonSRX, 3)
	require.NoError(t, err)
	talon.TalonSRX.PeakCurrentLimit = 35
	victor, err := NewDevice(KindVictorSPX, 4)
	require.NoError(t, err)
	victor.Name = "intake"

	s := Snapshot{
		TakenAt: time.Date(2024, 3, 1, 12, 0, 0, 500, time.UTC),
		Devices: []Device{talon, victor},
	}
	a, err := EncodeSnapshot(s)
	require.NoError(t, err)
	b, err := EncodeSnapshot(s)
	require.NoError(t, err)
	assert.Equal(t, a, b, "encoding is deterministic")

	got, err := DecodeSnapshot(a)
	require.NoError(t, err)
	assert.True(t, s.TakenAt.Equal(got.TakenAt))
	if diff := cmp.Diff(s.Devices, got.Devices); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeSnapshot_Garbage(t *testing.T) {
	_, err := DecodeSnapshot([]byte{0xFF, 0x00})
	assert.Error(t, err)
}
