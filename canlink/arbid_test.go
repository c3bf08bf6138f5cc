package canlink

import (
	"testing"

	"github.com/notnil/phoenixcan/phoenix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameID(t *testing.T) {
	h := phoenix.Handle(phoenix.TalonSRXBase) | 7
	assert.Equal(t, uint32(0x02041407), FrameID(h, phoenix.StatusGeneralAPI))
	assert.Equal(t, uint32(0x02041887), FrameID(h, ParamSetAPI))
	assert.Equal(t, uint32(0x02040087), FrameID(h, 0x040080))
}

func TestParseArbID(t *testing.T) {
	a, err := ParseArbID(0x02041847)
	require.NoError(t, err)
	assert.Equal(t, ArbID{DeviceType: 2, Manufacturer: 4, API: 0x61, DeviceNumber: 7}, a)
	assert.Equal(t, uint32(0x02041847), a.ID())
	assert.Equal(t, phoenix.Handle(phoenix.TalonSRXBase)|7, a.Handle())
	assert.Equal(t, "type=2 mfr=4 api=0x061 dev=7", a.String())

	_, err = ParseArbID(0x20000000)
	assert.Error(t, err)
}

func TestSameDevice(t *testing.T) {
	h := phoenix.Handle(phoenix.VictorSPXBase) | 1
	assert.True(t, sameDevice(0x01041401, h))
	assert.False(t, sameDevice(0x01041402, h))
	assert.False(t, sameDevice(0x02041401, h))
}
