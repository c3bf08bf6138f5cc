package canlink

import (
	"testing"
	"time"

	"github.com/notnil/phoenixcan/canbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeartbeatFrame(t *testing.T) {
	f, err := HeartbeatFrame{Counter: 7, Enabled: true}.MarshalCANFrame()
	require.NoError(t, err)
	assert.Equal(t, "01011840 [8] 07 00 00 00 00 00 00 01", f.String())

	var hb HeartbeatFrame
	require.NoError(t, hb.UnmarshalCANFrame(f))
	assert.Equal(t, HeartbeatFrame{Counter: 7, Enabled: true}, hb)

	assert.Error(t, hb.UnmarshalCANFrame(canbus.Frame{ID: HeartbeatID, Extended: true, Len: 2}))
	assert.Error(t, hb.UnmarshalCANFrame(canbus.Frame{ID: 0x123, Len: 8}))
}

func TestHeartbeatReachesSimulator(t *testing.T) {
	n, sim := NewSimulatedNetwork(nil)
	defer n.Close()

	hb := StartHeartbeat(n.Bus(), 2*time.Millisecond, nil)
	hb.SetEnabled(true)
	require.Eventually(t, func() bool {
		last, count := sim.LastHeartbeat()
		return count >= 3 && last.Enabled
	}, time.Second, 2*time.Millisecond)
	hb.Stop()
	time.Sleep(20 * time.Millisecond)

	_, before := sim.LastHeartbeat()
	time.Sleep(20 * time.Millisecond)
	_, after := sim.LastHeartbeat()
	assert.Equal(t, before, after)
}
