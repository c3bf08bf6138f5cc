package canlink

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/notnil/phoenixcan/canbus"
	"github.com/notnil/phoenixcan/phoenix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 200 * time.Millisecond

func newSimLink(t *testing.T, base phoenix.DeviceBase, number int) (*Link, *SimDevice, *Simulator) {
	t.Helper()
	n, sim := NewSimulatedNetwork(nil)
	t.Cleanup(func() { _ = n.Close() })
	h, err := phoenix.NewHandle(base, number)
	require.NoError(t, err)
	return n.Link(h), sim.AddDevice(h), sim
}

func TestLink_SetGetParameter(t *testing.T) {
	ctx := context.Background()
	link, dev, _ := newSimLink(t, phoenix.TalonSRXBase, 3)

	require.NoError(t, link.ConfigSetParameter(ctx, phoenix.ProfileParamSlot_P, 0.75, 0, 2, testTimeout))
	assert.Equal(t, 0.75, dev.Param(phoenix.ProfileParamSlot_P, 2))

	v, err := link.ConfigGetParameter(ctx, phoenix.ProfileParamSlot_P, 2, testTimeout)
	require.NoError(t, err)
	assert.Equal(t, 0.75, v)

	v, err = link.ConfigGetParameter(ctx, phoenix.NeutralDeadband, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.04, v)
}

func TestLink_FireAndForgetSet(t *testing.T) {
	ctx := context.Background()
	link, dev, _ := newSimLink(t, phoenix.TalonSRXBase, 1)

	require.NoError(t, link.ConfigSetParameter(ctx, phoenix.OpenloopRamp, 1.5, 0, 0, 0))
	assert.Eventually(t, func() bool {
		return dev.Param(phoenix.OpenloopRamp, 0) == 1.5
	}, time.Second, 5*time.Millisecond)
}

func TestLink_Timeout(t *testing.T) {
	ctx := context.Background()
	link, dev, _ := newSimLink(t, phoenix.VictorSPXBase, 9)
	dev.SetMuted(true)

	err := link.ConfigSetParameter(ctx, phoenix.OpenloopRamp, 1, 0, 0, 20*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, phoenix.RxTimeout)
	assert.Equal(t, phoenix.RxTimeout, phoenix.CodeOf(err))

	_, err = link.ConfigGetParameter(ctx, phoenix.OpenloopRamp, 0, 20*time.Millisecond)
	assert.ErrorIs(t, err, phoenix.RxTimeout)

	// Fire-and-forget does not notice the missing device.
	assert.NoError(t, link.ConfigSetParameter(ctx, phoenix.OpenloopRamp, 1, 0, 0, 0))
}

func TestLink_IgnoresStaleResponses(t *testing.T) {
	ctx := context.Background()
	lb := canbus.NewLoopbackBus()
	t.Cleanup(func() { _ = lb.Close() })
	n := NewNetwork(lb.Open(), nil)
	t.Cleanup(func() { _ = n.Close() })
	dev := lb.Open()

	h, err := phoenix.NewHandle(phoenix.TalonSRXBase, 4)
	require.NoError(t, err)
	link := n.Link(h)

	reply := func(r ParamResponse) {
		f, err := r.MarshalCANFrame()
		require.NoError(t, err)
		require.NoError(t, dev.Send(ctx, f))
	}

	// A confirmation left over from a timed out set is seen before the
	// next request goes out.
	reply(ParamResponse{Device: h, Set: true, Param: phoenix.OpenloopRamp, Value: 0.5})

	done := make(chan error, 1)
	go func() {
		done <- link.ConfigSetParameter(ctx, phoenix.OpenloopRamp, 1.5, 0, 0, time.Second)
	}()

	rctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	var req ParamRequest
	for {
		f, err := dev.Receive(rctx)
		require.NoError(t, err)
		if req.UnmarshalCANFrame(f) == nil {
			break
		}
	}
	require.True(t, req.Set)

	reply(ParamResponse{Device: h, Param: phoenix.OpenloopRamp, Value: 1.5})
	reply(ParamResponse{Device: h, Set: true, Param: phoenix.OpenloopRamp, Status: phoenix.InvalidParamValue, Value: 0.5})
	select {
	case err := <-done:
		t.Fatalf("set completed on a stale response: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	reply(ParamResponse{Device: h, Set: true, Param: phoenix.OpenloopRamp, Value: 1.5})
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("set did not complete")
	}
}

func TestLink_CallerCancellation(t *testing.T) {
	link, dev, _ := newSimLink(t, phoenix.TalonSRXBase, 2)
	dev.SetMuted(true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := link.ConfigGetParameter(ctx, phoenix.OpenloopRamp, 0, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLink_StatusCodes(t *testing.T) {
	ctx := context.Background()
	link, dev, _ := newSimLink(t, phoenix.TalonSRXBase, 4)
	dev.FailParam(phoenix.PeakCurrentLimitAmps, 0, phoenix.InvalidParamValue)
	dev.FailParam(phoenix.ClosedloopRamp, 0, phoenix.FeatureNotSupported)

	err := link.ConfigSetParameter(ctx, phoenix.PeakCurrentLimitAmps, 40, 0, 0, testTimeout)
	assert.ErrorIs(t, err, phoenix.InvalidParamValue)

	_, err = link.ConfigGetParameter(ctx, phoenix.ClosedloopRamp, 0, testTimeout)
	assert.True(t, phoenix.CodeOf(err).IsWarning())

	dev.FailParam(phoenix.PeakCurrentLimitAmps, 0, phoenix.OK)
	assert.NoError(t, link.ConfigSetParameter(ctx, phoenix.PeakCurrentLimitAmps, 40, 0, 0, testTimeout))
}

func TestLink_InvalidOrdinal(t *testing.T) {
	ctx := context.Background()
	link, _, _ := newSimLink(t, phoenix.TalonSRXBase, 5)
	err := link.ConfigSetParameter(ctx, phoenix.CustomParam, 1, 0, 256, testTimeout)
	assert.ErrorIs(t, err, phoenix.InvalidParamValue)
	_, err = link.ConfigGetParameter(ctx, phoenix.CustomParam, -1, testTimeout)
	assert.ErrorIs(t, err, phoenix.InvalidParamValue)
}

func TestLink_ConcurrentRequests(t *testing.T) {
	ctx := context.Background()
	link, _, _ := newSimLink(t, phoenix.TalonSRXBase, 6)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for slot := 0; slot < 4; slot++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			errs <- link.ConfigSetParameter(ctx, phoenix.ProfileParamSlot_F, float64(slot)+0.5, 0, slot, testTimeout)
		}(slot)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	for slot := 0; slot < 4; slot++ {
		v, err := link.ConfigGetParameter(ctx, phoenix.ProfileParamSlot_F, slot, testTimeout)
		require.NoError(t, err)
		assert.Equal(t, float64(slot)+0.5, v)
	}
}

func TestLink_TwoDevicesShareBus(t *testing.T) {
	ctx := context.Background()
	n, sim := NewSimulatedNetwork(nil)
	defer n.Close()

	talon := phoenix.Handle(phoenix.TalonSRXBase) | 1
	victor := phoenix.Handle(phoenix.VictorSPXBase) | 1
	sim.AddDevice(talon)
	sim.AddDevice(victor)

	require.NoError(t, n.Link(talon).ConfigSetParameter(ctx, phoenix.CustomParam, 11, 0, 0, testTimeout))
	require.NoError(t, n.Link(victor).ConfigSetParameter(ctx, phoenix.CustomParam, 22, 0, 0, testTimeout))

	v, err := n.Link(talon).ConfigGetParameter(ctx, phoenix.CustomParam, 0, testTimeout)
	require.NoError(t, err)
	assert.Equal(t, 11.0, v)
	v, err = n.Link(victor).ConfigGetParameter(ctx, phoenix.CustomParam, 0, testTimeout)
	require.NoError(t, err)
	assert.Equal(t, 22.0, v)
	assert.Same(t, n.Link(talon), n.Link(talon))
}

func TestLink_FirmwareVersion(t *testing.T) {
	ctx := context.Background()
	link, dev, _ := newSimLink(t, phoenix.CANifierBase, 0)
	dev.SetFirmwareVersion(0x0314)

	v, err := link.GetFirmwareVersion(ctx, testTimeout)
	require.NoError(t, err)
	assert.Equal(t, 0x0314, v)

	dev.SetMuted(true)
	_, err = link.GetFirmwareVersion(ctx, 20*time.Millisecond)
	assert.ErrorIs(t, err, phoenix.RxTimeout)
}

func TestLink_StatusAndReset(t *testing.T) {
	ctx := context.Background()
	link, dev, sim := newSimLink(t, phoenix.TalonSRXBase, 8)

	_, _, ok := link.LatestStatus(phoenix.StatusGeneralAPI)
	assert.False(t, ok)

	dev.SetFaults(0x3)
	require.NoError(t, sim.PublishStatus(ctx))
	require.Eventually(t, func() bool {
		_, _, ok := link.LatestStatus(phoenix.StatusGeneralAPI)
		return ok
	}, time.Second, 5*time.Millisecond)

	payload, at, _ := link.LatestStatus(phoenix.StatusGeneralAPI)
	assert.Equal(t, uint32(0x3), binary.LittleEndian.Uint32(payload[:4]))
	assert.WithinDuration(t, time.Now(), at, time.Second)
	assert.False(t, link.HasResetOccurred(), "first status sets the baseline")

	dev.Reboot()
	require.NoError(t, sim.PublishStatus(ctx))
	require.Eventually(t, link.HasResetOccurred, time.Second, 5*time.Millisecond)
	assert.False(t, link.HasResetOccurred(), "flag clears after it is read")
}

func TestLink_ControlFrames(t *testing.T) {
	ctx := context.Background()
	link, dev, _ := newSimLink(t, phoenix.CANifierBase, 2)
	const frame uint32 = 0x040040

	require.NoError(t, link.SendControl(ctx, frame, []byte{1, 2, 3}))
	require.Eventually(t, func() bool {
		p, ok := dev.LastControl(frame)
		return ok && assert.ObjectsAreEqual([]byte{1, 2, 3}, p)
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, link.SetControlFramePeriod(frame, 5*time.Millisecond))
	require.NoError(t, link.SendControl(ctx, frame, []byte{9}))
	require.Eventually(t, func() bool {
		p, _ := dev.LastControl(frame)
		return assert.ObjectsAreEqual([]byte{9}, p)
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, link.SetControlFramePeriod(frame, 0))

	assert.ErrorIs(t, link.SetControlFramePeriod(frame, -time.Millisecond), phoenix.InvalidParamValue)
	assert.ErrorIs(t, link.SendControl(ctx, frame, make([]byte, 9)), canbus.ErrInvalidLen)
}

func TestLink_ClosedNetwork(t *testing.T) {
	n, sim := NewSimulatedNetwork(nil)
	h := phoenix.Handle(phoenix.TalonSRXBase) | 1
	sim.AddDevice(h)
	link := n.Link(h)
	require.NoError(t, n.Close())

	err := link.ConfigSetParameter(context.Background(), phoenix.OpenloopRamp, 1, 0, 0, testTimeout)
	assert.Equal(t, phoenix.TxFailed, phoenix.CodeOf(err))
}
