package canbus

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoopbackBus_SendReceive_MultiEndpoint(t *testing.T) {
	bus := NewLoopbackBus()
	defer bus.Close()

	a := bus.Open()
	b := bus.Open()
	c := bus.Open()
	defer a.Close()
	defer b.Close()
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	send := MustFrame(0x321, []byte("hello"))

	done := make(chan error, 1)
	go func() { done <- a.Send(ctx, send) }()

	gotB, err := b.Receive(ctx)
	if err != nil {
		t.Fatalf("receive b: %v", err)
	}
	gotC, err := c.Receive(ctx)
	if err != nil {
		t.Fatalf("receive c: %v", err)
	}
	for name, got := range map[string]Frame{"b": gotB, "c": gotC} {
		if got.ID != send.ID || got.Len != send.Len || !bytes.Equal(got.Payload(), send.Payload()) {
			t.Fatalf("%s mismatch: got %+v want %+v", name, got, send)
		}
	}
	if err := <-done; err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotB.String() != "321 [5] 68 65 6C 6C 6F" {
		t.Fatalf("string: got %q", gotB.String())
	}
}

func TestLoopbackBus_ReceiveHonoursContext(t *testing.T) {
	bus := NewLoopbackBus()
	defer bus.Close()
	a := bus.Open()
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := a.Receive(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestLoopbackBus_CloseBehavior(t *testing.T) {
	ctx := context.Background()
	bus := NewLoopbackBus()
	a := bus.Open()
	b := bus.Open()

	_ = a.Close()
	if _, err := a.Receive(ctx); err == nil {
		t.Fatalf("closed endpoint should error on Receive")
	}
	if err := a.Send(ctx, MustFrame(0x1, nil)); err == nil {
		t.Fatalf("closed endpoint should error on Send")
	}

	_ = bus.Close()
	if _, err := b.Receive(ctx); err == nil {
		t.Fatalf("endpoint should error after bus close")
	}
	if err := b.Send(ctx, MustFrame(0x1, nil)); err == nil {
		t.Fatalf("endpoint should error on Send after bus close")
	}
	late := bus.Open()
	if _, err := late.Receive(ctx); err != ErrClosed {
		t.Fatalf("endpoint opened after close: got %v", err)
	}
}

func TestFilters_Basics(t *testing.T) {
	f1 := MustFrame(0x100, []byte{1})
	f2 := MustFrame(0x101, []byte{2})
	f3 := Frame{ID: 0x1ABCDEFF, Extended: true, Len: 0}

	if !ByID(0x100)(f1) || ByID(0x100)(f2) {
		t.Fatalf("ByID failure")
	}
	if !(ByIDs(0x100, 0x102)(f1)) || ByIDs(0x100, 0x102)(f2) {
		t.Fatalf("ByIDs failure")
	}
	if !ByRange(0x100, 0x1FF)(f2) || ByRange(0x200, 0x2FF)(f2) || !ByRange(0x1FF, 0x100)(f2) {
		t.Fatalf("ByRange failure")
	}
	if !ByMask(0x100, 0x7FF)(f1) || ByMask(0x100, 0x7FF)(f2) {
		t.Fatalf("ByMask failure")
	}
	if !ExtendedMask(0x1ABC0000, 0x1FFF0000)(f3) || ExtendedMask(0x100, 0x7FF)(f1) {
		t.Fatalf("ExtendedMask failure")
	}
	if !StandardOnly()(f1) || StandardOnly()(f3) {
		t.Fatalf("StandardOnly failure")
	}
	if !ExtendedOnly()(f3) || ExtendedOnly()(f1) {
		t.Fatalf("ExtendedOnly failure")
	}
	rtr := f1
	rtr.RTR = true
	if !DataOnly()(f1) || DataOnly()(rtr) || !RTROnly()(rtr) {
		t.Fatalf("DataOnly/RTROnly failure")
	}
	if !LenAtMost(1)(f1) || !LenExactly(0)(f3) || LenExactly(0)(f1) {
		t.Fatalf("Len failure")
	}
	if !And(ByID(0x100), DataOnly())(f1) || And(ByID(0x100), DataOnly())(rtr) || !And(nil, ByID(0x100))(f1) {
		t.Fatalf("And failure")
	}
	if !Or(ByID(0x100), ByID(0x999))(f1) || Or(ByID(0x999), ByID(0x998))(f1) {
		t.Fatalf("Or failure")
	}
	if Not(ByID(0x100))(f1) || !Not(ByID(0x999))(f1) || Not(nil)(f1) {
		t.Fatalf("Not failure")
	}
}

func TestMux_Subscribe_Filtering_And_Close(t *testing.T) {
	ctx := context.Background()
	bus := NewLoopbackBus()
	defer bus.Close()
	m := NewMux(bus.Open())

	chA, cancelA := m.Subscribe(ByID(0x100), 1)
	chB, cancelB := m.Subscribe(ByRange(0x200, 0x2FF), 2)
	defer cancelB()

	producer := bus.Open()
	defer producer.Close()

	send := func(id uint32) { _ = producer.Send(ctx, MustFrame(id, []byte{1, 2, 3})) }

	send(0x100) // A
	send(0x210) // B
	send(0x105) // nobody

	select {
	case f := <-chA:
		if f.ID != 0x100 {
			t.Fatalf("A got %03X", f.ID)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for A")
	}
	select {
	case f := <-chB:
		if f.ID != 0x210 {
			t.Fatalf("B got %03X", f.ID)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for B")
	}
	select {
	case f := <-chA:
		t.Fatalf("A should be empty, got %03X", f.ID)
	case <-time.After(50 * time.Millisecond):
	}

	cancelA()
	send(0x100)
	select {
	case _, ok := <-chA:
		if ok {
			t.Fatalf("A should remain closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("A should be closed after cancel")
	}

	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, ok := <-chB; ok {
		t.Fatalf("B should be closed after mux close")
	}
	late, _ := m.Subscribe(nil, 1)
	if _, ok := <-late; ok {
		t.Fatalf("subscription on closed mux should be closed")
	}
}
