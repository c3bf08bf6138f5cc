package devconf

import (
	"context"
	"fmt"
	"time"

	"github.com/notnil/phoenixcan/motorcontrol"
	"github.com/notnil/phoenixcan/phoenix"
)

// NativeFactory returns the Native of the device at h, for example
// (*canlink.Network).Link.
type NativeFactory func(h phoenix.Handle) phoenix.Native

// Result is the outcome of configuring or reading one device.
type Result struct {
	Device Device
	Err    error
}

// Apply writes the configuration of every device in f and returns one
// Result per device, in file order, along with the worst error overall.
// A failing device does not stop the others.
func Apply(ctx context.Context, factory NativeFactory, f *File, timeout time.Duration) ([]Result, error) {
	results := make([]Result, 0, len(f.Devices))
	var errs phoenix.ErrorCollection
	for _, d := range f.Devices {
		err := applyDevice(ctx, factory, d, timeout)
		if err != nil {
			err = fmt.Errorf("devconf: configure %v: %w", d, err)
		}
		errs.Add(err)
		results = append(results, Result{Device: d, Err: err})
		if ctx.Err() != nil {
			break
		}
	}
	return results, errs.Err()
}

func applyDevice(ctx context.Context, factory NativeFactory, d Device, timeout time.Duration) error {
	h, err := d.Handle()
	if err != nil {
		return err
	}
	n := factory(h)
	switch {
	case d.TalonSRX != nil:
		talon, err := motorcontrol.NewTalonSRX(n)
		if err != nil {
			return err
		}
		return talon.ConfigAllSettings(ctx, d.TalonSRX, timeout)
	case d.VictorSPX != nil:
		victor, err := motorcontrol.NewVictorSPX(n)
		if err != nil {
			return err
		}
		return victor.ConfigAllSettings(ctx, d.VictorSPX, timeout)
	default:
		return fmt.Errorf("no configuration for kind %s: %w", d.Kind, phoenix.InvalidParamValue)
	}
}

// Read reads back the full configuration of one device. The returned Device
// holds whatever was read even when err is not nil.
func Read(ctx context.Context, factory NativeFactory, kind Kind, id int, timeout time.Duration) (Device, error) {
	d, err := NewDevice(kind, id)
	if err != nil {
		return Device{}, err
	}
	h, err := d.Handle()
	if err != nil {
		return Device{}, err
	}
	n := factory(h)
	switch kind {
	case KindTalonSRX:
		talon, err := motorcontrol.NewTalonSRX(n)
		if err != nil {
			return Device{}, err
		}
		err = talon.GetAllConfigs(ctx, d.TalonSRX, timeout)
		return d, wrapRead(d, err)
	default:
		victor, err := motorcontrol.NewVictorSPX(n)
		if err != nil {
			return Device{}, err
		}
		err = victor.GetAllConfigs(ctx, d.VictorSPX, timeout)
		return d, wrapRead(d, err)
	}
}

func wrapRead(d Device, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("devconf: read %v: %w", d, err)
}

// TakeSnapshot reads back every device of f. Devices that fail to read are
// still included with the values that could be read.
func TakeSnapshot(ctx context.Context, factory NativeFactory, f *File, timeout time.Duration) (Snapshot, error) {
	s := Snapshot{TakenAt: time.Now().UTC()}
	var errs phoenix.ErrorCollection
	for _, want := range f.Devices {
		d, err := Read(ctx, factory, want.Kind, want.ID, timeout)
		errs.Add(err)
		if d.Kind == "" {
			continue
		}
		d.Name = want.Name
		s.Devices = append(s.Devices, d)
	}
	return s, errs.Err()
}
