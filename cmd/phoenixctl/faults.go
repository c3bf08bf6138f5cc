package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/notnil/phoenixcan/canifier"
	"github.com/notnil/phoenixcan/motorcontrol"
	"github.com/notnil/phoenixcan/phoenix"
	"github.com/spf13/cobra"
)

var (
	faultsClear bool
	faultsWait  time.Duration
)

var faultsCmd = &cobra.Command{
	Use:   "faults",
	Short: "Print live and sticky faults of a device",
	RunE:  withSession(runFaults),
}

func init() {
	addDeviceFlags(faultsCmd)
	faultsCmd.Flags().BoolVar(&faultsClear, "clear", false, "Clear sticky faults after printing them")
	faultsCmd.Flags().DurationVar(&faultsWait, "wait", 500*time.Millisecond, "How long to wait for a status frame")
	rootCmd.AddCommand(faultsCmd)
}

// waitStatus polls read until the device has sent a general status frame.
func waitStatus(ctx context.Context, read func() error) error {
	ctx, cancel := context.WithTimeout(ctx, faultsWait)
	defer cancel()
	t := time.NewTicker(10 * time.Millisecond)
	defer t.Stop()
	for {
		err := read()
		if !errors.Is(err, phoenix.SigNotUpdated) {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-t.C:
		}
	}
}

func runFaults(cmd *cobra.Command, s *session, _ []string) error {
	h, err := selectedHandle()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if h.Base() == phoenix.CANifierBase {
		c, err := canifier.New(s.Native(h))
		if err != nil {
			return err
		}
		var live canifier.Faults
		err = waitStatus(ctx, func() (err error) { live, err = c.GetFaults(); return })
		if phoenix.CodeOf(err).IsError() {
			return err
		}
		sticky, err := c.GetStickyFaults(ctx, timeout)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "faults:        0x%08X\nsticky faults: 0x%08X\n", uint32(live), uint32(sticky))
		if faultsClear {
			return c.ClearStickyFaults(ctx, timeout)
		}
		return nil
	}

	m := motorcontrol.NewBaseMotorController(s.Native(h))
	var live motorcontrol.Faults
	err = waitStatus(ctx, func() (err error) { live, err = m.GetFaults(); return })
	if phoenix.CodeOf(err).IsError() {
		return err
	}
	if err != nil {
		s.log.Warn("status is stale", "device", h, "err", err)
	}
	sticky, err := m.GetStickyFaults(ctx, timeout)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "faults:        %s\nsticky faults: %s\n", live, sticky)
	if faultsClear {
		if err := m.ClearStickyFaults(ctx, timeout); err != nil {
			return err
		}
		s.log.Info("sticky faults cleared", "device", h)
	}
	return nil
}
