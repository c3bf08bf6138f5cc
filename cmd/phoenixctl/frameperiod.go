package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/notnil/phoenixcan/phoenix"
	"github.com/spf13/cobra"
)

var (
	framePeriodFrame string
	framePeriodSet   time.Duration
)

var framePeriodCmd = &cobra.Command{
	Use:   "frame-period",
	Short: "Read or change how often a device sends a status frame",
	Example: `  phoenixctl --iface can0 frame-period --id 3 --frame 0x1400
  phoenixctl --iface can0 frame-period --id 3 --frame 0x1440 --period 20ms`,
	RunE: withSession(func(cmd *cobra.Command, s *session, _ []string) error {
		h, err := selectedHandle()
		if err != nil {
			return err
		}
		frame, err := strconv.ParseUint(framePeriodFrame, 0, 32)
		if err != nil {
			return fmt.Errorf("invalid --frame %q: %w", framePeriodFrame, err)
		}
		n := s.Native(h)
		if cmd.Flags().Changed("period") {
			if err := phoenix.SetStatusFramePeriod(cmd.Context(), n, uint32(frame), framePeriodSet, timeout); err != nil {
				return err
			}
		}
		period, err := phoenix.GetStatusFramePeriod(cmd.Context(), n, uint32(frame), timeout)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s frame 0x%05X: %s\n", h, frame, period)
		return nil
	}),
}

func init() {
	addDeviceFlags(framePeriodCmd)
	framePeriodCmd.Flags().StringVar(&framePeriodFrame, "frame", "", "Status frame id, e.g. 0x1400")
	framePeriodCmd.Flags().DurationVar(&framePeriodSet, "period", 0, "New period (0..255ms)")
	_ = framePeriodCmd.MarkFlagRequired("frame")
	rootCmd.AddCommand(framePeriodCmd)
}
