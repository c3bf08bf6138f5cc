package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var firmwareCmd = &cobra.Command{
	Use:   "firmware",
	Short: "Print the firmware version of a device",
	RunE: withSession(func(cmd *cobra.Command, s *session, _ []string) error {
		h, err := selectedHandle()
		if err != nil {
			return err
		}
		v, err := s.Native(h).GetFirmwareVersion(cmd.Context(), timeout)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s firmware %d.%d\n", h, v>>8, v&0xFF)
		return nil
	}),
}

func init() {
	addDeviceFlags(firmwareCmd)
	rootCmd.AddCommand(firmwareCmd)
}
