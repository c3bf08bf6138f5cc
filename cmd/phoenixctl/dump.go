package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/notnil/phoenixcan/devconf"
	"github.com/notnil/phoenixcan/phoenix"
	"github.com/spf13/cobra"
)

var (
	dumpFile     string
	dumpSnapshot string
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Read device configurations back",
	Long: `dump reads the full configuration of one device (--kind, --id) or of every
device listed in a robot file (-f) and prints it as YAML. With --cbor the
result is also stored as a timestamped CBOR snapshot.`,
	RunE: withSession(runDump),
}

var showCmd = &cobra.Command{
	Use:   "show SNAPSHOT",
	Short: "Print a CBOR snapshot as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := devconf.ReadSnapshot(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# taken %s\n", snap.TakenAt.Format(time.RFC3339))
		data, err := snap.File().Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	addDeviceFlags(dumpCmd)
	dumpCmd.Flags().StringVarP(&dumpFile, "file", "f", "", "Read every device listed in this robot file")
	dumpCmd.Flags().StringVar(&dumpSnapshot, "cbor", "", "Also write a CBOR snapshot to this path")
	rootCmd.AddCommand(dumpCmd, showCmd)
}

func runDump(cmd *cobra.Command, s *session, _ []string) error {
	var f *devconf.File
	if dumpFile != "" {
		var err error
		if f, err = devconf.Load(dumpFile); err != nil {
			return err
		}
	} else {
		kind := devconf.Kind(deviceKind)
		if _, err := kind.Base(); err != nil {
			return errors.New("dump supports --kind talonsrx or victorspx")
		}
		d, err := devconf.NewDevice(kind, deviceID)
		if err != nil {
			return err
		}
		f = &devconf.File{Devices: []devconf.Device{d}}
	}

	factory := func(h phoenix.Handle) phoenix.Native { return s.Native(h) }
	snap, readErr := devconf.TakeSnapshot(cmd.Context(), factory, f, timeout)
	if phoenix.CodeOf(readErr).IsError() {
		return fmt.Errorf("dump: %w", readErr)
	}
	if readErr != nil {
		s.log.Warn("dump completed with warnings", "err", readErr)
	}

	data, err := snap.File().Marshal()
	if err != nil {
		return err
	}
	if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return err
	}
	if dumpSnapshot != "" {
		if err := devconf.WriteSnapshot(dumpSnapshot, snap); err != nil {
			return err
		}
		s.log.Info("snapshot written", "path", dumpSnapshot, "devices", len(snap.Devices))
	}
	return nil
}
