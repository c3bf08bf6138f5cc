package main

import (
	"fmt"

	"github.com/notnil/phoenixcan/devconf"
	"github.com/notnil/phoenixcan/phoenix"
	"github.com/spf13/cobra"
)

var (
	applyFile       string
	applyDryRun     bool
	applyCheckAfter bool
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Write a robot configuration file to its devices",
	Long: `apply writes every device of a robot YAML file, continuing past failures.
Each device is reported as ok, warning or failed. The exit status is non-zero
if any device failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if applyDryRun {
			return printPlan(cmd)
		}
		return withSession(runApply)(cmd, args)
	},
}

func init() {
	applyCmd.Flags().StringVarP(&applyFile, "file", "f", "", "Robot configuration file (YAML)")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Validate the file and print it without touching the bus")
	applyCmd.Flags().BoolVar(&applyCheckAfter, "verify", false, "Read every device back and report differences")
	_ = applyCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(applyCmd)
}

// printPlan validates the robot file and prints the full configuration that
// apply would write. No bus is opened.
func printPlan(cmd *cobra.Command) error {
	f, err := devconf.Load(applyFile)
	if err != nil {
		return err
	}
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runApply(cmd *cobra.Command, s *session, _ []string) error {
	f, err := devconf.Load(applyFile)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	factory := func(h phoenix.Handle) phoenix.Native { return s.Native(h) }
	results, err := devconf.Apply(cmd.Context(), factory, f, timeout)
	for _, r := range results {
		fmt.Fprintf(out, "%-32s %s\n", r.Device, resultLabel(r.Err))
	}
	if phoenix.CodeOf(err).IsError() {
		return fmt.Errorf("apply: %w", err)
	}
	if !applyCheckAfter {
		return nil
	}

	snap, err := devconf.TakeSnapshot(cmd.Context(), factory, f, timeout)
	if phoenix.CodeOf(err).IsError() {
		return fmt.Errorf("verify: %w", err)
	}
	read := make(map[phoenix.Handle]devconf.Device, len(snap.Devices))
	for _, d := range snap.Devices {
		if h, err := d.Handle(); err == nil {
			read[h] = d
		}
	}
	var mismatched int
	for _, want := range f.Devices {
		h, _ := want.Handle()
		got, ok := read[h]
		if !ok {
			mismatched++
			fmt.Fprintf(out, "%s was not read back\n", want)
			continue
		}
		if diff := devconf.Diff(want, got); diff != "" {
			mismatched++
			fmt.Fprintf(out, "%s differs (-file +device):\n%s", got, diff)
		}
	}
	if mismatched > 0 {
		return fmt.Errorf("verify: %d device(s) differ from %s", mismatched, applyFile)
	}
	fmt.Fprintln(out, "verified")
	return nil
}

func resultLabel(err error) string {
	switch c := phoenix.CodeOf(err); {
	case err == nil:
		return "ok"
	case c.IsWarning():
		return "warning: " + err.Error()
	default:
		return "failed: " + err.Error()
	}
}
