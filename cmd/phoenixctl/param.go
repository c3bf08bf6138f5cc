package main

import (
	"fmt"
	"strconv"

	"github.com/notnil/phoenixcan/phoenix"
	"github.com/spf13/cobra"
)

var (
	paramName     string
	paramOrdinal  int
	paramSubValue uint8
)

var paramCmd = &cobra.Command{
	Use:   "param",
	Short: "Read or write a single device parameter",
}

var paramGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Read one parameter",
	RunE: withSession(func(cmd *cobra.Command, s *session, _ []string) error {
		h, p, err := paramTarget()
		if err != nil {
			return err
		}
		v, err := s.Native(h).ConfigGetParameter(cmd.Context(), p, paramOrdinal, timeout)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s[%d] = %s\n", p, paramOrdinal, strconv.FormatFloat(v, 'g', -1, 64))
		return nil
	}),
}

var paramSetCmd = &cobra.Command{
	Use:   "set VALUE",
	Short: "Write one parameter",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
		h, p, err := paramTarget()
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", args[0], err)
		}
		if err := s.Native(h).ConfigSetParameter(cmd.Context(), p, v, paramSubValue, paramOrdinal, timeout); err != nil {
			return err
		}
		s.log.Info("parameter set", "device", h, "param", p, "ordinal", paramOrdinal, "value", v)
		return nil
	}),
}

func init() {
	for _, c := range []*cobra.Command{paramGetCmd, paramSetCmd} {
		addDeviceFlags(c)
		c.Flags().StringVarP(&paramName, "param", "p", "", "Parameter name (e.g. ProfileParamSlot_P) or number")
		c.Flags().IntVarP(&paramOrdinal, "ordinal", "o", 0, "Parameter ordinal (slot, PID loop or direction)")
		_ = c.MarkFlagRequired("param")
	}
	paramSetCmd.Flags().Uint8Var(&paramSubValue, "sub-value", 0, "Parameter sub value")
	paramCmd.AddCommand(paramGetCmd, paramSetCmd)
	rootCmd.AddCommand(paramCmd)
}

func paramTarget() (phoenix.Handle, phoenix.ParamEnum, error) {
	h, err := selectedHandle()
	if err != nil {
		return 0, 0, err
	}
	p, err := phoenix.ParseParamEnum(paramName)
	if err != nil {
		return 0, 0, err
	}
	return h, p, nil
}
