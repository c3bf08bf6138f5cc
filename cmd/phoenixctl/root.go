package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/notnil/phoenixcan/phoenix"
	"github.com/spf13/cobra"
)

var (
	// Bus selection flags
	ifaceName  string
	ifaceSetup bool
	slcanPort  string
	baudRate   int
	useSim     bool

	// Device access flags
	timeout       time.Duration
	sendHeartbeat bool

	// Logging flags
	logLevel  string
	logFrames bool
)

var rootCmd = &cobra.Command{
	Use:   "phoenixctl",
	Short: "Configure FRC CAN motor controllers",
	Long: `phoenixctl reads and writes the persistent configuration of Talon SRX,
Victor SPX and CANifier devices.

Bus selection (exactly one):
  SocketCAN: --iface can0 [--iface-setup]
  SLCAN:     --slcan /dev/ttyACM0 [--baud 115200]
  Simulated: --sim

Devices are addressed with --kind (talonsrx, victorspx, canifier) and --id.`,
	Version:       "0.3.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&ifaceName, "iface", "i", "", "SocketCAN interface")
	rootCmd.PersistentFlags().BoolVar(&ifaceSetup, "iface-setup", false, "Set the FRC bitrate and bring the interface up (needs CAP_NET_ADMIN)")
	rootCmd.PersistentFlags().StringVar(&slcanPort, "slcan", "", "Serial port of an SLCAN adapter")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (SLCAN only)")
	rootCmd.PersistentFlags().BoolVar(&useSim, "sim", false, "Use an in-process simulated bus")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", phoenix.DefaultConfigTimeout, "Per-parameter confirmation timeout")
	rootCmd.PersistentFlags().BoolVar(&sendHeartbeat, "heartbeat", false, "Send the FRC heartbeat (when no robot controller is on the bus)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logFrames, "log-frames", false, "Log every CAN frame at debug level")
}

func newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", logLevel)
	}
	if logFrames && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}
