package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/notnil/phoenixcan/canbus"
	"github.com/notnil/phoenixcan/canlink"
	"github.com/notnil/phoenixcan/phoenix"
	"github.com/spf13/cobra"
)

// simStatusPeriod is how often simulated devices publish status.
const simStatusPeriod = 20 * time.Millisecond

// session is one connection to the bus, shared by a command run.
type session struct {
	log     *slog.Logger
	net     *canlink.Network
	sim     *canlink.Simulator
	hb      *canlink.Heartbeat
	closers []io.Closer
}

func openSession() (*session, error) {
	log, err := newLogger()
	if err != nil {
		return nil, err
	}
	s := &session{log: log}

	var bus canbus.Bus
	switch {
	case useSim && ifaceName == "" && slcanPort == "":
		lb := canbus.NewLoopbackBus()
		s.sim = canlink.NewSimulator(lb.Open(), log)
		s.sim.StartStatus(simStatusPeriod)
		s.closers = append(s.closers, s.sim, lb)
		bus = lb.Open()
	case ifaceName != "" && slcanPort == "" && !useSim:
		bus, err = dialSocketCAN(ifaceName, ifaceSetup)
	case slcanPort != "" && ifaceName == "" && !useSim:
		bus, err = canbus.DialSLCAN(slcanPort, canbus.SLCANOptions{BaudRate: baudRate})
	default:
		return nil, errors.New("select exactly one of --iface, --slcan or --sim")
	}
	if err != nil {
		return nil, err
	}

	if logFrames {
		bus = canbus.NewLoggedBus(bus, log.With("component", "bus"), slog.LevelDebug, canbus.LogAll)
	}
	s.net = canlink.NewNetwork(bus, log)
	if sendHeartbeat {
		s.hb = canlink.StartHeartbeat(bus, canlink.DefaultHeartbeatPeriod, log)
	}
	log.Debug("session open", "iface", ifaceName, "slcan", slcanPort, "sim", useSim)
	return s, nil
}

// Native returns the device boundary of h. Simulated sessions create the
// device on first use.
func (s *session) Native(h phoenix.Handle) phoenix.Native {
	if s.sim != nil {
		s.sim.AddDevice(h)
	}
	return s.net.Link(h)
}

func (s *session) Close() error {
	if s.hb != nil {
		s.hb.Stop()
	}
	err := s.net.Close()
	for _, c := range s.closers {
		_ = c.Close()
	}
	return err
}

// withSession opens a session around a command body.
func withSession(run func(cmd *cobra.Command, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()
		return run(cmd, s, args)
	}
}

// Device selection flags shared by the single-device commands.
var (
	deviceKind string
	deviceID   int
)

func addDeviceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&deviceKind, "kind", "k", "talonsrx", "Device kind: talonsrx, victorspx, canifier")
	cmd.Flags().IntVar(&deviceID, "id", 0, "Device number (0-62)")
}

func parseBase(kind string) (phoenix.DeviceBase, error) {
	switch strings.ToLower(kind) {
	case "talonsrx", "talon":
		return phoenix.TalonSRXBase, nil
	case "victorspx", "victor":
		return phoenix.VictorSPXBase, nil
	case "canifier":
		return phoenix.CANifierBase, nil
	default:
		return 0, fmt.Errorf("unknown device kind %q", kind)
	}
}

func selectedHandle() (phoenix.Handle, error) {
	base, err := parseBase(deviceKind)
	if err != nil {
		return 0, err
	}
	return phoenix.NewHandle(base, deviceID)
}
