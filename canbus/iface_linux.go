//go:build linux

package canbus

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	"golang.org/x/sys/unix"
)

// Linux network interface helpers. Bringing interfaces up or down and
// changing the bitrate requires CAP_NET_ADMIN; without it the calls fail
// with EPERM, which RequireRootOrCapNetAdmin turns into a clearer message.

// FRCBitrate is the fixed arbitration bitrate of an FRC robot CAN bus.
const FRCBitrate = 1_000_000

func interfaceFlags(name string) (uint16, error) {
	ifr, err := unix.NewIfreq(name)
	if err != nil {
		return 0, fmt.Errorf("canbus: invalid interface name %q: %w", name, err)
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return 0, err
	}
	defer unix.Close(fd)
	if err := unix.IoctlIfreq(fd, unix.SIOCGIFFLAGS, ifr); err != nil {
		return 0, err
	}
	return ifr.Uint16(), nil
}

func setInterfaceFlags(name string, flags uint16) error {
	ifr, err := unix.NewIfreq(name)
	if err != nil {
		return fmt.Errorf("canbus: invalid interface name %q: %w", name, err)
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	ifr.SetUint16(flags)
	return unix.IoctlIfreq(fd, unix.SIOCSIFFLAGS, ifr)
}

// IsInterfaceUp returns true if the Linux network interface has IFF_UP set.
func IsInterfaceUp(name string) (bool, error) {
	flags, err := interfaceFlags(name)
	if err != nil {
		return false, err
	}
	return flags&unix.IFF_UP != 0, nil
}

// SetInterfaceUp sets IFF_UP on the given interface. Requires CAP_NET_ADMIN.
func SetInterfaceUp(name string) error {
	flags, err := interfaceFlags(name)
	if err != nil {
		return err
	}
	if flags&unix.IFF_UP != 0 {
		return nil
	}
	return setInterfaceFlags(name, flags|unix.IFF_UP)
}

// SetInterfaceDown clears IFF_UP on the given interface. Requires CAP_NET_ADMIN.
func SetInterfaceDown(name string) error {
	flags, err := interfaceFlags(name)
	if err != nil {
		return err
	}
	if flags&unix.IFF_UP == 0 {
		return nil
	}
	return setInterfaceFlags(name, flags&^unix.IFF_UP)
}

// RequireRootOrCapNetAdmin maps EPERM to an error advising to grant
// CAP_NET_ADMIN to the binary. Other errors are returned unchanged.
func RequireRootOrCapNetAdmin(err error) error {
	if errors.Is(err, unix.EPERM) {
		return fmt.Errorf("operation requires CAP_NET_ADMIN (or root): %w", err)
	}
	return err
}

// LinuxCANInterfaceOptions controls common CAN interface parameters through
// the system `ip` tool. Bitrate and restart-ms usually require the interface
// to be down; call SetInterfaceDown first and bring it back up afterwards.
type LinuxCANInterfaceOptions struct {
	// Bitrate in bits per second. FRC buses run at FRCBitrate.
	// If nil, bitrate is left unchanged.
	Bitrate *uint32

	// RestartMs sets automatic bus-off recovery delay in milliseconds.
	// If nil, restart-ms is left unchanged. Set to 0 to disable auto-restart.
	RestartMs *uint32

	// TxQueueLen sets the transmit queue length (number of packets).
	// If nil, txqueuelen is left unchanged.
	TxQueueLen *int
}

// ConfigureLinuxCANInterface applies the non-nil options to a Linux CAN
// interface by invoking iproute2. Requires CAP_NET_ADMIN (or root).
func ConfigureLinuxCANInterface(name string, opts LinuxCANInterfaceOptions) error {
	if len(name) == 0 || len(name) >= unix.IFNAMSIZ {
		return fmt.Errorf("canbus: invalid interface name %q", name)
	}

	if opts.TxQueueLen != nil {
		if err := runIP("link", "set", "dev", name, "txqueuelen", strconv.Itoa(*opts.TxQueueLen)); err != nil {
			return err
		}
	}

	if opts.Bitrate != nil || opts.RestartMs != nil {
		args := []string{"link", "set", "dev", name, "type", "can"}
		if opts.Bitrate != nil {
			args = append(args, "bitrate", strconv.FormatUint(uint64(*opts.Bitrate), 10))
		}
		if opts.RestartMs != nil {
			args = append(args, "restart-ms", strconv.FormatUint(uint64(*opts.RestartMs), 10))
		}
		if err := runIP(args...); err != nil {
			return err
		}
	}
	return nil
}

func runIP(args ...string) error {
	out, err := exec.Command("ip", args...).CombinedOutput()
	if err != nil {
		return RequireRootOrCapNetAdmin(fmt.Errorf("ip %v failed: %w; output: %s", args, err, string(out)))
	}
	return nil
}
