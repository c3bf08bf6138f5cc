//go:build linux

package main

import (
	"fmt"

	"github.com/notnil/phoenixcan/canbus"
)

func dialSocketCAN(iface string, setup bool) (canbus.Bus, error) {
	if setup {
		up, err := canbus.IsInterfaceUp(iface)
		if err != nil {
			return nil, err
		}
		if !up {
			bitrate := uint32(canbus.FRCBitrate)
			if err := canbus.ConfigureLinuxCANInterface(iface, canbus.LinuxCANInterfaceOptions{Bitrate: &bitrate}); err != nil {
				return nil, canbus.RequireRootOrCapNetAdmin(err)
			}
			if err := canbus.SetInterfaceUp(iface); err != nil {
				return nil, canbus.RequireRootOrCapNetAdmin(err)
			}
		}
	}
	bus, err := canbus.DialSocketCAN(iface)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", iface, err)
	}
	return bus, nil
}
