//go:build !linux

package main

import (
	"errors"

	"github.com/notnil/phoenixcan/canbus"
)

func dialSocketCAN(string, bool) (canbus.Bus, error) {
	return nil, errors.New("SocketCAN is only available on Linux; use --slcan or --sim")
}
