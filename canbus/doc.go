// Package canbus provides the frame-level transport used to reach CAN motor
// controllers from a host.
//
// It includes:
//   - A core Frame type with validation and binary marshaling helpers
//   - An in-memory loopback bus for tests and simulations
//   - A frame multiplexer with composable filters
//   - A Linux SocketCAN driver (linux-only) via raw syscalls
//   - An SLCAN driver for serial USB-CAN adapters
package canbus
