// Package canlink talks to FRC CAN motor controllers and the CANifier over a
// canbus.Bus. It implements phoenix.Native for one device.
//
// The package covers:
//   - FRC 29-bit arbitration id composition and parsing
//   - parameter request/response frames (get and set by id and ordinal)
//   - a Link that waits for parameter confirmations with a timeout
//   - a status listener caching the latest payload of each status frame
//   - periodic writers for control frames and the robot heartbeat
//   - a Simulator that answers parameter requests from memory
//
// The frame layouts here are a host-side convention shared by Link and
// Simulator. Talking to vendor firmware goes through whatever adapter
// implements the same layout on the device side.
package canlink
