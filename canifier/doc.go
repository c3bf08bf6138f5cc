// Package canifier drives a CANifier: three LED strip channels, eleven
// general purpose pins, four PWM outputs and four PWM inputs.
//
// Outputs are written as control frames through the device's
// phoenix.Native. Inputs and bus voltage are decoded from the latest status
// frames, so a read fails with phoenix.SigNotUpdated until the device has
// sent one.
package canifier
