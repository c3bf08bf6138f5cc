package devconf

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// paramTolerance covers the float32 rounding of values sent over the bus.
const paramTolerance = 1e-6

// Diff compares the configuration of want with the one read back in got and
// returns a human readable difference, or "" when they match. Names are
// ignored and floating point values are compared with a relative tolerance
// that absorbs float32 rounding.
func Diff(want, got Device) string {
	want.Name, got.Name = "", ""
	return cmp.Diff(want, got, cmpopts.EquateApprox(paramTolerance, 0))
}
