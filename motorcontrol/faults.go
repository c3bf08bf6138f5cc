package motorcontrol

import "strings"

// Fault bit positions shared by the live and sticky fault words.
const (
	faultUnderVoltage = 1 << iota
	faultForwardLimitSwitch
	faultReverseLimitSwitch
	faultForwardSoftLimit
	faultReverseSoftLimit
	faultHardwareFailure
	faultResetDuringEn
	faultSensorOverflow
	faultSensorOutOfPhase
	faultHardwareESDReset
	faultRemoteLossOfSignal
)

// Faults are the live faults of a motor controller, decoded from the general
// status frame.
type Faults struct {
	UnderVoltage       bool
	ForwardLimitSwitch bool
	ReverseLimitSwitch bool
	ForwardSoftLimit   bool
	ReverseSoftLimit   bool
	HardwareFailure    bool
	ResetDuringEn      bool
	SensorOverflow     bool
	SensorOutOfPhase   bool
	HardwareESDReset   bool
	RemoteLossOfSignal bool
}

// FaultsFromBits decodes a fault word.
func FaultsFromBits(bits uint32) Faults {
	return Faults{
		UnderVoltage:       bits&faultUnderVoltage != 0,
		ForwardLimitSwitch: bits&faultForwardLimitSwitch != 0,
		ReverseLimitSwitch: bits&faultReverseLimitSwitch != 0,
		ForwardSoftLimit:   bits&faultForwardSoftLimit != 0,
		ReverseSoftLimit:   bits&faultReverseSoftLimit != 0,
		HardwareFailure:    bits&faultHardwareFailure != 0,
		ResetDuringEn:      bits&faultResetDuringEn != 0,
		SensorOverflow:     bits&faultSensorOverflow != 0,
		SensorOutOfPhase:   bits&faultSensorOutOfPhase != 0,
		HardwareESDReset:   bits&faultHardwareESDReset != 0,
		RemoteLossOfSignal: bits&faultRemoteLossOfSignal != 0,
	}
}

// Bits encodes f back into a fault word.
func (f Faults) Bits() uint32 {
	var bits uint32
	set := func(on bool, bit uint32) {
		if on {
			bits |= bit
		}
	}
	set(f.UnderVoltage, faultUnderVoltage)
	set(f.ForwardLimitSwitch, faultForwardLimitSwitch)
	set(f.ReverseLimitSwitch, faultReverseLimitSwitch)
	set(f.ForwardSoftLimit, faultForwardSoftLimit)
	set(f.ReverseSoftLimit, faultReverseSoftLimit)
	set(f.HardwareFailure, faultHardwareFailure)
	set(f.ResetDuringEn, faultResetDuringEn)
	set(f.SensorOverflow, faultSensorOverflow)
	set(f.SensorOutOfPhase, faultSensorOutOfPhase)
	set(f.HardwareESDReset, faultHardwareESDReset)
	set(f.RemoteLossOfSignal, faultRemoteLossOfSignal)
	return bits
}

// HasAnyFault reports whether any fault is set.
func (f Faults) HasAnyFault() bool { return f.Bits() != 0 }

func (f Faults) String() string { return faultString(f.Bits()) }

// StickyFaults are faults latched by the device until cleared. There is no
// sticky hardware failure.
type StickyFaults struct {
	UnderVoltage       bool
	ForwardLimitSwitch bool
	ReverseLimitSwitch bool
	ForwardSoftLimit   bool
	ReverseSoftLimit   bool
	ResetDuringEn      bool
	SensorOverflow     bool
	SensorOutOfPhase   bool
	HardwareESDReset   bool
	RemoteLossOfSignal bool
}

// StickyFaultsFromBits decodes a sticky fault word.
func StickyFaultsFromBits(bits uint32) StickyFaults {
	f := FaultsFromBits(bits)
	return StickyFaults{
		UnderVoltage:       f.UnderVoltage,
		ForwardLimitSwitch: f.ForwardLimitSwitch,
		ReverseLimitSwitch: f.ReverseLimitSwitch,
		ForwardSoftLimit:   f.ForwardSoftLimit,
		ReverseSoftLimit:   f.ReverseSoftLimit,
		ResetDuringEn:      f.ResetDuringEn,
		SensorOverflow:     f.SensorOverflow,
		SensorOutOfPhase:   f.SensorOutOfPhase,
		HardwareESDReset:   f.HardwareESDReset,
		RemoteLossOfSignal: f.RemoteLossOfSignal,
	}
}

// Bits encodes f back into a sticky fault word.
func (f StickyFaults) Bits() uint32 {
	return Faults{
		UnderVoltage:       f.UnderVoltage,
		ForwardLimitSwitch: f.ForwardLimitSwitch,
		ReverseLimitSwitch: f.ReverseLimitSwitch,
		ForwardSoftLimit:   f.ForwardSoftLimit,
		ReverseSoftLimit:   f.ReverseSoftLimit,
		ResetDuringEn:      f.ResetDuringEn,
		SensorOverflow:     f.SensorOverflow,
		SensorOutOfPhase:   f.SensorOutOfPhase,
		HardwareESDReset:   f.HardwareESDReset,
		RemoteLossOfSignal: f.RemoteLossOfSignal,
	}.Bits()
}

// HasAnyFault reports whether any sticky fault is set.
func (f StickyFaults) HasAnyFault() bool { return f.Bits() != 0 }

func (f StickyFaults) String() string { return faultString(f.Bits()) }

var faultNames = []string{
	"UnderVoltage",
	"ForwardLimitSwitch",
	"ReverseLimitSwitch",
	"ForwardSoftLimit",
	"ReverseSoftLimit",
	"HardwareFailure",
	"ResetDuringEn",
	"SensorOverflow",
	"SensorOutOfPhase",
	"HardwareESDReset",
	"RemoteLossOfSignal",
}

func faultString(bits uint32) string {
	var names []string
	for i, name := range faultNames {
		if bits&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}
