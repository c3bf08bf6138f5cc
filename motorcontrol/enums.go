package motorcontrol

import (
	"fmt"
	"math"
	"strconv"
)

// enumNames maps enum values to their names for String, MarshalText and
// UnmarshalText. Aliases are accepted when parsing but never printed.
type enumNames[T ~int] struct {
	typ     string
	names   map[T]string
	aliases map[string]T
}

func (e enumNames[T]) name(v T) string {
	if n, ok := e.names[v]; ok {
		return n
	}
	return fmt.Sprintf("%s(%d)", e.typ, int(v))
}

func (e enumNames[T]) parse(s string) (T, error) {
	for v, n := range e.names {
		if n == s {
			return v, nil
		}
	}
	if v, ok := e.aliases[s]; ok {
		return v, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return T(n), nil
	}
	return 0, fmt.Errorf("motorcontrol: unknown %s %q", e.typ, s)
}

func round(v float64) int { return int(math.Round(v)) }

// FeedbackDevice selects the sensor a Talon SRX closes its loop on.
type FeedbackDevice int

const (
	QuadEncoder               FeedbackDevice = 0
	Analog                    FeedbackDevice = 2
	Tachometer                FeedbackDevice = 4
	PulseWidthEncodedPosition FeedbackDevice = 8
	SensorSum                 FeedbackDevice = 9
	SensorDifference          FeedbackDevice = 10
	RemoteSensor0             FeedbackDevice = 11
	RemoteSensor1             FeedbackDevice = 12
	NoFeedbackDevice          FeedbackDevice = 14
	SoftwareEmulatedSensor    FeedbackDevice = 15

	CTREMagEncoderAbsolute = PulseWidthEncodedPosition
	CTREMagEncoderRelative = QuadEncoder
)

var feedbackDeviceNames = enumNames[FeedbackDevice]{
	typ: "FeedbackDevice",
	names: map[FeedbackDevice]string{
		QuadEncoder:               "QuadEncoder",
		Analog:                    "Analog",
		Tachometer:                "Tachometer",
		PulseWidthEncodedPosition: "PulseWidthEncodedPosition",
		SensorSum:                 "SensorSum",
		SensorDifference:          "SensorDifference",
		RemoteSensor0:             "RemoteSensor0",
		RemoteSensor1:             "RemoteSensor1",
		NoFeedbackDevice:          "None",
		SoftwareEmulatedSensor:    "SoftwareEmulatedSensor",
	},
	aliases: map[string]FeedbackDevice{
		"CTRE_MagEncoder_Absolute": CTREMagEncoderAbsolute,
		"CTRE_MagEncoder_Relative": CTREMagEncoderRelative,
		"CTREMagEncoderAbsolute":   CTREMagEncoderAbsolute,
		"CTREMagEncoderRelative":   CTREMagEncoderRelative,
	},
}

// FeedbackDeviceOf decodes a parameter value.
func FeedbackDeviceOf(v float64) FeedbackDevice { return FeedbackDevice(round(v)) }

func (d FeedbackDevice) String() string { return feedbackDeviceNames.name(d) }

func (d FeedbackDevice) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *FeedbackDevice) UnmarshalText(b []byte) (err error) {
	*d, err = feedbackDeviceNames.parse(string(b))
	return err
}

// RemoteFeedbackDevice selects the sensor of a controller without local
// sensor inputs, such as the Victor SPX.
type RemoteFeedbackDevice int

const (
	RemoteSensorSum              RemoteFeedbackDevice = 9
	RemoteSensorDifference       RemoteFeedbackDevice = 10
	RemoteFeedbackSensor0        RemoteFeedbackDevice = 11
	RemoteFeedbackSensor1        RemoteFeedbackDevice = 12
	NoRemoteFeedbackDevice       RemoteFeedbackDevice = 14
	RemoteSoftwareEmulatedSensor RemoteFeedbackDevice = 15
)

var remoteFeedbackDeviceNames = enumNames[RemoteFeedbackDevice]{
	typ: "RemoteFeedbackDevice",
	names: map[RemoteFeedbackDevice]string{
		RemoteSensorSum:              "SensorSum",
		RemoteSensorDifference:       "SensorDifference",
		RemoteFeedbackSensor0:        "RemoteSensor0",
		RemoteFeedbackSensor1:        "RemoteSensor1",
		NoRemoteFeedbackDevice:       "None",
		RemoteSoftwareEmulatedSensor: "SoftwareEmulatedSensor",
	},
}

// RemoteFeedbackDeviceOf decodes a parameter value.
func RemoteFeedbackDeviceOf(v float64) RemoteFeedbackDevice { return RemoteFeedbackDevice(round(v)) }

func (d RemoteFeedbackDevice) String() string { return remoteFeedbackDeviceNames.name(d) }

func (d RemoteFeedbackDevice) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *RemoteFeedbackDevice) UnmarshalText(b []byte) (err error) {
	*d, err = remoteFeedbackDeviceNames.parse(string(b))
	return err
}

// RemoteSensorSource is the kind of device a remote filter listens to.
type RemoteSensorSource int

const (
	RemoteSensorOff        RemoteSensorSource = 0
	TalonSRXSelectedSensor RemoteSensorSource = 1
	PigeonYaw              RemoteSensorSource = 2
	PigeonPitch            RemoteSensorSource = 3
	PigeonRoll             RemoteSensorSource = 4
	CANifierQuadrature     RemoteSensorSource = 5
	CANifierPWMInput0      RemoteSensorSource = 6
	CANifierPWMInput1      RemoteSensorSource = 7
	CANifierPWMInput2      RemoteSensorSource = 8
	CANifierPWMInput3      RemoteSensorSource = 9
	GadgeteerPigeonYaw     RemoteSensorSource = 10
	GadgeteerPigeonPitch   RemoteSensorSource = 11
	GadgeteerPigeonRoll    RemoteSensorSource = 12
)

var remoteSensorSourceNames = enumNames[RemoteSensorSource]{
	typ: "RemoteSensorSource",
	names: map[RemoteSensorSource]string{
		RemoteSensorOff:        "Off",
		TalonSRXSelectedSensor: "TalonSRX_SelectedSensor",
		PigeonYaw:              "Pigeon_Yaw",
		PigeonPitch:            "Pigeon_Pitch",
		PigeonRoll:             "Pigeon_Roll",
		CANifierQuadrature:     "CANifier_Quadrature",
		CANifierPWMInput0:      "CANifier_PWMInput0",
		CANifierPWMInput1:      "CANifier_PWMInput1",
		CANifierPWMInput2:      "CANifier_PWMInput2",
		CANifierPWMInput3:      "CANifier_PWMInput3",
		GadgeteerPigeonYaw:     "GadgeteerPigeon_Yaw",
		GadgeteerPigeonPitch:   "GadgeteerPigeon_Pitch",
		GadgeteerPigeonRoll:    "GadgeteerPigeon_Roll",
	},
}

// RemoteSensorSourceOf decodes a parameter value.
func RemoteSensorSourceOf(v float64) RemoteSensorSource { return RemoteSensorSource(round(v)) }

func (s RemoteSensorSource) String() string { return remoteSensorSourceNames.name(s) }

func (s RemoteSensorSource) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *RemoteSensorSource) UnmarshalText(b []byte) (err error) {
	*s, err = remoteSensorSourceNames.parse(string(b))
	return err
}

// LimitSwitchSource is where a Talon SRX reads a limit switch from.
type LimitSwitchSource int

const (
	FeedbackConnector         LimitSwitchSource = 0
	LimitSwitchRemoteTalonSRX LimitSwitchSource = 1
	LimitSwitchRemoteCANifier LimitSwitchSource = 2
	LimitSwitchDeactivated    LimitSwitchSource = 3
)

var limitSwitchSourceNames = enumNames[LimitSwitchSource]{
	typ: "LimitSwitchSource",
	names: map[LimitSwitchSource]string{
		FeedbackConnector:         "FeedbackConnector",
		LimitSwitchRemoteTalonSRX: "RemoteTalonSRX",
		LimitSwitchRemoteCANifier: "RemoteCANifier",
		LimitSwitchDeactivated:    "Deactivated",
	},
}

// LimitSwitchSourceOf decodes a parameter value.
func LimitSwitchSourceOf(v float64) LimitSwitchSource { return LimitSwitchSource(round(v)) }

func (s LimitSwitchSource) String() string { return limitSwitchSourceNames.name(s) }

func (s LimitSwitchSource) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *LimitSwitchSource) UnmarshalText(b []byte) (err error) {
	*s, err = limitSwitchSourceNames.parse(string(b))
	return err
}

// RemoteLimitSwitchSource is where a Victor SPX reads a limit switch from.
type RemoteLimitSwitchSource int

const (
	RemoteTalonSRX               RemoteLimitSwitchSource = 1
	RemoteCANifier               RemoteLimitSwitchSource = 2
	RemoteLimitSwitchDeactivated RemoteLimitSwitchSource = 3
)

var remoteLimitSwitchSourceNames = enumNames[RemoteLimitSwitchSource]{
	typ: "RemoteLimitSwitchSource",
	names: map[RemoteLimitSwitchSource]string{
		RemoteTalonSRX:               "RemoteTalonSRX",
		RemoteCANifier:               "RemoteCANifier",
		RemoteLimitSwitchDeactivated: "Deactivated",
	},
}

// RemoteLimitSwitchSourceOf decodes a parameter value.
func RemoteLimitSwitchSourceOf(v float64) RemoteLimitSwitchSource {
	return RemoteLimitSwitchSource(round(v))
}

func (s RemoteLimitSwitchSource) String() string { return remoteLimitSwitchSourceNames.name(s) }

func (s RemoteLimitSwitchSource) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *RemoteLimitSwitchSource) UnmarshalText(b []byte) (err error) {
	*s, err = remoteLimitSwitchSourceNames.parse(string(b))
	return err
}

// LimitSwitchNormal is the resting state of a limit switch.
type LimitSwitchNormal int

const (
	NormallyOpen        LimitSwitchNormal = 0
	NormallyClosed      LimitSwitchNormal = 1
	LimitSwitchDisabled LimitSwitchNormal = 2
)

var limitSwitchNormalNames = enumNames[LimitSwitchNormal]{
	typ: "LimitSwitchNormal",
	names: map[LimitSwitchNormal]string{
		NormallyOpen:        "NormallyOpen",
		NormallyClosed:      "NormallyClosed",
		LimitSwitchDisabled: "Disabled",
	},
}

// LimitSwitchNormalOf decodes a parameter value.
func LimitSwitchNormalOf(v float64) LimitSwitchNormal { return LimitSwitchNormal(round(v)) }

func (n LimitSwitchNormal) String() string { return limitSwitchNormalNames.name(n) }

func (n LimitSwitchNormal) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

func (n *LimitSwitchNormal) UnmarshalText(b []byte) (err error) {
	*n, err = limitSwitchNormalNames.parse(string(b))
	return err
}

// SensorTerm is one input of the sum and difference virtual sensors. It is
// used as the ordinal of the SensorTerm parameter.
type SensorTerm int

const (
	Sum0  SensorTerm = 0
	Sum1  SensorTerm = 1
	Diff0 SensorTerm = 2
	Diff1 SensorTerm = 3
)

var sensorTermNames = enumNames[SensorTerm]{
	typ: "SensorTerm",
	names: map[SensorTerm]string{
		Sum0:  "Sum0",
		Sum1:  "Sum1",
		Diff0: "Diff0",
		Diff1: "Diff1",
	},
}

func (s SensorTerm) String() string { return sensorTermNames.name(s) }

// VelocityMeasPeriod is the sampling period of the velocity measurement.
type VelocityMeasPeriod int

const (
	Period1Ms   VelocityMeasPeriod = 1
	Period2Ms   VelocityMeasPeriod = 2
	Period5Ms   VelocityMeasPeriod = 5
	Period10Ms  VelocityMeasPeriod = 10
	Period20Ms  VelocityMeasPeriod = 20
	Period25Ms  VelocityMeasPeriod = 25
	Period50Ms  VelocityMeasPeriod = 50
	Period100Ms VelocityMeasPeriod = 100
)

var velocityMeasPeriodNames = enumNames[VelocityMeasPeriod]{
	typ: "VelocityMeasPeriod",
	names: map[VelocityMeasPeriod]string{
		Period1Ms:   "Period_1Ms",
		Period2Ms:   "Period_2Ms",
		Period5Ms:   "Period_5Ms",
		Period10Ms:  "Period_10Ms",
		Period20Ms:  "Period_20Ms",
		Period25Ms:  "Period_25Ms",
		Period50Ms:  "Period_50Ms",
		Period100Ms: "Period_100Ms",
	},
}

// VelocityMeasPeriodOf decodes a parameter value.
func VelocityMeasPeriodOf(v float64) VelocityMeasPeriod { return VelocityMeasPeriod(round(v)) }

func (p VelocityMeasPeriod) String() string { return velocityMeasPeriodNames.name(p) }

func (p VelocityMeasPeriod) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *VelocityMeasPeriod) UnmarshalText(b []byte) (err error) {
	*p, err = velocityMeasPeriodNames.parse(string(b))
	return err
}

// NeutralMode is the motor behaviour at zero output.
type NeutralMode int

const (
	EEPROMSetting NeutralMode = 0
	Coast         NeutralMode = 1
	Brake         NeutralMode = 2
)

var neutralModeNames = enumNames[NeutralMode]{
	typ: "NeutralMode",
	names: map[NeutralMode]string{
		EEPROMSetting: "EEPROMSetting",
		Coast:         "Coast",
		Brake:         "Brake",
	},
}

func (m NeutralMode) String() string { return neutralModeNames.name(m) }

func (m NeutralMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *NeutralMode) UnmarshalText(b []byte) (err error) {
	*m, err = neutralModeNames.parse(string(b))
	return err
}

// StatusFrame is a status frame every motor controller sends.
type StatusFrame uint32

const (
	Status1General           StatusFrame = 0x1400
	Status2Feedback0         StatusFrame = 0x1440
	Status4AinTempVbat       StatusFrame = 0x14C0
	Status6Misc              StatusFrame = 0x1540
	Status7CommStatus        StatusFrame = 0x1580
	Status9MotProfBuffer     StatusFrame = 0x1600
	Status10MotionMagic      StatusFrame = 0x1640
	Status10Targets          StatusFrame = 0x1640
	Status12Feedback1        StatusFrame = 0x16C0
	Status13BasePIDF0        StatusFrame = 0x1700
	Status14TurnPIDF1        StatusFrame = 0x1740
	Status15FirmareAPIStatus StatusFrame = 0x1780
)

var statusFrameNames = map[uint32]string{
	0x1400: "Status_1_General",
	0x1440: "Status_2_Feedback0",
	0x1480: "Status_3_Quadrature",
	0x14C0: "Status_4_AinTempVbat",
	0x1540: "Status_6_Misc",
	0x1580: "Status_7_CommStatus",
	0x15C0: "Status_8_PulseWidth",
	0x1600: "Status_9_MotProfBuffer",
	0x1640: "Status_10_MotionMagic",
	0x1680: "Status_11_UartGadgeteer",
	0x16C0: "Status_12_Feedback1",
	0x1700: "Status_13_Base_PIDF0",
	0x1740: "Status_14_Turn_PIDF1",
	0x1780: "Status_15_FirmareApiStatus",
}

func frameName(v uint32, typ string) string {
	if n, ok := statusFrameNames[v]; ok {
		return n
	}
	return fmt.Sprintf("%s(0x%X)", typ, v)
}

func (f StatusFrame) String() string { return frameName(uint32(f), "StatusFrame") }

// StatusFrameEnhanced adds the status frames of controllers with local
// sensor inputs.
type StatusFrameEnhanced uint32

const (
	Status3Quadrature     StatusFrameEnhanced = 0x1480
	Status8PulseWidth     StatusFrameEnhanced = 0x15C0
	Status11UartGadgeteer StatusFrameEnhanced = 0x1680
)

// Enhanced returns the enhanced form of a basic status frame.
func (f StatusFrame) Enhanced() StatusFrameEnhanced { return StatusFrameEnhanced(f) }

func (f StatusFrameEnhanced) String() string { return frameName(uint32(f), "StatusFrameEnhanced") }

// ControlFrame is a periodic frame sent to a motor controller.
type ControlFrame uint32

const (
	Control3General             ControlFrame = 0x040080
	Control4Advanced            ControlFrame = 0x0400C0
	Control6MotProfAddTrajPoint ControlFrame = 0x040140
)

func (f ControlFrame) String() string {
	switch f {
	case Control3General:
		return "Control_3_General"
	case Control4Advanced:
		return "Control_4_Advanced"
	case Control6MotProfAddTrajPoint:
		return "Control_6_MotProfAddTrajPoint"
	default:
		return fmt.Sprintf("ControlFrame(0x%X)", uint32(f))
	}
}
