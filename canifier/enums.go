package canifier

import "fmt"

// GeneralPin is one of the eleven general purpose pins.
type GeneralPin int

const (
	QuadIdx      GeneralPin = 0
	QuadB        GeneralPin = 1
	QuadA        GeneralPin = 2
	LimR         GeneralPin = 3
	LimF         GeneralPin = 4
	SDA          GeneralPin = 5
	SCL          GeneralPin = 6
	SPICS        GeneralPin = 7
	SPIMisoPWM2P GeneralPin = 8
	SPIMosiPWM1P GeneralPin = 9
	SPIClkPWM0P  GeneralPin = 10

	numPins = 11
)

var pinNames = [numPins]string{
	"QUAD_IDX", "QUAD_B", "QUAD_A", "LIMR", "LIMF", "SDA", "SCL",
	"SPI_CS", "SPI_MISO_PWM2P", "SPI_MOSI_PWM1P", "SPI_CLK_PWM0P",
}

func (p GeneralPin) String() string {
	if p >= 0 && p < numPins {
		return pinNames[p]
	}
	return fmt.Sprintf("GeneralPin(%d)", int(p))
}

// LEDChannel is one of the three LED strip outputs.
type LEDChannel int

const (
	LEDChannelA LEDChannel = 0
	LEDChannelB LEDChannel = 1
	LEDChannelC LEDChannel = 2
)

func (c LEDChannel) String() string {
	switch c {
	case LEDChannelA:
		return "LEDChannelA"
	case LEDChannelB:
		return "LEDChannelB"
	case LEDChannelC:
		return "LEDChannelC"
	default:
		return fmt.Sprintf("LEDChannel(%d)", int(c))
	}
}

// PWMChannel is one of the four PWM inputs or outputs.
type PWMChannel int

const (
	PWMChannel0 PWMChannel = 0
	PWMChannel1 PWMChannel = 1
	PWMChannel2 PWMChannel = 2
	PWMChannel3 PWMChannel = 3
)

func (c PWMChannel) String() string { return fmt.Sprintf("PWMChannel%d", int(c)) }

// StatusFrame is a status frame the CANifier sends.
type StatusFrame uint32

const (
	Status1General    StatusFrame = 0x041400
	Status2General    StatusFrame = 0x041440
	Status3PwmInputs0 StatusFrame = 0x041480
	Status4PwmInputs1 StatusFrame = 0x0414C0
	Status5PwmInputs2 StatusFrame = 0x041500
	Status6PwmInputs3 StatusFrame = 0x041540
	Status8Misc       StatusFrame = 0x0415C0
)

var statusFrameNames = map[StatusFrame]string{
	Status1General:    "Status_1_General",
	Status2General:    "Status_2_General",
	Status3PwmInputs0: "Status_3_PwmInputs0",
	Status4PwmInputs1: "Status_4_PwmInputs1",
	Status5PwmInputs2: "Status_5_PwmInputs2",
	Status6PwmInputs3: "Status_6_PwmInputs3",
	Status8Misc:       "Status_8_Misc",
}

func (f StatusFrame) String() string {
	if n, ok := statusFrameNames[f]; ok {
		return n
	}
	return fmt.Sprintf("StatusFrame(0x%X)", uint32(f))
}

// pwmInputFrame returns the status frame carrying PWM input ch.
func pwmInputFrame(ch PWMChannel) StatusFrame {
	return Status3PwmInputs0 + StatusFrame(ch)*0x40
}

// ControlFrame is a periodic frame sent to the CANifier.
type ControlFrame uint32

const (
	Control1General   ControlFrame = 0x040000
	Control2PwmOutput ControlFrame = 0x040040
)

func (f ControlFrame) String() string {
	switch f {
	case Control1General:
		return "Control_1_General"
	case Control2PwmOutput:
		return "Control_2_PwmOutput"
	default:
		return fmt.Sprintf("ControlFrame(0x%X)", uint32(f))
	}
}
