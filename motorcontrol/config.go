package motorcontrol

// Configuration structs mirror the persistent settings of a controller.
// They are plain values: configure calls read them, get calls fill them.
// The yaml tags are the keys used in robot configuration files and the cbor
// tags the keys of configuration snapshots.

// SlotConfiguration holds the gains of one closed-loop slot.
type SlotConfiguration struct {
	KP                       float64 `yaml:"kP" cbor:"kP"`
	KI                       float64 `yaml:"kI" cbor:"kI"`
	KD                       float64 `yaml:"kD" cbor:"kD"`
	KF                       float64 `yaml:"kF" cbor:"kF"`
	IntegralZone             int     `yaml:"integralZone" cbor:"integralZone"`
	AllowableClosedloopError int     `yaml:"allowableClosedloopError" cbor:"allowableClosedloopError"`
	MaxIntegralAccumulator   float64 `yaml:"maxIntegralAccumulator" cbor:"maxIntegralAccumulator"`
	ClosedLoopPeakOutput     float64 `yaml:"closedLoopPeakOutput" cbor:"closedLoopPeakOutput"`
	ClosedLoopPeriod         int     `yaml:"closedLoopPeriod" cbor:"closedLoopPeriod"`
}

// NewSlotConfiguration returns the factory default slot.
func NewSlotConfiguration() SlotConfiguration {
	return SlotConfiguration{
		ClosedLoopPeakOutput: 1,
		ClosedLoopPeriod:     1,
	}
}

// FilterConfiguration selects the device a remote sensor filter follows.
type FilterConfiguration struct {
	RemoteSensorDeviceID int                `yaml:"remoteSensorDeviceID" cbor:"remoteSensorDeviceID"`
	RemoteSensorSource   RemoteSensorSource `yaml:"remoteSensorSource" cbor:"remoteSensorSource"`
}

// CustomParamConfiguration holds the two application-defined integers every
// device stores.
type CustomParamConfiguration struct {
	CustomParam0 int `yaml:"customParam0" cbor:"customParam0"`
	CustomParam1 int `yaml:"customParam1" cbor:"customParam1"`
}

// BasePIDSetConfiguration holds the settings of one PID loop shared by
// every controller.
type BasePIDSetConfiguration struct {
	SelectedFeedbackCoefficient float64 `yaml:"selectedFeedbackCoefficient" cbor:"selectedFeedbackCoefficient"`
}

// NewBasePIDSetConfiguration returns the factory default PID set.
func NewBasePIDSetConfiguration() BasePIDSetConfiguration {
	return BasePIDSetConfiguration{SelectedFeedbackCoefficient: 1}
}

// BaseMotorControllerConfiguration holds the persistent settings shared by
// every motor controller.
type BaseMotorControllerConfiguration struct {
	CustomParamConfiguration `yaml:",inline"`

	OpenloopRamp                              float64             `yaml:"openloopRamp" cbor:"openloopRamp"`
	ClosedloopRamp                            float64             `yaml:"closedloopRamp" cbor:"closedloopRamp"`
	PeakOutputForward                         float64             `yaml:"peakOutputForward" cbor:"peakOutputForward"`
	PeakOutputReverse                         float64             `yaml:"peakOutputReverse" cbor:"peakOutputReverse"`
	NominalOutputForward                      float64             `yaml:"nominalOutputForward" cbor:"nominalOutputForward"`
	NominalOutputReverse                      float64             `yaml:"nominalOutputReverse" cbor:"nominalOutputReverse"`
	NeutralDeadband                           float64             `yaml:"neutralDeadband" cbor:"neutralDeadband"`
	VoltageCompSaturation                     float64             `yaml:"voltageCompSaturation" cbor:"voltageCompSaturation"`
	VoltageMeasurementFilter                  int                 `yaml:"voltageMeasurementFilter" cbor:"voltageMeasurementFilter"`
	VelocityMeasurementPeriod                 VelocityMeasPeriod  `yaml:"velocityMeasurementPeriod" cbor:"velocityMeasurementPeriod"`
	VelocityMeasurementWindow                 int                 `yaml:"velocityMeasurementWindow" cbor:"velocityMeasurementWindow"`
	ForwardSoftLimitThreshold                 int                 `yaml:"forwardSoftLimitThreshold" cbor:"forwardSoftLimitThreshold"`
	ReverseSoftLimitThreshold                 int                 `yaml:"reverseSoftLimitThreshold" cbor:"reverseSoftLimitThreshold"`
	ForwardSoftLimitEnable                    bool                `yaml:"forwardSoftLimitEnable" cbor:"forwardSoftLimitEnable"`
	ReverseSoftLimitEnable                    bool                `yaml:"reverseSoftLimitEnable" cbor:"reverseSoftLimitEnable"`
	Slot0                                     SlotConfiguration   `yaml:"slot0" cbor:"slot0"`
	Slot1                                     SlotConfiguration   `yaml:"slot1" cbor:"slot1"`
	Slot2                                     SlotConfiguration   `yaml:"slot2" cbor:"slot2"`
	Slot3                                     SlotConfiguration   `yaml:"slot3" cbor:"slot3"`
	AuxPIDPolarity                            bool                `yaml:"auxPIDPolarity" cbor:"auxPIDPolarity"`
	RemoteFilter0                             FilterConfiguration `yaml:"remoteFilter0" cbor:"remoteFilter0"`
	RemoteFilter1                             FilterConfiguration `yaml:"remoteFilter1" cbor:"remoteFilter1"`
	MotionCruiseVelocity                      int                 `yaml:"motionCruiseVelocity" cbor:"motionCruiseVelocity"`
	MotionAcceleration                        int                 `yaml:"motionAcceleration" cbor:"motionAcceleration"`
	MotionProfileTrajectoryPeriod             int                 `yaml:"motionProfileTrajectoryPeriod" cbor:"motionProfileTrajectoryPeriod"`
	FeedbackNotContinuous                     bool                `yaml:"feedbackNotContinuous" cbor:"feedbackNotContinuous"`
	RemoteSensorClosedLoopDisableNeutralOnLOS bool                `yaml:"remoteSensorClosedLoopDisableNeutralOnLOS" cbor:"remoteSensorClosedLoopDisableNeutralOnLOS"`
	ClearPositionOnLimitF                     bool                `yaml:"clearPositionOnLimitF" cbor:"clearPositionOnLimitF"`
	ClearPositionOnLimitR                     bool                `yaml:"clearPositionOnLimitR" cbor:"clearPositionOnLimitR"`
	ClearPositionOnQuadIdx                    bool                `yaml:"clearPositionOnQuadIdx" cbor:"clearPositionOnQuadIdx"`
	LimitSwitchDisableNeutralOnLOS            bool                `yaml:"limitSwitchDisableNeutralOnLOS" cbor:"limitSwitchDisableNeutralOnLOS"`
	SoftLimitDisableNeutralOnLOS              bool                `yaml:"softLimitDisableNeutralOnLOS" cbor:"softLimitDisableNeutralOnLOS"`
	PulseWidthPeriodEdgesPerRot               int                 `yaml:"pulseWidthPeriodEdgesPerRot" cbor:"pulseWidthPeriodEdgesPerRot"`
	PulseWidthPeriodFilterWindowSz            int                 `yaml:"pulseWidthPeriodFilterWindowSz" cbor:"pulseWidthPeriodFilterWindowSz"`
}

// NewBaseMotorControllerConfiguration returns the factory defaults shared by
// every motor controller.
func NewBaseMotorControllerConfiguration() BaseMotorControllerConfiguration {
	return BaseMotorControllerConfiguration{
		PeakOutputForward:              1,
		PeakOutputReverse:              -1,
		NeutralDeadband:                0.04,
		VoltageMeasurementFilter:       32,
		VelocityMeasurementPeriod:      Period100Ms,
		VelocityMeasurementWindow:      64,
		Slot0:                          NewSlotConfiguration(),
		Slot1:                          NewSlotConfiguration(),
		Slot2:                          NewSlotConfiguration(),
		Slot3:                          NewSlotConfiguration(),
		PulseWidthPeriodEdgesPerRot:    1,
		PulseWidthPeriodFilterWindowSz: 1,
	}
}

// Slot returns slot i (0..3), or nil when out of range.
func (c *BaseMotorControllerConfiguration) Slot(i int) *SlotConfiguration {
	switch i {
	case 0:
		return &c.Slot0
	case 1:
		return &c.Slot1
	case 2:
		return &c.Slot2
	case 3:
		return &c.Slot3
	default:
		return nil
	}
}

// TalonSRXPIDSetConfiguration is a PID set of a Talon SRX.
type TalonSRXPIDSetConfiguration struct {
	BasePIDSetConfiguration `yaml:",inline"`

	SelectedFeedbackSensor FeedbackDevice `yaml:"selectedFeedbackSensor" cbor:"selectedFeedbackSensor"`
}

// NewTalonSRXPIDSetConfiguration returns the factory default PID set.
func NewTalonSRXPIDSetConfiguration() TalonSRXPIDSetConfiguration {
	return TalonSRXPIDSetConfiguration{
		BasePIDSetConfiguration: NewBasePIDSetConfiguration(),
		SelectedFeedbackSensor:  QuadEncoder,
	}
}

// TalonSRXConfiguration holds every persistent setting of a Talon SRX.
type TalonSRXConfiguration struct {
	BaseMotorControllerConfiguration `yaml:",inline"`

	PrimaryPID                 TalonSRXPIDSetConfiguration `yaml:"primaryPID" cbor:"primaryPID"`
	AuxiliaryPID               TalonSRXPIDSetConfiguration `yaml:"auxiliaryPID" cbor:"auxiliaryPID"`
	ForwardLimitSwitchSource   LimitSwitchSource           `yaml:"forwardLimitSwitchSource" cbor:"forwardLimitSwitchSource"`
	ReverseLimitSwitchSource   LimitSwitchSource           `yaml:"reverseLimitSwitchSource" cbor:"reverseLimitSwitchSource"`
	ForwardLimitSwitchDeviceID int                         `yaml:"forwardLimitSwitchDeviceID" cbor:"forwardLimitSwitchDeviceID"`
	ReverseLimitSwitchDeviceID int                         `yaml:"reverseLimitSwitchDeviceID" cbor:"reverseLimitSwitchDeviceID"`
	ForwardLimitSwitchNormal   LimitSwitchNormal           `yaml:"forwardLimitSwitchNormal" cbor:"forwardLimitSwitchNormal"`
	ReverseLimitSwitchNormal   LimitSwitchNormal           `yaml:"reverseLimitSwitchNormal" cbor:"reverseLimitSwitchNormal"`
	Sum0                       FeedbackDevice              `yaml:"sum0" cbor:"sum0"`
	Sum1                       FeedbackDevice              `yaml:"sum1" cbor:"sum1"`
	Diff0                      FeedbackDevice              `yaml:"diff0" cbor:"diff0"`
	Diff1                      FeedbackDevice              `yaml:"diff1" cbor:"diff1"`
	PeakCurrentLimit           int                         `yaml:"peakCurrentLimit" cbor:"peakCurrentLimit"`
	PeakCurrentDuration        int                         `yaml:"peakCurrentDuration" cbor:"peakCurrentDuration"`
	ContinuousCurrentLimit     int                         `yaml:"continuousCurrentLimit" cbor:"continuousCurrentLimit"`
}

// NewTalonSRXConfiguration returns the Talon SRX factory defaults.
func NewTalonSRXConfiguration() TalonSRXConfiguration {
	return TalonSRXConfiguration{
		BaseMotorControllerConfiguration: NewBaseMotorControllerConfiguration(),
		PrimaryPID:                       NewTalonSRXPIDSetConfiguration(),
		AuxiliaryPID:                     NewTalonSRXPIDSetConfiguration(),
		ForwardLimitSwitchSource:         FeedbackConnector,
		ReverseLimitSwitchSource:         FeedbackConnector,
		ForwardLimitSwitchNormal:         NormallyOpen,
		ReverseLimitSwitchNormal:         NormallyOpen,
		Sum0:                             QuadEncoder,
		Sum1:                             QuadEncoder,
		Diff0:                            QuadEncoder,
		Diff1:                            QuadEncoder,
	}
}

// VictorSPXPIDSetConfiguration is a PID set of a Victor SPX.
type VictorSPXPIDSetConfiguration struct {
	BasePIDSetConfiguration `yaml:",inline"`

	SelectedFeedbackSensor RemoteFeedbackDevice `yaml:"selectedFeedbackSensor" cbor:"selectedFeedbackSensor"`
}

// NewVictorSPXPIDSetConfiguration returns the factory default PID set.
func NewVictorSPXPIDSetConfiguration() VictorSPXPIDSetConfiguration {
	return VictorSPXPIDSetConfiguration{
		BasePIDSetConfiguration: NewBasePIDSetConfiguration(),
		SelectedFeedbackSensor:  RemoteFeedbackSensor0,
	}
}

// VictorSPXConfiguration holds every persistent setting of a Victor SPX.
type VictorSPXConfiguration struct {
	BaseMotorControllerConfiguration `yaml:",inline"`

	PrimaryPID                 VictorSPXPIDSetConfiguration `yaml:"primaryPID" cbor:"primaryPID"`
	AuxiliaryPID               VictorSPXPIDSetConfiguration `yaml:"auxiliaryPID" cbor:"auxiliaryPID"`
	ForwardLimitSwitchSource   RemoteLimitSwitchSource      `yaml:"forwardLimitSwitchSource" cbor:"forwardLimitSwitchSource"`
	ReverseLimitSwitchSource   RemoteLimitSwitchSource      `yaml:"reverseLimitSwitchSource" cbor:"reverseLimitSwitchSource"`
	ForwardLimitSwitchDeviceID int                          `yaml:"forwardLimitSwitchDeviceID" cbor:"forwardLimitSwitchDeviceID"`
	ReverseLimitSwitchDeviceID int                          `yaml:"reverseLimitSwitchDeviceID" cbor:"reverseLimitSwitchDeviceID"`
	ForwardLimitSwitchNormal   LimitSwitchNormal            `yaml:"forwardLimitSwitchNormal" cbor:"forwardLimitSwitchNormal"`
	ReverseLimitSwitchNormal   LimitSwitchNormal            `yaml:"reverseLimitSwitchNormal" cbor:"reverseLimitSwitchNormal"`
	Sum0                       RemoteFeedbackDevice         `yaml:"sum0" cbor:"sum0"`
	Sum1                       RemoteFeedbackDevice         `yaml:"sum1" cbor:"sum1"`
	Diff0                      RemoteFeedbackDevice         `yaml:"diff0" cbor:"diff0"`
	Diff1                      RemoteFeedbackDevice         `yaml:"diff1" cbor:"diff1"`
}

// NewVictorSPXConfiguration returns the Victor SPX factory defaults.
func NewVictorSPXConfiguration() VictorSPXConfiguration {
	return VictorSPXConfiguration{
		BaseMotorControllerConfiguration: NewBaseMotorControllerConfiguration(),
		PrimaryPID:                       NewVictorSPXPIDSetConfiguration(),
		AuxiliaryPID:                     NewVictorSPXPIDSetConfiguration(),
		ForwardLimitSwitchSource:         RemoteLimitSwitchDeactivated,
		ReverseLimitSwitchSource:         RemoteLimitSwitchDeactivated,
		ForwardLimitSwitchNormal:         NormallyOpen,
		ReverseLimitSwitchNormal:         NormallyOpen,
		Sum0:                             RemoteFeedbackSensor0,
		Sum1:                             RemoteFeedbackSensor0,
		Diff0:                            RemoteFeedbackSensor0,
		Diff1:                            RemoteFeedbackSensor0,
	}
}
