package phoenix

import (
	"fmt"
	"strconv"
)

// ParamEnum identifies a persistent device parameter. The ordinal passed
// alongside a ParamEnum selects the instance (PID slot, limit direction,
// sensor term, custom parameter index, ...).
type ParamEnum uint16

const (
	OnBoot_BrakeMode                       ParamEnum = 31
	QuadFilterEn                           ParamEnum = 91
	QuadIdxPolarity                        ParamEnum = 108
	ClearPositionOnIdx                     ParamEnum = 100
	MotionProfileHasUnderrunErr            ParamEnum = 119
	MotionProfileTrajectoryPointDurationMs ParamEnum = 120
	ClearPosOnLimitF                       ParamEnum = 144
	ClearPosOnLimitR                       ParamEnum = 145

	StatusFramePeriod ParamEnum = 300
	OpenloopRamp      ParamEnum = 301
	ClosedloopRamp    ParamEnum = 302
	NeutralDeadband   ParamEnum = 303

	PeakPosOutput    ParamEnum = 305
	NominalPosOutput ParamEnum = 306
	PeakNegOutput    ParamEnum = 307
	NominalNegOutput ParamEnum = 308

	ProfileParamSlot_P            ParamEnum = 310
	ProfileParamSlot_I            ParamEnum = 311
	ProfileParamSlot_D            ParamEnum = 312
	ProfileParamSlot_F            ParamEnum = 313
	ProfileParamSlot_IZone        ParamEnum = 314
	ProfileParamSlot_AllowableErr ParamEnum = 315
	ProfileParamSlot_MaxIAccum    ParamEnum = 316
	ProfileParamSlot_PeakOutput   ParamEnum = 317

	ClearPositionOnLimitF  ParamEnum = 320
	ClearPositionOnLimitR  ParamEnum = 321
	ClearPositionOnQuadIdx ParamEnum = 322
	SampleVelocityPeriod   ParamEnum = 325
	SampleVelocityWindow   ParamEnum = 326

	FeedbackSensorType                        ParamEnum = 330
	SelectedSensorPosition                    ParamEnum = 331
	FeedbackNotContinuous                     ParamEnum = 332
	RemoteSensorSource                        ParamEnum = 333
	RemoteSensorDeviceID                      ParamEnum = 334
	SensorTerm                                ParamEnum = 335
	RemoteSensorClosedLoopDisableNeutralOnLOS ParamEnum = 336
	PIDLoopPolarity                           ParamEnum = 337
	PIDLoopPeriod                             ParamEnum = 338
	SelectedSensorCoefficient                 ParamEnum = 339

	ForwardSoftLimitThreshold ParamEnum = 340
	ReverseSoftLimitThreshold ParamEnum = 341
	ForwardSoftLimitEnable    ParamEnum = 342
	ReverseSoftLimitEnable    ParamEnum = 343

	NominalBatteryVoltage    ParamEnum = 350
	BatteryVoltageFilterSize ParamEnum = 351

	ContinuousCurrentLimitAmps ParamEnum = 360
	PeakCurrentLimitMs         ParamEnum = 361
	PeakCurrentLimitAmps       ParamEnum = 362

	ClosedLoopIAccum ParamEnum = 370
	CustomParam      ParamEnum = 380
	StickyFaults     ParamEnum = 390

	AnalogPosition     ParamEnum = 400
	QuadraturePosition ParamEnum = 401
	PulseWidthPosition ParamEnum = 402

	MotMag_Accel     ParamEnum = 410
	MotMag_VelCruise ParamEnum = 411

	LimitSwitchSource              ParamEnum = 421
	LimitSwitchNormClosedAndDis    ParamEnum = 422
	LimitSwitchDisableNeutralOnLOS ParamEnum = 423
	LimitSwitchRemoteDevID         ParamEnum = 424
	SoftLimitDisableNeutralOnLOS   ParamEnum = 425

	PulseWidthPeriod_EdgesPerRot    ParamEnum = 430
	PulseWidthPeriod_FilterWindowSz ParamEnum = 431

	// DefaultConfig restores factory defaults when set to a non-zero value.
	DefaultConfig ParamEnum = 0xFFFF
)

var paramNames = map[ParamEnum]string{
	OnBoot_BrakeMode:                          "OnBoot_BrakeMode",
	QuadFilterEn:                              "QuadFilterEn",
	QuadIdxPolarity:                           "QuadIdxPolarity",
	ClearPositionOnIdx:                        "ClearPositionOnIdx",
	MotionProfileHasUnderrunErr:               "MotionProfileHasUnderrunErr",
	MotionProfileTrajectoryPointDurationMs:    "MotionProfileTrajectoryPointDurationMs",
	ClearPosOnLimitF:                          "ClearPosOnLimitF",
	ClearPosOnLimitR:                          "ClearPosOnLimitR",
	StatusFramePeriod:                         "StatusFramePeriod",
	OpenloopRamp:                              "OpenloopRamp",
	ClosedloopRamp:                            "ClosedloopRamp",
	NeutralDeadband:                           "NeutralDeadband",
	PeakPosOutput:                             "PeakPosOutput",
	NominalPosOutput:                          "NominalPosOutput",
	PeakNegOutput:                             "PeakNegOutput",
	NominalNegOutput:                          "NominalNegOutput",
	ProfileParamSlot_P:                        "ProfileParamSlot_P",
	ProfileParamSlot_I:                        "ProfileParamSlot_I",
	ProfileParamSlot_D:                        "ProfileParamSlot_D",
	ProfileParamSlot_F:                        "ProfileParamSlot_F",
	ProfileParamSlot_IZone:                    "ProfileParamSlot_IZone",
	ProfileParamSlot_AllowableErr:             "ProfileParamSlot_AllowableErr",
	ProfileParamSlot_MaxIAccum:                "ProfileParamSlot_MaxIAccum",
	ProfileParamSlot_PeakOutput:               "ProfileParamSlot_PeakOutput",
	ClearPositionOnLimitF:                     "ClearPositionOnLimitF",
	ClearPositionOnLimitR:                     "ClearPositionOnLimitR",
	ClearPositionOnQuadIdx:                    "ClearPositionOnQuadIdx",
	SampleVelocityPeriod:                      "SampleVelocityPeriod",
	SampleVelocityWindow:                      "SampleVelocityWindow",
	FeedbackSensorType:                        "FeedbackSensorType",
	SelectedSensorPosition:                    "SelectedSensorPosition",
	FeedbackNotContinuous:                     "FeedbackNotContinuous",
	RemoteSensorSource:                        "RemoteSensorSource",
	RemoteSensorDeviceID:                      "RemoteSensorDeviceID",
	SensorTerm:                                "SensorTerm",
	RemoteSensorClosedLoopDisableNeutralOnLOS: "RemoteSensorClosedLoopDisableNeutralOnLOS",
	PIDLoopPolarity:                           "PIDLoopPolarity",
	PIDLoopPeriod:                             "PIDLoopPeriod",
	SelectedSensorCoefficient:                 "SelectedSensorCoefficient",
	ForwardSoftLimitThreshold:                 "ForwardSoftLimitThreshold",
	ReverseSoftLimitThreshold:                 "ReverseSoftLimitThreshold",
	ForwardSoftLimitEnable:                    "ForwardSoftLimitEnable",
	ReverseSoftLimitEnable:                    "ReverseSoftLimitEnable",
	NominalBatteryVoltage:                     "NominalBatteryVoltage",
	BatteryVoltageFilterSize:                  "BatteryVoltageFilterSize",
	ContinuousCurrentLimitAmps:                "ContinuousCurrentLimitAmps",
	PeakCurrentLimitMs:                        "PeakCurrentLimitMs",
	PeakCurrentLimitAmps:                      "PeakCurrentLimitAmps",
	ClosedLoopIAccum:                          "ClosedLoopIAccum",
	CustomParam:                               "CustomParam",
	StickyFaults:                              "StickyFaults",
	AnalogPosition:                            "AnalogPosition",
	QuadraturePosition:                        "QuadraturePosition",
	PulseWidthPosition:                        "PulseWidthPosition",
	MotMag_Accel:                              "MotMag_Accel",
	MotMag_VelCruise:                          "MotMag_VelCruise",
	LimitSwitchSource:                         "LimitSwitchSource",
	LimitSwitchNormClosedAndDis:               "LimitSwitchNormClosedAndDis",
	LimitSwitchDisableNeutralOnLOS:            "LimitSwitchDisableNeutralOnLOS",
	LimitSwitchRemoteDevID:                    "LimitSwitchRemoteDevID",
	SoftLimitDisableNeutralOnLOS:              "SoftLimitDisableNeutralOnLOS",
	PulseWidthPeriod_EdgesPerRot:              "PulseWidthPeriod_EdgesPerRot",
	PulseWidthPeriod_FilterWindowSz:           "PulseWidthPeriod_FilterWindowSz",
	DefaultConfig:                             "DefaultConfig",
}

func (p ParamEnum) String() string {
	if name, ok := paramNames[p]; ok {
		return name
	}
	return fmt.Sprintf("ParamEnum(%d)", uint16(p))
}

// ParseParamEnum resolves a parameter by name (as printed by String) or by
// decimal number.
func ParseParamEnum(s string) (ParamEnum, error) {
	for p, name := range paramNames {
		if name == s {
			return p, nil
		}
	}
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		return ParamEnum(n), nil
	}
	return 0, fmt.Errorf("phoenix: unknown parameter %q", s)
}
