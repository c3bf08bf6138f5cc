package phoenix

import (
	"context"
	"errors"
	"fmt"

	"github.com/notnil/phoenixcan/canbus"
)

// ErrorCode is the numeric status returned by a device operation.
// Zero is success, negative values are errors and positive values are
// warnings. ErrorCode implements error; OK is never returned as an error,
// operations return nil instead.
type ErrorCode int

const (
	OK                   ErrorCode = 0
	CAN_MSG_STALE        ErrorCode = 1
	TxFailed             ErrorCode = -1
	InvalidParamValue    ErrorCode = -2
	RxTimeout            ErrorCode = -3
	TxTimeout            ErrorCode = -4
	UnexpectedArbId      ErrorCode = -5
	BufferFull           ErrorCode = 6
	CAN_OVERFLOW         ErrorCode = -6
	SensorNotPresent     ErrorCode = -7
	FirmwareTooOld       ErrorCode = -8
	CouldNotChangePeriod ErrorCode = -9

	GeneralError           ErrorCode = -100
	SigNotUpdated          ErrorCode = -200
	NotAllPIDValuesUpdated ErrorCode = -201

	GEN_PORT_ERROR            ErrorCode = -300
	PORT_MODULE_TYPE_MISMATCH ErrorCode = -301

	GEN_MODULE_ERROR          ErrorCode = -400
	MODULE_NOT_INIT_SET_ERROR ErrorCode = -401
	MODULE_NOT_INIT_GET_ERROR ErrorCode = -402

	WheelRadiusTooSmall           ErrorCode = -500
	TicksPerRevZero               ErrorCode = -501
	DistanceBetweenWheelsTooSmall ErrorCode = -502
	GainsAreNotSet                ErrorCode = -503

	IncompatibleMode ErrorCode = -600
	InvalidHandle    ErrorCode = -601

	FeatureRequiresHigherFirm      ErrorCode = -700
	TalonFeatureRequiresHigherFirm ErrorCode = -701

	PulseWidthSensorNotPresent ErrorCode = 10

	GeneralWarning                 ErrorCode = 100
	FeatureNotSupported            ErrorCode = 101
	NotImplemented                 ErrorCode = 102
	FirmVersionCouldNotBeRetrieved ErrorCode = 103
	FeaturesNotAvailableYet        ErrorCode = 104
	ControlModeNotValid            ErrorCode = 105
	ControlModeNotSupportedYet     ErrorCode = 106
	CascadedPIDNotSupporteYet      ErrorCode = 107
	AuxiliaryPIDNotSupportedYet    ErrorCode = 108
	RemoteSensorsNotSupportedYet   ErrorCode = 109
	MotProfFirmThreshold           ErrorCode = 110
	MotProfFirmThreshold2          ErrorCode = 111
)

var errorCodeNames = map[ErrorCode]string{
	OK:                             "OK",
	CAN_MSG_STALE:                  "CAN_MSG_STALE",
	TxFailed:                       "TxFailed",
	InvalidParamValue:              "InvalidParamValue",
	RxTimeout:                      "RxTimeout",
	TxTimeout:                      "TxTimeout",
	UnexpectedArbId:                "UnexpectedArbId",
	BufferFull:                     "BufferFull",
	CAN_OVERFLOW:                   "CAN_OVERFLOW",
	SensorNotPresent:               "SensorNotPresent",
	FirmwareTooOld:                 "FirmwareTooOld",
	CouldNotChangePeriod:           "CouldNotChangePeriod",
	GeneralError:                   "GeneralError",
	SigNotUpdated:                  "SigNotUpdated",
	NotAllPIDValuesUpdated:         "NotAllPIDValuesUpdated",
	GEN_PORT_ERROR:                 "GEN_PORT_ERROR",
	PORT_MODULE_TYPE_MISMATCH:      "PORT_MODULE_TYPE_MISMATCH",
	GEN_MODULE_ERROR:               "GEN_MODULE_ERROR",
	MODULE_NOT_INIT_SET_ERROR:      "MODULE_NOT_INIT_SET_ERROR",
	MODULE_NOT_INIT_GET_ERROR:      "MODULE_NOT_INIT_GET_ERROR",
	WheelRadiusTooSmall:            "WheelRadiusTooSmall",
	TicksPerRevZero:                "TicksPerRevZero",
	DistanceBetweenWheelsTooSmall:  "DistanceBetweenWheelsTooSmall",
	GainsAreNotSet:                 "GainsAreNotSet",
	IncompatibleMode:               "IncompatibleMode",
	InvalidHandle:                  "InvalidHandle",
	FeatureRequiresHigherFirm:      "FeatureRequiresHigherFirm",
	TalonFeatureRequiresHigherFirm: "TalonFeatureRequiresHigherFirm",
	PulseWidthSensorNotPresent:     "PulseWidthSensorNotPresent",
	GeneralWarning:                 "GeneralWarning",
	FeatureNotSupported:            "FeatureNotSupported",
	NotImplemented:                 "NotImplemented",
	FirmVersionCouldNotBeRetrieved: "FirmVersionCouldNotBeRetrieved",
	FeaturesNotAvailableYet:        "FeaturesNotAvailableYet",
	ControlModeNotValid:            "ControlModeNotValid",
	ControlModeNotSupportedYet:     "ControlModeNotSupportedYet",
	CascadedPIDNotSupporteYet:      "CascadedPIDNotSupporteYet",
	AuxiliaryPIDNotSupportedYet:    "AuxiliaryPIDNotSupportedYet",
	RemoteSensorsNotSupportedYet:   "RemoteSensorsNotSupportedYet",
	MotProfFirmThreshold:           "MotProfFirmThreshold",
	MotProfFirmThreshold2:          "MotProfFirmThreshold2",
}

// String returns the vendor name of the code, or its number when unknown.
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

func (c ErrorCode) Error() string {
	return fmt.Sprintf("phoenix: %s (%d)", c.String(), int(c))
}

// IsError reports whether c is an error (negative).
func (c ErrorCode) IsError() bool { return c < 0 }

// IsWarning reports whether c is a warning (positive).
func (c ErrorCode) IsWarning() bool { return c > 0 }

// Err returns c as an error, or nil for OK.
func (c ErrorCode) Err() error {
	if c == OK {
		return nil
	}
	return c
}

// CodeOf classifies an error returned by any operation in this module.
//
//	nil                        -> OK
//	ErrorCode (wrapped or not) -> itself
//	context.DeadlineExceeded   -> RxTimeout
//	canbus.ErrClosed           -> TxFailed
//	anything else              -> GeneralError
func CodeOf(err error) ErrorCode {
	if err == nil {
		return OK
	}
	var code ErrorCode
	if errors.As(err, &code) {
		return code
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return RxTimeout
	case errors.Is(err, canbus.ErrClosed):
		return TxFailed
	default:
		return GeneralError
	}
}
