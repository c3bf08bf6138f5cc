package canlink

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/notnil/phoenixcan/canbus"
	"github.com/notnil/phoenixcan/phoenix"
)

// Parameter frames are 8 bytes, little endian:
//
//	0..1 parameter id
//	2    sub-value (request) or status (response, bit 7 set when
//	     confirming a set)
//	3    ordinal
//	4..7 value as IEEE-754 float32
const paramFrameLen = 8

// setConfirmFlag marks the status byte of a response to a set request.
const setConfirmFlag = 0x80

// MaxOrdinal is the largest ordinal a parameter frame can carry.
const MaxOrdinal = 0xFF

// ParamRequest asks a device to read (Set false) or write (Set true) one
// parameter instance.
type ParamRequest struct {
	Device   phoenix.Handle
	Set      bool
	Param    phoenix.ParamEnum
	SubValue uint8
	Ordinal  uint8
	Value    float64
}

// MarshalCANFrame encodes the request.
func (r ParamRequest) MarshalCANFrame() (canbus.Frame, error) {
	api := ParamRequestAPI
	if r.Set {
		api = ParamSetAPI
	}
	f := canbus.Frame{ID: FrameID(r.Device, api), Extended: true, Len: paramFrameLen}
	putParam(&f, r.Param, r.SubValue, r.Ordinal, r.Value)
	return f, nil
}

// UnmarshalCANFrame decodes a request sent to any device.
func (r *ParamRequest) UnmarshalCANFrame(f canbus.Frame) error {
	if err := checkParamFrame(f); err != nil {
		return err
	}
	switch uint32(apiOf(f.ID)) << 6 {
	case ParamRequestAPI:
		r.Set = false
	case ParamSetAPI:
		r.Set = true
	default:
		return fmt.Errorf("canlink: not a parameter request (id=0x%08X)", f.ID)
	}
	r.Device = phoenix.Handle(f.ID & deviceMask)
	r.Param, r.SubValue, r.Ordinal, r.Value = getParam(f)
	return nil
}

// ParamResponse is a device's answer to a ParamRequest. Set requests are
// confirmed (Set true) with the value of the request, so a confirmation can
// be told apart from the answer to a get or to an earlier set.
type ParamResponse struct {
	Device  phoenix.Handle
	Set     bool
	Param   phoenix.ParamEnum
	Status  phoenix.ErrorCode
	Ordinal uint8
	Value   float64
}

// MarshalCANFrame encodes the response.
func (r ParamResponse) MarshalCANFrame() (canbus.Frame, error) {
	f := canbus.Frame{ID: FrameID(r.Device, ParamResponseAPI), Extended: true, Len: paramFrameLen}
	status := statusByte(r.Status)
	if r.Set {
		status |= setConfirmFlag
	}
	putParam(&f, r.Param, status, r.Ordinal, r.Value)
	return f, nil
}

// UnmarshalCANFrame decodes a response from any device.
func (r *ParamResponse) UnmarshalCANFrame(f canbus.Frame) error {
	if err := checkParamFrame(f); err != nil {
		return err
	}
	if uint32(apiOf(f.ID))<<6 != ParamResponseAPI {
		return fmt.Errorf("canlink: not a parameter response (id=0x%08X)", f.ID)
	}
	var status uint8
	r.Device = phoenix.Handle(f.ID & deviceMask)
	r.Param, status, r.Ordinal, r.Value = getParam(f)
	r.Set = status&setConfirmFlag != 0
	r.Status = statusCode(status &^ setConfirmFlag)
	return nil
}

// Err returns the response status as an error, nil when OK.
func (r ParamResponse) Err() error { return r.Status.Err() }

func checkParamFrame(f canbus.Frame) error {
	if !f.Extended || f.RTR {
		return fmt.Errorf("canlink: parameter frame must be an extended data frame (id=0x%08X)", f.ID)
	}
	if f.Len != paramFrameLen {
		return fmt.Errorf("canlink: parameter frame len %d, want %d", f.Len, paramFrameLen)
	}
	return nil
}

func putParam(f *canbus.Frame, p phoenix.ParamEnum, b2, ordinal uint8, value float64) {
	binary.LittleEndian.PutUint16(f.Data[0:2], uint16(p))
	f.Data[2] = b2
	f.Data[3] = ordinal
	binary.LittleEndian.PutUint32(f.Data[4:8], math.Float32bits(float32(value)))
}

func getParam(f canbus.Frame) (phoenix.ParamEnum, uint8, uint8, float64) {
	p := phoenix.ParamEnum(binary.LittleEndian.Uint16(f.Data[0:2]))
	v := math.Float32frombits(binary.LittleEndian.Uint32(f.Data[4:8]))
	return p, f.Data[2], f.Data[3], widen(v)
}

// widen converts v to the float64 with the same shortest decimal form, so
// 0.04 sent as float32 reads back as 0.04 and not 0.03999999910593033.
func widen(v float32) float64 {
	if math.IsInf(float64(v), 0) || math.IsNaN(float64(v)) {
		return float64(v)
	}
	d, err := strconv.ParseFloat(strconv.FormatFloat(float64(v), 'g', -1, 32), 64)
	if err != nil {
		return float64(v)
	}
	return d
}

// Status byte values carried in parameter responses.
var statusCodes = [...]phoenix.ErrorCode{
	0: phoenix.OK,
	1: phoenix.InvalidParamValue,
	2: phoenix.FeatureNotSupported,
	3: phoenix.FirmwareTooOld,
	4: phoenix.NotImplemented,
	5: phoenix.SensorNotPresent,
	6: phoenix.CouldNotChangePeriod,
}

const statusUnknown = 0x7F

func statusByte(c phoenix.ErrorCode) uint8 {
	for b, code := range statusCodes {
		if code == c {
			return uint8(b)
		}
	}
	return statusUnknown
}

func statusCode(b uint8) phoenix.ErrorCode {
	if int(b) < len(statusCodes) {
		return statusCodes[b]
	}
	return phoenix.GeneralError
}
