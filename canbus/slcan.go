package canbus

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"sync"

	"go.bug.st/serial"
)

// SLCANOptions configures a serial-line CAN adapter.
type SLCANOptions struct {
	// BaudRate of the serial link. Most USB adapters ignore it.
	BaudRate int
	// Bitrate of the CAN bus in bits per second. Zero selects FRC's 1 Mbit/s.
	Bitrate int
}

var slcanBitrates = map[int]byte{
	10_000:    '0',
	20_000:    '1',
	50_000:    '2',
	100_000:   '3',
	125_000:   '4',
	250_000:   '5',
	500_000:   '6',
	800_000:   '7',
	1_000_000: '8',
}

// DialSLCAN opens a Lawicel/SLCAN adapter on the given serial port, sets the
// bitrate and opens the CAN channel.
func DialSLCAN(portName string, opts SLCANOptions) (Bus, error) {
	if opts.BaudRate == 0 {
		opts.BaudRate = 115200
	}
	if opts.Bitrate == 0 {
		opts.Bitrate = 1_000_000
	}
	code, ok := slcanBitrates[opts.Bitrate]
	if !ok {
		return nil, fmt.Errorf("canbus: unsupported slcan bitrate %d", opts.Bitrate)
	}
	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("canbus: open %s: %w", portName, err)
	}
	// Close any channel left open by a previous session, then configure.
	for _, cmd := range []string{"C\r", "S" + string(code) + "\r", "O\r"} {
		if _, err := port.Write([]byte(cmd)); err != nil {
			port.Close()
			return nil, fmt.Errorf("canbus: slcan init: %w", err)
		}
	}
	return NewSLCANBus(port), nil
}

// NewSLCANBus runs the SLCAN protocol over an already opened and configured
// byte stream. It takes ownership of rw.
func NewSLCANBus(rw io.ReadWriteCloser) Bus {
	s := &slcanBus{
		rw:     rw,
		rx:     make(chan Frame, 64),
		closed: make(chan struct{}),
	}
	go s.readLoop()
	return s
}

type slcanBus struct {
	rw  io.ReadWriteCloser
	wmu sync.Mutex
	rx  chan Frame

	closeOnce sync.Once
	closed    chan struct{}
	err       error
}

func (s *slcanBus) Send(ctx context.Context, frame Frame) error {
	line, err := EncodeSLCAN(frame)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-s.closed:
		return ErrClosed
	default:
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_, err = s.rw.Write(line)
	return err
}

func (s *slcanBus) Receive(ctx context.Context) (Frame, error) {
	select {
	case f, ok := <-s.rx:
		if !ok {
			return Frame{}, ErrClosed
		}
		return f, nil
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

func (s *slcanBus) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.wmu.Lock()
		_, _ = s.rw.Write([]byte("C\r"))
		s.wmu.Unlock()
		s.err = s.rw.Close()
	})
	return s.err
}

func (s *slcanBus) readLoop() {
	defer close(s.rx)
	r := bufio.NewReader(s.rw)
	for {
		line, err := r.ReadBytes('\r')
		if err != nil {
			return
		}
		line = line[:len(line)-1]
		// Strip BEL (error) and z/Z (transmit acknowledgements) from the front.
		for len(line) > 0 && (line[0] == '\a' || line[0] == 'z' || line[0] == 'Z') {
			line = line[1:]
		}
		if len(line) == 0 {
			continue
		}
		f, err := DecodeSLCAN(line)
		if err != nil {
			continue
		}
		select {
		case s.rx <- f:
		case <-s.closed:
			return
		}
	}
}

// EncodeSLCAN renders a frame as an SLCAN transmit command including the
// trailing carriage return, e.g. "T02041841122\r".
func EncodeSLCAN(f Frame) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var cmd byte
	var id string
	switch {
	case f.Extended && f.RTR:
		cmd, id = 'R', fmt.Sprintf("%08X", f.ID)
	case f.Extended:
		cmd, id = 'T', fmt.Sprintf("%08X", f.ID)
	case f.RTR:
		cmd, id = 'r', fmt.Sprintf("%03X", f.ID)
	default:
		cmd, id = 't', fmt.Sprintf("%03X", f.ID)
	}
	out := make([]byte, 0, 1+len(id)+1+16+1)
	out = append(out, cmd)
	out = append(out, id...)
	out = append(out, '0'+f.Len)
	if !f.RTR {
		for _, b := range f.Payload() {
			out = append(out, fmt.Sprintf("%02X", b)...)
		}
	}
	out = append(out, '\r')
	return out, nil
}

// DecodeSLCAN parses one received SLCAN frame line without its terminator.
func DecodeSLCAN(line []byte) (Frame, error) {
	if len(line) == 0 {
		return Frame{}, fmt.Errorf("canbus: empty slcan line")
	}
	var f Frame
	idLen := 3
	switch line[0] {
	case 't':
	case 'r':
		f.RTR = true
	case 'T':
		f.Extended, idLen = true, 8
	case 'R':
		f.Extended, f.RTR, idLen = true, true, 8
	default:
		return Frame{}, fmt.Errorf("canbus: unknown slcan command %q", line[0])
	}
	if len(line) < 1+idLen+1 {
		return Frame{}, fmt.Errorf("canbus: short slcan line %q", line)
	}
	id, err := strconv.ParseUint(string(line[1:1+idLen]), 16, 32)
	if err != nil {
		return Frame{}, fmt.Errorf("canbus: slcan id: %w", err)
	}
	f.ID = uint32(id)
	dlc := line[1+idLen]
	if dlc < '0' || dlc > '8' {
		return Frame{}, ErrInvalidLen
	}
	f.Len = dlc - '0'
	if !f.RTR {
		data := line[2+idLen:]
		if len(data) < int(f.Len)*2 {
			return Frame{}, fmt.Errorf("canbus: slcan data too short: %q", line)
		}
		if _, err := hex.Decode(f.Data[:f.Len], data[:int(f.Len)*2]); err != nil {
			return Frame{}, fmt.Errorf("canbus: slcan data: %w", err)
		}
	}
	return f, f.Validate()
}
