//go:build linux

package canbus

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// socketCAN implements Bus over Linux SocketCAN raw sockets.
//
// The socket is non-blocking. Every syscall on fd runs under a read lock and
// Close takes the write lock before closing it, so the descriptor is never
// closed underneath a read, write or select.
type socketCAN struct {
	mu     sync.RWMutex
	fd     int
	closed chan struct{}
}

// DialSocketCAN opens a raw CAN socket bound to the given interface name (e.g., "can0").
func DialSocketCAN(iface string) (Bus, error) {
	netIf, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.CAN_RAW)
	if err != nil {
		return nil, err
	}
	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: netIf.Index}); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return newSocketCAN(fd), nil
}

// newSocketCAN takes ownership of a non-blocking descriptor.
func newSocketCAN(fd int) *socketCAN {
	return &socketCAN{fd: fd, closed: make(chan struct{})}
}

func (s *socketCAN) Close() error {
	select {
	case <-s.closed:
		return nil
	default:
	}
	close(s.closed)
	s.mu.Lock()
	defer s.mu.Unlock()
	fd := s.fd
	s.fd = -1
	return unix.Close(fd)
}

func (s *socketCAN) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// withFD runs fn with the descriptor held open.
func (s *socketCAN) withFD(fn func(fd int) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fd < 0 {
		return ErrClosed
	}
	return fn(s.fd)
}

func retryable(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR
}

// Send writes one frame using the Linux can_frame binary layout.
func (s *socketCAN) Send(ctx context.Context, frame Frame) error {
	buf, err := frame.MarshalBinary()
	if err != nil {
		return err
	}
	for {
		if s.isClosed() {
			return ErrClosed
		}
		var n int
		werr := s.withFD(func(fd int) (err error) {
			n, err = unix.Write(fd, buf)
			if retryable(err) || err == unix.ENOBUFS {
				n = -1
				return s.wait(ctx, fd, false, true)
			}
			return err
		})
		switch {
		case werr != nil:
			return werr
		case n < 0:
			continue
		case n != len(buf):
			return errors.New("canbus: short write")
		default:
			return nil
		}
	}
}

// Receive reads one frame, blocking until one arrives or ctx is done.
func (s *socketCAN) Receive(ctx context.Context) (Frame, error) {
	buf := make([]byte, 16)
	for {
		if s.isClosed() {
			return Frame{}, ErrClosed
		}
		n := -1
		rerr := s.withFD(func(fd int) (err error) {
			n, err = unix.Read(fd, buf)
			if retryable(err) {
				n = -1
				return s.wait(ctx, fd, true, false)
			}
			return err
		})
		if rerr != nil {
			return Frame{}, rerr
		}
		if n < 0 {
			continue
		}
		if n != len(buf) {
			return Frame{}, errors.New("canbus: short read")
		}
		var f Frame
		if err := f.UnmarshalBinary(buf); err != nil {
			return Frame{}, err
		}
		return f, nil
	}
}

// maxWait bounds one select(2) so Close and cancellation are noticed.
const maxWait = 50 * time.Millisecond

// wait blocks until fd is ready, maxWait passes or ctx is done. It returns
// nil in the first two cases and the caller retries the syscall.
func (s *socketCAN) wait(ctx context.Context, fd int, r, w bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d := maxWait
	if deadline, ok := ctx.Deadline(); ok {
		until := time.Until(deadline)
		if until <= 0 {
			return context.DeadlineExceeded
		}
		if until < d {
			d = until
		}
	}
	timeout := unix.NsecToTimeval(d.Nanoseconds())

	var readfds, writefds unix.FdSet
	if r {
		readfds.Set(fd)
	}
	if w {
		writefds.Set(fd)
	}
	_, err := unix.Select(fd+1, &readfds, &writefds, nil, &timeout)
	if err != nil && err != unix.EINTR {
		return err
	}
	return ctx.Err()
}
