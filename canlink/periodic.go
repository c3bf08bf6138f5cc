package canlink

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/notnil/phoenixcan/canbus"
)

// periodicWriter transmits the frame returned by next every interval until
// stopped. Ticks where next reports false are skipped. A send that does not
// complete within one interval is dropped.
type periodicWriter struct {
	bus      canbus.Bus
	interval time.Duration
	next     func() (canbus.Frame, bool)
	log      *slog.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func startPeriodicWriter(bus canbus.Bus, interval time.Duration, log *slog.Logger, next func() (canbus.Frame, bool)) *periodicWriter {
	w := &periodicWriter{
		bus:      bus,
		interval: interval,
		next:     next,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

// Stop signals the writer to stop and waits for it to exit.
func (w *periodicWriter) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

func (w *periodicWriter) run() {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			frame, ok := w.next()
			if !ok {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), w.interval)
			err := w.bus.Send(ctx, frame)
			cancel()
			if errors.Is(err, canbus.ErrClosed) {
				return
			}
			if err != nil {
				w.log.Debug("periodic send failed", "id", frame.ID, "err", err)
			}
		}
	}
}
