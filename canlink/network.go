package canlink

import (
	"io"
	"log/slog"
	"sync"

	"github.com/notnil/phoenixcan/canbus"
	"github.com/notnil/phoenixcan/phoenix"
)

// Network owns a bus and its Mux and hands out one Link per device.
type Network struct {
	bus canbus.Bus
	mux *canbus.Mux
	log *slog.Logger

	mu      sync.Mutex
	links   map[phoenix.Handle]*Link
	closers []io.Closer
	closed  bool
}

// NewNetwork takes ownership of bus. A nil logger uses slog.Default.
func NewNetwork(bus canbus.Bus, log *slog.Logger) *Network {
	if log == nil {
		log = slog.Default()
	}
	return &Network{
		bus:   bus,
		mux:   canbus.NewMux(bus),
		log:   log,
		links: make(map[phoenix.Handle]*Link),
	}
}

// NewSimulatedNetwork connects a Network and a Simulator over an in-memory
// bus. Closing the Network also stops the Simulator.
func NewSimulatedNetwork(log *slog.Logger) (*Network, *Simulator) {
	lb := canbus.NewLoopbackBus()
	sim := NewSimulator(lb.Open(), log)
	n := NewNetwork(lb.Open(), log)
	n.closers = append(n.closers, sim, lb)
	return n, sim
}

// Bus returns the bus used for sending.
func (n *Network) Bus() canbus.Bus { return n.bus }

// Mux returns the receive multiplexer of the bus.
func (n *Network) Mux() *canbus.Mux { return n.mux }

// Link returns the Link for device h, creating it on first use.
func (n *Network) Link(h phoenix.Handle) *Link {
	n.mu.Lock()
	defer n.mu.Unlock()
	if l, ok := n.links[h]; ok {
		return l
	}
	l := NewLink(n.bus, n.mux, h, n.log)
	n.links[h] = l
	return l
}

// Close closes every Link, the Mux and the bus.
func (n *Network) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	links := n.links
	n.links = make(map[phoenix.Handle]*Link)
	n.mu.Unlock()

	for _, l := range links {
		_ = l.Close()
	}
	_ = n.mux.Close()
	err := n.bus.Close()
	for _, c := range n.closers {
		_ = c.Close()
	}
	return err
}
