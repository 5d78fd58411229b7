package fakes

import (
	"context"
	"sync"

	"github.com/orbit-go/orbitdb/pkg/interfaces"
)

// pipe is a duplex, in-memory link between exactly two peers.
type pipe struct {
	first string
	aToB  chan []string
	bToA  chan []string
}

// ChannelHub opens paired in-memory DirectChannels, simulating the
// WebRTC direct channel of pkg/pubsub without real network I/O.
type ChannelHub struct {
	mu    sync.Mutex
	pairs map[string]*pipe
}

// NewChannelHub returns an empty hub.
func NewChannelHub() *ChannelHub {
	return &ChannelHub{pairs: make(map[string]*pipe)}
}

func pairKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}

// Opener is an interfaces.ChannelOpener for peer self, backed by hub.
type Opener struct {
	Hub  *ChannelHub
	Self string
}

func (o *Opener) Open(ctx context.Context, peer string) (interfaces.DirectChannel, error) {
	key := pairKey(o.Self, peer)
	o.Hub.mu.Lock()
	p, ok := o.Hub.pairs[key]
	if !ok {
		p = &pipe{first: o.Self, aToB: make(chan []string, 8), bToA: make(chan []string, 8)}
		o.Hub.pairs[key] = p
	}
	o.Hub.mu.Unlock()

	if o.Self == p.first {
		return &channel{peer: peer, send: p.aToB, recv: p.bToA}, nil
	}
	return &channel{peer: peer, send: p.bToA, recv: p.aToB}, nil
}

type channel struct {
	peer   string
	send   chan []string
	recv   chan []string
	mu     sync.Mutex
	closed bool
}

func (c *channel) Peer() string { return c.peer }

func (c *channel) Send(ctx context.Context, heads []string) error {
	select {
	case c.send <- heads:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *channel) Recv(ctx context.Context) ([]string, error) {
	select {
	case heads := <-c.recv:
		return heads, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
