// Package fakes provides in-memory stand-ins for the external
// collaborators defined in pkg/interfaces (object store, pubsub,
// direct channels), grounded on the teacher's own test-harness
// approach (internal/testutil, e2e/harness.go): deterministic,
// in-process fakes that let the controller's tests exercise real
// multi-peer scenarios without a live IPFS/libp2p stack.
package fakes

import (
	"context"
	"sync"

	"github.com/orbit-go/orbitdb/pkg/interfaces"
)

type subscriber struct {
	onMessage interfaces.HeadsHandler
	onPeer    interfaces.PeerHandler
}

// Bus is a shared in-memory pubsub overlay. Multiple PubSub instances
// backed by the same Bus behave as peers of each other.
type Bus struct {
	mu   sync.Mutex
	subs map[string]map[string]*subscriber // topic -> peer -> subscriber
}

// NewBus returns an empty shared bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[string]*subscriber)}
}

// PubSub is an interfaces.PubSub backed by a shared Bus, identified by
// peer.
type PubSub struct {
	bus  *Bus
	peer string
}

// NewPubSub returns a PubSub for peer on bus.
func NewPubSub(bus *Bus, peer string) *PubSub {
	return &PubSub{bus: bus, peer: peer}
}

func (p *PubSub) Subscribe(ctx context.Context, topic string, onMessage interfaces.HeadsHandler, onPeer interfaces.PeerHandler) error {
	p.bus.mu.Lock()
	peers, ok := p.bus.subs[topic]
	if !ok {
		peers = make(map[string]*subscriber)
		p.bus.subs[topic] = peers
	}
	peers[p.peer] = &subscriber{onMessage: onMessage, onPeer: onPeer}
	// Snapshot existing peers to notify without holding the lock during
	// callbacks.
	others := make([]string, 0, len(peers))
	for peerID := range peers {
		if peerID != p.peer {
			others = append(others, peerID)
		}
	}
	p.bus.mu.Unlock()

	for _, otherID := range others {
		if onPeer != nil {
			onPeer(topic, otherID)
		}
		p.bus.mu.Lock()
		otherSub := peers[otherID]
		p.bus.mu.Unlock()
		if otherSub != nil && otherSub.onPeer != nil {
			otherSub.onPeer(topic, p.peer)
		}
	}
	return nil
}

func (p *PubSub) Unsubscribe(topic string) error {
	p.bus.mu.Lock()
	defer p.bus.mu.Unlock()
	if peers, ok := p.bus.subs[topic]; ok {
		delete(peers, p.peer)
	}
	return nil
}

func (p *PubSub) Publish(ctx context.Context, topic string, heads []string) error {
	p.bus.mu.Lock()
	peers := p.bus.subs[topic]
	targets := make([]*subscriber, 0, len(peers))
	for peerID, sub := range peers {
		if peerID != p.peer {
			targets = append(targets, sub)
		}
	}
	p.bus.mu.Unlock()

	for _, sub := range targets {
		if sub.onMessage != nil {
			sub.onMessage(topic, heads)
		}
	}
	return nil
}

func (p *PubSub) Disconnect() error {
	p.bus.mu.Lock()
	defer p.bus.mu.Unlock()
	for _, peers := range p.bus.subs {
		delete(peers, p.peer)
	}
	return nil
}
