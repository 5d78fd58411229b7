// Package pubsub implements the pubsub coordinator and head-exchange
// handshake (spec §4.8): subscribing to per-address topics, publishing
// local heads, and — for every newly observed peer — opening (or
// reusing) a direct channel and exchanging heads over it. The shape of
// the coordinator, parameterized by lookup callbacks rather than owning
// controller state directly, mirrors the teacher's
// cluster.ClusterController: a thin dispatcher over handler/channel
// tables guarded by a single mutex (internal/cluster/cluster_controller.go).
package pubsub

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/orbit-go/orbitdb/pkg/interfaces"
)

// Coordinator runs the head-exchange handshake for a set of subscribed
// topics. OnChannelCreated and Log may be left nil; with a nil Opener
// every handshake that needs a new direct channel fails and is logged.
// All other fields must be set before use.
type Coordinator struct {
	PubSub interfaces.PubSub
	Opener interfaces.ChannelOpener

	// GetStore looks up the live store registered for a topic
	// (address string).
	GetStore func(topic string) (interfaces.Store, bool)
	// GetDirectChannel and SetDirectChannel read/write the
	// peer-id -> channel map owned by the controller.
	GetDirectChannel func(peer string) (interfaces.DirectChannel, bool)
	SetDirectChannel func(peer string, ch interfaces.DirectChannel)
	// OnMessage delivers merged heads to the matching store (spec's
	// _onMessage).
	OnMessage func(topic string, heads []string)
	// OnChannelCreated is invoked exactly once per newly opened direct
	// channel.
	OnChannelCreated func(ch interfaces.DirectChannel)

	Log *logrus.Logger

	mu        sync.Mutex
	peerLocks map[string]*sync.Mutex
}

func (c *Coordinator) logger() *logrus.Logger {
	if c.Log != nil {
		return c.Log
	}
	return logrus.StandardLogger()
}

func (c *Coordinator) peerLock(peer string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.peerLocks == nil {
		c.peerLocks = make(map[string]*sync.Mutex)
	}
	l, ok := c.peerLocks[peer]
	if !ok {
		l = &sync.Mutex{}
		c.peerLocks[peer] = l
	}
	return l
}

// Subscribe subscribes topic on pubsub, wiring inbound messages and
// peer-connect events to this coordinator (spec: "Pubsub subscribe
// happens strictly after the store is registered, so any message
// dispatch finds the store").
func (c *Coordinator) Subscribe(ctx context.Context, topic string) error {
	return c.PubSub.Subscribe(ctx, topic, c.dispatchMessage, c.dispatchPeer)
}

func (c *Coordinator) Unsubscribe(topic string) error {
	return c.PubSub.Unsubscribe(topic)
}

// Publish republishes locally produced heads (spec's _onWrite).
func (c *Coordinator) Publish(ctx context.Context, topic string, heads []string) error {
	if len(heads) == 0 {
		return fmt.Errorf("pubsub: InvariantViolation: heads must not be empty")
	}
	return c.PubSub.Publish(ctx, topic, heads)
}

func (c *Coordinator) dispatchMessage(topic string, heads []string) {
	if len(heads) == 0 {
		return
	}
	if _, ok := c.GetStore(topic); !ok {
		return
	}
	c.OnMessage(topic, heads)
}

// dispatchPeer runs the head-exchange handshake for a newly observed
// peer on topic. It is invoked synchronously from the pubsub overlay's
// Subscribe/peer-discovery path, so the handshake itself — which sends
// then blocks on Recv — runs in its own goroutine: both sides of a
// fresh pairing are typically discovered from within the same
// Subscribe call, and a blocking Recv there would wedge the overlay
// against its own peer announcement. Errors are logged and swallowed:
// remote connectivity events must never crash the controller.
func (c *Coordinator) dispatchPeer(topic string, peer string) {
	go func() {
		ctx := context.Background()
		if err := c.handshake(ctx, topic, peer); err != nil {
			c.logger().WithFields(logrus.Fields{
				"topic": topic,
				"peer":  peer,
				"error": err,
			}).Warn("head exchange failed")
		}
	}()
}

// handshake implements spec §4.8: open-or-reuse a direct channel,
// exchange heads, deliver received heads through OnMessage, then emit a
// peer event on the store.
func (c *Coordinator) handshake(ctx context.Context, topic string, peer string) error {
	store, ok := c.GetStore(topic)
	if !ok {
		return fmt.Errorf("pubsub: no live store for topic %s", topic)
	}

	lock := c.peerLock(peer)
	lock.Lock()
	ch, existed := c.GetDirectChannel(peer)
	if !existed {
		if c.Opener == nil {
			lock.Unlock()
			return fmt.Errorf("open direct channel to %s: no channel opener configured", peer)
		}
		var err error
		ch, err = c.Opener.Open(ctx, peer)
		if err != nil {
			lock.Unlock()
			return fmt.Errorf("open direct channel to %s: %w", peer, err)
		}
		c.SetDirectChannel(peer, ch)
	}
	lock.Unlock()

	if !existed && c.OnChannelCreated != nil {
		c.OnChannelCreated(ch)
	}

	if err := ch.Send(ctx, headsOf(store)); err != nil {
		return fmt.Errorf("send heads to %s: %w", peer, err)
	}
	remoteHeads, err := ch.Recv(ctx)
	if err != nil {
		return fmt.Errorf("receive heads from %s: %w", peer, err)
	}
	if len(remoteHeads) > 0 {
		c.OnMessage(topic, remoteHeads)
	}

	store.OnPeer(peer)
	return nil
}

// headsOf extracts a store's current heads where supported; stores
// that don't expose heads directly (none currently) contribute none.
func headsOf(s interfaces.Store) []string {
	type headsProvider interface{ Heads() interfaces.Heads }
	if hp, ok := s.(headsProvider); ok {
		return hp.Heads()
	}
	return nil
}
