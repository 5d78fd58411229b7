package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-go/orbitdb/internal/fakes"
	"github.com/orbit-go/orbitdb/pkg/address"
	"github.com/orbit-go/orbitdb/pkg/interfaces"
)

// fakeStore is a minimal interfaces.Store plus the unexported
// headsProvider shape the coordinator's head-exchange looks for. The
// handshake runs its exchange in its own goroutine, so every field
// accessed from test assertions is guarded by mu.
type fakeStore struct {
	addr  address.Address
	heads interfaces.Heads

	mu        sync.Mutex
	peerSeen  []string
	syncCalls [][]string
}

func (s *fakeStore) Address() address.Address { return s.addr }
func (s *fakeStore) Close() error              { return nil }
func (s *fakeStore) Sync(ctx context.Context, heads interfaces.Heads) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncCalls = append(s.syncCalls, heads)
	return nil
}
func (s *fakeStore) OnWrite(fn func(address.Address, []byte, interfaces.Heads)) {}
func (s *fakeStore) OnPeer(peer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peerSeen = append(s.peerSeen, peer)
}
func (s *fakeStore) Heads() interfaces.Heads { return s.heads }

func (s *fakeStore) sawSync(want []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, got := range s.syncCalls {
		if len(got) != len(want) {
			continue
		}
		match := true
		for i := range got {
			if got[i] != want[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func (s *fakeStore) sawPeer(peer string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.peerSeen {
		if p == peer {
			return true
		}
	}
	return false
}

func newCoordinator(t *testing.T, bus *fakes.Bus, hub *fakes.ChannelHub, peer string, stores map[string]interfaces.Store) (*Coordinator, *fakes.PubSub) {
	t.Helper()
	ps := fakes.NewPubSub(bus, peer)
	channels := make(map[string]interfaces.DirectChannel)

	c := &Coordinator{
		PubSub: ps,
		Opener: &fakes.Opener{Hub: hub, Self: peer},
		GetStore: func(topic string) (interfaces.Store, bool) {
			s, ok := stores[topic]
			return s, ok
		},
		GetDirectChannel: func(p string) (interfaces.DirectChannel, bool) {
			ch, ok := channels[p]
			return ch, ok
		},
		SetDirectChannel: func(p string, ch interfaces.DirectChannel) {
			channels[p] = ch
		},
		OnMessage: func(topic string, heads []string) {
			if s, ok := stores[topic]; ok {
				_ = s.Sync(context.Background(), heads)
			}
		},
	}
	return c, ps
}

func TestHandshake_ExchangesHeadsAndEmitsPeerEvent(t *testing.T) {
	bus := fakes.NewBus()
	hub := fakes.NewChannelHub()
	addr := address.Address{Root: "Qmroot", Path: "db"}
	topic := addr.String()

	storeA := &fakeStore{addr: addr, heads: interfaces.Heads{"hashA"}}
	storeB := &fakeStore{addr: addr, heads: interfaces.Heads{"hashB"}}

	coordA, psA := newCoordinator(t, bus, hub, "peerA", map[string]interfaces.Store{topic: storeA})
	coordB, psB := newCoordinator(t, bus, hub, "peerB", map[string]interfaces.Store{topic: storeB})

	ctx := context.Background()
	require.NoError(t, coordA.Subscribe(ctx, topic))
	require.NoError(t, coordB.Subscribe(ctx, topic))

	// The handshake runs in a background goroutine per peer pairing;
	// poll until both sides have completed their exchange.
	require.Eventually(t, func() bool {
		return storeA.sawSync([]string{"hashB"}) && storeB.sawSync([]string{"hashA"})
	}, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		return storeA.sawPeer("peerB") && storeB.sawPeer("peerA")
	}, time.Second, time.Millisecond)

	_ = psA
	_ = psB
}

func TestPublish_EmptyHeadsIsInvariantViolation(t *testing.T) {
	bus := fakes.NewBus()
	hub := fakes.NewChannelHub()
	c, _ := newCoordinator(t, bus, hub, "peerA", map[string]interfaces.Store{})

	err := c.Publish(context.Background(), "/orbitdb/Qmroot/db", nil)
	assert.Error(t, err)
}

func TestDispatchMessage_IgnoresUnknownTopic(t *testing.T) {
	bus := fakes.NewBus()
	hub := fakes.NewChannelHub()
	c, _ := newCoordinator(t, bus, hub, "peerA", map[string]interfaces.Store{})

	require.NoError(t, c.Subscribe(context.Background(), "/orbitdb/Qmroot/unknown"))
	// Another peer publishing to a topic this coordinator has no live
	// store for must not panic or invoke OnMessage in a way that errors.
	// (The bus never delivers a peer's own publish back to it.)
	other := fakes.NewPubSub(bus, "peerB")
	require.NoError(t, other.Publish(context.Background(), "/orbitdb/Qmroot/unknown", []string{"x"}))
}
