// channel_webrtc.go backs interfaces.DirectChannel with a pion/webrtc
// data channel — the "direct bidirectional channel" of spec §4.8.
// Signaling (SDP offer/answer exchange) is delegated to a Signaler so
// this package stays transport-agnostic about how peers first discover
// each other's session descriptions; a real deployment would carry
// that over the same pubsub topic used for head exchange.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/orbit-go/orbitdb/pkg/interfaces"
)

// Signaler exchanges WebRTC session descriptions with a specific peer
// out of band (e.g. over the pubsub overlay itself).
type Signaler interface {
	SendOffer(ctx context.Context, peer string, offer webrtc.SessionDescription) error
	RecvAnswer(ctx context.Context, peer string) (webrtc.SessionDescription, error)
}

// WebRTCOpener is a ChannelOpener backed by pion/webrtc.
type WebRTCOpener struct {
	Signaler Signaler
	Config   webrtc.Configuration
}

func (o *WebRTCOpener) Open(ctx context.Context, peer string) (interfaces.DirectChannel, error) {
	pc, err := webrtc.NewPeerConnection(o.Config)
	if err != nil {
		return nil, fmt.Errorf("pubsub: new peer connection to %s: %w", peer, err)
	}

	dc, err := pc.CreateDataChannel("orbitdb-heads", nil)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("pubsub: create data channel to %s: %w", peer, err)
	}

	ch := &webrtcChannel{peer: peer, pc: pc, dc: dc, inbox: make(chan []string, 8)}
	dc.OnMessage(ch.onMessage)

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("pubsub: create offer to %s: %w", peer, err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		pc.Close()
		return nil, fmt.Errorf("pubsub: set local description to %s: %w", peer, err)
	}
	if err := o.Signaler.SendOffer(ctx, peer, offer); err != nil {
		pc.Close()
		return nil, fmt.Errorf("pubsub: send offer to %s: %w", peer, err)
	}
	answer, err := o.Signaler.RecvAnswer(ctx, peer)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("pubsub: recv answer from %s: %w", peer, err)
	}
	if err := pc.SetRemoteDescription(answer); err != nil {
		pc.Close()
		return nil, fmt.Errorf("pubsub: set remote description from %s: %w", peer, err)
	}

	return ch, nil
}

// webrtcChannel implements interfaces.DirectChannel over a pion
// webrtc.DataChannel.
type webrtcChannel struct {
	peer  string
	pc    *webrtc.PeerConnection
	dc    *webrtc.DataChannel
	inbox chan []string

	mu     sync.Mutex
	closed bool
}

func (c *webrtcChannel) Peer() string { return c.peer }

func (c *webrtcChannel) onMessage(msg webrtc.DataChannelMessage) {
	var heads []string
	if err := json.Unmarshal(msg.Data, &heads); err != nil {
		return
	}
	select {
	case c.inbox <- heads:
	default:
	}
}

func (c *webrtcChannel) Send(ctx context.Context, heads []string) error {
	payload, err := json.Marshal(heads)
	if err != nil {
		return fmt.Errorf("pubsub: marshal heads: %w", err)
	}
	return c.dc.Send(payload)
}

func (c *webrtcChannel) Recv(ctx context.Context) ([]string, error) {
	select {
	case heads := <-c.inbox:
		return heads, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(30 * time.Second):
		return nil, fmt.Errorf("pubsub: timed out waiting for heads from %s", c.peer)
	}
}

func (c *webrtcChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.dc.Close()
	return c.pc.Close()
}
