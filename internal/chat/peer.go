package chat

import "sync"

// frameWriter is the encoder side of a websocket connection. json.Encoder
// satisfies it in production; tests substitute recorders.
type frameWriter interface {
	Encode(v any) error
}

// Peer is a single websocket connection for a user. Frames reach a peer from
// the reader goroutine of its own connection and from the router acting on
// behalf of other connections, so writes are serialized with a mutex.
type Peer struct {
	mu  sync.Mutex
	enc frameWriter
}

func newPeer(enc frameWriter) *Peer {
	return &Peer{enc: enc}
}

func (p *Peer) writeFrame(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enc.Encode(v)
}
