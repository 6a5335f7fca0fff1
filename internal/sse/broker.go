// Package sse implements a Server-Sent Events broker for live note updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
)

// Event represents one SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type client struct {
	owner string
	ch    chan []byte
}

type noteEventReq struct {
	kind  string
	owner string
	path  string
}

// Broker manages SSE client connections and broadcasts note change events.
// A client only receives events for its own owner.
//
// Concurrency model: a single internal event loop owns the client set.
// Public methods communicate with this loop through channels, so no mutexes
// are required.
type Broker struct {
	subscribeCh   chan client
	unsubscribeCh chan chan []byte
	publishCh     chan noteEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker and starts its event loop.
func NewBroker() *Broker {
	b := &Broker{
		subscribeCh:   make(chan client),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan noteEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]string) // channel → owner

	broadcast := func(owner string, event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))
		for ch, o := range clients {
			if o != owner {
				continue
			}
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case c := <-b.subscribeCh:
			clients[c.ch] = c.owner

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case req := <-b.publishCh:
			broadcast(req.owner, Event{
				Type: "note." + req.kind,
				Data: map[string]string{"path": req.path},
			})

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client for the given owner and returns its channel.
func (b *Broker) Subscribe(owner string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subscribeCh <- client{owner: owner, ch: ch}:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// PublishNoteEvent broadcasts a note change ("created", "written",
// "deleted", "renamed") to the owner's clients.
func (b *Broker) PublishNoteEvent(kind, owner, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- noteEventReq{kind: kind, owner: owner, path: path}:
	case <-b.stopped:
	}
}

// Handler returns the SSE endpoint handler. ownerFromRequest extracts the
// requesting owner, typically from an authenticated header.
func (b *Broker) Handler(ownerFromRequest func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		owner := ownerFromRequest(r)
		if owner == "" {
			http.Error(w, "missing owner", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		ch := b.Subscribe(owner)
		defer b.Unsubscribe(ch)

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				_, _ = w.Write(msg)
				flusher.Flush()
			}
		}
	}
}
