// Package sse streams task change notifications to browsers as Server-Sent Events.
package sse

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Event types emitted by the broker.
const (
	TypeTaskCreated  = "task.created"
	TypeTaskUpdated  = "task.updated"
	TypeTaskArchived = "task.archived"
	// TypeTasksChanged is a throttled hint to refetch the whole list.
	TypeTasksChanged = "tasks.changed"
)

const (
	clientBuffer = 64
	retryMillis  = 3000
	keepAlive    = 25 * time.Second
)

var taskEventTypes = map[string]string{
	"created":  TypeTaskCreated,
	"updated":  TypeTaskUpdated,
	"archived": TypeTaskArchived,
}

// Event is one message broadcast to every client.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// hub is the broker state. Only the run loop touches it.
type hub struct {
	clients   map[chan []byte]struct{}
	seq       uint64
	listEvery time.Duration
	lastList  time.Time
}

// send frames ev with the next sequence id and hands it to every client that
// has room. Slow clients miss the frame.
func (h *hub) send(ev Event) {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return
	}
	h.seq++
	frame := []byte("id: ")
	frame = strconv.AppendUint(frame, h.seq, 10)
	frame = append(frame, "\nevent: "...)
	frame = append(frame, ev.Type...)
	frame = append(frame, "\ndata: "...)
	frame = append(frame, data...)
	frame = append(frame, "\n\n"...)

	for ch := range h.clients {
		select {
		case ch <- frame:
		default:
		}
	}
}

func (h *hub) taskChanged(kind, id string, now time.Time) {
	typ, ok := taskEventTypes[kind]
	if !ok {
		return
	}
	h.send(Event{Type: typ, Data: map[string]string{"id": id}})
	if now.Sub(h.lastList) >= h.listEvery {
		h.lastList = now
		h.send(Event{Type: TypeTasksChanged, Data: map[string]string{}})
	}
}

func (h *hub) closeAll() {
	for ch := range h.clients {
		close(ch)
		delete(h.clients, ch)
	}
}

// Broker fans task events out to connected SSE clients.
//
// Every operation is a function run on the loop goroutine, in the order
// submitted. Submission blocks until the loop accepts the function, so an
// accepted operation always runs before shutdown closes the clients.
type Broker struct {
	ops     chan func(*hub)
	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker that emits tasks.changed at most once per
// listThrottle.
func NewBroker(listThrottle time.Duration) *Broker {
	if listThrottle <= 0 {
		listThrottle = 2 * time.Second
	}
	b := &Broker{
		ops:     make(chan func(*hub)),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go b.run(&hub{clients: make(map[chan []byte]struct{}), listEvery: listThrottle})
	return b
}

func (b *Broker) run(h *hub) {
	defer close(b.stopped)
	for {
		select {
		case <-b.stopCh:
			h.closeAll()
			return
		case op := <-b.ops:
			op(h)
		}
	}
}

// submit hands op to the loop. It reports false once the broker is closed.
func (b *Broker) submit(op func(*hub)) bool {
	if b.closed.Load() {
		return false
	}
	select {
	case b.ops <- op:
		return true
	case <-b.stopped:
		return false
	}
}

// Close stops the loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client and returns its message channel. The channel
// is closed on Unsubscribe or Close, or right away on a closed broker.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if !b.submit(func(h *hub) { h.clients[ch] = struct{}{} }) {
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.submit(func(h *hub) {
		if _, ok := h.clients[ch]; ok {
			delete(h.clients, ch)
			close(ch)
		}
	})
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	n := make(chan int, 1)
	if !b.submit(func(h *hub) { n <- len(h.clients) }) {
		return 0
	}
	return <-n
}

// Publish broadcasts an arbitrary event.
func (b *Broker) Publish(ev Event) {
	b.submit(func(h *hub) { h.send(ev) })
}

// PublishTaskEvent broadcasts a task change followed, at most once per
// throttle interval, by tasks.changed. kind is created, updated or archived;
// anything else is ignored.
func (b *Broker) PublishTaskEvent(kind, id string) {
	now := time.Now()
	b.submit(func(h *hub) { h.taskChanged(kind, id, now) })
}

// ServeHTTP streams events to one client until it disconnects. Idle
// connections get a comment line every keepAlive so proxies keep them open.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(strconv.AppendInt([]byte("retry: "), retryMillis, 10))
	_, _ = w.Write([]byte("\n\n"))
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	tick := time.NewTicker(keepAlive)
	defer tick.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			_, _ = w.Write([]byte(": keep-alive\n\n"))
			flusher.Flush()
		case frame, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(frame)
			flusher.Flush()
		}
	}
}
