package web

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"drinktab/events"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

// changeFeed fans event bus traffic out to connected SSE clients so the
// frontend can invalidate its caches when bills or users change.
type changeFeed struct {
	mu        sync.Mutex
	clients   map[chan string]struct{}
	keepAlive time.Duration
}

func newChangeFeed(bus *events.Bus) *changeFeed {
	f := &changeFeed{
		clients:   make(map[chan string]struct{}),
		keepAlive: 30 * time.Second,
	}

	forward := func(ctx context.Context, event events.Event) {
		f.broadcast(event)
	}
	for _, eventType := range []events.EventType{
		events.EventTypeUserChanged,
		events.EventTypeBillChanged,
		events.EventTypeBillsSettled,
		events.EventTypeReminderSent,
	} {
		bus.Subscribe(eventType, forward)
	}

	return f
}

func (f *changeFeed) broadcast(event events.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("Failed to encode change event")
		return
	}
	message := fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type(), payload)

	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.clients {
		select {
		case ch <- message:
		default:
			// Slow client; drop the event rather than block the bus
		}
	}
}

func (f *changeFeed) subscribe() chan string {
	ch := make(chan string, 16)
	f.mu.Lock()
	f.clients[ch] = struct{}{}
	f.mu.Unlock()
	return ch
}

func (f *changeFeed) unsubscribe(ch chan string) {
	f.mu.Lock()
	delete(f.clients, ch)
	f.mu.Unlock()
}

// Stream serves the change feed as server-sent events
func (f *changeFeed) Stream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	ch := f.subscribe()

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		f.pump(w, ch)
	}))

	return nil
}

// pump writes the feed to one client until the connection drops. The
// keep-alive tick surfaces a dead connection even when no events arrive,
// so the writer never outlives its client for long.
func (f *changeFeed) pump(w *bufio.Writer, ch chan string) {
	defer f.unsubscribe(ch)

	// Tell the client the stream is live
	fmt.Fprint(w, ": connected\n\n")
	if err := w.Flush(); err != nil {
		return
	}

	ticker := time.NewTicker(f.keepAlive)
	defer ticker.Stop()

	for {
		var message string
		select {
		case message = <-ch:
		case <-ticker.C:
			message = ": ping\n\n"
		}
		if _, err := fmt.Fprint(w, message); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}
