package web

import (
	"bufio"
	"errors"
	"testing"
	"time"

	"drinktab/events"

	"github.com/stretchr/testify/assert"
)

func TestChangeFeedBroadcast(t *testing.T) {
	feed := newChangeFeed(events.NewBus())
	ch := feed.subscribe()

	feed.broadcast(events.BillChangedEvent{BillID: "b-1"})

	select {
	case msg := <-ch:
		assert.Contains(t, msg, "event: bill_changed")
		assert.Contains(t, msg, `"b-1"`)
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestChangeFeedSlowClientDoesNotBlock(t *testing.T) {
	feed := newChangeFeed(events.NewBus())
	ch := feed.subscribe()

	// Fill the buffer and keep going; broadcast must never block
	for i := 0; i < cap(ch)+5; i++ {
		feed.broadcast(events.UserChangedEvent{UserID: "u-1"})
	}
	assert.Len(t, ch, cap(ch))
}

// fails every write after the first, like a client that disconnected
// right after the stream opened
type droppedConn struct {
	writes int
}

func (w *droppedConn) Write(p []byte) (int, error) {
	w.writes++
	if w.writes > 1 {
		return 0, errors.New("connection reset")
	}
	return len(p), nil
}

func TestPumpStopsForDeadClient(t *testing.T) {
	feed := newChangeFeed(events.NewBus())
	feed.keepAlive = 10 * time.Millisecond

	ch := feed.subscribe()
	done := make(chan struct{})
	go func() {
		feed.pump(bufio.NewWriter(&droppedConn{}), ch)
		close(done)
	}()

	// The keep-alive tick must surface the dead connection even though no
	// events arrive
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump kept running for a dead client")
	}

	feed.mu.Lock()
	defer feed.mu.Unlock()
	assert.Empty(t, feed.clients)
}
