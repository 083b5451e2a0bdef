package inspect

import (
	"sync"
	"testing"
	"time"
)

func TestWatcher_NewWatcher(t *testing.T) {
	w := NewWatcher("w-1", "node_*")

	if w.ID() != "w-1" {
		t.Errorf("expected ID 'w-1', got '%s'", w.ID())
	}
	if w.Pattern() != "node_*" {
		t.Errorf("expected pattern 'node_*', got '%s'", w.Pattern())
	}
	if w.Events() == nil {
		t.Error("expected events channel to be set")
	}
}

func TestWatcher_EmptyPatternMatchesAll(t *testing.T) {
	w := NewWatcher("w-1", "")
	if w.Pattern() != "*" {
		t.Errorf("expected '*' for empty pattern, got '%s'", w.Pattern())
	}
}

func TestWatcher_Send_Success(t *testing.T) {
	w := NewWatcher("w-1", "*")

	ok := w.Send([]byte("test event"))
	if !ok {
		t.Error("expected send to succeed")
	}

	select {
	case msg := <-w.Events():
		if string(msg) != "test event" {
			t.Errorf("expected 'test event', got '%s'", string(msg))
		}
	default:
		t.Error("expected event in channel")
	}
}

func TestWatcher_Send_ChannelFull(t *testing.T) {
	w := NewWatcher("w-1", "*")

	// Fill the channel (size is 256)
	for i := 0; i < 256; i++ {
		w.Send([]byte("msg"))
	}

	ok := w.Send([]byte("overflow"))
	if ok {
		t.Error("expected send to fail when channel is full")
	}
}

func TestWatcher_Close(t *testing.T) {
	w := NewWatcher("w-1", "*")
	w.Close()

	_, open := <-w.Events()
	if open {
		t.Error("expected channel to be closed")
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	w := NewWatcher("w-1", "*")

	hub.Register(w)
	time.Sleep(10 * time.Millisecond)

	if hub.WatcherCount() != 1 {
		t.Errorf("expected 1 watcher after register, got %d", hub.WatcherCount())
	}

	hub.Unregister(w)
	time.Sleep(10 * time.Millisecond)

	if hub.WatcherCount() != 0 {
		t.Errorf("expected 0 watchers after unregister, got %d", hub.WatcherCount())
	}
}

func TestHub_WatcherIDs(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	hub.Register(NewWatcher("w-a", "*"))
	hub.Register(NewWatcher("w-b", "*"))
	time.Sleep(10 * time.Millisecond)

	ids := hub.WatcherIDs()
	if len(ids) != 2 {
		t.Errorf("expected 2 watcher IDs, got %d", len(ids))
	}

	idMap := make(map[string]bool)
	for _, id := range ids {
		idMap[id] = true
	}
	if !idMap["w-a"] || !idMap["w-b"] {
		t.Errorf("expected both IDs present, got %v", ids)
	}
}

func TestHub_Broadcast_PatternFilter(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	nodeWatcher := NewWatcher("w-node", "node_*")
	passWatcher := NewWatcher("w-pass", "pass_*")

	hub.Register(nodeWatcher)
	hub.Register(passWatcher)
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast("node_computed", []byte(`{"type":"node_computed"}`))
	time.Sleep(10 * time.Millisecond)

	select {
	case msg := <-nodeWatcher.Events():
		if string(msg) != `{"type":"node_computed"}` {
			t.Errorf("unexpected payload %q", string(msg))
		}
	default:
		t.Error("node watcher should have received the event")
	}

	select {
	case <-passWatcher.Events():
		t.Error("pass watcher should NOT have received a node event")
	default:
		// Expected
	}
}

func TestHub_Broadcast_WildcardMatchesAll(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	w := NewWatcher("w-all", "*")
	hub.Register(w)
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast("pass_started", []byte("a"))
	hub.Broadcast("node_failed", []byte("b"))
	time.Sleep(10 * time.Millisecond)

	received := 0
	for {
		select {
		case <-w.Events():
			received++
			continue
		default:
		}
		break
	}
	if received != 2 {
		t.Errorf("expected 2 events, got %d", received)
	}
}

func TestHub_ConcurrentOperations(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	var wg sync.WaitGroup
	watchers := make([]*Watcher, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			watchers[idx] = NewWatcher("w-"+string(rune('a'+idx)), "*")
			hub.Register(watchers[idx])
		}(i)
	}
	wg.Wait()
	time.Sleep(20 * time.Millisecond)

	if hub.WatcherCount() != 10 {
		t.Errorf("expected 10 watchers, got %d", hub.WatcherCount())
	}

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Broadcast("node_computed", []byte("concurrent"))
		}()
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			hub.Unregister(watchers[idx])
		}(i)
	}
	wg.Wait()
	time.Sleep(20 * time.Millisecond)

	if hub.WatcherCount() != 0 {
		t.Errorf("expected 0 watchers after unregister, got %d", hub.WatcherCount())
	}
}

func TestHub_Stop(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	w := NewWatcher("w-1", "*")
	hub.Register(w)
	time.Sleep(10 * time.Millisecond)

	hub.Stop()
	time.Sleep(10 * time.Millisecond)

	// Double stop should be safe
	hub.Stop()
}
