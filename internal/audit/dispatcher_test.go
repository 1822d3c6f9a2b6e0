package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

type blockingSink struct {
	release chan struct{}
	mu      sync.Mutex
	events  []Event
}

func (s *blockingSink) Emit(_ context.Context, event Event) {
	<-s.release
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *blockingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestDispatcherDisabledReturnsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{EventType: "x"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher should report zero drops")
	}
}

func TestDispatcherDeliversToChannelSink(t *testing.T) {
	sink := NewChannelSink(4)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4, DropIfFull: true}, sink)
	defer d.Close()

	d.Emit(context.Background(), Event{EventType: "login_success", UserID: "u1", Success: true})

	select {
	case got := <-sink.Events():
		if got.EventType != "login_success" || got.UserID != "u1" {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for audit event")
	}
}

func TestDispatcherDropIfFullCountsDrops(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: "e"})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a blocked sink and a buffer of one")
	}

	close(sink.release)
	d.Close()

	if sink.count() == 0 {
		t.Fatal("expected at least one delivered event after release")
	}
}

func TestDispatcherCloseDrainsBuffer(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8, DropIfFull: false}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{EventType: "password_change_success", Success: true})
	}
	d.Close()
	d.Emit(context.Background(), Event{EventType: "after_close"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 json lines, got %d:\n%s", len(lines), buf.String())
	}
	var ev Event
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("invalid json line: %v", err)
	}
	if ev.EventType != "password_change_success" {
		t.Fatalf("unexpected event type %q", ev.EventType)
	}
}

func TestSlogSinkWritesAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	NewSlogSink(logger).Emit(context.Background(), Event{
		EventType: "admin_user_deleted",
		UserID:    "u2",
		ActorID:   "u1",
		Success:   true,
		Metadata:  map[string]string{"email": "gone@x.com"},
	})

	out := buf.String()
	for _, want := range []string{"msg=audit", "event=admin_user_deleted", "user_id=u2", "actor_id=u1", "meta.email=gone@x.com"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestDispatcherConcurrentEmitAndClose(t *testing.T) {
	sink := NewChannelSink(1024)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16}, sink)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				d.Emit(context.Background(), Event{EventType: "e"})
			}
		}()
	}
	go d.Close()
	wg.Wait()
	d.Close()
	d.Close()

	if got := len(sink.Events()); got > 400 {
		t.Fatalf("sink received %d events, more than were emitted", got)
	}
}

func TestDispatcherBlockingEmitHonoursContext(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)

	// One event occupies the relay, one fills the buffer.
	d.Emit(context.Background(), Event{EventType: "a"})
	d.Emit(context.Background(), Event{EventType: "b"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		d.Emit(ctx, Event{EventType: "c"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit ignored context cancellation")
	}

	close(sink.release)
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("blocking mode never counts drops")
	}
}

func TestDispatcherWithSinkFunc(t *testing.T) {
	got := make(chan string, 1)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, SinkFunc(func(_ context.Context, e Event) {
		got <- e.EventType
	}))
	d.Emit(context.Background(), Event{EventType: "logout", Success: true})
	d.Close()

	if ev := <-got; ev != "logout" {
		t.Fatalf("unexpected event %q", ev)
	}
}
