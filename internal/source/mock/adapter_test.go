package mock

import (
	"context"
	"sync"
	"testing"
	"time"

	"ai-live-interpreter-service/internal/models"
)

type captureCallback struct {
	mu        sync.Mutex
	fragments []models.Fragment
	errs      []error
	finalSeen chan struct{}
	finalOnce sync.Once
}

func newCaptureCallback() *captureCallback {
	return &captureCallback{finalSeen: make(chan struct{})}
}

func (c *captureCallback) OnFragment(f models.Fragment) {
	c.mu.Lock()
	c.fragments = append(c.fragments, f)
	c.mu.Unlock()
	if f.IsFinal {
		c.finalOnce.Do(func() { close(c.finalSeen) })
	}
}

func (c *captureCallback) OnError(err error) {
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
}

func TestAdapter_ReplaysInterimsThenFinal(t *testing.T) {
	script := []SimulatedUtterance{
		{Interims: []string{"I think", "I think the"}, Final: "I think the team is great", PauseMs: 10},
	}
	adapter := NewWithScript(script, time.Millisecond)
	cb := newCaptureCallback()

	if err := adapter.Start(context.Background(), cb); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer adapter.Close()

	select {
	case <-cb.finalSeen:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for final fragment")
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if len(cb.fragments) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(cb.fragments))
	}
	for i, f := range cb.fragments[:2] {
		if f.IsFinal {
			t.Errorf("fragment %d: expected interim, got final", i)
		}
	}
	last := cb.fragments[2]
	if !last.IsFinal {
		t.Error("expected last fragment to be final")
	}
	if last.Text != "I think the team is great" {
		t.Errorf("unexpected final text %q", last.Text)
	}
	if len(cb.errs) != 0 {
		t.Errorf("unexpected errors: %v", cb.errs)
	}
}

func TestAdapter_Close_StopsReplay(t *testing.T) {
	script := []SimulatedUtterance{
		{Interims: []string{"a", "b", "c", "d"}, Final: "a b c d", PauseMs: 10},
	}
	adapter := NewWithScript(script, 50*time.Millisecond)
	cb := newCaptureCallback()

	if err := adapter.Start(context.Background(), cb); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := adapter.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Close again must be a no-op.
	if err := adapter.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	cb.mu.Lock()
	count := len(cb.fragments)
	cb.mu.Unlock()

	if count >= 5 {
		t.Errorf("expected replay to stop early, got %d fragments", count)
	}
}

func TestAdapter_ContextCancelStopsReplay(t *testing.T) {
	adapter := NewWithScript(DefaultUtterances, 20*time.Millisecond)
	cb := newCaptureCallback()

	ctx, cancel := context.WithCancel(context.Background())
	if err := adapter.Start(ctx, cb); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cancel()

	time.Sleep(100 * time.Millisecond)
	cb.mu.Lock()
	count := len(cb.fragments)
	cb.mu.Unlock()

	time.Sleep(100 * time.Millisecond)
	cb.mu.Lock()
	after := len(cb.fragments)
	cb.mu.Unlock()

	if after != count {
		t.Errorf("fragments still arriving after cancel: %d -> %d", count, after)
	}
}
