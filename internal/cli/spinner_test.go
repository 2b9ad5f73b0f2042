package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer written by the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsAndClears(t *testing.T) {
	var out syncBuffer
	s := startSpinnerTo(context.Background(), &out, "Solving...")
	time.Sleep(3 * spinInterval)
	s.Update("Balancing...")
	time.Sleep(3 * spinInterval)
	s.Stop()
	s.Stop()

	got := out.String()
	for _, want := range []string{"Solving...", "Balancing...", "\r"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q: %q", want, got)
		}
	}
}

func TestSpinnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := startSpinnerTo(ctx, &syncBuffer{}, "Rendering...")
	cancel()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("spinner still running after cancel")
	}
	s.Stop()
}

func TestSpin(t *testing.T) {
	got, err := spin(context.Background(), "Working...", func() (int, error) { return 42, nil })
	if err != nil || got != 42 {
		t.Errorf("spin() = %d, %v; want 42, nil", got, err)
	}
}
