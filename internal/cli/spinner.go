package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinInterval = 80 * time.Millisecond

// spinner animates a status line on w while a solve or render runs. It
// stops when Stop is called or its context ends.
type spinner struct {
	w    io.Writer
	mu   sync.Mutex
	msg  string
	last int // width of the last drawn line

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// startSpinner draws msg on stderr until Stop.
func startSpinner(ctx context.Context, msg string) *spinner {
	return startSpinnerTo(ctx, os.Stderr, msg)
}

func startSpinnerTo(ctx context.Context, w io.Writer, msg string) *spinner {
	s := &spinner{w: w, msg: msg, stop: make(chan struct{}), done: make(chan struct{})}
	go s.loop(ctx)
	return s
}

func (s *spinner) loop(ctx context.Context) {
	defer close(s.done)
	tick := time.NewTicker(spinInterval)
	defer tick.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			s.clear()
			return
		case <-s.stop:
			s.clear()
			return
		case <-tick.C:
			s.draw(spinFrames[i%len(spinFrames)])
		}
	}
}

// Update replaces the message shown next to the spinner.
func (s *spinner) Update(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

// Stop halts the animation and erases the line. Safe to call twice.
func (s *spinner) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

func (s *spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := styleSpinner.Render(frame) + " " + StyleDim.Render(s.msg)
	pad := ""
	if n := len(s.msg) + 2; n < s.last {
		pad = strings.Repeat(" ", s.last-n)
	}
	fmt.Fprintf(s.w, "\r%s%s", line, pad)
	s.last = len(s.msg) + 2
}

func (s *spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.last))
	}
}

// spin runs fn behind a spinner.
func spin[T any](ctx context.Context, msg string, fn func() (T, error)) (T, error) {
	s := startSpinner(ctx, msg)
	defer s.Stop()
	return fn()
}
