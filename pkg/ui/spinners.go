package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Spinner holds animation frames.
type Spinner struct {
	Frames   []string
	Interval time.Duration
}

var (
	dotsSpinner = Spinner{
		Frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		Interval: 80 * time.Millisecond,
	}
	lineSpinner = Spinner{
		Frames:   []string{"-", "\\", "|", "/"},
		Interval: 100 * time.Millisecond,
	}
)

// SpinnerFor returns braille dots on Unicode terminals and -\|/ otherwise.
func SpinnerFor(w io.Writer) Spinner {
	if UnicodeTerminal(w) {
		return dotsSpinner
	}
	return lineSpinner
}

// StartSpinner animates label with the elapsed time on w until the
// returned stop function is called. It draws nothing when w is not a
// terminal. stop is idempotent.
func StartSpinner(w io.Writer, label string) (stop func()) {
	if !IsTerminal(w) {
		return func() {}
	}

	sp := SpinnerFor(w)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(sp.Interval)
		defer ticker.Stop()
		start := time.Now()
		for i := 0; ; i++ {
			frame := SpinnerStyle.Render(sp.Frames[i%len(sp.Frames)])
			fmt.Fprintf(w, "\r%s %s %s", frame, label, MutedStyle.Render(time.Since(start).Truncate(time.Second).String()))
			select {
			case <-done:
				fmt.Fprint(w, "\r\033[K")
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}
