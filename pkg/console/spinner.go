package console

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

// SpinnerWrapper wraps the spinner with TTY detection. It draws on stderr
// so command output on stdout stays machine readable.
type SpinnerWrapper struct {
	mu      sync.Mutex
	spinner *spinner.Spinner
	enabled bool
	message string
}

// NewSpinner creates a new spinner with the given message.
// The spinner is disabled when stderr is not a terminal.
func NewSpinner(message string) *SpinnerWrapper {
	s := &SpinnerWrapper{
		enabled: isatty.IsTerminal(os.Stderr.Fd()),
		message: message,
	}

	if s.enabled {
		s.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		s.spinner.Suffix = " " + message
		_ = s.spinner.Color("cyan")
	}

	return s
}

// Start begins the spinner animation
func (s *SpinnerWrapper) Start() {
	if s.enabled && s.spinner != nil {
		s.spinner.Start()
	}
}

// Stop stops the spinner animation
func (s *SpinnerWrapper) Stop() {
	if s.enabled && s.spinner != nil {
		s.spinner.Stop()
	}
}

// UpdateMessage replaces the spinner message
func (s *SpinnerWrapper) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.message = message
	if s.enabled && s.spinner != nil {
		s.spinner.Lock()
		s.spinner.Suffix = " " + message
		s.spinner.Unlock()
	}
}

// Progress appends a done/total counter to the original message. Safe to
// call from worker goroutines.
func (s *SpinnerWrapper) Progress(done, total int) {
	s.mu.Lock()
	base := s.message
	s.mu.Unlock()

	if s.enabled && s.spinner != nil {
		s.spinner.Lock()
		s.spinner.Suffix = fmt.Sprintf(" %s (%d/%d)", base, done, total)
		s.spinner.Unlock()
	}
}

// Message returns the current base message
func (s *SpinnerWrapper) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// IsEnabled returns whether the spinner is enabled (i.e., running in a TTY)
func (s *SpinnerWrapper) IsEnabled() bool {
	return s.enabled
}
