// Package speech turns streamed prose into spoken sentences.
//
// A Buffer seals sentences at boundary marks, a Dispatcher batches sealed
// sentences onto a Sink, and a Sink plays at most one job at a time.
package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrBusy is returned when a job is submitted while another is playing.
	ErrBusy = errors.New("speech: playback slot busy")
)

// Sink is a single-slot speech engine.
type Sink interface {
	// Submit starts playing text and returns without waiting for playback.
	Submit(ctx context.Context, text string) error
	// Busy reports whether a job is playing.
	Busy() bool
	// Wait blocks until the slot is idle and returns the failure of the last
	// job, if any.
	Wait(ctx context.Context) error
}

// launcher starts a job and returns the function that waits for it to end.
type launcher func() (wait func() error, err error)

// slot is the at-most-one-active-job primitive shared by the sinks.
type slot struct {
	mu   sync.Mutex
	done chan struct{}
	err  error
}

func (s *slot) busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked()
}

func (s *slot) activeLocked() bool {
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// start launches a job if the slot is free. A failure of the previous job is
// returned instead of starting a new one.
func (s *slot) start(launch launcher) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeLocked() {
		return ErrBusy
	}
	if err := s.err; err != nil {
		s.err = nil
		return fmt.Errorf("previous playback: %w", err)
	}

	wait, err := launch()
	if err != nil {
		return err
	}

	done := make(chan struct{})
	s.done = done
	go func() {
		err := wait()
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(done)
	}()
	return nil
}

func (s *slot) wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.err
	s.err = nil
	return err
}

// Discard is a muted sink: it accepts every job and plays nothing.
type Discard struct{}

func (Discard) Submit(context.Context, string) error { return nil }
func (Discard) Busy() bool                           { return false }
func (Discard) Wait(context.Context) error           { return nil }

var _ Sink = Discard{}
