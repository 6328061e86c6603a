// Package mock provides a mock transcript source for running without a
// speech provider. It simulates realistic recognizer behavior with
// progressive interim fragments followed by exactly one final per utterance,
// separated by silence gaps.
package mock

import (
	"context"
	"sync"
	"time"

	"ai-live-interpreter-service/internal/models"
	"ai-live-interpreter-service/internal/source"
)

// SimulatedUtterance represents one spoken turn with progressive transcripts.
type SimulatedUtterance struct {
	Interims []string // Progressive interim fragments
	Final    string   // Final fragment text
	PauseMs  int      // Silence after the final, before the next utterance
}

// DefaultUtterances provides sample utterances for simulation.
var DefaultUtterances = []SimulatedUtterance{
	{
		Interims: []string{"So tell me", "So tell me about your"},
		Final:    "So tell me about your experience with distributed systems.",
		PauseMs:  1800,
	},
	{
		Interims: []string{"What would you", "What would you say is"},
		Final:    "What would you say is your biggest weakness as an engineer?",
		PauseMs:  1800,
	},
	{
		Interims: []string{"We move fast", "We move fast here and"},
		Final:    "We move fast here and expect people to own their services end to end.",
		PauseMs:  2000,
	},
	{
		Interims: []string{"Do you have"},
		Final:    "Do you have any questions for me?",
		PauseMs:  1600,
	},
}

// Adapter implements source.Adapter with scripted fragments.
type Adapter struct {
	utterances []SimulatedUtterance
	interval   time.Duration

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// New creates a mock source replaying the default utterances.
func New() *Adapter {
	return NewWithScript(DefaultUtterances, 350*time.Millisecond)
}

// NewWithScript creates a mock source replaying the given utterances with a
// fixed inter-fragment interval.
func NewWithScript(utterances []SimulatedUtterance, interval time.Duration) *Adapter {
	return &Adapter{
		utterances: utterances,
		interval:   interval,
		done:       make(chan struct{}),
	}
}

// Start replays the script in a background goroutine.
func (a *Adapter) Start(ctx context.Context, cb source.Callback) error {
	go a.replay(ctx, cb)
	return nil
}

// Close stops the replay. Idempotent.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	close(a.done)
	return nil
}

func (a *Adapter) replay(ctx context.Context, cb source.Callback) {
	for _, utt := range a.utterances {
		for _, interim := range utt.Interims {
			if !a.emit(ctx, cb, models.Fragment{Text: interim, IsFinal: false, EmittedAt: time.Now()}) {
				return
			}
			if !a.sleep(ctx, a.interval) {
				return
			}
		}
		if !a.emit(ctx, cb, models.Fragment{Text: utt.Final, IsFinal: true, EmittedAt: time.Now()}) {
			return
		}
		pause := time.Duration(utt.PauseMs) * time.Millisecond
		if pause <= 0 {
			pause = a.interval
		}
		if !a.sleep(ctx, pause) {
			return
		}
	}
}

func (a *Adapter) emit(ctx context.Context, cb source.Callback, f models.Fragment) bool {
	select {
	case <-ctx.Done():
		return false
	case <-a.done:
		return false
	default:
	}
	cb.OnFragment(f)
	return true
}

func (a *Adapter) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-a.done:
		return false
	case <-t.C:
		return true
	}
}
