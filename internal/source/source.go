// Package source defines the interface for transcript source adapters.
// A source adapter is the external speech-to-text collaborator: it pushes
// (text, isFinal, timestamp) fragments at an unbounded rate.
package source

import (
	"context"

	"ai-live-interpreter-service/internal/models"
)

// Callback receives transcript fragments from the source provider.
type Callback interface {
	// OnFragment is called for every interim or final fragment.
	OnFragment(f models.Fragment)

	// OnError is called when the source stream fails.
	OnError(err error)
}

// Adapter defines the interface for transcript sources (streaming STT
// providers, simulators, replays).
type Adapter interface {
	// Start begins delivering fragments to the callback.
	Start(ctx context.Context, cb Callback) error

	// Close ends the session and releases resources.
	Close() error
}
