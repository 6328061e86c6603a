// Package stabilizer maintains the frozen zone: the prefix of translated
// text that has been finalized and is guaranteed never to change again.
// Quality results may arrive out of order; the frozen prefix only advances
// contiguously in block order, so previously displayed text is never
// contradicted.
package stabilizer

import (
	"fmt"
	"strings"

	"ai-live-interpreter-service/internal/observability/logging"
	"ai-live-interpreter-service/internal/observability/metrics"
	"ai-live-interpreter-service/internal/service/block"
)

// State describes the freeze progress of the active stream.
type State int

const (
	// StateNoFreeze - everything displayed is fast-path text.
	StateNoFreeze State = iota
	// StatePartialFreeze - a frozen prefix exists, the suffix is fast-path.
	StatePartialFreeze
	// StateFullyFrozen - every tracked block has been folded into the prefix.
	StateFullyFrozen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNoFreeze:
		return "NO_FREEZE"
	case StatePartialFreeze:
		return "PARTIAL_FREEZE"
	case StateFullyFrozen:
		return "FROZEN"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// entry tracks one closed block awaiting its terminal translation.
type entry struct {
	blockID  uint64
	words    int
	fast     string
	terminal string
	resolved bool
}

// Stabilizer folds resolved blocks into the frozen prefix. Not thread-safe:
// owned by the pipeline's single consumer goroutine.
type Stabilizer struct {
	pending     []*entry
	frozenText  string
	frozenWords int
	metrics     *metrics.Metrics
}

// New creates an empty stabilizer.
func New() *Stabilizer {
	return &Stabilizer{metrics: metrics.DefaultMetrics}
}

// Track registers a closed block. Blocks must be tracked in block order.
func (s *Stabilizer) Track(b *block.Block) {
	s.pending = append(s.pending, &entry{
		blockID: b.ID(),
		words:   b.WordCount(),
		fast:    b.FastTranslation(),
	})
}

// UpdateFast refreshes the live fast-path translation of a tracked block.
// A resolved block ignores the update: its terminal text already won.
func (s *Stabilizer) UpdateFast(blockID uint64, fast string) {
	for _, e := range s.pending {
		if e.blockID == blockID && !e.resolved {
			e.fast = fast
			return
		}
	}
}

// Resolve records the terminal translation for a tracked block and advances
// the frozen prefix over every leading resolved block. Returns the number
// of source words newly committed to the frozen zone (0 when the block is
// held back behind an unresolved earlier block). Unknown block ids are
// ignored.
func (s *Stabilizer) Resolve(blockID uint64, terminal string) int {
	for _, e := range s.pending {
		if e.blockID == blockID {
			e.terminal = terminal
			e.resolved = true
			break
		}
	}
	return s.advance()
}

// advance folds leading resolved entries into the frozen prefix. The prefix
// word count is monotonically non-decreasing and committed text is only
// ever extended.
func (s *Stabilizer) advance() int {
	frozen := 0
	for len(s.pending) > 0 && s.pending[0].resolved {
		e := s.pending[0]
		s.pending = s.pending[1:]

		if s.frozenText == "" {
			s.frozenText = e.terminal
		} else if e.terminal != "" {
			s.frozenText = s.frozenText + " " + e.terminal
		}
		s.frozenWords += e.words
		frozen += e.words

		logging.WithComponent("stabilizer").Debug().
			Uint64("blockId", e.blockID).
			Int("frozenWords", s.frozenWords).
			Msg("Frozen prefix advanced")
	}

	if frozen > 0 {
		s.metrics.RecordFreeze(frozen)
	}
	s.metrics.PendingQualityMax.Set(float64(len(s.pending)))
	return frozen
}

// FrozenText returns the committed quality prefix. It is never rewritten,
// only extended.
func (s *Stabilizer) FrozenText() string {
	return s.frozenText
}

// FrozenPrefixWordCount returns the number of source words covered by the
// frozen prefix.
func (s *Stabilizer) FrozenPrefixWordCount() int {
	return s.frozenWords
}

// LiveSuffix returns the fast-path translations of tracked blocks that are
// not yet part of the frozen prefix, in block order. This includes blocks
// already resolved but held back behind an unresolved earlier block.
func (s *Stabilizer) LiveSuffix() string {
	parts := make([]string, 0, len(s.pending))
	for _, e := range s.pending {
		if e.fast != "" {
			parts = append(parts, e.fast)
		}
	}
	return strings.Join(parts, " ")
}

// PendingCount returns the number of tracked blocks awaiting the prefix.
func (s *Stabilizer) PendingCount() int {
	return len(s.pending)
}

// State reports the current freeze state.
func (s *Stabilizer) State() State {
	switch {
	case s.frozenWords == 0:
		return StateNoFreeze
	case len(s.pending) == 0:
		return StateFullyFrozen
	default:
		return StatePartialFreeze
	}
}

// Reset clears all state for a new session.
func (s *Stabilizer) Reset() {
	s.pending = nil
	s.frozenText = ""
	s.frozenWords = 0
	s.metrics.PendingQualityMax.Set(0)
}
