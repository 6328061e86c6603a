// Package block provides the transcript block type and its lifecycle
// management. A block is the unit of translation work: original-language
// text accumulates while the block is collecting, then the text is frozen
// and the block moves through processing to completed.
package block

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Status represents the lifecycle state of a block.
type Status int

const (
	// StatusCollecting - block is open, text is still being appended.
	StatusCollecting Status = iota
	// StatusProcessing - a quality translation request is outstanding.
	StatusProcessing
	// StatusCompleted - terminal: quality result applied or request abandoned.
	StatusCompleted
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusCollecting:
		return "COLLECTING"
	case StatusProcessing:
		return "PROCESSING"
	case StatusCompleted:
		return "COMPLETED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Errors for invalid state transitions.
var (
	ErrTextImmutable    = errors.New("block text is immutable once it leaves collecting")
	ErrNotCollecting    = errors.New("block is not collecting")
	ErrAlreadyCompleted = errors.New("block is already completed")
)

// Block is a bounded unit of original-language text scheduled for
// translation. Thread-safe: dispatch workers read text concurrently with
// the event loop.
//
// State transitions:
//
//	COLLECTING → PROCESSING → COMPLETED
//	     │
//	     └──────────────────→ COMPLETED   (never dispatched)
//
// Rules:
//   - COLLECTING: text appends allowed (final fragments), interim suffix
//     tracked separately and never counted toward the word count
//   - PROCESSING/COMPLETED: text is immutable
//   - COMPLETED is terminal
type Block struct {
	mu sync.RWMutex

	id        uint64
	words     []string
	interim   string
	status    Status
	fast      string
	quality   string
	createdAt time.Time
}

// New creates a new block in COLLECTING state.
func New(id uint64) *Block {
	return &Block{
		id:        id,
		status:    StatusCollecting,
		createdAt: time.Now(),
	}
}

// ID returns the block's monotonic identity.
func (b *Block) ID() uint64 {
	return b.id
}

// CreatedAt returns the block's creation time.
func (b *Block) CreatedAt() time.Time {
	return b.createdAt
}

// Status returns the current lifecycle status.
func (b *Block) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// Text returns the committed original-language text.
func (b *Block) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return strings.Join(b.words, " ")
}

// WordCount returns the committed word count. Interim text never counts.
func (b *Block) WordCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.words)
}

// Interim returns the current uncommitted interim suffix.
func (b *Block) Interim() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.interim
}

// SetInterim replaces the interim suffix. Interim text has the lowest
// precedence and is always overwritable; it is only valid while collecting.
func (b *Block) SetInterim(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status != StatusCollecting {
		return ErrTextImmutable
	}
	b.interim = text
	return nil
}

// CommitFinal appends a finalized fragment to the permanent text, clears
// the interim suffix and returns the new word count.
func (b *Block) CommitFinal(text string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status != StatusCollecting {
		return len(b.words), ErrTextImmutable
	}
	b.words = append(b.words, strings.Fields(text)...)
	b.interim = ""
	return len(b.words), nil
}

// SetFastTranslation records the fast-path translation of the committed text.
func (b *Block) SetFastTranslation(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fast = text
}

// FastTranslation returns the fast-path translation.
func (b *Block) FastTranslation() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.fast
}

// MarkProcessing transitions COLLECTING → PROCESSING. This is the designated
// transition used by the dispatch queue when a request is issued; from here
// on the text is immutable.
func (b *Block) MarkProcessing() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.status {
	case StatusCollecting:
		b.interim = ""
		b.status = StatusProcessing
		return nil
	case StatusProcessing:
		return ErrNotCollecting
	default:
		return ErrAlreadyCompleted
	}
}

// Complete transitions the block to COMPLETED, recording the quality
// translation if one arrived. An empty quality value means the request was
// abandoned and the fast-path translation is the terminal value. Idempotent
// in the sense that a second call returns ErrAlreadyCompleted and changes
// nothing.
func (b *Block) Complete(quality string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status == StatusCompleted {
		return ErrAlreadyCompleted
	}
	b.interim = ""
	b.quality = quality
	b.status = StatusCompleted
	return nil
}

// QualityTranslation returns the quality translation and whether one was
// applied.
func (b *Block) QualityTranslation() (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.quality, b.quality != ""
}

// TerminalTranslation returns the text that permanently represents this
// block once completed: the quality translation when present, otherwise the
// fast-path translation.
func (b *Block) TerminalTranslation() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.quality != "" {
		return b.quality
	}
	return b.fast
}

// Generator produces monotonically increasing block ids.
type Generator struct {
	counter uint64
}

// NewGenerator creates a new id generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Next returns the next block id.
func (g *Generator) Next() uint64 {
	return atomic.AddUint64(&g.counter, 1)
}
