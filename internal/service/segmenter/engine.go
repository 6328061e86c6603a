// Package segmenter converts the fragment stream into a sequence of
// bounded, append-only blocks using silence, word-count and punctuation
// rules.
package segmenter

import (
	"regexp"
	"strings"
	"time"

	"ai-live-interpreter-service/internal/config"
	"ai-live-interpreter-service/internal/models"
	"ai-live-interpreter-service/internal/observability/logging"
	"ai-live-interpreter-service/internal/observability/metrics"
	"ai-live-interpreter-service/internal/service/block"
)

// CloseReason records which rule closed a block.
type CloseReason string

const (
	CloseSilence  CloseReason = "silence"
	CloseSentence CloseReason = "sentence"
	CloseOverflow CloseReason = "overflow"
	CloseFlush    CloseReason = "flush"
)

// sentenceEnd matches a sentence-final token, Latin or CJK punctuation.
var sentenceEnd = regexp.MustCompile(`[.!?。！？]["')\]]?$`)

// Result reports the effect of one segmentation event. Closed lists the
// blocks closed by the event in order (a long final fragment can spill
// across several); Open is the block currently collecting, if any.
type Result struct {
	Open   *block.Block
	Closed []*block.Block
	Reason CloseReason
}

// Engine is the segmentation engine. Not thread-safe: it is owned by the
// pipeline's single consumer goroutine.
type Engine struct {
	cfg     config.SegmenterConfig
	gen     *block.Generator
	metrics *metrics.Metrics

	current        *block.Block
	lastFragmentAt time.Time
}

// New creates a segmentation engine with the given policy.
func New(cfg config.SegmenterConfig, gen *block.Generator) *Engine {
	return &Engine{
		cfg:     cfg,
		gen:     gen,
		metrics: metrics.DefaultMetrics,
	}
}

// Current returns the open block, or nil when none is collecting.
func (e *Engine) Current() *block.Block {
	return e.current
}

// Consume processes one fragment. Interim fragments replace the open
// block's interim suffix; final fragments are committed to the permanent
// text and may close one or more blocks per the split rules. Commits never
// exceed the overflow headroom: a final fragment longer than the remaining
// room spills into fresh blocks, so no block ever finalizes above the cap.
// Empty fragments are ignored.
func (e *Engine) Consume(f models.Fragment) Result {
	text := strings.TrimSpace(f.Text)
	if text == "" {
		return Result{Open: e.current}
	}

	e.lastFragmentAt = f.EmittedAt
	if e.lastFragmentAt.IsZero() {
		e.lastFragmentAt = time.Now()
	}

	if e.current == nil {
		e.open()
	}

	if !f.IsFinal {
		// Recognizers resend the growing hypothesis; the interim suffix is
		// replaced wholesale and never counted toward the word count.
		if err := e.current.SetInterim(text); err != nil {
			logging.WithComponent("segmenter").Warn().Err(err).
				Uint64("blockId", e.current.ID()).
				Msg("Dropping interim for non-collecting block")
		}
		return Result{Open: e.current}
	}

	var res Result
	fields := strings.Fields(text)
	for len(fields) > 0 {
		if e.current == nil {
			e.open()
		}

		take := e.cfg.MaxWordsOverflow - e.current.WordCount()
		if take <= 0 || take > len(fields) {
			take = len(fields)
		}

		words, err := e.current.CommitFinal(strings.Join(fields[:take], " "))
		if err != nil {
			logging.WithComponent("segmenter").Error().Err(err).
				Uint64("blockId", e.current.ID()).
				Msg("Dropping final fragment for non-collecting block")
			break
		}
		fields = fields[take:]

		switch {
		case words >= e.cfg.MaxWordsOverflow:
			// Hard cap: run-on speech must not grow a block without bound.
			res.Closed = append(res.Closed, e.closeCurrent(CloseOverflow))
			res.Reason = CloseOverflow
		case len(fields) == 0 && words >= e.cfg.MaxWordsPerBlock &&
			words >= e.cfg.MinWordsForSentence && sentenceEnd.MatchString(text):
			res.Closed = append(res.Closed, e.closeCurrent(CloseSentence))
			res.Reason = CloseSentence
		}
	}

	res.Open = e.current
	return res
}

// CheckSilence closes the open block if no fragment arrived within the
// silence timeout. The silence rule is independent of the sentence-length
// guard: a short block still closes on silence.
func (e *Engine) CheckSilence(now time.Time) Result {
	if e.current == nil || e.current.WordCount() == 0 {
		return Result{Open: e.current}
	}
	if now.Sub(e.lastFragmentAt) < e.cfg.SilenceTimeout {
		return Result{Open: e.current}
	}
	return e.close(CloseSilence)
}

// ForceFlush closes the open block unconditionally (e.g. user stop action).
// A block with no committed words is discarded, not emitted.
func (e *Engine) ForceFlush() Result {
	if e.current == nil || e.current.WordCount() == 0 {
		e.current = nil
		return Result{}
	}
	return e.close(CloseFlush)
}

func (e *Engine) open() {
	e.current = block.New(e.gen.Next())
	e.metrics.RecordBlockCreated()
}

func (e *Engine) close(reason CloseReason) Result {
	return Result{Closed: []*block.Block{e.closeCurrent(reason)}, Reason: reason}
}

func (e *Engine) closeCurrent(reason CloseReason) *block.Block {
	closed := e.current
	e.current = nil
	e.metrics.RecordBlockClosed(string(reason), closed.WordCount())

	logging.WithComponent("segmenter").Debug().
		Uint64("blockId", closed.ID()).
		Int("words", closed.WordCount()).
		Str("reason", string(reason)).
		Msg("Block closed")

	return closed
}
