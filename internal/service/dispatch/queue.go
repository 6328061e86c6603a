// Package dispatch issues quality translation requests for eligible blocks
// and correlates their asynchronous results back to the originating block
// and conversation message. Responses carry no ordering guarantee: routing
// is by response id, never by arrival order.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"ai-live-interpreter-service/internal/config"
	"ai-live-interpreter-service/internal/observability/logging"
	"ai-live-interpreter-service/internal/observability/metrics"
	"ai-live-interpreter-service/internal/service/block"
	"ai-live-interpreter-service/internal/translate"
)

// Rejection reasons for enqueue attempts.
var (
	ErrTooFewWords       = errors.New("block below the minimum word count for quality translation")
	ErrTooManyWords      = errors.New("block above the maximum word count for quality translation")
	ErrAlreadyInFlight   = errors.New("a quality request is already outstanding for this block")
	ErrAlreadyDispatched = errors.New("block was already dispatched or completed")
)

// Request correlates one outstanding quality translation.
type Request struct {
	BlockID         uint64
	Text            string
	ResponseID      string
	TargetMessageID string
}

// Response is the resolved outcome of a request. Err is non-nil when every
// attempt failed; the caller then falls back to the fast-path translation.
type Response struct {
	Request Request
	Result  translate.QualityResult
	Err     error
}

// ResultFunc receives resolved responses. It is invoked from worker
// goroutines; callers route the response back into their own event loop.
type ResultFunc func(Response)

// Queue enforces the dispatch policy: size window, at-most-one-in-flight
// per block, bounded concurrency, bounded retries and the stale-result
// guard.
type Queue struct {
	cfg      config.DispatchConfig
	backend  translate.QualityBackend
	onResult ResultFunc
	metrics  *metrics.Metrics

	slots chan struct{}

	mu       sync.Mutex
	inFlight map[uint64]string  // blockId -> responseId
	tracked  map[string]Request // responseId -> request

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a dispatch queue delivering results to onResult.
func New(cfg config.DispatchConfig, backend translate.QualityBackend, onResult ResultFunc) *Queue {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		cfg:      cfg,
		backend:  backend,
		onResult: onResult,
		metrics:  metrics.DefaultMetrics,
		slots:    make(chan struct{}, cfg.MaxInFlight),
		inFlight: make(map[uint64]string),
		tracked:  make(map[string]Request),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Enqueue issues at most one quality request for the block. Undersized,
// oversized and already-dispatched blocks are rejected; a second attempt
// while a request is outstanding is dropped, not queued. Enqueue never
// blocks: the request waits for a concurrency slot inside its worker.
func (q *Queue) Enqueue(b *block.Block, targetMessageID, conversationContext string, sourceLang, targetLang string) (Request, error) {
	words := b.WordCount()
	if words < q.cfg.MinWordsForLLM {
		q.metrics.RecordDispatchRejected("too_few_words")
		return Request{}, ErrTooFewWords
	}
	if words > q.cfg.MaxWordsForLLM {
		q.metrics.RecordDispatchRejected("too_many_words")
		return Request{}, ErrTooManyWords
	}

	q.mu.Lock()
	if _, outstanding := q.inFlight[b.ID()]; outstanding {
		q.mu.Unlock()
		q.metrics.RecordDispatchRejected("already_in_flight")
		return Request{}, ErrAlreadyInFlight
	}
	// Take ownership of the collecting->processing transition while holding
	// the queue lock so concurrent enqueues of the same block cannot race.
	if err := b.MarkProcessing(); err != nil {
		q.mu.Unlock()
		q.metrics.RecordDispatchRejected("already_dispatched")
		return Request{}, ErrAlreadyDispatched
	}

	req := Request{
		BlockID:         b.ID(),
		Text:            b.Text(),
		ResponseID:      uuid.NewString(),
		TargetMessageID: targetMessageID,
	}
	q.inFlight[req.BlockID] = req.ResponseID
	q.tracked[req.ResponseID] = req
	q.mu.Unlock()

	q.metrics.RecordDispatchEnqueued()
	logging.WithDispatch(req.BlockID, req.ResponseID).Debug().
		Int("words", words).
		Msg("Quality request enqueued")

	go q.run(req, translate.QualityRequest{
		Text:       req.Text,
		SourceLang: sourceLang,
		TargetLang: targetLang,
		Context:    conversationContext,
	})

	return req, nil
}

// Reset discards all correlation state. Late responses for requests issued
// before the reset are dropped by the stale-result guard.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inFlight = make(map[uint64]string)
	q.tracked = make(map[string]Request)
}

// Close stops the queue; outstanding workers are cancelled.
func (q *Queue) Close() {
	q.cancel()
}

func (q *Queue) run(req Request, qreq translate.QualityRequest) {
	start := time.Now()

	select {
	case q.slots <- struct{}{}:
	case <-q.ctx.Done():
		q.deliver(req, Response{Request: req, Err: q.ctx.Err()}, start)
		return
	}
	defer func() { <-q.slots }()

	attempts := q.cfg.MaxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			q.metrics.RecordDispatchRetry()
			logging.WithDispatch(req.BlockID, req.ResponseID).Warn().
				Err(lastErr).
				Int("attempt", attempt+1).
				Msg("Retrying quality request")
		}

		attemptCtx, cancel := context.WithTimeout(q.ctx, q.cfg.RequestTimeout)
		result, err := q.backend.Request(attemptCtx, qreq)
		cancel()

		if err == nil {
			q.deliver(req, Response{Request: req, Result: result}, start)
			return
		}
		lastErr = err

		if q.ctx.Err() != nil {
			break
		}
	}

	q.deliver(req, Response{Request: req, Err: lastErr}, start)
}

// deliver applies the stale-result guard and hands the response to the
// consumer. Responses whose id is no longer tracked (session reset,
// superseded block) are logged and discarded, never applied.
func (q *Queue) deliver(req Request, resp Response, start time.Time) {
	q.mu.Lock()
	_, known := q.tracked[req.ResponseID]
	if known {
		delete(q.tracked, req.ResponseID)
		delete(q.inFlight, req.BlockID)
	}
	q.mu.Unlock()

	if !known {
		q.metrics.RecordStaleResponse()
		logging.WithDispatch(req.BlockID, req.ResponseID).Info().
			Msg("Discarding stale quality response")
		return
	}

	q.metrics.RecordDispatchDone(resp.Err == nil, time.Since(start).Seconds())
	q.onResult(resp)
}
