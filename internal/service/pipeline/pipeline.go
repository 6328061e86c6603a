// Package pipeline owns the event loop that ties the transcript source,
// segmentation engine, translation paths, frozen zone and conversation log
// together. All mutable pipeline state is touched by exactly one consumer
// goroutine; sources, dispatch workers and HTTP handlers only post events
// or read snapshots.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ai-live-interpreter-service/internal/config"
	"ai-live-interpreter-service/internal/events"
	"ai-live-interpreter-service/internal/models"
	"ai-live-interpreter-service/internal/observability/logging"
	"ai-live-interpreter-service/internal/observability/metrics"
	"ai-live-interpreter-service/internal/service/block"
	"ai-live-interpreter-service/internal/service/dispatch"
	"ai-live-interpreter-service/internal/service/display"
	"ai-live-interpreter-service/internal/service/segmenter"
	"ai-live-interpreter-service/internal/service/stabilizer"
	"ai-live-interpreter-service/internal/translate"
)

const (
	// eventBuffer absorbs recognizer bursts; the source callback blocks once
	// it fills, which preserves fragment order.
	eventBuffer = 512

	// silenceTickInterval bounds how late a silence close can fire.
	silenceTickInterval = 250 * time.Millisecond

	// contextTurns is how many recent messages ground a quality request.
	contextTurns = 6
)

type eventKind int

const (
	evFragment eventKind = iota
	evQuality
	evFlush
	evReset
)

// event is one unit of work for the consumer goroutine.
type event struct {
	kind     eventKind
	fragment models.Fragment
	response dispatch.Response
}

// Pipeline is the single-consumer coordinator. It implements
// source.Callback so an adapter can push fragments directly into it.
type Pipeline struct {
	cfg       *config.Configuration
	fast      translate.FastTranslator
	queue     *dispatch.Queue
	engine    *segmenter.Engine
	zone      *stabilizer.Stabilizer
	store     *Store
	publisher *events.Publisher
	metrics   *metrics.Metrics
	gen       *block.Generator

	events chan event
	done   chan struct{}

	sessionID string

	// Consumer-owned state: closed blocks awaiting their terminal
	// translation, and the fast translation of the open block's interim.
	blocks  map[uint64]*block.Block
	interim string

	mu      sync.RWMutex
	display models.DisplayState
}

// New wires the pipeline around the given translation backends and
// publisher. Run must be called before fragments are pushed.
func New(cfg *config.Configuration, fast translate.FastTranslator, quality translate.QualityBackend, pub *events.Publisher) *Pipeline {
	gen := block.NewGenerator()
	p := &Pipeline{
		cfg:       cfg,
		fast:      fast,
		engine:    segmenter.New(cfg.Segmenter, gen),
		zone:      stabilizer.New(),
		store:     NewStore(),
		publisher: pub,
		metrics:   metrics.DefaultMetrics,
		gen:       gen,
		events:    make(chan event, eventBuffer),
		done:      make(chan struct{}),
		sessionID: uuid.NewString(),
		blocks:    make(map[uint64]*block.Block),
	}
	p.queue = dispatch.New(cfg.Dispatch, quality, p.onQualityResult)
	return p
}

// Run consumes events until the context is cancelled. It owns every
// mutation of pipeline state.
func (p *Pipeline) Run(ctx context.Context) {
	logging.WithSession(p.sessionID).Info().Msg("Pipeline started")

	ticker := time.NewTicker(silenceTickInterval)
	defer ticker.Stop()
	defer p.queue.Close()
	defer close(p.done)

	for {
		select {
		case <-ctx.Done():
			logging.WithSession(p.sessionID).Info().Msg("Pipeline stopped")
			return
		case ev := <-p.events:
			p.handle(ctx, ev)
		case now := <-ticker.C:
			p.handleSilence(ctx, now)
		}
	}
}

// OnFragment implements source.Callback. Blocks when the event buffer is
// full so fragment order is preserved under backpressure.
func (p *Pipeline) OnFragment(f models.Fragment) {
	p.post(event{kind: evFragment, fragment: f})
}

// OnError implements source.Callback.
func (p *Pipeline) OnError(err error) {
	logging.WithSession(p.sessionID).Error().Err(err).Msg("Transcript source error")
}

// Flush closes the open block unconditionally (user stop action).
func (p *Pipeline) Flush() {
	p.post(event{kind: evFlush})
}

// Reset discards all session state and starts a new session epoch. In-flight
// quality responses issued before the reset are dropped by the stale guard.
func (p *Pipeline) Reset() {
	p.post(event{kind: evReset})
}

// Display returns the current merged display state.
func (p *Pipeline) Display() models.DisplayState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.display
}

// Messages returns a snapshot of the conversation log.
func (p *Pipeline) Messages() []models.Message {
	return p.store.Messages()
}

// SessionID returns the current session epoch.
func (p *Pipeline) SessionID() string {
	return p.sessionID
}

func (p *Pipeline) post(ev event) {
	select {
	case p.events <- ev:
	case <-p.done:
	}
}

// onQualityResult routes dispatch worker results back into the event loop.
func (p *Pipeline) onQualityResult(resp dispatch.Response) {
	p.post(event{kind: evQuality, response: resp})
}

func (p *Pipeline) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case evFragment:
		p.handleFragment(ctx, ev.fragment)
	case evQuality:
		p.handleQuality(ctx, ev.response)
	case evFlush:
		p.handleFlush(ctx)
	case evReset:
		p.handleReset(ctx)
	}
}

func (p *Pipeline) handleFragment(ctx context.Context, f models.Fragment) {
	if strings.TrimSpace(f.Text) == "" {
		return
	}
	p.metrics.RecordFragment(f.IsFinal)

	r := p.engine.Consume(f)

	if !f.IsFinal {
		p.interim = p.fastTranslate(ctx, f.Text)
	} else {
		// One fast-path call on the open block's accumulated text, so the
		// ghost suffix always reflects everything committed. Blocks closed
		// by this fragment get their fast translation in finalize.
		p.interim = ""
		if r.Open != nil && r.Open.WordCount() > 0 {
			r.Open.SetFastTranslation(p.fastTranslate(ctx, r.Open.Text()))
		}
	}

	for _, closed := range r.Closed {
		p.finalize(ctx, closed)
	}
	p.refreshDisplay(ctx)
}

func (p *Pipeline) handleSilence(ctx context.Context, now time.Time) {
	r := p.engine.CheckSilence(now)
	if len(r.Closed) == 0 {
		return
	}
	p.interim = ""
	for _, closed := range r.Closed {
		p.finalize(ctx, closed)
	}
	p.refreshDisplay(ctx)
}

func (p *Pipeline) handleFlush(ctx context.Context) {
	r := p.engine.ForceFlush()
	p.interim = ""
	for _, closed := range r.Closed {
		p.finalize(ctx, closed)
	}
	p.refreshDisplay(ctx)
}

func (p *Pipeline) handleReset(ctx context.Context) {
	p.queue.Reset()
	p.zone.Reset()
	p.store.Reset()
	p.blocks = make(map[uint64]*block.Block)
	p.interim = ""
	// Block ids stay monotonic across sessions: the generator is kept.
	p.engine = segmenter.New(p.cfg.Segmenter, p.gen)

	old := p.sessionID
	p.sessionID = uuid.NewString()
	logging.WithSession(p.sessionID).Info().
		Str("previousSessionId", old).
		Msg("Session reset")

	p.refreshDisplay(ctx)
}

// finalize runs the block-close protocol: track for freezing, append the
// conversation message, then try to escalate to the quality path. Blocks
// outside the dispatch size window complete immediately on their fast
// translation.
func (p *Pipeline) finalize(ctx context.Context, b *block.Block) {
	p.blocks[b.ID()] = b
	// Track first: freeze order must match close order. Blocks the fast
	// path has not seen yet (overflow spills close before any fast call ran
	// on them) get their ghost text backfilled into the tracked entry.
	p.zone.Track(b)
	if b.FastTranslation() == "" {
		b.SetFastTranslation(p.fastTranslate(ctx, b.Text()))
		p.zone.UpdateFast(b.ID(), b.FastTranslation())
	}

	msg := models.Message{
		ID:              uuid.NewString(),
		Role:            models.RoleInterviewer,
		Text:            b.Text(),
		FastTranslation: b.FastTranslation(),
		Timestamp:       time.Now(),
	}
	p.store.Append(msg)
	p.metrics.RecordMessageAppended(string(msg.Role))
	p.publishMessage(ctx, msg)

	_, err := p.queue.Enqueue(b, msg.ID, p.store.RecentContext(contextTurns),
		p.cfg.Translate.SourceLang, p.cfg.Translate.TargetLang)
	if err == nil {
		return
	}

	if errors.Is(err, dispatch.ErrTooFewWords) || errors.Is(err, dispatch.ErrTooManyWords) {
		// Never escalated: the fast translation is terminal and the frozen
		// boundary advances immediately.
		if cerr := b.Complete(""); cerr != nil {
			logging.WithBlock(p.sessionID, b.ID()).Warn().Err(cerr).Msg("Completing undispatched block")
		}
		p.zone.Resolve(b.ID(), b.TerminalTranslation())
		delete(p.blocks, b.ID())
		return
	}

	logging.WithBlock(p.sessionID, b.ID()).Warn().Err(err).Msg("Quality dispatch rejected")
}

func (p *Pipeline) handleQuality(ctx context.Context, resp dispatch.Response) {
	b, ok := p.blocks[resp.Request.BlockID]
	if !ok {
		// Session reset between dispatch and delivery.
		logging.WithDispatch(resp.Request.BlockID, resp.Request.ResponseID).Info().
			Msg("Dropping quality response for untracked block")
		return
	}
	delete(p.blocks, resp.Request.BlockID)

	if resp.Err != nil {
		logging.WithDispatch(resp.Request.BlockID, resp.Request.ResponseID).Warn().
			Err(resp.Err).
			Msg("Quality request abandoned, fast translation is terminal")
		if err := b.Complete(""); err != nil {
			logging.WithBlock(p.sessionID, b.ID()).Warn().Err(err).Msg("Completing abandoned block")
		}
		p.zone.Resolve(b.ID(), b.TerminalTranslation())
		p.refreshDisplay(ctx)
		return
	}

	if err := b.Complete(resp.Result.Translation); err != nil {
		logging.WithBlock(p.sessionID, b.ID()).Warn().Err(err).Msg("Completing translated block")
	}
	p.zone.Resolve(b.ID(), b.TerminalTranslation())

	if upgraded, found := p.store.Upgrade(resp.Request.TargetMessageID, resp.Result); found {
		p.metrics.RecordMessageUpgraded()
		p.publishMessage(ctx, upgraded)
	}

	if resp.Result.Answer != "" {
		assistant := models.Message{
			ID:                  uuid.NewString(),
			Role:                models.RoleAssistant,
			Text:                resp.Result.Answer,
			QualityTranslation:  resp.Result.AnswerTranslation,
			IsQualityTranslated: resp.Result.AnswerTranslation != "",
			LatencyMs:           resp.Result.LatencyMs,
			Timestamp:           time.Now(),
		}
		p.store.Append(assistant)
		p.metrics.RecordMessageAppended(string(assistant.Role))
		p.publishMessage(ctx, assistant)
	}

	p.refreshDisplay(ctx)
}

// refreshDisplay recomputes the merged display state and publishes it when
// it changed.
func (p *Pipeline) refreshDisplay(ctx context.Context) {
	live := p.zone.LiveSuffix()
	if open := p.engine.Current(); open != nil {
		if fast := open.FastTranslation(); fast != "" {
			if live == "" {
				live = fast
			} else {
				live = live + " " + fast
			}
		}
	}

	d := display.Merge(p.zone.FrozenText(), live, p.interim)

	p.mu.Lock()
	changed := d != p.display
	p.display = d
	p.mu.Unlock()

	if changed && p.publisher != nil {
		if err := p.publisher.PublishDisplay(ctx, p.sessionID, d); err != nil {
			logging.WithSession(p.sessionID).Warn().Err(err).Msg("Display publish failed")
		}
	}
}

func (p *Pipeline) publishMessage(ctx context.Context, msg models.Message) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishMessage(ctx, p.sessionID, msg); err != nil {
		logging.WithSession(p.sessionID).Warn().Err(err).Msg("Message publish failed")
	}
}

// fastTranslate runs the fast path; the backend records its own metrics and
// yields the unavailable placeholder instead of failing.
func (p *Pipeline) fastTranslate(ctx context.Context, text string) string {
	return p.fast.Translate(ctx, text, p.cfg.Translate.SourceLang, p.cfg.Translate.TargetLang)
}
