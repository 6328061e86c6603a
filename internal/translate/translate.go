// Package translate defines the contracts for the two translation paths:
// the fast ("ghost") path that always returns immediately, and the quality
// ("LLM") path that is asynchronous and may fail.
package translate

import "context"

// Unavailable is the explicit placeholder returned by the fast path when the
// backend is missing, times out, or fails. It is a value, not an error: the
// fast path never blocks the pipeline.
const Unavailable = "[translation unavailable]"

// FastTranslator is the low-latency translation backend. Implementations
// must return within a bounded budget; a failed or absent backend yields
// the Unavailable placeholder.
type FastTranslator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) string
}

// QualityRequest is a single high-quality translation request.
type QualityRequest struct {
	Text       string
	SourceLang string
	TargetLang string
	// Context carries recent conversation turns to ground the translation
	// and the coached response.
	Context string
}

// QualityResult is the quality backend's response. Translation is always
// set on success; the coaching fields are optional.
type QualityResult struct {
	Translation       string
	Analysis          string
	Strategy          string
	Answer            string
	AnswerTranslation string
	LatencyMs         int64
}

// QualityBackend is the slow, high-fidelity translation/LLM backend.
type QualityBackend interface {
	Request(ctx context.Context, req QualityRequest) (QualityResult, error)
}
