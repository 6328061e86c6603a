// Package models defines the data structures shared across the pipeline.
package models

import "time"

// Fragment is a single speech-recognition result pushed by the source
// adapter. Fragments are ephemeral: they are consumed by the segmentation
// engine and never stored.
type Fragment struct {
	Text      string    `json:"text"`
	IsFinal   bool      `json:"isFinal"`
	EmittedAt time.Time `json:"emittedAt"`
}

// Role identifies who a conversation message belongs to.
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleAssistant   Role = "assistant"
	RoleCandidate   Role = "candidate"
)

// Provenance tags which translation path produced a display string.
type Provenance string

const (
	// ProvenanceGhost - everything on screen came from the fast path.
	ProvenanceGhost Provenance = "ghost"
	// ProvenanceQuality - everything on screen is frozen quality text.
	ProvenanceQuality Provenance = "quality"
	// ProvenanceHybrid - frozen quality prefix plus a live fast-path suffix.
	ProvenanceHybrid Provenance = "hybrid"
)

// DisplayState is the single string handed to the renderer, plus the
// provenance tag for UI indication.
type DisplayState struct {
	Text       string     `json:"text"`
	Provenance Provenance `json:"provenance"`
}

// Message is one conversation turn surfaced to the renderer. A message is
// created when a block finalizes, mutated in place when the quality result
// arrives, and never deleted.
type Message struct {
	ID                  string    `json:"id"`
	Role                Role      `json:"role"`
	Text                string    `json:"text"`
	FastTranslation     string    `json:"fastTranslation"`
	QualityTranslation  string    `json:"qualityTranslation,omitempty"`
	IsQualityTranslated bool      `json:"isQualityTranslated"`
	Analysis            string    `json:"analysis,omitempty"`
	Strategy            string    `json:"strategy,omitempty"`
	AnswerTranslation   string    `json:"answerTranslation,omitempty"`
	LatencyMs           int64     `json:"latencyMs,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
}
