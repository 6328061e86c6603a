// Package display composes the single string handed to the renderer from
// the frozen prefix, the live fast-path suffix and the interim fragment
// translation. Pure: no state beyond the inputs, recomputed on every event.
package display

import (
	"strings"

	"ai-live-interpreter-service/internal/models"
)

// Merge joins the three layers in precedence order: frozen quality text,
// then the live fast-path suffix, then the interim translation (lowest
// precedence, always overwritable). The provenance tag reports which paths
// contributed. Idempotent given identical inputs.
func Merge(frozenText, liveSuffix, interim string) models.DisplayState {
	frozenText = strings.TrimSpace(frozenText)
	liveSuffix = strings.TrimSpace(liveSuffix)
	interim = strings.TrimSpace(interim)

	parts := make([]string, 0, 3)
	if frozenText != "" {
		parts = append(parts, frozenText)
	}
	if liveSuffix != "" {
		parts = append(parts, liveSuffix)
	}
	if interim != "" {
		parts = append(parts, interim)
	}

	var provenance models.Provenance
	switch {
	case frozenText != "" && (liveSuffix != "" || interim != ""):
		provenance = models.ProvenanceHybrid
	case frozenText != "":
		provenance = models.ProvenanceQuality
	default:
		provenance = models.ProvenanceGhost
	}

	return models.DisplayState{
		Text:       strings.Join(parts, " "),
		Provenance: provenance,
	}
}
