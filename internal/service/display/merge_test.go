package display

import (
	"testing"

	"ai-live-interpreter-service/internal/models"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name       string
		frozen     string
		live       string
		interim    string
		wantText   string
		wantOrigin models.Provenance
	}{
		{
			name:       "empty",
			wantText:   "",
			wantOrigin: models.ProvenanceGhost,
		},
		{
			name:       "ghost only",
			live:       "fast text",
			interim:    "typing now",
			wantText:   "fast text typing now",
			wantOrigin: models.ProvenanceGhost,
		},
		{
			name:       "quality only",
			frozen:     "frozen prefix",
			wantText:   "frozen prefix",
			wantOrigin: models.ProvenanceQuality,
		},
		{
			name:       "hybrid frozen plus live",
			frozen:     "frozen prefix",
			live:       "fast suffix",
			wantText:   "frozen prefix fast suffix",
			wantOrigin: models.ProvenanceHybrid,
		},
		{
			name:       "hybrid frozen plus interim",
			frozen:     "frozen prefix",
			interim:    "still talking",
			wantText:   "frozen prefix still talking",
			wantOrigin: models.ProvenanceHybrid,
		},
		{
			name:       "all three layers",
			frozen:     "frozen",
			live:       "fast",
			interim:    "interim",
			wantText:   "frozen fast interim",
			wantOrigin: models.ProvenanceHybrid,
		},
		{
			name:       "whitespace trimmed",
			frozen:     "  frozen  ",
			live:       "  ",
			interim:    " interim ",
			wantText:   "frozen interim",
			wantOrigin: models.ProvenanceHybrid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.frozen, tt.live, tt.interim)
			if got.Text != tt.wantText {
				t.Errorf("text = %q, want %q", got.Text, tt.wantText)
			}
			if got.Provenance != tt.wantOrigin {
				t.Errorf("provenance = %q, want %q", got.Provenance, tt.wantOrigin)
			}
		})
	}
}

func TestMerge_Idempotent(t *testing.T) {
	first := Merge("frozen", "fast", "interim")
	second := Merge("frozen", "fast", "interim")
	if first != second {
		t.Errorf("merge is not idempotent: %+v != %+v", first, second)
	}
}
