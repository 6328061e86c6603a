package segmenter

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"ai-live-interpreter-service/internal/config"
	"ai-live-interpreter-service/internal/models"
	"ai-live-interpreter-service/internal/service/block"
)

func testConfig() config.SegmenterConfig {
	return config.SegmenterConfig{
		SilenceTimeout:      1500 * time.Millisecond,
		MinWordsForSentence: 4,
		MaxWordsPerBlock:    20,
		MaxWordsOverflow:    32,
	}
}

func newEngine(cfg config.SegmenterConfig) *Engine {
	return New(cfg, block.NewGenerator())
}

func fragment(text string, isFinal bool, at time.Time) models.Fragment {
	return models.Fragment{Text: text, IsFinal: isFinal, EmittedAt: at}
}

func numberedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i+1)
	}
	return strings.Join(words, " ")
}

func TestConsume_InterimsThenFinal_SingleBlock(t *testing.T) {
	e := newEngine(testConfig())
	now := time.Now()

	r := e.Consume(fragment("I think", false, now))
	if len(r.Closed) != 0 {
		t.Fatal("interim must not close a block")
	}
	if r.Open == nil || r.Open.Interim() != "I think" {
		t.Fatalf("expected open block with interim, got %+v", r.Open)
	}

	e.Consume(fragment("I think the", false, now))
	if e.Current().Interim() != "I think the" {
		t.Errorf("interim should be replaced, got %q", e.Current().Interim())
	}
	if e.Current().WordCount() != 0 {
		t.Errorf("interim must not count toward word count, got %d", e.Current().WordCount())
	}

	r = e.Consume(fragment("I think the team is great", true, now))
	if len(r.Closed) != 0 {
		t.Fatal("block should stay open below thresholds")
	}
	if got := e.Current().WordCount(); got != 6 {
		t.Errorf("expected wordCount 6, got %d", got)
	}
	if e.Current().Interim() != "" {
		t.Errorf("interim should be cleared by final commit, got %q", e.Current().Interim())
	}
}

func TestConsume_EmptyFragment_Ignored(t *testing.T) {
	e := newEngine(testConfig())

	r := e.Consume(fragment("   ", true, time.Now()))
	if r.Open != nil || len(r.Closed) != 0 {
		t.Error("empty fragment must not open or close a block")
	}
	if e.Current() != nil {
		t.Error("expected no open block")
	}
}

func TestConsume_SentenceSplit_RequiresMaxWordsAndPunctuation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxWordsPerBlock = 6
	e := newEngine(cfg)
	now := time.Now()

	// 5 words with punctuation: below MaxWordsPerBlock, no split.
	r := e.Consume(fragment("the weather is nice today.", true, now))
	if len(r.Closed) != 0 {
		t.Fatal("should not split below MaxWordsPerBlock")
	}

	// Crosses the limit with a sentence-end tail: split.
	r = e.Consume(fragment("I completely agree.", true, now))
	if len(r.Closed) != 1 {
		t.Fatalf("expected sentence split, got %d closed", len(r.Closed))
	}
	if r.Reason != CloseSentence {
		t.Errorf("expected CloseSentence, got %v", r.Reason)
	}
	if r.Closed[0].WordCount() != 8 {
		t.Errorf("expected 8 words in closed block, got %d", r.Closed[0].WordCount())
	}
	if e.Current() != nil {
		t.Error("expected no open block after split")
	}
}

func TestConsume_NoSplitWithoutPunctuation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxWordsPerBlock = 4
	cfg.MaxWordsOverflow = 100
	e := newEngine(cfg)

	r := e.Consume(fragment("one two three four five six", true, time.Now()))
	if len(r.Closed) != 0 {
		t.Error("no sentence-end tail: block must stay open until overflow")
	}
}

func TestConsume_OverflowCap_SplitsRegardlessOfPunctuation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxWordsOverflow = 10
	e := newEngine(cfg)
	now := time.Now()

	e.Consume(fragment("one two three four five", true, now))
	r := e.Consume(fragment("six seven eight nine ten eleven", true, now))

	if len(r.Closed) != 1 {
		t.Fatalf("expected overflow split, got %d closed", len(r.Closed))
	}
	if r.Reason != CloseOverflow {
		t.Errorf("expected CloseOverflow, got %v", r.Reason)
	}
	// The closed block tops out at the cap; the remainder spills.
	if got := r.Closed[0].WordCount(); got != 10 {
		t.Errorf("expected closed block at the cap (10), got %d", got)
	}
	if e.Current() == nil || e.Current().WordCount() != 1 {
		t.Errorf("expected 1 spilled word in the open block, got %+v", e.Current())
	}
}

func TestConsume_LongFinalFragment_SpillsAcrossBlocks(t *testing.T) {
	cfg := testConfig()
	e := newEngine(cfg)
	now := time.Now()

	// 100 words against a cap of 32: three full blocks plus a 4-word tail.
	r := e.Consume(fragment(numberedWords(100), true, now))

	if len(r.Closed) != 3 {
		t.Fatalf("expected 3 closed blocks, got %d", len(r.Closed))
	}
	for i, c := range r.Closed {
		if c.WordCount() != cfg.MaxWordsOverflow {
			t.Errorf("closed block %d has %d words, want %d", i, c.WordCount(), cfg.MaxWordsOverflow)
		}
	}
	if r.Open == nil || r.Open.WordCount() != 4 {
		t.Fatalf("expected 4-word open remainder, got %+v", r.Open)
	}

	// No word lost or duplicated by the spill.
	parts := make([]string, 0, 4)
	for _, c := range r.Closed {
		parts = append(parts, c.Text())
	}
	parts = append(parts, r.Open.Text())
	if got := strings.Join(parts, " "); got != numberedWords(100) {
		t.Errorf("spill reordered or dropped words:\n%s", got)
	}
}

func TestProperty_FinalizedTextConcatenation(t *testing.T) {
	// The concatenation of closed block texts equals the concatenation of
	// all final fragment texts in arrival order.
	cfg := testConfig()
	cfg.MaxWordsOverflow = 8
	e := newEngine(cfg)
	now := time.Now()

	finals := []string{
		"alpha beta gamma.",
		"delta epsilon zeta eta theta",
		"iota kappa",
		"lambda mu nu xi omicron pi rho sigma",
	}

	var closed []string
	for _, text := range finals {
		e.Consume(fragment("partial noise", false, now))
		r := e.Consume(fragment(text, true, now))
		for _, c := range r.Closed {
			closed = append(closed, c.Text())
		}
	}
	if r := e.ForceFlush(); len(r.Closed) != 0 {
		closed = append(closed, r.Closed[0].Text())
	}

	want := strings.Join(strings.Fields(strings.Join(finals, " ")), " ")
	got := strings.Join(strings.Fields(strings.Join(closed, " ")), " ")
	if got != want {
		t.Errorf("text lost or duplicated:\nwant %q\ngot  %q", want, got)
	}
}

func TestProperty_WordCountNeverExceedsOverflow(t *testing.T) {
	cfg := testConfig()
	cfg.MaxWordsOverflow = 12
	e := newEngine(cfg)
	now := time.Now()

	var maxWords int
	for i := 0; i < 40; i++ {
		r := e.Consume(fragment(fmt.Sprintf("word%da word%db word%dc word%dd word%de", i, i, i, i, i), true, now))
		for _, c := range r.Closed {
			if c.WordCount() > maxWords {
				maxWords = c.WordCount()
			}
		}
	}

	if maxWords > cfg.MaxWordsOverflow {
		t.Errorf("closed block exceeded overflow cap: %d > %d", maxWords, cfg.MaxWordsOverflow)
	}
}

func TestCheckSilence_ClosesShortBlock(t *testing.T) {
	e := newEngine(testConfig())
	start := time.Now()

	// 4 words, no punctuation, below MinWordsForSentence-style guards.
	e.Consume(fragment("the weather is nice", true, start))

	// 1400ms of silence: not yet.
	r := e.CheckSilence(start.Add(1400 * time.Millisecond))
	if len(r.Closed) != 0 {
		t.Fatal("block closed before the silence timeout")
	}

	// 1600ms of silence: close, independent of the sentence-length guard.
	r = e.CheckSilence(start.Add(1600 * time.Millisecond))
	if len(r.Closed) != 1 {
		t.Fatal("expected silence close")
	}
	if r.Reason != CloseSilence {
		t.Errorf("expected CloseSilence, got %v", r.Reason)
	}
	if r.Closed[0].WordCount() != 4 {
		t.Errorf("expected 4 words, got %d", r.Closed[0].WordCount())
	}
}

func TestCheckSilence_IgnoresEmptyBlock(t *testing.T) {
	e := newEngine(testConfig())
	now := time.Now()

	// Only interim text, nothing committed: silence must not emit a block.
	e.Consume(fragment("uncommitted interim", false, now))
	r := e.CheckSilence(now.Add(5 * time.Second))
	if len(r.Closed) != 0 {
		t.Error("zero-length block must not be emitted")
	}
}

func TestForceFlush(t *testing.T) {
	e := newEngine(testConfig())

	e.Consume(fragment("wrap it up", true, time.Now()))
	r := e.ForceFlush()
	if len(r.Closed) != 1 || r.Reason != CloseFlush {
		t.Fatalf("expected flush close, got %+v", r)
	}

	// Flushing with nothing open is a no-op.
	r = e.ForceFlush()
	if len(r.Closed) != 0 {
		t.Error("expected no-op flush")
	}
}

func TestBlockIDs_MonotonicallyIncrease(t *testing.T) {
	cfg := testConfig()
	cfg.MaxWordsOverflow = 4
	e := newEngine(cfg)
	now := time.Now()

	var ids []uint64
	for i := 0; i < 5; i++ {
		r := e.Consume(fragment("aa bb cc dd", true, now))
		for _, c := range r.Closed {
			ids = append(ids, c.ID())
		}
	}

	if len(ids) < 2 {
		t.Fatalf("expected multiple closed blocks, got %d", len(ids))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Errorf("block ids not monotonic: %v", ids)
		}
	}
}
