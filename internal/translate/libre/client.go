// Package libre provides the fast translation path backed by a local
// LibreTranslate-compatible HTTP server.
package libre

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-live-interpreter-service/internal/observability/logging"
	"ai-live-interpreter-service/internal/observability/metrics"
	"ai-live-interpreter-service/internal/translate"
)

// Client implements translate.FastTranslator against a /translate endpoint.
// Every call is bounded by the configured timeout; any failure returns the
// unavailable placeholder instead of an error.
type Client struct {
	baseURL string
	http    *http.Client
	metrics *metrics.Metrics
}

// New creates a fast translation client.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		metrics: metrics.DefaultMetrics,
	}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate posts the text to the backend and returns the translation, or
// the unavailable placeholder on any failure. It never returns an error.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) string {
	start := time.Now()
	result, err := c.translate(ctx, text, sourceLang, targetLang)
	c.metrics.RecordFastTranslation(err != nil, time.Since(start).Seconds())

	if err != nil {
		logging.WithComponent("translate.fast").Warn().
			Err(err).
			Int("textLen", len(text)).
			Msg("Fast translation unavailable")
		return translate.Unavailable
	}
	return result
}

func (c *Client) translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	payload, err := json.Marshal(translateRequest{
		Q:      text,
		Source: sourceLang,
		Target: targetLang,
		Format: "text",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("fast backend http %d: %s", resp.StatusCode, string(body))
	}

	var tr translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", err
	}
	if strings.TrimSpace(tr.TranslatedText) == "" {
		return "", fmt.Errorf("fast backend returned empty translation")
	}
	return tr.TranslatedText, nil
}
