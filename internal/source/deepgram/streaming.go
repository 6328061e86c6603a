// Package deepgram provides a streaming transcript source over a
// Deepgram-style websocket. The remote end performs speech recognition and
// pushes interim/final transcript events; this adapter only consumes them.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ai-live-interpreter-service/internal/models"
	"ai-live-interpreter-service/internal/observability/logging"
	"ai-live-interpreter-service/internal/source"
)

// Config controls the websocket connection.
type Config struct {
	URL      string
	APIKey   string
	Language string
}

// Adapter implements source.Adapter for Deepgram-style transcript streams.
type Adapter struct {
	cfg  Config
	conn *websocket.Conn

	closeOnce sync.Once
	done      chan struct{}
}

// New creates a new streaming adapter. The connection is established on Start.
func New(cfg Config) *Adapter {
	return &Adapter{
		cfg:  cfg,
		done: make(chan struct{}),
	}
}

// Start dials the websocket and begins delivering fragments to the callback.
// The read loop runs until the stream ends, the context is cancelled, or
// Close is called.
func (a *Adapter) Start(ctx context.Context, cb source.Callback) error {
	if strings.TrimSpace(a.cfg.URL) == "" {
		return errors.New("source URL is not configured")
	}

	headers := http.Header{}
	if a.cfg.APIKey != "" {
		headers.Set("Authorization", "Token "+a.cfg.APIKey)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, a.cfg.URL, headers)
	if err != nil {
		return fmt.Errorf("failed to connect to transcript source: %w", err)
	}
	a.conn = conn

	go a.readLoop(cb)
	go func() {
		select {
		case <-ctx.Done():
			_ = a.Close()
		case <-a.done:
		}
	}()

	return nil
}

// Close tears down the websocket connection. Idempotent.
func (a *Adapter) Close() error {
	a.closeOnce.Do(func() {
		close(a.done)
		if a.conn != nil {
			_ = a.conn.Close()
		}
	})
	return nil
}

func (a *Adapter) readLoop(cb source.Callback) {
	logger := logging.WithComponent("source.deepgram")

	for {
		_, payload, err := a.conn.ReadMessage()
		if err != nil {
			select {
			case <-a.done:
				return
			default:
			}
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				return
			}
			cb.OnError(fmt.Errorf("failed to read source event: %w", err))
			return
		}

		var response streamResponse
		if err := json.Unmarshal(payload, &response); err != nil {
			logger.Debug().Err(err).Msg("Skipping unparseable source payload")
			continue
		}

		if strings.EqualFold(response.Type, "Error") {
			message := strings.TrimSpace(response.Message)
			if message == "" {
				message = "source returned an unknown error"
			}
			cb.OnError(errors.New(message))
			return
		}

		text := extractTranscript(response)
		if text == "" {
			continue
		}

		cb.OnFragment(models.Fragment{
			Text:      text,
			IsFinal:   response.IsFinal || response.SpeechFinal,
			EmittedAt: time.Now(),
		})
	}
}

type streamResponse struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func extractTranscript(response streamResponse) string {
	if len(response.Channel.Alternatives) == 0 {
		return ""
	}
	return strings.TrimSpace(response.Channel.Alternatives[0].Transcript)
}
