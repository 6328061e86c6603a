// Package httpapi exposes the renderer-facing REST surface: the current
// display state, the conversation log and the session control actions.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"ai-live-interpreter-service/internal/models"
	"ai-live-interpreter-service/internal/observability"
)

// Interpreter is the pipeline surface the API reads from and controls.
type Interpreter interface {
	Display() models.DisplayState
	Messages() []models.Message
	SessionID() string
	Flush()
	Reset()
}

// NewRouter builds the chi router for the renderer API.
func NewRouter(ip Interpreter) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observability.RequestLogger)

	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	r.Get("/v1/display", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, displayResponse{
			SessionID: ip.SessionID(),
			Display:   ip.Display(),
		})
	})

	r.Get("/v1/messages", func(w http.ResponseWriter, _ *http.Request) {
		msgs := ip.Messages()
		if msgs == nil {
			msgs = []models.Message{}
		}
		writeJSON(w, http.StatusOK, messagesResponse{
			SessionID: ip.SessionID(),
			Messages:  msgs,
		})
	})

	r.Get("/v1/session", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, sessionResponse{SessionID: ip.SessionID()})
	})

	// Control actions are posted into the event loop; they complete
	// asynchronously, hence 202.
	r.Post("/v1/control/flush", func(w http.ResponseWriter, _ *http.Request) {
		ip.Flush()
		writeJSON(w, http.StatusAccepted, statusResponse{Status: "flushing"})
	})

	r.Post("/v1/control/reset", func(w http.ResponseWriter, _ *http.Request) {
		ip.Reset()
		writeJSON(w, http.StatusAccepted, statusResponse{Status: "resetting"})
	})

	return r
}

type displayResponse struct {
	SessionID string              `json:"sessionId"`
	Display   models.DisplayState `json:"display"`
}

type messagesResponse struct {
	SessionID string           `json:"sessionId"`
	Messages  []models.Message `json:"messages"`
}

type sessionResponse struct {
	SessionID string `json:"sessionId"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
