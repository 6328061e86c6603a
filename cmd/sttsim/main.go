// sttsim is a local websocket server that plays the role of the speech
// recognizer: it streams scripted interim and final transcript events in the
// same wire shape the streaming adapter consumes. Point the service at it
// with SOURCE_PROVIDER=deepgram SOURCE_URL=ws://localhost:8090/v1/listen.
package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

type transcriptEvent struct {
	Type        string  `json:"type"`
	IsFinal     bool    `json:"is_final"`
	SpeechFinal bool    `json:"speech_final"`
	Channel     channel `json:"channel"`
}

type channel struct {
	Alternatives []alternative `json:"alternatives"`
}

type alternative struct {
	Transcript string `json:"transcript"`
}

// script is a short scripted interview. Each utterance is streamed as a
// growing interim hypothesis followed by the final, then a pause long enough
// to trigger a silence close downstream.
var script = []string{
	"how do you handle deadline pressure?",
	"tell me about a project you are proud of.",
	"why do you want to work here?",
	"what is your biggest technical weakness?",
}

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	interval := flag.Duration("interval", 400*time.Millisecond, "delay between interim hypotheses")
	pause := flag.Duration("pause", 2500*time.Millisecond, "silence between utterances")
	loop := flag.Bool("loop", false, "replay the script forever")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	http.HandleFunc("/v1/listen", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("Upgrade failed")
			return
		}
		defer conn.Close()

		log.Info().Str("remote", r.RemoteAddr).Msg("Client connected, streaming script")

		for {
			if err := streamScript(conn, *interval, *pause); err != nil {
				log.Info().Err(err).Msg("Client disconnected")
				return
			}
			if !*loop {
				break
			}
		}

		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "script done"),
			time.Now().Add(time.Second))
	})

	log.Info().Str("addr", *addr).Msg("Transcript simulator listening")
	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.Fatal().Err(err).Msg("Simulator server error")
	}
}

func streamScript(conn *websocket.Conn, interval, pause time.Duration) error {
	for _, utterance := range script {
		words := strings.Fields(utterance)

		// Growing interim hypotheses, like a recognizer revising its guess.
		for i := 1; i < len(words); i++ {
			if err := send(conn, strings.Join(words[:i], " "), false); err != nil {
				return err
			}
			time.Sleep(interval)
		}

		if err := send(conn, utterance, true); err != nil {
			return err
		}
		time.Sleep(pause)
	}
	return nil
}

func send(conn *websocket.Conn, transcript string, final bool) error {
	ev := transcriptEvent{
		Type:        "Results",
		IsFinal:     final,
		SpeechFinal: final,
		Channel: channel{
			Alternatives: []alternative{{Transcript: transcript}},
		},
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}
