package callapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

type voiceRequest struct {
	// Older platform payloads put the text at the top level next to
	// sampleRate; newer ones nest it under message.
	Text    string `json:"text"`
	Message struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

func (v *voiceRequest) text() string {
	if t := strings.TrimSpace(v.Message.Text); t != "" {
		return t
	}
	return strings.TrimSpace(v.Text)
}

// handleVoice serves the platform's custom-voice protocol: it receives the
// text the assistant wants spoken and replies with raw WAV audio.
func (a *API) handleVoice(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	text := req.text()
	if text == "" {
		http.Error(w, `{"error":"empty text"}`, http.StatusBadRequest)
		return
	}

	if a.tts == nil || !a.tts.Configured() {
		http.Error(w, `{"error":"speech synthesis not configured"}`, http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	audio, err := a.tts.Synthesize(r.Context(), text)
	if a.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		a.metrics.TTSTotal.WithLabelValues(outcome).Inc()
		a.metrics.TTSDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		a.logger.Error(r.Context(), err, "speech synthesis failed")
		http.Error(w, `{"error":"speech synthesis failed"}`, http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	_, _ = w.Write(audio)
}
