package sarvam

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSynthesize_DecodesAudio(t *testing.T) {
	t.Parallel()

	wav := []byte("RIFF....WAVEfmt ")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text-to-speech" {
			t.Errorf("path = %q, want /text-to-speech", r.URL.Path)
		}
		if r.Header.Get("api-subscription-key") != "key-123" {
			t.Errorf("api-subscription-key = %q, want key-123", r.Header.Get("api-subscription-key"))
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["text"] != "Namaste behen" {
			t.Errorf("text = %v, want Namaste behen", req["text"])
		}
		if req["target_language_code"] != "hi-IN" {
			t.Errorf("target_language_code = %v, want hi-IN", req["target_language_code"])
		}
		if req["speaker"] != "priya" {
			t.Errorf("speaker = %v, want priya", req["speaker"])
		}
		if req["speech_sample_rate"] != float64(8000) {
			t.Errorf("speech_sample_rate = %v, want 8000", req["speech_sample_rate"])
		}
		if req["model"] != "bulbul:v3" {
			t.Errorf("model = %v, want bulbul:v3", req["model"])
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"request_id": "req-1",
			"audios":     []string{base64.StdEncoding.EncodeToString(wav)},
		})
	}))
	defer srv.Close()

	c := New("key-123", "bulbul:v3", srv.URL)
	got, err := c.Synthesize(context.Background(), "Namaste behen")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !bytes.Equal(got, wav) {
		t.Errorf("audio = %q, want %q", got, wav)
	}
}

func TestSynthesize_UpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"invalid key"}`))
	}))
	defer srv.Close()

	c := New("bad-key", "bulbul:v3", srv.URL)
	_, err := c.Synthesize(context.Background(), "Namaste")
	if err == nil {
		t.Fatal("expected error on upstream 403")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error = %q, want to contain 403", err.Error())
	}
}

func TestSynthesize_EmptyAudios(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"request_id": "req-2", "audios": []string{}})
	}))
	defer srv.Close()

	c := New("key", "bulbul:v3", srv.URL)
	_, err := c.Synthesize(context.Background(), "Namaste")
	if err == nil {
		t.Fatal("expected error when response carries no audio")
	}
}

func TestSynthesize_BadBase64(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"request_id": "req-3", "audios": []string{"!!not-base64!!"}})
	}))
	defer srv.Close()

	c := New("key", "bulbul:v3", srv.URL)
	_, err := c.Synthesize(context.Background(), "Namaste")
	if err == nil {
		t.Fatal("expected error on undecodable audio")
	}
}

func TestConfigured(t *testing.T) {
	t.Parallel()

	if New("", "bulbul:v3", "").Configured() {
		t.Error("client without an API key must report unconfigured")
	}
	if !New("key", "bulbul:v3", "").Configured() {
		t.Error("client with an API key must report configured")
	}
}
