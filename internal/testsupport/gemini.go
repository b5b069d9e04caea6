package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// GeminiEndpointPath is the path template served by NewGeminiServer.
const GeminiEndpointPath = "/v1beta/models/{model}:generateContent"

// GeminiServer is a fake generateContent endpoint.
type GeminiServer struct {
	*httptest.Server
	calls atomic.Int64
}

// Endpoint returns the provider endpoint template for this server.
func (s *GeminiServer) Endpoint() string { return s.URL + GeminiEndpointPath }

// Calls returns the number of requests served.
func (s *GeminiServer) Calls() int { return int(s.calls.Load()) }

// NewGeminiServer answers generateContent requests with reply applied to the
// user part of the prompt. A nil reply uses TranslateReply.
func NewGeminiServer(t testing.TB, reply ReplyFunc) *GeminiServer {
	t.Helper()

	fake := NewFakeCompleter(reply)
	gs := &GeminiServer{}
	gs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gs.calls.Add(1)
		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Contents) == 0 || len(body.Contents[0].Parts) == 0 {
			http.Error(w, `{"error":{"message":"bad request"}}`, http.StatusBadRequest)
			return
		}
		parts := body.Contents[0].Parts
		text := "OK"
		if len(parts) > 1 {
			var err error
			text, err = fake.CompleteJSON(r.Context(), parts[0].Text, parts[1].Text)
			if err != nil {
				http.Error(w, `{"error":{"message":"upstream unavailable"}}`, http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
			},
		})
	}))
	t.Cleanup(gs.Close)
	return gs
}
