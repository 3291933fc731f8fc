package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkowalski/gridiron-gm/internal/simulator"
	"github.com/dkowalski/gridiron-gm/pkg/config"
)

func narrativeConfig(baseURL string) *config.Config {
	return &config.Config{
		NarrativeEnabled:   true,
		NarrativeBaseURL:   baseURL,
		NarrativeAPIKey:    "test-key",
		NarrativeModel:     "test-model",
		NarrativeRateLimit: 6000,
		NarrativeTimeout:   5 * time.Second,
	}
}

func sampleRecapContext() simulator.RecapContext {
	return simulator.RecapContext{
		HomeTeam:  "Harbor City Admirals",
		AwayTeam:  "Capital Stags",
		HomeScore: 27,
		AwayScore: 20,
		Headline:  "Admirals edge Stags 27-20",
		KeyPlayers: []simulator.StatLine{
			{Name: "Marcus Whitfield", Line: "268 pass yds, 2 TD"},
		},
	}
}

func TestGenerateGameRecap(t *testing.T) {
	var captured ChatCompletionRequest
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "  The Admirals held off the Stags late.  "}},
			},
		})
	}))
	defer server.Close()

	svc := NewRecapService(narrativeConfig(server.URL))
	recap, err := svc.GenerateGameRecap(context.Background(), sampleRecapContext())
	require.NoError(t, err)

	assert.Equal(t, "The Admirals held off the Stags late.", recap.Summary)
	assert.Equal(t, 27, recap.Facts["home_score"])
	assert.Equal(t, "Bearer test-key", authHeader)
	assert.Equal(t, "test-model", captured.Model)
	require.Len(t, captured.Messages, 1)
	assert.Contains(t, captured.Messages[0].Content, "Harbor City Admirals 27, Capital Stags 20")
	assert.Contains(t, captured.Messages[0].Content, "Marcus Whitfield")
}

func TestGenerateGameRecapDisabled(t *testing.T) {
	cfg := narrativeConfig("http://localhost:1")
	cfg.NarrativeEnabled = false

	svc := NewRecapService(cfg)
	_, err := svc.GenerateGameRecap(context.Background(), sampleRecapContext())
	assert.Error(t, err)
}

func TestGenerateGameRecapEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	svc := NewRecapService(narrativeConfig(server.URL))
	_, err := svc.GenerateGameRecap(context.Background(), sampleRecapContext())
	assert.ErrorContains(t, err, "no choices")
}

func TestGenerateGameRecapBreakerOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewRecapService(narrativeConfig(server.URL))
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := svc.GenerateGameRecap(ctx, sampleRecapContext())
		require.Error(t, err)
	}

	// Five consecutive failures trip the breaker; the next call fails fast.
	_, err := svc.GenerateGameRecap(ctx, sampleRecapContext())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
