package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/dkowalski/gridiron-gm/internal/simulator"
	"github.com/dkowalski/gridiron-gm/pkg/config"
)

// ChatCompletionRequest is the request body for the narrative provider's
// OpenAI-compatible chat endpoint.
type ChatCompletionRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []ChatMessage `json:"messages"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// RecapService generates narrative game recaps through an external LLM
// provider. Calls are rate limited and wrapped in a circuit breaker so a
// flaky provider degrades to engine headlines instead of stalling a run.
type RecapService struct {
	cfg       *config.Config
	apiClient *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
}

func NewRecapService(cfg *config.Config) *RecapService {
	perSecond := rate.Limit(float64(cfg.NarrativeRateLimit) / 60.0)
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "narrative-api",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Narrative circuit breaker state change")
		},
	})

	return &RecapService{
		cfg: cfg,
		apiClient: &http.Client{
			Timeout: cfg.NarrativeTimeout,
		},
		limiter: rate.NewLimiter(perSecond, 1),
		breaker: breaker,
	}
}

// GenerateGameRecap implements simulator.Recapper.
func (s *RecapService) GenerateGameRecap(ctx context.Context, rc simulator.RecapContext) (simulator.Recap, error) {
	if !s.cfg.NarrativeEnabled || s.cfg.NarrativeAPIKey == "" {
		return simulator.Recap{}, fmt.Errorf("narrative generation disabled")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return simulator.Recap{}, fmt.Errorf("narrative rate limit wait: %w", err)
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.callProvider(ctx, s.buildPrompt(rc))
	})
	if err != nil {
		return simulator.Recap{}, err
	}

	summary := strings.TrimSpace(result.(string))
	if summary == "" {
		return simulator.Recap{}, fmt.Errorf("narrative provider returned empty recap")
	}

	return simulator.Recap{
		Summary: summary,
		Facts: map[string]interface{}{
			"home_team":  rc.HomeTeam,
			"away_team":  rc.AwayTeam,
			"home_score": rc.HomeScore,
			"away_score": rc.AwayScore,
		},
	}, nil
}

func (s *RecapService) buildPrompt(rc simulator.RecapContext) string {
	var sb strings.Builder
	sb.WriteString("Write a two-sentence beat-writer recap of this simulated football game.\n")
	fmt.Fprintf(&sb, "Final: %s %d, %s %d\n", rc.HomeTeam, rc.HomeScore, rc.AwayTeam, rc.AwayScore)
	fmt.Fprintf(&sb, "Headline: %s\n", rc.Headline)
	if len(rc.KeyPlayers) > 0 {
		sb.WriteString("Key players:\n")
		for _, p := range rc.KeyPlayers {
			fmt.Fprintf(&sb, "- %s: %s\n", p.Name, p.Line)
		}
	}
	sb.WriteString("Do not invent statistics beyond what is listed. Reply with the recap only.")
	return sb.String()
}

func (s *RecapService) callProvider(ctx context.Context, prompt string) (string, error) {
	reqBody := ChatCompletionRequest{
		Model:     s.cfg.NarrativeModel,
		MaxTokens: 200,
		Messages: []ChatMessage{
			{Role: "user", Content: prompt},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal narrative request: %w", err)
	}

	url := strings.TrimRight(s.cfg.NarrativeBaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build narrative request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.NarrativeAPIKey)

	resp, err := s.apiClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("narrative request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read narrative response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("narrative provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var completion ChatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("failed to decode narrative response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("narrative response contained no choices")
	}

	logrus.WithFields(logrus.Fields{
		"prompt_tokens":     completion.Usage.PromptTokens,
		"completion_tokens": completion.Usage.CompletionTokens,
	}).Debug("Narrative recap generated")

	return completion.Choices[0].Message.Content, nil
}
