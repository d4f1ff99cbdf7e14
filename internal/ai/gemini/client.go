package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/rfp-responder/internal/logger"
	"github.com/spigell/rfp-responder/internal/utils"
)

const (
	// Provider is the provider name used in configuration and logs.
	Provider = "gemini"

	defaultModel      = "gemini-2.5-flash"
	defaultMaxRetries = 3

	baseBackoff   = time.Second
	maxBackoff    = 30 * time.Second
	maxQuotaDelay = 30 * time.Second
)

var temperature float32 = 0.1

// wait is replaced in tests.
var wait = utils.WaitFor

var retryAfterRe = regexp.MustCompile(`retry (?:after|in) ([0-9]+(?:\.[0-9]+)?)\s*s`)

type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configure a Generator.
type Options struct {
	Model      string
	MaxRetries int
	Logger     *zap.Logger
}

// Generator wraps the Google GenAI client to provide simple prompt-based interactions.
type Generator struct {
	models     models
	model      string
	maxRetries int
	logger     *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey string, opts Options) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, opts), nil
}

func newGenerator(m models, opts Options) *Generator {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	retries := opts.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	return &Generator{
		models:     m,
		model:      model,
		maxRetries: retries,
		logger:     logger.WithCommonFields(opts.Logger, Provider, model),
	}
}

// GenerateContent sends the prompt with a system instruction and returns the textual response.
// Temporary API errors are retried with exponential backoff.
func (g *Generator) GenerateContent(ctx context.Context, system, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(temperature),
		ResponseMIMEType: "application/json",
	}
	if system = strings.TrimSpace(system); system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
		if err == nil {
			return responseText(resp)
		}
		lastErr = err

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == g.maxRetries {
			break
		}

		g.logger.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", g.maxRetries),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := wait(ctx, delay); err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}
	}

	return "", fmt.Errorf("generate content: %w", lastErr)
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini api returned nil response")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

// retryDelay classifies an API error. Server errors are retried with backoff; quota errors
// are retried only when the advertised delay is short.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	apiErr, ok := asAPIError(err)
	if !ok {
		return 0, false
	}

	switch apiErr.Code {
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return backoff(attempt), true
	case http.StatusTooManyRequests:
		delay, found := quotaDelay(apiErr)
		if !found {
			return backoff(attempt), true
		}
		if delay > maxQuotaDelay {
			return 0, false
		}
		return delay, true
	default:
		return 0, false
	}
}

func asAPIError(err error) (genai.APIError, bool) {
	var value genai.APIError
	if errors.As(err, &value) {
		return value, true
	}

	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}

	return genai.APIError{}, false
}

func quotaDelay(apiErr genai.APIError) (time.Duration, bool) {
	for _, detail := range apiErr.Details {
		raw, ok := detail["retryDelay"].(string)
		if !ok {
			continue
		}
		if d, err := time.ParseDuration(raw); err == nil {
			return d, true
		}
	}

	match := retryAfterRe.FindStringSubmatch(strings.ToLower(apiErr.Message))
	if match == nil {
		return 0, false
	}

	seconds, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}

	return time.Duration(seconds * float64(time.Second)), true
}

func backoff(attempt int) time.Duration {
	d := baseBackoff << (attempt - 1)
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}
