package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/smoak-intel/prospector/internal/domain"
	"github.com/smoak-intel/prospector/internal/metrics"
)

// Gateway runs buyer discovery through an OpenAI-compatible chat completions
// API with a strict structured-output contract. It is stateless across calls:
// exclusion lists are advisory hints to the model, never enforced here.
type Gateway struct {
	client          *openai.Client
	apiKey          string
	model           string
	provider        string
	exclusionWindow int
	logger          *zap.Logger
}

// Config holds the search provider settings.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	Provider        string
	ExclusionWindow int
	Timeout         time.Duration
	Logger          *zap.Logger
}

// DefaultExclusionWindow bounds the exclusion hint when no window is configured.
const DefaultExclusionWindow = 20

// NewGateway creates an OpenAI-compatible search gateway.
func NewGateway(cfg *Config) *Gateway {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	window := cfg.ExclusionWindow
	if window <= 0 {
		window = DefaultExclusionWindow
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Gateway{
		client:          openai.NewClientWithConfig(clientCfg),
		apiKey:          cfg.APIKey,
		model:           cfg.Model,
		provider:        cfg.Provider,
		exclusionWindow: window,
		logger:          logger,
	}
}

// responseSchema is the structured-output contract declared to the provider:
// a buyers array plus a marketInsight string. The provider must return data
// matching this shape or the whole call fails.
var responseSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"marketInsight": {
			Type:        jsonschema.String,
			Description: "A brief insight about the market demand found during search.",
		},
		"buyers": {
			Type: jsonschema.Array,
			Items: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"name":        {Type: jsonschema.String},
					"location":    {Type: jsonschema.String},
					"type":        {Type: jsonschema.String, Description: "Business type e.g., Wholesaler, Retailer, Private Investor"},
					"contactInfo": {Type: jsonschema.String, Description: "Phone number or email address found"},
					"website":     {Type: jsonschema.String},
					"description": {Type: jsonschema.String, Description: "Brief description of what they buy"},
					"specialty":   {Type: jsonschema.String, Description: "Specific diamond qualities they look for (e.g. VVS, Melee)"},
				},
				Required: []string{"name", "location", "contactInfo", "description"},
			},
		},
	},
	Required: []string{"buyers", "marketInsight"},
}

// payload mirrors the provider's structured output before validation.
type payload struct {
	Buyers        []buyerPayload `json:"buyers"`
	MarketInsight string         `json:"marketInsight"`
}

type buyerPayload struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	Type        string `json:"type"`
	ContactInfo string `json:"contactInfo"`
	Website     string `json:"website"`
	Description string `json:"description"`
	Specialty   string `json:"specialty"`
}

// FindBuyers runs one discovery call for the given query. Every returned
// buyer carries a freshly generated UUID; the provider never supplies IDs.
// The excludeNames hint does not guarantee the response is duplicate-free --
// callers own deduplication.
func (g *Gateway) FindBuyers(
	ctx context.Context, query domain.Query, excludeNames []string,
) (domain.SearchResponse, error) {
	if g.apiKey == "" {
		return domain.SearchResponse{}, domain.ErrMissingAPIKey
	}

	prompt := buildPrompt(query, excludeNames, g.exclusionWindow)

	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "buyer_search",
				Schema: &responseSchema,
			},
		},
	}

	start := time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		metrics.SearchErrorsTotal.WithLabelValues(g.provider, g.model, "api_error").Inc()
		return domain.SearchResponse{}, parseAPIError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		metrics.SearchRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		metrics.SearchErrorsTotal.WithLabelValues(g.provider, g.model, "empty_response").Inc()
		return domain.SearchResponse{}, fmt.Errorf("no content generated: %w", domain.ErrMalformedResponse)
	}

	result, err := parsePayload(resp.Choices[0].Message.Content)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		metrics.SearchErrorsTotal.WithLabelValues(g.provider, g.model, "malformed_response").Inc()
		return domain.SearchResponse{}, err
	}

	metrics.SearchRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
	metrics.SearchRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.SearchTokensTotal.WithLabelValues(g.provider, g.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.SearchTokensTotal.WithLabelValues(g.provider, g.model, "total").Add(float64(resp.Usage.TotalTokens))
	}

	g.logger.Debug("buyer search completed",
		zap.Int("buyers", len(result.Buyers)),
		zap.Int("excluded", len(excludeNames)),
		zap.Duration("latency", duration),
	)

	return result, nil
}

// parsePayload decodes and validates the structured output. Any violation of
// the schema contract fails the whole call; there is no partial success.
func parsePayload(content string) (domain.SearchResponse, error) {
	var p payload
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return domain.SearchResponse{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	buyers := make([]domain.Buyer, 0, len(p.Buyers))
	for i, b := range p.Buyers {
		if b.Name == "" || b.Location == "" || b.ContactInfo == "" || b.Description == "" {
			return domain.SearchResponse{}, fmt.Errorf(
				"%w: buyer %d is missing a required field", domain.ErrMalformedResponse, i)
		}
		buyers = append(buyers, domain.Buyer{
			ID:          uuid.NewString(),
			Name:        b.Name,
			Location:    b.Location,
			Type:        b.Type,
			ContactInfo: b.ContactInfo,
			Website:     b.Website,
			Description: b.Description,
			Specialty:   b.Specialty,
		})
	}

	return domain.SearchResponse{
		Buyers:        buyers,
		MarketInsight: p.MarketInsight,
	}, nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrProviderError for correct 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("search API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("search API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("search request failed: %w", wrap)
}
