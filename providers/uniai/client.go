package uniai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quailyquaily/mucbot/llm"
	uniaiapi "github.com/quailyquaily/uniai"
)

type Config struct {
	Provider string
	Endpoint string
	APIKey   string
	Model    string

	RequestTimeout time.Duration

	AzureDeployment string

	Debug bool
}

// Client routes chat requests through uniai to any of its providers
// (openai, openai_custom, deepseek, xai, azure, anthropic, gemini). The model
// is fixed at construction.
type Client struct {
	provider       string
	model          string
	requestTimeout time.Duration
	client         *uniaiapi.Client
	debugFn        func(label, payload string)
}

func New(cfg Config) *Client {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	model := strings.TrimSpace(cfg.Model)
	apiKey := strings.TrimSpace(cfg.APIKey)
	endpoint := strings.TrimSpace(cfg.Endpoint)

	uCfg := uniaiapi.Config{
		Provider:            provider,
		OpenAIAPIKey:        apiKey,
		OpenAIAPIBase:       normalizeOpenAIBase(endpoint),
		OpenAIModel:         model,
		AzureOpenAIAPIKey:   apiKey,
		AzureOpenAIEndpoint: endpoint,
		AzureOpenAIModel:    firstNonEmpty(cfg.AzureDeployment, model),
		AnthropicAPIKey:     apiKey,
		AnthropicModel:      model,
		GeminiAPIKey:        apiKey,
		GeminiAPIBase:       endpoint,
		Debug:               cfg.Debug,
	}

	return &Client{
		provider:       provider,
		model:          model,
		requestTimeout: cfg.RequestTimeout,
		client:         uniaiapi.New(uCfg),
	}
}

func (c *Client) Provider() string { return c.provider }
func (c *Client) Model() string    { return c.model }

func (c *Client) SetDebugFn(fn func(label, payload string)) {
	c.debugFn = fn
}

func (c *Client) Chat(ctx context.Context, req llm.Request) (llm.Result, error) {
	start := time.Now()
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	resp, err := c.client.Chat(ctx, c.chatOptions(req)...)
	if err != nil {
		if c.debugFn != nil {
			c.debugFn(c.provider+".chat.error", err.Error())
		}
		return llm.Result{}, fmt.Errorf("%s chat: %w", c.provider, err)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return llm.Result{}, llm.ErrEmptyResponse
	}
	return llm.Result{
		Text: resp.Text,
		Usage: llm.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		Duration: time.Since(start),
	}, nil
}

func (c *Client) chatOptions(req llm.Request) []uniaiapi.ChatOption {
	msgs := make([]uniaiapi.Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = uniaiapi.Message{Role: m.Role, Content: m.Content}
	}
	opts := []uniaiapi.ChatOption{uniaiapi.WithReplaceMessages(msgs...)}
	if c.provider != "" {
		opts = append(opts, uniaiapi.WithProvider(c.provider))
	}
	if c.model != "" {
		opts = append(opts, uniaiapi.WithModel(c.model))
	}
	if c.debugFn != nil {
		opts = append(opts, uniaiapi.WithDebugFn(c.debugFn))
	}
	return opts
}

// normalizeOpenAIBase appends /v1 to OpenAI-compatible endpoints that omit it.
func normalizeOpenAIBase(endpoint string) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return ""
	}
	if strings.HasSuffix(endpoint, "/v1") || strings.Contains(endpoint, "/v1/") {
		return endpoint
	}
	return endpoint + "/v1"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
