package llmutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/quailyquaily/mucbot/llm"
	"github.com/quailyquaily/mucbot/providers/gemini"
	uniaiProvider "github.com/quailyquaily/mucbot/providers/uniai"
	"github.com/spf13/viper"
)

type ClientConfig struct {
	Provider       string
	Endpoint       string
	APIKey         string
	Model          string
	RequestTimeout time.Duration
}

func ProviderFromViper() string {
	return normalizeProvider(viper.GetString("llm.provider"))
}

// ModelForProvider returns the model configured under key, or the provider's
// default when none is set. Providers without a sensible default
// (openai_custom, azure) return "".
func ModelForProvider(key, provider string) string {
	if m := strings.TrimSpace(viper.GetString(key + ".model")); m != "" {
		return m
	}
	switch normalizeProvider(provider) {
	case "gemini":
		return "gemini-2.5-flash"
	case "openai":
		return "gpt-4o-mini"
	case "deepseek":
		return "deepseek-chat"
	case "xai":
		return "grok-3-mini"
	case "anthropic":
		return "claude-3-5-haiku-latest"
	default:
		return ""
	}
}

// ConfigFromViper reads the client settings under key ("llm" or
// "llm.fallback"). The request timeout is shared.
func ConfigFromViper(key string) ClientConfig {
	provider := normalizeProvider(viper.GetString(key + ".provider"))
	return ClientConfig{
		Provider:       provider,
		Endpoint:       strings.TrimSpace(viper.GetString(key + ".endpoint")),
		APIKey:         APIKeyForProvider(key, provider),
		Model:          ModelForProvider(key, provider),
		RequestTimeout: viper.GetDuration("llm.request_timeout"),
	}
}

func APIKeyForProvider(key, provider string) string {
	switch normalizeProvider(provider) {
	case "gemini":
		return firstNonEmpty(viper.GetString(key+".api_key"), os.Getenv("GEMINI_API_KEY"))
	case "anthropic":
		return firstNonEmpty(viper.GetString(key+".api_key"), os.Getenv("ANTHROPIC_API_KEY"))
	default:
		return firstNonEmpty(viper.GetString(key+".api_key"), os.Getenv("OPENAI_API_KEY"))
	}
}

// ClientFromConfig builds one client. Gemini goes through genai; every other
// provider goes through uniai.
func ClientFromConfig(ctx context.Context, cfg ClientConfig) (llm.Client, error) {
	provider := normalizeProvider(cfg.Provider)
	model := strings.TrimSpace(cfg.Model)
	switch provider {
	case "gemini":
		c, err := gemini.New(ctx, gemini.Config{
			APIKey:         cfg.APIKey,
			Endpoint:       cfg.Endpoint,
			Model:          model,
			RequestTimeout: cfg.RequestTimeout,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "openai", "openai_custom", "deepseek", "xai", "azure", "anthropic":
		if model == "" {
			return nil, fmt.Errorf("%s: model is required", provider)
		}
		if provider == "openai_custom" && strings.TrimSpace(cfg.Endpoint) == "" {
			return nil, fmt.Errorf("%s: endpoint is required", provider)
		}
		return uniaiProvider.New(uniaiProvider.Config{
			Provider:       provider,
			Endpoint:       cfg.Endpoint,
			APIKey:         cfg.APIKey,
			Model:          model,
			RequestTimeout: cfg.RequestTimeout,
			Debug:          viper.GetBool("trace"),
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// ClientFromViper builds the primary client and, when llm.fallback.provider
// is set, chains the fallback behind it.
func ClientFromViper(ctx context.Context) (llm.Client, error) {
	primary, err := ClientFromConfig(ctx, ConfigFromViper("llm"))
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	if strings.TrimSpace(viper.GetString("llm.fallback.provider")) == "" {
		return primary, nil
	}
	fallback, err := ClientFromConfig(ctx, ConfigFromViper("llm.fallback"))
	if err != nil {
		return nil, fmt.Errorf("llm fallback: %w", err)
	}
	return llm.Fallback{primary, fallback}, nil
}

func normalizeProvider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return "gemini"
	}
	return provider
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
