package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pdu3/AstarML/internal/extract"
	"github.com/pdu3/AstarML/internal/model"
	"github.com/pdu3/AstarML/internal/util"
)

// Provider is a model-backed claim extractor
type Provider interface {
	extract.Extractor

	// IsAvailable checks if the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "heuristic" or ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout for a single API request
	Timeout time.Duration

	// MaxTokens for the JSON answer
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromModel converts the extraction section of the app config
func ConfigFromModel(c model.ExtractionConfig) Config {
	return Config{
		Provider:   c.Provider,
		Model:      c.Model,
		APIKey:     c.APIKey,
		BaseURL:    c.BaseURL,
		Timeout:    c.Timeout,
		MaxTokens:  c.MaxTokens,
		HTTPProxy:  c.HTTPProxy,
		HTTPSProxy: c.HTTPSProxy,
		NoProxy:    c.NoProxy,
	}
}

// SystemPrompt is sent as the system message to every provider
const SystemPrompt = "You extract config-like claims. Return JSON only."

const userPromptTemplate = `Extract configuration-style claims from the text.

Rules:
- Propose concise keys (e.g., param.batch_size, timeout, retries, lr_scheduler, concurrency, artifact_retention_days, metrics.granularity, etc.).
- Values must be short: numbers/units/enums/booleans (examples: 32, 60s, 60000ms, cosine, step, on/off, true/false, 1/2).
- Each item MUST include a short sentence span from the text.
- If nothing matches, return empty list.
- Output JSON ONLY in this exact shape:
  { "claims": [ { "key":"...", "val":"...", "sent":"..." } ] }

Text:
<<<
{chunk}
>>>`

// BuildPrompt fills the passage into the extraction prompt
func BuildPrompt(text string) string {
	return strings.Replace(userPromptTemplate, "{chunk}", text, 1)
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return fallback
}

func (c Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 800
}

// httpClient builds a client honoring the proxy settings
func (c Config) httpClient(fallback time.Duration) *http.Client {
	return &http.Client{
		Timeout: c.timeout(fallback),
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(c.HTTPProxy, c.HTTPSProxy, c.NoProxy),
		},
	}
}
