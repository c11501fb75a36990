package llm

import (
	"fmt"
	"strings"

	"github.com/pdu3/AstarML/internal/extract"
)

// NewExtractor creates the extractor named by config.Provider. An empty name
// selects the rule-based extractor, which needs no credentials.
func NewExtractor(config Config) (extract.Extractor, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		p, err := NewOpenAIProvider(config)
		if err != nil {
			return nil, err
		}
		return p, nil

	case "anthropic", "claude":
		p, err := NewAnthropicProvider(config)
		if err != nil {
			return nil, err
		}
		return p, nil

	case "ollama":
		p, err := NewOllamaProvider(config)
		if err != nil {
			return nil, err
		}
		return p, nil

	case "", "heuristic", "rules":
		return extract.NewClaimExtractor(), nil

	default:
		return nil, fmt.Errorf("unknown extraction provider: %s (supported: openai, anthropic, ollama, heuristic)", config.Provider)
	}
}
