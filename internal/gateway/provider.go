package gateway

import "github.com/foliolabs/folio/internal/config"

// Provider identifies an upstream model API. The set is closed: unknown ids
// are rejected at the boundary by ParseProvider.
type Provider string

const (
	ProviderOpenAI   Provider = "openai"
	ProviderDeepSeek Provider = "deepseek"
	ProviderZhipu    Provider = "zhipu"
	ProviderMoonshot Provider = "moonshot"
)

// Config describes one upstream provider. Immutable after load.
type Config struct {
	Provider    Provider
	DisplayName string
	BaseURL     string
	ChatPath    string
	Models      []string
	// DefaultKey returns the provider's API key from the environment,
	// or "" when none is configured.
	DefaultKey func() string
}

var registry = map[Provider]Config{
	ProviderOpenAI: {
		Provider:    ProviderOpenAI,
		DisplayName: "OpenAI",
		BaseURL:     "https://api.openai.com/v1",
		ChatPath:    "/chat/completions",
		Models:      []string{"gpt-4o", "gpt-4o-mini"},
		DefaultKey:  config.GetOpenAIKey,
	},
	ProviderDeepSeek: {
		Provider:    ProviderDeepSeek,
		DisplayName: "DeepSeek",
		BaseURL:     "https://api.deepseek.com/v1",
		ChatPath:    "/chat/completions",
		Models:      []string{"deepseek-chat", "deepseek-reasoner"},
		DefaultKey:  config.GetDeepSeekKey,
	},
	ProviderZhipu: {
		Provider:    ProviderZhipu,
		DisplayName: "Zhipu",
		BaseURL:     "https://open.bigmodel.cn/api/paas/v4",
		ChatPath:    "/chat/completions",
		Models:      []string{"glm-4-plus", "glm-4-flash"},
		DefaultKey:  config.GetZhipuKey,
	},
	ProviderMoonshot: {
		Provider:    ProviderMoonshot,
		DisplayName: "Moonshot",
		BaseURL:     "https://api.moonshot.cn/v1",
		ChatPath:    "/chat/completions",
		Models:      []string{"moonshot-v1-8k", "moonshot-v1-32k"},
		DefaultKey:  config.GetMoonshotKey,
	},
}

// ParseProvider maps a raw id onto a known provider configuration.
func ParseProvider(id string) (Config, error) {
	cfg, ok := registry[Provider(id)]
	if !ok {
		return Config{}, &ConfigurationError{Provider: id}
	}
	return cfg, nil
}

// Providers returns the known provider configurations.
func Providers() []Config {
	out := make([]Config, 0, len(registry))
	for _, p := range []Provider{ProviderOpenAI, ProviderDeepSeek, ProviderZhipu, ProviderMoonshot} {
		out = append(out, registry[p])
	}
	return out
}
