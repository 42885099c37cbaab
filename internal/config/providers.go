package config

import "os"

// Per-provider API keys. Empty means the caller has to supply a credential
// with the request.

func GetOpenAIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func GetDeepSeekKey() string {
	return os.Getenv("DEEPSEEK_API_KEY")
}

func GetZhipuKey() string {
	return os.Getenv("ZHIPU_API_KEY")
}

func GetMoonshotKey() string {
	return os.Getenv("MOONSHOT_API_KEY")
}
