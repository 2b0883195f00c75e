package config

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8080
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"

	DefaultRateLimitPerMinute = 60

	DefaultLLMProvider    = "anthropic"
	DefaultAnthropicModel = "claude-sonnet-4-6"
	DefaultOllamaHost     = "http://localhost:11434"
	DefaultOllamaModel    = "mistral"

	DefaultModelTimeout   = 60 // seconds
	DefaultAdapterTimeout = 5  // seconds

	DefaultJSONPlaceholderBaseURL = "https://jsonplaceholder.typicode.com"

	DefaultCORSMaxAge = 300
)

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
}
