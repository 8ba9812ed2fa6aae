package ai

const (
	ModelChatGPT   = "chatgpt"
	ModelDeepseek  = "deepseek"
	ModelAnthropic = "anthropic"

	RoleUser   = "user"
	RoleSystem = "system"

	HeaderAPIKey = "x-api-key"
)

// BuiltinModels are accepted even when no endpoint is configured for them,
// so a missing URL is reported as a configuration gap rather than a typo.
var BuiltinModels = []string{
	ModelChatGPT,
	ModelDeepseek,
	ModelAnthropic,
}
