package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	TTL      string `envconfig:"CONVERSATION_TTL" default:"24h"`
	MaxTurns int    `envconfig:"CONVERSATION_MAX_TURNS" default:"10"`
	Tools    struct {
		MaxCalls int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"6"`
	}
}

// TTLDuration parses TTL; an empty or invalid value disables expiry.
func (c ConversationConfig) TTLDuration() (time.Duration, error) {
	if c.TTL == "" {
		return 0, nil
	}
	return time.ParseDuration(c.TTL)
}

type IntentModelConfig struct {
	Model       string  `envconfig:"INTENT_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"INTENT_MAX_TOKENS" default:"512"`
	Temperature float32 `envconfig:"INTENT_TEMPERATURE" default:"0.1"`
	Assistant   string  `envconfig:"INTENT_ASSISTANT_NAME" default:"Aura"`
}

type ExtractionModelConfig struct {
	Model       string  `envconfig:"EXTRACTION_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"EXTRACTION_MAX_TOKENS" default:"1024"`
	Temperature float32 `envconfig:"EXTRACTION_TEMPERATURE" default:"0"`
}

type ResearchModelConfig struct {
	Model       string  `envconfig:"RESEARCH_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"RESEARCH_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"RESEARCH_TEMPERATURE" default:"0.3"`
	MaxResults  int     `envconfig:"RESEARCH_MAX_RESULTS" default:"5"`
}

type StylingConfig struct {
	ImageModel     string        `envconfig:"STYLING_IMAGE_MODEL" default:"gemini-3-pro-image-preview"`
	Concurrency    int           `envconfig:"STYLING_CONCURRENCY" default:"4"`
	ComposeTimeout time.Duration `envconfig:"STYLING_COMPOSE_TIMEOUT" default:"60s"`
	FetchTimeout   time.Duration `envconfig:"STYLING_FETCH_TIMEOUT" default:"15s"`
	MaxImageBytes  int64         `envconfig:"STYLING_MAX_IMAGE_BYTES" default:"10485760"`
}

type ServerConfig struct {
	Port            int           `envconfig:"HTTP_PORT" default:"8000"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"180s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}
