package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/aura-core/server/internal/agent/model"
	logx "github.com/aura-core/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	Client           *genai.Client
	IntentConfig     *model.IntentModelConfig
	ExtractionConfig *model.ExtractionModelConfig
	ResearchConfig   *model.ResearchModelConfig
}

// ChatModels holds the three text models of the graph.
type ChatModels struct {
	Intent     *gemini.ChatModel
	Extraction *gemini.ChatModel
	Research   *gemini.ChatModel

	IntentModelName     string
	ExtractionModelName string
	ResearchModelName   string
}

// NewGenAIClient creates the shared Gemini client used by chat models and the
// image composer.
func NewGenAIClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

// NewChatModels creates the intent, extraction and research chat models.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("genai client is nil")
	}
	if config.IntentConfig == nil || config.ExtractionConfig == nil || config.ResearchConfig == nil {
		return nil, fmt.Errorf("chat model config is incomplete")
	}

	// Classification and extraction are short structured outputs; no thinking budget.
	intent, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      config.Client,
		Model:       config.IntentConfig.Model,
		Temperature: &config.IntentConfig.Temperature,
		MaxTokens:   &config.IntentConfig.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(int32(0)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating intent model")
		return nil, fmt.Errorf("error creating intent model: %w", err)
	}

	extraction, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      config.Client,
		Model:       config.ExtractionConfig.Model,
		Temperature: &config.ExtractionConfig.Temperature,
		MaxTokens:   &config.ExtractionConfig.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(int32(0)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating extraction model")
		return nil, fmt.Errorf("error creating extraction model: %w", err)
	}

	research, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      config.Client,
		Model:       config.ResearchConfig.Model,
		Temperature: &config.ResearchConfig.Temperature,
		MaxTokens:   &config.ResearchConfig.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(1024)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating research model")
		return nil, fmt.Errorf("error creating research model: %w", err)
	}

	return &ChatModels{
		Intent:              intent,
		Extraction:          extraction,
		Research:            research,
		IntentModelName:     config.IntentConfig.Model,
		ExtractionModelName: config.ExtractionConfig.Model,
		ResearchModelName:   config.ResearchConfig.Model,
	}, nil
}

// BindToolsToResearchModel binds tools to the research chat model
func (cm *ChatModels) BindToolsToResearchModel(ctx context.Context, tools []*schema.ToolInfo) error {
	if err := cm.Research.BindTools(tools); err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return fmt.Errorf("failed to bind tools: %w", err)
	}

	logx.Debug().Int("tools", len(tools)).Msg("Successfully bound tools to research model")
	return nil
}
