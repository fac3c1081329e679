package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/aura-core/server/internal/agent/embedding"
	"github.com/aura-core/server/internal/agent/graph/conversations"
	"github.com/aura-core/server/internal/agent/graph/nodes"
	"github.com/aura-core/server/internal/agent/graph/observers"
	"github.com/aura-core/server/internal/agent/graph/tools"
	"github.com/aura-core/server/internal/agent/imaging"
	"github.com/aura-core/server/internal/agent/model"
	"github.com/aura-core/server/internal/agent/styling"
	logx "github.com/aura-core/server/pkg/logger"
)

// Runner is a thin wrapper to execute the compiled graph with the public ChatInput.
type Runner interface {
	Invoke(ctx context.Context, in model.ChatInput) (string, error)
}

// Config holds everything needed to compose the full chat graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs ChatModels,
// the image composer and the MessagesManager.
type Config struct {
	APIKey           string
	BaseURL          string
	IntentModel      model.IntentModelConfig
	ExtractionModel  model.ExtractionModelConfig
	ResearchModel    model.ResearchModelConfig
	Styling          model.StylingConfig
	Conversation     model.ConversationConfig
	ConversationRepo model.ConversationRepository
	SessionRepo      model.SessionRepository
	ProfileRepo      model.ProfileRepository
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels      *nodes.ChatModels
	MessagesManager *conversations.MessagesManager
	Sessions        model.SessionRepository
	Profiles        model.ProfileRepository
	Styler          nodes.Styler
	Catalog         *tools.Catalog
	IntentConfig    *model.IntentModelConfig
	ResearchConfig  *model.ResearchModelConfig
	ToolMaxCalls    int
}

// GraphBuilder handles the construction of the agent conversation graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.ChatInput, *schema.Message]
}

type graphRunner struct {
	runnable compose.Runnable[model.ChatInput, *schema.Message]
}

func (r *graphRunner) Invoke(ctx context.Context, in model.ChatInput) (string, error) {
	ctx = logx.WithContext(ctx, map[string]any{"thread_id": in.ThreadID, "user_id": in.UserID})

	start := time.Now()
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		logx.Ctx(ctx).Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Chat graph failed")
		return "", err
	}
	if out == nil {
		return "", nil
	}
	logx.Ctx(ctx).Debug().Dur("elapsed", time.Since(start)).Interface("extra", out.Extra).Msg("Chat graph finished")
	return out.Content, nil
}

// BuildChatGraph composes ChatModels, the styling pipeline and MessagesManager,
// builds the graph, and returns a Runner.
func BuildChatGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.ConversationRepo == nil || cfg.SessionRepo == nil || cfg.ProfileRepo == nil {
		return nil, fmt.Errorf("repositories are not configured")
	}

	client, err := nodes.NewGenAIClient(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		Client:           client,
		IntentConfig:     &cfg.IntentModel,
		ExtractionConfig: &cfg.ExtractionModel,
		ResearchConfig:   &cfg.ResearchModel,
	})
	if err != nil {
		return nil, err
	}

	catalog, err := tools.DefaultCatalog()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	composer := imaging.NewComposer(imaging.NewGenAIGenerator(client), imaging.Config{
		Model:         cfg.Styling.ImageModel,
		FetchTimeout:  cfg.Styling.FetchTimeout,
		MaxImageBytes: cfg.Styling.MaxImageBytes,
	})
	styler := styling.NewOrchestrator(composer, embedding.NewGenerator(cfg.Styling.Concurrency), styling.Config{
		Concurrency:    cfg.Styling.Concurrency,
		ComposeTimeout: cfg.Styling.ComposeTimeout,
	})

	mm := conversations.NewMessagesManager(cfg.ConversationRepo, cfg.Conversation)

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:      cms,
		MessagesManager: mm,
		Sessions:        cfg.SessionRepo,
		Profiles:        cfg.ProfileRepo,
		Styler:          styler,
		Catalog:         catalog,
		IntentConfig:    &cfg.IntentModel,
		ResearchConfig:  &cfg.ResearchModel,
		ToolMaxCalls:    cfg.Conversation.Tools.MaxCalls,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Chat graph built successfully")
	return &graphRunner{runnable: runnable}, nil
}

// BuildGraph constructs and returns the compiled agent graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.ChatInput, *schema.Message], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Intent == nil ||
		config.ChatModels.Extraction == nil || config.ChatModels.Research == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.MessagesManager == nil || config.Sessions == nil || config.Profiles == nil {
		return nil, fmt.Errorf("conversation stores are nil")
	}
	if config.Styler == nil || config.Catalog == nil {
		return nil, fmt.Errorf("styler or catalog is nil")
	}
	if config.IntentConfig == nil || config.ResearchConfig == nil {
		return nil, fmt.Errorf("model prompt/config is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.ChatInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	if err := builder.setupTools(ctx); err != nil {
		return nil, err
	}
	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// setupTools configures research tools and binds them to the research model
func (b *GraphBuilder) setupTools(ctx context.Context) error {
	researchTools := tools.GetResearchTools(b.config.Catalog, b.config.ResearchConfig.MaxResults)
	toolInfos, err := tools.GetToolInfos(ctx, researchTools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return fmt.Errorf("failed to get tool infos: %w", err)
	}

	if err := b.config.ChatModels.BindToolsToResearchModel(ctx, toolInfos); err != nil {
		return fmt.Errorf("failed to bind tools to research model: %w", err)
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               researchTools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown or invalid tool call; returning fallback result")
			return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
		},
		ToolArgumentsHandler: func(ctx context.Context, name, arguments string) (string, error) {
			return tools.SanitizeArguments(name, arguments), nil
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	return b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
		compose.WithStatePreHandler(nodes.NewToolExecutorPreHandler(b.config.ToolMaxCalls)),
		compose.WithStatePostHandler(nodes.NewToolExecutorPostHandler()),
	)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	cms := b.config.ChatModels
	g := b.graph

	steps := []func() error{
		func() error {
			return g.AddLambdaNode(nodes.NodeInputConverter,
				nodes.NewInputConverterNode(b.config.MessagesManager, b.config.Sessions, b.config.IntentConfig),
				compose.WithStatePreHandler(nodes.NewInputConverterPreHandler()),
			)
		},
		func() error {
			return g.AddChatModelNode(nodes.NodeIntentChatModel, cms.Intent,
				compose.WithStatePostHandler(nodes.NewUsagePostHandler(nodes.NodeIntentChatModel, cms.IntentModelName)),
			)
		},
		func() error {
			return g.AddLambdaNode(nodes.NodeIntentParser, nodes.NewIntentParserNode(),
				compose.WithStatePostHandler(nodes.NewIntentParserPostHandler()),
			)
		},
		func() error {
			return g.AddLambdaNode(nodes.NodeGeneralChat, nodes.NewGeneralChatNode())
		},
		func() error {
			return g.AddLambdaNode(nodes.NodeExtractionAssembler, nodes.NewExtractionAssemblerNode())
		},
		func() error {
			return g.AddChatModelNode(nodes.NodeExtractionChatModel, cms.Extraction,
				compose.WithStatePostHandler(nodes.NewUsagePostHandler(nodes.NodeExtractionChatModel, cms.ExtractionModelName)),
			)
		},
		func() error {
			return g.AddLambdaNode(nodes.NodeExtractionParser, nodes.NewExtractionParserNode())
		},
		func() error {
			return g.AddLambdaNode(nodes.NodeContextRouter, nodes.NewContextRouterNode())
		},
		func() error {
			return g.AddLambdaNode(nodes.NodeClarify, nodes.NewClarifyNode())
		},
		func() error {
			return g.AddLambdaNode(nodes.NodeResearchAssembler,
				nodes.NewResearchAssemblerNode(b.config.IntentConfig.Assistant, b.config.ResearchConfig),
			)
		},
		func() error {
			return g.AddChatModelNode(nodes.NodeResearchChatModel, cms.Research,
				compose.WithStatePreHandler(nodes.NewResearchChatModelPreHandler(b.config.ToolMaxCalls)),
				compose.WithStatePostHandler(nodes.NewResearchChatModelPostHandler(cms.ResearchModelName)),
			)
		},
		func() error {
			return g.AddLambdaNode(nodes.NodeStyling, nodes.NewStylingNode(b.config.Styler, b.config.Profiles))
		},
		func() error {
			return g.AddLambdaNode(nodes.NodeFinalizer, nodes.NewFinalizerNode(b.config.MessagesManager, b.config.Sessions))
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			logx.Error().Err(err).Msg("Error adding graph node")
			return fmt.Errorf("error adding graph node: %w", err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeInputConverter},
		{nodes.NodeInputConverter, nodes.NodeIntentChatModel},
		{nodes.NodeIntentChatModel, nodes.NodeIntentParser},
		{nodes.NodeExtractionAssembler, nodes.NodeExtractionChatModel},
		{nodes.NodeExtractionChatModel, nodes.NodeExtractionParser},
		{nodes.NodeExtractionParser, nodes.NodeContextRouter},
		{nodes.NodeResearchAssembler, nodes.NodeResearchChatModel},
		{nodes.NodeToolExecutor, nodes.NodeResearchChatModel},
		{nodes.NodeGeneralChat, nodes.NodeFinalizer},
		{nodes.NodeClarify, nodes.NodeFinalizer},
		{nodes.NodeStyling, nodes.NodeFinalizer},
		{nodes.NodeFinalizer, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	intentBranch := compose.NewGraphBranch(
		nodes.NewIntentCondition(),
		map[string]bool{
			nodes.NodeGeneralChat:         true,
			nodes.NodeExtractionAssembler: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeIntentParser, intentBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding intent branch")
		return fmt.Errorf("error adding intent branch: %w", err)
	}

	contextBranch := compose.NewGraphBranch(
		nodes.NewClarifyCondition(),
		map[string]bool{
			nodes.NodeClarify:           true,
			nodes.NodeResearchAssembler: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeContextRouter, contextBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding context branch")
		return fmt.Errorf("error adding context branch: %w", err)
	}

	toolBranch := compose.NewGraphBranch(
		nodes.NewToolExecutorCondition(),
		map[string]bool{
			nodes.NodeToolExecutor: true,
			nodes.NodeStyling:      true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeResearchChatModel, toolBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding tool branch")
		return fmt.Errorf("error adding tool branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.ChatInput, *schema.Message], error) {
	// Limit total run steps to avoid infinite loops in branching or tool retries
	maxSteps := 12 + (b.config.ToolMaxCalls+1)*2
	if maxSteps < 25 {
		maxSteps = 25
	}

	runnable, err := b.graph.Compile(ctx,
		compose.WithGraphName("aura_chat"),
		compose.WithMaxRunSteps(maxSteps),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Int("max_steps", maxSteps).Msg("Graph compiled successfully")
	return runnable, nil
}
