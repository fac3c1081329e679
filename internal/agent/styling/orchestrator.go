// Package styling renders "user wearing product" visualizations: each candidate
// product is composed with the user's photo and the composed image is embedded.
package styling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aura-core/server/internal/agent/embedding"
	"github.com/aura-core/server/internal/agent/model"
	"github.com/aura-core/server/internal/metrics"
	logx "github.com/aura-core/server/pkg/logger"
)

const (
	NoItemsMessage   = "I couldn't find any items to style."
	NoPhotosMessage  = "I need your photos to show how the products look on you. Please upload your photos."
	FailedMessage    = "I encountered an error while processing the images. Please try again."
	successFormat    = "I've generated styling visualizations for %d product(s). Here are the embeddings."
	defaultComposeTO = 60 * time.Second
)

// Failure kinds for a single item. Every item error wraps exactly one of them.
var (
	ErrCompose    = errors.New("image composition failed")
	ErrEmbed      = errors.New("embedding failed")
	ErrUnexpected = errors.New("unexpected styling failure")
)

// Composer merges the user's photo with a product image.
type Composer interface {
	Compose(ctx context.Context, userPhotoURL, productImageURL string) (embedding.Input, error)
}

// Embedder turns a composed image into a vector.
type Embedder interface {
	EmbedImage(ctx context.Context, in embedding.Input) ([]float32, error)
}

type Config struct {
	// Concurrency bounds parallel items; <= 0 processes items one at a time.
	Concurrency int
	// ComposeTimeout bounds each composition call; <= 0 uses 60s.
	ComposeTimeout time.Duration
}

type Result struct {
	Embeddings [][]float32
	Message    string
	Selected   *model.Product
	Processed  int
}

type Orchestrator struct {
	composer Composer
	embedder Embedder
	cfg      Config
}

func NewOrchestrator(composer Composer, embedder Embedder, cfg Config) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.ComposeTimeout <= 0 {
		cfg.ComposeTimeout = defaultComposeTO
	}
	return &Orchestrator{composer: composer, embedder: embedder, cfg: cfg}
}

// Style visualizes products on the first of photoURLs. Failed items are skipped;
// surviving embeddings keep the order of products.
func (o *Orchestrator) Style(ctx context.Context, products []model.Product, photoURLs []string) Result {
	if len(products) == 0 {
		return Result{Embeddings: [][]float32{}, Message: NoItemsMessage}
	}
	if len(photoURLs) == 0 {
		return Result{Embeddings: [][]float32{}, Message: NoPhotosMessage}
	}
	photo := photoURLs[0]

	vectors := make([][]float32, len(products))
	var eg errgroup.Group
	eg.SetLimit(o.cfg.Concurrency)
	for i, p := range products {
		eg.Go(func() error {
			vec, err := o.styleItem(ctx, photo, p)
			if err != nil {
				stage := stageOf(err)
				metrics.StylingItemsTotal.WithLabelValues("error", stage).Inc()
				logx.Error().Err(err).
					Int("item", i).
					Str("product_id", p.ID).
					Str("title", p.Title).
					Str("stage", stage).
					Msg("styling item failed, skipping")
				return nil
			}
			metrics.StylingItemsTotal.WithLabelValues("ok", "").Inc()
			vectors[i] = vec
			return nil
		})
	}
	_ = eg.Wait()

	embeddings := make([][]float32, 0, len(products))
	for _, v := range vectors {
		if v != nil {
			embeddings = append(embeddings, v)
		}
	}

	if len(embeddings) == 0 {
		return Result{Embeddings: [][]float32{}, Message: FailedMessage}
	}

	selected := products[0]
	return Result{
		Embeddings: embeddings,
		Message:    fmt.Sprintf(successFormat, len(embeddings)),
		Selected:   &selected,
		Processed:  len(embeddings),
	}
}

func (o *Orchestrator) styleItem(ctx context.Context, photo string, p model.Product) (vec []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			vec, err = nil, fmt.Errorf("%w: %v", ErrUnexpected, r)
		}
	}()

	composeCtx, cancel := context.WithTimeout(ctx, o.cfg.ComposeTimeout)
	defer cancel()

	composed, err := o.composer.Compose(composeCtx, photo, p.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompose, err)
	}

	vec, err = o.embedder.EmbedImage(ctx, composed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbed, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrEmbed)
	}
	return vec, nil
}

func stageOf(err error) string {
	switch {
	case errors.Is(err, ErrCompose):
		return "compose"
	case errors.Is(err, ErrEmbed):
		return "embed"
	default:
		return "unknown"
	}
}
