// Package embedding produces stand-in image embeddings: unit vectors drawn from a
// standard normal distribution seeded by the identity of the input, so the same
// input always maps to the same vector. It is not a learned model.
package embedding

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/aura-core/server/internal/metrics"
	logx "github.com/aura-core/server/pkg/logger"
)

// Dimensions is the fixed embedding length.
const Dimensions = 768

// Name identifies the generator in logs and session metadata.
const Name = "random-vector-generator"

// pcgStream is the second PCG word; the seed alone selects the sequence.
const pcgStream = 0x9e3779b97f4a7c15

// Generator is safe for concurrent use; it holds no mutable state.
type Generator struct {
	concurrency int
}

// NewGenerator returns a generator whose batch calls run at most concurrency
// inputs at once (<= 0 means unbounded).
func NewGenerator(concurrency int) *Generator {
	return &Generator{concurrency: concurrency}
}

// Embed returns the unit vector for in. Any failure yields a zero vector.
func (g *Generator) Embed(in Input) []float32 {
	kind := kindOf(in)
	vec, err := generate(in)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(kind, "error").Inc()
		logx.Warn().Err(err).Str("kind", kind).Msg("embedding generation failed, returning zero vector")
		return make([]float32, Dimensions)
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(kind, "ok").Inc()
	return vec
}

// EmbedImage is Embed for callers that propagate cancellation.
func (g *Generator) EmbedImage(ctx context.Context, in Input) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.Embed(in), nil
}

// EmbedBatch embeds inputs independently and returns vectors in input order.
// Inputs not started before ctx is done get zero vectors.
func (g *Generator) EmbedBatch(ctx context.Context, inputs []Input) [][]float32 {
	out := make([][]float32, len(inputs))

	var eg errgroup.Group
	if g.concurrency > 0 {
		eg.SetLimit(g.concurrency)
	}
	for i, in := range inputs {
		eg.Go(func() error {
			if ctx.Err() != nil {
				out[i] = make([]float32, Dimensions)
				return nil
			}
			out[i] = g.Embed(in)
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

func generate(in Input) (vec []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			vec, err = nil, fmt.Errorf("embedding panic: %v", r)
		}
	}()

	normal := rand.NormFloat64
	if in != nil {
		seed, ok, serr := in.Seed()
		if serr != nil {
			return nil, serr
		}
		if ok {
			normal = rand.New(rand.NewPCG(seed, pcgStream)).NormFloat64
		}
	}

	vec = make([]float32, Dimensions)
	var sum float64
	for i := range vec {
		v := float32(normal())
		vec[i] = v
		sum += float64(v) * float64(v)
	}

	norm := math.Sqrt(sum)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec, nil
}

func kindOf(in Input) (kind string) {
	defer func() {
		if recover() != nil {
			kind = "unknown"
		}
	}()
	if in == nil {
		return "none"
	}
	return in.Kind()
}
