package styling

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-core/server/internal/agent/embedding"
	"github.com/aura-core/server/internal/agent/model"
)

// fakeComposer returns the product image as a URL input, failing for images
// containing "bad-compose" and panicking for "panic".
type fakeComposer struct {
	mu     sync.Mutex
	photos []string
	delay  time.Duration
}

func (f *fakeComposer) Compose(ctx context.Context, photo, product string) (embedding.Input, error) {
	f.mu.Lock()
	f.photos = append(f.photos, photo)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	switch {
	case strings.Contains(product, "bad-compose"):
		return nil, errors.New("model refused")
	case strings.Contains(product, "panic"):
		panic("composer blew up")
	}
	return embedding.URL(photo + "|" + product), nil
}

// fakeEmbedder fails for inputs containing "bad-embed".
type fakeEmbedder struct {
	gen *embedding.Generator
}

func (f fakeEmbedder) EmbedImage(ctx context.Context, in embedding.Input) ([]float32, error) {
	if u, ok := in.(embedding.URL); ok && strings.Contains(string(u), "bad-embed") {
		return nil, errors.New("embedder down")
	}
	return f.gen.EmbedImage(ctx, in)
}

func products(images ...string) []model.Product {
	out := make([]model.Product, len(images))
	for i, img := range images {
		out[i] = model.Product{ID: img, Title: "Item " + img, Image: img}
	}
	return out
}

func newOrchestrator(c *fakeComposer, concurrency int) *Orchestrator {
	return NewOrchestrator(c, fakeEmbedder{gen: embedding.NewGenerator(0)}, Config{Concurrency: concurrency})
}

func TestStyle_NoProducts(t *testing.T) {
	o := newOrchestrator(&fakeComposer{}, 1)

	for _, photos := range [][]string{nil, {"me.png"}} {
		res := o.Style(context.Background(), nil, photos)
		assert.Empty(t, res.Embeddings)
		assert.NotNil(t, res.Embeddings)
		assert.Equal(t, NoItemsMessage, res.Message)
		assert.Nil(t, res.Selected)
	}
}

func TestStyle_NoPhotos(t *testing.T) {
	c := &fakeComposer{}
	res := newOrchestrator(c, 1).Style(context.Background(), products("a.png"), nil)

	assert.Empty(t, res.Embeddings)
	assert.Equal(t, NoPhotosMessage, res.Message)
	assert.Empty(t, c.photos, "composer must not be called")
}

func TestStyle_AllSucceedUsesFirstPhoto(t *testing.T) {
	c := &fakeComposer{}
	gen := embedding.NewGenerator(0)
	res := newOrchestrator(c, 1).Style(context.Background(), products("a.png", "b.png"), []string{"me.png", "other.png"})

	require.Len(t, res.Embeddings, 2)
	assert.Equal(t, gen.Embed(embedding.URL("me.png|a.png")), res.Embeddings[0])
	assert.Equal(t, gen.Embed(embedding.URL("me.png|b.png")), res.Embeddings[1])
	assert.Equal(t, "I've generated styling visualizations for 2 product(s). Here are the embeddings.", res.Message)
	assert.Equal(t, 2, res.Processed)
	require.NotNil(t, res.Selected)
	assert.Equal(t, "a.png", res.Selected.ID)
	assert.Equal(t, []string{"me.png", "me.png"}, c.photos)
}

func TestStyle_PartialFailureSkipsItems(t *testing.T) {
	gen := embedding.NewGenerator(0)
	items := products("bad-compose-1.png", "ok-1.png", "bad-embed.png", "panic.png", "ok-2.png")

	for _, concurrency := range []int{1, 3} {
		res := newOrchestrator(&fakeComposer{}, concurrency).Style(context.Background(), items, []string{"me.png"})

		require.Len(t, res.Embeddings, 2, "concurrency %d", concurrency)
		assert.Equal(t, gen.Embed(embedding.URL("me.png|ok-1.png")), res.Embeddings[0])
		assert.Equal(t, gen.Embed(embedding.URL("me.png|ok-2.png")), res.Embeddings[1])
		assert.Equal(t, "I've generated styling visualizations for 2 product(s). Here are the embeddings.", res.Message)
		require.NotNil(t, res.Selected)
		assert.Equal(t, "bad-compose-1.png", res.Selected.ID, "selected is the first search result")
	}
}

func TestStyle_AllFail(t *testing.T) {
	res := newOrchestrator(&fakeComposer{}, 2).Style(context.Background(),
		products("bad-compose.png", "bad-embed.png"), []string{"me.png"})

	assert.Empty(t, res.Embeddings)
	assert.Equal(t, FailedMessage, res.Message)
	assert.Nil(t, res.Selected)
	assert.Zero(t, res.Processed)
}

func TestStyle_ComposeTimeout(t *testing.T) {
	c := &fakeComposer{delay: time.Second}
	o := NewOrchestrator(c, fakeEmbedder{gen: embedding.NewGenerator(0)}, Config{ComposeTimeout: 10 * time.Millisecond})

	res := o.Style(context.Background(), products("slow.png"), []string{"me.png"})
	assert.Equal(t, FailedMessage, res.Message)
}

func TestStyleItem_ErrorKinds(t *testing.T) {
	o := newOrchestrator(&fakeComposer{}, 1)

	_, err := o.styleItem(context.Background(), "me.png", model.Product{Image: "bad-compose.png"})
	assert.ErrorIs(t, err, ErrCompose)
	assert.Equal(t, "compose", stageOf(err))

	_, err = o.styleItem(context.Background(), "me.png", model.Product{Image: "bad-embed.png"})
	assert.ErrorIs(t, err, ErrEmbed)
	assert.Equal(t, "embed", stageOf(err))

	_, err = o.styleItem(context.Background(), "me.png", model.Product{Image: "panic.png"})
	assert.ErrorIs(t, err, ErrUnexpected)
	assert.Equal(t, "unknown", stageOf(err))
}
