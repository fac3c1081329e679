// Package imaging renders a user photo and a product image into one "try-on"
// picture with a Gemini image model.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/aura-core/server/internal/agent/embedding"
	"github.com/aura-core/server/internal/metrics"
	logx "github.com/aura-core/server/pkg/logger"
)

const mergeInstruction = "Create a realistic photo of the person in the first image wearing the product shown in the second image. " +
	"Keep the person's face, body shape, pose and background. Fit the product naturally with correct lighting and proportions. " +
	"Return only the edited image."

const (
	defaultFetchTimeout  = 15 * time.Second
	defaultMaxImageBytes = 10 << 20
)

var (
	ErrNoImage     = errors.New("model returned no image")
	ErrImageTooBig = errors.New("image exceeds size limit")
)

// Generator produces one image from the given parts.
type Generator interface {
	GenerateImage(ctx context.Context, model string, parts []*genai.Part) (data []byte, mimeType string, err error)
}

type genaiGenerator struct {
	client *genai.Client
}

// NewGenAIGenerator returns a Generator backed by the Gemini API.
func NewGenAIGenerator(client *genai.Client) Generator {
	return &genaiGenerator{client: client}
}

func (g *genaiGenerator) GenerateImage(ctx context.Context, model string, parts []*genai.Part) ([]byte, string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{ResponseModalities: []string{"IMAGE", "TEXT"}},
	)
	if err != nil {
		return nil, "", fmt.Errorf("generate content: %w", err)
	}
	return firstInlineImage(resp)
}

func firstInlineImage(resp *genai.GenerateContentResponse) ([]byte, string, error) {
	if resp == nil {
		return nil, "", ErrNoImage
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
				return p.InlineData.Data, p.InlineData.MIMEType, nil
			}
		}
	}
	return nil, "", ErrNoImage
}

type Config struct {
	Model         string
	FetchTimeout  time.Duration
	MaxImageBytes int64
	HTTPClient    *http.Client
}

// Composer downloads both images and asks the model to merge them.
type Composer struct {
	gen  Generator
	http *http.Client
	cfg  Config
}

func NewComposer(gen Generator, cfg Config) *Composer {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = defaultMaxImageBytes
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Composer{gen: gen, http: hc, cfg: cfg}
}

// Compose returns the merged image as an embedding input. Images the stdlib
// cannot decode are passed on as raw bytes.
func (c *Composer) Compose(ctx context.Context, userPhotoURL, productImageURL string) (embedding.Input, error) {
	start := time.Now()
	in, err := c.compose(ctx, userPhotoURL, productImageURL)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ComposeDuration.WithLabelValues(c.cfg.Model, status).Observe(time.Since(start).Seconds())
	return in, err
}

func (c *Composer) compose(ctx context.Context, userPhotoURL, productImageURL string) (embedding.Input, error) {
	var user, product *fetched
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		user, err = c.fetch(gctx, userPhotoURL)
		return err
	})
	g.Go(func() (err error) {
		product, err = c.fetch(gctx, productImageURL)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	parts := []*genai.Part{
		genai.NewPartFromText(mergeInstruction),
		genai.NewPartFromBytes(user.data, user.mimeType),
		genai.NewPartFromBytes(product.data, product.mimeType),
	}
	data, mimeType, err := c.gen.GenerateImage(ctx, c.cfg.Model, parts)
	if err != nil {
		return nil, err
	}

	img, err := embedding.DecodeImage(data)
	if err != nil {
		logx.Debug().Err(err).Str("mime_type", mimeType).Int("bytes", len(data)).Msg("composed image not decodable, using raw bytes")
		return embedding.Bytes(data), nil
	}
	return img, nil
}

type fetched struct {
	data     []byte
	mimeType string
}

func (c *Composer) fetch(ctx context.Context, url string) (*fetched, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(resp.Body, c.cfg.MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if n > c.cfg.MaxImageBytes {
		return nil, fmt.Errorf("fetch %s: %w", url, ErrImageTooBig)
	}
	if n == 0 {
		return nil, fmt.Errorf("fetch %s: empty body", url)
	}

	data := buf.Bytes()
	mimeType := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("fetch %s: not an image (%s)", url, mimeType)
	}
	return &fetched{data: data, mimeType: mimeType}, nil
}
