package imaging

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/aura-core/server/internal/agent/embedding"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeGenerator struct {
	data  []byte
	err   error
	parts []*genai.Part
	model string
}

func (f *fakeGenerator) GenerateImage(_ context.Context, model string, parts []*genai.Part) ([]byte, string, error) {
	f.model = model
	f.parts = parts
	return f.data, "image/png", f.err
}

func imageServer(t *testing.T, body []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/me.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	})
	mux.HandleFunc("/sniff", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(body)
	})
	mux.HandleFunc("/text", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestComposeDecodesGeneratedImage(t *testing.T) {
	photo := pngBytes(t, 4, 4)
	srv := imageServer(t, photo)
	gen := &fakeGenerator{data: pngBytes(t, 32, 48)}
	c := NewComposer(gen, Config{Model: "img-model"})

	in, err := c.Compose(context.Background(), srv.URL+"/me.png", srv.URL+"/sniff")
	require.NoError(t, err)
	assert.Equal(t, embedding.Image{Width: 32, Height: 48, Mode: "RGBA"}, in)

	assert.Equal(t, "img-model", gen.model)
	require.Len(t, gen.parts, 3)
	assert.Equal(t, mergeInstruction, gen.parts[0].Text)
	assert.Equal(t, "image/png", gen.parts[1].InlineData.MIMEType)
	assert.Equal(t, "image/png", gen.parts[2].InlineData.MIMEType)
	assert.Equal(t, photo, gen.parts[1].InlineData.Data)
}

func TestComposeFallsBackToBytes(t *testing.T) {
	srv := imageServer(t, pngBytes(t, 2, 2))
	c := NewComposer(&fakeGenerator{data: []byte("RIFF....WEBP")}, Config{})

	in, err := c.Compose(context.Background(), srv.URL+"/me.png", srv.URL+"/me.png")
	require.NoError(t, err)
	assert.Equal(t, embedding.Bytes("RIFF....WEBP"), in)
}

func TestComposeFetchErrors(t *testing.T) {
	srv := imageServer(t, pngBytes(t, 2, 2))
	gen := &fakeGenerator{data: pngBytes(t, 2, 2)}

	c := NewComposer(gen, Config{})
	_, err := c.Compose(context.Background(), srv.URL+"/missing.png", srv.URL+"/me.png")
	assert.ErrorContains(t, err, "unexpected status 404")

	_, err = c.Compose(context.Background(), srv.URL+"/text", srv.URL+"/me.png")
	assert.ErrorContains(t, err, "not an image")

	small := NewComposer(gen, Config{MaxImageBytes: 8})
	_, err = small.Compose(context.Background(), srv.URL+"/me.png", srv.URL+"/me.png")
	assert.ErrorIs(t, err, ErrImageTooBig)
}

func TestComposeGeneratorError(t *testing.T) {
	srv := imageServer(t, pngBytes(t, 2, 2))
	boom := errors.New("quota exceeded")
	c := NewComposer(&fakeGenerator{err: boom}, Config{})

	_, err := c.Compose(context.Background(), srv.URL+"/me.png", srv.URL+"/me.png")
	assert.ErrorIs(t, err, boom)
}

func TestFirstInlineImage(t *testing.T) {
	_, _, err := firstInlineImage(nil)
	assert.ErrorIs(t, err, ErrNoImage)

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: &genai.Content{Parts: []*genai.Part{{Text: "here you go"}}}},
		{Content: &genai.Content{Parts: []*genai.Part{{InlineData: &genai.Blob{Data: []byte{1, 2}, MIMEType: "image/png"}}}}},
	}}
	data, mime, err := firstInlineImage(resp)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, data)
	assert.Equal(t, "image/png", mime)

	_, _, err = firstInlineImage(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, ErrNoImage)
}
