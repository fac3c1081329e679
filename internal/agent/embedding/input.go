package embedding

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/cespare/xxhash/v2"
)

var errMalformed = errors.New("malformed embedding input")

// Input is anything that can be embedded. Seed reports the deterministic seed for
// the input; ok=false means the input carries no identity and a non-deterministic
// vector is produced instead.
type Input interface {
	Kind() string
	Seed() (seed uint64, ok bool, err error)
}

// URL is an image reference. Its content is its identity.
type URL string

func (u URL) Kind() string { return "url" }

func (u URL) Seed() (uint64, bool, error) {
	return xxhash.Sum64String(string(u)), true, nil
}

// Image describes a decoded image by the attributes that identify it:
// pixel dimensions and color mode (PIL-style names: RGB, RGBA, L, P, CMYK, ...).
type Image struct {
	Width  int
	Height int
	Mode   string
}

func (i Image) Kind() string { return "image" }

func (i Image) Seed() (uint64, bool, error) {
	if i.Width <= 0 || i.Height <= 0 {
		return 0, false, fmt.Errorf("%w: image size %dx%d", errMalformed, i.Width, i.Height)
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(i.Width))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(i.Height))

	d := xxhash.New()
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(i.Mode)
	return d.Sum64(), true, nil
}

// Bytes is a raw image payload. Its content hash is its identity.
type Bytes []byte

func (b Bytes) Kind() string { return "bytes" }

func (b Bytes) Seed() (uint64, bool, error) {
	if len(b) == 0 {
		return 0, false, nil
	}
	return xxhash.Sum64(b), true, nil
}

// FromImage describes img by its bounds and color model.
func FromImage(img image.Image) Image {
	b := img.Bounds()
	return Image{Width: b.Dx(), Height: b.Dy(), Mode: modeOf(img.ColorModel())}
}

// DecodeImage reads the header of an encoded png, jpeg or gif payload.
func DecodeImage(data []byte) (Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("decode image config: %w", err)
	}
	return Image{Width: cfg.Width, Height: cfg.Height, Mode: modeOf(cfg.ColorModel)}, nil
}

func modeOf(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "P"
	}
	switch m {
	case color.RGBAModel, color.NRGBAModel:
		return "RGBA"
	case color.RGBA64Model, color.NRGBA64Model:
		return "RGBA;16"
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.AlphaModel, color.Alpha16Model:
		return "A"
	case color.YCbCrModel, color.NYCbCrAModel:
		return "RGB"
	case color.CMYKModel:
		return "CMYK"
	}
	return "unknown"
}
