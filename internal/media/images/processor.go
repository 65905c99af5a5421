package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
)

// MaxUploadSize is the largest accepted image upload.
const MaxUploadSize = 10 << 20

// ErrUnsupportedFormat is returned for data that is not a decodable JPEG, PNG, GIF or WebP.
var ErrUnsupportedFormat = errors.New("upload a valid image")

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Stored describes a processed upload.
type Stored struct {
	Name     string
	BlurHash string
	Hash     string
}

// Processor validates uploaded images and stores them.
type Processor struct {
	storage *Storage
	logger  *slog.Logger
}

// NewProcessor creates a new Processor instance.
func NewProcessor(storage *Storage, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{storage: storage, logger: logger}
}

// Storage returns the underlying storage.
func (p *Processor) Storage() *Storage {
	return p.storage
}

// DetectExtension sniffs data and returns the file extension for its
// image type, or ErrUnsupportedFormat.
func DetectExtension(data []byte) (string, error) {
	ext, ok := extensions[http.DetectContentType(data)]
	if !ok {
		return "", ErrUnsupportedFormat
	}
	return ext, nil
}

// Process checks that data decodes as an image, stores it and computes its
// BlurHash. A BlurHash failure is logged, not returned: the image is still usable.
func (p *Processor) Process(ctx context.Context, data []byte) (*Stored, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext, err := DetectExtension(data)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	name, err := p.storage.Save(data, ext)
	if err != nil {
		return nil, err
	}

	blurHash, err := EncodeBlurHash(img)
	if err != nil {
		p.logger.Warn("failed to compute blurhash", "image", name, "error", err)
	}

	hash, err := p.storage.Hash(name)
	if err != nil {
		return nil, fmt.Errorf("hash image: %w", err)
	}

	p.logger.Debug("stored image", "image", name, "size", len(data), "hash", hash[:8]+"...")

	return &Stored{Name: name, BlurHash: blurHash, Hash: hash}, nil
}
