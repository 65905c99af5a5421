package images

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"

	"github.com/bbrks/go-blurhash"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// blurHashSize bounds the thumbnail BlurHash is computed from; a larger
// source gives a nearly identical hash at far greater cost.
const blurHashSize = 64

// ComputeBlurHash decodes the image file at path and returns its BlurHash.
func ComputeBlurHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	return EncodeBlurHash(img)
}

// EncodeBlurHash returns the BlurHash of img with 4x3 components,
// about 20-30 characters, computed on a thumbnail.
func EncodeBlurHash(img image.Image) (string, error) {
	hash, err := blurhash.Encode(4, 3, resizeForBlurHash(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

// resizeForBlurHash nearest-neighbor scales img to fit blurHashSize.
func resizeForBlurHash(img image.Image) image.Image {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	if srcWidth <= blurHashSize && srcHeight <= blurHashSize {
		return img
	}

	var dstWidth, dstHeight int
	if srcWidth > srcHeight {
		dstWidth = blurHashSize
		dstHeight = (srcHeight * blurHashSize) / srcWidth
		if dstHeight < 1 {
			dstHeight = 1
		}
	} else {
		dstHeight = blurHashSize
		dstWidth = (srcWidth * blurHashSize) / srcHeight
		if dstWidth < 1 {
			dstWidth = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))

	xRatio := float64(srcWidth) / float64(dstWidth)
	yRatio := float64(srcHeight) / float64(dstHeight)

	for y := 0; y < dstHeight; y++ {
		for x := 0; x < dstWidth; x++ {
			srcX := int(float64(x) * xRatio)
			srcY := int(float64(y) * yRatio)
			dst.Set(x, y, img.At(bounds.Min.X+srcX, bounds.Min.Y+srcY))
		}
	}

	return dst
}
