// Package imaging turns uploaded pictures into model input tensors.
package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/nfnt/resize"

	"github.com/Brownie44l1/fungi-api/internal/model"
)

// ErrDecode is returned when a file holds no decodable image.
var ErrDecode = errors.New("image could not be decoded")

// Options mirrors the preprocessing fields of the model metadata.
type Options struct {
	Size         int
	Layout       string
	ChannelOrder string
	Scale        float32
}

func OptionsFromMetadata(m model.Metadata) Options {
	return Options{
		Size:         m.ImageSize,
		Layout:       m.Layout,
		ChannelOrder: m.ChannelOrder,
		Scale:        m.Scale,
	}
}

// DecodeFile reads and decodes the image stored at path. Empty, truncated and
// unsupported files all yield an error wrapping ErrDecode.
func DecodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}

// Tensor resizes img to Size×Size and lays the pixels out as a batch of one.
// Channel values start as 0..255 and are multiplied by Scale.
func Tensor(img image.Image, opts Options) []float32 {
	targetSize := uint(opts.Size)
	resized := resize.Resize(targetSize, targetSize, img, resize.Bilinear)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	plane := width * height

	inputData := make([]float32, 3*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			c0, c1, c2 := r, g, b
			if opts.ChannelOrder == model.ChannelsBGR {
				c0, c2 = b, r
			}
			v0 := float32(c0>>8) * opts.Scale
			v1 := float32(c1>>8) * opts.Scale
			v2 := float32(c2>>8) * opts.Scale

			pixelIndex := y*width + x
			if opts.Layout == model.LayoutNCHW {
				inputData[pixelIndex] = v0
				inputData[plane+pixelIndex] = v1
				inputData[2*plane+pixelIndex] = v2
			} else {
				inputData[3*pixelIndex] = v0
				inputData[3*pixelIndex+1] = v1
				inputData[3*pixelIndex+2] = v2
			}
		}
	}

	return inputData
}
