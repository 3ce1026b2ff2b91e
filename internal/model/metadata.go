package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

const DefaultImageSize = 224

// DefaultMetadata matches the shipped fungi classifier: NHWC input fed with
// raw BGR byte values and one score per taxonomy entry.
func DefaultMetadata() Metadata {
	classes := make([]string, len(Taxonomy))
	copy(classes, Taxonomy)
	return Metadata{
		InputName:    "input",
		OutputName:   "output",
		InputShape:   []int64{1, DefaultImageSize, DefaultImageSize, 3},
		OutputShape:  []int64{1, int64(len(classes))},
		Classes:      classes,
		ImageSize:    DefaultImageSize,
		Layout:       LayoutNHWC,
		ChannelOrder: ChannelsBGR,
		Scale:        1,
	}
}

// LoadMetadata reads the metadata file written next to the model artifact.
// Fields missing from the file keep their defaults; a missing file yields
// DefaultMetadata.
func LoadMetadata(path string) (Metadata, error) {
	metadata := DefaultMetadata()
	if path == "" {
		return metadata, nil
	}

	metaFile, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return metadata, nil
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if err := metadata.Validate(); err != nil {
		return Metadata{}, fmt.Errorf("invalid metadata %s: %w", path, err)
	}
	return metadata, nil
}

// InputSize is the number of float32 values the model consumes per call.
func (m Metadata) InputSize() int {
	return volume(m.InputShape)
}

// Validate checks that the shapes, the image size and the label table agree
// with each other.
func (m Metadata) Validate() error {
	if m.InputName == "" || m.OutputName == "" {
		return errors.New("input and output names are required")
	}
	if len(m.Classes) == 0 {
		return errors.New("no classes")
	}
	if m.ImageSize <= 0 {
		return fmt.Errorf("image size %d must be positive", m.ImageSize)
	}
	if m.Scale <= 0 {
		return fmt.Errorf("scale %v must be positive", m.Scale)
	}

	switch m.ChannelOrder {
	case ChannelsBGR, ChannelsRGB:
	default:
		return fmt.Errorf("unknown channel order %q", m.ChannelOrder)
	}

	var want []int64
	switch m.Layout {
	case LayoutNHWC:
		want = []int64{1, int64(m.ImageSize), int64(m.ImageSize), 3}
	case LayoutNCHW:
		want = []int64{1, 3, int64(m.ImageSize), int64(m.ImageSize)}
	default:
		return fmt.Errorf("unknown layout %q", m.Layout)
	}
	if !equalShape(m.InputShape, want) {
		return fmt.Errorf("input shape %v does not match %s layout %v", m.InputShape, m.Layout, want)
	}

	if volume(m.OutputShape) != len(m.Classes) {
		return fmt.Errorf("output shape %v holds %d scores for %d classes",
			m.OutputShape, volume(m.OutputShape), len(m.Classes))
	}
	return nil
}

func volume(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, dim := range shape {
		n *= int(dim)
	}
	return n
}

func equalShape(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
