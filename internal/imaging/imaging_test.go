package imaging

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Brownie44l1/fungi-api/internal/model"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestTensorNHWCBGR(t *testing.T) {
	opts := OptionsFromMetadata(model.DefaultMetadata())
	data := Tensor(solid(40, 30, color.RGBA{R: 200, G: 100, B: 50, A: 255}), opts)

	if len(data) != 224*224*3 {
		t.Fatalf("got %d values, want %d", len(data), 224*224*3)
	}
	// BGR, interleaved, raw byte values.
	for _, i := range []int{0, 3 * 1000, len(data) - 3} {
		if data[i] != 50 || data[i+1] != 100 || data[i+2] != 200 {
			t.Errorf("pixel at %d = %v, want [50 100 200]", i/3, data[i:i+3])
		}
	}
}

func TestTensorNCHWRGBScaled(t *testing.T) {
	opts := Options{Size: 8, Layout: model.LayoutNCHW, ChannelOrder: model.ChannelsRGB, Scale: 1.0 / 255}
	data := Tensor(solid(16, 16, color.RGBA{R: 255, G: 0, B: 51, A: 255}), opts)

	plane := 8 * 8
	if len(data) != 3*plane {
		t.Fatalf("got %d values, want %d", len(data), 3*plane)
	}
	near := func(a, b float32) bool { return a-b < 1e-5 && b-a < 1e-5 }
	if !near(data[0], 1) || !near(data[plane], 0) || !near(data[2*plane], 0.2) {
		t.Errorf("first pixel planes = %v %v %v, want 1 0 0.2", data[0], data[plane], data[2*plane])
	}
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ok.png")
	writePNG(t, path, solid(4, 4, color.RGBA{A: 255}))

	img, format, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile error: %v", err)
	}
	if format != "png" || img.Bounds().Dx() != 4 {
		t.Errorf("got format %q width %d", format, img.Bounds().Dx())
	}
}

func TestDecodeFileFailures(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.jpg")
	garbage := filepath.Join(dir, "garbage.png")
	os.WriteFile(empty, nil, 0644)
	os.WriteFile(garbage, []byte("definitely not a png"), 0644)

	for _, path := range []string{empty, garbage, filepath.Join(dir, "missing.gif")} {
		if _, _, err := DecodeFile(path); !errors.Is(err, ErrDecode) {
			t.Errorf("DecodeFile(%s) error = %v, want ErrDecode", filepath.Base(path), err)
		}
	}
}
