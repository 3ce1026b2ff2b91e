package model

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/sync/semaphore"
)

func TestTaxonomy(t *testing.T) {
	if len(Taxonomy) != 100 {
		t.Fatalf("taxonomy has %d labels, want 100", len(Taxonomy))
	}
	if Taxonomy[0] != "Amanita citrina" || Taxonomy[99] != "Xanthoria parietina" {
		t.Errorf("unexpected taxonomy bounds %q .. %q", Taxonomy[0], Taxonomy[99])
	}

	seen := make(map[string]bool, len(Taxonomy))
	for i, label := range Taxonomy {
		if seen[label] {
			t.Errorf("duplicate label %q at %d", label, i)
		}
		seen[label] = true
	}
}

func TestArgMax(t *testing.T) {
	nan := float32(math.NaN())

	tests := []struct {
		name   string
		values []float32
		want   int
	}{
		{name: "empty", values: nil, want: -1},
		{name: "single", values: []float32{0.3}, want: 0},
		{name: "max in middle", values: []float32{0.1, 0.7, 0.2}, want: 1},
		{name: "first of ties", values: []float32{0.4, 0.1, 0.4}, want: 0},
		{name: "negative scores", values: []float32{-3, -1, -2}, want: 1},
		{name: "nan skipped", values: []float32{nan, 0.2, 0.1}, want: 1},
		{name: "all nan", values: []float32{nan, nan}, want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ArgMax(tt.values); got != tt.want {
				t.Errorf("ArgMax(%v) = %d, want %d", tt.values, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	scores := make([]float32, len(Taxonomy))
	scores[42] = 0.9
	scores[7] = 0.05

	pred, err := Classify(scores, Taxonomy)
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if pred.Index != 42 || pred.Label != Taxonomy[42] || pred.Score != 0.9 {
		t.Errorf("got %+v, want index 42 (%s)", pred, Taxonomy[42])
	}
}

func TestClassifyMismatch(t *testing.T) {
	if _, err := Classify([]float32{1, 2}, Taxonomy); err == nil {
		t.Error("expected error for score/class count mismatch")
	}
}

func TestDefaultMetadataValid(t *testing.T) {
	m := DefaultMetadata()
	if err := m.Validate(); err != nil {
		t.Fatalf("default metadata invalid: %v", err)
	}
	if got, want := m.InputSize(), 224*224*3; got != want {
		t.Errorf("InputSize = %d, want %d", got, want)
	}

	m.Classes[0] = "changed"
	if Taxonomy[0] == "changed" {
		t.Error("DefaultMetadata shares the taxonomy slice")
	}
}

func TestLoadMetadataMissingFile(t *testing.T) {
	m, err := LoadMetadata(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadMetadata error: %v", err)
	}
	if len(m.Classes) != 100 || m.Layout != LayoutNHWC {
		t.Errorf("expected defaults, got %d classes layout %s", len(m.Classes), m.Layout)
	}
}

func TestLoadMetadataOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.onnx.json")
	body := `{
		"input_name": "pixels",
		"input_shape": [1, 3, 224, 224],
		"output_shape": [1, 3],
		"classes": ["a", "b", "c"],
		"layout": "nchw",
		"channel_order": "rgb",
		"scale": 0.00392156862745098
	}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadMetadata(path)
	if err != nil {
		t.Fatalf("LoadMetadata error: %v", err)
	}
	if m.InputName != "pixels" || m.OutputName != "output" {
		t.Errorf("names = %q/%q", m.InputName, m.OutputName)
	}
	if m.Layout != LayoutNCHW || m.ChannelOrder != ChannelsRGB || len(m.Classes) != 3 {
		t.Errorf("unexpected metadata %+v", m)
	}
}

func TestLoadMetadataInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "bad json", body: `{`, want: "parse"},
		{name: "class count", body: `{"classes": ["a", "b"]}`, want: "scores for 2 classes"},
		{name: "layout", body: `{"layout": "hwc"}`, want: "unknown layout"},
		{name: "shape", body: `{"image_size": 128}`, want: "input shape"},
		{name: "channels", body: `{"channel_order": "gray"}`, want: "channel order"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "meta.json")
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadMetadata(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got error %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestCloseGivesUpOnStuckRun(t *testing.T) {
	saved := closeWait
	closeWait = 20 * time.Millisecond
	defer func() { closeWait = saved }()

	s := &Server{sem: semaphore.NewWeighted(1)}
	if err := s.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Close() }()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Close returned nil while a run held the session")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on a stuck run")
	}
}
