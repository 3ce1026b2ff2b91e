package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"google.golang.org/api/option"
)

func TestDriveFileID(t *testing.T) {
	tests := []struct {
		source string
		want   string
		ok     bool
	}{
		{source: "https://drive.google.com/file/d/1AbC-d_E/view?usp=sharing", want: "1AbC-d_E", ok: true},
		{source: "https://drive.google.com/uc?id=XYZ123", want: "XYZ123", ok: true},
		{source: "https://drive.google.com/open?id=q-w_e", want: "q-w_e", ok: true},
		{source: "https://docs.google.com/uc?export=download&id=abc", want: "abc", ok: true},
		{source: "https://example.com/file/d/abc/view"},
		{source: "https://drive.google.com/drive/folders"},
		{source: "::not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, ok := DriveFileID(tt.source)
			if got != tt.want || ok != tt.ok {
				t.Errorf("DriveFileID(%q) = %q, %v; want %q, %v", tt.source, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestEnsureExistingFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "model.onnx")
	os.WriteFile(dest, []byte("weights"), 0644)

	downloaded, err := Ensure(context.Background(), dest, "http://127.0.0.1:1/never", Options{})
	if err != nil || downloaded {
		t.Fatalf("Ensure = %v, %v; want no download", downloaded, err)
	}
}

func TestEnsureNoSource(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "model.onnx")
	if _, err := Ensure(context.Background(), dest, "", Options{}); !errors.Is(err, ErrNoSource) {
		t.Errorf("got %v, want ErrNoSource", err)
	}
}

func TestEnsureHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("onnx-bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "models", "model.onnx")
	downloaded, err := Ensure(context.Background(), dest, srv.URL+"/model.onnx", Options{HTTPClient: srv.Client()})
	if err != nil || !downloaded {
		t.Fatalf("Ensure = %v, %v", downloaded, err)
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "onnx-bytes" {
		t.Errorf("artifact = %q", data)
	}
}

func TestEnsureHTTPFailureLeavesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "model.onnx")
	_, err := Ensure(context.Background(), dest, srv.URL, Options{HTTPClient: srv.Client()})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("got %v, want 404 error", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("download failure left %d files behind", len(entries))
	}
}

func TestEnsureEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "model.onnx")
	if _, err := Ensure(context.Background(), dest, srv.URL, Options{HTTPClient: srv.Client()}); err == nil {
		t.Fatal("expected error for empty download")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("empty download installed an artifact: %v", err)
	}
}

func TestEnsureDriveAPI(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if !strings.Contains(r.URL.Path, "abc123") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("drive-bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "model.onnx")
	opts := Options{
		GoogleAPIKey: "test-key",
		DriveOptions: []option.ClientOption{
			option.WithEndpoint(srv.URL + "/"),
			option.WithHTTPClient(srv.Client()),
		},
	}
	downloaded, err := Ensure(context.Background(), dest, "https://drive.google.com/file/d/abc123/view", opts)
	if err != nil || !downloaded {
		t.Fatalf("Ensure = %v, %v (path %s)", downloaded, err, gotPath)
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "drive-bytes" {
		t.Errorf("artifact = %q", data)
	}
}
