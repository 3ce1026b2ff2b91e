// Package fetch downloads the model artifact on first start.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.uber.org/zap"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// ErrNoSource means the artifact is missing locally and nothing says where
// to get it.
var ErrNoSource = errors.New("model artifact missing and no download URL configured")

type Options struct {
	// GoogleAPIKey enables the Drive v3 API for Drive links.
	GoogleAPIKey string
	HTTPClient   *http.Client
	// DriveOptions are appended to the Drive client options.
	DriveOptions []option.ClientOption
	Logger       *zap.Logger
}

var driveFileID = regexp.MustCompile(`/file/d/([A-Za-z0-9_-]+)`)

// DriveFileID extracts the file id from the usual Google Drive share links.
func DriveFileID(source string) (string, bool) {
	u, err := url.Parse(source)
	if err != nil || (u.Host != "drive.google.com" && u.Host != "docs.google.com") {
		return "", false
	}
	if m := driveFileID.FindStringSubmatch(u.Path); m != nil {
		return m[1], true
	}
	if id := u.Query().Get("id"); id != "" {
		return id, true
	}
	return "", false
}

// Ensure makes sure dest exists, downloading it from source when it does not.
// It reports whether a download happened. Partial downloads never end up at
// dest.
func Ensure(ctx context.Context, dest, source string, opts Options) (bool, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if _, err := os.Stat(dest); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", dest, err)
	}
	if source == "" {
		return false, fmt.Errorf("%s: %w", dest, ErrNoSource)
	}

	body, err := open(ctx, source, opts)
	if err != nil {
		return false, err
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return false, fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return false, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	start := time.Now()
	n, err := io.Copy(tmp, body)
	if err != nil {
		tmp.Close()
		return false, fmt.Errorf("download model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("write model: %w", err)
	}
	if n == 0 {
		return false, errors.New("download model: empty response")
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return false, fmt.Errorf("install model: %w", err)
	}

	logger.Info("model artifact downloaded",
		zap.String("path", dest),
		zap.Int64("bytes", n),
		zap.Duration("took", time.Since(start)))
	return true, nil
}

func open(ctx context.Context, source string, opts Options) (io.ReadCloser, error) {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	id, isDrive := DriveFileID(source)
	switch {
	case isDrive && opts.GoogleAPIKey != "":
		return openDrive(ctx, id, opts)
	case isDrive:
		source = "https://drive.google.com/uc?export=download&confirm=t&id=" + url.QueryEscape(id)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download model: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download model: unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

func openDrive(ctx context.Context, id string, opts Options) (io.ReadCloser, error) {
	clientOpts := []option.ClientOption{option.WithAPIKey(opts.GoogleAPIKey)}
	clientOpts = append(clientOpts, opts.DriveOptions...)

	svc, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("drive client: %w", err)
	}
	resp, err := svc.Files.Get(id).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("drive download %s: %w", id, err)
	}
	return resp.Body, nil
}
