package webfetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sentry-hq/conduit/pkg/comm"
	"sentry-hq/conduit/pkg/connectors"
)

// DefaultChunkSize is the copy buffer size for downloads.
const DefaultChunkSize = 8192

// DownloadResult is the outcome of a download operation.
type DownloadResult struct {
	URL         string `json:"url"`
	Path        string `json:"path"`
	StatusCode  int    `json:"status_code"`
	BytesCopied int64  `json:"bytes_copied"`
	ContentType string `json:"content_type"`
}

func (f *Fetcher) download(ctx context.Context, params map[string]any) (*DownloadResult, error) {
	rawURL := comm.StringParam(params, "url")
	if rawURL == "" {
		return nil, connectors.NewMissingParamError(f.Kind(), "url")
	}
	destination := comm.StringParam(params, "destination")
	chunkSize := comm.IntParam(params, "chunk_size", DefaultChunkSize)
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	resp, err := f.cfg.Client.Get(ctx, rawURL)
	if err != nil {
		return nil, connectors.NewExecutionError(f.Kind(), OpDownload, err)
	}
	defer resp.Body.Close()

	if resp.ContentLength > f.cfg.MaxResponseBytes {
		return nil, connectors.NewResponseTooLargeError(f.Kind(), f.cfg.MaxResponseBytes)
	}

	var out *os.File
	if destination != "" {
		if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
			return nil, connectors.NewExecutionError(f.Kind(), OpDownload, err)
		}
		out, err = os.Create(destination)
	} else {
		out, err = os.CreateTemp("", "conduit-download-*")
	}
	if err != nil {
		return nil, connectors.NewExecutionError(f.Kind(), OpDownload, err)
	}
	path := out.Name()

	copied, err := copyBounded(ctx, out, resp.Body, int64(chunkSize), f.cfg.MaxResponseBytes)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		// A failed or cancelled download never leaves a partial artifact.
		os.Remove(path)
		if err == errTooLarge {
			return nil, connectors.NewResponseTooLargeError(f.Kind(), f.cfg.MaxResponseBytes)
		}
		return nil, connectors.NewExecutionError(f.Kind(), OpDownload, err)
	}

	return &DownloadResult{
		URL:         rawURL,
		Path:        path,
		StatusCode:  resp.StatusCode,
		BytesCopied: copied,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// copyBounded streams src to dst in chunkSize reads, checking the context
// between chunks and failing once the running total passes limit.
func copyBounded(ctx context.Context, dst io.Writer, src io.Reader, chunkSize, limit int64) (int64, error) {
	buf := make([]byte, chunkSize)
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, fmt.Errorf("download cancelled: %w", err)
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			total += int64(n)
			if total > limit {
				return total, errTooLarge
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return total, err
			}
		}
		if readErr == io.EOF {
			return total, nil
		}
		if readErr != nil {
			return total, readErr
		}
	}
}
