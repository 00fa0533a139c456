package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/clipferry/clipferry/internal/config"
	"github.com/clipferry/clipferry/internal/domain"
)

// DirectDownloader streams direct media links to temporary files.
type DirectDownloader struct {
	// client is used for short requests (Probe) with an overall timeout
	client *http.Client
	// streamClient is used for streaming downloads without overall timeout
	streamClient *http.Client
	cfg          config.Download
	logger       *slog.Logger
}

// NewDirectDownloader creates an HTTP downloader for direct media links.
func NewDirectDownloader(cfg config.Download, logger *slog.Logger) *DirectDownloader {
	// Transport for streaming downloads - no overall timeout, but header timeout
	streamTransport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	return &DirectDownloader{
		client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		streamClient: &http.Client{
			Transport: streamTransport,
		},
		cfg:    cfg,
		logger: logger,
	}
}

// Download streams u to a file in a fresh private temp directory, enforcing
// the configured size limit while writing. On any failure the temp
// directory is removed before returning.
func (d *DirectDownloader) Download(ctx context.Context, u domain.ClassifiedURL) (*domain.FetchResult, error) {
	dir, err := os.MkdirTemp(d.cfg.TempDir, "clipferry-"+uuid.New().String()[:8]+"-")
	if err != nil {
		return nil, &domain.DownloadError{URL: u.Raw, Cause: fmt.Errorf("create temp dir: %w", err)}
	}

	result, err := d.downloadTo(ctx, u, dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return result, nil
}

func (d *DirectDownloader) downloadTo(ctx context.Context, u domain.ClassifiedURL, dir string) (*domain.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.Raw, nil)
	if err != nil {
		return nil, &domain.DownloadError{URL: u.Raw, Cause: fmt.Errorf("create request: %w", err)}
	}

	// Headers mimic a browser request; some CDNs refuse bare clients.
	req.Header.Set("User-Agent", d.cfg.UserAgent)
	req.Header.Set("Accept", "video/mp4,video/*;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := d.streamClient.Do(req)
	if err != nil {
		return nil, &domain.DownloadError{URL: u.Raw, Cause: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.DownloadError{URL: u.Raw, Cause: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	limit := d.cfg.MaxSizeBytes()
	if resp.ContentLength > 0 && resp.ContentLength > limit {
		return nil, &domain.DownloadError{URL: u.Raw, Cause: domain.ErrFileTooLarge}
	}

	name := fileName(u)
	out := filepath.Join(dir, name)
	f, err := os.Create(out)
	if err != nil {
		return nil, &domain.DownloadError{URL: u.Raw, Cause: fmt.Errorf("create file: %w", err)}
	}

	// Copy one byte past the limit so an oversized body is detectable
	// even when Content-Length was absent or lied.
	written, err := io.Copy(f, io.LimitReader(resp.Body, limit+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, &domain.DownloadError{URL: u.Raw, Cause: fmt.Errorf("write body: %w", err)}
	}
	if written > limit {
		return nil, &domain.DownloadError{URL: u.Raw, Cause: domain.ErrFileTooLarge}
	}

	d.logger.Info("direct download complete",
		"url", u.Raw,
		"file", name,
		"size", written,
	)

	return domain.NewFetchResult(u, out, written, dir), nil
}

// ProbeResult contains information about a direct media URL.
type ProbeResult struct {
	ContentType   string
	ContentLength int64
	Accessible    bool
	Error         string
}

// Probe checks URL accessibility without downloading content.
func (d *DirectDownloader) Probe(ctx context.Context, url string) (*ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", d.cfg.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return &ProbeResult{
			Accessible: false,
			Error:      err.Error(),
		}, nil
	}
	defer resp.Body.Close()

	result := &ProbeResult{
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		Accessible:    resp.StatusCode == http.StatusOK,
	}
	if !result.Accessible {
		result.Error = fmt.Sprintf("status code %d", resp.StatusCode)
	}

	return result, nil
}

// fileName derives a local file name from the URL path, falling back to a
// generic name when the path has none.
func fileName(u domain.ClassifiedURL) string {
	if u.Parsed != nil {
		base := path.Base(u.Parsed.Path)
		if base != "" && base != "/" && base != "." {
			return base
		}
	}
	return "video.mp4"
}
