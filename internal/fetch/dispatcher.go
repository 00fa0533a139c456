// Package fetch turns classified URLs into local temporary files, either
// by streaming a direct media link or by driving the external extraction
// tool. It performs no retries; callers decide what to do with failures.
package fetch

import (
	"context"
	"log/slog"

	"github.com/clipferry/clipferry/internal/config"
	"github.com/clipferry/clipferry/internal/domain"
)

// Dispatcher routes a classified URL to the matching fetch strategy.
type Dispatcher struct {
	direct *DirectDownloader
	ytdlp  *YTDLP
}

// NewDispatcher creates a dispatcher with both fetch strategies configured.
func NewDispatcher(dcfg config.Download, ecfg config.Extract, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		direct: NewDirectDownloader(dcfg, logger),
		ytdlp:  NewYTDLP(ecfg, dcfg.TempDir, logger),
	}
}

// Fetch downloads the media behind u into a fresh private temp directory.
// The caller owns the returned result and must call Discard on it.
func (d *Dispatcher) Fetch(ctx context.Context, u domain.ClassifiedURL) (*domain.FetchResult, error) {
	switch u.Kind {
	case domain.KindDirectMedia:
		return d.direct.Download(ctx, u)
	case domain.KindExtractable:
		return d.ytdlp.Extract(ctx, u)
	default:
		return nil, &domain.UnsupportedURLError{URL: u.Raw}
	}
}

// Probe checks a direct URL's accessibility without downloading it.
func (d *Dispatcher) Probe(ctx context.Context, url string) (*ProbeResult, error) {
	return d.direct.Probe(ctx, url)
}
