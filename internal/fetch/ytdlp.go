package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipferry/clipferry/internal/config"
	"github.com/clipferry/clipferry/internal/domain"
)

// YTDLP invokes the external extraction tool as a subprocess, writing its
// output into a fresh private temp directory per call.
type YTDLP struct {
	cfg     config.Extract
	tempDir string
	logger  *slog.Logger
}

// NewYTDLP creates an extraction-tool runner.
func NewYTDLP(cfg config.Extract, tempDir string, logger *slog.Logger) *YTDLP {
	return &YTDLP{
		cfg:     cfg,
		tempDir: tempDir,
		logger:  logger,
	}
}

// Extract runs the tool against u and returns the produced file. All
// non-zero exits are reported uniformly as an ExtractionError carrying the
// captured diagnostic text; the temp directory is removed on failure.
func (y *YTDLP) Extract(ctx context.Context, u domain.ClassifiedURL) (*domain.FetchResult, error) {
	dir, err := os.MkdirTemp(y.tempDir, "clipferry-"+uuid.New().String()[:8]+"-")
	if err != nil {
		return nil, &domain.ExtractionError{URL: u.Raw, Cause: fmt.Errorf("create temp dir: %w", err)}
	}

	result, err := y.extractTo(ctx, u, dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return result, nil
}

func (y *YTDLP) extractTo(ctx context.Context, u domain.ClassifiedURL, dir string) (*domain.FetchResult, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if y.cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, y.cfg.Timeout)
		defer cancel()
	}

	// Generic output name so the title never has to be guessed.
	outTpl := filepath.Join(dir, "media.%(ext)s")

	args := []string{
		"-f", y.cfg.Format,
		"--no-playlist",
		"-q", "--no-warnings", "--no-progress",
		"--merge-output-format", "mp4",
		"-o", outTpl,
	}
	if y.cfg.RestrictFilenames {
		args = append(args, "--restrict-filenames")
	}
	args = append(args, u.Raw)

	cmd := exec.CommandContext(runCtx, y.cfg.Path, args...)

	var stderr strings.Builder
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, &domain.ExtractionError{URL: u.Raw, Cause: runCtx.Err()}
		}
		return nil, &domain.ExtractionError{
			URL:    u.Raw,
			Output: strings.TrimSpace(stderr.String()),
			Cause:  err,
		}
	}

	path, size, err := singleOutputFile(dir)
	if err != nil {
		return nil, &domain.ExtractionError{URL: u.Raw, Cause: err}
	}

	y.logger.Info("extraction complete",
		"url", u.Raw,
		"file", filepath.Base(path),
		"size", size,
		"duration", time.Since(start),
	)

	return domain.NewFetchResult(u, path, size, dir), nil
}

// singleOutputFile finds the file the tool produced. The private temp dir
// holds at most the tool's output, so anything other than exactly one
// regular file means the extraction went wrong.
func singleOutputFile(dir string) (string, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, fmt.Errorf("read output dir: %w", err)
	}
	if len(entries) == 0 {
		return "", 0, fmt.Errorf("tool produced no output file")
	}
	if len(entries) > 1 {
		return "", 0, fmt.Errorf("tool produced %d files, want 1", len(entries))
	}
	e := entries[0]
	if e.IsDir() {
		return "", 0, fmt.Errorf("tool produced a directory %q instead of a file", e.Name())
	}

	info, err := e.Info()
	if err != nil {
		return "", 0, fmt.Errorf("stat output file: %w", err)
	}
	return filepath.Join(dir, e.Name()), info.Size(), nil
}
