// Package relay uploads fetched media back to the requester and guarantees
// the temporary file is deleted whatever the upload outcome.
package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/clipferry/clipferry/internal/domain"
)

// Origin identifies the message a delivery replies to.
type Origin struct {
	ChatID    int64
	MessageID int
}

// Sender performs the platform upload calls. Implemented by the Telegram
// adapter in the bot package; tests substitute fakes.
type Sender interface {
	// SendVideo uploads path as a video reply.
	SendVideo(ctx context.Context, origin Origin, path string) error

	// SendDocument uploads path as a document reply.
	SendDocument(ctx context.Context, origin Origin, path string) error
}

// Relay delivers fetch results as replies.
type Relay struct {
	sender Sender
	logger *slog.Logger
}

// New creates a Relay on top of a platform sender.
func New(sender Sender, logger *slog.Logger) *Relay {
	return &Relay{
		sender: sender,
		logger: logger,
	}
}

// Deliver uploads result as a reply to origin. The video upload is tried
// first; if the platform rejects it, the same file is retried as a
// document. A terminal failure is reported as a DeliveryError. The temp
// file is discarded on every exit path, including panics during upload.
func (r *Relay) Deliver(ctx context.Context, origin Origin, result *domain.FetchResult) error {
	defer func() {
		if err := result.Discard(); err != nil {
			r.logger.Warn("failed to remove temp file",
				"path", result.Path,
				"error", err,
			)
		}
	}()

	videoErr := r.sender.SendVideo(ctx, origin, result.Path)
	if videoErr == nil {
		r.logger.Info("delivered as video",
			"url", result.Source.Raw,
			"chat_id", origin.ChatID,
			"size", result.Size,
		)
		return nil
	}

	// Some files the platform refuses as "video" still go through as a
	// plain document.
	r.logger.Warn("video upload rejected, retrying as document",
		"url", result.Source.Raw,
		"error", videoErr,
	)

	if docErr := r.sender.SendDocument(ctx, origin, result.Path); docErr != nil {
		return &domain.DeliveryError{
			URL:   result.Source.Raw,
			Cause: fmt.Errorf("video: %v; document: %w", videoErr, docErr),
		}
	}

	r.logger.Info("delivered as document",
		"url", result.Source.Raw,
		"chat_id", origin.ChatID,
		"size", result.Size,
	)
	return nil
}
