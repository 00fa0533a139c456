// Package bot routes inbound Telegram events through the relay pipeline:
// allow-list check, URL classification, fetch, reply, cleanup.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/clipferry/clipferry/internal/allowlist"
	"github.com/clipferry/clipferry/internal/classify"
	"github.com/clipferry/clipferry/internal/domain"
	"github.com/clipferry/clipferry/internal/fetch"
	"github.com/clipferry/clipferry/internal/relay"
	"github.com/clipferry/clipferry/internal/stats"
	"github.com/clipferry/clipferry/internal/worker"
)

// Fetcher turns classified URLs into local files.
type Fetcher interface {
	Fetch(ctx context.Context, u domain.ClassifiedURL) (*domain.FetchResult, error)
	Probe(ctx context.Context, url string) (*fetch.ProbeResult, error)
}

// Relayer uploads fetch results as replies.
type Relayer interface {
	Deliver(ctx context.Context, origin relay.Origin, result *domain.FetchResult) error
}

// Config holds router behavior settings.
type Config struct {
	// UpdateTimeout is the long-poll timeout in seconds.
	UpdateTimeout int

	// MaxSizeMB is echoed in the too-large notice.
	MaxSizeMB int64
}

// Bot is the event router. Each qualifying update runs its pipeline on the
// worker pool, independently of other updates.
type Bot struct {
	api        API
	sender     *Sender
	allow      *allowlist.AllowList
	classifier *classify.Classifier
	fetcher    Fetcher
	relayer    Relayer
	pool       *worker.Pool
	stats      *stats.Stats
	logger     *slog.Logger
	cfg        Config
}

// New creates the event router.
func New(
	api API,
	allow *allowlist.AllowList,
	classifier *classify.Classifier,
	fetcher Fetcher,
	relayer Relayer,
	pool *worker.Pool,
	st *stats.Stats,
	logger *slog.Logger,
	cfg Config,
) *Bot {
	return &Bot{
		api:        api,
		sender:     NewSender(api),
		allow:      allow,
		classifier: classifier,
		fetcher:    fetcher,
		relayer:    relayer,
		pool:       pool,
		stats:      st,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run consumes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("bot started", "update_timeout", b.cfg.UpdateTimeout)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot stopping")
			return
		case update, ok := <-updates:
			if !ok {
				b.logger.Info("update channel closed")
				return
			}
			b.dispatch(update)
		}
	}
}

// dispatch hands a qualifying update to the worker pool. Updates carrying
// no scannable text are ignored outright.
func (b *Bot) dispatch(update tgbotapi.Update) {
	switch {
	case update.Message != nil && messageText(update.Message) != "":
		msg := update.Message
		b.stats.Event()
		if !b.pool.Submit(func(ctx context.Context) { b.handleMessage(ctx, msg) }) {
			b.stats.Dropped()
			b.logger.Warn("worker queue full, dropping message", "chat_id", msg.Chat.ID)
		}
	case update.InlineQuery != nil && update.InlineQuery.Query != "":
		q := update.InlineQuery
		b.stats.Event()
		if !b.pool.Submit(func(ctx context.Context) { b.handleInline(ctx, q) }) {
			b.stats.Dropped()
			b.logger.Warn("worker queue full, dropping inline query", "user_id", q.From.ID)
		}
	}
}

// handleMessage runs the full pipeline for one chat message. A failure for
// one URL never aborts processing of sibling URLs in the same text.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	logger := b.logger.With("event_id", "msg_"+uuid.New().String()[:8], "chat_id", msg.Chat.ID)

	if !b.allow.Allowed(msg.Chat.ID) {
		// Silent drop: nothing is surfaced to the sender.
		b.stats.Rejected()
		logger.Warn("rejected message from non-whitelisted chat")
		return
	}

	text := messageText(msg)
	origin := relay.Origin{ChatID: msg.Chat.ID, MessageID: msg.MessageID}

	actionSent := false
	for u := range b.classifier.Classify(text) {
		if !u.Kind.Fetchable() {
			b.stats.Unsupported()
			logger.Debug("skipping unsupported url", "url", u.Raw)
			continue
		}
		if !actionSent {
			b.sender.uploadAction(msg.Chat.ID)
			actionSent = true
		}
		b.relayOne(ctx, logger, origin, u)
	}
}

// relayOne fetches one URL and delivers the result, reporting failures to
// the chat without surfacing them further.
func (b *Bot) relayOne(ctx context.Context, logger *slog.Logger, origin relay.Origin, u domain.ClassifiedURL) {
	logger = logger.With("url", u.Raw, "kind", u.Kind.String())

	result, err := b.fetcher.Fetch(ctx, u)
	if err != nil {
		b.stats.Failure(err)
		logger.Warn("fetch failed", "error", err)
		b.sender.notify(origin.ChatID, origin.MessageID, failureNotice(err, b.cfg.MaxSizeMB))
		return
	}

	if err := b.relayer.Deliver(ctx, origin, result); err != nil {
		b.stats.Failure(err)
		logger.Warn("delivery failed", "error", err)
		b.sender.notify(origin.ChatID, origin.MessageID, failureNotice(err, b.cfg.MaxSizeMB))
		return
	}

	b.stats.Delivered()
	logger.Info("relayed", "size", result.Size)
}

// handleInline answers an inline query. Only direct media links can be
// served here; the extraction tool needs a direct chat.
func (b *Bot) handleInline(ctx context.Context, q *tgbotapi.InlineQuery) {
	logger := b.logger.With("event_id", "inline_"+uuid.New().String()[:8], "user_id", q.From.ID)

	if !b.allow.Allowed(q.From.ID) {
		// Silent per platform privacy norms: inline rejections get no answer.
		b.stats.Rejected()
		logger.Warn("rejected inline query from non-whitelisted user")
		return
	}

	var results []interface{}
	for u := range b.classifier.Classify(q.Query) {
		switch u.Kind {
		case domain.KindDirectMedia:
			probe, err := b.fetcher.Probe(ctx, u.Raw)
			if err != nil || !probe.Accessible {
				b.stats.Failure(&domain.DownloadError{URL: u.Raw, Cause: probeErr(probe, err)})
				logger.Warn("inline probe failed", "url", u.Raw)
				continue
			}
			video := tgbotapi.NewInlineQueryResultVideo(uuid.New().String(), u.Raw)
			video.MimeType = "video/mp4"
			video.ThumbURL = u.Raw
			video.Title = "Send video"
			results = append(results, video)
		case domain.KindExtractable:
			inlineErr := &domain.InlineUnsupportedError{URL: u.Raw}
			b.stats.Failure(inlineErr)
			logger.Info("extractable url in inline context", "url", u.Raw)
			article := tgbotapi.NewInlineQueryResultArticle(
				uuid.New().String(),
				"Link needs the download tool",
				"⚠️ This link can only be fetched in a direct chat with the bot.",
			)
			results = append(results, article)
		default:
			b.stats.Unsupported()
		}
	}

	if len(results) == 0 {
		return
	}

	if _, err := b.api.Request(tgbotapi.InlineConfig{
		InlineQueryID: q.ID,
		Results:       results,
		IsPersonal:    true,
	}); err != nil {
		logger.Warn("inline answer failed", "error", err)
	}
}

// messageText is the scannable text of a message: body first, caption as
// fallback, matching how the platform attaches links to media posts.
func messageText(msg *tgbotapi.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// failureNotice maps a pipeline error to the short reply shown in chat.
func failureNotice(err error, maxSizeMB int64) string {
	switch {
	case errors.Is(err, domain.ErrFileTooLarge):
		return fmt.Sprintf("⚠️ File is too large. Limit is %d MB.", maxSizeMB)
	case errors.Is(err, domain.ErrDeliveryFailed):
		return "❌ Upload failed. The file may be too large for Telegram."
	default:
		return "❌ Couldn't download this link. It may be unsupported or blocked."
	}
}

// probeErr normalizes a probe outcome into an error for the stats bucket.
func probeErr(probe *fetch.ProbeResult, err error) error {
	if err != nil {
		return err
	}
	if probe != nil && probe.Error != "" {
		return errors.New(probe.Error)
	}
	return errors.New("not accessible")
}
