package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/clipferry/clipferry/internal/allowlist"
	"github.com/clipferry/clipferry/internal/classify"
	"github.com/clipferry/clipferry/internal/domain"
	"github.com/clipferry/clipferry/internal/fetch"
	"github.com/clipferry/clipferry/internal/relay"
	"github.com/clipferry/clipferry/internal/stats"
	"github.com/clipferry/clipferry/internal/worker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(tgbotapi.UpdatesChannel)
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) sentMessages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeAPI) inlineAnswers() []tgbotapi.InlineConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.InlineConfig
	for _, c := range f.requests {
		if ic, ok := c.(tgbotapi.InlineConfig); ok {
			out = append(out, ic)
		}
	}
	return out
}

type fakeFetcher struct {
	mu      sync.Mutex
	t       *testing.T
	failOn  map[string]error
	fetched []domain.ClassifiedURL
	probes  []string
	probeOK bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, u domain.ClassifiedURL) (*domain.FetchResult, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, u)
	err := f.failOn[u.Raw]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	dir, merr := os.MkdirTemp(f.t.TempDir(), "fetch-")
	if merr != nil {
		f.t.Fatalf("mkdtemp: %v", merr)
	}
	path := filepath.Join(dir, "clip.mp4")
	if werr := os.WriteFile(path, []byte("video"), 0o644); werr != nil {
		f.t.Fatalf("write: %v", werr)
	}
	return domain.NewFetchResult(u, path, 5, dir), nil
}

func (f *fakeFetcher) Probe(ctx context.Context, url string) (*fetch.ProbeResult, error) {
	f.mu.Lock()
	f.probes = append(f.probes, url)
	f.mu.Unlock()
	if !f.probeOK {
		return &fetch.ProbeResult{Accessible: false, Error: "status code 404"}, nil
	}
	return &fetch.ProbeResult{Accessible: true, ContentType: "video/mp4"}, nil
}

func (f *fakeFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

type fakeRelayer struct {
	mu        sync.Mutex
	delivered []relay.Origin
	err       error
}

func (f *fakeRelayer) Deliver(ctx context.Context, origin relay.Origin, result *domain.FetchResult) error {
	defer result.Discard()
	f.mu.Lock()
	f.delivered = append(f.delivered, origin)
	f.mu.Unlock()
	return f.err
}

func (f *fakeRelayer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.delivered)
}

type fixture struct {
	bot     *Bot
	api     *fakeAPI
	fetcher *fakeFetcher
	relayer *fakeRelayer
	stats   *stats.Stats
	pool    *worker.Pool
}

func newFixture(t *testing.T, allowed []int64) *fixture {
	t.Helper()
	api := &fakeAPI{}
	fetcher := &fakeFetcher{t: t, probeOK: true, failOn: map[string]error{}}
	relayer := &fakeRelayer{}
	st := stats.New()
	pool := worker.NewPool(worker.Config{Workers: 1, QueueSize: 4}, testLogger())

	b := New(
		api,
		allowlist.New(allowed),
		classify.New(nil),
		fetcher,
		relayer,
		pool,
		st,
		testLogger(),
		Config{UpdateTimeout: 30, MaxSizeMB: 50},
	)
	return &fixture{bot: b, api: api, fetcher: fetcher, relayer: relayer, stats: st, pool: pool}
}

func message(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 7,
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}
}

func TestBot_DisallowedChatDropsEvent(t *testing.T) {
	fx := newFixture(t, []int64{100})

	fx.bot.handleMessage(context.Background(), message(999, "https://www.youtube.com/watch?v=abc123"))

	if fx.fetcher.fetchCount() != 0 {
		t.Error("fetch attempted for disallowed chat")
	}
	if fx.relayer.count() != 0 {
		t.Error("relay attempted for disallowed chat")
	}
	if msgs := fx.api.sentMessages(); len(msgs) != 0 {
		t.Errorf("rejection must be silent, got %d replies", len(msgs))
	}
	if fx.stats.Snapshot().Rejected != 1 {
		t.Error("Rejected counter not incremented")
	}
}

func TestBot_DirectMediaMessage(t *testing.T) {
	fx := newFixture(t, []int64{100})

	fx.bot.handleMessage(context.Background(), message(100, "check this https://example.com/video.mp4 out"))

	if got := fx.fetcher.fetchCount(); got != 1 {
		t.Fatalf("fetch calls = %d, want 1", got)
	}
	if fx.fetcher.fetched[0].Kind != domain.KindDirectMedia {
		t.Errorf("fetched kind = %v, want DirectMedia", fx.fetcher.fetched[0].Kind)
	}
	if fx.relayer.count() != 1 {
		t.Errorf("deliveries = %d, want 1", fx.relayer.count())
	}
	if fx.relayer.delivered[0] != (relay.Origin{ChatID: 100, MessageID: 7}) {
		t.Errorf("origin = %+v", fx.relayer.delivered[0])
	}
	if fx.stats.Snapshot().Delivered != 1 {
		t.Error("Delivered counter not incremented")
	}
}

func TestBot_CaptionScannedWhenTextEmpty(t *testing.T) {
	fx := newFixture(t, []int64{100})

	msg := message(100, "")
	msg.Caption = "https://example.com/video.mp4"
	fx.bot.handleMessage(context.Background(), msg)

	if fx.fetcher.fetchCount() != 1 {
		t.Error("caption URLs should be processed")
	}
}

func TestBot_SiblingURLsSurviveFailure(t *testing.T) {
	fx := newFixture(t, []int64{100})
	bad := "https://vimeo.com/123"
	good := "https://youtu.be/ok"
	fx.fetcher.failOn[bad] = &domain.ExtractionError{
		URL:    bad,
		Output: "ERROR: blocked",
		Cause:  errors.New("exit status 1"),
	}

	fx.bot.handleMessage(context.Background(), message(100, bad+" and "+good))

	if got := fx.fetcher.fetchCount(); got != 2 {
		t.Fatalf("fetch calls = %d, want 2 (sibling must still run)", got)
	}
	if fx.relayer.count() != 1 {
		t.Errorf("deliveries = %d, want 1", fx.relayer.count())
	}

	snap := fx.stats.Snapshot()
	if snap.ExtractionErrors != 1 {
		t.Errorf("ExtractionErrors = %d, want 1", snap.ExtractionErrors)
	}
	if snap.Delivered != 1 {
		t.Errorf("Delivered = %d, want 1", snap.Delivered)
	}

	var noticed bool
	for _, m := range fx.api.sentMessages() {
		if strings.Contains(m.Text, "Couldn't download") {
			noticed = true
		}
	}
	if !noticed {
		t.Error("no failure notice sent for the failing URL")
	}
}

func TestBot_UnsupportedURLsNotDispatched(t *testing.T) {
	fx := newFixture(t, []int64{100})

	fx.bot.handleMessage(context.Background(), message(100, "see https://example.org/page.html"))

	if fx.fetcher.fetchCount() != 0 {
		t.Error("unsupported URL must not reach the dispatcher")
	}
	if fx.stats.Snapshot().Unsupported != 1 {
		t.Error("Unsupported counter not incremented")
	}
}

func TestBot_TooLargeNoticeIncludesLimit(t *testing.T) {
	fx := newFixture(t, []int64{100})
	u := "https://example.com/big.mp4"
	fx.fetcher.failOn[u] = &domain.DownloadError{URL: u, Cause: domain.ErrFileTooLarge}

	fx.bot.handleMessage(context.Background(), message(100, u))

	msgs := fx.api.sentMessages()
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "50 MB") {
		t.Errorf("want a too-large notice naming the 50 MB limit, got %v", msgs)
	}
}

func inlineQuery(userID int64, query string) *tgbotapi.InlineQuery {
	return &tgbotapi.InlineQuery{
		ID:    "iq1",
		From:  &tgbotapi.User{ID: userID},
		Query: query,
	}
}

func TestBot_InlineExtractableNotFetched(t *testing.T) {
	fx := newFixture(t, []int64{100})

	fx.bot.handleInline(context.Background(), inlineQuery(100, "https://www.youtube.com/watch?v=abc123"))

	if fx.fetcher.fetchCount() != 0 {
		t.Error("inline extractable must not invoke the extraction tool")
	}

	answers := fx.api.inlineAnswers()
	if len(answers) != 1 {
		t.Fatalf("inline answers = %d, want 1", len(answers))
	}
	if len(answers[0].Results) != 1 {
		t.Fatalf("results = %d, want 1", len(answers[0].Results))
	}
	if _, ok := answers[0].Results[0].(tgbotapi.InlineQueryResultArticle); !ok {
		t.Errorf("result type = %T, want article notice", answers[0].Results[0])
	}
	if fx.stats.Snapshot().InlineUnsupported != 1 {
		t.Error("InlineUnsupported counter not incremented")
	}
}

func TestBot_InlineDirectMediaAnswered(t *testing.T) {
	fx := newFixture(t, []int64{100})

	fx.bot.handleInline(context.Background(), inlineQuery(100, "https://example.com/clip.mp4"))

	if len(fx.fetcher.probes) != 1 {
		t.Fatalf("probes = %d, want 1", len(fx.fetcher.probes))
	}
	answers := fx.api.inlineAnswers()
	if len(answers) != 1 || len(answers[0].Results) != 1 {
		t.Fatal("want one inline answer with one result")
	}
	video, ok := answers[0].Results[0].(tgbotapi.InlineQueryResultVideo)
	if !ok {
		t.Fatalf("result type = %T, want video", answers[0].Results[0])
	}
	if video.URL != "https://example.com/clip.mp4" {
		t.Errorf("video URL = %q", video.URL)
	}
}

func TestBot_InlineDeadProbeSkipped(t *testing.T) {
	fx := newFixture(t, []int64{100})
	fx.fetcher.probeOK = false

	fx.bot.handleInline(context.Background(), inlineQuery(100, "https://example.com/clip.mp4"))

	if len(fx.api.inlineAnswers()) != 0 {
		t.Error("dead direct link should produce no inline answer")
	}
	if fx.stats.Snapshot().DownloadErrors != 1 {
		t.Error("probe failure should count as a download error")
	}
}

func TestBot_InlineDisallowedSilent(t *testing.T) {
	fx := newFixture(t, []int64{100})

	fx.bot.handleInline(context.Background(), inlineQuery(999, "https://example.com/clip.mp4"))

	if len(fx.api.inlineAnswers()) != 0 || len(fx.api.sentMessages()) != 0 {
		t.Error("disallowed inline query must be dropped silently")
	}
	if fx.stats.Snapshot().Rejected != 1 {
		t.Error("Rejected counter not incremented")
	}
}

func TestBot_DispatchRunsPipelineOnPool(t *testing.T) {
	fx := newFixture(t, []int64{100})
	fx.pool.Start()
	defer fx.pool.Stop(time.Second)

	fx.bot.dispatch(tgbotapi.Update{Message: message(100, "https://example.com/a.mp4")})

	deadline := time.After(2 * time.Second)
	for fx.relayer.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("pipeline did not run on the worker pool")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if fx.stats.Snapshot().Events != 1 {
		t.Error("Events counter not incremented")
	}
}
