// Package classify scans free-form message text for URLs and decides how
// each one can be fetched: directly (the path names a video file), through
// the extraction tool (a supported site), or not at all.
package classify

import (
	"iter"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/clipferry/clipferry/internal/domain"
)

// urlPattern matches URL-shaped substrings the way the platform highlights
// them: scheme up to the next whitespace.
var urlPattern = regexp.MustCompile(`(?i)https?://[^\s]+`)

// videoExts are path extensions treated as directly fetchable media.
var videoExts = map[string]struct{}{
	".mp4":  {},
	".webm": {},
	".mov":  {},
	".mkv":  {},
	".m4v":  {},
}

// defaultDomains are sites the extraction tool knows how to resolve.
var defaultDomains = []string{
	// YouTube
	"youtube.com", "m.youtube.com", "youtu.be", "youtube-nocookie.com",
	// TikTok
	"tiktok.com", "vm.tiktok.com",
	// Instagram
	"instagram.com", "cdninstagram.com",
	// X / Twitter
	"x.com", "twitter.com", "fxtwitter.com", "vxtwitter.com", "video.twimg.com",
	// Facebook
	"facebook.com", "m.facebook.com", "fb.watch",
	// Vimeo
	"vimeo.com", "player.vimeo.com",
	// Twitch
	"twitch.tv", "clips.twitch.tv",
	// Reddit
	"reddit.com", "v.redd.it",
	// Streamable
	"streamable.com",
	// Dailymotion
	"dailymotion.com", "dai.ly",
	"drive.google.com",
}

// Classifier assigns a fetch kind to every URL found in a text. Kind
// assignment is a pure function of the URL's path extension and hostname,
// so classifying the same text twice yields identical results.
type Classifier struct {
	domains []string
}

// New creates a Classifier supporting the built-in domain set plus any
// extra domains from configuration.
func New(extraDomains []string) *Classifier {
	domains := make([]string, 0, len(defaultDomains)+len(extraDomains))
	domains = append(domains, defaultDomains...)
	for _, d := range extraDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			domains = append(domains, d)
		}
	}
	return &Classifier{domains: domains}
}

// Classify returns a lazy, restartable sequence of classified URLs in
// first-match order. Duplicates are preserved; malformed URLs yield
// KindUnsupported rather than an error.
func (c *Classifier) Classify(text string) iter.Seq[domain.ClassifiedURL] {
	return func(yield func(domain.ClassifiedURL) bool) {
		for _, raw := range urlPattern.FindAllString(text, -1) {
			if !yield(c.classifyOne(raw)) {
				return
			}
		}
	}
}

// All collects the classification of every URL in text into a slice.
func (c *Classifier) All(text string) []domain.ClassifiedURL {
	var out []domain.ClassifiedURL
	for u := range c.Classify(text) {
		out = append(out, u)
	}
	return out
}

func (c *Classifier) classifyOne(raw string) domain.ClassifiedURL {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return domain.ClassifiedURL{Raw: raw, Kind: domain.KindUnsupported}
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if _, ok := videoExts[ext]; ok {
		return domain.ClassifiedURL{Raw: raw, Parsed: u, Kind: domain.KindDirectMedia}
	}

	if c.hostSupported(u.Hostname()) {
		return domain.ClassifiedURL{Raw: raw, Parsed: u, Kind: domain.KindExtractable}
	}

	return domain.ClassifiedURL{Raw: raw, Parsed: u, Kind: domain.KindUnsupported}
}

// hostSupported reports whether host equals or is a subdomain of a
// supported domain.
func (c *Classifier) hostSupported(host string) bool {
	host = strings.ToLower(host)
	for _, d := range c.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
