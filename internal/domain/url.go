package domain

import "net/url"

// URLKind describes how a URL found in a message can be fetched.
type URLKind string

const (
	// KindDirectMedia is a URL whose path directly names a video file.
	KindDirectMedia URLKind = "direct_media"

	// KindExtractable is a URL on a supported site that requires the
	// external extraction tool to resolve the actual media stream.
	KindExtractable URLKind = "extractable"

	// KindUnsupported is any other URL, including ones that fail to parse.
	KindUnsupported URLKind = "unsupported"
)

// String returns the string representation of the URLKind.
func (k URLKind) String() string {
	return string(k)
}

// Fetchable reports whether the dispatcher can do anything with this kind.
func (k URLKind) Fetchable() bool {
	return k == KindDirectMedia || k == KindExtractable
}

// ClassifiedURL is a URL-shaped substring found in message text, together
// with its parsed form and fetch classification.
type ClassifiedURL struct {
	// Raw is the exact substring matched in the text.
	Raw string

	// Parsed is the normalized URL. Nil only when Kind is KindUnsupported
	// because parsing failed.
	Parsed *url.URL

	Kind URLKind
}
