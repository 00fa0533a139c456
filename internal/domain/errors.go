package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. The typed errors below wrap or match these so callers
// can test a failure class with errors.Is without holding the concrete type.
var (
	// ErrUnsupportedURL is returned when a URL's kind is not fetchable.
	ErrUnsupportedURL = errors.New("unsupported url")

	// ErrDownloadFailed is returned when a direct download fails.
	ErrDownloadFailed = errors.New("download failed")

	// ErrFileTooLarge is returned when a download exceeds the size limit.
	ErrFileTooLarge = errors.New("file exceeds size limit")

	// ErrExtractionFailed is returned when the extraction tool fails.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrDeliveryFailed is returned when the platform rejects the upload.
	ErrDeliveryFailed = errors.New("delivery failed")

	// ErrInlineUnsupported is returned when an inline query asks for a URL
	// that only the extraction tool could resolve.
	ErrInlineUnsupported = errors.New("extraction not available in inline context")
)

// UnsupportedURLError reports a URL the dispatcher cannot fetch.
type UnsupportedURLError struct {
	URL string
}

func (e *UnsupportedURLError) Error() string {
	return fmt.Sprintf("unsupported url %q", e.URL)
}

func (e *UnsupportedURLError) Unwrap() error { return ErrUnsupportedURL }

// DownloadError reports a failed direct-media download.
type DownloadError struct {
	URL   string
	Cause error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %q: %v", e.URL, e.Cause)
}

func (e *DownloadError) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, ErrDownloadFailed) match any DownloadError.
func (e *DownloadError) Is(target error) bool { return target == ErrDownloadFailed }

// ExtractionError reports a failed extraction-tool invocation. Output holds
// the tool's captured diagnostic text, if any.
type ExtractionError struct {
	URL    string
	Output string
	Cause  error
}

func (e *ExtractionError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("extract %q: %v: %s", e.URL, e.Cause, e.Output)
	}
	return fmt.Sprintf("extract %q: %v", e.URL, e.Cause)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtractionFailed }

// DeliveryError reports a failed upload to the platform.
type DeliveryError struct {
	URL   string
	Cause error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %q: %v", e.URL, e.Cause)
}

func (e *DeliveryError) Unwrap() error { return e.Cause }

func (e *DeliveryError) Is(target error) bool { return target == ErrDeliveryFailed }

// InlineUnsupportedError reports an extractable URL requested from an
// inline query, where the extraction-tool path is not available.
type InlineUnsupportedError struct {
	URL string
}

func (e *InlineUnsupportedError) Error() string {
	return fmt.Sprintf("inline query cannot extract %q", e.URL)
}

func (e *InlineUnsupportedError) Unwrap() error { return ErrInlineUnsupported }
