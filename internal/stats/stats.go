// Package stats keeps in-memory counters for the ops endpoints. Nothing
// here is persisted; the numbers reset with the process.
package stats

import (
	"errors"
	"sync/atomic"

	"github.com/clipferry/clipferry/internal/domain"
)

// Stats tracks pipeline outcomes. All methods are safe for concurrent use.
type Stats struct {
	events            atomic.Int64
	rejected          atomic.Int64
	dropped           atomic.Int64
	delivered         atomic.Int64
	unsupported       atomic.Int64
	downloadErrors    atomic.Int64
	extractionErrors  atomic.Int64
	deliveryErrors    atomic.Int64
	inlineUnsupported atomic.Int64
}

// New creates a zeroed Stats.
func New() *Stats {
	return &Stats{}
}

// Event records an inbound event entering the pipeline.
func (s *Stats) Event() { s.events.Add(1) }

// Rejected records an event dropped by the allow-list.
func (s *Stats) Rejected() { s.rejected.Add(1) }

// Dropped records an event lost to a full worker queue.
func (s *Stats) Dropped() { s.dropped.Add(1) }

// Delivered records one successfully relayed file.
func (s *Stats) Delivered() { s.delivered.Add(1) }

// Unsupported records a URL skipped as unfetchable.
func (s *Stats) Unsupported() { s.unsupported.Add(1) }

// Failure records a pipeline error under the matching taxonomy bucket.
func (s *Stats) Failure(err error) {
	switch {
	case errors.Is(err, domain.ErrDownloadFailed):
		s.downloadErrors.Add(1)
	case errors.Is(err, domain.ErrExtractionFailed):
		s.extractionErrors.Add(1)
	case errors.Is(err, domain.ErrDeliveryFailed):
		s.deliveryErrors.Add(1)
	case errors.Is(err, domain.ErrInlineUnsupported):
		s.inlineUnsupported.Add(1)
	case errors.Is(err, domain.ErrUnsupportedURL):
		s.unsupported.Add(1)
	}
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Events            int64 `json:"events"`
	Rejected          int64 `json:"rejected"`
	Dropped           int64 `json:"dropped"`
	Delivered         int64 `json:"delivered"`
	Unsupported       int64 `json:"unsupported"`
	DownloadErrors    int64 `json:"download_errors"`
	ExtractionErrors  int64 `json:"extraction_errors"`
	DeliveryErrors    int64 `json:"delivery_errors"`
	InlineUnsupported int64 `json:"inline_unsupported"`
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Events:            s.events.Load(),
		Rejected:          s.rejected.Load(),
		Dropped:           s.dropped.Load(),
		Delivered:         s.delivered.Load(),
		Unsupported:       s.unsupported.Load(),
		DownloadErrors:    s.downloadErrors.Load(),
		ExtractionErrors:  s.extractionErrors.Load(),
		DeliveryErrors:    s.deliveryErrors.Load(),
		InlineUnsupported: s.inlineUnsupported.Load(),
	}
}
