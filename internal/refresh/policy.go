// Package refresh decides when a synchronized collection is stale.
package refresh

import (
	"fmt"
	"sync"
	"time"

	"github.com/bassista/go_catalog/internal/failure"
)

// Span selects how long a refresh stays valid.
type Span int

const (
	SpanShort Span = iota
	SpanLong
)

func (s Span) String() string {
	switch s {
	case SpanShort:
		return "short"
	case SpanLong:
		return "long"
	}
	return fmt.Sprintf("Span(%d)", int(s))
}

// ParseSpan accepts "short" or "long".
func ParseSpan(s string) (Span, error) {
	switch s {
	case "short":
		return SpanShort, nil
	case "long":
		return SpanLong, nil
	}
	return 0, fmt.Errorf("unknown refresh span %q", s)
}

const (
	DefaultShort = time.Hour
	DefaultLong  = 24 * time.Hour
)

// Spans maps Span values to durations. It can be updated while policies use it.
type Spans struct {
	mu    sync.RWMutex
	short time.Duration
	long  time.Duration
}

func NewSpans(short, long time.Duration) *Spans {
	s := &Spans{}
	s.Set(short, long)
	return s
}

// Set replaces both durations. Non-positive values fall back to the defaults.
func (s *Spans) Set(short, long time.Duration) {
	if short <= 0 {
		short = DefaultShort
	}
	if long <= 0 {
		long = DefaultLong
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.short, s.long = short, long
}

func (s *Spans) Duration(span Span) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if span == SpanShort {
		return s.short
	}
	return s.long
}

// TimestampStore persists last-refreshed times by key.
type TimestampStore interface {
	LastRefreshed(key string) (time.Time, bool, error)
	SetLastRefreshed(key string, at time.Time) error
}

// Policy tracks the staleness of one collection identified by key.
type Policy struct {
	key   string
	span  Span
	spans *Spans
	store TimestampStore
	now   func() time.Time
}

func NewPolicy(key string, span Span, spans *Spans, store TimestampStore) *Policy {
	if spans == nil {
		spans = NewSpans(DefaultShort, DefaultLong)
	}
	return &Policy{key: key, span: span, spans: spans, store: store, now: time.Now}
}

// WithClock replaces the time source.
func (p *Policy) WithClock(now func() time.Time) *Policy {
	p.now = now
	return p
}

func (p *Policy) Key() string { return p.key }

// ShouldRefresh is true when no refresh was recorded, when the record cannot be
// read, or when more than the span has elapsed since it.
func (p *Policy) ShouldRefresh() bool {
	last, ok, err := p.store.LastRefreshed(p.key)
	if err != nil {
		failure.Load("refresh:"+p.key, err).Log()
		return true
	}
	if !ok {
		return true
	}
	return p.now().Sub(last) > p.spans.Duration(p.span)
}

// LastRefreshed returns the recorded refresh time, if any.
func (p *Policy) LastRefreshed() (time.Time, bool) {
	last, ok, err := p.store.LastRefreshed(p.key)
	if err != nil {
		return time.Time{}, false
	}
	return last, ok
}

// MarkRefreshed records the current time as the last refresh.
func (p *Policy) MarkRefreshed() error {
	return p.store.SetLastRefreshed(p.key, p.now().UTC())
}
