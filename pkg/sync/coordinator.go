// Package sync orchestrates stream extraction: it wires the bookmark store,
// the pagination engine, and the parent/child dependency coordinator into one
// run per stream.
package sync

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bkuipers/sherpa-sync/pkg/soap"
	"github.com/bkuipers/sherpa-sync/pkg/streams"
)

// Coordinator derives child sync contexts from parent records and suppresses
// duplicate child fetches. The dedup set is owned by the instance and scoped
// to one sync run; create a fresh Coordinator per run.
type Coordinator struct {
	stream *streams.Descriptor
	seen   map[string]struct{}
	logger zerolog.Logger
}

// NewCoordinator creates a coordinator for one parent stream's run.
func NewCoordinator(stream *streams.Descriptor) *Coordinator {
	return &Coordinator{
		stream: stream,
		seen:   make(map[string]struct{}),
		logger: log.With().Str("component", "coordinator").Str("stream", stream.Name).Logger(),
	}
}

// DeriveContext projects a parent record into a child sync context, or nil
// when the record yields no child fetch: the stream has no child projection,
// the projected key is empty, or the key was already dispatched in this run.
// A non-nil return means the caller must dispatch exactly one child fetch.
func (c *Coordinator) DeriveContext(rec soap.Record) map[string]string {
	if c.stream.ChildContext == nil {
		return nil
	}

	childCtx := c.stream.ChildContext(rec)
	if childCtx == nil {
		return nil
	}

	key := contextKey(childCtx)
	if _, dup := c.seen[key]; dup {
		childSuppressed.WithLabelValues(c.stream.Name).Inc()
		c.logger.Debug().
			Str("context", key).
			Msg("Suppressing duplicate child fetch")
		return nil
	}

	c.seen[key] = struct{}{}
	childDispatched.WithLabelValues(c.stream.Name).Inc()
	return childCtx
}

// contextKey builds a deterministic dedup key from a sync context.
func contextKey(ctx map[string]string) string {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+ctx[k])
	}
	return strings.Join(parts, ":")
}
