package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bkuipers/sherpa-sync/pkg/pagination"
	"github.com/bkuipers/sherpa-sync/pkg/soap"
	"github.com/bkuipers/sherpa-sync/pkg/state"
	"github.com/bkuipers/sherpa-sync/pkg/streams"
)

// BookmarkStore is the incremental state the runner reads and commits.
// The redis-backed state.Store implements it.
type BookmarkStore interface {
	GetStartToken(ctx context.Context, stream string) (string, error)
	CommitToken(ctx context.Context, stream, token string) error
}

// Emitter consumes extracted records. Implementations own delivery; the
// runner hands over each record exactly once, in stream order.
type Emitter interface {
	Emit(stream string, record soap.Record) error
}

// Config holds the runner configuration.
type Config struct {
	// SecurityCode is the Sherpa service credential.
	SecurityCode string

	// ChunkSize is the page size for paginated operations. Zero means 200.
	ChunkSize int

	// WarehouseGroupCode parameterizes the warehouse-group stock stream.
	WarehouseGroupCode string

	// Streams selects the top-level streams to sync, by name. Empty selects
	// every top-level stream in catalog order. Child streams are never
	// selected directly; they run off their parent's records.
	Streams []string
}

// Runner drives a full extraction: one sync per selected top-level stream,
// with child streams dispatched inline from parent records.
type Runner struct {
	client  *soap.Client
	store   BookmarkStore
	emitter Emitter
	config  Config
	logger  zerolog.Logger
}

// NewRunner creates a runner.
func NewRunner(client *soap.Client, store BookmarkStore, emitter Emitter, cfg Config) (*Runner, error) {
	if client == nil {
		return nil, fmt.Errorf("soap client is required")
	}
	if store == nil {
		return nil, fmt.Errorf("bookmark store is required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("emitter is required")
	}
	if cfg.SecurityCode == "" {
		return nil, fmt.Errorf("security code is required")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 200
	}

	return &Runner{
		client:  client,
		store:   store,
		emitter: emitter,
		config:  cfg,
		logger:  log.With().Str("component", "sync").Logger(),
	}, nil
}

// SyncAll runs every selected top-level stream. A failed stream aborts only
// its own extraction; the remaining streams still run, and the joined errors
// are returned at the end.
func (r *Runner) SyncAll(ctx context.Context) error {
	selected, err := r.selectedStreams()
	if err != nil {
		return err
	}

	var errs []error
	for _, desc := range selected {
		if err := r.SyncStream(ctx, desc); err != nil {
			r.logger.Error().
				Err(err).
				Str("stream", desc.Name).
				Msg("Stream sync failed")
			errs = append(errs, fmt.Errorf("stream %s: %w", desc.Name, err))
		}
	}

	return errors.Join(errs...)
}

// SyncStream runs one top-level stream to exhaustion and commits its bookmark.
// The bookmark is committed only after the full run succeeds; any failure
// leaves the previous bookmark intact.
func (r *Runner) SyncStream(ctx context.Context, desc *streams.Descriptor) error {
	startTime := time.Now()
	defer func() {
		syncDuration.WithLabelValues(desc.Name).Observe(time.Since(startTime).Seconds())
	}()

	startToken := state.DefaultToken
	if desc.HasBookmark() {
		token, err := r.store.GetStartToken(ctx, desc.Name)
		if err != nil {
			streamSyncs.WithLabelValues(desc.Name, "failure").Inc()
			return fmt.Errorf("get start token: %w", err)
		}
		startToken = token
	}

	r.logger.Info().
		Str("stream", desc.Name).
		Str("start_token", startToken).
		Msg("Starting stream sync")

	finalToken, err := r.runStream(ctx, desc, startToken, nil)
	if err != nil {
		streamSyncs.WithLabelValues(desc.Name, "failure").Inc()
		return err
	}

	if desc.HasBookmark() && finalToken != "" {
		if err := r.store.CommitToken(ctx, desc.Name, finalToken); err != nil {
			streamSyncs.WithLabelValues(desc.Name, "failure").Inc()
			return fmt.Errorf("commit token: %w", err)
		}
	}

	streamSyncs.WithLabelValues(desc.Name, "success").Inc()
	r.logger.Info().
		Str("stream", desc.Name).
		Str("final_token", finalToken).
		Dur("duration", time.Since(startTime)).
		Msg("Stream sync complete")

	return nil
}

// runStream walks one stream to exhaustion, emitting records and dispatching
// child fetches inline, one parent record at a time. It returns the final
// token of the run.
func (r *Runner) runStream(ctx context.Context, desc *streams.Descriptor, startToken string, childCtx map[string]string) (string, error) {
	engine := pagination.New(&pageFetcher{
		client:   r.client,
		desc:     desc,
		config:   r.config,
		childCtx: childCtx,
	}, pagination.Config{
		PageSize: r.pageSize(desc),
		Paginate: desc.Paginate,
	})

	children := streams.ChildrenOf(desc.Name)
	var coord *Coordinator
	if desc.ChildContext != nil {
		coord = NewCoordinator(desc)
	}

	it := engine.Run(ctx, startToken)
	for {
		rec, ok := it.Next()
		if !ok {
			break
		}

		// Filtered records never reach emission or the child stage.
		if desc.Filter != nil && !desc.Filter(rec) {
			continue
		}

		if err := r.emitter.Emit(desc.Name, rec); err != nil {
			return "", fmt.Errorf("emit record: %w", err)
		}
		recordsEmitted.WithLabelValues(desc.Name).Inc()

		if coord == nil {
			continue
		}

		// Child fetches interleave with parent pagination: a record's child
		// runs before the next parent record is pulled.
		cctx := coord.DeriveContext(rec)
		if cctx == nil {
			continue
		}
		for _, child := range children {
			if _, err := r.runStream(ctx, child, state.DefaultToken, cctx); err != nil {
				return "", fmt.Errorf("child stream %s: %w", child.Name, err)
			}
		}
	}

	if err := it.Err(); err != nil {
		return "", err
	}

	return it.FinalToken(), nil
}

// pageSize resolves the effective page size for a stream.
func (r *Runner) pageSize(desc *streams.Descriptor) int {
	if desc.PageSize > 0 {
		return desc.PageSize
	}
	return r.config.ChunkSize
}

// selectedStreams resolves the configured stream selection to top-level
// descriptors.
func (r *Runner) selectedStreams() ([]*streams.Descriptor, error) {
	if len(r.config.Streams) == 0 {
		var selected []*streams.Descriptor
		for _, d := range streams.All() {
			if d.Parent == "" {
				selected = append(selected, d)
			}
		}
		return selected, nil
	}

	var selected []*streams.Descriptor
	for _, name := range r.config.Streams {
		desc, ok := streams.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown stream %q", name)
		}
		if desc.Parent != "" {
			return nil, fmt.Errorf("stream %q is a child stream and cannot be selected directly", name)
		}
		selected = append(selected, desc)
	}
	return selected, nil
}

// pageFetcher adapts one stream descriptor to the pagination engine: it
// renders the envelope for a token, posts it, and decodes the response page.
type pageFetcher struct {
	client   *soap.Client
	desc     *streams.Descriptor
	config   Config
	childCtx map[string]string
}

func (f *pageFetcher) FetchPage(ctx context.Context, token string, pageSize int) (*soap.Page, error) {
	envelope := f.desc.BuildEnvelope(streams.EnvelopeParams{
		SecurityCode:       f.config.SecurityCode,
		Token:              token,
		Count:              pageSize,
		WarehouseGroupCode: f.config.WarehouseGroupCode,
		Context:            f.childCtx,
	})

	body, err := f.client.Call(ctx, f.desc.Operation, envelope)
	if err != nil {
		return nil, err
	}

	return soap.ParsePage(body, f.desc.Operation, f.desc.ItemsKey)
}
