package pagination

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bkuipers/sherpa-sync/pkg/soap"
)

// PageFetcher is the collaborator the engine drives for single-page fetching.
// Implementations build the entity's envelope for the given token, send it,
// and decode the response into a page.
type PageFetcher interface {
	FetchPage(ctx context.Context, token string, pageSize int) (*soap.Page, error)
}

// Config holds engine configuration for one stream.
type Config struct {
	// PageSize is the number of items requested per page.
	PageSize int

	// Paginate controls whether the token is walked at all. When false the
	// engine executes exactly one request/response cycle and uses its result
	// as the sole page.
	Paginate bool
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		PageSize: 200,
		Paginate: true,
	}
}

// Engine drives repeated page fetches for one stream.
type Engine struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// New creates a pagination engine.
func New(fetcher PageFetcher, config Config) *Engine {
	if config.PageSize <= 0 {
		config.PageSize = 200
	}

	return &Engine{
		fetcher: fetcher,
		config:  config,
		logger:  log.With().Str("component", "pagination").Logger(),
	}
}

// Run starts a pagination run from startToken and returns its iterator.
// The iterator is finite and non-restartable; a fresh run requires a fresh
// call to Run.
func (e *Engine) Run(ctx context.Context, startToken string) *Iterator {
	return &Iterator{
		ctx:    ctx,
		engine: e,
		token:  startToken,
		final:  startToken,
		start:  time.Now(),
	}
}

// Iterator yields records one at a time, fetching the next page only when the
// current one is drained.
type Iterator struct {
	ctx    context.Context
	engine *Engine

	token string // token for the next request
	final string // last observed token, reported as the bookmark

	buf []soap.Record
	idx int

	done  bool
	err   error
	pages int
	items int
	start time.Time
}

// Next returns the next record. It returns ok=false when the sequence is
// exhausted, either by reaching end-of-data or by a fetch error; check Err
// to tell the two apart.
func (it *Iterator) Next() (soap.Record, bool) {
	for {
		if it.err != nil {
			return nil, false
		}
		if it.idx < len(it.buf) {
			rec := it.buf[it.idx]
			it.idx++
			return rec, true
		}
		if it.done {
			return nil, false
		}
		it.fetchNextPage()
	}
}

// Err returns the error that aborted the run, or nil after a clean exhaustion.
func (it *Iterator) Err() error {
	return it.err
}

// FinalToken returns the token to persist as the new bookmark. It is only
// meaningful after the iterator is exhausted without error.
func (it *Iterator) FinalToken() string {
	return it.final
}

func (it *Iterator) fetchNextPage() {
	pageSize := it.engine.config.PageSize

	page, err := it.engine.fetcher.FetchPage(it.ctx, it.token, pageSize)
	if err != nil {
		it.err = err
		it.done = true
		return
	}

	it.buf = page.Items
	it.idx = 0
	it.pages++
	it.items += len(page.Items)

	it.engine.logger.Debug().
		Str("token", it.token).
		Str("next_token", page.Token).
		Int("page", it.pages).
		Int("items", len(page.Items)).
		Msg("Fetched page")

	if !it.engine.config.Paginate {
		// Single-shot lookup: the sole page is the whole result and there is
		// no bookmark to advance.
		it.done = true
		it.finish()
		return
	}

	next := page.Token

	switch {
	case len(page.Items) == 0:
		// Empty page: nothing changed since the start token. Success.
		it.done = true
	case next == "":
		// The response carried items without a continuation token; there is
		// nothing to advance to.
		it.done = true
	case next == it.token:
		// No-progress guard: the same token twice means end-of-data, never
		// loop on it.
		it.final = next
		it.done = true
	default:
		it.final = next
		if len(page.Items) < pageSize {
			// Short page: end-of-data.
			it.done = true
		} else {
			it.token = next
		}
	}

	if it.done {
		it.finish()
	}
}

func (it *Iterator) finish() {
	it.engine.logger.Info().
		Int("pages", it.pages).
		Int("items", it.items).
		Str("final_token", it.final).
		Dur("duration", time.Since(it.start)).
		Msg("Pagination complete")
}
