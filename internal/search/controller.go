// Package search drives an incremental, paginated GIF search session.
//
// A Controller turns a stream of query edits into debounced provider
// requests, appends pages on demand, and guarantees that only the
// response to the newest request is ever applied to the session state.
package search

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/gifterm/internal/domain"
	"github.com/mmcdole/gifterm/internal/metrics"
)

const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultPageSize = 20

	// UnknownTotal is reported until the first successful response for a query
	UnknownTotal = -1
)

var errEmptyPage = errors.New("provider returned no page")

// State is a point-in-time copy of the session
type State struct {
	Query          string       // Last query that was executed
	Results        []domain.Gif // Accumulated results in provider order
	TotalAvailable int          // Provider total for Query, UnknownTotal before the first page
	CanLoadMore    bool
	IsLoading      bool
	LastError      error // Most recent failure, cleared when a request starts
}

// TotalKnown reports whether the provider has reported a total for Query
func (s State) TotalKnown() bool {
	return s.TotalAvailable != UnknownTotal
}

// Controller owns one search session. All methods are safe for concurrent use.
type Controller struct {
	client   domain.SearchClient
	debounce time.Duration
	pageSize int
	logger   *slog.Logger
	metrics  *metrics.Metrics

	ctx  context.Context
	stop context.CancelFunc

	mu          sync.Mutex
	state       State
	generation  uint64 // Bumped for every request and every invalidation
	pending     string // Query waiting for the debounce timer
	pendingSeq  uint64 // Identifies the armed timer
	timer       *time.Timer
	cancelFetch context.CancelFunc
	closed      bool

	changes chan struct{}
}

// NewController creates a controller that fetches pages from client
func NewController(client domain.SearchClient, opts ...Option) *Controller {
	c := &Controller{
		client:   client,
		debounce: DefaultDebounce,
		pageSize: DefaultPageSize,
		logger:   slog.Default(),
		ctx:      context.Background(),
		changes:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.stop = context.WithCancel(c.ctx)
	c.state.TotalAvailable = UnknownTotal
	return c
}

// SubmitQuery records a new query text. Non-empty text is executed once no
// further edit arrives within the debounce window. Empty text clears the
// session immediately and abandons any pending or in-flight request.
func (c *Controller) SubmitQuery(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.pendingSeq++
	replaced := c.stopTimerLocked()

	if text == "" {
		c.pending = ""
		c.generation++
		c.abortFetchLocked()
		c.state = State{TotalAvailable: UnknownTotal}
		c.mu.Unlock()

		c.logger.Debug("search cleared")
		c.notify()
		return
	}

	if replaced {
		c.metrics.QueryCoalesced()
	}
	c.pending = text
	seq := c.pendingSeq
	c.timer = time.AfterFunc(c.debounce, func() { c.fire(seq) })
	c.mu.Unlock()
}

// LoadMore requests the next page for the current query. It does nothing
// while a request is outstanding, when the provider has no more results,
// or when no query has been executed.
func (c *Controller) LoadMore() {
	c.mu.Lock()
	if c.closed || c.state.IsLoading || !c.state.CanLoadMore || c.state.Query == "" {
		c.mu.Unlock()
		return
	}
	offset := len(c.state.Results)
	c.startFetchLocked(offset, true)
	c.mu.Unlock()

	c.notify()
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Results = append([]domain.Gif(nil), c.state.Results...)
	return s
}

// Changes delivers a signal after every state change. Signals coalesce:
// a slow reader sees one pending signal, then calls Snapshot.
func (c *Controller) Changes() <-chan struct{} {
	return c.changes
}

// Close stops the debounce timer and cancels any in-flight request.
// Later calls to SubmitQuery and LoadMore are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.generation++
	c.abortFetchLocked()
	c.stop()
}

// fire runs when the debounce window for seq elapses
func (c *Controller) fire(seq uint64) {
	c.mu.Lock()
	if c.closed || seq != c.pendingSeq || c.pending == "" {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	query := c.pending
	c.pending = ""

	c.state.Query = query
	c.state.Results = nil
	c.state.TotalAvailable = UnknownTotal
	c.state.CanLoadMore = true
	c.startFetchLocked(0, false)
	c.mu.Unlock()

	c.logger.Debug("search started", "query", query)
	c.notify()
}

// startFetchLocked issues a request for the current query. The caller holds mu.
func (c *Controller) startFetchLocked(offset int, appendPage bool) {
	c.generation++
	gen := c.generation
	c.abortFetchLocked()

	c.state.IsLoading = true
	c.state.LastError = nil

	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelFetch = cancel
	go c.fetch(ctx, cancel, gen, c.state.Query, offset, appendPage)
}

func (c *Controller) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64, query string, offset int, appendPage bool) {
	defer cancel()

	page, err := c.client.Search(ctx, query, offset, c.pageSize)
	if err == nil && page == nil {
		err = domain.NewProviderError(domain.ErrSchemaViolation, errEmptyPage)
	}
	c.complete(gen, query, offset, appendPage, page, err)
}

// complete applies a finished request if it is still the newest one
func (c *Controller) complete(gen uint64, query string, offset int, appendPage bool, page *domain.SearchPage, err error) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.metrics.StaleCompletion()
		c.logger.Debug("discarding stale response", "query", query, "offset", offset)
		return
	}
	c.cancelFetch = nil
	c.state.IsLoading = false

	if err != nil {
		c.state.LastError = err
		c.mu.Unlock()

		c.logger.Warn("search failed", "query", query, "offset", offset, "kind", domain.ErrorKind(err), "error", err)
		c.notify()
		return
	}

	if appendPage {
		c.state.Results = append(c.state.Results, page.Gifs...)
	} else {
		c.state.Results = append([]domain.Gif(nil), page.Gifs...)
	}
	c.state.TotalAvailable = page.TotalCount
	c.state.CanLoadMore = len(c.state.Results) < page.TotalCount && len(page.Gifs) > 0
	held := len(c.state.Results)
	c.mu.Unlock()

	c.logger.Debug("search page applied", "query", query, "offset", offset, "received", len(page.Gifs), "held", held, "total", page.TotalCount)
	c.notify()
}

// stopTimerLocked disarms the debounce timer and reports whether one was armed
func (c *Controller) stopTimerLocked() bool {
	if c.timer == nil {
		return false
	}
	c.timer.Stop()
	c.timer = nil
	return true
}

func (c *Controller) abortFetchLocked() {
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
}

func (c *Controller) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}
