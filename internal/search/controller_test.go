package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/gifterm/internal/domain"
	"github.com/mmcdole/gifterm/internal/metrics"
)

const (
	testDebounce = 40 * time.Millisecond
	waitFor      = 2 * time.Second
	tick         = 5 * time.Millisecond
)

type reply struct {
	page *domain.SearchPage
	err  error
}

type call struct {
	ctx    context.Context
	query  string
	offset int
	limit  int
	reply  chan reply
}

// fakeClient records every Search call and blocks it until the test replies.
// It ignores ctx so tests can observe late completions.
type fakeClient struct {
	mu    sync.Mutex
	calls []*call
}

func (f *fakeClient) Search(ctx context.Context, query string, offset, limit int) (*domain.SearchPage, error) {
	c := &call{ctx: ctx, query: query, offset: offset, limit: limit, reply: make(chan reply, 1)}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()

	r := <-c.reply
	return r.page, r.err
}

func (f *fakeClient) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeClient) waitCall(t *testing.T, i int) *call {
	t.Helper()
	require.Eventually(t, func() bool { return f.count() > i }, waitFor, tick, "expected call %d", i)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

func gifs(prefix string, from, n int) []domain.Gif {
	out := make([]domain.Gif, n)
	for i := range out {
		id := fmt.Sprintf("%s-%d", prefix, from+i)
		out[i] = domain.Gif{ID: id, Title: id, Images: domain.Images{Original: domain.Image{URL: "https://media.example/" + id + ".gif"}}}
	}
	return out
}

func page(prefix string, offset, n, total int) *domain.SearchPage {
	return &domain.SearchPage{Gifs: gifs(prefix, offset, n), TotalCount: total, Count: n, Offset: offset}
}

func newTestController(t *testing.T) (*Controller, *fakeClient, *metrics.Metrics) {
	t.Helper()
	client := &fakeClient{}
	m := metrics.New()
	c := NewController(client,
		WithDebounce(testDebounce),
		WithPageSize(20),
		WithMetrics(m),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	t.Cleanup(func() {
		c.Close()
		client.mu.Lock()
		defer client.mu.Unlock()
		for _, pending := range client.calls {
			select {
			case pending.reply <- reply{err: context.Canceled}:
			default:
			}
		}
	})
	return c, client, m
}

func waitState(t *testing.T, c *Controller, cond func(State) bool) State {
	t.Helper()
	var s State
	require.Eventually(t, func() bool {
		s = c.Snapshot()
		return cond(s)
	}, waitFor, tick)
	return s
}

func TestInitialState(t *testing.T) {
	c, _, _ := newTestController(t)

	s := c.Snapshot()
	assert.Empty(t, s.Results)
	assert.Equal(t, "", s.Query)
	assert.False(t, s.IsLoading)
	assert.False(t, s.CanLoadMore)
	assert.NoError(t, s.LastError)
	assert.False(t, s.TotalKnown())
}

func TestDebounceCoalescesEdits(t *testing.T) {
	c, client, m := newTestController(t)

	c.SubmitQuery("cat")
	time.Sleep(testDebounce / 4)
	c.SubmitQuery("dog")

	first := client.waitCall(t, 0)
	assert.Equal(t, "dog", first.query)
	assert.Equal(t, 0, first.offset)
	assert.Equal(t, 20, first.limit)

	s := c.Snapshot()
	assert.True(t, s.IsLoading)
	assert.Equal(t, "dog", s.Query)

	time.Sleep(3 * testDebounce)
	assert.Equal(t, 1, client.count())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CoalescedQueries))
}

func TestNoRequestBeforeDebounceElapses(t *testing.T) {
	client := &fakeClient{}
	c := NewController(client, WithDebounce(time.Hour))
	defer c.Close()

	c.SubmitQuery("cat")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, client.count())
	assert.False(t, c.Snapshot().IsLoading)
}

func TestPaginationAccumulates(t *testing.T) {
	c, client, _ := newTestController(t)

	c.SubmitQuery("dog")
	client.waitCall(t, 0).reply <- reply{page: page("dog", 0, 20, 40)}

	s := waitState(t, c, func(s State) bool { return !s.IsLoading && len(s.Results) == 20 })
	assert.True(t, s.CanLoadMore)
	assert.Equal(t, 40, s.TotalAvailable)

	c.LoadMore()
	second := client.waitCall(t, 1)
	assert.Equal(t, "dog", second.query)
	assert.Equal(t, 20, second.offset)
	second.reply <- reply{page: page("dog", 20, 20, 40)}

	s = waitState(t, c, func(s State) bool { return !s.IsLoading && len(s.Results) == 40 })
	assert.False(t, s.CanLoadMore)
	assert.Equal(t, "dog-0", s.Results[0].ID)
	assert.Equal(t, "dog-39", s.Results[39].ID)

	c.LoadMore()
	time.Sleep(2 * testDebounce)
	assert.Equal(t, 2, client.count())
}

func TestLoadMoreIgnoredWhileLoading(t *testing.T) {
	c, client, _ := newTestController(t)

	c.SubmitQuery("dog")
	client.waitCall(t, 0).reply <- reply{page: page("dog", 0, 20, 100)}
	waitState(t, c, func(s State) bool { return len(s.Results) == 20 })

	for i := 0; i < 10; i++ {
		c.LoadMore()
	}
	client.waitCall(t, 1)
	time.Sleep(2 * testDebounce)
	assert.Equal(t, 2, client.count())
	assert.True(t, c.Snapshot().IsLoading)
}

func TestLoadMoreWithoutQueryIsNoop(t *testing.T) {
	c, client, _ := newTestController(t)

	c.LoadMore()
	time.Sleep(2 * testDebounce)
	assert.Equal(t, 0, client.count())
	assert.False(t, c.Snapshot().IsLoading)
}

func TestEmptyQueryClearsSession(t *testing.T) {
	c, client, _ := newTestController(t)

	c.SubmitQuery("cat")
	client.waitCall(t, 0).reply <- reply{page: page("cat", 0, 20, 40)}
	waitState(t, c, func(s State) bool { return len(s.Results) == 20 })

	c.SubmitQuery("")
	s := c.Snapshot()
	assert.Empty(t, s.Results)
	assert.False(t, s.CanLoadMore)
	assert.False(t, s.IsLoading)
	assert.False(t, s.TotalKnown())
	assert.Equal(t, "", s.Query)

	c.LoadMore()
	time.Sleep(2 * testDebounce)
	assert.Equal(t, 1, client.count())
}

func TestEmptyQueryCancelsPendingDebounce(t *testing.T) {
	c, client, _ := newTestController(t)

	c.SubmitQuery("cat")
	c.SubmitQuery("")
	time.Sleep(3 * testDebounce)

	assert.Equal(t, 0, client.count())
	assert.Empty(t, c.Snapshot().Results)
}

func TestEmptyQueryInvalidatesInFlight(t *testing.T) {
	c, client, m := newTestController(t)

	c.SubmitQuery("cat")
	inflight := client.waitCall(t, 0)

	c.SubmitQuery("")
	assert.Error(t, inflight.ctx.Err())

	inflight.reply <- reply{page: page("cat", 0, 20, 40)}
	require.Eventually(t, func() bool { return testutil.ToFloat64(m.StaleCompletions) == 1 }, waitFor, tick)

	s := c.Snapshot()
	assert.Empty(t, s.Results)
	assert.False(t, s.IsLoading)
}

func TestSupersededResponseIsDiscarded(t *testing.T) {
	c, client, m := newTestController(t)

	c.SubmitQuery("cat")
	stale := client.waitCall(t, 0)

	c.SubmitQuery("dog")
	fresh := client.waitCall(t, 1)
	assert.Equal(t, "dog", fresh.query)
	assert.ErrorIs(t, stale.ctx.Err(), context.Canceled)

	fresh.reply <- reply{page: page("dog", 0, 20, 40)}
	waitState(t, c, func(s State) bool { return len(s.Results) == 20 })

	stale.reply <- reply{page: page("cat", 0, 5, 5)}
	require.Eventually(t, func() bool { return testutil.ToFloat64(m.StaleCompletions) == 1 }, waitFor, tick)

	s := c.Snapshot()
	assert.Equal(t, "dog", s.Query)
	assert.Len(t, s.Results, 20)
	assert.Equal(t, "dog-0", s.Results[0].ID)
	assert.Equal(t, 40, s.TotalAvailable)
}

func TestStaleFailureIsDiscarded(t *testing.T) {
	c, client, m := newTestController(t)

	c.SubmitQuery("cat")
	stale := client.waitCall(t, 0)
	c.SubmitQuery("dog")
	fresh := client.waitCall(t, 1)

	stale.reply <- reply{err: domain.NewProviderError(domain.ErrTransport, context.Canceled)}
	require.Eventually(t, func() bool { return testutil.ToFloat64(m.StaleCompletions) == 1 }, waitFor, tick)

	s := c.Snapshot()
	assert.NoError(t, s.LastError)
	assert.True(t, s.IsLoading)

	fresh.reply <- reply{page: page("dog", 0, 3, 3)}
	waitState(t, c, func(s State) bool { return !s.IsLoading })
}

func TestFailureThenNewQueryRecovers(t *testing.T) {
	c, client, _ := newTestController(t)

	c.SubmitQuery("cat")
	client.waitCall(t, 0).reply <- reply{err: domain.NewProviderError(domain.ErrTransport, errors.New("offline"))}

	s := waitState(t, c, func(s State) bool { return s.LastError != nil })
	assert.ErrorIs(t, s.LastError, domain.ErrTransport)
	assert.False(t, s.IsLoading)
	assert.Empty(t, s.Results)

	c.SubmitQuery("dog")
	next := client.waitCall(t, 1)
	s = c.Snapshot()
	assert.NoError(t, s.LastError)
	assert.True(t, s.IsLoading)

	next.reply <- reply{page: page("dog", 0, 20, 40)}
	s = waitState(t, c, func(s State) bool { return !s.IsLoading })
	assert.NoError(t, s.LastError)
	assert.Len(t, s.Results, 20)
	assert.Equal(t, "dog-0", s.Results[0].ID)
}

func TestLoadMoreFailureKeepsResults(t *testing.T) {
	c, client, _ := newTestController(t)

	c.SubmitQuery("dog")
	client.waitCall(t, 0).reply <- reply{page: page("dog", 0, 20, 40)}
	waitState(t, c, func(s State) bool { return len(s.Results) == 20 })

	c.LoadMore()
	client.waitCall(t, 1).reply <- reply{err: &domain.ProviderError{Kind: domain.ErrServerRejection, StatusCode: 500}}

	s := waitState(t, c, func(s State) bool { return s.LastError != nil })
	assert.Len(t, s.Results, 20)
	assert.False(t, s.IsLoading)
	assert.True(t, s.CanLoadMore)

	c.LoadMore()
	retry := client.waitCall(t, 2)
	assert.Equal(t, 20, retry.offset)
}

func TestFreshQueryFailureAllowsRetry(t *testing.T) {
	c, client, _ := newTestController(t)

	c.SubmitQuery("cat")
	client.waitCall(t, 0).reply <- reply{err: domain.NewProviderError(domain.ErrSchemaViolation, errors.New("bad"))}
	waitState(t, c, func(s State) bool { return s.LastError != nil })

	c.LoadMore()
	retry := client.waitCall(t, 1)
	assert.Equal(t, "cat", retry.query)
	assert.Equal(t, 0, retry.offset)
}

func TestZeroResults(t *testing.T) {
	c, client, _ := newTestController(t)

	c.SubmitQuery("zzzzqqq")
	client.waitCall(t, 0).reply <- reply{page: page("z", 0, 0, 0)}

	s := waitState(t, c, func(s State) bool { return !s.IsLoading })
	assert.Empty(t, s.Results)
	assert.False(t, s.CanLoadMore)
	assert.Equal(t, 0, s.TotalAvailable)
	assert.True(t, s.TotalKnown())
	assert.NoError(t, s.LastError)
}

func TestShortPageStopsPaging(t *testing.T) {
	c, client, _ := newTestController(t)

	c.SubmitQuery("dog")
	client.waitCall(t, 0).reply <- reply{page: page("dog", 0, 20, 25)}
	waitState(t, c, func(s State) bool { return len(s.Results) == 20 })

	c.LoadMore()
	client.waitCall(t, 1).reply <- reply{page: page("dog", 20, 5, 25)}
	s := waitState(t, c, func(s State) bool { return len(s.Results) == 25 })
	assert.False(t, s.CanLoadMore)
}

func TestEmptyPageStopsPaging(t *testing.T) {
	c, client, _ := newTestController(t)

	c.SubmitQuery("dog")
	client.waitCall(t, 0).reply <- reply{page: page("dog", 0, 20, 100)}
	waitState(t, c, func(s State) bool { return len(s.Results) == 20 })

	c.LoadMore()
	client.waitCall(t, 1).reply <- reply{page: page("dog", 20, 0, 100)}
	s := waitState(t, c, func(s State) bool { return !s.IsLoading })
	assert.Len(t, s.Results, 20)
	assert.False(t, s.CanLoadMore)
}

func TestRequeryResetsResults(t *testing.T) {
	c, client, _ := newTestController(t)

	c.SubmitQuery("dog")
	client.waitCall(t, 0).reply <- reply{page: page("dog", 0, 20, 40)}
	waitState(t, c, func(s State) bool { return len(s.Results) == 20 })

	c.SubmitQuery("dogs")
	client.waitCall(t, 1)
	s := c.Snapshot()
	assert.Empty(t, s.Results)
	assert.True(t, s.IsLoading)
	assert.True(t, s.CanLoadMore)
	assert.False(t, s.TotalKnown())
}

func TestChangesSignalled(t *testing.T) {
	c, client, _ := newTestController(t)

	c.SubmitQuery("cat")
	client.waitCall(t, 0)

	select {
	case <-c.Changes():
	case <-time.After(waitFor):
		t.Fatal("no change signal after search started")
	}

	client.waitCall(t, 0).reply <- reply{page: page("cat", 0, 1, 1)}
	select {
	case <-c.Changes():
	case <-time.After(waitFor):
		t.Fatal("no change signal after page applied")
	}
	assert.Len(t, c.Snapshot().Results, 1)
}

func TestSnapshotIsACopy(t *testing.T) {
	c, client, _ := newTestController(t)

	c.SubmitQuery("cat")
	client.waitCall(t, 0).reply <- reply{page: page("cat", 0, 2, 2)}
	s := waitState(t, c, func(s State) bool { return len(s.Results) == 2 })

	s.Results[0].ID = "mutated"
	assert.Equal(t, "cat-0", c.Snapshot().Results[0].ID)
}

func TestNilPageIsSchemaViolation(t *testing.T) {
	c, client, _ := newTestController(t)

	c.SubmitQuery("cat")
	client.waitCall(t, 0).reply <- reply{}

	s := waitState(t, c, func(s State) bool { return s.LastError != nil })
	assert.ErrorIs(t, s.LastError, domain.ErrSchemaViolation)
}

func TestCloseStopsEverything(t *testing.T) {
	c, client, _ := newTestController(t)

	c.SubmitQuery("cat")
	inflight := client.waitCall(t, 0)

	c.Close()
	assert.Error(t, inflight.ctx.Err())

	c.SubmitQuery("dog")
	c.LoadMore()
	time.Sleep(3 * testDebounce)
	assert.Equal(t, 1, client.count())
}

func TestParentContextCancelsRequests(t *testing.T) {
	client := &fakeClient{}
	ctx, cancel := context.WithCancel(context.Background())
	c := NewController(client, WithDebounce(0), WithContext(ctx))
	defer c.Close()

	c.SubmitQuery("cat")
	inflight := client.waitCall(t, 0)
	cancel()
	assert.ErrorIs(t, inflight.ctx.Err(), context.Canceled)
	inflight.reply <- reply{err: domain.NewProviderError(domain.ErrTransport, context.Canceled)}
}
