package giphy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/gifterm/internal/domain"
	"github.com/mmcdole/gifterm/internal/metrics"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	m := metrics.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1/gifs"}, logger, m), m
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return data
}

func TestSearchBuildsRequest(t *testing.T) {
	var got *http.Request
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write(fixture(t, "search_cats.json"))
	})
	client.rating = "pg-13"

	_, err := client.Search(context.Background(), "funny cats & dogs", 40, 20)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/v1/gifs/search", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "test-key", q.Get("api_key"))
	assert.Equal(t, "funny cats & dogs", q.Get("q"))
	assert.Equal(t, "20", q.Get("limit"))
	assert.Equal(t, "40", q.Get("offset"))
	assert.Equal(t, "pg-13", q.Get("rating"))
	assert.False(t, q.Has("lang"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
}

func TestSearchMapsPage(t *testing.T) {
	client, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(fixture(t, "search_cats.json"))
	})

	page, err := client.Search(context.Background(), "cat", 0, 20)
	require.NoError(t, err)

	assert.Equal(t, 42, page.TotalCount)
	assert.Equal(t, 2, page.Count)
	assert.Equal(t, 0, page.Offset)
	assert.Equal(t, "r-123", page.ResponseID)
	require.Len(t, page.Gifs, 2)

	first := page.Gifs[0]
	assert.Equal(t, "JIX9t2j0ZTN9S", first.ID)
	assert.Equal(t, "Cat Typing GIF", first.Title)
	assert.Equal(t, "catlover", first.Username)
	assert.Equal(t, "g", first.Rating)
	assert.Equal(t, 480, first.Images.Original.Width)
	assert.Equal(t, 270, first.Images.Original.Height)
	require.NotNil(t, first.Images.OriginalMP4)
	assert.Equal(t, int64(198312), first.Images.OriginalMP4.Size)
	assert.Equal(t, "https://media.giphy.com/media/JIX9t2j0ZTN9S/giphy-hd.mp4", first.Images.BestVideoURL())
	assert.Equal(t, "https://media.giphy.com/media/JIX9t2j0ZTN9S/200w.gif", first.Images.BestForGrid().URL)

	second := page.Gifs[1]
	assert.Equal(t, 200, second.Images.Original.Height)
	assert.Nil(t, second.Images.FixedWidth)
	assert.Equal(t, "", second.Images.BestVideoURL())
	assert.Equal(t, "mlvseq9yvZhba", second.DisplayTitle())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("ok")))
}

func TestSearchServerRejection(t *testing.T) {
	client, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"meta":{"status":403,"msg":"Forbidden"}}`))
	})

	_, err := client.Search(context.Background(), "cat", 0, 20)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServerRejection)

	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusForbidden, perr.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("server_rejection")))
}

func TestSearchSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"missing data", `{"pagination":{"total_count":0,"count":0,"offset":0},"meta":{"status":200}}`},
		{"missing pagination", `{"data":[],"meta":{"status":200}}`},
		{"missing total", `{"data":[],"pagination":{"count":0,"offset":0},"meta":{"status":200}}`},
		{"missing meta", `{"data":[],"pagination":{"total_count":0,"count":0,"offset":0}}`},
		{"gif without id", `{"data":[{"images":{"original":{"url":"https://x/a.gif"}}}],"pagination":{"total_count":1,"count":1,"offset":0},"meta":{"status":200}}`},
		{"gif without original", `{"data":[{"id":"a","images":{}}],"pagination":{"total_count":1,"count":1,"offset":0},"meta":{"status":200}}`},
		{"original without url", `{"data":[{"id":"a","images":{"original":{"width":"1"}}}],"pagination":{"total_count":1,"count":1,"offset":0},"meta":{"status":200}}`},
		{"wrong type", `{"data":{},"pagination":{"total_count":0,"count":0,"offset":0},"meta":{"status":200}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.Search(context.Background(), "cat", 0, 20)
			assert.ErrorIs(t, err, domain.ErrSchemaViolation)
		})
	}
}

func TestSearchEmptyPageIsValid(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[],"pagination":{"total_count":0,"count":0,"offset":0},"meta":{"status":200,"msg":"OK"}}`))
	})

	page, err := client.Search(context.Background(), "zzzzqqq", 0, 20)
	require.NoError(t, err)
	assert.Empty(t, page.Gifs)
	assert.Equal(t, 0, page.TotalCount)
}

func TestSearchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := NewClient(Config{APIKey: "secret-key", BaseURL: base}, nil, nil)
	_, err := client.Search(context.Background(), "cat", 0, 20)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.NotContains(t, err.Error(), "secret-key")
}

func TestSearchHonorsCancellation(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.Search(ctx, "cat", 0, 20)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearchRejectsBadInput(t *testing.T) {
	client := NewClient(Config{APIKey: "k", BaseURL: "not a url"}, nil, nil)
	_, err := client.Search(context.Background(), "cat", 0, 20)
	assert.ErrorIs(t, err, domain.ErrMalformedRequest)

	client = NewClient(Config{APIKey: "k"}, nil, nil)
	_, err = client.Search(context.Background(), "", 0, 20)
	assert.ErrorIs(t, err, domain.ErrMalformedRequest)
	_, err = client.Search(context.Background(), "cat", -1, 20)
	assert.ErrorIs(t, err, domain.ErrMalformedRequest)

	client = NewClient(Config{}, nil, nil)
	_, err = client.Search(context.Background(), "cat", 0, 20)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
