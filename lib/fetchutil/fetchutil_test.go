package fetchutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDoReturnsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "hello")
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Options{BaseURL: server.URL})
	require.NoError(t, err)

	body, err := Do(context.Background(), client, "GET", "/")
	require.NoError(t, err)
	require.Equal(t, "hello", string(body))
}

func TestDoMapsHTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Options{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = Do(context.Background(), client, "GET", "/")

	var ferr *FetchError
	require.True(t, errors.As(err, &ferr))
	require.Equal(t, HTTPStatus, ferr.Kind)
	require.Equal(t, http.StatusBadGateway, ferr.Status)
}

func TestDoMapsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Options{BaseURL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err = Do(ctx, client, "GET", "/")

	var ferr *FetchError
	require.True(t, errors.As(err, &ferr))
	require.Equal(t, Timeout, ferr.Kind)
}

func TestDoMapsTooManyRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusFound)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Options{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = Do(context.Background(), client, "GET", "/")

	var ferr *FetchError
	require.True(t, errors.As(err, &ferr))
	require.Equal(t, TooManyRedirects, ferr.Kind)
}

func TestDoMapsNetworkFailure(t *testing.T) {
	// nothing listens here
	client, err := NewClient(Options{})
	require.NoError(t, err)

	_, err = Do(context.Background(), client, "GET", "http://127.0.0.1:1/")

	var ferr *FetchError
	require.True(t, errors.As(err, &ferr))
	require.NotEqual(t, HTTPStatus, ferr.Kind)
}

func TestRandomUserAgentPool(t *testing.T) {
	require.GreaterOrEqual(t, len(userAgents), 8)

	pool := map[string]bool{}
	for _, ua := range userAgents {
		pool[ua] = true
	}
	for i := 0; i < 50; i++ {
		require.True(t, pool[randomUserAgent()])
	}
}

func TestRequestCarriesPoolIdentity(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Options{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = Do(context.Background(), client, "GET", "/")
	require.NoError(t, err)
	require.Contains(t, userAgents, got)
}

func TestDelayWindowHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	window := DelayWindow{Min: time.Hour, Max: 2 * time.Hour}
	err := window.sleep(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWithDelayOverride(t *testing.T) {
	ctx := WithDelay(context.Background(), SearchDelay)
	window, ok := ctx.Value(delayKey).(DelayWindow)
	require.True(t, ok)
	require.Equal(t, SearchDelay, window)
}
