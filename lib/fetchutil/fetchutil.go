// Package fetchutil builds the throttled resty clients shared by both
// scraping pipelines. Every request sleeps a randomized delay and presents a
// randomized browser identity before going out, which keeps the crawl shaped
// like casual human traffic.
package fetchutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"devscout/lib/restyutil"
	"devscout/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/mazen160/go-random"
)

// DelayWindow is a uniform random sleep range applied before a request.
type DelayWindow struct {
	Min time.Duration
	Max time.Duration
}

var (
	// SearchDelay runs before search/listing pages, which are watched far
	// more closely than individual profile pages.
	SearchDelay = DelayWindow{Min: 3 * time.Second, Max: 7 * time.Second}
	// ProfileDelay runs before profile and detail fetches.
	ProfileDelay = DelayWindow{Min: 2 * time.Second, Max: 5 * time.Second}
)

func (w DelayWindow) sleep(ctx context.Context) error {
	if w.Max <= 0 {
		return nil
	}
	wait := w.Min
	if w.Max > w.Min {
		ms, err := random.IntRange(int(w.Min.Milliseconds()), int(w.Max.Milliseconds()))
		if err != nil {
			// fall back to the window floor, still throttled
			ms = int(w.Min.Milliseconds())
		}
		wait = time.Duration(ms) * time.Millisecond
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type delayKeyType struct{}

var delayKey = delayKeyType{}

// WithDelay overrides the client's default delay window for requests issued
// under the returned context.
func WithDelay(ctx context.Context, window DelayWindow) context.Context {
	return context.WithValue(ctx, delayKey, window)
}

// userAgents is a fixed pool of realistic desktop browser identities. One is
// drawn uniformly at random per request, never round-robin.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36 Edg/122.0.2365.92",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:124.0) Gecko/20100101 Firefox/124.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14.3; rv:124.0) Gecko/20100101 Firefox/124.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:123.0) Gecko/20100101 Firefox/123.0",
	"Mozilla/5.0 (Windows NT 11.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_6) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

func randomUserAgent() string {
	idx, err := random.IntRange(0, len(userAgents))
	if err != nil {
		idx = 0
	}
	return userAgents[idx]
}

type Options struct {
	BaseURL string
	// Default delay window for requests that carry no WithDelay override.
	// The zero value disables throttling (tests only).
	Delay DelayWindow
	// Session cookies attached to every request, typically exported from an
	// interactive browser login.
	Cookies []*http.Cookie
	// Routes the transport through the cloudflare bypass, needed for the
	// marketplace origin.
	CloudflareBypass bool
	Headers          map[string]string
	TracerName       string
	// Dump receives every completed exchange, nil disables dumping.
	Dump restyutil.DumpOutput
}

// NewClient builds a resty client with the crawl posture shared by both
// pipelines: 30s timeout, 5-hop redirect cap, cookie jar, randomized
// identity and delay per request.
func NewClient(opts Options) (*resty.Client, error) {
	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	client.SetTimeout(30 * time.Second)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	if len(opts.Cookies) > 0 {
		client.SetCookies(opts.Cookies)
	}
	for k, v := range opts.Headers {
		client.SetHeader(k, v)
	}

	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		window := opts.Delay
		if override, ok := req.Context().Value(delayKey).(DelayWindow); ok {
			window = override
		}
		if err := window.sleep(req.Context()); err != nil {
			return err
		}
		req.SetHeader("User-Agent", randomUserAgent())
		return nil
	})

	if opts.TracerName != "" {
		telemetry.InstrumentResty(client, opts.TracerName)
	}
	restyutil.AttachDump(client, opts.Dump)

	return client, nil
}

type ErrorKind int

const (
	Network ErrorKind = iota
	Timeout
	TooManyRedirects
	HTTPStatus
)

func (k ErrorKind) String() string {
	switch k {
	case Timeout:
		return "timeout"
	case TooManyRedirects:
		return "too many redirects"
	case HTTPStatus:
		return "http status"
	default:
		return "network"
	}
}

// FetchError is the single failure type of the fetch boundary. Callers are
// expected to log it and move on, a failed fetch is routine.
type FetchError struct {
	Kind   ErrorKind
	Status int
	URL    string
	cause  error
}

func (e *FetchError) Error() string {
	if e.Kind == HTTPStatus {
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.Status)
	}
	if e.cause != nil {
		return fmt.Sprintf("fetch %s: %s: %s", e.URL, e.Kind, e.cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *FetchError) Unwrap() error {
	return e.cause
}

// Classify maps a transport-level error onto the FetchError taxonomy.
func Classify(rawurl string, err error) *FetchError {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: Timeout, URL: rawurl, cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: Timeout, URL: rawurl, cause: err}
	}
	if strings.Contains(err.Error(), "redirects") {
		return &FetchError{Kind: TooManyRedirects, URL: rawurl, cause: err}
	}
	return &FetchError{Kind: Network, URL: rawurl, cause: err}
}

// Do issues a single request and returns the raw body. Any transport
// failure or non-2xx status comes back as a *FetchError, nothing is
// retried here.
func Do(ctx context.Context, client *resty.Client, method, rawurl string) ([]byte, error) {
	res, err := client.R().SetContext(ctx).Execute(method, rawurl)
	if err != nil {
		ferr := Classify(rawurl, err)
		slog.Debug("fetch failed", "url", rawurl, "kind", ferr.Kind.String(), "err", err)
		return nil, ferr
	}
	if res.IsError() {
		return nil, &FetchError{Kind: HTTPStatus, Status: res.StatusCode(), URL: rawurl}
	}
	return res.Body(), nil
}
