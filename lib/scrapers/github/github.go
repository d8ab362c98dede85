// Package github harvests contact emails from the GitHub REST API: profile
// fields, READMEs, contributor lists and commit history. Every lookup is
// best-effort, a missing README or private email is an expected outcome.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"devscout/lib/fetchutil"
	"devscout/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("devscout.scrapers.github")

// ErrRateLimited marks API quota exhaustion. It is the only error that
// escalates past a single lookup, callers persist what they have and stop.
var ErrRateLimited = fmt.Errorf("github api rate limit exhausted")

const (
	defaultBaseURL = "https://api.github.com"

	// lookup bounds per harvested user/repo
	maxReposPerUser   = 5
	maxContributors   = 5
	maxCommitsPerRepo = 10
	searchPageSize    = 100
	maxSearchPages    = 100
)

type Client struct {
	http *resty.Client
	// delay window applied to search requests, zero when throttling is off
	searchDelay fetchutil.DelayWindow
}

type ClientOptions struct {
	// bearer credential, optional. absence degrades rate limits but does
	// not block operation.
	Token   string
	BaseURL string
	// disables the pre-request jitter, tests only
	NoThrottle bool
	// optional HTTP exchange dump for debugging
	Dump restyutil.DumpOutput
}

func NewClient(opts ClientOptions) (*Client, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	delay := fetchutil.ProfileDelay
	searchDelay := fetchutil.SearchDelay
	if opts.NoThrottle {
		delay = fetchutil.DelayWindow{}
		searchDelay = fetchutil.DelayWindow{}
	}

	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if opts.Token != "" {
		headers["Authorization"] = "Bearer " + opts.Token
	} else {
		slog.Warn("no github token configured, expect tight rate limits (60 req/hr)")
	}

	http, err := fetchutil.NewClient(fetchutil.Options{
		BaseURL:    baseURL,
		Delay:      delay,
		Headers:    headers,
		TracerName: "devscout.scrapers.github.http",
		Dump:       opts.Dump,
	})
	if err != nil {
		return nil, err
	}

	return &Client{http: http, searchDelay: searchDelay}, nil
}

// get fetches path and decodes the JSON body into out. A 403/429 whose body
// mentions the quota maps to ErrRateLimited, malformed JSON is reported as
// an error the caller treats as "nothing found".
func (c *Client) get(ctx context.Context, path string, out any) error {
	res, err := c.http.R().SetContext(ctx).Get(path)
	if err != nil {
		return fetchutil.Classify(path, err)
	}

	status := res.StatusCode()
	if status == 403 || status == 429 {
		body := strings.ToLower(res.String())
		if strings.Contains(body, "rate limit") || res.Header().Get("X-RateLimit-Remaining") == "0" {
			return ErrRateLimited
		}
	}
	if res.IsError() {
		return &fetchutil.FetchError{Kind: fetchutil.HTTPStatus, Status: status, URL: path}
	}

	if err := json.Unmarshal(res.Body(), out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// SearchRepos returns one page of a popularity-sorted repository search.
// Pages run 1..100, the API refuses to paginate further.
func (c *Client) SearchRepos(ctx context.Context, query string, page int) ([]Repo, error) {
	ctx, span := tracer.Start(ctx, "client:SearchRepos")
	defer span.End()

	if page < 1 || page > maxSearchPages {
		return nil, fmt.Errorf("search page %d out of range", page)
	}

	ctx = fetchutil.WithDelay(ctx, c.searchDelay)
	path := fmt.Sprintf(
		"/search/repositories?q=%s&sort=stars&order=desc&per_page=%d&page=%d",
		url.QueryEscape(query), searchPageSize, page,
	)

	var result SearchResult
	if err := c.get(ctx, path, &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository search failed")
		return nil, err
	}
	return result.Items, nil
}

// Sink receives every extracted email together with a provenance string.
// Insertion-side filtering (dedup, no-reply) belongs to the sink.
type Sink func(email string, source string)

func (c *Client) fetchReadme(ctx context.Context, owner, repo string) (string, error) {
	var readme Readme
	err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/readme", owner, repo), &readme)
	if err != nil {
		return "", err
	}
	if readme.Encoding != "base64" {
		return readme.Content, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(readme.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decode readme %s/%s: %w", owner, repo, err)
	}
	return string(decoded), nil
}
