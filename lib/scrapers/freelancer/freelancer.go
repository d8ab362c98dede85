// Package freelancer crawls a freelance-marketplace search for profiles
// that link out to GitHub accounts. All parsing is selector-driven and
// configurable since the marketplace markup shifts without notice.
package freelancer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"devscout/lib/extract"
	"devscout/lib/fetchutil"
	"devscout/lib/htmlutil"
	"devscout/lib/restyutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("devscout.scrapers.freelancer")

type Selectors struct {
	// anchors wrapping a freelancer's name on a search result page
	SearchLink string
	// free-text regions of a profile page
	ProfileText string
	// anchor regions of a profile page holding portfolio/social/external links
	ProfileLinks string
}

func DefaultSelectors() Selectors {
	return Selectors{
		SearchLink:   ".freelancer-name a, a.freelancer-name",
		ProfileText:  ".profile-description, .portfolio, .experience",
		ProfileLinks: ".portfolio a, .social-links a, .external-links a",
	}
}

type Client struct {
	baseURL   *url.URL
	http      *resty.Client
	selectors Selectors
	// printf template receiving (escaped query, page)
	searchPath string
	// delay window applied to search requests, zero when throttling is off
	searchDelay fetchutil.DelayWindow
}

type ClientOptions struct {
	BaseURL   string
	Selectors Selectors
	// defaults to "/search/freelancers?query=%s&page=%d"
	SearchPath string
	// session cookies exported by the interactive login helper, optional
	Cookies []*http.Cookie
	// disables anti-bot transport and jitter, tests only
	Plain bool
	// optional HTTP exchange dump for debugging selector drift
	Dump restyutil.DumpOutput
}

func NewClient(opts ClientOptions) (*Client, error) {
	baseURL, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	selectors := opts.Selectors
	if selectors == (Selectors{}) {
		selectors = DefaultSelectors()
	}
	searchPath := opts.SearchPath
	if searchPath == "" {
		searchPath = "/search/freelancers?query=%s&page=%d"
	}

	delay := fetchutil.ProfileDelay
	searchDelay := fetchutil.SearchDelay
	if opts.Plain {
		delay = fetchutil.DelayWindow{}
		searchDelay = fetchutil.DelayWindow{}
	}

	http, err := fetchutil.NewClient(fetchutil.Options{
		BaseURL:          opts.BaseURL,
		Delay:            delay,
		Cookies:          opts.Cookies,
		CloudflareBypass: !opts.Plain,
		TracerName:       "devscout.scrapers.freelancer.http",
		Dump:             opts.Dump,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:     baseURL,
		http:        http,
		selectors:   selectors,
		searchPath:  searchPath,
		searchDelay: searchDelay,
	}, nil
}

// SearchPage returns the absolute profile urls of one search result page.
func (c *Client) SearchPage(ctx context.Context, query string, page int) ([]string, error) {
	ctx, span := tracer.Start(ctx, "client:SearchPage")
	defer span.End()
	span.SetAttributes(attribute.Int("page", page))

	ctx = fetchutil.WithDelay(ctx, c.searchDelay)
	path := fmt.Sprintf(c.searchPath, url.QueryEscape(query), page)

	body, err := fetchutil.Do(ctx, c.http, "GET", path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search page fetch failed")
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search page parse failed")
		return nil, err
	}

	links := []string{}
	seen := map[string]bool{}
	for _, anchor := range htmlutil.GetAnchors(ctx, c.baseURL, doc.Find(c.selectors.SearchLink)) {
		if anchor.Href == "" || seen[anchor.Href] {
			continue
		}
		seen[anchor.Href] = true
		links = append(links, anchor.Href)
	}
	return links, nil
}

// Profile is what one marketplace profile page yielded.
type Profile struct {
	// github usernames found in the profile's text or link regions
	Usernames []string
	// emails published directly on the profile
	Emails []string
}

// FetchProfile extracts github usernames and emails from one profile page.
// Text regions and link hrefs both feed the same username set.
func (c *Client) FetchProfile(ctx context.Context, profileURL string) (Profile, error) {
	ctx, span := tracer.Start(ctx, "client:FetchProfile")
	defer span.End()
	span.SetAttributes(attribute.String("url", profileURL))

	body, err := fetchutil.Do(ctx, c.http, "GET", profileURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile fetch failed")
		return Profile{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile parse failed")
		return Profile{}, err
	}

	profile := Profile{}
	seen := map[string]bool{}

	text := htmlutil.SectionText(doc, c.selectors.ProfileText)
	for _, token := range strings.Fields(text) {
		if username, ok := extract.GitHubUsername(token); ok && !seen[username] {
			seen[username] = true
			profile.Usernames = append(profile.Usernames, username)
		}
	}
	profile.Emails = extract.Emails(text)

	for _, anchor := range htmlutil.GetAnchors(ctx, c.baseURL, doc.Find(c.selectors.ProfileLinks)) {
		if username, ok := extract.GitHubUsername(anchor.Href); ok && !seen[username] {
			seen[username] = true
			profile.Usernames = append(profile.Usernames, username)
		}
	}

	return profile, nil
}

// Crawl pages through the search until a page yields zero profile links,
// a page-level fetch fails (treated the same, never retried) or maxPages is
// reached (0 means unbounded). Each visited profile is handed to visit,
// profile-level failures are logged and skipped.
func (c *Client) Crawl(ctx context.Context, query string, maxPages int, visit func(profileURL string, profile Profile)) error {
	ctx, span := tracer.Start(ctx, "client:Crawl")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	visited := map[string]bool{}

	for page := 1; maxPages == 0 || page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		links, err := c.SearchPage(ctx, query, page)
		if err != nil {
			slog.Warn("search page failed, stopping crawl", "page", page, "err", err)
			return nil
		}
		if len(links) == 0 {
			slog.Info("search exhausted", "page", page)
			return nil
		}
		slog.Info("crawling search page", "page", page, "profiles", len(links))

		for _, link := range links {
			if visited[link] {
				continue
			}
			visited[link] = true

			profile, err := c.FetchProfile(ctx, link)
			if err != nil {
				slog.Warn("profile skipped", "url", link, "err", err)
				continue
			}
			visit(link, profile)
		}
	}

	slog.Info("page ceiling reached", "max_pages", maxPages)
	return nil
}
