// Package extract holds the pure pattern matchers used by both scraping
// pipelines. No I/O happens here, the output depends solely on the input.
package extract

import (
	"net/url"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// Emails returns every non-overlapping email-shaped token in text, in order
// of appearance. The slice is empty (never nil-checked by callers) when
// nothing matches.
func Emails(text string) []string {
	return emailRegex.FindAllString(text, -1)
}

var usernameSegment = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// GitHubUsername pulls the username out of a github profile or repository
// url. Scheme and host are matched case-insensitively, a "www." prefix is
// tolerated, anything after the username segment is ignored. Punctuation
// wrapped around a url quoted in prose is stripped before parsing.
//
// Scheme-less input ("github.com/foo") is rejected on purpose: bare host
// strings in scraped text are too often substrings of something else.
//
// A fresh parse happens on every call, repeated invocations share no state.
func GitHubUsername(rawurl string) (string, bool) {
	rawurl = strings.TrimSpace(rawurl)
	// urls embedded in prose carry sentence punctuation and wrapping
	// brackets that are not part of the url
	rawurl = strings.Trim(rawurl, `<>"'`)
	rawurl = strings.TrimLeft(rawurl, "(")
	rawurl = strings.TrimRight(rawurl, ".,;:!?)")
	if rawurl == "" {
		return "", false
	}

	u, err := url.Parse(rawurl)
	if err != nil {
		return "", false
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host != "github.com" {
		return "", false
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "", false
	}
	username := segments[0]
	if !usernameSegment.MatchString(username) {
		return "", false
	}

	return username, true
}

const noReplyDomain = "noreply.github.com"

// IsNoReply reports whether email is a github placeholder address
// (e.g. "12345+user@users.noreply.github.com"). Such addresses are not
// deliverable and must never reach the output artifact.
func IsNoReply(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	return domain == noReplyDomain || strings.HasSuffix(domain, "."+noReplyDomain)
}
