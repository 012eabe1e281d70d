package model

import (
	"net/http"
	"strings"
)

// RedirectEdge is one hop observed by the crawler.
// A chain A -> B -> C is reported as edges with the same Source and
// increasing Position, or as one edge per hop, depending on the feed.
type RedirectEdge struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	StatusCode int    `json:"status_code"`
	Position   int    `json:"position"`
}

// IsPermanent reports whether the hop is a 301 or 308.
func (e RedirectEdge) IsPermanent() bool {
	return IsPermanentRedirect(e.StatusCode)
}

// IsPermanentRedirect reports whether code is 301 Moved Permanently or
// 308 Permanent Redirect.
func IsPermanentRedirect(code int) bool {
	return code == http.StatusMovedPermanently || code == http.StatusPermanentRedirect
}

// IsRedirect reports whether code is any 3xx status.
func IsRedirect(code int) bool {
	return code >= http.StatusMultipleChoices && code < http.StatusBadRequest
}

// URLKey folds a URL for identity comparison. URLs that differ only in
// case or surrounding whitespace are the same page.
func URLKey(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}
