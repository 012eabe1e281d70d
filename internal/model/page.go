package model

import (
	"mime"
	"net/http"
	"strings"
)

// PageFields is everything the engine needs to know about one fetched page.
// The crawler fills it; the engine never fetches pages itself.
//
// Design decision: We pass a plain struct rather than the crawler's own
// response type because:
// 1. The engine stays independent of any particular fetch pipeline
// 2. Pages can be replayed from a crawl export or the database
// 3. Tests can build pages without an HTTP server
type PageFields struct {
	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type of the response.
	ContentType string `json:"content_type"`

	// HTML is the rendered page markup.
	HTML string `json:"html"`

	// Headers contains the HTTP response headers.
	Headers map[string][]string `json:"headers,omitempty"`

	// Depth is the crawl depth at which the page was discovered.
	// The start page has depth 0.
	Depth int `json:"depth"`

	// BaseURL is the canonical origin of the crawl (scheme://host).
	BaseURL string `json:"base_url"`

	// Client is the identity the crawler used. Variant probes reuse it.
	Client ClientIdentity `json:"client"`
}

// ClientIdentity is the request identity shared by the crawler and the
// variant prober.
type ClientIdentity struct {
	// UserAgent is sent as the User-Agent header.
	UserAgent string `json:"user_agent,omitempty"`

	// Headers are extra request headers, e.g. Accept-Language.
	Headers map[string]string `json:"headers,omitempty"`
}

// IsHTML reports whether the page is a successful HTML response.
// Only such pages are fingerprinted.
func (p PageFields) IsHTML() bool {
	if p.StatusCode < http.StatusOK || p.StatusCode >= http.StatusMultipleChoices {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(p.ContentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(p.ContentType))
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// HasContent reports whether the page carries any markup at all.
func (p PageFields) HasContent() bool {
	return strings.TrimSpace(p.HTML) != ""
}

// Page is a stored page row: a URL plus its fields.
type Page struct {
	URL    string     `json:"url"`
	Fields PageFields `json:"fields"`
}
