package variant

import (
	"fmt"
	"net/url"
	"strings"
)

// Kind names how a variant differs from the canonical origin.
type Kind string

// Variant kinds, in probe order.
const (
	KindScheme Kind = "scheme"
	KindWWW    Kind = "www"
	KindBoth   Kind = "scheme+www"
)

// Variant is one alternate origin of the canonical site.
type Variant struct {
	Kind   Kind
	Scheme string
	Host   string
}

// URL returns the root URL of the variant.
func (v Variant) URL() string {
	return v.Scheme + "://" + v.Host + "/"
}

// Derive returns the three variants of canonical: scheme toggled, www
// toggled, and both toggled. Only the scheme and host of canonical are
// used.
func Derive(canonical string) ([]Variant, error) {
	scheme, host, err := splitOrigin(canonical)
	if err != nil {
		return nil, err
	}

	return []Variant{
		{Kind: KindScheme, Scheme: toggleScheme(scheme), Host: host},
		{Kind: KindWWW, Scheme: scheme, Host: toggleWWW(host)},
		{Kind: KindBoth, Scheme: toggleScheme(scheme), Host: toggleWWW(host)},
	}, nil
}

// Origin returns the root URL of canonical's origin, e.g.
// https://example.com/ for https://Example.com/blog/?page=2. Variants are
// expected to redirect there.
func Origin(canonical string) (string, error) {
	scheme, host, err := splitOrigin(canonical)
	if err != nil {
		return "", err
	}
	return scheme + "://" + host + "/", nil
}

func splitOrigin(canonical string) (scheme, host string, err error) {
	u, err := url.Parse(strings.TrimSpace(canonical))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidCanonical, err)
	}
	scheme = strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidCanonical, canonical)
	}
	return scheme, strings.ToLower(u.Host), nil
}

func toggleScheme(scheme string) string {
	if scheme == "https" {
		return "http"
	}
	return "https"
}

func toggleWWW(host string) string {
	if rest, ok := strings.CutPrefix(host, "www."); ok {
		return rest
	}
	return "www." + host
}

// NormalizeTarget lowercases the scheme and host of u and strips one
// trailing slash, so https://Example.com/ and https://example.com compare
// equal.
func NormalizeTarget(u string) string {
	u = strings.TrimSpace(u)
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return strings.TrimSuffix(strings.ToLower(u), "/")
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	return strings.TrimSuffix(parsed.String(), "/")
}

// SameTarget reports whether two URLs name the same redirect target.
func SameTarget(a, b string) bool {
	return NormalizeTarget(a) == NormalizeTarget(b)
}
