package config

import (
	"maps"
	"net/url"
	"strings"

	"github.com/nao1215/dupscan/internal/model"
)

// SiteConfig holds site-specific settings for one host.
type SiteConfig struct {
	// UserAgent is sent with variant probes for this site.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Cookie is an HTTP cookie sent with variant probes.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers sent with variant probes.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Canonical overrides the canonical origin the crawl started from,
	// e.g. "https://www.example.com".
	Canonical string `yaml:"canonical,omitempty"`

	// Probe disables the variant probe for this site when set to false.
	Probe *bool `yaml:"probe,omitempty"`
}

// File represents the structure of the .dupscan configuration file.
type File struct {
	// Sites maps host names to their site-specific configurations.
	// Keys are host names without scheme (e.g., "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults is applied to all sites unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for host merged over the
// defaults. Host lookup ignores case.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	siteConfig, ok := cf.Sites[host]
	if !ok {
		for k, v := range cf.Sites {
			if strings.EqualFold(k, host) {
				siteConfig, ok = v, true
				break
			}
		}
	}
	if !ok {
		return result
	}

	if siteConfig.UserAgent != "" {
		result.UserAgent = siteConfig.UserAgent
	}
	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.Canonical != "" {
		result.Canonical = siteConfig.Canonical
	}
	if siteConfig.Probe != nil {
		result.Probe = siteConfig.Probe
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}

	return result
}

// ProbeEnabled reports whether variant probing is allowed for the site.
func (s SiteConfig) ProbeEnabled() bool {
	return s.Probe == nil || *s.Probe
}

// Apply fills the page's client identity and canonical origin from the
// site settings. Values already present on the page win over the file,
// except Canonical which is an explicit override.
func (s SiteConfig) Apply(fields model.PageFields, fallbackUserAgent string) model.PageFields {
	if s.Canonical != "" {
		fields.BaseURL = s.Canonical
	}
	if !s.ProbeEnabled() {
		fields.BaseURL = ""
	}

	client := fields.Client
	if client.UserAgent == "" {
		client.UserAgent = s.UserAgent
	}
	if client.UserAgent == "" {
		client.UserAgent = fallbackUserAgent
	}

	headers := maps.Clone(s.Headers)
	if s.Cookie != "" {
		if headers == nil {
			headers = make(map[string]string)
		}
		headers["Cookie"] = s.Cookie
	}
	if len(headers) > 0 {
		maps.Copy(headers, client.Headers)
		client.Headers = headers
	}
	fields.Client = client

	return fields
}

// HostOf returns the host of rawURL without port, or "" if it does not parse.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
