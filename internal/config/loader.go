package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is the configuration file name looked up in the
	// working and home directories.
	DefaultConfigFile = ".dupscan"

	// XDGConfigFile is the configuration file name inside XDGConfigDir.
	XDGConfigFile = "config.yaml"
)

var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidSiteConfig is returned when a site entry cannot be used.
	ErrInvalidSiteConfig = errors.New("invalid site configuration")
)

// LoadConfigFile loads site configurations from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
//
// Site keys are reduced to lowercase host names, so "https://Example.com:443"
// and "example.com" name the same site. Canonical overrides must be absolute
// http or https URLs.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var raw File
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := checkCanonical("defaults", raw.Defaults.Canonical); err != nil {
		return nil, err
	}

	cf := &File{
		Defaults: raw.Defaults,
		Sites:    make(map[string]SiteConfig, len(raw.Sites)),
	}
	for key, site := range raw.Sites {
		host := siteKey(key)
		if host == "" {
			return nil, fmt.Errorf("%w: site key %q is not a host name", ErrInvalidSiteConfig, key)
		}
		if _, dup := cf.Sites[host]; dup {
			return nil, fmt.Errorf("%w: host %q is configured twice", ErrInvalidSiteConfig, host)
		}
		if err := checkCanonical(host, site.Canonical); err != nil {
			return nil, err
		}
		cf.Sites[host] = site
	}

	return cf, nil
}

// siteKey turns a configured site key into a lowercase host name.
// Keys may be written as bare hosts or as URLs.
func siteKey(key string) string {
	key = strings.TrimSpace(key)
	if !strings.Contains(key, "://") {
		key = "http://" + key
	}
	return strings.ToLower(HostOf(key))
}

func checkCanonical(owner, canonical string) error {
	if canonical == "" {
		return nil
	}
	u, err := url.Parse(canonical)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %s: canonical %q must be an absolute http(s) URL",
			ErrInvalidSiteConfig, owner, canonical)
	}
	return nil
}

// FindConfigFile returns the configuration file to use, or "" if there is
// none. An explicit configPath is used only if it exists. Otherwise the
// first existing file wins, in this order:
//  1. .dupscan in the current directory
//  2. config.yaml in XDGConfigDir
//  3. .dupscan in the user's home directory
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if fileExists(configPath) {
			return configPath
		}
		return ""
	}

	for _, candidate := range searchPaths() {
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

func searchPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	paths = append(paths, filepath.Join(XDGConfigDir(), XDGConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return paths
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
