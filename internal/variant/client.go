package variant

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// DefaultTimeout bounds each variant request.
const DefaultTimeout = 10 * time.Second

// ClientOptions configures NewHTTPClient.
type ClientOptions struct {
	// Timeout is the overall per-request timeout.
	Timeout time.Duration

	// ProxyAddress routes requests through a SOCKS5 proxy ("host:port").
	// Empty means a direct connection.
	ProxyAddress string
}

// NewHTTPClient creates the HTTP client used for variant probes.
//
// Design decisions:
//   - Redirects are never followed: the first response is what we classify
//   - TLS verification is disabled so a variant with a broken certificate
//     is still classified by its redirect, not reported as unreachable
//   - Keep-alives are off because each origin is contacted once
func NewHTTPClient(opts ClientOptions) (*http.Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	dialer := &net.Dialer{Timeout: timeout}
	transport := &http.Transport{
		DialContext: dialer.DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // Variants are classified, not trusted
		},
		DisableKeepAlives:     true,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
	}

	if opts.ProxyAddress != "" {
		if !isValidProxyAddress(opts.ProxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		socks, err := proxy.SOCKS5("tcp", opts.ProxyAddress, nil, dialer)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.DialContext = contextDialer(socks)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}

// contextDialer uses the dialer's DialContext when it has one.
func contextDialer(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}
}

// isValidProxyAddress checks if the address is in valid "host:port" format.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}
