package variant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/dupscan/internal/model"
)

// maxDrain is how much of a response body is read before closing it.
const maxDrain = 64 * 1024

// Doer sends a single HTTP request. *http.Client implements it. The
// client must not follow redirects.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Outcome is the classification of one variant response.
type Outcome struct {
	Variant    Variant
	Type       model.FindingType
	StatusCode int
	Location   string
	Err        error
}

// Prober runs variant probes.
type Prober struct {
	client  Doer
	timeout time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithTimeout sets the per-variant timeout.
func WithTimeout(timeout time.Duration) ProberOption {
	return func(p *Prober) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithRateLimit spaces variant requests to at most rps per second across
// all sessions sharing the prober. Zero disables limiting.
func WithRateLimit(rps float64) ProberOption {
	return func(p *Prober) {
		if rps > 0 {
			p.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ProberOption {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProber creates a prober that sends requests with client.
func NewProber(client Doer, opts ...ProberOption) *Prober {
	p := &Prober{
		client:  client,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe derives the variants of canonical, probes each one and returns
// one finding per variant. If ctx is cancelled the probe stops and
// returns no findings with the context error.
func (p *Prober) Probe(ctx context.Context, canonical string, identity model.ClientIdentity) ([]model.Finding, error) {
	variants, err := Derive(canonical)
	if err != nil {
		return nil, err
	}
	return p.ProbeVariants(ctx, canonical, variants, identity)
}

// ProbeVariants probes the given variants of canonical. A permanent
// redirect is correct when it targets the origin of canonical; any path
// on canonical is ignored.
func (p *Prober) ProbeVariants(ctx context.Context, canonical string, variants []Variant, identity model.ClientIdentity) ([]model.Finding, error) {
	origin, err := Origin(canonical)
	if err != nil {
		return nil, err
	}

	findings := make([]model.Finding, 0, len(variants))
	for _, v := range variants {
		outcome := p.probeOne(ctx, origin, v.URL(), identity)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcome.Variant = v
		findings = append(findings, outcome.Finding(origin))

		p.logger.Debug("variant probed",
			"variant", v.URL(),
			"outcome", string(outcome.Type),
			"status", outcome.StatusCode)
	}
	return findings, nil
}

// probeOne requests target once and classifies the response.
func (p *Prober) probeOne(ctx context.Context, canonical, target string, identity model.ClientIdentity) Outcome {
	if p.limiter != nil {
		// Wait fails early when the next slot is past the deadline of ctx.
		// Nothing was sent, so the variant ran out of time.
		if err := p.limiter.Wait(ctx); err != nil {
			return Outcome{Type: model.FindingVariantTimeout, Err: err}
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return Outcome{Type: model.FindingVariantUnreachable, Err: err}
	}
	for k, v := range identity.Headers {
		req.Header.Set(k, v)
	}
	if identity.UserAgent != "" {
		req.Header.Set("User-Agent", identity.UserAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return Outcome{Type: model.FindingVariantTimeout, Err: err}
		}
		return Outcome{Type: model.FindingVariantUnreachable, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	location := ""
	if loc, err := resp.Location(); err == nil {
		location = loc.String()
	}

	return Outcome{
		Type:       Classify(resp.StatusCode, location, canonical),
		StatusCode: resp.StatusCode,
		Location:   location,
	}
}

// Classify maps a variant response to a finding type. A permanent
// redirect is correct when location is the origin of canonical.
func Classify(statusCode int, location, canonical string) model.FindingType {
	if origin, err := Origin(canonical); err == nil {
		canonical = origin
	}

	switch {
	case model.IsPermanentRedirect(statusCode):
		if location != "" && SameTarget(location, canonical) {
			return model.FindingVariantCorrect
		}
		return model.FindingVariantWrongTarget
	case model.IsRedirect(statusCode):
		return model.FindingVariantWrongRedirect
	case statusCode == http.StatusOK:
		return model.FindingVariantDuplicateContent
	default:
		return model.FindingVariantUnexpectedStatus
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Finding renders the outcome.
func (o Outcome) Finding(canonical string) model.Finding {
	detail := model.VariantDetail{
		Variant:    o.Variant.URL(),
		Canonical:  canonical,
		StatusCode: o.StatusCode,
		Location:   o.Location,
	}
	if o.Err != nil {
		detail.Error = o.Err.Error()
	}

	title, description := describe(o, canonical)
	return model.NewFinding(o.Type, o.Variant.URL(), title, description, detail)
}

func describe(o Outcome, canonical string) (string, string) {
	v := o.Variant.URL()
	switch o.Type {
	case model.FindingVariantCorrect:
		return "Variant Redirects Correctly",
			fmt.Sprintf("%s permanently redirects to %s", v, canonical)
	case model.FindingVariantWrongTarget:
		return "Variant Redirects to Wrong Target",
			fmt.Sprintf("%s redirects with %d to %q instead of %s", v, o.StatusCode, o.Location, canonical)
	case model.FindingVariantWrongRedirect:
		return "Variant Uses Temporary Redirect",
			fmt.Sprintf("%s redirects with %d; use 301 or 308", v, o.StatusCode)
	case model.FindingVariantDuplicateContent:
		return "Variant Serves Duplicate Content",
			fmt.Sprintf("%s answers 200 instead of redirecting to %s", v, canonical)
	case model.FindingVariantTimeout:
		return "Variant Timed Out",
			fmt.Sprintf("%s did not respond in time", v)
	case model.FindingVariantUnreachable:
		return "Variant Unreachable",
			fmt.Sprintf("%s could not be reached", v)
	default:
		return "Variant Returned Unexpected Status",
			fmt.Sprintf("%s answered %d", v, o.StatusCode)
	}
}
