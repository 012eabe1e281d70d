package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nao1215/dupscan/internal/boilerplate"
	"github.com/nao1215/dupscan/internal/model"
	"github.com/nao1215/dupscan/internal/redirect"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()

	e, err := New(append([]Option{WithLogger(testLogger())}, opts...)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return e
}

func htmlPage(body string) model.PageFields {
	return model.PageFields{
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		HTML:        "<html><body><main>" + body + "</main></body></html>",
		Depth:       5,
	}
}

const article = "Canonical URLs tell search engines which version of duplicated content should rank."

func countType(findings []model.Finding, ft model.FindingType) int {
	n := 0
	for _, f := range findings {
		if f.Type == ft {
			n++
		}
	}
	return n
}

// fakeProber records calls and returns one finding.
type fakeProber struct {
	calls atomic.Int32
	probe func(ctx context.Context) error
}

func (p *fakeProber) Probe(ctx context.Context, canonical string, _ model.ClientIdentity) ([]model.Finding, error) {
	p.calls.Add(1)
	if p.probe != nil {
		if err := p.probe(ctx); err != nil {
			return nil, err
		}
	}
	return []model.Finding{
		model.NewFinding(model.FindingVariantDuplicateContent, "http://"+canonical, "t", "d", nil),
	}, nil
}

// TestProcessPageExactDuplicates tests the duplicate classification paths.
func TestProcessPageExactDuplicates(t *testing.T) {
	t.Parallel()

	const (
		a = "https://x.example/a"
		b = "https://x.example/b"
	)
	ctx := context.Background()

	t.Run("unrelated duplicate is critical", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t)
		first, err := e.ProcessPage(ctx, "s", a, htmlPage(article))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if countType(first, model.FindingExactDuplicate) != 0 {
			t.Error("first page should not be a duplicate yet")
		}

		second, err := e.ProcessPage(ctx, "s", b, htmlPage(article))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if countType(second, model.FindingExactDuplicate) != 1 {
			t.Fatalf("expected one exact duplicate finding, got %+v", second)
		}
		for _, f := range second {
			if f.Type == model.FindingExactDuplicate && f.Severity != model.SeverityCritical {
				t.Errorf("got %v, expected CRITICAL", f.Severity)
			}
		}
	})

	t.Run("layout-only differences still collide", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t)
		_, _ = e.ProcessPage(ctx, "s", a, htmlPage(article))
		alt := htmlPage("<div>\n  " + strings.ReplaceAll(article, " ", "\n   ") + "<script>track()</script></div>")
		findings, err := e.ProcessPage(ctx, "s", b, alt)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if countType(findings, model.FindingExactDuplicate) != 1 {
			t.Errorf("expected exact duplicate, got %+v", findings)
		}
	})

	t.Run("permanent redirect is suppressed", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t, WithFeed(redirect.StaticFeed([]model.RedirectEdge{
			{Source: a, Target: b, StatusCode: 301},
		})))
		_, _ = e.ProcessPage(ctx, "s", a, htmlPage(article))
		findings, err := e.ProcessPage(ctx, "s", b, htmlPage(article))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(findings) != 0 {
			t.Errorf("expected no findings, got %+v", findings)
		}
	})

	t.Run("temporary redirect is reported", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t, WithFeed(redirect.StaticFeed([]model.RedirectEdge{
			{Source: a, Target: b, StatusCode: 302},
		})))
		_, _ = e.ProcessPage(ctx, "s", a, htmlPage(article))
		findings, err := e.ProcessPage(ctx, "s", b, htmlPage(article))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if countType(findings, model.FindingTemporaryRedirectDuplicate) != 1 {
			t.Errorf("expected temporary redirect duplicate, got %+v", findings)
		}
		if countType(findings, model.FindingExactDuplicate) != 0 {
			t.Error("related pair must not also be an exact duplicate")
		}
	})

	t.Run("failing feed degrades to exact duplicate", func(t *testing.T) {
		t.Parallel()

		feed := redirect.FeedFunc(func(context.Context, string) ([]model.RedirectEdge, error) {
			return nil, errors.New("feed down")
		})
		e := newTestEngine(t, WithFeed(feed))
		_, _ = e.ProcessPage(ctx, "s", a, htmlPage(article))
		findings, err := e.ProcessPage(ctx, "s", b, htmlPage(article))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if countType(findings, model.FindingExactDuplicate) != 1 {
			t.Errorf("expected exact duplicate, got %+v", findings)
		}
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t)
		_, _ = e.ProcessPage(ctx, "s1", a, htmlPage(article))
		findings, _ := e.ProcessPage(ctx, "s2", b, htmlPage(article))
		if len(findings) != 0 {
			t.Errorf("expected no cross-session findings, got %+v", findings)
		}
	})

	t.Run("reprocessing the same url is not a duplicate", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t)
		_, _ = e.ProcessPage(ctx, "s", a, htmlPage(article))
		findings, _ := e.ProcessPage(ctx, "s", strings.ToUpper(a), htmlPage(article))
		if len(findings) != 0 {
			t.Errorf("expected no findings, got %+v", findings)
		}
	})
}

// TestProcessPageSkips tests pages that are not fingerprinted.
func TestProcessPageSkips(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	testCases := []struct {
		name   string
		fields model.PageFields
	}{
		{"non-html", model.PageFields{StatusCode: 200, ContentType: "application/json", HTML: article}},
		{"error status", model.PageFields{StatusCode: 404, ContentType: "text/html", HTML: "<p>" + article + "</p>"}},
		{"empty html", model.PageFields{StatusCode: 200, ContentType: "text/html", HTML: ""}},
		{"no visible text", model.PageFields{StatusCode: 200, ContentType: "text/html", HTML: "<script>x()</script>"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e := newTestEngine(t)
			for _, u := range []string{"https://x.example/1", "https://x.example/2"} {
				findings, err := e.ProcessPage(ctx, "s", u, tc.fields)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(findings) != 0 {
					t.Errorf("expected no findings, got %+v", findings)
				}
			}
			scope, _ := e.registry.Lookup("s")
			if scope.Exact.Len() != 0 || scope.Near.Len() != 0 {
				t.Error("expected nothing registered")
			}
		})
	}

	t.Run("stop-word-only pages are not near-duplicate candidates", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t)
		_, _ = e.ProcessPage(ctx, "s", "https://x.example/1", htmlPage("the and for"))
		findings, _ := e.ProcessPage(ctx, "s", "https://x.example/2", htmlPage("with from this"))

		if countType(findings, model.FindingNearDuplicate) != 0 {
			t.Errorf("expected no near duplicates, got %+v", findings)
		}
		scope, _ := e.registry.Lookup("s")
		if scope.Near.Len() != 0 {
			t.Errorf("expected sentinel pages to stay out of the near index, got %d", scope.Near.Len())
		}
		if scope.Exact.Len() != 2 {
			t.Errorf("expected both pages to have exact fingerprints, got %d", scope.Exact.Len())
		}
	})
}

// TestProcessPageNearDuplicates tests near-duplicate reporting.
func TestProcessPageNearDuplicates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	const guide = "Canonical URLs tell search engines which version of duplicated content should rank. " +
		"When several addresses serve the same article, ranking signals are split between them and crawl budget is wasted on copies. " +
		"Permanent redirects consolidate those signals onto one address, while temporary redirects leave both versions competing in the index. " +
		"Audit every protocol and hostname variant, point internal links at the preferred address, and keep sitemaps limited to canonical pages."

	t.Run("one trailing sentence is a near duplicate", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t)
		first, err := e.ProcessPage(ctx, "s", "https://x.example/guide", htmlPage("<p>"+guide+"</p>"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(first) != 0 {
			t.Errorf("expected no findings for the first page, got %+v", first)
		}

		findings, err := e.ProcessPage(ctx, "s", "https://x.example/guide-print",
			htmlPage("<p>"+guide+"</p><p>Questions? Contact support.</p>"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if countType(findings, model.FindingExactDuplicate) != 0 {
			t.Errorf("expected no exact duplicate, got %+v", findings)
		}
		if countType(findings, model.FindingNearDuplicate) != 1 {
			t.Fatalf("expected one near duplicate, got %+v", findings)
		}

		for _, f := range findings {
			if f.Type != model.FindingNearDuplicate {
				continue
			}
			detail, ok := f.Detail.(model.NearDuplicateDetail)
			if !ok {
				t.Fatalf("got detail %T, expected NearDuplicateDetail", f.Detail)
			}
			if len(detail.Matches) != 1 {
				t.Fatalf("got %d matches, expected 1", len(detail.Matches))
			}
			best := detail.Matches[0]
			if best.URL != "https://x.example/guide" {
				t.Errorf("got %q, expected %q", best.URL, "https://x.example/guide")
			}
			if best.Similarity < 95 {
				t.Errorf("got similarity %.2f, expected at least 95", best.Similarity)
			}
		}
	})

	t.Run("unrelated pages are not near duplicates", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t)
		_, _ = e.ProcessPage(ctx, "s", "https://x.example/guide", htmlPage("<p>"+guide+"</p>"))
		findings, err := e.ProcessPage(ctx, "s", "https://x.example/other", htmlPage("<p>"+article+"</p>"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if countType(findings, model.FindingNearDuplicate) != 0 {
			t.Errorf("expected no near duplicate, got %+v", findings)
		}
	})
}

// TestProcessPageProbe tests the once-per-session variant probe.
func TestProcessPageProbe(t *testing.T) {
	t.Parallel()

	t.Run("fires exactly once under concurrency", func(t *testing.T) {
		t.Parallel()

		prober := &fakeProber{}
		e := newTestEngine(t, WithProber(prober))

		var wg sync.WaitGroup
		var variantFindings atomic.Int32
		for i := range 32 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				fields := htmlPage(fmt.Sprintf("unique page %d body text", i))
				fields.BaseURL = "https://x.example"
				findings, err := e.ProcessPage(context.Background(), "s", fmt.Sprintf("https://x.example/%d", i), fields)
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				variantFindings.Add(int32(countType(findings, model.FindingVariantDuplicateContent)))
			}()
		}
		wg.Wait()

		if prober.calls.Load() != 1 {
			t.Errorf("expected 1 probe, got %d", prober.calls.Load())
		}
		if variantFindings.Load() != 1 {
			t.Errorf("expected variant findings once, got %d", variantFindings.Load())
		}
	})

	t.Run("cancelled probe is retried by a later page", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		prober := &fakeProber{}
		prober.probe = func(probeCtx context.Context) error {
			if prober.calls.Load() == 1 {
				cancel()
				return probeCtx.Err()
			}
			return nil
		}
		e := newTestEngine(t, WithProber(prober))

		fields := htmlPage(article)
		fields.BaseURL = "https://x.example"

		findings, err := e.ProcessPage(ctx, "s", "https://x.example/a", fields)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if findings != nil {
			t.Errorf("expected no findings, got %+v", findings)
		}

		findings, err = e.ProcessPage(context.Background(), "s", "https://x.example/b", fields)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if countType(findings, model.FindingVariantDuplicateContent) != 1 {
			t.Errorf("expected the probe to run again, got %+v", findings)
		}
		if prober.calls.Load() != 2 {
			t.Errorf("expected 2 probe calls, got %d", prober.calls.Load())
		}
	})

	t.Run("probe failure does not fail the page", func(t *testing.T) {
		t.Parallel()

		prober := &fakeProber{probe: func(context.Context) error { return errors.New("bad origin") }}
		e := newTestEngine(t, WithProber(prober))

		fields := htmlPage(article)
		fields.BaseURL = "https://x.example"
		if _, err := e.ProcessPage(context.Background(), "s", "https://x.example/a", fields); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, _ = e.ProcessPage(context.Background(), "s", "https://x.example/b", fields)
		if prober.calls.Load() != 1 {
			t.Errorf("expected no retry after a non-cancellation failure, got %d calls", prober.calls.Load())
		}
	})
}

func TestProcessPageBoilerplate(t *testing.T) {
	t.Parallel()

	chrome := strings.Repeat("menu item link ", 20)
	fields := model.PageFields{
		StatusCode:  200,
		ContentType: "text/html",
		HTML:        "<body><nav>" + chrome + "</nav><p>short body</p><footer>" + chrome + "</footer></body>",
	}

	t.Run("shallow page is analyzed", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t)
		fields := fields
		fields.Depth = 1
		findings, _ := e.ProcessPage(context.Background(), "s", "https://x.example/", fields)
		if countType(findings, model.FindingBoilerplate) != 1 {
			t.Errorf("expected boilerplate finding, got %+v", findings)
		}
	})

	t.Run("deep page is not analyzed", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t)
		fields := fields
		fields.Depth = 3
		findings, _ := e.ProcessPage(context.Background(), "s", "https://x.example/", fields)
		if countType(findings, model.FindingBoilerplate) != 0 {
			t.Errorf("expected no boilerplate finding, got %+v", findings)
		}
	})

	t.Run("can be disabled", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t, WithBoilerplate(nil))
		fields := fields
		fields.Depth = 0
		findings, _ := e.ProcessPage(context.Background(), "s", "https://x.example/", fields)
		if countType(findings, model.FindingBoilerplate) != 0 {
			t.Errorf("expected no boilerplate finding, got %+v", findings)
		}
	})

	t.Run("custom analyzer threshold", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t, WithBoilerplate(boilerplate.NewAnalyzer(boilerplate.WithMinRatio(0.01))))
		fields := fields
		fields.Depth = 0
		findings, _ := e.ProcessPage(context.Background(), "s", "https://x.example/", fields)
		if countType(findings, model.FindingBoilerplate) != 0 {
			t.Errorf("expected no boilerplate finding, got %+v", findings)
		}
	})
}

// TestCleanup tests session teardown.
func TestCleanup(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	ctx := context.Background()

	_, _ = e.ProcessPage(ctx, "s", "https://x.example/a", htmlPage(article))
	if e.Sessions() != 1 {
		t.Fatalf("expected 1 session, got %d", e.Sessions())
	}

	e.Cleanup("s")
	e.Cleanup("s")
	if e.Sessions() != 0 {
		t.Errorf("expected 0 sessions, got %d", e.Sessions())
	}

	findings, err := e.ProcessPage(ctx, "s", "https://x.example/b", htmlPage(article))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("expected fresh session state after cleanup, got %+v", findings)
	}
}

func TestProcessPageCancelled(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	findings, err := e.ProcessPage(ctx, "s", "https://x.example/a", htmlPage(article))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if findings != nil {
		t.Errorf("expected no findings, got %+v", findings)
	}
}

// TestProcessPageConcurrentRegistration tests that concurrent pages lose
// no registrations and the duplicate set is detected.
func TestProcessPageConcurrentRegistration(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	const pages = 64

	var wg sync.WaitGroup
	var duplicates atomic.Int32
	for i := range pages {
		wg.Add(1)
		go func() {
			defer wg.Done()
			findings, err := e.ProcessPage(context.Background(), "s",
				fmt.Sprintf("https://x.example/p%d", i), htmlPage(article))
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			duplicates.Add(int32(countType(findings, model.FindingExactDuplicate)))
		}()
	}
	wg.Wait()

	scope, ok := e.registry.Lookup("s")
	if !ok {
		t.Fatal("expected session to exist")
	}
	if scope.Exact.URLCount() != pages {
		t.Errorf("expected %d registrations, got %d", pages, scope.Exact.URLCount())
	}
	if duplicates.Load() < pages-1 {
		// Every page after the first sees at least one earlier registration.
		t.Errorf("expected at least %d duplicate findings, got %d", pages-1, duplicates.Load())
	}
}
