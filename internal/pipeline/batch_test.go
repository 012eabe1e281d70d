package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/dupscan/internal/model"
)

// fakeProcessor is a PageProcessor that records calls.
type fakeProcessor struct {
	mu       sync.Mutex
	calls    []string
	inflight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
	process  func(ctx context.Context, url string) ([]model.Finding, error)
}

func (f *fakeProcessor) ProcessPage(ctx context.Context, _, url string, _ model.PageFields) ([]model.Finding, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.process != nil {
		return f.process(ctx, url)
	}
	return []model.Finding{model.NewFinding(model.FindingBoilerplate, url, "t", "d", nil)}, nil
}

func testPages(n int) []model.Page {
	pages := make([]model.Page, n)
	for i := range pages {
		pages[i] = model.Page{URL: fmt.Sprintf("https://example.com/%d", i)}
	}
	return pages
}

// TestPageBatch tests concurrent page processing.
func TestPageBatch(t *testing.T) {
	t.Parallel()

	t.Run("processes all pages in order", func(t *testing.T) {
		t.Parallel()

		proc := &fakeProcessor{}
		pb := NewPageBatch(proc, WithConcurrency(4), WithBatchLogger(testLogger()))

		results, err := pb.ProcessPages(context.Background(), "s", testPages(20))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 20 {
			t.Fatalf("expected 20 results, got %d", len(results))
		}
		for i, r := range results {
			expected := fmt.Sprintf("https://example.com/%d", i)
			if r.URL != expected {
				t.Errorf("result[%d]: got %q, expected %q", i, r.URL, expected)
			}
			if len(r.Findings) != 1 {
				t.Errorf("result[%d]: expected 1 finding, got %d", i, len(r.Findings))
			}
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		proc := &fakeProcessor{delay: 5 * time.Millisecond}
		pb := NewPageBatch(proc, WithConcurrency(2), WithBatchLogger(testLogger()))

		if _, err := pb.ProcessPages(context.Background(), "s", testPages(10)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if peak := proc.peak.Load(); peak > 2 {
			t.Errorf("expected at most 2 concurrent pages, got %d", peak)
		}
	})

	t.Run("default concurrency", func(t *testing.T) {
		t.Parallel()

		pb := NewPageBatch(&fakeProcessor{}, WithConcurrency(0))
		if pb.concurrency != DefaultConcurrency {
			t.Errorf("expected %d, got %d", DefaultConcurrency, pb.concurrency)
		}
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		proc := &fakeProcessor{process: func(ctx context.Context, url string) ([]model.Finding, error) {
			if url == "https://example.com/0" {
				cancel()
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, nil
		}}
		pb := NewPageBatch(proc, WithConcurrency(1), WithBatchLogger(testLogger()))

		results, err := pb.ProcessPages(ctx, "s", testPages(50))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(proc.calls) >= 50 {
			t.Errorf("expected remaining pages to be skipped, got %d calls", len(proc.calls))
		}
		if results[0].Err == nil {
			t.Error("expected first page to carry the cancellation error")
		}
	})

	t.Run("callback sees every page once", func(t *testing.T) {
		t.Parallel()

		pb := NewPageBatch(&fakeProcessor{}, WithConcurrency(3), WithBatchLogger(testLogger()))

		var mu sync.Mutex
		seen := make(map[int]int)
		err := pb.ProcessPagesWithCallback(context.Background(), "s", testPages(12), func(_ PageResult, i int) {
			mu.Lock()
			seen[i]++
			mu.Unlock()
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(seen) != 12 {
			t.Errorf("expected 12 indexes, got %d", len(seen))
		}
		for i, n := range seen {
			if n != 1 {
				t.Errorf("index %d seen %d times", i, n)
			}
		}
	})
}

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	bp := NewBatchProcessor(func() *Pipeline { return New() })
	if bp.concurrency != DefaultConcurrency {
		t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
	}

	bp = NewBatchProcessor(func() *Pipeline { return New() }, WithConcurrency(5), WithBatchLogger(nil))
	if bp.concurrency != 5 {
		t.Errorf("expected concurrency 5, got %d", bp.concurrency)
	}
	if bp.logger == nil {
		t.Error("expected non-nil logger")
	}
}

// TestBatchProcessorProcessBatch tests batch processing of inputs.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("processes all inputs and keeps order", func(t *testing.T) {
		t.Parallel()

		factory := func() *Pipeline {
			p := New(WithLogger(testLogger()))
			p.AddStep(&mockStep{name: "name", doFunc: func(_ context.Context, r *model.SessionReport) error {
				r.SessionID = "session-" + r.Source
				return nil
			}})
			return p
		}
		bp := NewBatchProcessor(factory, WithConcurrency(2), WithBatchLogger(testLogger()))

		inputs := []string{"a.json", "b.json", "c.json"}
		reports, err := bp.ProcessBatch(context.Background(), inputs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, r := range reports {
			if r.Source != inputs[i] || r.SessionID != "session-"+inputs[i] {
				t.Errorf("report[%d]: got %q/%q", i, r.Source, r.SessionID)
			}
		}
	})

	t.Run("failed input does not stop the batch", func(t *testing.T) {
		t.Parallel()

		factory := func() *Pipeline {
			p := New(WithLogger(testLogger()))
			p.AddStep(&mockStep{name: "fail-b", doFunc: func(_ context.Context, r *model.SessionReport) error {
				if r.Source == "b.json" {
					return errors.New("bad export")
				}
				return nil
			}})
			return p
		}
		bp := NewBatchProcessor(factory, WithBatchLogger(testLogger()))

		reports, err := bp.ProcessBatch(context.Background(), []string{"a.json", "b.json", "c.json"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reports[1].ErrorMessage != "bad export" {
			t.Errorf("expected error in report, got %q", reports[1].ErrorMessage)
		}
		if reports[0].ErrorMessage != "" || reports[2].ErrorMessage != "" {
			t.Error("expected other inputs to succeed")
		}
	})

	t.Run("cancelled batch returns context error", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bp := NewBatchProcessor(func() *Pipeline { return New(WithLogger(testLogger())) }, WithBatchLogger(testLogger()))
		_, err := bp.ProcessBatch(ctx, []string{"a.json"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
