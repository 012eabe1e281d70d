// Package boilerplate measures how much of a page's text is its own
// content rather than site chrome such as headers, footers and navigation.
package boilerplate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/dupscan/internal/model"
)

const (
	// DefaultMaxDepth is the deepest crawl depth that is analyzed. Template
	// pages near the root are where thin content hurts most.
	DefaultMaxDepth = 2

	// DefaultMinRatio is the main-content ratio below which a page is
	// reported.
	DefaultMinRatio = 0.4
)

// hiddenSelector matches markup that never renders as text.
const hiddenSelector = "script, style, svg, iframe, noscript, template"

// chromeSelector matches page chrome, by element and by landmark role.
const chromeSelector = "header, footer, nav, aside, " +
	"[role=banner], [role=navigation], [role=contentinfo], [role=complementary]"

// Result is the measured text split of one page.
type Result struct {
	// MainLength is the number of visible characters outside chrome.
	MainLength int
	// TotalLength is the number of visible characters on the page.
	TotalLength int
}

// Ratio returns MainLength / TotalLength, or 1 for a page without text.
func (r Result) Ratio() float64 {
	if r.TotalLength == 0 {
		return 1
	}
	return float64(r.MainLength) / float64(r.TotalLength)
}

// Analyzer reports boilerplate-heavy pages.
type Analyzer struct {
	maxDepth int
	minRatio float64
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMaxDepth sets the deepest analyzed crawl depth.
func WithMaxDepth(depth int) Option {
	return func(a *Analyzer) {
		if depth >= 0 {
			a.maxDepth = depth
		}
	}
}

// WithMinRatio sets the reporting threshold.
func WithMinRatio(ratio float64) Option {
	return func(a *Analyzer) {
		if ratio > 0 && ratio <= 1 {
			a.minRatio = ratio
		}
	}
}

// NewAnalyzer creates an Analyzer with default thresholds.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		maxDepth: DefaultMaxDepth,
		minRatio: DefaultMinRatio,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Measure splits the visible text of markup into main content and chrome.
// Whitespace is not counted, so layout differences do not move the ratio.
func Measure(markup string) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(hiddenSelector).Remove()
	total := countVisible(doc.Text())

	doc.Find(chromeSelector).Remove()
	main := countVisible(doc.Text())

	return Result{MainLength: main, TotalLength: total}, nil
}

func countVisible(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// Analyze returns a finding when a page at depth has too little main
// content. Pages deeper than the configured depth and pages without text
// are skipped.
func (a *Analyzer) Analyze(url, markup string, depth int) (model.Finding, bool, error) {
	if depth > a.maxDepth {
		return model.Finding{}, false, nil
	}

	res, err := Measure(markup)
	if err != nil {
		return model.Finding{}, false, err
	}
	if res.TotalLength == 0 {
		return model.Finding{}, false, nil
	}

	ratio := res.Ratio()
	if ratio >= a.minRatio {
		return model.Finding{}, false, nil
	}

	score := (1 - ratio) * 100
	return model.NewFinding(
		model.FindingBoilerplate,
		url,
		"Boilerplate-Heavy Page",
		fmt.Sprintf("Only %.0f%% of the page text is main content (boilerplate score %.0f)", ratio*100, score),
		model.BoilerplateDetail{
			Ratio:      ratio,
			Score:      score,
			MainLength: res.MainLength,
			TotalLen:   res.TotalLength,
		},
	), true, nil
}
