package redirect

import (
	"context"

	"github.com/nao1215/dupscan/internal/model"
)

// Feed supplies the redirect edges the crawler observed for a session.
type Feed interface {
	Redirects(ctx context.Context, sessionID string) ([]model.RedirectEdge, error)
}

// FeedFunc adapts an ordinary function to Feed.
type FeedFunc func(ctx context.Context, sessionID string) ([]model.RedirectEdge, error)

// Redirects implements Feed.
func (f FeedFunc) Redirects(ctx context.Context, sessionID string) ([]model.RedirectEdge, error) {
	return f(ctx, sessionID)
}

// StaticFeed returns a Feed that reports the same edges for every session.
func StaticFeed(edges []model.RedirectEdge) Feed {
	return FeedFunc(func(context.Context, string) ([]model.RedirectEdge, error) {
		return edges, nil
	})
}
