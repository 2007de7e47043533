package render

import (
	"context"
	"time"
)

// Response is one network response seen by a page. Body is read lazily so
// filtering on URL/status/content type stays cheap.
type Response struct {
	URL         string
	Status      int
	ContentType string
	Body        func() ([]byte, error)
}

// Page is one isolated browsing session. The caller that opened it must
// Close it.
type Page interface {
	OnResponse(fn func(Response))
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	Content() (string, error)
	Screenshot() ([]byte, error)
	Evaluate(expr string) (any, error)
	ClickIfVisible(selector string, timeout time.Duration) (bool, error)
	Close() error
}

// Browser hands out pages. Its own lifecycle belongs to whoever built it.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}
