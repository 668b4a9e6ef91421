package output

import (
	"context"

	"schoolbus-uitest/internal/domain/entity"
)

// BrowserSession is one isolated browser, owned by a single scenario run.
type BrowserSession interface {
	Navigate(ctx context.Context, url string) error
	Fill(ctx context.Context, loc entity.Locator, text string) error
	Click(ctx context.Context, loc entity.Locator) error

	CurrentURL(ctx context.Context) (string, error)
	ClearCookies(ctx context.Context) error
	Snapshot(ctx context.Context) (*entity.PageSnapshot, error)

	Close() error
}

type SessionFactory interface {
	NewSession(ctx context.Context) (BrowserSession, error)
}
