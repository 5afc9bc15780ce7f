package buckler

import (
	"context"

	"github.com/hazyhaar/sf6scout/buckler/internal/browser"
	"github.com/hazyhaar/sf6scout/buckler/internal/navigator"
)

// Page is an exclusively owned, authenticated page. Interaction methods only
// consider rendered elements.
type Page interface {
	navigator.Surface

	// Navigate loads url; a load slower than the navigation bound fails
	// with ErrNavigationTimeout.
	Navigate(ctx context.Context, url string) error
	// HTML returns the current rendered document.
	HTML(ctx context.Context) ([]byte, error)
	// FillSearch types value into the first text input whose placeholder
	// contains one of hints and reports whether one was found.
	FillSearch(ctx context.Context, hints []string, value string) (bool, error)
	// PressEnter submits the focused element.
	PressEnter(ctx context.Context) error
	// Close releases the page. It is called exactly once per Open.
	Close() error
}

// Opener creates a Page holding cookies.
type Opener interface {
	Open(ctx context.Context, cookies []Cookie) (Page, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, cookies []Cookie) (Page, error)

func (f OpenerFunc) Open(ctx context.Context, cookies []Cookie) (Page, error) {
	return f(ctx, cookies)
}

type browserOpener struct{ mgr *browser.Manager }

func (o browserOpener) Open(ctx context.Context, cookies []Cookie) (Page, error) {
	s, err := browser.OpenSession(ctx, o.mgr, cookies)
	if err != nil {
		return nil, err
	}
	return s, nil
}
