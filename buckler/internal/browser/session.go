package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/sf6scout/buckler/internal/config"
)

// ErrNavigationTimeout is returned when a navigation outlives
// Config.NavigationTimeout.
var ErrNavigationTimeout = errors.New("browser: navigation timeout")

// Session is one incognito browser context with a single page. It is owned
// by exactly one request and must be closed on every exit path.
type Session struct {
	mgr     *Manager
	ctxB    *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter
	once    sync.Once
	closeEr error
}

// OpenSession creates an isolated context on the manager's browser, opens
// a page in it and installs the credential cookies.
func OpenSession(ctx context.Context, mgr *Manager, cookies []config.Cookie) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := mgr.acquire()
	if err != nil {
		return nil, err
	}
	s := &Session{mgr: mgr}

	s.ctxB, err = b.Incognito()
	if err != nil {
		mgr.release()
		return nil, fmt.Errorf("browser: incognito: %w", err)
	}

	s.page, err = stealth.Page(s.ctxB)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	if ua := mgr.cfg.UserAgent; ua != "" {
		if err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			mgr.cfg.Logger.Warn("browser: set user agent failed", "error", err)
		}
	}

	if len(cookies) > 0 {
		params := make([]*proto.NetworkCookieParam, 0, len(cookies))
		for _, c := range cookies {
			params = append(params, &proto.NetworkCookieParam{
				Name:   c.Name,
				Value:  c.Value,
				Domain: c.Domain,
				Path:   "/",
			})
		}
		if err := s.page.SetCookies(params); err != nil {
			s.Close()
			return nil, fmt.Errorf("browser: set cookies: %w", err)
		}
	}

	if len(mgr.cfg.ResourceBlocking) > 0 {
		s.router = applyResourceBlocking(s.page, mgr.cfg.ResourceBlocking)
	}
	return s, nil
}

// Navigate loads url, waits for the load event and then for IdleWindow
// without in-flight requests, all bounded by the navigation timeout.
// Streaming connections never count as in flight.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.mgr.cfg.NavigationTimeout)
	defer cancel()

	p := s.page.Context(navCtx)
	waitIdle := p.WaitRequestIdle(s.mgr.cfg.IdleWindow, nil, nil, streamingTypes)
	err := p.Navigate(url)
	if err == nil {
		err = p.WaitLoad()
	}
	if err == nil {
		waitIdle()
		err = navCtx.Err()
	}
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(navCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %s", ErrNavigationTimeout, s.mgr.cfg.NavigationTimeout, url)
	}
	return fmt.Errorf("browser: navigate %s: %w", url, err)
}

var streamingTypes = []proto.NetworkResourceType{
	proto.NetworkResourceTypeWebSocket,
	proto.NetworkResourceTypeEventSource,
}

// HTML returns the rendered document.
func (s *Session) HTML(ctx context.Context) ([]byte, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return nil, fmt.Errorf("browser: get html: %w", err)
	}
	return []byte(html), nil
}

// PressEnter sends the default confirm key to the focused element.
func (s *Session) PressEnter(ctx context.Context) error {
	if err := s.page.Keyboard.Type(input.Enter); err != nil {
		return fmt.Errorf("browser: press enter: %w", err)
	}
	return nil
}

// Close releases the page and disposes of the incognito context. Safe to
// call more than once.
func (s *Session) Close() error {
	s.once.Do(func() {
		if s.router != nil {
			_ = s.router.Stop()
		}
		if s.page != nil {
			_ = s.page.Close()
		}
		if s.ctxB != nil {
			s.closeEr = s.ctxB.Close()
		}
		s.mgr.release()
	})
	return s.closeEr
}
