// Package browser owns the Chrome process used for profile acquisition and
// hands out isolated, credential-bearing sessions on it.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// StealthLevel selects how visible the automated Chrome is.
type StealthLevel int

const (
	LevelHeadless StealthLevel = 1 // headless, stealth-patched pages
	LevelHeadful  StealthLevel = 2 // real window on an Xvfb display
)

// ParseStealth maps a config string to a level. Unknown values mean headless.
func ParseStealth(s string) StealthLevel {
	if s == "headful" {
		return LevelHeadful
	}
	return LevelHeadless
}

func (l StealthLevel) String() string {
	if l == LevelHeadful {
		return "headful"
	}
	return "headless"
}

// ErrClosed is returned once the manager has been closed.
var ErrClosed = errors.New("browser: manager is closed")

// Config holds the Chrome settings of a Manager.
type Config struct {
	// RemoteURL is the DevTools WebSocket of an already running Chrome. When
	// empty a local Chrome is launched.
	RemoteURL string

	// RecycleInterval is how long one Chrome process may live, 4h by default.
	// A due recycle waits until no session is open.
	RecycleInterval time.Duration

	// ResourceBlocking names the resource classes sessions never load:
	// images, fonts, media or stylesheets.
	ResourceBlocking []string

	Stealth     StealthLevel
	XvfbDisplay string // headful only. Default: ":99"
	UserAgent   string
	WindowSize  string // "W,H". Default: "1280,800"

	// NavigationTimeout bounds every Session.Navigate. Default: 60s.
	NavigationTimeout time.Duration

	// IdleWindow is how long the network must stay quiet after the load
	// event before Navigate returns. Default: 500ms.
	IdleWindow time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.RecycleInterval <= 0 {
		c.RecycleInterval = 4 * time.Hour
	}
	if c.Stealth == 0 {
		c.Stealth = LevelHeadless
	}
	if c.XvfbDisplay == "" {
		c.XvfbDisplay = ":99"
	}
	if c.WindowSize == "" {
		c.WindowSize = "1280,800"
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = 60 * time.Second
	}
	if c.IdleWindow <= 0 {
		c.IdleWindow = 500 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager manages Chrome lifecycle and counts open sessions.
type Manager struct {
	cfg     Config
	mu      sync.RWMutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	xvfb    *exec.Cmd
	startAt time.Time
	active  int
	closed  bool
	cancel  context.CancelFunc
}

// NewManager creates a browser Manager. Call Start to launch Chrome.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Start launches Chrome (or connects to a remote instance) and starts the
// recycle monitor, which stops with ctx or Close.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.browser != nil {
		return nil
	}

	b, err := m.launch()
	if err != nil {
		return err
	}
	m.browser = b
	m.startAt = time.Now()

	ctx, m.cancel = context.WithCancel(ctx)
	go m.monitorLoop(ctx)
	return nil
}

// Active returns the number of open sessions.
func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// acquire returns the browser and counts a new session against it.
func (m *Manager) acquire() (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if m.browser == nil {
		return nil, fmt.Errorf("browser: not started")
	}
	m.active++
	return m.browser, nil
}

func (m *Manager) release() {
	m.mu.Lock()
	if m.active > 0 {
		m.active--
	}
	m.mu.Unlock()
}

// Recycle kills Chrome and restarts it. It fails while sessions are open.
func (m *Manager) Recycle() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.active > 0 {
		return fmt.Errorf("browser: %d sessions open", m.active)
	}
	return m.recycleLocked()
}

// Close shuts down Chrome and Xvfb.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if m.cancel != nil {
		m.cancel()
	}
	m.cleanup()
	return nil
}

func (m *Manager) launch() (*rod.Browser, error) {
	log := m.cfg.Logger

	if m.cfg.Stealth == LevelHeadful {
		if err := m.startXvfb(); err != nil {
			return nil, fmt.Errorf("browser: xvfb: %w", err)
		}
	}

	var wsURL string

	if m.cfg.RemoteURL != "" {
		wsURL = m.cfg.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().NoSandbox(true)

		if m.cfg.Stealth == LevelHeadful {
			l = l.Headless(false).Env("DISPLAY="+m.cfg.XvfbDisplay)
		} else {
			l = l.Headless(true)
		}

		l = l.Set("disable-blink-features", "AutomationControlled").
			Set("window-size", m.cfg.WindowSize)

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL, "stealth", m.cfg.Stealth)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	return b, nil
}

func (m *Manager) recycleLocked() error {
	log := m.cfg.Logger
	log.Info("browser: recycling", "uptime", time.Since(m.startAt))

	m.cleanup()

	b, err := m.launch()
	if err != nil {
		return fmt.Errorf("browser: relaunch: %w", err)
	}
	m.browser = b
	m.startAt = time.Now()
	log.Info("browser: recycled")
	return nil
}

func (m *Manager) cleanup() {
	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			m.cfg.Logger.Debug("browser: close", "error", err)
		}
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	m.stopXvfb()
}

// recycleDue reports whether the process outlived its interval and is idle.
func (m *Manager) recycleDue(now time.Time) bool {
	return !m.closed && m.browser != nil && m.active == 0 &&
		now.Sub(m.startAt) > m.cfg.RecycleInterval
}

func (m *Manager) monitorLoop(ctx context.Context) {
	log := m.cfg.Logger
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.mu.Lock()
			if m.closed {
				m.mu.Unlock()
				return
			}
			if m.recycleDue(now) {
				if err := m.recycleLocked(); err != nil {
					log.Error("browser: recycle failed", "error", err)
				}
			}
			m.mu.Unlock()
		}
	}
}
