// Package navigator drives view switching and character selection on an
// open profile page.
//
// Navigator is a small state machine: Loaded(kind) → Switching → Loaded(kind').
// A transition starts when a visible element carrying the tab label of the
// target view is clicked, and completes after a fixed settle delay: the site
// renders asynchronously and exposes no completion signal to wait on.
package navigator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/sf6scout/buckler/internal/extract"
)

// Tag lists scanned for interactable elements.
const (
	TabTags     = "li, div, span, a, p"
	OptionTags  = "li, span, div"
	ConfirmTags = "button, div, a, span"
)

// Surface is the part of a live page the navigator needs. Implementations
// only consider elements that are rendered (offsetParent != null).
type Surface interface {
	// ClickText clicks the first visible element matching tags whose trimmed
	// text equals label. It reports whether such an element was found.
	ClickText(ctx context.Context, tags, label string) (bool, error)
	// ClickClass clicks the first element whose class attribute contains marker.
	ClickClass(ctx context.Context, marker string) (bool, error)
	// VisibleTexts returns the text content of every visible element
	// matching tags, in document order.
	VisibleTexts(ctx context.Context, tags string) ([]string, error)
	// ClickVisible clicks the index-th element of the VisibleTexts list.
	ClickVisible(ctx context.Context, tags string, index int) (bool, error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// State of the navigator.
type State int

const (
	StateLoaded State = iota
	StateSwitching
)

func (s State) String() string {
	if s == StateSwitching {
		return "switching"
	}
	return "loaded"
}

// Config configures a Navigator.
type Config struct {
	// Labels maps each reachable view to its tab label.
	Labels map[extract.Kind]string
	// Settle is the delay after a tab click. Default: 3s.
	Settle time.Duration
	Sleep  SleepFunc
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Settle <= 0 {
		c.Settle = 3 * time.Second
	}
	if c.Sleep == nil {
		c.Sleep = Sleep
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Navigator tracks which view is loaded on a Surface.
type Navigator struct {
	cfg     Config
	surface Surface
	state   State
	current extract.Kind
}

// New returns a Navigator in state Loaded(initial).
func New(s Surface, initial extract.Kind, cfg Config) *Navigator {
	cfg.defaults()
	return &Navigator{cfg: cfg, surface: s, state: StateLoaded, current: initial}
}

// Current returns the loaded view.
func (n *Navigator) Current() extract.Kind { return n.current }

// State returns the navigator state.
func (n *Navigator) State() State { return n.state }

// SwitchTo moves to the view kind. It returns false, with the navigator still
// in the previous Loaded state, when no tab label for kind is visible. Errors
// come only from the surface or from ctx. Transitions are never retried.
func (n *Navigator) SwitchTo(ctx context.Context, kind extract.Kind) (bool, error) {
	log := n.cfg.Logger
	if kind == n.current && n.state == StateLoaded {
		return true, nil
	}

	label, ok := n.cfg.Labels[kind]
	if !ok || label == "" {
		log.Warn("navigator: no tab label for view", "view", kind)
		return false, nil
	}

	clicked, err := n.surface.ClickText(ctx, TabTags, label)
	if err != nil {
		return false, fmt.Errorf("navigator: click tab %q: %w", label, err)
	}
	if !clicked {
		log.Warn("navigator: tab not found", "view", kind, "label", label, "current", n.current)
		return false, nil
	}

	n.state = StateSwitching
	log.Debug("navigator: switching", "from", n.current, "to", kind)
	if err := n.cfg.Sleep(ctx, n.cfg.Settle); err != nil {
		return false, fmt.Errorf("navigator: settle: %w", err)
	}
	n.state = StateLoaded
	n.current = kind
	return true, nil
}
