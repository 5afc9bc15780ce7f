package navigator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/sf6scout/namekey"
)

// SelectorConfig configures a Selector.
type SelectorConfig struct {
	// ToggleMarker is the class fragment of the fighter-selection toggle.
	ToggleMarker string
	// ConfirmLabel is the exact text of the confirm control.
	ConfirmLabel string

	ModalSettle   time.Duration // after opening the modal; default 1s
	SelectSettle  time.Duration // after picking an option; default 500ms
	ConfirmSettle time.Duration // after confirming; default 5s

	Sleep  SleepFunc
	Logger *slog.Logger
}

func (c *SelectorConfig) defaults() {
	if c.ToggleMarker == "" {
		c.ToggleMarker = "winning_rate_select_character"
	}
	if c.ConfirmLabel == "" {
		c.ConfirmLabel = "変更する"
	}
	if c.ModalSettle <= 0 {
		c.ModalSettle = time.Second
	}
	if c.SelectSettle <= 0 {
		c.SelectSettle = 500 * time.Millisecond
	}
	if c.ConfirmSettle <= 0 {
		c.ConfirmSettle = 5 * time.Second
	}
	if c.Sleep == nil {
		c.Sleep = Sleep
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Selector changes the character whose breakdown the page displays.
type Selector struct {
	cfg     SelectorConfig
	surface Surface
}

// NewSelector returns a Selector for s.
func NewSelector(s Surface, cfg SelectorConfig) *Selector {
	cfg.defaults()
	return &Selector{cfg: cfg, surface: s}
}

// Select opens the fighter modal, picks the first visible option whose name
// key matches name, and confirms. Each missing control is logged and reported
// as false; Select never fails for a missed interaction.
func (s *Selector) Select(ctx context.Context, name string) (bool, error) {
	log := s.cfg.Logger.With("character", name)
	target := namekey.Normalize(name)
	if target == "" {
		log.Warn("selector: empty character key")
		return false, nil
	}

	ok, err := s.surface.ClickClass(ctx, s.cfg.ToggleMarker)
	if err != nil {
		return false, fmt.Errorf("selector: open modal: %w", err)
	}
	if !ok {
		log.Warn("selector: toggle not found", "marker", s.cfg.ToggleMarker)
		return false, nil
	}
	if err := s.cfg.Sleep(ctx, s.cfg.ModalSettle); err != nil {
		return false, err
	}

	texts, err := s.surface.VisibleTexts(ctx, OptionTags)
	if err != nil {
		return false, fmt.Errorf("selector: list options: %w", err)
	}
	index := -1
	for i, text := range texts {
		if namekey.Matches(namekey.Normalize(text), target) {
			index = i
			break
		}
	}
	if index < 0 {
		log.Warn("selector: option not found", "key", target, "candidates", len(texts))
		return false, nil
	}

	ok, err = s.surface.ClickVisible(ctx, OptionTags, index)
	if err != nil {
		return false, fmt.Errorf("selector: click option: %w", err)
	}
	if !ok {
		// The list changed between read and click.
		log.Warn("selector: option vanished", "index", index)
		return false, nil
	}
	if err := s.cfg.Sleep(ctx, s.cfg.SelectSettle); err != nil {
		return false, err
	}

	ok, err = s.surface.ClickText(ctx, ConfirmTags, s.cfg.ConfirmLabel)
	if err != nil {
		return false, fmt.Errorf("selector: confirm: %w", err)
	}
	if !ok {
		log.Warn("selector: confirm control not found", "label", s.cfg.ConfirmLabel)
		return false, nil
	}
	if err := s.cfg.Sleep(ctx, s.cfg.ConfirmSettle); err != nil {
		return false, err
	}
	return true, nil
}
