package browser

import (
	"context"
	"fmt"
)

// Page-side helpers. Only rendered elements (offsetParent !== null) count as
// visible, so hidden duplicates of a label are never clicked.
const (
	jsVisibleTexts = `(tags) => Array.from(document.querySelectorAll(tags))
		.filter(el => el.offsetParent !== null)
		.map(el => el.textContent || '')`

	jsClickVisible = `(tags, index) => {
		const els = Array.from(document.querySelectorAll(tags)).filter(el => el.offsetParent !== null);
		const el = els[index];
		if (!el) return false;
		el.click();
		return true;
	}`

	jsClickText = `(tags, label) => {
		const el = Array.from(document.querySelectorAll(tags))
			.find(el => el.offsetParent !== null && (el.textContent || '').trim() === label);
		if (!el) return false;
		el.click();
		return true;
	}`

	jsClickClass = `(marker) => {
		const el = Array.from(document.querySelectorAll('[class]'))
			.find(el => (el.getAttribute('class') || '').includes(marker));
		if (!el) return false;
		el.click();
		return true;
	}`

	jsFillSearch = `(hints, value) => {
		const el = Array.from(document.querySelectorAll('input[type="text"]'))
			.find(el => hints.some(h => (el.placeholder || '').includes(h)));
		if (!el) return false;
		el.focus();
		el.value = value;
		el.dispatchEvent(new Event('input', { bubbles: true }));
		return true;
	}`
)

func (s *Session) evalBool(ctx context.Context, op, js string, args ...interface{}) (bool, error) {
	res, err := s.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return false, fmt.Errorf("browser: %s: %w", op, err)
	}
	return res.Value.Bool(), nil
}

// VisibleTexts returns the text content of every visible element matching
// tags, in document order.
func (s *Session) VisibleTexts(ctx context.Context, tags string) ([]string, error) {
	res, err := s.page.Context(ctx).Eval(jsVisibleTexts, tags)
	if err != nil {
		return nil, fmt.Errorf("browser: visible texts: %w", err)
	}
	arr := res.Value.Arr()
	texts := make([]string, len(arr))
	for i, v := range arr {
		texts[i] = v.Str()
	}
	return texts, nil
}

// ClickVisible clicks the index-th visible element matching tags.
func (s *Session) ClickVisible(ctx context.Context, tags string, index int) (bool, error) {
	return s.evalBool(ctx, "click visible", jsClickVisible, tags, index)
}

// ClickText clicks the first visible element matching tags whose trimmed
// text equals label.
func (s *Session) ClickText(ctx context.Context, tags, label string) (bool, error) {
	return s.evalBool(ctx, "click text", jsClickText, tags, label)
}

// ClickClass clicks the first element whose class attribute contains marker.
func (s *Session) ClickClass(ctx context.Context, marker string) (bool, error) {
	return s.evalBool(ctx, "click class", jsClickClass, marker)
}

// FillSearch sets value on the first text input whose placeholder contains
// one of hints and fires an input event. It reports whether an input was found.
func (s *Session) FillSearch(ctx context.Context, hints []string, value string) (bool, error) {
	return s.evalBool(ctx, "fill search", jsFillSearch, hints, value)
}
