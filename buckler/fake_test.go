package buckler

import (
	"context"
	"strings"
	"sync"
	"time"
)

// fakePage renders canned HTML per view. Clicking a visible tab label makes
// its view current; confirming a selection switches to "sel:<option>".
type fakePage struct {
	mu sync.Mutex

	views   map[string]string
	current string
	tabs    []string

	toggle   bool
	options  []string
	confirm  string
	selected string

	searchInput bool
	filled      string

	navigateErr error
	panicOnHTML bool

	navigated []string
	closed    int
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigated = append(p.navigated, url)
	return p.navigateErr
}

func (p *fakePage) HTML(context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.panicOnHTML {
		panic("renderer crashed")
	}
	return []byte(p.views[p.current]), nil
}

func (p *fakePage) ClickText(_ context.Context, _ string, label string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.tabs {
		if t == label {
			p.current = label
			return true, nil
		}
	}
	if p.confirm != "" && label == p.confirm && p.selected != "" {
		p.current = "sel:" + p.selected
		return true, nil
	}
	return false, nil
}

func (p *fakePage) ClickClass(context.Context, string) (bool, error) {
	return p.toggle, nil
}

func (p *fakePage) VisibleTexts(context.Context, string) ([]string, error) {
	return p.options, nil
}

func (p *fakePage) ClickVisible(_ context.Context, _ string, index int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.options) {
		return false, nil
	}
	p.selected = p.options[index]
	return true, nil
}

func (p *fakePage) FillSearch(_ context.Context, hints []string, value string) (bool, error) {
	if !p.searchInput || len(hints) == 0 {
		return false, nil
	}
	p.filled = value
	return true, nil
}

func (p *fakePage) PressEnter(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.filled != "" {
		p.current = "search"
	}
	return nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

// fakeOpener hands out pages built by newPage and counts opens.
type fakeOpener struct {
	mu      sync.Mutex
	newPage func() *fakePage
	pages   []*fakePage
	cookies [][]Cookie
}

func (o *fakeOpener) Open(_ context.Context, cookies []Cookie) (Page, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p := o.newPage()
	o.pages = append(o.pages, p)
	o.cookies = append(o.cookies, cookies)
	return p, nil
}

func (o *fakeOpener) opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pages)
}

type sleeps struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleeps) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return nil
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Credential = "buckler_id=abc; buckler_r_id=x=y"
	return cfg
}

const (
	labelLP      = "キャラクター別リーグポイント"
	labelMR      = "キャラクター別マスターレート"
	labelMatchup = "キャラクター別対戦数"
)

func li(parts ...string) string { return "<li>" + strings.Join(parts, "") + "</li>" }

const winRateHTML = `<html><body><article class="winning_rate__Xy1"><ul>
<li><span class="winning_rate_name__a">ALL</span><span class="winning_rate_rate__b">51.0%</span></li>
<li><img src="/6/buckler/assets/ryu_s.png"><span class="winning_rate_name__a">RYU</span><span class="winning_rate_rate__b">55.2%</span></li>
</ul></article></body></html>`

const leaguePointHTML = `<html><body><article class="league_point__Q"><ul>
<li><img src="/6/buckler/assets/ryu_l.png"><span class="league_point_name__a">RYU</span><span class="league_point_lp__c">18000</span></li>
</ul></article></body></html>`
