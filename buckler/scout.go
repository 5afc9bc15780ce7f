// Package buckler acquires a player's per-character statistics from the
// Street Fighter 6 Buckler profile pages by driving a browser session through
// the profile views and reconciling what each view renders.
//
// Every operation owns one fresh session for its whole run: open, navigate,
// switch views, extract, close. Missing views, tabs and controls degrade the
// result instead of failing it; only bad input, a missing credential, a
// navigation timeout and unexpected failures are errors.
package buckler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/hazyhaar/sf6scout/buckler/internal/browser"
	"github.com/hazyhaar/sf6scout/buckler/internal/config"
	"github.com/hazyhaar/sf6scout/buckler/internal/extract"
	"github.com/hazyhaar/sf6scout/buckler/internal/navigator"
	"github.com/hazyhaar/sf6scout/cache"
	"github.com/hazyhaar/sf6scout/kit"
	"github.com/hazyhaar/sf6scout/observability"
)

// SleepFunc waits for a settle delay or until ctx is done.
type SleepFunc = navigator.SleepFunc

var userCodeRe = regexp.MustCompile(`^\d{1,20}$`)

// Scout runs the acquisition operations. It is safe for concurrent use;
// concurrent operations never share a session.
type Scout struct {
	cfg     *Config
	opener  Opener
	mgr     *browser.Manager
	cache   *cache.Cache[[]CharacterStat]
	metrics *observability.MetricsManager
	logger  *slog.Logger
	sleep   SleepFunc
	labels  map[extract.Kind]string
}

// Option configures a Scout.
type Option func(*Scout)

// WithOpener replaces the built-in Chrome sessions.
func WithOpener(o Opener) Option { return func(s *Scout) { s.opener = o } }

// WithCache serves repeated stats lookups for the same user from c.
func WithCache(c *cache.Cache[[]CharacterStat]) Option { return func(s *Scout) { s.cache = c } }

// WithMetrics records operation timings in mm.
func WithMetrics(mm *observability.MetricsManager) Option { return func(s *Scout) { s.metrics = mm } }

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option { return func(s *Scout) { s.logger = l } }

// WithSleep replaces the settle wait.
func WithSleep(fn SleepFunc) Option { return func(s *Scout) { s.sleep = fn } }

// New builds a Scout from cfg. Unless WithOpener is given, sessions come
// from a Chrome process launched by Start.
func New(cfg *Config, opts ...Option) *Scout {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Scout{cfg: cfg, logger: slog.Default(), sleep: navigator.Sleep}
	for _, o := range opts {
		o(s)
	}
	if s.opener == nil {
		s.mgr = browser.NewManager(browser.Config{
			RemoteURL:         cfg.Browser.Remote,
			RecycleInterval:   cfg.Browser.RecycleInterval,
			ResourceBlocking:  cfg.Browser.ResourceBlocking,
			Stealth:           browser.ParseStealth(cfg.Browser.Stealth),
			XvfbDisplay:       cfg.Browser.XvfbDisplay,
			UserAgent:         cfg.Browser.UserAgent,
			WindowSize:        cfg.Browser.WindowSize,
			NavigationTimeout: cfg.Timeouts.Navigation,
			IdleWindow:        cfg.Timeouts.NetworkIdle,
			Logger:            s.logger,
		})
		s.opener = browserOpener{mgr: s.mgr}
	}
	s.labels = map[extract.Kind]string{
		extract.KindLeaguePoint: cfg.Labels.LeaguePointTab,
		extract.KindMasterRate:  cfg.Labels.MasterRateTab,
		extract.KindMatchup:     cfg.Labels.MatchupTab,
	}
	return s
}

// Start launches Chrome. It is a no-op with a custom Opener.
func (s *Scout) Start(ctx context.Context) error {
	if s.mgr == nil {
		return nil
	}
	return s.mgr.Start(ctx)
}

// Close shuts Chrome down.
func (s *Scout) Close() error {
	if s.mgr == nil {
		return nil
	}
	return s.mgr.Close()
}

// ActiveSessions returns the number of open Chrome sessions.
func (s *Scout) ActiveSessions() int {
	if s.mgr == nil {
		return 0
	}
	return s.mgr.Active()
}

// FetchCharacterStats returns one row per character of the player's win-rate
// view, completed with league points and master rate where those views list
// the character.
func (s *Scout) FetchCharacterStats(ctx context.Context, userCode string) (res *StatsResult, err error) {
	start := time.Now()
	userCode = strings.TrimSpace(userCode)
	defer func() {
		n := 0
		if res != nil {
			n = len(res.Data)
		}
		s.observe(ctx, "stats", start, n, err, "user_code", userCode)
	}()

	if err := checkUserCode(userCode); err != nil {
		return nil, err
	}
	cookies, err := s.cookies()
	if err != nil {
		return nil, err
	}

	if s.cache == nil {
		data, err := s.fetchStats(ctx, cookies, userCode)
		if err != nil {
			return nil, err
		}
		return &StatsResult{Source: SourceLive, Data: data}, nil
	}

	data, hit, err := s.cache.Do(ctx, userCode, func(ctx context.Context) ([]CharacterStat, error) {
		return s.fetchStats(ctx, cookies, userCode)
	})
	if err != nil {
		return nil, err
	}
	source := SourceLive
	if hit {
		source = SourceCache
	}
	return &StatsResult{Source: source, Data: data}, nil
}

func (s *Scout) fetchStats(ctx context.Context, cookies []Cookie, userCode string) ([]CharacterStat, error) {
	var stats []CharacterStat
	err := s.withPage(ctx, cookies, func(page Page) error {
		if err := page.Navigate(ctx, s.profileURL(userCode)); err != nil {
			return fmt.Errorf("buckler: load profile: %w", err)
		}
		nav := s.navigator(page)

		winRate, err := s.extractView(ctx, page, extract.KindWinRate)
		if err != nil {
			return err
		}

		if _, err := nav.SwitchTo(ctx, extract.KindLeaguePoint); err != nil {
			return err
		}
		leaguePoint, err := s.extractView(ctx, page, extract.KindLeaguePoint)
		if err != nil {
			return err
		}

		var masterRate []extract.RawRecord
		ok, err := nav.SwitchTo(ctx, extract.KindMasterRate)
		if err != nil {
			return err
		}
		if ok {
			if masterRate, err = s.extractView(ctx, page, extract.KindMasterRate); err != nil {
				return err
			}
		}

		stats = Merge(winRate, leaguePoint, masterRate)
		return nil
	})
	return stats, err
}

// FetchMatchupBreakdown returns the per-opponent rows of character's matchup
// view. If the character cannot be selected, the rows of whichever character
// the page shows are returned.
func (s *Scout) FetchMatchupBreakdown(ctx context.Context, userCode, character string) (out []Matchup, err error) {
	start := time.Now()
	userCode = strings.TrimSpace(userCode)
	character = strings.TrimSpace(character)
	defer func() {
		s.observe(ctx, "matchups", start, len(out), err, "user_code", userCode, "character", character)
	}()

	if err := checkUserCode(userCode); err != nil {
		return nil, err
	}
	if character == "" {
		return nil, fmt.Errorf("%w: character is required", ErrClientInput)
	}
	cookies, err := s.cookies()
	if err != nil {
		return nil, err
	}

	err = s.withPage(ctx, cookies, func(page Page) error {
		if err := page.Navigate(ctx, s.profileURL(userCode)); err != nil {
			return fmt.Errorf("buckler: load profile: %w", err)
		}

		ok, err := s.navigator(page).SwitchTo(ctx, extract.KindMatchup)
		if err != nil {
			return err
		}
		if !ok {
			s.logger.Warn("buckler: matchup tab missing, extracting current view", "user_code", userCode)
		}

		sel := navigator.NewSelector(page, navigator.SelectorConfig{
			ConfirmLabel:  s.cfg.Labels.Confirm,
			ModalSettle:   s.cfg.Timeouts.ModalSettle,
			SelectSettle:  s.cfg.Timeouts.SelectSettle,
			ConfirmSettle: s.cfg.Timeouts.ConfirmSettle,
			Sleep:         s.sleep,
			Logger:        s.logger,
		})
		ok, err = sel.Select(ctx, character)
		if err != nil {
			return err
		}
		if !ok {
			s.logger.Warn("buckler: character not selected, extracting current character", "character", character)
		}

		records, err := s.extractView(ctx, page, extract.KindMatchup)
		if err != nil {
			return err
		}
		out = toMatchups(records)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SearchPlayersByName runs the fighters search for name. No match is an
// empty list, not an error.
func (s *Scout) SearchPlayersByName(ctx context.Context, name string) (out []Player, err error) {
	start := time.Now()
	name = strings.TrimSpace(name)
	defer func() {
		s.observe(ctx, "search", start, len(out), err, "name", name)
	}()

	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrClientInput)
	}
	cookies, err := s.cookies()
	if err != nil {
		return nil, err
	}

	err = s.withPage(ctx, cookies, func(page Page) error {
		if err := page.Navigate(ctx, s.siteURL("fighters")); err != nil {
			return fmt.Errorf("buckler: load fighters: %w", err)
		}

		ok, err := page.FillSearch(ctx, s.cfg.Labels.SearchHints, name)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoSearchInput
		}
		if err := page.PressEnter(ctx); err != nil {
			return err
		}
		if err := s.sleep(ctx, s.cfg.Timeouts.SearchSettle); err != nil {
			return err
		}

		html, err := page.HTML(ctx)
		if err != nil {
			return err
		}
		hits, err := extract.ExtractPlayers(html)
		if err != nil {
			return err
		}
		out = make([]Player, 0, len(hits))
		for _, h := range hits {
			out = append(out, Player{Name: h.Name, UserCode: h.UserCode, Info: h.Info})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// withPage opens a session, runs fn and closes the session on every path,
// panics included.
func (s *Scout) withPage(ctx context.Context, cookies []Cookie, fn func(Page) error) (err error) {
	page, err := s.opener.Open(ctx, cookies)
	if err != nil {
		return fmt.Errorf("buckler: open session: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("buckler: unexpected failure: %v", r)
		}
		if cerr := page.Close(); cerr != nil {
			s.logger.Debug("buckler: close session", "error", cerr)
		}
	}()
	return fn(page)
}

func (s *Scout) navigator(page Page) *navigator.Navigator {
	return navigator.New(page, extract.KindWinRate, navigator.Config{
		Labels: s.labels,
		Settle: s.cfg.Timeouts.TabSettle,
		Sleep:  s.sleep,
		Logger: s.logger,
	})
}

func (s *Scout) extractView(ctx context.Context, page Page, kind extract.Kind) ([]extract.RawRecord, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	records, err := extract.Extract(html, kind, extract.WithOrigin(s.cfg.Site.Origin))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		s.logger.Info("buckler: view has no rows", "view", kind)
	}
	return records, nil
}

func (s *Scout) cookies() ([]Cookie, error) {
	cookies, err := s.cfg.Cookies()
	if errors.Is(err, config.ErrNoCredential) {
		return nil, fmt.Errorf("%w: set %s", ErrConfiguration, s.cfg.CredentialEnv)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cookies, nil
}

func (s *Scout) siteURL(path string) string {
	return strings.TrimRight(s.cfg.Site.Origin, "/") + "/6/buckler/" + s.cfg.Site.Locale + "/" + path
}

func (s *Scout) profileURL(userCode string) string {
	return s.siteURL("profile/" + userCode + "/play")
}

func checkUserCode(userCode string) error {
	if userCode == "" {
		return fmt.Errorf("%w: userCode is required", ErrClientInput)
	}
	if !userCodeRe.MatchString(userCode) {
		return fmt.Errorf("%w: userCode must be numeric", ErrClientInput)
	}
	return nil
}

func (s *Scout) observe(ctx context.Context, op string, start time.Time, n int, err error, attrs ...any) {
	d := time.Since(start)
	attrs = append(attrs, "op", op, "request_id", kit.GetRequestID(ctx), "duration", d)

	outcome := "ok"
	switch {
	case err == nil:
		s.logger.Info("buckler: operation done", append(attrs, "records", n)...)
	case errors.Is(err, ErrClientInput):
		outcome = "invalid"
		s.logger.Warn("buckler: rejected", append(attrs, "error", err)...)
	default:
		outcome = "error"
		s.logger.Error("buckler: operation failed", append(attrs, "error", err)...)
	}

	if s.metrics != nil {
		s.metrics.RecordDuration(observability.MetricOperationMs, d, map[string]string{"op": op, "outcome": outcome})
		if err == nil {
			s.metrics.Record(&observability.Metric{
				Name:   observability.MetricRecordsCount,
				Value:  float64(n),
				Labels: map[string]string{"op": op},
				Unit:   "count",
			})
		}
	}
}
