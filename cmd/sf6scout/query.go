package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/sf6scout/buckler"
	"github.com/hazyhaar/sf6scout/idgen"
	"github.com/hazyhaar/sf6scout/kit"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <userCode>",
		Short: "Print a player's per-character stats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.call(cmd.Context(), func(e buckler.Endpoints) kit.Endpoint { return e.Stats },
				&buckler.StatsRequest{UserCode: args[0]})
			if err != nil {
				return err
			}
			res := resp.(*buckler.StatsResult)
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			renderStats(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newMatchupsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "matchups <userCode> <character>",
		Short: "Print one character's matchup breakdown",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.call(cmd.Context(), func(e buckler.Endpoints) kit.Endpoint { return e.Matchups },
				&buckler.MatchupsRequest{UserCode: args[0], Character: args[1]})
			if err != nil {
				return err
			}
			res := resp.(*buckler.MatchupsResult)
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			renderMatchups(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <name>",
		Short: "Find profile IDs by display name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.call(cmd.Context(), func(e buckler.Endpoints) kit.Endpoint { return e.Search },
				&buckler.SearchRequest{Name: strings.Join(args, " ")})
			if err != nil {
				return err
			}
			res := resp.(*buckler.SearchResult)
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			renderPlayers(cmd.OutOrStdout(), res.Players)
			return nil
		},
	}
}

func newMetricsCmd(a *app) *cobra.Command {
	var (
		name  string
		since time.Duration
		limit int
	)
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print recorded metrics from metrics_db",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.MetricsDB == "" {
				return errors.New("metrics_db is not configured")
			}
			d, err := a.open(false)
			if err != nil {
				return err
			}
			defer d.close()

			var start *time.Time
			if since > 0 {
				t := time.Now().Add(-since)
				start = &t
			}
			metrics, err := d.metrics.Query(cmd.Context(), name, start, nil, limit)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), metrics)
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Time", "Metric", "Value", "Unit", "Labels"})
			for _, m := range metrics {
				t.AppendRow(table.Row{m.Timestamp.Format(time.DateTime), m.Name, fmt.Sprintf("%.1f", m.Value), m.Unit, formatLabels(m.Labels)})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "metric name (default all)")
	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "only metrics newer than this")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows, 0 for all")
	return cmd
}

// call runs one endpoint against a fresh Scout with its own browser.
func (a *app) call(ctx context.Context, pick func(buckler.Endpoints) kit.Endpoint, req any) (any, error) {
	d, err := a.open(false)
	if err != nil {
		return nil, err
	}
	defer d.close()

	if err := d.scout.Start(ctx); err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	ctx = kit.NewCall(ctx, kit.TransportCLI, idgen.Request())
	return pick(buckler.MakeEndpoints(d.scout, a.logger))(ctx, req)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func renderStats(w io.Writer, res *buckler.StatsResult) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Character", "Win rate", "LP", "MR", "Icon"})
	for _, s := range res.Data {
		t.AppendRow(table.Row{s.Name, s.WinRate, s.LeaguePoints, s.MasterRate, buckler.IconPath(s.Name)})
	}
	t.SetCaption("source: %s", res.Source)
	t.Render()
}

func renderMatchups(w io.Writer, res *buckler.MatchupsResult) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Opponent", "Battles", "Win rate", "Icon"})
	for _, m := range res.Data {
		t.AppendRow(table.Row{m.Opponent, m.Count, m.WinRate, buckler.IconPath(m.Opponent)})
	}
	t.Render()

	fmt.Fprintln(w, "best: ", summarize(res.Best))
	fmt.Fprintln(w, "worst:", summarize(res.Worst))
}

func summarize(rows []buckler.Matchup) string {
	if len(rows) == 0 {
		return "-"
	}
	parts := make([]string, len(rows))
	for i, m := range rows {
		parts[i] = m.Opponent + " " + m.WinRate
	}
	return strings.Join(parts, ", ")
}

func renderPlayers(w io.Writer, players []buckler.Player) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Name", "User code", "Info"})
	for _, p := range players {
		t.AppendRow(table.Row{p.Name, p.UserCode, p.Info})
	}
	t.Render()
}

func formatLabels(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + labels[k]
	}
	return strings.Join(parts, " ")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
