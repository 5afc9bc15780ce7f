package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var winRateHTML = []byte(`<!DOCTYPE html>
<html><body>
<article class="winning_rate_winning_rate__3wb1K">
<ul>
  <li>
    <img src="/6/buckler/assets/images/chara/all.png">
    <p class="winning_rate_name__Aq1b">ALL</p>
    <p class="winning_rate_rate__x9">51.0%</p>
  </li>
  <li>
    <img src="/6/buckler/assets/images/chara/ryu.png">
    <p class="winning_rate_name__Aq1b">RYU</p>
    <p class="winning_rate_rate__x9">55.2%</p>
  </li>
  <li>
    <img src="https://cdn.example.com/ken.png">
    <p class="winning_rate_name__Aq1b">KEN</p>
    <p class="winning_rate_rate__x9">--</p>
    <span>48 %</span>
  </li>
  <li>
    <p class="winning_rate_name__Aq1b">JURI</p>
    <div class="winning_rate_graf__bar" style="height: 4px; width: 37.5%"></div>
  </li>
  <li>
    <p class="winning_rate_name__Aq1b">A.K.I.</p>
  </li>
  <li><p>no name marker here</p></li>
</ul>
</article>
</body></html>`)

func TestExtract_WinRate(t *testing.T) {
	recs, err := Extract(winRateHTML, KindWinRate)
	require.NoError(t, err)
	require.Len(t, recs, 4)

	assert.Equal(t, RawRecord{
		Name:   "RYU",
		Metric: "55.2%",
		Icon:   "https://www.streetfighter.com/6/buckler/assets/images/chara/ryu.png",
	}, recs[0])

	// marker text has no percentage: fall back to the item text
	assert.Equal(t, "KEN", recs[1].Name)
	assert.Equal(t, "48%", recs[1].Metric)
	assert.Equal(t, "https://cdn.example.com/ken.png", recs[1].Icon)

	// no percentage anywhere: inferred from the bar width
	assert.Equal(t, "JURI", recs[2].Name)
	assert.Equal(t, "37.5%", recs[2].Metric)
	assert.Empty(t, recs[2].Icon)

	assert.Equal(t, "A.K.I.", recs[3].Name)
	assert.Equal(t, DefaultWinRate, recs[3].Metric)
}

func TestExtract_SkipsAggregateRow(t *testing.T) {
	recs, err := Extract(winRateHTML, KindWinRate)
	require.NoError(t, err)
	for _, r := range recs {
		assert.NotEqual(t, AggregateName, r.Name)
	}
}

func TestExtract_MissingContainer(t *testing.T) {
	recs, err := Extract([]byte(`<html><body><p>maintenance</p></body></html>`), KindLeaguePoint)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestExtract_LeaguePointAndMasterRate(t *testing.T) {
	page := []byte(`<html><body>
<article class="league_point_league_point__Q1">
<ul>
  <li><img src="/img/ryu_lp.png"><span class="league_point_name__z">RYU</span><span class="league_point_lp__k">18000</span></li>
  <li><span class="league_point_name__z">KEN</span><span class="league_point_lp__k">12,345 LP</span></li>
  <li><span class="league_point_name__z">JURI</span><div>Rank: DIAMOND 3 9000 LP</div></li>
  <li><span class="league_point_name__z">CAMMY</span></li>
</ul>
</article>
<article class="master_rate_master_rate__Zz">
<ul>
  <li><span class="league_point_name__z">RYU</span><span class="league_point_mr__m">1620</span></li>
  <li><span class="league_point_name__z">KEN</span></li>
</ul>
</article>
</body></html>`)

	lp, err := Extract(page, KindLeaguePoint, WithOrigin("https://example.test/"))
	require.NoError(t, err)
	require.Len(t, lp, 4)
	assert.Equal(t, "18000", lp[0].Metric)
	assert.Equal(t, "https://example.test/img/ryu_lp.png", lp[0].Icon)
	assert.Equal(t, "12,345", lp[1].Metric)
	assert.Equal(t, "9000", lp[2].Metric)
	assert.Equal(t, DefaultLeaguePoint, lp[3].Metric)

	mr, err := Extract(page, KindMasterRate)
	require.NoError(t, err)
	require.Len(t, mr, 2)
	assert.Equal(t, "1620", mr[0].Metric)
	assert.Equal(t, DefaultMasterRate, mr[1].Metric)
}

func TestExtractMatchups(t *testing.T) {
	page := []byte(`<html><body>
<article class="winning_rate_winning_rate__3wb1K">
<div class="winning_rate_select_character__s">RYU</div>
<ul>
  <li><p class="winning_rate_name__a">ALL</p><p class="winning_rate_rate__b">120戦</p><p>52%</p></li>
  <li><img src="/img/ken.png"><p class="winning_rate_name__a">KEN</p><p class="winning_rate_rate__b">12戦</p><p>58.3%</p></li>
  <li><p class="winning_rate_name__a">JP</p><p>対戦数 5 戦</p><div class="winning_rate_graf__g" style="width: 40%"></div></li>
  <li><p class="winning_rate_name__a">ED</p></li>
</ul>
</article>
</body></html>`)

	recs, err := ExtractMatchups(page)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, RawRecord{Name: "KEN", Aux: "12戦", Metric: "58.3%", Icon: "https://www.streetfighter.com/img/ken.png"}, recs[0])
	assert.Equal(t, "5 戦", recs[1].Aux)
	assert.Equal(t, "40%", recs[1].Metric)
	assert.Equal(t, DefaultMatchCount, recs[2].Aux)
	assert.Equal(t, DefaultMatchRate, recs[2].Metric)
}

type fixedLocator map[Role]string

func (f fixedLocator) Selector(_ Kind, role Role) string { return f[role] }

func TestExtract_CustomLocator(t *testing.T) {
	page := []byte(`<html><body><article class="stats-v2"><ul>
<li><b class="who">LUKE</b><i class="val">61%</i></li>
</ul></article></body></html>`)

	loc := fixedLocator{
		RoleContainer: "article.stats-v2",
		RoleName:      ".who",
		RoleMetric:    ".val",
		RoleIcon:      "img[src]",
	}
	recs, err := Extract(page, KindWinRate, WithLocator(loc))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "LUKE", recs[0].Name)
	assert.Equal(t, "61%", recs[0].Metric)
}

func TestAbsoluteURL(t *testing.T) {
	origin := "https://www.streetfighter.com"
	assert.Equal(t, "https://www.streetfighter.com/img/x.png", AbsoluteURL(origin, "/img/x.png"))
	assert.Equal(t, "https://cdn.example.com/x.png", AbsoluteURL(origin, "https://cdn.example.com/x.png"))
	assert.Equal(t, "//cdn.example.com/x.png", AbsoluteURL(origin, "//cdn.example.com/x.png"))
	assert.Equal(t, "", AbsoluteURL(origin, ""))
	assert.Equal(t, "https://www.streetfighter.com/a.png", AbsoluteURL(origin+"/", "/a.png"))
}

func TestWidthPercent(t *testing.T) {
	assert.Equal(t, "62%", WidthPercent("width: 62%;"))
	assert.Equal(t, "12.5%", WidthPercent("background: red; width:12.5%"))
	assert.Equal(t, "", WidthPercent("height: 10px"))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "RYU classic", CleanText("  RYU\n\t classic\u200b "))
}
