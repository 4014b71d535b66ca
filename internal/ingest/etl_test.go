package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/marketing-intel/internal/kpi"
	"github.com/AngelCh415/marketing-intel/internal/models"
)

var channelHeader = []string{"date", "tactic", "state", "campaign", "impression", "clicks", "spend", "attributed revenue"}
var businessHeader = []string{"date", "# of orders", "# of new orders", "new customers", "total revenue", "gross profit", "COGS"}

func chanTable(name string, rows ...[]string) *Table {
	return NewTable(name, channelHeader, rows)
}

func bizTable(rows ...[]string) *Table {
	return NewTable("Business", businessHeader, rows)
}

func empty(name string) *Table { return NewTable(name, nil, nil) }

func unify(t *testing.T, fb, g, tt, biz *Table) *models.Dataset {
	t.Helper()
	ds, err := Unify([]ChannelTable{
		{Channel: models.Facebook, Table: fb},
		{Channel: models.Google, Table: g},
		{Channel: models.TikTok, Table: tt},
	}, biz, Options{})
	require.NoError(t, err)
	return ds
}

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestUnify_RatioExample(t *testing.T) {
	ds := unify(t,
		chanTable("Facebook", []string{"2024-05-01", "ASC", "NY", "C-1", "500", "25", "50", "150"}),
		empty("Google"), empty("TikTok"),
		bizTable([]string{"2024-05-01", "10", "5", "4", "1000", "400", "600"}),
	)
	require.Len(t, ds.Rows, 1)
	r := ds.Rows[0]

	roas, ok := r.ROAS.Float()
	require.True(t, ok)
	assert.InDelta(t, 3.0, roas, 1e-12)
	cpc, _ := r.CPC.Float()
	assert.InDelta(t, 2.0, cpc, 1e-12)
	ctr, _ := r.CTR.Float()
	assert.InDelta(t, 0.05, ctr, 1e-12)
	conv, _ := r.ClickToOrderConvRate.Float()
	assert.InDelta(t, 0.4, conv, 1e-12)
	assert.Equal(t, int64(6), r.OldCustomers)
}

func TestUnify_Idempotent(t *testing.T) {
	build := func() *models.Dataset {
		return unify(t,
			chanTable("Facebook",
				[]string{"2024-05-01", "ASC", "NY", "C-1", "500", "25", "50", "150"},
				[]string{"2024-05-02", "Retargeting", "CA", "C-2", "0", "0", "0", "0"}),
			chanTable("Google", []string{"2024-05-02", "Search", "CA", "G-1", "1000", "30", "45.5", "99.1"}),
			chanTable("TikTok", []string{"2024-05-03", "Spark", "TX", "T-1", "800", "12", "20", "33"}),
			bizTable(
				[]string{"2024-05-01", "10", "5", "4", "1000", "400", "600"},
				[]string{"2024-05-04", "7", "2", "1", "800", "300", "500"}),
		)
	}
	assert.Equal(t, build(), build())
}

func TestUnify_DatesAreUnionOfBothSides(t *testing.T) {
	ds := unify(t,
		chanTable("Facebook",
			[]string{"2024-05-01", "ASC", "NY", "C-1", "1", "1", "1", "1"},
			[]string{"2024-05-02", "ASC", "NY", "C-1", "1", "1", "1", "1"}),
		chanTable("Google", []string{"2024-05-02", "Search", "CA", "G-1", "1", "1", "1", "1"}),
		empty("TikTok"),
		bizTable(
			[]string{"2024-05-02", "1", "1", "1", "1", "1", "1"},
			[]string{"2024-05-03", "1", "1", "1", "1", "1", "1"}),
	)

	distinct := map[time.Time]struct{}{}
	for _, r := range ds.Rows {
		distinct[r.Date] = struct{}{}
	}
	assert.Len(t, distinct, 3)
	require.Len(t, ds.Days, 3)
	assert.Equal(t, []time.Time{date("2024-05-01"), date("2024-05-02"), date("2024-05-03")},
		[]time.Time{ds.Days[0].Date, ds.Days[1].Date, ds.Days[2].Date})
	assert.Len(t, ds.Rows, 4)
}

func TestUnify_ZeroFill(t *testing.T) {
	ds := unify(t,
		chanTable("Facebook", []string{"2024-05-01", "ASC", "NY", "C-1", "500", "25", "50", "150"}),
		empty("Google"), empty("TikTok"),
		bizTable([]string{"2024-05-02", "10", "5", "4", "1000", "400", "600"}),
	)
	require.Len(t, ds.Rows, 2)

	mkt := ds.Rows[0]
	assert.Equal(t, models.Facebook, mkt.Source)
	assert.Zero(t, mkt.TotalRevenue)
	assert.Zero(t, mkt.GrossProfit)
	assert.Zero(t, mkt.COGS)
	assert.Zero(t, mkt.Orders)
	assert.Zero(t, mkt.NewOrders)
	assert.Zero(t, mkt.NewCustomers)

	biz := ds.Rows[1]
	assert.Equal(t, date("2024-05-02"), biz.Date)
	assert.Equal(t, models.Channel(""), biz.Source)
	assert.Empty(t, biz.Tactic)
	assert.Empty(t, biz.State)
	assert.Empty(t, biz.Campaign)
	assert.Zero(t, biz.Impression)
	assert.Zero(t, biz.Clicks)
	assert.Zero(t, biz.Spend)
	assert.Zero(t, biz.AttributedRevenue)
	assert.Equal(t, 1000.0, biz.TotalRevenue)
	assert.False(t, biz.ROAS.Defined())
	assert.False(t, biz.CPC.Defined())
	assert.Equal(t, int64(6), biz.OldCustomers)
}

func TestUnify_ChannelTaggingAndOrder(t *testing.T) {
	ds := unify(t,
		chanTable("Facebook", []string{"2024-05-01", "ASC", "NY", "F", "1", "1", "1", "1"}),
		chanTable("Google", []string{"2024-05-01", "Search", "NY", "G", "1", "1", "1", "1"}),
		chanTable("TikTok", []string{"2024-05-01", "Spark", "NY", "T", "1", "1", "1", "1"}),
		bizTable([]string{"2024-05-01", "1", "1", "1", "1", "1", "1"}),
	)
	require.Len(t, ds.Rows, 3)
	assert.Equal(t, models.Facebook, ds.Rows[0].Source)
	assert.Equal(t, "F", ds.Rows[0].Campaign)
	assert.Equal(t, models.Google, ds.Rows[1].Source)
	assert.Equal(t, models.TikTok, ds.Rows[2].Source)
}

func TestUnify_ExistingSourceColumn(t *testing.T) {
	header := append([]string{"source"}, channelHeader...)
	fb := NewTable("Facebook", header, [][]string{
		{"tiktok", "2024-05-01", "ASC", "NY", "C-1", "1", "1", "1", "1"},
		{"", "2024-05-01", "ASC", "NY", "C-2", "1", "1", "1", "1"},
	})
	ds := unify(t, fb, empty("Google"), empty("TikTok"), bizTable())
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, models.TikTok, ds.Rows[0].Source)
	assert.Equal(t, models.Facebook, ds.Rows[1].Source)

	bad := NewTable("Facebook", header, [][]string{{"Bing", "2024-05-01", "ASC", "NY", "C-1", "1", "1", "1", "1"}})
	_, err := Unify([]ChannelTable{{Channel: models.Facebook, Table: bad}}, bizTable(), Options{})
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestUnify_DivisionByZeroIsUndefined(t *testing.T) {
	ds := unify(t,
		chanTable("Facebook",
			[]string{"2024-05-01", "ASC", "NY", "C-1", "0", "0", "0", "0"},
			[]string{"2024-05-01", "ASC", "NY", "C-2", "100", "10", "20", "60"}),
		empty("Google"), empty("TikTok"),
		bizTable(),
	)
	require.Len(t, ds.Rows, 2)
	assert.False(t, ds.Rows[0].ROAS.Defined())
	assert.False(t, ds.Rows[0].CPC.Defined())
	assert.False(t, ds.Rows[0].CTR.Defined())
	assert.False(t, ds.Rows[0].ClickToOrderConvRate.Defined())

	// the day aggregates sums, so the undefined row does not poison it
	roas, ok := ds.Days[0].ROAS.Float()
	require.True(t, ok)
	assert.InDelta(t, 3.0, roas, 1e-12)
}

func TestUnify_MalformedDate(t *testing.T) {
	_, err := Unify([]ChannelTable{
		{Channel: models.Facebook, Table: empty("Facebook")},
		{Channel: models.Google, Table: chanTable("Google",
			[]string{"2024-05-01", "Search", "NY", "G", "1", "1", "1", "1"},
			[]string{"yesterday", "Search", "NY", "G", "1", "1", "1", "1"})},
	}, bizTable(), Options{})

	var mal *MalformedInputError
	require.ErrorAs(t, err, &mal)
	assert.Equal(t, "Google", mal.Table)
	assert.Equal(t, 2, mal.Row)
	assert.Equal(t, "date", mal.Column)
	assert.True(t, errors.Is(err, ErrBadDate))
}

func TestUnify_MalformedNumber(t *testing.T) {
	_, err := Unify(nil, bizTable([]string{"2024-05-01", "ten", "1", "1", "1", "1", "1"}), Options{})
	var mal *MalformedInputError
	require.ErrorAs(t, err, &mal)
	assert.Equal(t, "# of orders", mal.Column)
	assert.ErrorIs(t, err, ErrBadNumber)
}

func TestUnify_MissingDateColumn(t *testing.T) {
	tbl := NewTable("TikTok", []string{"tactic", "spend"}, [][]string{{"Spark", "10"}})
	_, err := Unify([]ChannelTable{{Channel: models.TikTok, Table: tbl}}, bizTable(), Options{})

	var sch *SchemaError
	require.ErrorAs(t, err, &sch)
	assert.Equal(t, "TikTok", sch.Table)
	assert.Equal(t, "date", sch.Column)
}

func TestUnify_EmptyInputs(t *testing.T) {
	ds := unify(t, empty("Facebook"), chanTable("Google"), empty("TikTok"), bizTable())
	assert.Empty(t, ds.Rows)
	assert.Empty(t, ds.Days)
}

func TestUnify_DuplicateBusinessDate(t *testing.T) {
	_, err := Unify(nil, bizTable(
		[]string{"2024-05-01", "1", "1", "1", "1", "1", "1"},
		[]string{"2024/05/01", "1", "1", "1", "1", "1", "1"},
	), Options{})
	assert.ErrorIs(t, err, ErrDuplicateDate)
}

func TestUnify_ExtraColumnsAreCarried(t *testing.T) {
	fb := NewTable("Facebook", append(channelHeader, "ad_group"), [][]string{
		{"2024-05-01", "ASC", "NY", "C-1", "1", "1", "1", "1", "Lookalike"},
	})
	g := NewTable("Google", append(channelHeader, "video_views"), [][]string{
		{"2024-05-01", "Search", "NY", "G-1", "1", "1", "1", "1", "120"},
	})
	ds := unify(t, fb, g, empty("TikTok"), bizTable([]string{"2024-05-02", "1", "1", "1", "1", "1", "1"}))

	assert.Equal(t, []string{"ad_group", "video_views"}, ds.ExtraColumns)
	require.Len(t, ds.Rows, 3)
	assert.Equal(t, map[string]string{"ad_group": "Lookalike", "video_views": "0"}, ds.Rows[0].Extra)
	assert.Equal(t, map[string]string{"ad_group": "", "video_views": "120"}, ds.Rows[1].Extra)
	assert.Equal(t, map[string]string{"ad_group": "", "video_views": "0"}, ds.Rows[2].Extra)
}

func TestUnify_BusinessSourceColumnIsNotCarried(t *testing.T) {
	biz := NewTable("Business", append([]string{"source"}, businessHeader...), [][]string{
		{"shop", "2024-05-02", "1", "1", "1", "1", "1", "1"},
	})
	ds := unify(t, empty("Facebook"), empty("Google"), empty("TikTok"), biz)

	require.Len(t, ds.Rows, 1)
	assert.Equal(t, models.Channel(""), ds.Rows[0].Source)
	assert.Empty(t, ds.ExtraColumns)
	assert.Nil(t, ds.Rows[0].Extra)
}

func TestUnify_NegativeCount(t *testing.T) {
	_, err := Unify([]ChannelTable{
		{Channel: models.Google, Table: chanTable("Google", []string{"2024-05-01", "Search", "NY", "G-1", "100", "-5", "1", "1"})},
	}, bizTable(), Options{})

	var mie *MalformedInputError
	require.ErrorAs(t, err, &mie)
	assert.Equal(t, "clicks", mie.Column)
	assert.ErrorIs(t, err, ErrBadNumber)
}

func TestUnify_MetricSelection(t *testing.T) {
	ds, err := Unify([]ChannelTable{
		{Channel: models.Facebook, Table: chanTable("Facebook", []string{"2024-05-01", "ASC", "NY", "C-1", "500", "25", "50", "150"})},
	}, bizTable(), Options{Metrics: kpi.ROAS})
	require.NoError(t, err)
	assert.True(t, ds.Rows[0].ROAS.Defined())
	assert.False(t, ds.Rows[0].CPC.Defined())
	assert.False(t, ds.Rows[0].CTR.Defined())
}

func TestUnify_DateLayoutsAndHeaderCase(t *testing.T) {
	tbl := NewTable("Facebook", []string{" Date ", "SPEND", "Attributed Revenue"}, [][]string{
		{"2024/01/05", "1", "2"},
		{"01/06/2024", "1", "2"},
		{"2024-01-07 13:45:00", "$1,000.50", "2"},
		{"2024-01-08T09:00:00Z", "1", "2"},
	})
	ds, err := Unify([]ChannelTable{{Channel: models.Facebook, Table: tbl}}, bizTable(), Options{})
	require.NoError(t, err)
	require.Len(t, ds.Days, 4)
	for i, want := range []string{"2024-01-05", "2024-01-06", "2024-01-07", "2024-01-08"} {
		assert.Equal(t, date(want), ds.Days[i].Date)
	}
	assert.Equal(t, 1000.5, ds.Rows[2].Spend)
}

func TestETL_Run(t *testing.T) {
	src := Sources{
		Facebook: StaticSource{chanTable("Facebook", []string{"2024-05-01", "ASC", "NY", "C-1", "500", "25", "50", "150"})},
		Google:   StaticSource{empty("Google")},
		TikTok:   StaticSource{empty("TikTok")},
		Business: StaticSource{bizTable([]string{"2024-05-01", "10", "5", "4", "1000", "400", "600"})},
	}
	etl := NewETL(src, slog.New(slog.NewTextHandler(io.Discard, nil)), Options{})
	ds, err := etl.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, ds.Rows, 1)

	fp1, err := etl.Fingerprint()
	require.NoError(t, err)
	fp2, _ := etl.Fingerprint()
	assert.Equal(t, fp1, fp2)
}
