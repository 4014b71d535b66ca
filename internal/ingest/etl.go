package ingest

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/AngelCh415/marketing-intel/internal/kpi"
	"github.com/AngelCh415/marketing-intel/internal/models"
)

const (
	colDate       = "date"
	colSource     = "source"
	colTactic     = "tactic"
	colState      = "state"
	colCampaign   = "campaign"
	colImpression = "impression"
	colClicks     = "clicks"
	colSpend      = "spend"
	colAttributed = "attributed revenue"

	colTotalRevenue = "total revenue"
	colGrossProfit  = "gross profit"
	colCOGS         = "cogs"
	colOrders       = "# of orders"
	colNewOrders    = "# of new orders"
	colNewCustomers = "new customers"
)

var (
	channelCols  = []string{colDate, colSource, colTactic, colState, colCampaign, colImpression, colClicks, colSpend, colAttributed}
	businessCols = []string{colDate, colTotalRevenue, colGrossProfit, colCOGS, colOrders, colNewOrders, colNewCustomers}
	// source belongs to the channel feeds and is never carried from business
	businessSkip = append([]string{colSource}, businessCols...)
)

type Sources struct {
	Facebook TableSource
	Google   TableSource
	TikTok   TableSource
	Business TableSource
}

// NewSources resolves four locations (paths or URLs) into sources.
func NewSources(facebook, google, tiktok, business, sheet string, c HTTPClient) Sources {
	return Sources{
		Facebook: NewSource("Facebook", facebook, sheet, c),
		Google:   NewSource("Google", google, sheet, c),
		TikTok:   NewSource("TikTok", tiktok, sheet, c),
		Business: NewSource("Business", business, sheet, c),
	}
}

func (s Sources) channels() []struct {
	ch  models.Channel
	src TableSource
} {
	return []struct {
		ch  models.Channel
		src TableSource
	}{{models.Facebook, s.Facebook}, {models.Google, s.Google}, {models.TikTok, s.TikTok}}
}

// Fingerprint joins the fingerprints of all four sources.
func (s Sources) Fingerprint() (string, error) {
	out := ""
	for _, src := range []TableSource{s.Facebook, s.Google, s.TikTok, s.Business} {
		fp, err := src.Fingerprint()
		if err != nil {
			return "", err
		}
		out += fp + ";"
	}
	return out, nil
}

type Options struct {
	// Metrics selects the derived ratios; zero means all.
	Metrics kpi.MetricSet
}

func (o Options) metrics() kpi.MetricSet {
	if o.Metrics == 0 {
		return kpi.AllMetrics
	}
	return o.Metrics
}

type ChannelTable struct {
	Channel models.Channel
	Table   *Table
}

type ETL struct {
	src  Sources
	log  *slog.Logger
	opts Options
}

func NewETL(src Sources, log *slog.Logger, opts Options) *ETL {
	return &ETL{src: src, log: log, opts: opts}
}

func (e *ETL) Fingerprint() (string, error) { return e.src.Fingerprint() }

// Run loads the four tables and unifies them.
func (e *ETL) Run(ctx context.Context) (*models.Dataset, error) {
	start := time.Now()
	var chans []ChannelTable
	for _, c := range e.src.channels() {
		t, err := c.src.Open(ctx)
		if err != nil {
			return nil, err
		}
		e.log.Debug("table loaded", slog.String("table", t.Name), slog.Int("rows", len(t.Rows)))
		chans = append(chans, ChannelTable{Channel: c.ch, Table: t})
	}
	biz, err := e.src.Business.Open(ctx)
	if err != nil {
		return nil, err
	}
	e.log.Debug("table loaded", slog.String("table", biz.Name), slog.Int("rows", len(biz.Rows)))

	ds, err := Unify(chans, biz, e.opts)
	if err != nil {
		return nil, err
	}
	e.log.Info("unify complete",
		slog.Int("rows", len(ds.Rows)),
		slog.Int("days", len(ds.Days)),
		slog.Duration("took", time.Since(start)))
	return ds, nil
}

// Unify tags and stacks the channel tables in the given order, outer-joins them
// with the business table on date, zero-fills and derives KPIs.
// It is a pure function of its inputs.
func Unify(chans []ChannelTable, business *Table, opts Options) (*models.Dataset, error) {
	ex := newExtras()

	var marketing []models.ChannelRecord
	for _, ct := range chans {
		recs, err := parseChannel(ct.Channel, ct.Table, ex)
		if err != nil {
			return nil, err
		}
		marketing = append(marketing, recs...)
	}
	biz, err := parseBusiness(business, ex)
	if err != nil {
		return nil, err
	}

	byDate := map[time.Time][]int{}
	for i, m := range marketing {
		byDate[m.Date] = append(byDate[m.Date], i)
	}
	bizByDate := map[time.Time]int{}
	for i, b := range biz {
		bizByDate[b.Date] = i
	}

	dates := make([]time.Time, 0, len(byDate)+len(bizByDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	for d := range bizByDate {
		if _, ok := byDate[d]; !ok {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	set := opts.metrics()
	ds := &models.Dataset{
		Rows:         make([]models.UnifiedRecord, 0, len(marketing)+len(biz)),
		Days:         make([]models.DailyRecord, 0, len(dates)),
		ExtraColumns: ex.order,
	}
	for _, d := range dates {
		var b models.BusinessRecord
		if bi, ok := bizByDate[d]; ok {
			b = biz[bi]
		}
		dr := models.DailyRecord{
			Date:         d,
			TotalRevenue: b.TotalRevenue,
			GrossProfit:  b.GrossProfit,
			COGS:         b.COGS,
			Orders:       b.Orders,
			NewOrders:    b.NewOrders,
			NewCustomers: b.NewCustomers,
		}
		idxs := byDate[d]
		if len(idxs) == 0 {
			// solo negocio: columnas de canal quedan en cero
			ds.Rows = append(ds.Rows, joinRow(d, nil, b, ex, set))
		}
		for _, i := range idxs {
			m := &marketing[i]
			ds.Rows = append(ds.Rows, joinRow(d, m, b, ex, set))
			dr.Impression += m.Impression
			dr.Clicks += m.Clicks
			dr.Spend += m.Spend
			dr.AttributedRevenue += m.AttributedRevenue
		}
		dr.Derived = kpi.Derive(kpi.FromDay(dr), set)
		ds.Days = append(ds.Days, dr)
	}
	return ds, nil
}

func joinRow(d time.Time, m *models.ChannelRecord, b models.BusinessRecord, ex *extras, set kpi.MetricSet) models.UnifiedRecord {
	r := models.UnifiedRecord{
		Date:         d,
		TotalRevenue: b.TotalRevenue,
		GrossProfit:  b.GrossProfit,
		COGS:         b.COGS,
		Orders:       b.Orders,
		NewOrders:    b.NewOrders,
		NewCustomers: b.NewCustomers,
	}
	var mExtra map[string]string
	if m != nil {
		r.Source = m.Source
		r.Tactic = m.Tactic
		r.State = m.State
		r.Campaign = m.Campaign
		r.Impression = m.Impression
		r.Clicks = m.Clicks
		r.Spend = m.Spend
		r.AttributedRevenue = m.AttributedRevenue
		mExtra = m.Extra
	}
	r.Extra = ex.fill(mExtra, b.Extra)
	r.Derived = kpi.Derive(kpi.FromRow(r), set)
	return r
}

func requireCols(t *Table, cols ...string) error {
	if t.Empty() {
		return nil
	}
	for _, c := range cols {
		if _, ok := t.Col(c); !ok {
			return &SchemaError{Table: t.Name, Column: c}
		}
	}
	return nil
}

func parseChannel(ch models.Channel, t *Table, ex *extras) ([]models.ChannelRecord, error) {
	if err := requireCols(t, colDate); err != nil {
		return nil, err
	}
	get := columnGetter(t)
	extraCols := ex.register(t, channelCols)

	out := make([]models.ChannelRecord, 0, len(t.Rows))
	for i := range t.Rows {
		bad := func(col, v string, err error) error {
			return &MalformedInputError{Table: t.Name, Row: i + 1, Column: col, Value: v, Err: err}
		}
		ds := get(i, colDate)
		d, ok := parseDate(ds, t.ExcelDates)
		if !ok {
			return nil, bad(colDate, ds, ErrBadDate)
		}
		rec := models.ChannelRecord{
			Date:     d,
			Source:   ch,
			Tactic:   get(i, colTactic),
			State:    get(i, colState),
			Campaign: get(i, colCampaign),
		}
		// la columna source existente se respeta
		if sv := get(i, colSource); sv != "" {
			c, ok := models.ParseChannel(sv)
			if !ok {
				return nil, bad(colSource, sv, ErrUnknownSource)
			}
			rec.Source = c
		}
		for _, f := range []struct {
			col string
			dst *int64
		}{{colImpression, &rec.Impression}, {colClicks, &rec.Clicks}} {
			v := get(i, f.col)
			n, ok := parseCount(v)
			if !ok {
				return nil, bad(f.col, v, ErrBadNumber)
			}
			*f.dst = n
		}
		for _, f := range []struct {
			col string
			dst *float64
		}{{colSpend, &rec.Spend}, {colAttributed, &rec.AttributedRevenue}} {
			v := get(i, f.col)
			n, ok := parseAmount(v)
			if !ok {
				return nil, bad(f.col, v, ErrBadNumber)
			}
			*f.dst = n
		}
		rec.Extra = ex.row(t, i, extraCols)
		out = append(out, rec)
	}
	return out, nil
}

func parseBusiness(t *Table, ex *extras) ([]models.BusinessRecord, error) {
	if err := requireCols(t, colDate); err != nil {
		return nil, err
	}
	get := columnGetter(t)
	extraCols := ex.register(t, businessSkip)

	seen := map[time.Time]struct{}{}
	out := make([]models.BusinessRecord, 0, len(t.Rows))
	for i := range t.Rows {
		bad := func(col, v string, err error) error {
			return &MalformedInputError{Table: t.Name, Row: i + 1, Column: col, Value: v, Err: err}
		}
		ds := get(i, colDate)
		d, ok := parseDate(ds, t.ExcelDates)
		if !ok {
			return nil, bad(colDate, ds, ErrBadDate)
		}
		if _, dup := seen[d]; dup {
			return nil, bad(colDate, ds, ErrDuplicateDate)
		}
		seen[d] = struct{}{}
		rec := models.BusinessRecord{Date: d}
		for _, f := range []struct {
			col string
			dst *float64
		}{{colTotalRevenue, &rec.TotalRevenue}, {colGrossProfit, &rec.GrossProfit}, {colCOGS, &rec.COGS}} {
			v := get(i, f.col)
			n, ok := parseAmount(v)
			if !ok {
				return nil, bad(f.col, v, ErrBadNumber)
			}
			*f.dst = n
		}
		for _, f := range []struct {
			col string
			dst *int64
		}{{colOrders, &rec.Orders}, {colNewOrders, &rec.NewOrders}, {colNewCustomers, &rec.NewCustomers}} {
			v := get(i, f.col)
			n, ok := parseCount(v)
			if !ok {
				return nil, bad(f.col, v, ErrBadNumber)
			}
			*f.dst = n
		}
		rec.Extra = ex.row(t, i, extraCols)
		out = append(out, rec)
	}
	return out, nil
}

// columnGetter returns "" for columns the table does not have.
func columnGetter(t *Table) func(row int, col string) string {
	return func(row int, col string) string {
		c, ok := t.Col(col)
		if !ok {
			return ""
		}
		return t.Cell(row, c)
	}
}
