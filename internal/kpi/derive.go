package kpi

import "github.com/AngelCh415/marketing-intel/internal/models"

// MetricSet selects the ratios a view needs; old_customers is always computed.
type MetricSet uint8

const (
	ROAS MetricSet = 1 << iota
	CPC
	CTR
	ClickToOrder

	AllMetrics = ROAS | CPC | CTR | ClickToOrder
)

func (m MetricSet) Has(x MetricSet) bool { return m&x != 0 }

// Inputs are the raw columns every derived field reads.
type Inputs struct {
	Impression        int64
	Clicks            int64
	Spend             float64
	AttributedRevenue float64
	Orders            int64
	NewCustomers      int64
}

func Derive(in Inputs, set MetricSet) models.Derived {
	var d models.Derived
	if set.Has(ROAS) {
		d.ROAS = models.Div(in.AttributedRevenue, in.Spend)
	}
	if set.Has(CPC) {
		d.CPC = models.Div(in.Spend, float64(in.Clicks))
	}
	if set.Has(CTR) {
		d.CTR = models.Div(float64(in.Clicks), float64(in.Impression))
	}
	if set.Has(ClickToOrder) {
		d.ClickToOrderConvRate = models.Div(float64(in.Orders), float64(in.Clicks))
	}
	d.OldCustomers = in.Orders - in.NewCustomers
	return d
}

func FromRow(r models.UnifiedRecord) Inputs {
	return Inputs{
		Impression:        r.Impression,
		Clicks:            r.Clicks,
		Spend:             r.Spend,
		AttributedRevenue: r.AttributedRevenue,
		Orders:            r.Orders,
		NewCustomers:      r.NewCustomers,
	}
}

func FromDay(d models.DailyRecord) Inputs {
	return Inputs{
		Impression:        d.Impression,
		Clicks:            d.Clicks,
		Spend:             d.Spend,
		AttributedRevenue: d.AttributedRevenue,
		Orders:            d.Orders,
		NewCustomers:      d.NewCustomers,
	}
}

// Totals accumulates numerators and denominators so aggregate KPIs are
// sum-then-divide, never an average of per-row ratios.
type Totals struct {
	Impression        int64   `json:"impression"`
	Clicks            int64   `json:"clicks"`
	Spend             float64 `json:"spend"`
	AttributedRevenue float64 `json:"attributed revenue"`
}

func (t *Totals) AddRow(r models.UnifiedRecord) {
	t.Impression += r.Impression
	t.Clicks += r.Clicks
	t.Spend += r.Spend
	t.AttributedRevenue += r.AttributedRevenue
}

func (t Totals) ROAS() models.Ratio { return models.Div(t.AttributedRevenue, t.Spend) }
func (t Totals) CPC() models.Ratio  { return models.Div(t.Spend, float64(t.Clicks)) }
func (t Totals) CTR() models.Ratio  { return models.Div(float64(t.Clicks), float64(t.Impression)) }
