package metrics

import (
	"time"

	"github.com/AngelCh415/marketing-intel/internal/kpi"
	"github.com/AngelCh415/marketing-intel/internal/models"
)

type Summary struct {
	From              time.Time    `json:"from"`
	To                time.Time    `json:"to"`
	TotalRevenue      float64      `json:"total_revenue"`
	GrossProfit       float64      `json:"gross_profit"`
	COGS              float64      `json:"cogs"`
	Orders            int64        `json:"orders"`
	NewOrders         int64        `json:"new_orders"`
	NewCustomers      int64        `json:"new_customers"`
	OldCustomers      int64        `json:"old_customers"`
	Spend             float64      `json:"spend"`
	AttributedRevenue float64      `json:"attributed_revenue"`
	Impression        int64        `json:"impression"`
	Clicks            int64        `json:"clicks"`
	ROAS              models.Ratio `json:"roas"`
	CPC               models.Ratio `json:"cpc"`
	CTR               models.Ratio `json:"ctr"`
	ClickToOrder      models.Ratio `json:"click_to_order_conversion_rate"`
}

// Summary sums business fields over days in the window and marketing fields
// over the filtered rows; every ratio is sum-then-divide.
func (s *Service) Summary(f Filter) Summary {
	f = s.resolve(f)
	out := Summary{From: f.Window.Start, To: f.Window.End}
	for _, d := range s.days(f.Window) {
		out.TotalRevenue += d.TotalRevenue
		out.GrossProfit += d.GrossProfit
		out.COGS += d.COGS
		out.Orders += d.Orders
		out.NewOrders += d.NewOrders
		out.NewCustomers += d.NewCustomers
	}
	out.OldCustomers = out.Orders - out.NewCustomers

	var t kpi.Totals
	if f.marketing() {
		for _, r := range s.rows(f) {
			t.AddRow(r)
		}
	} else {
		for _, d := range s.days(f.Window) {
			t.Impression += d.Impression
			t.Clicks += d.Clicks
			t.Spend += d.Spend
			t.AttributedRevenue += d.AttributedRevenue
		}
	}
	out.Spend = t.Spend
	out.AttributedRevenue = t.AttributedRevenue
	out.Impression = t.Impression
	out.Clicks = t.Clicks
	out.ROAS = t.ROAS()
	out.CPC = t.CPC()
	out.CTR = t.CTR()
	out.ClickToOrder = models.Div(float64(out.Orders), float64(t.Clicks))
	return out
}

type Change struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Change   float64 `json:"change_pct"`
}

type Comparison struct {
	Offset       string    `json:"offset"`
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	PreviousFrom time.Time `json:"previous_from"`
	PreviousTo   time.Time `json:"previous_to"`
	TotalRevenue Change    `json:"total_revenue"`
	Orders       Change    `json:"orders"`
	Spend        Change    `json:"spend"`
	ROAS         Change    `json:"roas"`
}

// Compare summarises the window and the window shifted back by off. An
// undefined ROAS takes part in the change formula as 0.
func (s *Service) Compare(f Filter, off kpi.Offset) Comparison {
	f = s.resolve(f)
	prev := f
	prev.Window = off.Shift(f.Window)

	cur, old := s.Summary(f), s.Summary(prev)
	mk := func(c, p float64) Change {
		return Change{Current: c, Previous: p, Change: kpi.CappedChange(c, p, s.cap)}
	}
	return Comparison{
		Offset:       off.String(),
		From:         f.Window.Start,
		To:           f.Window.End,
		PreviousFrom: prev.Window.Start,
		PreviousTo:   prev.Window.End,
		TotalRevenue: mk(cur.TotalRevenue, old.TotalRevenue),
		Orders:       mk(float64(cur.Orders), float64(old.Orders)),
		Spend:        mk(cur.Spend, old.Spend),
		ROAS:         mk(cur.ROAS.Or(0), old.ROAS.Or(0)),
	}
}
