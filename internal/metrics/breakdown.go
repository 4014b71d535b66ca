package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/AngelCh415/marketing-intel/internal/kpi"
	"github.com/AngelCh415/marketing-intel/internal/models"
)

type Group struct {
	Key string `json:"key"`
	kpi.Totals
	ROAS       models.Ratio `json:"roas"`
	CPC        models.Ratio `json:"cpc"`
	CTR        models.Ratio `json:"ctr"`
	SpendPct   models.Ratio `json:"spend_pct"`
	RevenuePct models.Ratio `json:"revenue_pct"`
}

func finishGroups(m map[string]*kpi.Totals, keys []string) []Group {
	var all kpi.Totals
	for _, k := range keys {
		t := m[k]
		all.Spend += t.Spend
		all.AttributedRevenue += t.AttributedRevenue
	}
	out := make([]Group, 0, len(keys))
	for _, k := range keys {
		t := m[k]
		out = append(out, Group{
			Key:        k,
			Totals:     *t,
			ROAS:       t.ROAS(),
			CPC:        t.CPC(),
			CTR:        t.CTR(),
			SpendPct:   models.Div(t.Spend, all.Spend).Percent(),
			RevenuePct: models.Div(t.AttributedRevenue, all.AttributedRevenue).Percent(),
		})
	}
	return out
}

// ByChannel groups filtered rows by source, in feed order.
func (s *Service) ByChannel(f Filter) []Group {
	m := map[string]*kpi.Totals{}
	for _, r := range s.rows(f) {
		if r.Source == "" {
			continue
		}
		t, ok := m[string(r.Source)]
		if !ok {
			t = &kpi.Totals{}
			m[string(r.Source)] = t
		}
		t.AddRow(r)
	}
	var keys []string
	for _, c := range models.Channels {
		if _, ok := m[string(c)]; ok {
			keys = append(keys, string(c))
		}
	}
	return finishGroups(m, keys)
}

type Dimension string

const (
	ByState    Dimension = "state"
	ByCampaign Dimension = "campaign"
	ByTactic   Dimension = "tactic"
)

func ParseDimension(s string) (Dimension, error) {
	switch Dimension(norm(s)) {
	case ByState:
		return ByState, nil
	case ByCampaign:
		return ByCampaign, nil
	case ByTactic:
		return ByTactic, nil
	}
	return "", fmt.Errorf("unknown dimension %q", s)
}

func (d Dimension) key(r models.UnifiedRecord) string {
	switch d {
	case ByState:
		return r.State
	case ByCampaign:
		return r.Campaign
	default:
		return r.Tactic
	}
}

// Breakdown groups one channel's rows by dimension, largest spend first.
func (s *Service) Breakdown(f Filter, source models.Channel, dim Dimension) []Group {
	f.Channels = []models.Channel{source}
	m := map[string]*kpi.Totals{}
	for _, r := range s.rows(f) {
		k := dim.key(r)
		t, ok := m[k]
		if !ok {
			t = &kpi.Totals{}
			m[k] = t
		}
		t.AddRow(r)
	}
	keys := sortedKeys(m)
	sort.SliceStable(keys, func(i, j int) bool { return m[keys[i]].Spend > m[keys[j]].Spend })
	return finishGroups(m, keys)
}

type DayPoint struct {
	Date               time.Time     `json:"date"`
	TotalRevenue       float64       `json:"total_revenue"`
	AttributedRevenue  float64       `json:"attributed_revenue"`
	GrossProfit        float64       `json:"gross_profit"`
	Spend              float64       `json:"spend"`
	Orders             int64         `json:"orders"`
	NewOrders          int64         `json:"new_orders"`
	RepeatOrders       int64         `json:"repeat_orders"`
	NewCustomers       int64         `json:"new_customers"`
	ReturningCustomers int64         `json:"old_customers"`
	ROAS               models.Ratio  `json:"roas"`
	BySource           []SourceShare `json:"by_source,omitempty"`
}

type SourceShare struct {
	Source            models.Channel `json:"source"`
	AttributedRevenue float64        `json:"attributed_revenue"`
	Spend             float64        `json:"spend"`
}

// Daily is the per-date series behind the trend charts.
func (s *Service) Daily(f Filter) []DayPoint {
	f = s.resolve(f)
	per := map[time.Time]map[models.Channel]*SourceShare{}
	for _, r := range s.rows(f) {
		if r.Source == "" {
			continue
		}
		m, ok := per[r.Date]
		if !ok {
			m = map[models.Channel]*SourceShare{}
			per[r.Date] = m
		}
		sh, ok := m[r.Source]
		if !ok {
			sh = &SourceShare{Source: r.Source}
			m[r.Source] = sh
		}
		sh.AttributedRevenue += r.AttributedRevenue
		sh.Spend += r.Spend
	}

	days := s.days(f.Window)
	out := make([]DayPoint, 0, len(days))
	for _, d := range days {
		p := DayPoint{
			Date:               d.Date,
			TotalRevenue:       d.TotalRevenue,
			GrossProfit:        d.GrossProfit,
			Orders:             d.Orders,
			NewOrders:          d.NewOrders,
			RepeatOrders:       d.Orders - d.NewOrders,
			NewCustomers:       d.NewCustomers,
			ReturningCustomers: d.OldCustomers,
		}
		if !f.marketing() {
			p.Spend = d.Spend
			p.AttributedRevenue = d.AttributedRevenue
		}
		for _, c := range models.Channels {
			sh, ok := per[d.Date][c]
			if !ok {
				continue
			}
			p.BySource = append(p.BySource, *sh)
			if f.marketing() {
				p.Spend += sh.Spend
				p.AttributedRevenue += sh.AttributedRevenue
			}
		}
		p.ROAS = models.Div(p.AttributedRevenue, p.Spend)
		out = append(out, p)
	}
	return out
}

type CustomerSplit struct {
	Orders              int64        `json:"orders"`
	NewOrders           int64        `json:"new_orders"`
	RepeatOrders        int64        `json:"repeat_orders"`
	NewOrdersPct        models.Ratio `json:"new_orders_pct"`
	RepeatOrdersPct     models.Ratio `json:"repeat_orders_pct"`
	NewCustomers        int64        `json:"new_customers"`
	OldCustomers        int64        `json:"old_customers"`
	NewOrdersRevenue    float64      `json:"new_orders_revenue"`
	RepeatOrdersRevenue float64      `json:"repeat_orders_revenue"`
}

// CustomerSplit divides orders into new and repeat. Revenue is apportioned per
// day by order share; days without orders contribute nothing.
func (s *Service) CustomerSplit(f Filter) CustomerSplit {
	f = s.resolve(f)
	var out CustomerSplit
	for _, d := range s.days(f.Window) {
		out.Orders += d.Orders
		out.NewOrders += d.NewOrders
		out.NewCustomers += d.NewCustomers
		if d.Orders != 0 {
			share := float64(d.NewOrders) / float64(d.Orders)
			out.NewOrdersRevenue += share * d.TotalRevenue
			out.RepeatOrdersRevenue += (1 - share) * d.TotalRevenue
		}
	}
	out.RepeatOrders = out.Orders - out.NewOrders
	out.OldCustomers = out.Orders - out.NewCustomers
	out.NewOrdersPct = models.Div(float64(out.NewOrders), float64(out.Orders)).Percent()
	out.RepeatOrdersPct = models.Div(float64(out.RepeatOrders), float64(out.Orders)).Percent()
	return out
}

type TacticGrowth struct {
	Tactic   string         `json:"tactic"`
	Source   models.Channel `json:"source"`
	Current  float64        `json:"attributed_revenue"`
	Previous float64        `json:"previous_attributed_revenue"`
	Change   float64        `json:"growth_pct"`
}

type tacticKey struct {
	tactic string
	source models.Channel
}

// TacticGrowth ranks tactic/source pairs by attributed revenue in the window
// and compares the top n against the window shifted back by off.
func (s *Service) TacticGrowth(f Filter, off kpi.Offset, n int) []TacticGrowth {
	f = s.resolve(f)
	prev := f
	prev.Window = off.Shift(f.Window)

	sum := func(f Filter) map[tacticKey]float64 {
		m := map[tacticKey]float64{}
		for _, r := range s.rows(f) {
			if r.Source == "" {
				continue
			}
			m[tacticKey{r.Tactic, r.Source}] += r.AttributedRevenue
		}
		return m
	}
	cur, old := sum(f), sum(prev)

	out := make([]TacticGrowth, 0, len(cur))
	for k, v := range cur {
		out = append(out, TacticGrowth{Tactic: k.tactic, Source: k.source, Current: v, Previous: old[k]})
	}
	// orden determinista
	sort.Slice(out, func(i, j int) bool {
		if out[i].Current != out[j].Current {
			return out[i].Current > out[j].Current
		}
		if out[i].Tactic != out[j].Tactic {
			return out[i].Tactic < out[j].Tactic
		}
		return out[i].Source < out[j].Source
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	for i := range out {
		out[i].Change = kpi.CappedChange(out[i].Current, out[i].Previous, s.cap)
	}
	return out
}
