package models

import (
	"strings"
	"time"
)

type Channel string

const (
	Facebook Channel = "Facebook"
	Google   Channel = "Google"
	TikTok   Channel = "TikTok"
)

// Channels en orden de apilado
var Channels = []Channel{Facebook, Google, TikTok}

// ParseChannel matches a channel name case-insensitively.
func ParseChannel(s string) (Channel, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Channels {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

type ChannelRecord struct {
	Date              time.Time
	Source            Channel
	Tactic            string
	State             string
	Campaign          string
	Impression        int64
	Clicks            int64
	Spend             float64
	AttributedRevenue float64
	Extra             map[string]string
}

type BusinessRecord struct {
	Date         time.Time
	TotalRevenue float64
	GrossProfit  float64
	COGS         float64
	Orders       int64
	NewOrders    int64
	NewCustomers int64
	Extra        map[string]string
}

type Derived struct {
	ROAS                 Ratio `json:"ROAS"`
	CPC                  Ratio `json:"CPC"`
	CTR                  Ratio `json:"CTR"`
	ClickToOrderConvRate Ratio `json:"Click_to_Order_Conversion_Rate"`
	OldCustomers         int64 `json:"old_customers"`
}

type UnifiedRecord struct {
	Date              time.Time         `json:"date"`
	Source            Channel           `json:"source"`
	Tactic            string            `json:"tactic"`
	State             string            `json:"state"`
	Campaign          string            `json:"campaign"`
	Impression        int64             `json:"impression"`
	Clicks            int64             `json:"clicks"`
	Spend             float64           `json:"spend"`
	AttributedRevenue float64           `json:"attributed revenue"`
	TotalRevenue      float64           `json:"total revenue"`
	GrossProfit       float64           `json:"gross profit"`
	COGS              float64           `json:"COGS"`
	Orders            int64             `json:"# of orders"`
	NewOrders         int64             `json:"# of new orders"`
	NewCustomers      int64             `json:"new customers"`
	Extra             map[string]string `json:"extra,omitempty"`
	Derived
}

// DailyRecord is the business-level view: one per date, marketing fields summed.
type DailyRecord struct {
	Date              time.Time `json:"date"`
	Impression        int64     `json:"impression"`
	Clicks            int64     `json:"clicks"`
	Spend             float64   `json:"spend"`
	AttributedRevenue float64   `json:"attributed revenue"`
	TotalRevenue      float64   `json:"total revenue"`
	GrossProfit       float64   `json:"gross profit"`
	COGS              float64   `json:"COGS"`
	Orders            int64     `json:"# of orders"`
	NewOrders         int64     `json:"# of new orders"`
	NewCustomers      int64     `json:"new customers"`
	Derived
}

type Dataset struct {
	Rows []UnifiedRecord
	Days []DailyRecord
	// ExtraColumns lists carried non-schema columns in first-seen order.
	ExtraColumns []string
}

func (d *Dataset) DateRange() (time.Time, time.Time) {
	if d == nil || len(d.Days) == 0 {
		return time.Time{}, time.Time{}
	}
	return d.Days[0].Date, d.Days[len(d.Days)-1].Date
}
