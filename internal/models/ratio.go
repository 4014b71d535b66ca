package models

import (
	"encoding/json"
	"math"
)

// Ratio is the result of a KPI division. A zero denominator leaves it undefined
// instead of producing Inf/NaN; undefined ratios marshal to null.
type Ratio struct {
	v  float64
	ok bool
}

func Div(num, den float64) Ratio {
	if den == 0 {
		return Ratio{}
	}
	return Ratio{v: num / den, ok: true}
}

func Undefined() Ratio { return Ratio{} }

func (r Ratio) Defined() bool { return r.ok }

func (r Ratio) Float() (float64, bool) { return r.v, r.ok }

// Or returns the value, or def when undefined.
func (r Ratio) Or(def float64) float64 {
	if !r.ok {
		return def
	}
	return r.v
}

// Percent scales a defined ratio by 100.
func (r Ratio) Percent() Ratio {
	if !r.ok {
		return r
	}
	return Ratio{v: r.v * 100, ok: true}
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.ok || math.IsNaN(r.v) || math.IsInf(r.v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(r.v)
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = Ratio{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*r = Ratio{v: f, ok: true}
	return nil
}
