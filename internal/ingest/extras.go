package ingest

import "strings"

// extras tracks columns outside the fixed schema. The union of all four
// tables is carried on every unified row.
type extras struct {
	order   []string
	name    map[string]string // normalized -> first-seen header
	hasNum  map[string]bool
	hasText map[string]bool
}

type extraCol struct {
	name string
	idx  int
}

func newExtras() *extras {
	return &extras{name: map[string]string{}, hasNum: map[string]bool{}, hasText: map[string]bool{}}
}

func (e *extras) register(t *Table, known []string) []extraCol {
	skip := map[string]bool{}
	for _, k := range known {
		skip[k] = true
	}
	var cols []extraCol
	for i, h := range t.Header {
		k := normCol(h)
		if k == "" || skip[k] {
			continue
		}
		if c, ok := t.Col(k); !ok || c != i {
			continue
		}
		n, ok := e.name[k]
		if !ok {
			n = strings.TrimSpace(h)
			e.name[k] = n
			e.order = append(e.order, n)
		}
		for r := range t.Rows {
			v := t.Cell(r, i)
			switch {
			case v == "":
			case isNumeric(v):
				e.hasNum[n] = true
			default:
				e.hasText[n] = true
			}
		}
		cols = append(cols, extraCol{name: n, idx: i})
	}
	return cols
}

func (e *extras) row(t *Table, r int, cols []extraCol) map[string]string {
	var out map[string]string
	for _, c := range cols {
		v := t.Cell(r, c.idx)
		if v == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(cols))
		}
		out[c.name] = v
	}
	return out
}

func (e *extras) numeric(name string) bool { return e.hasNum[name] && !e.hasText[name] }

// fill merges the channel and business extras and zero-fills the rest.
func (e *extras) fill(a, b map[string]string) map[string]string {
	if len(e.order) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.order))
	for _, n := range e.order {
		if v, ok := a[n]; ok {
			out[n] = v
		} else if v, ok := b[n]; ok {
			out[n] = v
		} else if e.numeric(n) {
			out[n] = "0"
		} else {
			out[n] = ""
		}
	}
	return out
}
