package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AngelCh415/marketing-intel/internal/kpi"
	"github.com/AngelCh415/marketing-intel/internal/metrics"
	"github.com/AngelCh415/marketing-intel/internal/models"
)

const dateLayout = "2006-01-02"

type queryParams struct {
	From     string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Channel  string `query:"channel"`
	State    string `query:"state"`
	Tactic   string `query:"tactic"`
	Campaign string `query:"campaign"`
	Compare  string `query:"compare" validate:"omitempty,offset"`
	By       string `query:"by" validate:"omitempty,oneof=state campaign tactic"`
	Limit    int    `query:"limit" validate:"gte=0"`
	Offset   int    `query:"offset" validate:"gte=0"`
	Top      int    `query:"top" validate:"gte=0,lte=100"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("offset", func(fl validator.FieldLevel) bool {
		_, err := kpi.ParseOffset(fl.Field().String())
		return err == nil
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("query")
	})
	return v
}

func csvList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoiDef(s string, d int) (int, error) {
	if s == "" {
		return d, nil
	}
	return strconv.Atoi(s)
}

func parseQuery(v url.Values) (queryParams, error) {
	q := queryParams{
		From:     v.Get("from"),
		To:       v.Get("to"),
		Channel:  v.Get("channel"),
		State:    v.Get("state"),
		Tactic:   v.Get("tactic"),
		Campaign: v.Get("campaign"),
		Compare:  v.Get("compare"),
		By:       strings.ToLower(strings.TrimSpace(v.Get("by"))),
	}
	var err error
	for _, f := range []struct {
		name string
		def  int
		dst  *int
	}{{"limit", 100, &q.Limit}, {"offset", 0, &q.Offset}, {"top", 5, &q.Top}} {
		if *f.dst, err = atoiDef(v.Get(f.name), f.def); err != nil {
			return q, fmt.Errorf("%s: not an integer", f.name)
		}
	}
	if err := validate.Struct(q); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return q, fmt.Errorf("%s: failed %q validation", ve[0].Field(), ve[0].Tag())
		}
		return q, err
	}
	return q, nil
}

func (q queryParams) filter() (metrics.Filter, error) {
	var f metrics.Filter
	if q.From != "" {
		f.Window.Start, _ = time.Parse(dateLayout, q.From)
	}
	if q.To != "" {
		f.Window.End, _ = time.Parse(dateLayout, q.To)
	}
	if !f.Window.Start.IsZero() && !f.Window.End.IsZero() && f.Window.End.Before(f.Window.Start) {
		return f, errors.New("to must not be before from")
	}
	for _, c := range csvList(q.Channel) {
		ch, ok := models.ParseChannel(c)
		if !ok {
			return f, fmt.Errorf("unknown channel %q", c)
		}
		f.Channels = append(f.Channels, ch)
	}
	f.States = csvList(q.State)
	f.Tactics = csvList(q.Tactic)
	f.Campaigns = csvList(q.Campaign)
	return f, nil
}

// offset falls back to a fixed number of days.
func (q queryParams) offset(defDays int) kpi.Offset {
	if q.Compare == "" {
		return kpi.Offset{Days: defDays}
	}
	o, _ := kpi.ParseOffset(q.Compare)
	return o
}

func parseRequest(r *http.Request) (queryParams, metrics.Filter, error) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		return q, metrics.Filter{}, err
	}
	f, err := q.filter()
	return q, f, err
}
