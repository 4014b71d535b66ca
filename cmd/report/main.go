// Command report prints the dashboard summary, period comparison and channel
// comparison for a date window as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/AngelCh415/marketing-intel/internal/config"
	"github.com/AngelCh415/marketing-intel/internal/ingest"
	"github.com/AngelCh415/marketing-intel/internal/kpi"
	"github.com/AngelCh415/marketing-intel/internal/metrics"
)

func main() {
	from := flag.String("from", "", "window start (YYYY-MM-DD)")
	to := flag.String("to", "", "window end (YYYY-MM-DD)")
	compare := flag.String("compare", "", "comparison offset: 14d, 30d, 1m or prev-month")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	var f metrics.Filter
	for _, p := range []struct {
		v   string
		dst *time.Time
	}{{*from, &f.Window.Start}, {*to, &f.Window.End}} {
		if p.v == "" {
			continue
		}
		if *p.dst, err = time.Parse("2006-01-02", p.v); err != nil {
			logger.Error("bad date", slog.String("value", p.v))
			os.Exit(2)
		}
	}
	off := kpi.Offset{Days: cfg.CompareDays}
	if *compare != "" {
		if off, err = kpi.ParseOffset(*compare); err != nil {
			logger.Error("bad offset", slog.String("err", err.Error()))
			os.Exit(2)
		}
	}

	src := ingest.NewSources(cfg.FacebookSource, cfg.GoogleSource, cfg.TikTokSource, cfg.BusinessSource, cfg.XLSXSheet, ingest.NewHTTPClient(cfg.HTTPTimeout))
	ds, err := ingest.NewETL(src, logger, ingest.Options{}).Run(context.Background())
	if err != nil {
		logger.Error("unify", slog.String("err", err.Error()))
		os.Exit(1)
	}

	svc := metrics.NewService(ds, cfg.ChangeCap)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", " ")
	if err := enc.Encode(map[string]any{
		"summary":  svc.Summary(f),
		"compare":  svc.Compare(f, off),
		"channels": svc.ByChannel(f),
	}); err != nil {
		logger.Error("encode", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
