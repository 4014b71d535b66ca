package httpx

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/AngelCh415/marketing-intel/internal/metrics"
	"github.com/AngelCh415/marketing-intel/internal/models"
	"github.com/AngelCh415/marketing-intel/internal/store"
	"github.com/AngelCh415/marketing-intel/internal/telemetry"
	"github.com/AngelCh415/marketing-intel/internal/utils"
)

type Options struct {
	ChangeCap   float64
	CompareDays int
}

func NewRouter(log *slog.Logger, st *store.MemoryStore, tel *telemetry.Metrics, opts Options) http.Handler {
	if opts.CompareDays <= 0 {
		opts.CompareDays = 14
	}
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log, tel))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := st.Dataset(r.Context()); err != nil {
			writeError(w, r, fromPipelineError(err))
			return
		}
		w.WriteHeader(200)
		w.Write([]byte("ready"))
	})
	mux.Handle("/metrics", tel.Handler())

	// query wraps a handler with dataset loading and query parsing.
	query := func(h func(w http.ResponseWriter, r *http.Request, svc *metrics.Service, q queryParams, f metrics.Filter)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			q, f, err := parseRequest(r)
			if err != nil {
				writeError(w, r, badRequest(err))
				return
			}
			ds, err := st.Dataset(r.Context())
			if err != nil {
				log.Error("dataset", slog.String("rid", utils.RID(r.Context())), slog.String("err", err.Error()))
				writeError(w, r, fromPipelineError(err))
				return
			}
			h(w, r, metrics.NewService(ds, opts.ChangeCap), q, f)
		}
	}

	mux.Route("/api", func(api chi.Router) {
		api.Get("/summary", query(func(w http.ResponseWriter, r *http.Request, svc *metrics.Service, q queryParams, f metrics.Filter) {
			render.JSON(w, r, svc.Summary(f))
		}))

		api.Get("/compare", query(func(w http.ResponseWriter, r *http.Request, svc *metrics.Service, q queryParams, f metrics.Filter) {
			render.JSON(w, r, svc.Compare(f, q.offset(opts.CompareDays)))
		}))

		api.Get("/channels", query(func(w http.ResponseWriter, r *http.Request, svc *metrics.Service, q queryParams, f metrics.Filter) {
			render.JSON(w, r, svc.ByChannel(f))
		}))

		api.Get("/channels/{source}/breakdown", query(func(w http.ResponseWriter, r *http.Request, svc *metrics.Service, q queryParams, f metrics.Filter) {
			src, ok := models.ParseChannel(chi.URLParam(r, "source"))
			if !ok {
				writeError(w, r, newAPIError(http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("channel %q not found", chi.URLParam(r, "source")), nil))
				return
			}
			dim := metrics.ByTactic
			if q.By != "" {
				var err error
				if dim, err = metrics.ParseDimension(q.By); err != nil {
					writeError(w, r, badRequest(err))
					return
				}
			}
			render.JSON(w, r, svc.Breakdown(f, src, dim))
		}))

		api.Get("/daily", query(func(w http.ResponseWriter, r *http.Request, svc *metrics.Service, q queryParams, f metrics.Filter) {
			render.JSON(w, r, svc.Daily(f))
		}))

		api.Get("/customers", query(func(w http.ResponseWriter, r *http.Request, svc *metrics.Service, q queryParams, f metrics.Filter) {
			render.JSON(w, r, svc.CustomerSplit(f))
		}))

		api.Get("/tactics/growth", query(func(w http.ResponseWriter, r *http.Request, svc *metrics.Service, q queryParams, f metrics.Filter) {
			render.JSON(w, r, svc.TacticGrowth(f, q.offset(opts.CompareDays), q.Top))
		}))

		api.Get("/rows", query(func(w http.ResponseWriter, r *http.Request, svc *metrics.Service, q queryParams, f metrics.Filter) {
			render.JSON(w, r, svc.Rows(f, q.Limit, q.Offset))
		}))

		api.Post("/reload", func(w http.ResponseWriter, r *http.Request) {
			st.Purge()
			ds, err := st.Dataset(r.Context())
			if err != nil {
				writeError(w, r, fromPipelineError(err))
				return
			}
			render.Status(r, http.StatusAccepted)
			render.JSON(w, r, map[string]any{"rows": len(ds.Rows), "days": len(ds.Days)})
		})
	})

	return mux
}
