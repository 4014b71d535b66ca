package store

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/AngelCh415/marketing-intel/internal/models"
	"github.com/AngelCh415/marketing-intel/internal/telemetry"
)

// Pipeline builds a dataset; Fingerprint identifies the inputs it would read.
type Pipeline interface {
	Fingerprint() (string, error)
	Run(ctx context.Context) (*models.Dataset, error)
}

// MemoryStore memoizes datasets by input fingerprint. Concurrent misses for the
// same fingerprint share one pipeline run.
type MemoryStore struct {
	p     Pipeline
	cache *lru.Cache[string, *models.Dataset]
	sf    singleflight.Group
	tel   *telemetry.Metrics
}

func NewMemoryStore(p Pipeline, size int, tel *telemetry.Metrics) (*MemoryStore, error) {
	c, err := lru.New[string, *models.Dataset](size)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{p: p, cache: c, tel: tel}, nil
}

// Dataset returns the unified dataset for the current inputs. Callers must
// not mutate it.
func (s *MemoryStore) Dataset(ctx context.Context) (*models.Dataset, error) {
	fp, err := s.p.Fingerprint()
	if err != nil {
		return nil, err
	}
	if ds, ok := s.cache.Get(fp); ok {
		s.tel.CacheHit()
		return ds, nil
	}
	s.tel.CacheMiss()

	// the run is shared, so one caller going away must not cancel it for the rest
	runCtx := context.WithoutCancel(ctx)
	v, err, _ := s.sf.Do(fp, func() (any, error) {
		start := time.Now()
		ds, err := s.p.Run(runCtx)
		if err != nil {
			s.tel.ObservePipeline(start, 0, err)
			return nil, err
		}
		s.tel.ObservePipeline(start, len(ds.Rows), nil)
		s.cache.Add(fp, ds)
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	ds, ok := v.(*models.Dataset)
	if !ok {
		return nil, fmt.Errorf("unexpected dataset type %T", v)
	}
	return ds, nil
}

func (s *MemoryStore) Purge() { s.cache.Purge() }

func (s *MemoryStore) Len() int { return s.cache.Len() }
