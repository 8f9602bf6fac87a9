// Package estimate runs the determine → price → persist flow for one or many
// rug inspections.
package estimate

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/rug-estimator/internal/determine"
	"github.com/sells-group/rug-estimator/internal/model"
	"github.com/sells-group/rug-estimator/internal/pricing"
	"github.com/sells-group/rug-estimator/internal/resilience"
	"github.com/sells-group/rug-estimator/internal/store"
)

// Request is one estimate to produce. Services selects catalog services by
// id in place of the determination; every other field of a supplied service
// is ignored and re-derived from the catalog.
type Request struct {
	Reference string                    `json:"reference,omitempty" yaml:"reference"`
	Input     model.InspectionInput     `json:"input" yaml:"input"`
	Services  []model.DeterminedService `json:"services,omitempty" yaml:"services"`
	Overrides []model.PriceOverride     `json:"overrides,omitempty" yaml:"overrides"`
	Persist   bool                      `json:"-" yaml:"-"`
}

// BatchResult pairs a request index with its estimate or error.
type BatchResult struct {
	Index    int
	Estimate *model.Estimate
	Err      error
}

// Service produces estimates. Store is optional; without one Persist is
// rejected.
type Service struct {
	determiner *determine.Engine
	pricer     *pricing.Engine
	store      store.Store
	retry      resilience.RetryConfig
	now        func() time.Time
}

// NewService creates an estimate service. st may be nil.
func NewService(st store.Store) *Service {
	log := zap.L()
	return &Service{
		determiner: determine.New(determine.WithLogger(log)),
		pricer:     pricing.New(pricing.WithLogger(log)),
		store:      st,
		retry:      resilience.DefaultRetryConfig(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run validates the inspection, determines and prices its services and, when
// requested, persists the estimate with its accepted override audit rows.
// Rejected overrides are returned on the estimate, never as an error.
func (s *Service) Run(ctx context.Context, req Request) (*model.Estimate, error) {
	est, err := s.build(req)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("reference", req.Reference))
	if len(est.Rejected) > 0 {
		log.Warn("estimate: overrides rejected", zap.Int("count", len(est.Rejected)))
	}

	if req.Persist {
		if err := s.persist(ctx, est); err != nil {
			return nil, err
		}
	}

	log.Info("estimate: complete",
		zap.String("estimate_id", est.ID),
		zap.Int("services", len(est.Pricing.Services)),
		zap.Float64("total", est.Pricing.TotalAfterAdjustments),
		zap.Bool("requires_review", est.Determination.RequiresStaffReview),
	)
	return est, nil
}

func (s *Service) build(req Request) (*model.Estimate, error) {
	if err := req.Input.Validate(); err != nil {
		return nil, eris.Wrap(err, "estimate: validate input")
	}

	det := s.determiner.Determine(req.Input)
	services := det.Services
	if req.Services != nil {
		selected, err := s.determiner.Select(req.Input, serviceIDs(req.Services))
		if err != nil {
			return nil, eris.Wrap(err, "estimate: select services")
		}
		services = selected
	}

	result := s.pricer.Calculate(services, req.Input, nil)
	var rejected []model.RejectedOverride
	var overrides []model.PriceOverride
	if len(req.Overrides) > 0 {
		resolved, unmatched := pricing.ResolveOverrides(req.Overrides, result.Services)
		overrideMap, invalid := pricing.BuildOverrideMap(resolved)
		rejected = append(unmatched, invalid...)
		overrides = acceptedOverrides(resolved)
		result = s.pricer.Calculate(services, req.Input, overrideMap)
	}

	return &model.Estimate{
		Reference:     req.Reference,
		Input:         req.Input,
		Determination: det,
		Pricing:       result,
		Overrides:     overrides,
		Rejected:      rejected,
		CreatedAt:     s.now(),
	}, nil
}

func (s *Service) persist(ctx context.Context, est *model.Estimate) error {
	if s.store == nil {
		return eris.New("estimate: no store configured")
	}
	err := resilience.Do(ctx, s.retryConfig("save estimate"), func(ctx context.Context) error {
		return s.store.SaveEstimate(ctx, est)
	})
	if err != nil {
		return eris.Wrap(err, "estimate: save")
	}
	return eris.Wrap(s.recordOverrides(ctx, est), "estimate: record overrides")
}

// recordOverrides writes the audit rows for est. Both backends insert the rows
// in a single transaction, so a retried call never leaves duplicates.
func (s *Service) recordOverrides(ctx context.Context, est *model.Estimate) error {
	if len(est.Overrides) == 0 {
		return nil
	}
	return resilience.Do(ctx, s.retryConfig("record overrides"), func(ctx context.Context) error {
		_, err := s.store.RecordOverrides(ctx, est.ID, est.Overrides)
		return err
	})
}

func (s *Service) retryConfig(operation string) resilience.RetryConfig {
	cfg := s.retry
	cfg.OnRetry = resilience.RetryLogger(operation)
	return cfg
}

// RunBatch prices many requests concurrently. Individual failures are
// reported in the results and do not abort the batch. Persisted estimates are
// written in one bulk save once pricing completes.
func (s *Service) RunBatch(ctx context.Context, reqs []Request, concurrency int) ([]BatchResult, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]BatchResult, len(reqs))

	zap.L().Info("estimate: processing batch",
		zap.Int("requests", len(reqs)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			est, err := s.build(req)
			results[i] = BatchResult{Index: i, Estimate: est, Err: err}
			if err != nil {
				failed.Add(1)
				zap.L().Warn("estimate: batch item failed",
					zap.Int("index", i),
					zap.String("reference", req.Reference),
					zap.Error(err),
				)
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, eris.Wrap(err, "estimate: batch")
	}

	if err := s.persistBatch(ctx, reqs, results); err != nil {
		return results, err
	}

	zap.L().Info("estimate: batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results, nil
}

func (s *Service) persistBatch(ctx context.Context, reqs []Request, results []BatchResult) error {
	var toSave []*model.Estimate
	for i, r := range results {
		if r.Err == nil && reqs[i].Persist {
			toSave = append(toSave, r.Estimate)
		}
	}
	if len(toSave) == 0 {
		return nil
	}
	if s.store == nil {
		return eris.New("estimate: no store configured")
	}

	err := resilience.Do(ctx, s.retryConfig("save batch"), func(ctx context.Context) error {
		_, err := s.store.SaveEstimates(ctx, toSave)
		return err
	})
	if err != nil {
		return eris.Wrap(err, "estimate: save batch")
	}
	for _, est := range toSave {
		if err := s.recordOverrides(ctx, est); err != nil {
			return eris.Wrapf(err, "estimate: record overrides for %s", est.ID)
		}
	}
	return nil
}

func serviceIDs(services []model.DeterminedService) []string {
	ids := make([]string, len(services))
	for i, svc := range services {
		ids[i] = svc.ID
	}
	return ids
}

// acceptedOverrides returns the overrides that pass validation, keeping only
// the last one per service, in input order.
func acceptedOverrides(overrides []model.PriceOverride) []model.PriceOverride {
	last := make(map[string]int, len(overrides))
	for i, o := range overrides {
		if pricing.ValidateOverride(o).Valid {
			last[o.ServiceID] = i
		}
	}

	var out []model.PriceOverride
	for i, o := range overrides {
		if j, ok := last[o.ServiceID]; ok && j == i {
			out = append(out, o)
		}
	}
	return out
}
