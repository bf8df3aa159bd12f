package nutrition

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Resolver walks the fixed fallback chain: cache, external sources in order,
// static table, default record. It never fails; the caller always gets a
// best-effort record.
type Resolver struct {
	cache   *Cache
	sources []Source
	timeout time.Duration
	logger  *zap.Logger
}

// NewResolver creates a resolver over the given source chain. The order of
// sources is the resolution order. timeout bounds each individual source call.
func NewResolver(cache *Cache, sources []Source, timeout time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{cache: cache, sources: sources, timeout: timeout, logger: logger}
}

// Resolve returns nutrition facts for the food. A fresh cache entry wins
// outright. Otherwise each source is tried in order under its own timeout;
// the first result with positive calories is cached and returned. When every
// source fails the static table answers, then the fixed default. Only
// genuine external results are written back to the cache.
func (r *Resolver) Resolve(ctx context.Context, food string) *Record {
	if rec, err := r.cache.Get(food); err != nil {
		r.logger.Error("nutrition cache read failed", zap.String("food", food), zap.Error(err))
	} else if rec != nil {
		r.logger.Debug("nutrition cache hit", zap.String("food", food), zap.String("source", rec.Source))
		return rec
	}

	for _, src := range r.sources {
		srcCtx, cancel := context.WithTimeout(ctx, r.timeout)
		rec, err := src.Lookup(srcCtx, food)
		cancel()

		if err != nil {
			r.logger.Warn("nutrition source failed",
				zap.String("source", src.Name()),
				zap.String("food", food),
				zap.Error(err))
			continue
		}
		if rec == nil || rec.Calories <= 0 {
			continue
		}

		rec.Source = src.Name()
		if err := r.cache.Put(food, rec); err != nil {
			r.logger.Error("nutrition cache write failed", zap.String("food", food), zap.Error(err))
		}
		r.logger.Info("resolved nutrition data",
			zap.String("food", food),
			zap.String("source", src.Name()),
			zap.Float64("calories", rec.Calories))
		return rec
	}

	if rec := StaticLookup(food); rec != nil {
		r.logger.Info("using static nutrition table", zap.String("food", food))
		return rec
	}

	r.logger.Warn("no nutrition data found, using default", zap.String("food", food))
	return DefaultRecord()
}
