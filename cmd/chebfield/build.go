package main

import (
	"context"
	"fmt"
	"time"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/alice-offline/chebfield/cheb"
	"github.com/alice-offline/chebfield/magfield"
)

// buildMap fits every region of cfg and assembles the map. When
// cfg.Validate is positive, each fit is checked against its model on that
// many points, drawn from a stream keyed by the fit name. Fits missing
// their target precision are reported but not rejected.
func buildMap(ctx context.Context, cfg *Config, log *zap.Logger) (*magfield.Map, error) {

	plans, err := cfg.plans()
	if err != nil {
		return nil, err
	}

	var regions [magfield.NumRegions]*magfield.Region

	for _, p := range plans {

		log.Info("fitting region",
			zap.Stringer("region", p.Kind),
			zap.Stringer("system", p.Spec.System),
			zap.Ints("nodes", p.Params.NPoints[:]),
			zap.Float64("precision", p.Params.Precision))

		start := time.Now()

		r, err := magfield.Build(ctx, p.Spec, p.Field.Eval, p.Params)
		if err != nil {
			return nil, fmt.Errorf("region %q: %w", p.Kind, err)
		}

		log.Info("region fitted",
			zap.Stringer("region", p.Kind),
			zap.Int("fits", r.NumFits()),
			zap.Int("coefficients", r.NCoefs()),
			zap.Duration("elapsed", time.Since(start)))

		if cfg.Validate > 0 {
			if err = validateRegion(r, p, cfg.Validate, log); err != nil {
				return nil, fmt.Errorf("region %q: %w", p.Kind, err)
			}
		}

		regions[p.Kind] = r
	}

	return magfield.NewMap(regions[magfield.Solenoid], regions[magfield.Dipole], regions[magfield.TPCIntegral])
}

func validateRegion(r *magfield.Region, p regionPlan, samples int, log *zap.Logger) error {
	for id := 0; id < r.NumFits(); id++ {
		fit := r.Fit(id)

		key := blake3.Sum256([]byte(fit.Name()))

		report, err := cheb.Validate(fit, p.Field.Eval, samples, key[:])
		if err != nil {
			return fmt.Errorf("validate %s: %w", fit.Name(), err)
		}

		fields := []zap.Field{
			zap.String("fit", fit.Name()),
			zap.Int("coefficients", fit.NCoefs()),
			zap.Stringer("errors", report),
		}

		if report.WithinTarget {
			log.Debug("fit validated", fields...)
		} else {
			log.Warn("fit misses its target precision", fields...)
		}
	}
	return nil
}
