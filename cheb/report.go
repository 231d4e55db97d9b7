package cheb

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/alice-offline/chebfield/utils/sampling"
)

// FitReport summarizes the absolute error of a parameterization against
// the function it approximates, over randomly sampled points of its box.
type FitReport struct {
	Samples      int
	MaxAbsErr    []float64 // per output dimension
	MeanAbsErr   float64
	StdAbsErr    float64
	P99AbsErr    float64
	WithinTarget bool // MaxAbsErr[i] <= Precision for every i
}

// String returns a one-line summary of the report.
func (r FitReport) String() string {
	var max float64
	for _, e := range r.MaxAbsErr {
		max = math.Max(max, e)
	}
	return fmt.Sprintf("samples=%d max=%.3e mean=%.3e std=%.3e p99=%.3e ok=%t",
		r.Samples, max, r.MeanAbsErr, r.StdAbsErr, r.P99AbsErr, r.WithinTarget)
}

// Validate compares fit with f on n points drawn uniformly in the validity
// box by a KeyedPRNG seeded with key, so that the same key always checks
// the same points.
func Validate(fit *Fit3D, f Func, n int, key []byte) (report FitReport, err error) {

	if n < 1 {
		return report, fmt.Errorf("cannot Validate: invalid number of samples %d", n)
	}

	prng, err := sampling.NewKeyedPRNG(key)
	if err != nil {
		return report, fmt.Errorf("cannot Validate: %w", err)
	}
	sampler := sampling.NewUniformSampler(prng)

	dimOut := fit.OutputDim()
	want := make([]float64, dimOut)
	have := make([]float64, dimOut)

	report.Samples = n
	report.MaxAbsErr = make([]float64, dimOut)

	errs := make(stats.Float64Data, 0, n*dimOut)

	bMin, bMax := fit.BoundMin(), fit.BoundMax()

	for s := 0; s < n; s++ {
		var p [3]float64
		if p, err = sampler.Point(bMin, bMax); err != nil {
			return report, fmt.Errorf("cannot Validate: %w", err)
		}
		f(p, want)
		fit.Eval(p, have)
		for i := range want {
			e := math.Abs(have[i] - want[i])
			report.MaxAbsErr[i] = math.Max(report.MaxAbsErr[i], e)
			errs = append(errs, e)
		}
	}

	if report.MeanAbsErr, err = errs.Mean(); err != nil {
		return report, fmt.Errorf("cannot Validate: stats.Mean: %w", err)
	}

	if report.StdAbsErr, err = errs.StandardDeviation(); err != nil {
		return report, fmt.Errorf("cannot Validate: stats.StandardDeviation: %w", err)
	}

	if report.P99AbsErr, err = errs.Percentile(99); err != nil {
		return report, fmt.Errorf("cannot Validate: stats.Percentile: %w", err)
	}

	report.WithinTarget = true
	for _, e := range report.MaxAbsErr {
		if e > fit.Precision() {
			report.WithinTarget = false
		}
	}

	return report, nil
}
