package calculation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/finlife/lifesim/internal/domain"
)

// MonteCarloRunner runs many independent simulations, each with per-year
// growth rates drawn from a normal distribution around the configured rates.
// Trials share nothing: every trial gets its own cloned configuration, its
// own engine state and its own seeded random source, so results are
// reproducible for a given base seed regardless of scheduling order.
type MonteCarloRunner struct {
	Trials  int
	Seed    int64
	Sigma   float64
	Workers int
	Log     Logger
}

// TrialResult is the outcome of one Monte Carlo trial.
type TrialResult struct {
	Trial       int             `json:"trial"`
	Metric      float64         `json:"metric"`
	FinalAssets decimal.Decimal `json:"final_assets"`
}

// MonteCarloSummary aggregates all trial outcomes.
type MonteCarloSummary struct {
	Trials       []TrialResult `json:"trials"`
	MeanMetric   float64       `json:"mean_metric"`
	StdDevMetric float64       `json:"stddev_metric"`
	MedianMetric float64       `json:"median_metric"`
	MinMetric    float64       `json:"min_metric"`
	MaxMetric    float64       `json:"max_metric"`
}

// Run executes all trials, bounded by Workers goroutines (default
// GOMAXPROCS-friendly 4). The first engine error aborts the whole run.
func (m *MonteCarloRunner) Run(ctx context.Context, base *domain.Configuration) (*MonteCarloSummary, error) {
	if m.Trials <= 0 {
		return nil, fmt.Errorf("monte carlo: trials must be positive, got %d", m.Trials)
	}
	log := m.Log
	if log == nil {
		log = NopLogger{}
	}
	workers := m.Workers
	if workers <= 0 {
		workers = 4
	}
	if workers > m.Trials {
		workers = m.Trials
	}

	results := make([]TrialResult, m.Trials)
	errs := make(chan error, m.Trials)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := m.runTrial(base, i)
				if err != nil {
					errs <- fmt.Errorf("trial %d: %w", i, err)
					continue
				}
				results[i] = res
			}
		}()
	}

	dispatch := func() error {
		defer close(jobs)
		for i := 0; i < m.Trials; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}
	ctxErr := dispatch()
	wg.Wait()
	close(errs)

	if ctxErr != nil {
		return nil, ctxErr
	}
	if err := <-errs; err != nil {
		return nil, err
	}

	summary := summarize(results)
	log.Infof("monte carlo complete: %d trials, mean metric %.2f, stddev %.2f",
		m.Trials, summary.MeanMetric, summary.StdDevMetric)
	return summary, nil
}

// runTrial clones the base configuration, draws per-year growth overrides
// and runs one simulation. Each trial seeds its own source from the base
// seed and trial index.
func (m *MonteCarloRunner) runTrial(base *domain.Configuration, trial int) (TrialResult, error) {
	rng := rand.New(rand.NewSource(m.Seed + int64(trial)))
	cfg := base.Clone()
	cfg.GrowthOverrides = make(map[int]domain.GrowthOverride, cfg.FinalYear-cfg.StartYear+1)
	for year := cfg.StartYear; year <= cfg.FinalYear; year++ {
		isaRate := drawRate(rng, cfg.ISA.Rate, m.Sigma)
		giaRate := drawRate(rng, cfg.GIA.Rate, m.Sigma)
		pensionRate := drawRate(rng, cfg.Pension.Rate, m.Sigma)
		cfg.GrowthOverrides[year] = domain.GrowthOverride{
			ISA:     &isaRate,
			GIA:     &giaRate,
			Pension: &pensionRate,
		}
	}

	engine := NewSimulationEngine(NopLogger{})
	result, err := engine.Run(cfg, false)
	if err != nil {
		return TrialResult{}, err
	}
	return TrialResult{
		Trial:       trial,
		Metric:      result.Metric,
		FinalAssets: result.FinalAssets(),
	}, nil
}

func drawRate(rng *rand.Rand, mean decimal.Decimal, sigma float64) decimal.Decimal {
	if sigma <= 0 {
		return mean
	}
	return decimal.NewFromFloat(mean.InexactFloat64() + rng.NormFloat64()*sigma)
}

func summarize(results []TrialResult) *MonteCarloSummary {
	metrics := make([]float64, len(results))
	mean := 0.0
	for i, r := range results {
		metrics[i] = r.Metric
		mean += r.Metric
	}
	mean /= float64(len(metrics))

	variance := 0.0
	for _, v := range metrics {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(metrics))

	sorted := append([]float64(nil), metrics...)
	sort.Float64s(sorted)
	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}

	return &MonteCarloSummary{
		Trials:       results,
		MeanMetric:   mean,
		StdDevMetric: math.Sqrt(variance),
		MedianMetric: median,
		MinMetric:    sorted[0],
		MaxMetric:    sorted[len(sorted)-1],
	}
}
