// Package benchmarking runs one cluster scene across every requested
// scheduler variant/policy combination over repeated trials and
// reports per-variant throughput statistics, the same
// min/max/avg/median/stddev-over-sorted-samples shape the teacher's
// comprehensive benchmark suite computed across worker/sample/scene
// combinations — grouped here by scheduler variant instead.
package benchmarking

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/gravit-cluster/gvtcore/internal/adapter"
	"github.com/gravit-cluster/gvtcore/internal/block"
	"github.com/gravit-cluster/gvtcore/internal/compositor"
	"github.com/gravit-cluster/gvtcore/internal/controlplane"
	"github.com/gravit-cluster/gvtcore/internal/exchange"
	"github.com/gravit-cluster/gvtcore/internal/framebuffer"
	"github.com/gravit-cluster/gvtcore/internal/hybridpolicy"
	"github.com/gravit-cluster/gvtcore/internal/monitoring"
	"github.com/gravit-cluster/gvtcore/internal/queue"
	"github.com/gravit-cluster/gvtcore/internal/rayproto"
	"github.com/gravit-cluster/gvtcore/internal/scheduler"
	"github.com/gravit-cluster/gvtcore/internal/shuffler"
	"github.com/gravit-cluster/gvtcore/internal/voter"
)

// Variant names one scheduler configuration to benchmark: a Kind, and
// for Hybrid, the policy to run.
type Variant struct {
	Name   string
	Kind   scheduler.Kind
	Policy hybridpolicy.Policy
}

// Config is one benchmark run's parameters: the rank count to partition
// the scene across, the variants to compare, and how many trials to
// average per variant. The scene itself is passed to Run separately.
type Config struct {
	NumRanks int
	Trials   int
	Variants []Variant
}

// Result is one variant's aggregated statistics across Trials runs.
type Result struct {
	Variant        string  `json:"variant"`
	MinRaysPerSec  float64 `json:"min_rays_per_sec"`
	MaxRaysPerSec  float64 `json:"max_rays_per_sec"`
	AvgRaysPerSec  float64 `json:"avg_rays_per_sec"`
	MedianRaysPerSec float64 `json:"median_rays_per_sec"`
	StdDevRaysPerSec float64 `json:"stddev_rays_per_sec"`
	AvgRounds      float64 `json:"avg_rounds"`
}

// BlockFactory builds a fresh, independent set of blocks/adapter for
// one trial — blocks carry residency state, so each trial needs its
// own to avoid cross-contaminating cache/queue state between runs.
type BlockFactory func() (adapter.API, []*block.Block)

// Run benchmarks every configured Variant against the scene produced by
// newScene/camera, returning one Result per variant in the order given.
func Run(cfg Config, newScene BlockFactory, camera []rayproto.Ray, width, height int) ([]Result, error) {
	results := make([]Result, 0, len(cfg.Variants))
	for _, v := range cfg.Variants {
		samples := make([]float64, 0, cfg.Trials)
		roundSamples := make([]float64, 0, cfg.Trials)

		for t := 0; t < cfg.Trials; t++ {
			rps, rounds, err := runTrial(cfg.NumRanks, v, newScene, camera, width, height)
			if err != nil {
				return nil, fmt.Errorf("benchmarking: variant %s trial %d: %w", v.Name, t, err)
			}
			samples = append(samples, rps)
			roundSamples = append(roundSamples, rounds)
		}

		results = append(results, summarize(v.Name, samples, roundSamples))
	}
	return results, nil
}

func runTrial(numRanks int, v Variant, newScene BlockFactory, camera []rayproto.Ray, width, height int) (raysPerSec float64, avgRounds float64, err error) {
	transports := exchange.NewTransport(numRanks)
	var voterNet *exchange.VoterNet
	var voters []*voter.Voter
	var coordinator *controlplane.Coordinator
	if v.Kind == scheduler.Domain || v.Kind == scheduler.AsyncDomain {
		voterNet = exchange.NewVoterNet(numRanks)
		voters = make([]*voter.Voter, numRanks)
		for r := 0; r < numRanks; r++ {
			voters[r] = voter.New(r, numRanks, voterNet.Messenger(r))
			voterNet.Attach(r, voters[r])
		}
	}
	if v.Kind == scheduler.Hybrid {
		coordinator = controlplane.NewCoordinator(numRanks, v.Policy, int64(1))
	}

	stats := make([]*monitoring.RankStats, numRanks)
	errs := make([]error, numRanks)
	done := make(chan int, numRanks)
	start := time.Now()

	for r := 0; r < numRanks; r++ {
		r := r
		ref, blocks := newScene()
		bvh := block.Build(blocks)
		cache := block.NewCache(0)
		for _, b := range blocks {
			cache.Register(b)
		}
		fb := framebuffer.New(width, height)
		q := queue.New()
		shuf := shuffler.New(bvh, q, fb, ref, 2)
		stats[r] = monitoring.NewRankStats()

		var hooks scheduler.Hooks
		switch v.Kind {
		case scheduler.Image:
			hooks = &scheduler.ImageScheduler{
				Rank: r, NumRanks: numRanks, Cache: cache, Queue: q, FB: fb,
				Adapter: ref, Shuffler: shuf, Compositor: &compositor.MPIGather{NumHWThreads: 1},
				Gatherer: transports[r], CameraRays: camera, Stats: stats[r],
			}
		case scheduler.Domain, scheduler.AsyncDomain:
			all := make(map[uint32]*block.Block, len(blocks))
			var home []*block.Block
			for _, b := range blocks {
				all[b.ID] = b
				if b.Home == r {
					home = append(home, b)
				}
			}
			hooks = &scheduler.DomainScheduler{
				Rank: r, NumRanks: numRanks, Async: v.Kind == scheduler.AsyncDomain,
				AllBlocks: all, HomeBlocks: home, Cache: cache, Queue: q, FB: fb,
				Adapter: ref, Shuffler: shuf, Transport: transports[r], Voter: voters[r],
				Compositor: &compositor.MPIGather{NumHWThreads: 1}, CameraRays: camera, Stats: stats[r],
			}
		case scheduler.Hybrid:
			hooks = &scheduler.HybridScheduler{
				Rank: r, NumRanks: numRanks, Cache: cache, Queue: q, FB: fb,
				Adapter: ref, Shuffler: shuf, Transport: transports[r], Coordinator: coordinator,
				Compositor: &compositor.MPIGather{NumHWThreads: 1}, CameraRays: camera, Stats: stats[r],
			}
		}

		runner := &scheduler.Scheduler{Kind: v.Kind, Hooks: hooks}
		go func() {
			errs[r] = runner.RunFrame(context.Background())
			done <- r
		}()
	}
	for i := 0; i < numRanks; i++ {
		<-done
	}
	for _, e := range errs {
		if e != nil {
			return 0, 0, e
		}
	}

	elapsed := time.Since(start).Seconds()
	totalRays := int64(0)
	totalRounds := int64(0)
	for _, s := range stats {
		snap := s.Snapshot()
		totalRays += snap.RaysTraced
		totalRounds += snap.RoundsRun
	}
	if elapsed <= 0 {
		elapsed = 1e-9
	}
	return float64(totalRays) / elapsed, float64(totalRounds) / float64(numRanks), nil
}

func summarize(name string, rps []float64, rounds []float64) Result {
	sorted := append([]float64(nil), rps...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	avg := sum / float64(len(sorted))

	variance := 0.0
	for _, v := range sorted {
		diff := v - avg
		variance += diff * diff
	}
	variance /= float64(len(sorted))

	roundSum := 0.0
	for _, v := range rounds {
		roundSum += v
	}

	return Result{
		Variant:          name,
		MinRaysPerSec:    sorted[0],
		MaxRaysPerSec:    sorted[len(sorted)-1],
		AvgRaysPerSec:    avg,
		MedianRaysPerSec: sorted[len(sorted)/2],
		StdDevRaysPerSec: sqrt(variance),
		AvgRounds:        roundSum / float64(len(rounds)),
	}
}

func sqrt(v float64) float64 {
	if v <= 0 {
		return 0
	}
	x := v
	for i := 0; i < 20; i++ {
		x = 0.5 * (x + v/x)
	}
	return x
}

// WriteReport writes results as an indented JSON report.
func WriteReport(path string, results []Result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
