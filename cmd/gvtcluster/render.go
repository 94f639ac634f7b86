package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/gravit-cluster/gvtcore/internal/block"
	"github.com/gravit-cluster/gvtcore/internal/compositor"
	"github.com/gravit-cluster/gvtcore/internal/config"
	"github.com/gravit-cluster/gvtcore/internal/controlplane"
	"github.com/gravit-cluster/gvtcore/internal/corelog"
	"github.com/gravit-cluster/gvtcore/internal/exchange"
	"github.com/gravit-cluster/gvtcore/internal/framebuffer"
	"github.com/gravit-cluster/gvtcore/internal/hybridpolicy"
	"github.com/gravit-cluster/gvtcore/internal/monitoring"
	"github.com/gravit-cluster/gvtcore/internal/profiling"
	"github.com/gravit-cluster/gvtcore/internal/queue"
	"github.com/gravit-cluster/gvtcore/internal/scene"
	"github.com/gravit-cluster/gvtcore/internal/scheduler"
	"github.com/gravit-cluster/gvtcore/internal/shuffler"
	"github.com/gravit-cluster/gvtcore/internal/shutdown"
	"github.com/gravit-cluster/gvtcore/internal/voter"
)

func newRenderCmd() *cobra.Command {
	var configPath, scenePath, outPath, profileDir string
	var numRanks int

	cmd := &cobra.Command{
		Use:   "render",
		Short: "render one frame across simulated ranks and write a PPM",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(renderOpts{
				configPath: configPath,
				scenePath:  scenePath,
				outPath:    outPath,
				profileDir: profileDir,
				numRanks:   numRanks,
			})
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "cluster config YAML (defaults baked in if omitted)")
	cmd.Flags().StringVar(&scenePath, "scene", "", "scene JSON file (required)")
	cmd.Flags().StringVar(&outPath, "out", "frame.ppm", "output PPM path")
	cmd.Flags().StringVar(&profileDir, "profile", "", "if set, write CPU/heap profiles under this directory")
	cmd.Flags().IntVar(&numRanks, "ranks", 1, "number of simulated ranks")
	_ = cmd.MarkFlagRequired("scene")

	return cmd
}

type renderOpts struct {
	configPath, scenePath, outPath, profileDir string
	numRanks                                   int
}

func runRender(opts renderOpts) error {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.LoadFile(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	kind, err := toSchedulerKind(cfg.Scheduler)
	if err != nil {
		return err
	}
	var policy hybridpolicy.Policy
	if kind == scheduler.Hybrid {
		policy, err = policyByName(cfg.SchedulerPolicy)
		if err != nil {
			return err
		}
	}

	sc, err := scene.LoadFromFile(opts.scenePath)
	if err != nil {
		return err
	}
	camera := sc.Camera.CameraRays(cfg.Film.Width, cfg.Film.Height)

	if opts.profileDir != "" {
		prof, err := profiling.New(opts.profileDir)
		if err != nil {
			return err
		}
		if err := prof.Start(); err != nil {
			return err
		}
		defer prof.Stop()
	}

	log := corelog.Default(0)
	gs := shutdown.New(context.Background(), log)
	gs.Start()

	var (
		transports  []*exchange.Transport
		voters      []*voter.Voter
		coordinator *controlplane.Coordinator
	)
	transports = exchange.NewTransport(opts.numRanks)
	if kind == scheduler.Domain || kind == scheduler.AsyncDomain {
		net := exchange.NewVoterNet(opts.numRanks)
		voters = make([]*voter.Voter, opts.numRanks)
		for r := 0; r < opts.numRanks; r++ {
			voters[r] = voter.New(r, opts.numRanks, net.Messenger(r))
			net.Attach(r, voters[r])
		}
	}
	if kind == scheduler.Hybrid {
		coordinator = controlplane.NewCoordinator(opts.numRanks, policy, 1)
	}

	results := make([]*framebuffer.Framebuffer, opts.numRanks)
	errs := make([]error, opts.numRanks)

	var wg sync.WaitGroup
	for r := 0; r < opts.numRanks; r++ {
		r := r
		ref, blocks := sc.Build()
		bvh := block.Build(blocks)
		cache := block.NewCache(0)
		for _, b := range blocks {
			cache.Register(b)
		}
		fb := framebuffer.New(cfg.Film.Width, cfg.Film.Height)
		q := queue.New()
		shuf := shuffler.New(bvh, q, fb, ref, cfg.Threads)
		stats := monitoring.NewRankStats()

		var hooks scheduler.Hooks
		switch kind {
		case scheduler.Image:
			hooks = &scheduler.ImageScheduler{
				Rank: r, NumRanks: opts.numRanks, Cache: cache, Queue: q, FB: fb,
				Adapter: ref, Shuffler: shuf, Compositor: &compositor.MPIGather{NumHWThreads: cfg.Threads},
				Gatherer: transports[r], CameraRays: camera, Stats: stats,
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
				Rank: r, NumRanks: opts.numRanks, Async: kind == scheduler.AsyncDomain,
				AllBlocks: all, HomeBlocks: home, Cache: cache, Queue: q, FB: fb,
				Adapter: ref, Shuffler: shuf, Transport: transports[r], Voter: voters[r],
				Compositor: &compositor.MPIGather{NumHWThreads: cfg.Threads}, CameraRays: camera, Stats: stats,
			}
		case scheduler.Hybrid:
			hooks = &scheduler.HybridScheduler{
				Rank: r, NumRanks: opts.numRanks, Cache: cache, Queue: q, FB: fb,
				Adapter: ref, Shuffler: shuf, Transport: transports[r], Coordinator: coordinator,
				Compositor: &compositor.MPIGather{NumHWThreads: cfg.Threads}, CameraRays: camera, Stats: stats,
			}
		}

		runner := &scheduler.Scheduler{Kind: kind, Hooks: hooks, Log: corelog.Default(r)}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runner.RunFrame(gs.Context()); err != nil {
				errs[r] = err
				return
			}
			switch h := hooks.(type) {
			case *scheduler.ImageScheduler:
				results[r] = h.Result
			case *scheduler.DomainScheduler:
				results[r] = h.Result
			case *scheduler.HybridScheduler:
				results[r] = h.Result
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	root := results[0]
	if root == nil {
		return fmt.Errorf("render: rank 0 produced no composited frame")
	}
	if err := root.WritePPM(opts.outPath); err != nil {
		return err
	}
	log.Printf("wrote %s", opts.outPath)
	return nil
}
