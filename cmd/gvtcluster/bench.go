package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gravit-cluster/gvtcore/internal/adapter"
	"github.com/gravit-cluster/gvtcore/internal/benchmarking"
	"github.com/gravit-cluster/gvtcore/internal/block"
	"github.com/gravit-cluster/gvtcore/internal/config"
	"github.com/gravit-cluster/gvtcore/internal/scene"
	"github.com/gravit-cluster/gvtcore/internal/scheduler"
)

func newBenchCmd() *cobra.Command {
	var configPath, scenePath, outPath string
	var numRanks, trials int
	var variantFlags []string

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "compare scheduler variants against a shared scene",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(benchOpts{
				configPath: configPath,
				scenePath:  scenePath,
				outPath:    outPath,
				numRanks:   numRanks,
				trials:     trials,
				variants:   variantFlags,
			})
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "cluster config YAML (defaults baked in if omitted)")
	cmd.Flags().StringVar(&scenePath, "scene", "", "scene JSON file (required)")
	cmd.Flags().StringVar(&outPath, "out", "bench-report.json", "output JSON report path")
	cmd.Flags().IntVar(&numRanks, "ranks", 2, "number of simulated ranks per trial")
	cmd.Flags().IntVar(&trials, "trials", 3, "trials per variant")
	cmd.Flags().StringSliceVar(&variantFlags, "variant", []string{"image", "domain", "hybrid:greedy"},
		"variant to compare, repeatable; hybrid variants take a policy suffix, e.g. hybrid:spread")
	_ = cmd.MarkFlagRequired("scene")

	return cmd
}

type benchOpts struct {
	configPath, scenePath, outPath string
	numRanks, trials               int
	variants                       []string
}

func runBench(opts benchOpts) error {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.LoadFile(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	sc, err := scene.LoadFromFile(opts.scenePath)
	if err != nil {
		return err
	}
	camera := sc.Camera.CameraRays(cfg.Film.Width, cfg.Film.Height)

	variants, err := parseVariants(opts.variants)
	if err != nil {
		return err
	}

	results, err := benchmarking.Run(benchmarking.Config{
		NumRanks: opts.numRanks,
		Trials:   opts.trials,
		Variants: variants,
	}, func() (adapter.API, []*block.Block) {
		return sc.Build()
	}, camera, cfg.Film.Width, cfg.Film.Height)
	if err != nil {
		return err
	}

	if err := benchmarking.WriteReport(opts.outPath, results); err != nil {
		return err
	}
	for _, r := range results {
		fmt.Printf("%-20s avg=%.1f rays/s  min=%.1f  max=%.1f  stddev=%.1f  rounds=%.1f\n",
			r.Variant, r.AvgRaysPerSec, r.MinRaysPerSec, r.MaxRaysPerSec, r.StdDevRaysPerSec, r.AvgRounds)
	}
	return nil
}

// parseVariants turns "image", "domain", "async-domain", or
// "hybrid:<policy>" tokens into benchmarking.Variant values.
func parseVariants(tokens []string) ([]benchmarking.Variant, error) {
	out := make([]benchmarking.Variant, 0, len(tokens))
	for _, tok := range tokens {
		name, policyName, _ := strings.Cut(tok, ":")
		switch name {
		case "image":
			out = append(out, benchmarking.Variant{Name: "image", Kind: scheduler.Image})
		case "domain":
			out = append(out, benchmarking.Variant{Name: "domain", Kind: scheduler.Domain})
		case "async-domain":
			out = append(out, benchmarking.Variant{Name: "async-domain", Kind: scheduler.AsyncDomain})
		case "hybrid":
			if policyName == "" {
				return nil, fmt.Errorf("hybrid variant %q needs a :<policy> suffix", tok)
			}
			policy, err := policyByName(policyName)
			if err != nil {
				return nil, err
			}
			out = append(out, benchmarking.Variant{Name: "hybrid:" + policyName, Kind: scheduler.Hybrid, Policy: policy})
		default:
			return nil, fmt.Errorf("unknown variant %q", tok)
		}
	}
	return out, nil
}
