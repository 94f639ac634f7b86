// Package config loads the cluster-wide settings every rank needs
// before it can build its scheduler: which scheduling strategy to run,
// which intersection back-end to forward to, film dimensions, the
// global accel structure choice, and a thread-count override. §6 of
// the specification names these as the only keys the core recognizes;
// everything else belongs to the opaque adapter config, not here.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// SchedulerKind is the raw scheduler key's value, unvalidated until
// Validate runs — Hybrid additionally carries a policy name, which the
// other three kinds leave empty.
type SchedulerKind string

const (
	SchedulerImage       SchedulerKind = "image"
	SchedulerDomain      SchedulerKind = "domain"
	SchedulerAsyncDomain SchedulerKind = "async-domain"
	SchedulerHybrid      SchedulerKind = "hybrid"
)

// AdapterKind names the intersection back-end forwarded opaquely to
// AdapterAPI; the core never interprets it beyond validating membership.
type AdapterKind string

const (
	AdapterManta  AdapterKind = "manta"
	AdapterOptix  AdapterKind = "optix"
	AdapterEmbree AdapterKind = "embree"
	AdapterOSPRay AdapterKind = "ospray"
)

// AccelKind names the shuffler's block-lookup structure. Validate accepts
// "none" and "bvh", but nothing outside this package reads the value: the
// render command always builds the replicated BVH for the shuffler, and
// there is no linear-scan lookup.
type AccelKind string

const (
	AccelNone AccelKind = "none"
	AccelBVH  AccelKind = "bvh"
)

var hybridPolicies = map[string]bool{
	"greedy": true, "spread": true, "ray-weighted-spread": true,
	"load-once": true, "load-any-once": true, "load-another": true,
	"load-many": true, "adaptive-send": true,
}

// Film holds the output image's pixel dimensions.
type Film struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Config is the parsed contents of a cluster config file, still in raw
// string form for Scheduler/Adapter/Accel — call Validate to turn it
// into a configuration error at startup rather than a panic mid-frame.
type Config struct {
	Scheduler       SchedulerKind `yaml:"scheduler"`
	SchedulerPolicy string        `yaml:"scheduler_policy"`
	Adapter         AdapterKind   `yaml:"adapter"`
	Film            Film          `yaml:"film"`
	Accel           AccelKind     `yaml:"accel"`
	Threads         int           `yaml:"threads"`
}

// Default returns the configuration the core falls back to when no
// file is given: single-rank-friendly Image scheduling, the BVH accel
// structure, and hardware-concurrency threads.
func Default() Config {
	return Config{
		Scheduler: SchedulerImage,
		Adapter:   AdapterEmbree,
		Film:      Film{Width: 512, Height: 512},
		Accel:     AccelBVH,
		Threads:   runtime.NumCPU(),
	}
}

// LoadFile reads and parses a YAML config file, filling in Default's
// zero-value fields (Threads <= 0 becomes hardware-concurrency, Film
// dimensions of 0 become 512x512) before returning.
func LoadFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.NumCPU()
	}
	if cfg.Film.Width <= 0 || cfg.Film.Height <= 0 {
		cfg.Film = Default().Film
	}
	return cfg, nil
}

// Validate fails fast on any key the core does not recognize — per the
// error handling design, an unknown scheduler, adapter, or policy is a
// configuration error the process must refuse to start with, not a
// runtime surprise mid-frame.
func (c Config) Validate() error {
	switch c.Scheduler {
	case SchedulerImage, SchedulerDomain, SchedulerAsyncDomain, SchedulerHybrid:
	default:
		return fmt.Errorf("config: unknown scheduler %q", c.Scheduler)
	}
	if c.Scheduler == SchedulerHybrid && !hybridPolicies[c.SchedulerPolicy] {
		return fmt.Errorf("config: unknown hybrid policy %q", c.SchedulerPolicy)
	}
	switch c.Adapter {
	case AdapterManta, AdapterOptix, AdapterEmbree, AdapterOSPRay:
	default:
		return fmt.Errorf("config: unknown adapter %q", c.Adapter)
	}
	switch c.Accel {
	case AccelNone, AccelBVH:
	default:
		return fmt.Errorf("config: unknown accel %q", c.Accel)
	}
	if c.Film.Width <= 0 || c.Film.Height <= 0 {
		return fmt.Errorf("config: film dimensions must be positive, got %dx%d", c.Film.Width, c.Film.Height)
	}
	if c.Threads <= 0 {
		return fmt.Errorf("config: threads must be positive, got %d", c.Threads)
	}
	return nil
}
