package main

import (
	"fmt"

	"github.com/gravit-cluster/gvtcore/internal/config"
	"github.com/gravit-cluster/gvtcore/internal/hybridpolicy"
	"github.com/gravit-cluster/gvtcore/internal/scheduler"
)

// policyByName resolves a config/flag policy string to the Policy
// function it names, mirroring the name set internal/config.Validate
// accepts for the hybrid scheduler.
func policyByName(name string) (hybridpolicy.Policy, error) {
	switch name {
	case "greedy":
		return hybridpolicy.Greedy, nil
	case "spread":
		return hybridpolicy.Spread, nil
	case "ray-weighted-spread":
		return hybridpolicy.RayWeightedSpread, nil
	case "load-once":
		return hybridpolicy.LoadOnce, nil
	case "load-any-once":
		return hybridpolicy.LoadAnyOnce, nil
	case "load-another":
		return hybridpolicy.LoadAnother, nil
	case "load-many":
		return hybridpolicy.LoadMany, nil
	case "adaptive-send":
		return hybridpolicy.AdaptiveSend(new(int)), nil
	default:
		return nil, fmt.Errorf("unknown hybrid policy %q", name)
	}
}

// toSchedulerKind converts the string-typed config key into the
// scheduler package's own Kind enum.
func toSchedulerKind(k config.SchedulerKind) (scheduler.Kind, error) {
	switch k {
	case config.SchedulerImage:
		return scheduler.Image, nil
	case config.SchedulerDomain:
		return scheduler.Domain, nil
	case config.SchedulerAsyncDomain:
		return scheduler.AsyncDomain, nil
	case config.SchedulerHybrid:
		return scheduler.Hybrid, nil
	default:
		return 0, fmt.Errorf("unknown scheduler %q", k)
	}
}
