// Package profiling wraps runtime/pprof's CPU and heap profile capture
// behind a Start/Stop pair, so a long-running rank process can be asked
// to profile one frame without rigging up pprof by hand at the call
// site. Trimmed from the teacher's profiler: its PProfServer (an HTTP
// debug/pprof endpoint) and PerformanceAnalyzer (a polling
// threshold-alert loop duplicating internal/monitoring's job) had no
// call site in this module — no component here listens on HTTP, and
// alerting belongs with the stats collector, not a second one.
package profiling

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"
)

// Profiler captures a CPU profile for the duration between Start and
// Stop, plus a heap snapshot at Stop.
type Profiler struct {
	dir       string
	cpuFile   *os.File
}

// New builds a profiler writing into dir, creating it if necessary.
func New(dir string) (*Profiler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("profiling: create dir: %w", err)
	}
	return &Profiler{dir: dir}, nil
}

// Start begins CPU profiling into <dir>/cpu.prof.
func (p *Profiler) Start() error {
	f, err := os.Create(filepath.Join(p.dir, "cpu.prof"))
	if err != nil {
		return fmt.Errorf("profiling: create cpu.prof: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return fmt.Errorf("profiling: start cpu profile: %w", err)
	}
	p.cpuFile = f
	return nil
}

// Stop ends CPU profiling and writes a heap snapshot into <dir>/heap.prof.
func (p *Profiler) Stop() error {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		p.cpuFile.Close()
		p.cpuFile = nil
	}
	f, err := os.Create(filepath.Join(p.dir, "heap.prof"))
	if err != nil {
		return fmt.Errorf("profiling: create heap.prof: %w", err)
	}
	defer f.Close()
	return pprof.WriteHeapProfile(f)
}
