// Command gvtcluster runs a cluster ray-scheduling frame in-process,
// one goroutine per simulated rank, or benchmarks every scheduler
// variant against a shared scene.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "gvtcluster",
		Short:         "distributed ray-scheduling core driver",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRenderCmd())
	root.AddCommand(newBenchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gvtcluster: %v\n", err)
		os.Exit(1)
	}
}
