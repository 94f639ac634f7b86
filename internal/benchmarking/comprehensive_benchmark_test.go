package benchmarking

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarizeComputesSortedStatistics(t *testing.T) {
	result := summarize("image", []float64{30, 10, 20, 40}, []float64{3, 3, 3, 3})

	require.Equal(t, "image", result.Variant)
	require.Equal(t, 10.0, result.MinRaysPerSec)
	require.Equal(t, 40.0, result.MaxRaysPerSec)
	require.Equal(t, 25.0, result.AvgRaysPerSec)
	require.Equal(t, 3.0, result.AvgRounds)
	require.Greater(t, result.StdDevRaysPerSec, 0.0)
}

func TestSummarizeSingleSampleHasZeroStdDev(t *testing.T) {
	result := summarize("hybrid", []float64{100}, []float64{1})
	require.Equal(t, 0.0, result.StdDevRaysPerSec)
	require.Equal(t, 100.0, result.MedianRaysPerSec)
}

func TestWriteReportProducesReadableJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	results := []Result{summarize("domain", []float64{5, 15}, []float64{2, 4})}
	require.NoError(t, WriteReport(path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"variant": "domain"`)
}
