package monitoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRankStatsAccumulatesAcrossRounds(t *testing.T) {
	s := NewRankStats()
	s.RecordRaysTraced(10)
	s.RecordRaysSent(4)
	s.RecordRaysReceived(2)
	s.RecordRound()
	s.RecordRaysTraced(6)
	s.RecordRound()

	snap := s.Snapshot()
	require.Equal(t, int64(16), snap.RaysTraced)
	require.Equal(t, int64(4), snap.RaysSent)
	require.Equal(t, int64(2), snap.RaysReceived)
	require.Equal(t, int64(2), snap.RoundsRun)
	require.NotEmpty(t, snap.String())
}
