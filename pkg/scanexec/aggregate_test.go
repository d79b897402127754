package scanexec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Mohammed-el-Amine/check-port/pkg/scan"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestAggregator_SnapshotCadence(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	agg := newAggregator(65535, clock.now)

	// max(100, 65535/20) = 3276
	var due []int
	for i := 1; i <= 65535; i++ {
		clock.t = clock.t.Add(time.Millisecond)
		if _, ok := agg.Add(scan.Result{Port: uint16(i), Status: scan.StatusClosed}); ok {
			due = append(due, agg.Scanned())
		}
	}
	require.Len(t, due, 20)
	require.Equal(t, 3276, due[0])
	require.Equal(t, 65520, due[19])
}

func TestAggregator_MinimumStep(t *testing.T) {
	agg := NewAggregator(1500)
	var due int
	for i := 1; i <= 1500; i++ {
		if _, ok := agg.Add(scan.Result{Port: uint16(i)}); ok {
			due++
		}
	}
	require.Equal(t, 15, due)
}

func TestAggregator_NoSnapshotsAtOrBelowThreshold(t *testing.T) {
	agg := NewAggregator(1000)
	for i := 1; i <= 1000; i++ {
		_, ok := agg.Add(scan.Result{Port: uint16(i)})
		require.False(t, ok)
	}
}

func TestAggregator_RateAndETA(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	agg := newAggregator(2000, clock.now)

	for i := 1; i <= 500; i++ {
		agg.Add(scan.Result{Port: uint16(i)})
	}
	clock.t = clock.t.Add(5 * time.Second)

	snap := agg.Snapshot()
	require.Equal(t, 500, snap.Scanned)
	require.Equal(t, 2000, snap.Total)
	require.InDelta(t, 25.0, snap.Percent, 0.001)
	require.InDelta(t, 100.0, snap.Rate, 0.001)
	require.Equal(t, 15*time.Second, snap.ETA)
	require.Equal(t, 5*time.Second, snap.Elapsed)
}

func TestAggregator_ZeroElapsed(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	agg := newAggregator(10, clock.now)
	agg.Add(scan.Result{Port: 1})

	snap := agg.Snapshot()
	require.Zero(t, snap.Rate)
	require.Zero(t, snap.ETA)
}

func TestAggregator_ScannedNeverExceedsTotal(t *testing.T) {
	agg := NewAggregator(2)
	for i := 0; i < 5; i++ {
		agg.Add(scan.Result{Port: uint16(i + 1)})
	}
	require.Equal(t, 2, agg.Scanned())
}

func TestAggregator_OpenSortedByPort(t *testing.T) {
	agg := NewAggregator(4)
	agg.Add(scan.Result{Port: 443, Status: scan.StatusOpen})
	agg.Add(scan.Result{Port: 22, Status: scan.StatusOpen})
	agg.Add(scan.Result{Port: 80, Status: scan.StatusFiltered, Banner: "timeout"})
	agg.Add(scan.Result{Port: 80, Status: scan.StatusOpen})

	open := agg.Open()
	require.Len(t, open, 3)
	require.Equal(t, []uint16{22, 80, 443}, []uint16{open[0].Port, open[1].Port, open[2].Port})
}
