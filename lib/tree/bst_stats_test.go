package tree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectInt64(t *testing.T, reader sdkmetric.Reader) map[string][]metricdata.DataPoint[int64] {
	rm := metricdata.ResourceMetrics{}
	require.NoError(t, reader.Collect(context.Background(), &rm))
	res := make(map[string][]metricdata.DataPoint[int64])
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				res[m.Name] = data.DataPoints
			case metricdata.Gauge[int64]:
				res[m.Name] = data.DataPoints
			default:
			}
		}
	}
	return res
}

func pointValue(points []metricdata.DataPoint[int64], key string, flag bool) int64 {
	for _, p := range points {
		if v, ok := p.Attributes.Value(attribute.Key(key)); ok && v.AsBool() == flag {
			return p.Value
		}
	}
	return 0
}

func TestInstrumentedBST(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() {
		require.NoError(t, mp.Shutdown(context.Background()))
	}()

	tree := NewInstrumentedBST[int]("test", NewBST[int](), WithInstrumentMeterProvider(mp))
	require.Equal(t, 3, tree.InsertAll(1, 2, 3))
	require.False(t, tree.Insert(2))
	require.True(t, tree.Contains(1))
	require.False(t, tree.Contains(9))
	_, ok := tree.Find(3)
	require.True(t, ok)
	require.True(t, tree.Remove(2))
	require.False(t, tree.Remove(2))
	v, ok := tree.RemoveMin()
	require.True(t, ok)
	require.Equal(t, 1, v)

	points := collectInt64(t, reader)
	require.Equal(t, int64(3), pointValue(points["xbst.tree.insert.count"], "accepted", true))
	require.Equal(t, int64(1), pointValue(points["xbst.tree.insert.count"], "accepted", false))
	require.Equal(t, int64(2), pointValue(points["xbst.tree.lookup.count"], "hit", true))
	require.Equal(t, int64(1), pointValue(points["xbst.tree.lookup.count"], "hit", false))
	require.Equal(t, int64(2), pointValue(points["xbst.tree.remove.count"], "found", true))
	require.Equal(t, int64(1), pointValue(points["xbst.tree.remove.count"], "found", false))

	require.Len(t, points["xbst.tree.size"], 1)
	require.Equal(t, int64(1), points["xbst.tree.size"][0].Value)
	require.Len(t, points["xbst.tree.height"], 1)
	require.Equal(t, int64(1), points["xbst.tree.height"][0].Value)

	// The wrapped tree is still a valid tree.
	require.NoError(t, Validate(tree))
	require.Equal(t, []int{3}, tree.Clone().ToSlice())
}

func TestInstrumentedBST_HeightDegenerates(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() {
		require.NoError(t, mp.Shutdown(context.Background()))
	}()

	tree := NewInstrumentedBST[int]("sorted", NewBST[int](), WithInstrumentMeterProvider(mp))
	for i := 0; i < 32; i++ {
		tree.Insert(i)
	}
	points := collectInt64(t, reader)
	require.Equal(t, int64(32), points["xbst.tree.height"][0].Value)
	require.Equal(t, int64(32), points["xbst.tree.size"][0].Value)
}
