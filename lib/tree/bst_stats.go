package tree

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	BSTStatsName = "xbst/tree"
)

var (
	acceptedAttrs = attrSets("accepted")
	foundAttrs    = attrSets("found")
	hitAttrs      = attrSets("hit")
)

func attrSets(key string) [2]metric.MeasurementOption {
	return [2]metric.MeasurementOption{
		metric.WithAttributeSet(attribute.NewSet(attribute.Bool(key, false))),
		metric.WithAttributeSet(attribute.NewSet(attribute.Bool(key, true))),
	}
}

func pick(opts [2]metric.MeasurementOption, ok bool) metric.MeasurementOption {
	if ok {
		return opts[1]
	}
	return opts[0]
}

type instrumentOpts struct {
	provider metric.MeterProvider
}

type InstrumentOpt func(*instrumentOpts)

// WithInstrumentMeterProvider overrides the global otel meter provider.
func WithInstrumentMeterProvider(provider metric.MeterProvider) InstrumentOpt {
	return func(o *instrumentOpts) {
		o.provider = provider
	}
}

// instrumentedBST records the tree operations as otel metrics.
// The height gauge surfaces how far the unbalanced tree degenerates.
type instrumentedBST[T any] struct {
	BST[T]
	insertCount metric.Int64Counter
	removeCount metric.Int64Counter
	lookupCount metric.Int64Counter
	size        metric.Int64ObservableGauge
	height      metric.Int64ObservableGauge
}

func (stats *instrumentedBST[T]) Insert(val T) bool {
	ok := stats.BST.Insert(val)
	stats.insertCount.Add(context.Background(), 1, pick(acceptedAttrs, ok))
	return ok
}

func (stats *instrumentedBST[T]) InsertAll(vals ...T) int {
	accepted := 0
	for _, val := range vals {
		if stats.Insert(val) {
			accepted++
		}
	}
	return accepted
}

func (stats *instrumentedBST[T]) Remove(val T) bool {
	ok := stats.BST.Remove(val)
	stats.removeCount.Add(context.Background(), 1, pick(foundAttrs, ok))
	return ok
}

func (stats *instrumentedBST[T]) RemoveMin() (T, bool) {
	val, ok := stats.BST.RemoveMin()
	stats.removeCount.Add(context.Background(), 1, pick(foundAttrs, ok))
	return val, ok
}

func (stats *instrumentedBST[T]) Contains(val T) bool {
	ok := stats.BST.Contains(val)
	stats.lookupCount.Add(context.Background(), 1, pick(hitAttrs, ok))
	return ok
}

func (stats *instrumentedBST[T]) Find(val T) (T, bool) {
	res, ok := stats.BST.Find(val)
	stats.lookupCount.Add(context.Background(), 1, pick(hitAttrs, ok))
	return res, ok
}

// NewInstrumentedBST wraps bst with the meter "xbst/tree/<name>".
// Clone and ShallowCopy of the wrapper return plain trees.
func NewInstrumentedBST[T any](name string, bst BST[T], opts ...InstrumentOpt) BST[T] {
	o := &instrumentOpts{}
	for _, opt := range opts {
		opt(o)
	}
	if o.provider == nil {
		o.provider = otel.GetMeterProvider()
	}

	meter := o.provider.Meter(fmt.Sprintf("%s/%s", BSTStatsName, name))
	stats := &instrumentedBST[T]{
		BST: bst,
		insertCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xbst.tree.insert.count",
			metric.WithDescription("The number of insertions, split by accepted."),
		)),
		removeCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xbst.tree.remove.count",
			metric.WithDescription("The number of removals, split by found."),
		)),
		lookupCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xbst.tree.lookup.count",
			metric.WithDescription("The number of lookups, split by hit."),
		)),
	}
	stats.size = lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
		"xbst.tree.size",
		metric.WithDescription("The number of values in the tree."),
		metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
			ob.Observe(bst.Len())
			return nil
		}),
	))
	stats.height = lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
		"xbst.tree.height",
		metric.WithDescription("The height of the tree, equal to size when fully degenerated."),
		metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
			ob.Observe(int64(bst.Height()))
			return nil
		}),
	))
	return stats
}
