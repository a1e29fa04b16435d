package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
	"go.opencensus.io/trace"
)

var (
	// CompileLatency measures document renders that missed the cache
	CompileLatency = stats.Float64("mailblocks/compile/latency", "Time spent rendering a block document", stats.UnitMilliseconds)
	// CompileCount counts compile calls by cache outcome
	CompileCount = stats.Int64("mailblocks/compile/count", "Compile calls", stats.UnitDimensionless)

	// KeyCache is "hit", "miss" or "bypass"
	KeyCache = tag.MustNewKey("cache")

	CompileViews = []*view.View{
		{
			Name:        "mailblocks/compile/latency",
			Description: "Distribution of document render times",
			Measure:     CompileLatency,
			Aggregation: view.Distribution(1, 2, 5, 10, 25, 50, 100, 250, 500, 1000),
		},
		{
			Name:        "mailblocks/compile/count",
			Description: "Compile calls by cache outcome",
			Measure:     CompileCount,
			TagKeys:     []tag.Key{KeyCache},
			Aggregation: view.Count(),
		},
	}
)

// StartServiceSpan starts a new span named service.method
func StartServiceSpan(ctx context.Context, serviceName, methodName string) (context.Context, *trace.Span) {
	return trace.StartSpan(ctx, fmt.Sprintf("%s.%s", serviceName, methodName))
}

// EndSpan ends a span and records any error
func EndSpan(span *trace.Span, err error) {
	if err != nil {
		span.SetStatus(trace.Status{
			Code:    trace.StatusCodeUnknown,
			Message: err.Error(),
		})
	}
	span.End()
}

// AddAttribute adds an attribute to the current span
func AddAttribute(ctx context.Context, key string, value interface{}) {
	span := trace.FromContext(ctx)
	if span == nil {
		return
	}

	switch v := value.(type) {
	case string:
		span.AddAttributes(trace.StringAttribute(key, v))
	case int64:
		span.AddAttributes(trace.Int64Attribute(key, v))
	case int:
		span.AddAttributes(trace.Int64Attribute(key, int64(v)))
	case bool:
		span.AddAttributes(trace.BoolAttribute(key, v))
	default:
		span.AddAttributes(trace.StringAttribute(key, fmt.Sprintf("%v", v)))
	}
}

// RecordCompile counts a compile call by cache outcome. A positive elapsed
// is also recorded as render latency.
func RecordCompile(ctx context.Context, outcome string, elapsed time.Duration) {
	ms := []stats.Measurement{CompileCount.M(1)}
	if elapsed > 0 {
		ms = append(ms, CompileLatency.M(float64(elapsed)/float64(time.Millisecond)))
	}
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(KeyCache, outcome)}, ms...)
}
