package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
	"github.com/zjrosen/plugtree/internal/domain/tree"
)

// TraceBuilder wraps b so every BuildItem call runs in a span named after
// the builder. A nil tracer returns b unchanged.
func TraceBuilder(tracer trace.Tracer, name string, b tree.Builder) tree.Builder {
	if tracer == nil {
		return b
	}
	spanName := SpanPrefixBuilder + name
	return tree.BuilderFunc(func(ctx context.Context, item *plugin.RegisteredItem) (any, error) {
		attrs := []attribute.KeyValue{
			attribute.String(AttrBuilderName, name),
			attribute.String(AttrTreePath, item.Location()),
			attribute.String(AttrItemID, item.ID()),
		}
		if owner := item.Plugin(); owner != nil {
			attrs = append(attrs, attribute.String(AttrPluginName, owner.Name()))
		}
		ctx, span := Start(ctx, tracer, spanName, attrs...)
		v, err := b.BuildItem(ctx, item)
		if err == nil && v == nil {
			span.SetAttributes(attribute.Bool("item.skipped", true))
		}
		End(span, err)
		return v, err
	})
}
