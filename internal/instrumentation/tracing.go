package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every span this module starts.
const TracerName = "github.com/giantswarm/mcp-kubeops"

// Span attribute keys.
const (
	SpanAttrTool         = "mcp.tool"
	SpanAttrContext      = "mcp.context"
	SpanAttrContextClass = "mcp.context_class"
	SpanAttrErrorKind    = "mcp.error_kind"
	SpanAttrCacheHit     = "mcp.cache_hit"
	SpanAttrDryRun       = "mcp.dry_run"
	SpanAttrNamespace    = "k8s.namespace"
	SpanAttrResourceType = "k8s.resource_type"
	SpanAttrResourceName = "k8s.resource_name"
	SpanAttrOperation    = "k8s.operation"
)

// SpanAttributeBuilder collects span attributes with consistent keys.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{attrs: make([]attribute.KeyValue, 0, 8)}
}

func (b *SpanAttributeBuilder) WithTool(tool string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrTool, tool))
	return b
}

// WithContext adds the context name and its class. An empty name records
// only the class "default".
func (b *SpanAttributeBuilder) WithContext(contextName string) *SpanAttributeBuilder {
	if contextName != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrContext, contextName))
	}
	b.attrs = append(b.attrs, attribute.String(SpanAttrContextClass, ClassifyContextName(contextName)))
	return b
}

func (b *SpanAttributeBuilder) WithNamespace(namespace string) *SpanAttributeBuilder {
	if namespace != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrNamespace, namespace))
	}
	return b
}

func (b *SpanAttributeBuilder) WithResource(resourceType, resourceName string) *SpanAttributeBuilder {
	if resourceType != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrResourceType, resourceType))
	}
	if resourceName != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrResourceName, resourceName))
	}
	return b
}

func (b *SpanAttributeBuilder) WithDryRun(dryRun bool) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.Bool(SpanAttrDryRun, dryRun))
	return b
}

func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// StartToolSpan starts a server span named tool.<name>.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, len(attrs)+1)
	all = append(all, attribute.String(SpanAttrTool, toolName))
	all = append(all, attrs...)

	return tracer().Start(ctx, "tool."+toolName,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartK8sSpan starts a client span named k8s.<operation>.
func StartK8sSpan(ctx context.Context, operation, resourceType, namespace string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, len(attrs)+3)
	all = append(all, attribute.String(SpanAttrOperation, operation))
	if resourceType != "" {
		all = append(all, attribute.String(SpanAttrResourceType, resourceType))
	}
	if namespace != "" {
		all = append(all, attribute.String(SpanAttrNamespace, namespace))
	}
	all = append(all, attrs...)

	return tracer().Start(ctx, "k8s."+operation,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records err on span. A nil error is ignored.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanErrorKind is SetSpanError plus the classified error kind.
func SetSpanErrorKind(span trace.Span, err error, kind string) {
	if err == nil {
		return
	}
	if kind != "" {
		span.SetAttributes(attribute.String(SpanAttrErrorKind, kind))
	}
	SetSpanError(span, err)
}

func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddRetryEvent marks a retry on the span active in ctx.
func AddRetryEvent(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	span.AddEvent("retry", trace.WithAttributes(attribute.String("error", msg)))
}

// GetTraceID returns the trace ID of the span in ctx, or "".
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
