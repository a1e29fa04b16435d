package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/trace"

	"github.com/Notifuse/mailblocks/config"
	"github.com/Notifuse/mailblocks/pkg/logger"
)

type spanRecorder struct {
	spans []*trace.SpanData
}

func (r *spanRecorder) ExportSpan(s *trace.SpanData) {
	r.spans = append(r.spans, s)
}

func recordSpans(t *testing.T) *spanRecorder {
	t.Helper()
	rec := &spanRecorder{}
	trace.RegisterExporter(rec)
	trace.ApplyConfig(trace.Config{DefaultSampler: trace.AlwaysSample()})
	t.Cleanup(func() {
		trace.UnregisterExporter(rec)
		trace.ApplyConfig(trace.Config{DefaultSampler: trace.NeverSample()})
	})
	return rec
}

func TestInitTracing_Disabled(t *testing.T) {
	p, err := InitTracing(&config.TracingConfig{Enabled: false, TraceExporter: "jaeger"}, logger.NewTestLogger(t))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Empty(t, p.closers)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInitTracing_Exporters(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.TracingConfig
		wantErr string
	}{
		{name: "no exporters", cfg: config.TracingConfig{TraceExporter: "none", MetricsExporter: "none"}},
		{name: "empty exporters", cfg: config.TracingConfig{}},
		{name: "zipkin", cfg: config.TracingConfig{TraceExporter: "zipkin", ZipkinEndpoint: "http://127.0.0.1:9411/api/v2/spans"}},
		{name: "prometheus without listener", cfg: config.TracingConfig{MetricsExporter: "prometheus"}},
		{name: "unknown trace exporter", cfg: config.TracingConfig{TraceExporter: "azure"}, wantErr: "unsupported trace exporter: azure"},
		{name: "unknown metrics exporter", cfg: config.TracingConfig{MetricsExporter: "prometheus, graphite"}, wantErr: "unsupported metrics exporter: graphite"},
		{name: "jaeger needs endpoint", cfg: config.TracingConfig{TraceExporter: "jaeger"}, wantErr: "jaeger endpoint"},
		{name: "zipkin needs endpoint", cfg: config.TracingConfig{TraceExporter: "zipkin"}, wantErr: "zipkin endpoint"},
		{name: "stackdriver needs project", cfg: config.TracingConfig{TraceExporter: "stackdriver"}, wantErr: "project ID"},
		{name: "stackdriver metrics needs project", cfg: config.TracingConfig{MetricsExporter: "stackdriver"}, wantErr: "project ID"},
		{name: "datadog needs address", cfg: config.TracingConfig{TraceExporter: "datadog"}, wantErr: "agent address"},
		{name: "xray needs region", cfg: config.TracingConfig{TraceExporter: "xray"}, wantErr: "AWS region"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Enabled = true
			cfg.ServiceName = "mailblocks-test"
			cfg.SamplingProbability = 1

			p, err := InitTracing(&cfg, logger.NewTestLogger(t))
			t.Cleanup(func() {
				trace.ApplyConfig(trace.Config{DefaultSampler: trace.NeverSample()})
			})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, p.Shutdown(context.Background()))
		})
	}
}

func TestInitTracing_RegistersCompileViews(t *testing.T) {
	cfg := &config.TracingConfig{Enabled: true, ServiceName: "mailblocks-test", SamplingProbability: 0.5}
	p, err := InitTracing(cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = p.Shutdown(context.Background())
		trace.ApplyConfig(trace.Config{DefaultSampler: trace.NeverSample()})
	})

	for _, v := range CompileViews {
		assert.NotNil(t, view.Find(v.Name), v.Name)
	}

	// registering twice is harmless
	_, err = InitTracing(cfg, logger.NewTestLogger(t))
	assert.NoError(t, err)
}

func TestProvider_ShutdownNil(t *testing.T) {
	var p *Provider
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestProvider_ShutdownJoinsCloserErrors(t *testing.T) {
	calls := 0
	p := &Provider{closers: []func() error{
		func() error { calls++; return errors.New("flush failed") },
		func() error { calls++; return nil },
	}}

	err := p.Shutdown(context.Background())
	assert.EqualError(t, err, "flush failed")
	assert.Equal(t, 2, calls)

	// closers run once
	assert.NoError(t, p.Shutdown(context.Background()))
	assert.Equal(t, 2, calls)
}

func TestMetricsNamespace(t *testing.T) {
	assert.Equal(t, "mailblocks_api", metricsNamespace("mailblocks-api"))
	assert.Equal(t, "svc_1_x", metricsNamespace("svc.1 x"))
}

func TestStartServiceSpan(t *testing.T) {
	rec := recordSpans(t)

	ctx, span := StartServiceSpan(context.Background(), "TemplateService", "Compile")
	require.NotNil(t, trace.FromContext(ctx))
	AddAttribute(ctx, "document.blocks", 3)
	AddAttribute(ctx, "cache", "miss")
	AddAttribute(ctx, "cached", false)
	AddAttribute(ctx, "ratio", 0.5)
	EndSpan(span, nil)

	require.Len(t, rec.spans, 1)
	s := rec.spans[0]
	assert.Equal(t, "TemplateService.Compile", s.Name)
	assert.Equal(t, int64(3), s.Attributes["document.blocks"])
	assert.Equal(t, "miss", s.Attributes["cache"])
	assert.Equal(t, false, s.Attributes["cached"])
	assert.Equal(t, "0.5", s.Attributes["ratio"])
	assert.Equal(t, int32(trace.StatusCodeOK), s.Status.Code)
}

func TestEndSpan_RecordsError(t *testing.T) {
	rec := recordSpans(t)

	_, span := StartServiceSpan(context.Background(), "TemplateService", "Compile")
	EndSpan(span, errors.New("render failed"))

	require.Len(t, rec.spans, 1)
	assert.Equal(t, int32(trace.StatusCodeUnknown), rec.spans[0].Status.Code)
	assert.Equal(t, "render failed", rec.spans[0].Status.Message)
}

func TestAddAttribute_NoSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		AddAttribute(context.Background(), "key", "value")
	})
}

func TestRecordCompile(t *testing.T) {
	require.NoError(t, view.Register(CompileViews...))

	RecordCompile(context.Background(), "hit", 0)
	RecordCompile(context.Background(), "miss", 3*time.Millisecond)

	rows, err := view.RetrieveData("mailblocks/compile/count")
	require.NoError(t, err)

	counts := map[string]int64{}
	for _, row := range rows {
		require.Len(t, row.Tags, 1)
		counts[row.Tags[0].Value] = row.Data.(*view.CountData).Value
	}
	assert.GreaterOrEqual(t, counts["hit"], int64(1))
	assert.GreaterOrEqual(t, counts["miss"], int64(1))

	latency, err := view.RetrieveData("mailblocks/compile/latency")
	require.NoError(t, err)
	require.NotEmpty(t, latency)
	assert.GreaterOrEqual(t, latency[0].Data.(*view.DistributionData).Count, int64(1))
}
