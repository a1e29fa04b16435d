package tracing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"contrib.go.opencensus.io/exporter/aws"
	"contrib.go.opencensus.io/exporter/jaeger"
	"contrib.go.opencensus.io/exporter/prometheus"
	"contrib.go.opencensus.io/exporter/stackdriver"
	"contrib.go.opencensus.io/exporter/zipkin"
	"contrib.go.opencensus.io/integrations/ocsql"
	datadog "github.com/DataDog/opencensus-go-exporter-datadog"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"
	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/trace"

	"github.com/Notifuse/mailblocks/config"
	"github.com/Notifuse/mailblocks/pkg/logger"
)

// Provider owns the exporters registered by InitTracing. Shutdown flushes
// them and stops the metrics listener.
type Provider struct {
	cfg         *config.TracingConfig
	logger      logger.Logger
	stackdriver *stackdriver.Exporter
	datadog     *datadog.Exporter
	closers     []func() error
	traces      []trace.Exporter
	views       []view.Exporter
	metrics     *http.Server
}

// InitTracing applies the sampler and registers the configured trace and
// metrics exporters. When tracing is disabled it returns an empty provider.
func InitTracing(cfg *config.TracingConfig, log logger.Logger) (*Provider, error) {
	p := &Provider{cfg: cfg, logger: log}
	if !cfg.Enabled {
		return p, nil
	}

	trace.ApplyConfig(trace.Config{
		DefaultSampler: trace.ProbabilitySampler(cfg.SamplingProbability),
	})

	if err := p.initTraceExporter(); err != nil {
		p.Shutdown(context.Background())
		return nil, err
	}
	if err := p.initMetricsExporters(); err != nil {
		p.Shutdown(context.Background())
		return nil, err
	}

	if err := view.Register(ochttp.DefaultServerViews...); err != nil {
		return nil, fmt.Errorf("failed to register HTTP server views: %w", err)
	}
	if err := view.Register(ocsql.DefaultViews...); err != nil {
		return nil, fmt.Errorf("failed to register database views: %w", err)
	}
	if err := view.Register(CompileViews...); err != nil {
		return nil, fmt.Errorf("failed to register compile views: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"trace_exporter":   cfg.TraceExporter,
		"metrics_exporter": cfg.MetricsExporter,
		"sampling_rate":    cfg.SamplingProbability,
	}).Info("OpenCensus initialized")
	return p, nil
}

func (p *Provider) initTraceExporter() error {
	cfg := p.cfg
	switch cfg.TraceExporter {
	case "", "none":
		return nil
	case "jaeger":
		if cfg.JaegerEndpoint == "" {
			return errors.New("jaeger endpoint is required for the jaeger exporter")
		}
		je, err := jaeger.NewExporter(jaeger.Options{
			CollectorEndpoint: cfg.JaegerEndpoint,
			Process:           jaeger.Process{ServiceName: cfg.ServiceName},
		})
		if err != nil {
			return fmt.Errorf("failed to create jaeger exporter: %w", err)
		}
		p.register(je, func() error { je.Flush(); return nil })
	case "zipkin":
		if cfg.ZipkinEndpoint == "" {
			return errors.New("zipkin endpoint is required for the zipkin exporter")
		}
		reporter := zipkinhttp.NewReporter(cfg.ZipkinEndpoint)
		p.register(zipkin.NewExporter(reporter, nil), reporter.Close)
	case "stackdriver":
		se, err := p.stackdriverExporter()
		if err != nil {
			return err
		}
		p.register(se, nil)
	case "datadog":
		de, err := p.datadogExporter()
		if err != nil {
			return err
		}
		p.register(de, nil)
	case "xray":
		if cfg.XRayRegion == "" {
			return errors.New("AWS region is required for the xray exporter")
		}
		xe, err := aws.NewExporter(aws.WithRegion(cfg.XRayRegion), aws.WithVersion("latest"))
		if err != nil {
			return fmt.Errorf("failed to create xray exporter: %w", err)
		}
		p.register(xe, nil)
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	p.logger.WithField("exporter", cfg.TraceExporter).Info("Trace exporter registered")
	return nil
}

// initMetricsExporters accepts a comma separated list of exporter names
func (p *Provider) initMetricsExporters() error {
	for _, name := range strings.Split(p.cfg.MetricsExporter, ",") {
		name = strings.TrimSpace(name)
		var err error
		switch name {
		case "", "none":
			continue
		case "prometheus":
			err = p.initPrometheus()
		case "stackdriver":
			var se *stackdriver.Exporter
			if se, err = p.stackdriverExporter(); err == nil {
				p.registerView(se)
			}
		case "datadog":
			var de *datadog.Exporter
			if de, err = p.datadogExporter(); err == nil {
				p.registerView(de)
			}
		default:
			return fmt.Errorf("unsupported metrics exporter: %s", name)
		}
		if err != nil {
			return fmt.Errorf("failed to initialize %s metrics exporter: %w", name, err)
		}
		p.logger.WithField("exporter", name).Info("Metrics exporter registered")
	}
	return nil
}

func (p *Provider) initPrometheus() error {
	pe, err := prometheus.NewExporter(prometheus.Options{
		Namespace: metricsNamespace(p.cfg.ServiceName),
		OnError: func(err error) {
			p.logger.WithField("error", err.Error()).Warn("Prometheus exporter error")
		},
	})
	if err != nil {
		return err
	}
	p.registerView(pe)

	if p.cfg.PrometheusPort <= 0 {
		p.logger.Info("Prometheus metrics server not started (port not configured)")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", pe)
	p.metrics = &http.Server{
		Addr:              fmt.Sprintf(":%d", p.cfg.PrometheusPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func(srv *http.Server) {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.WithField("error", err.Error()).Error("Prometheus metrics server failed")
		}
	}(p.metrics)
	return nil
}

// stackdriverExporter is shared by the trace and metrics sides
func (p *Provider) stackdriverExporter() (*stackdriver.Exporter, error) {
	if p.stackdriver != nil {
		return p.stackdriver, nil
	}
	if p.cfg.StackdriverProjectID == "" {
		return nil, errors.New("stackdriver project ID is required for the stackdriver exporter")
	}
	se, err := stackdriver.NewExporter(stackdriver.Options{
		ProjectID:    p.cfg.StackdriverProjectID,
		MetricPrefix: p.cfg.ServiceName,
		OnError: func(err error) {
			p.logger.WithField("error", err.Error()).Warn("Stackdriver exporter error")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create stackdriver exporter: %w", err)
	}
	p.stackdriver = se
	p.closers = append(p.closers, func() error { se.Flush(); return nil })
	return se, nil
}

// datadogExporter is shared by the trace and metrics sides. It falls back to
// the general agent endpoint when no datadog address is set.
func (p *Provider) datadogExporter() (*datadog.Exporter, error) {
	if p.datadog != nil {
		return p.datadog, nil
	}
	addr := p.cfg.DatadogAgentAddress
	if addr == "" {
		addr = p.cfg.AgentEndpoint
	}
	if addr == "" {
		return nil, errors.New("datadog agent address is required for the datadog exporter")
	}

	opts := datadog.Options{
		Service:   p.cfg.ServiceName,
		TraceAddr: addr,
		StatsAddr: addr,
		OnError: func(err error) {
			p.logger.WithField("error", err.Error()).Warn("Datadog exporter error")
		},
	}
	if p.cfg.DatadogAPIKey != "" {
		opts.GlobalTags = map[string]interface{}{"api_key": p.cfg.DatadogAPIKey}
	}

	de, err := datadog.NewExporter(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create datadog exporter: %w", err)
	}
	p.datadog = de
	p.closers = append(p.closers, func() error { de.Stop(); return nil })
	return de, nil
}

// register adds a trace exporter. A nil closer means the exporter is flushed
// elsewhere or holds nothing to flush.
func (p *Provider) register(e trace.Exporter, closer func() error) {
	trace.RegisterExporter(e)
	p.traces = append(p.traces, e)
	if closer != nil {
		p.closers = append(p.closers, closer)
	}
}

func (p *Provider) registerView(e view.Exporter) {
	view.RegisterExporter(e)
	p.views = append(p.views, e)
}

// Shutdown unregisters the exporters, flushes buffered spans and stops the
// metrics listener
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	for _, e := range p.traces {
		trace.UnregisterExporter(e)
	}
	for _, e := range p.views {
		view.UnregisterExporter(e)
	}
	p.traces, p.views = nil, nil

	var errs []error
	if p.metrics != nil {
		if err := p.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		p.metrics = nil
	}
	for _, c := range p.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}

// metricsNamespace turns a service name into a valid Prometheus namespace
func metricsNamespace(service string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, service)
}
