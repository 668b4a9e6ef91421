// Package tracing sets up OpenTelemetry spans for runs, scenarios and steps.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "schoolbus-uitest/runner"

type Config struct {
	// File receives pretty-printed spans. Empty disables tracing.
	File        string
	ServiceName string
	Version     string
}

type Provider struct {
	provider trace.TracerProvider
	sdk      *sdktrace.TracerProvider
	out      io.Closer
}

// New builds a tracer provider. Without a trace file it returns a no-op
// provider so callers never branch on whether tracing is on.
func New(cfg Config) (*Provider, error) {
	if cfg.File == "" {
		return &Provider{provider: noop.NewTracerProvider()}, nil
	}

	if dir := filepath.Dir(cfg.File); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create trace dir: %w", err)
		}
	}
	f, err := os.Create(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("create trace file: %w", err)
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(f),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "schoolbus-uitest"
	}
	attrs := []attribute.KeyValue{attribute.String("service.name", name)}
	if cfg.Version != "" {
		attrs = append(attrs, attribute.String("service.version", cfg.Version))
	}

	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attrs...)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(sdk)

	return &Provider{provider: sdk, sdk: sdk, out: f}, nil
}

func (p *Provider) Tracer() trace.Tracer {
	return p.provider.Tracer(tracerName)
}

func (p *Provider) Enabled() bool {
	return p.sdk != nil
}

// Shutdown flushes pending spans and closes the trace file.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	err := p.sdk.Shutdown(ctx)
	if p.out != nil {
		err = errors.Join(err, p.out.Close())
		p.out = nil
	}
	return err
}
