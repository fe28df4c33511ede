// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vestry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"
)

// setupTracing configures the global OpenTelemetry SDK. Exporter shutdown is
// registered with the service shutdown functions so that buffered spans are
// flushed on exit
func (s *Service) setupTracing() error {
	ctx := context.Background()
	// Configure propagators
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)
	// Configure trace provider
	tracerProvider, err := s.newTraceProvider(ctx)
	if err != nil {
		return err
	}
	s.shutdownFuncs = append(s.shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)
	return nil
}

func (s *Service) newTraceProvider(
	ctx context.Context,
) (*trace.TracerProvider, error) {
	var opts []trace.TracerProviderOption
	if s.config.tracingStdout {
		stdoutExporter, err := stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, trace.WithBatcher(stdoutExporter))
	}
	// Spans are submitted to a HTTP(s) endpoint using OTLP. This can be
	// configured using the OTEL_EXPORTER_OTLP_* env vars
	otlpExporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}
	opts = append(opts, trace.WithBatcher(otlpExporter))
	return trace.NewTracerProvider(opts...), nil
}
