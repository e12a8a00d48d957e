// Package telemetry wires OpenTelemetry tracing and metrics for recall.
//
// # Usage
//
//	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version), logger)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//
// Components obtain tracers and meters through the otel globals, which New
// installs when telemetry is enabled. With telemetry disabled the globals stay
// no-op.
//
// # Configuration
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4317"
//	  protocol: grpc          # or http/protobuf
//	  insecure: true          # only allowed for local endpoints
//	  sample_rate: 1.0
//
// # Testing
//
//	tt := telemetry.NewTestTelemetry()
//	engine := query.NewEngine(asm, reasoner, query.WithTracer(tt.Tracer("test")))
//	...
//	tt.AssertSpanExists(t, "query.Query")
package telemetry
