// Package observability provides OpenTelemetry tracing and metrics for
// stream runs.
//
// Embedding applications install exporters once:
//
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
//	mp, err := observability.InitMeter(ctx, &meterCfg)
//	defer mp.Shutdown(ctx)
//
// Streams then report through a Telemetry value:
//
//	tel, err := observability.GlobalTelemetry()
//	ctx, run := tel.StartRun(ctx, runID, nodes)
//	defer run.End(ctx, pulled, err)
//
// Every run produces one "flowkit.run" span and updates the
// flowkit.items.pulled, flowkit.runs and flowkit.run.duration instruments.
// Chain rewrites are counted in flowkit.fusion.rewrites.
package observability
