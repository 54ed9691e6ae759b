// Package telemetry provides the observability instrumentation for edaconf:
// structured logging (zerolog), Prometheus metrics, and OpenTelemetry
// tracing, configured from a single Config.
//
// Initialize at startup:
//
//	tel, err := telemetry.New(telemetry.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
// Component loggers carry structured context through a reconcile run:
//
//	logger := tel.Logger.NewComponentLogger("engine").WithRunID(runID)
//	logger.WithResource("activation", "my_activation").Info("created")
package telemetry
