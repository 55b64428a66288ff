// Package server holds the dependencies shared by every MCP tool and the
// HTTP endpoints that sit next to the transports.
//
// ServerContext carries the Kubernetes client, the logger, the server
// Config, the optional instrumentation provider and in-process tool
// counters. It is built with functional options:
//
//	sc, err := server.NewServerContext(ctx,
//		server.WithK8sClient(client),
//		server.WithLogger(logger),
//		server.WithNonDestructiveMode(true),
//		server.WithAllowedOperations([]string{"get", "list", "logs"}),
//	)
//	if err != nil {
//		return err
//	}
//	defer sc.Shutdown()
//
// HealthChecker serves /healthz, /readyz and /healthz/detailed. The detailed
// endpoint reports the default context, the contexts holding a cached
// client, tool call counters and the instrumentation exporters.
//
// MetricsServer exposes the Prometheus scrape endpoint on its own listener.
package server
