// Package logging holds the structured logging helpers used across the server.
//
// Loggers are plain *slog.Logger values. SlogAdapter wraps one behind the
// key/value Logger interface consumed by the Kubernetes layer and the server
// context. Attribute helpers keep key names consistent:
//
//	logger.Warn("Retrying read after connection error",
//	    logging.Operation("list"),
//	    logging.ResourceType("pods"),
//	    logging.SanitizedErr(err))
//
// API server addresses and errors pass through SanitizeHost before they are
// logged so cluster IPs do not end up in log aggregation.
package logging
