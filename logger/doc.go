// Package logger provides structured logging for scribe using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg, "scribe").WithComponent("orchestrator")
//	log.Info("job dispatched", logger.Fields("message_id", id))
package logger
