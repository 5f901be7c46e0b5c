// Package logger provides structured logging for flowkit using zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers. The engine logs fusion rewrites and run
// lifecycle events at debug level; failed runs are logged at error level.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("flowkit")
//	log.Debug("fusion rewrite", logger.Fields(logger.FieldRule, "skip-merge"))
package logger
