// Package logger provides structured logging for coolromdl.
//
// It wraps zerolog with a small interface so components can take a Logger
// and tests can substitute a TestLogger or the no-op logger.
//
//	logger.Initialize(&cfg.Logging)
//	logger.GetLogger().WithField("item", "Adventure Island").Info("Resolving download")
//
// Console output is written to stderr; when a log file is configured the
// same events are also appended to it as JSON.
package logger
