package logger

import (
	"fmt"

	"github.com/rs/zerolog"
)

// LogRequest logs HTTP request information
func LogRequest(l Logger, method, url string, statusCode int, durationMs float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogDownload logs the outcome of one item download
func LogDownload(l Logger, item, filename string, written int64, err error) {
	fields := map[string]interface{}{
		"item":     item,
		"filename": filename,
		"written":  written,
	}

	if err != nil {
		l.WithFields(fields).WithError(err).Error("Download failed")
		return
	}
	l.InfoWithFields("Download completed", fields)
}

// LogExtraction logs the outcome of an extraction attempt
func LogExtraction(l Logger, archive, kind, dest string, extracted bool, err error) {
	fields := map[string]interface{}{
		"archive":   archive,
		"kind":      kind,
		"dest":      dest,
		"extracted": extracted,
	}

	switch {
	case err != nil:
		l.WithFields(fields).WithError(err).Error("Extraction failed")
	case extracted:
		l.InfoWithFields("Extraction completed", fields)
	default:
		l.InfoWithFields("Extraction skipped", fields)
	}
}

// LogProgress logs fractional progress at debug level
func LogProgress(l Logger, filename string, written, total int64) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(written) / float64(total) * 100
	}
	l.DebugWithFields("Download progress", map[string]interface{}{
		"filename":   filename,
		"written":    written,
		"total":      total,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	})
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
