// Package logger provides a structured logging interface for photonotes.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors
// - Plain output for terminals without color support
// - File output in addition to the console
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "photonotes/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	    File: "photonotes.log",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.Info("Application started")
//	logger.WithField("photo_id", "53000001").Info("Creating photo note")
//	logger.WithError(err).Error("Failed to export note")
//
// Advanced Usage:
//
//	// Create a logger instance with fields
//	log := logger.GetLogger().
//	    WithField("component", "walker").
//	    WithField("owner", "12345678@N00")
//
//	// Use structured logging
//	log.InfoWithFields("Photo located", map[string]interface{}{
//	    "position": 1842,
//	    "page":     4,
//	    "duration": time.Second * 5,
//	})
//
// The logger supports the following configuration options:
// - Level: Log level (debug, info, warn, error, fatal)
// - File: Path to log file (empty for console only)
// - NoColor: Disable ANSI colors on the console
package logger
