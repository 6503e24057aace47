// Package logger provides a structured logging interface for icgrab.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors
// - File output
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "icgrab/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	    File: "/var/log/icgrab.log",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.Info("Application started")
//	logger.WithField("album", "Summer 2024").Info("Album resolved")
//	logger.WithError(err).Error("Failed to download asset")
//
// Advanced Usage:
//
//	// Create a logger instance with fields
//	log := logger.GetLogger().
//	    WithField("component", "downloader").
//	    WithField("photo_guid", "abc123")
//
//	// Use structured logging
//	log.InfoWithFields("Download completed", map[string]interface{}{
//	    "file": "IMG_0001.JPG",
//	    "size": 1024000,
//	    "duration": time.Second * 5,
//	})
//
// The logger supports the following configuration options:
// - Level: Log level (debug, info, warn, error, fatal)
// - File: Path to log file (empty for console only)
package logger
