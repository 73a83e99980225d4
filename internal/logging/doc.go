// Package logging provides a simple leveled logging interface for thumbgrid.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (per-image pipeline timings)
//   - INFO: General operational messages
//   - WARN: Warning conditions (failed thumbnails, cache write failures)
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is read from the LOG_LEVEL (or DEBUG) environment variable
// and may be overridden once configuration is loaded with SetLevel.
package logging
