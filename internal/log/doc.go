// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (cookies, tokens, secrets)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Secret values detected by pattern matching (passwords, tokens, keys)
//   - Export integration credentials (Slack webhooks, GitHub and tracker tokens)
//   - Session identifiers and authentication tokens
//
// A scanner's logs carry request headers and finding evidence, both of
// which can embed target credentials. Even in verbose mode, sensitive
// values are masked so logs can be shared with program owners without a
// scrubbing pass.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("request sent",
//	    "cookie", "session=abc123",  // Will be sanitized to "***REDACTED***"
//	    "url", "https://app.example.com",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
