// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger writing a compact console format,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities,
//   - convenience functions (InfoKV, Debugf, etc.).
//
// The generator accepts a context and extracts the logger from it, so every
// line of a run carries the same name and fields.
package logger
