// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger writing to stderr in console or JSON format,
//   - context helpers (FromContext/WithName/WithKV),
//   - level configuration and parsing utilities,
//   - convenience functions (Info, InfoKV, ErrorKV, etc.).
//
// Commands print their results on stdout, so logs never go there.
// All services accept a context and extract the logger from it, enabling
// scoped, structured logging throughout the codebase.
package logger
