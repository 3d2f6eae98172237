// Package server runs the masking gRPC server.
//
// Every FindMaskedAlarms call runs the masking filter against the configured
// source; a semaphore bounds how many runs execute at the same time.
package server
