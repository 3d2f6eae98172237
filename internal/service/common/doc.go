// Package common holds helpers shared by several services.
//
// It provides the Finder that runs the masking filter in the configured mode
// and a lightweight gRPC client wrapper with timeouts for remote queries.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
