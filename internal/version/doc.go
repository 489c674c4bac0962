// Package version exposes build metadata for build-manifest.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags, e.g. -X github.com/oshokin/build-manifest/internal/version.Commit=abc123.
package version
