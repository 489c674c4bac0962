// Package manifest contains the core domain logic of build-manifest.
//
// It turns a BuildConfig (revision, bucket location, naming parameters and
// the platform/architecture lists) into a Record describing every archive
// produced for that revision and where it can be downloaded from. Everything
// here is pure string work: no I/O, no logging, no errors.
package manifest
