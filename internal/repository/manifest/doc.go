// Package manifest persists manifest records as JSON files.
//
// FileRepository checks every encoded record against an embedded JSON Schema
// before writing it, so the downstream downloader never sees a malformed file.
package manifest
