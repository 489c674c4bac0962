// Package generator runs one manifest generation end to end.
//
// It resolves the inputs, builds the manifest record, writes it to
// {ref-name}.json with slashes replaced, and publishes the step outputs
// (manifest-file, project-name, release-name, bucket-key, tag-version).
package generator
