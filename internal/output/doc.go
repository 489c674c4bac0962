// Package output publishes the named results of a run to the CI host.
//
// A Sink receives name/value pairs. FileSink appends them to the file named
// by $GITHUB_OUTPUT using the runner's heredoc syntax, WriterSink prints
// plain name=value lines, and Memory keeps them for tests.
package output
