package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Output names published after a manifest is written.
const (
	ManifestFile = "manifest-file"
	ProjectName  = "project-name"
	ReleaseName  = "release-name"
	BucketKey    = "bucket-key"
	TagVersion   = "tag-version"
)

const (
	// GitHubOutputEnv names the file the runner collects step outputs from.
	GitHubOutputEnv = "GITHUB_OUTPUT"

	// delimiterPrefix starts every heredoc delimiter, as in @actions/core.
	delimiterPrefix = "ghadelimiter_"

	// outputFileMode is used if the output file has to be created.
	outputFileMode os.FileMode = 0o644
)

var (
	// errEmptyName is returned for outputs without a name.
	errEmptyName = errors.New("output name must not be empty")
	// errDelimiterCollision is returned when a name or value contains the heredoc delimiter.
	errDelimiterCollision = errors.New("output contains the delimiter")
	// errMultilineValue is returned when WriterSink receives a value it cannot print on one line.
	errMultilineValue = errors.New("output value must be a single line")
)

// Sink receives named outputs.
type Sink interface {
	SetOutput(ctx context.Context, name, value string) error
}

// FileSink appends outputs to a GitHub Actions output file.
type FileSink struct {
	// path is the output file, usually $GITHUB_OUTPUT.
	path string
	// newDelimiter produces a fresh heredoc delimiter per output.
	newDelimiter func() string
	// mu serializes appends to the file.
	mu sync.Mutex
}

// NewFileSink returns a sink appending to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{
		path: filepath.Clean(path),
		newDelimiter: func() string {
			return delimiterPrefix + uuid.NewString()
		},
	}
}

// SetOutput appends
//
//	name<<delimiter
//	value
//	delimiter
//
// to the output file.
func (s *FileSink) SetOutput(_ context.Context, name, value string) error {
	if name == "" {
		return errEmptyName
	}

	delimiter := s.newDelimiter()
	if strings.Contains(name, delimiter) || strings.Contains(value, delimiter) {
		return fmt.Errorf("%w: %s", errDelimiterCollision, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, outputFileMode)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}

	_, err = fmt.Fprintf(file, "%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("write output %s: %w", name, err)
	}

	return nil
}

// WriterSink prints outputs as name=value lines.
type WriterSink struct {
	// w receives the lines.
	w io.Writer
	// mu serializes writes.
	mu sync.Mutex
}

// NewWriterSink returns a sink printing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{
		w: w,
	}
}

// SetOutput implements Sink.
func (s *WriterSink) SetOutput(_ context.Context, name, value string) error {
	if name == "" {
		return errEmptyName
	}

	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("%w: %s", errMultilineValue, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.w, "%s=%s\n", name, value); err != nil {
		return fmt.Errorf("write output %s: %w", name, err)
	}

	return nil
}

// NewSinkFromEnv returns a FileSink for $GITHUB_OUTPUT when the runner
// provides it, and a WriterSink on stdout otherwise.
//
//nolint:ireturn,nolintlint // Callers only need the Sink behaviour.
func NewSinkFromEnv() Sink {
	if path := os.Getenv(GitHubOutputEnv); path != "" {
		return NewFileSink(path)
	}

	return NewWriterSink(os.Stdout)
}

// Memory records outputs in memory.
type Memory struct {
	// names keeps the order outputs were set in.
	names []string
	// values holds the latest value per name.
	values map[string]string
	// mu protects names and values.
	mu sync.Mutex
}

// NewMemory returns an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{
		values: make(map[string]string),
	}
}

// SetOutput implements Sink.
func (m *Memory) SetOutput(_ context.Context, name, value string) error {
	if name == "" {
		return errEmptyName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.values[name]; !ok {
		m.names = append(m.names, name)
	}

	m.values[name] = value

	return nil
}

// Get returns the value set for name.
func (m *Memory) Get(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.values[name]

	return value, ok
}

// Names returns output names in the order they were first set.
func (m *Memory) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.names...)
}
