package generator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/build-manifest/internal/config"
	domain "github.com/oshokin/build-manifest/internal/domain/manifest"
	"github.com/oshokin/build-manifest/internal/output"
)

var errTestSave = errors.New("test save error")

// memoryRepository is a minimal in-memory Repository implementation for tests.
type memoryRepository struct {
	// saved stores records passed to Save by file name.
	saved map[string]*domain.Record
	// saveErr is returned from Save when set.
	saveErr error
}

// Load returns a previously saved record.
func (m *memoryRepository) Load(_ context.Context, name string) (*domain.Record, error) {
	return m.saved[name], nil
}

// Save stores the record in memory unless saveErr is set.
func (m *memoryRepository) Save(_ context.Context, name string, record *domain.Record) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}

	if m.saved == nil {
		m.saved = make(map[string]*domain.Record)
	}

	m.saved[name] = record

	return name, nil
}

// failingSink rejects every output.
type failingSink struct{}

// SetOutput always fails.
func (failingSink) SetOutput(context.Context, string, string) error {
	return errTestSave
}

// newTestGenerator returns a generator over in-memory collaborators.
func newTestGenerator(t *testing.T, inputs config.MapProvider) (*generator, *memoryRepository, *output.Memory) {
	t.Helper()

	cfg, err := config.Resolve(inputs)
	require.NoError(t, err)

	repo := new(memoryRepository)
	sink := output.NewMemory()

	return &generator{cfg: cfg, repo: repo, sink: sink}, repo, sink
}

// TestGenerator_Run verifies the saved record and every published output.
func TestGenerator_Run(t *testing.T) {
	t.Parallel()

	gen, repo, sink := newTestGenerator(t, config.MapProvider{
		config.InputRefName:      "v1.4.0",
		config.InputRef:          "refs/tags/v1.4.0",
		config.InputCommit:       "abc123",
		config.InputBucketDomain: "build.livepeer.live",
		config.InputBucketKey:    "catalyst",
		config.InputProjectName:  "catalyst-api",
		config.InputPlatform:     "linux,darwin",
		config.InputArchitecture: "amd64,arm64",
	})

	require.NoError(t, gen.Run(context.Background()))

	record, ok := repo.saved["v1.4.0.json"]
	require.True(t, ok)
	require.Equal(t, 4, record.URLs.Len())

	url, _ := record.URLs.Get("darwin-arm64")
	require.Equal(t, "https://build.livepeer.live/catalyst/abc123/catalyst-api-darwin-arm64.tar.gz", url)

	require.Equal(t, []string{
		output.ManifestFile,
		output.ProjectName,
		output.ReleaseName,
		output.BucketKey,
		output.TagVersion,
	}, sink.Names())

	expected := map[string]string{
		output.ManifestFile: "v1.4.0.json",
		output.ProjectName:  "catalyst-api",
		output.ReleaseName:  "abc123",
		output.BucketKey:    "catalyst",
		output.TagVersion:   "v1.4.0",
	}
	for name, want := range expected {
		got, _ := sink.Get(name)
		require.Equal(t, want, got, name)
	}
}

// TestGenerator_Run_SanitizesRefName checks the manifest file name for branch names with slashes.
func TestGenerator_Run_SanitizesRefName(t *testing.T) {
	t.Parallel()

	gen, repo, sink := newTestGenerator(t, config.MapProvider{
		config.InputRefName:   "feature/new-ui",
		config.InputCommit:    "def456",
		config.InputSeparator: "_",
	})

	require.NoError(t, gen.Run(context.Background()))

	record, ok := repo.saved["feature_new-ui.json"]
	require.True(t, ok)
	require.Equal(t, "feature/new-ui", record.Branch)
	require.Zero(t, record.Filenames.Len())

	bucketKey, ok := sink.Get(output.BucketKey)
	require.True(t, ok)
	require.Empty(t, bucketKey)

	tagVersion, _ := sink.Get(output.TagVersion)
	require.Empty(t, tagVersion)
}

// TestGenerator_Run_Errors asserts repository and sink failures are propagated.
func TestGenerator_Run_Errors(t *testing.T) {
	t.Parallel()

	inputs := config.MapProvider{
		config.InputRefName: "main",
		config.InputCommit:  "abc123",
	}

	gen, repo, _ := newTestGenerator(t, inputs)
	repo.saveErr = errTestSave

	require.ErrorIs(t, gen.Run(context.Background()), errTestSave)

	gen, _, _ = newTestGenerator(t, inputs)
	gen.sink = failingSink{}

	require.ErrorIs(t, gen.Run(context.Background()), errTestSave)
}

// TestRun_Layering verifies overrides win over the settings file, which wins over the environment.
func TestRun_Layering(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	settings := filepath.Join(dir, "build-manifest.yaml")
	contents := `project-name: from-file
bucket-domain: files.example.com
platform: [linux]
architecture: [amd64]
`
	require.NoError(t, os.WriteFile(settings, []byte(contents), 0o600))

	sink := output.NewMemory()
	opts := &Options{
		ConfigPath: settings,
		OutputDir:  dir,
		Overrides: map[string]string{
			config.InputProjectName: "from-flag",
		},
		Environment: config.MapProvider{
			config.InputRefName:      "main",
			config.InputCommit:       "abc123",
			config.InputBucketDomain: "env.example.com",
			config.InputProjectName:  "from-env",
		},
		Sink: sink,
	}

	require.NoError(t, Run(context.Background(), opts))

	projectName, _ := sink.Get(output.ProjectName)
	require.Equal(t, "from-flag", projectName)

	contentsOnDisk, err := os.ReadFile(filepath.Join(dir, "main.json"))
	require.NoError(t, err)
	require.Contains(t, string(contentsOnDisk), "https://files.example.com/from-flag/abc123/from-flag-linux-amd64.tar.gz")
}

// TestRun_Errors covers nil options, missing settings files and invalid inputs.
func TestRun_Errors(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Run(context.Background(), nil), errOptionsAreNotSet)

	err := Run(context.Background(), &Options{
		ConfigPath:  filepath.Join(t.TempDir(), "missing.yaml"),
		Environment: config.MapProvider{},
		Sink:        output.NewMemory(),
	})
	require.ErrorIs(t, err, os.ErrNotExist)

	err = Run(context.Background(), &Options{
		Environment: config.MapProvider{config.InputCommit: "abc123"},
		Sink:        output.NewMemory(),
	})
	require.Error(t, err)
}
