package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/build-manifest/internal/output"
)

// TestRootCommand runs the CLI with flags only and checks the written manifest and outputs.
func TestRootCommand(t *testing.T) {
	dir := t.TempDir()
	outputFile := filepath.Join(dir, "github_output")

	t.Setenv(output.GitHubOutputEnv, outputFile)

	rootCmd.SetArgs([]string{
		"--output-dir", dir,
		"--log-level", "debug",
		"--ref-name", "feat/x",
		"--commit", "abc123",
		"--project-name", "catalyst",
		"--bucket-domain", "build.livepeer.live",
		"--bucket-key", "custom",
		"--platform", "darwin",
		"--architecture", "arm64",
		"--use-prefix", "true",
		"--prefix", "livepeer",
	})

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	contents, err := os.ReadFile(filepath.Join(dir, "feat-x.json"))
	require.NoError(t, err)
	require.Contains(t, string(contents),
		`"darwin-arm64":"https://build.livepeer.live/custom/abc123/livepeer-catalyst-darwin-arm64.tar.gz"`)

	outputs, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	require.Contains(t, string(outputs), "bucket-key<<")
	require.Contains(t, string(outputs), "\ncustom\n")
}

// TestChangedInputs checks that only explicitly set input flags are collected.
func TestChangedInputs(t *testing.T) {
	t.Parallel()

	flags := pflag.NewFlagSet("build-manifest", pflag.ContinueOnError)
	for _, input := range inputFlags {
		flags.String(input.name, "", input.usage)
	}

	require.Empty(t, changedInputs(flags))

	require.NoError(t, flags.Set("separator", "_"))
	require.NoError(t, flags.Set("prefix", ""))

	require.Equal(t, map[string]string{
		"separator": "_",
		"prefix":    "",
	}, changedInputs(flags))
}
