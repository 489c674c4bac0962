package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/build-manifest/internal/config"
	"github.com/oshokin/build-manifest/internal/logger"
	"github.com/oshokin/build-manifest/internal/output"
	"github.com/oshokin/build-manifest/internal/service/generator"
	"github.com/oshokin/build-manifest/internal/version"
)

var (
	// configPath to the optional YAML settings file.
	configPath string
	// outputDir is where the manifest file is written.
	outputDir string
	// logLevel is the minimum level of log messages.
	logLevel string

	// inputFlags lists the flags that mirror action inputs, with their descriptions.
	//nolint:gochecknoglobals // Static table consumed by init and RunE.
	inputFlags = []struct {
		name  string
		usage string
	}{
		{config.InputRefName, "branch or tag name; slashes are replaced in the manifest file name"},
		{config.InputRef, "fully qualified git reference"},
		{config.InputCommit, "commit SHA, used as release name and URL path segment"},
		{config.InputBucketDomain, "host serving the build artifacts"},
		{config.InputBucketKey, "storage namespace (defaults to project-name)"},
		{config.InputProjectName, "project name; empty produces a manifest without builds"},
		{config.InputUsePrefix, "prepend prefix to archive names (true|false)"},
		{config.InputPrefix, "archive name prefix"},
		{config.InputArchitecture, "comma separated CPU architectures"},
		{config.InputPlatform, "comma separated operating systems"},
		{config.InputSeparator, "replacement for '/' in the manifest file name"},
	}

	// rootCmd represents the base command for generating a build manifest.
	rootCmd = &cobra.Command{
		Use:   "build-manifest",
		Short: "Generate the build manifest of a revision.",
		Long: `Generates {ref-name}.json describing the archive name and download URL of every
platform/architecture build of a revision, then publishes manifest-file,
project-name, release-name, bucket-key and tag-version as step outputs.

Inputs are read from command line flags, then from the settings file given by
--config, then from the INPUT_* variables set by the GitHub Actions runner.
Outputs go to $GITHUB_OUTPUT when set, or to stdout as name=value lines.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogging()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &generator.Options{
				ConfigPath: configPath,
				OutputDir:  outputDir,
				Overrides:  changedInputs(cmd.Flags()),
			}

			return generator.Run(ctx, options)
		},
	}
)

// Execute runs the build-manifest CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.ErrorKV(ctx, "Build manifest failed", "error", err)

		if output.InGitHubActions() {
			output.ReportFailure(os.Stdout, err)
		}

		os.Exit(1)
	}
}

// setupLogging applies --log-level, or debug level when the runner has debug logging on.
func setupLogging() error {
	if logLevel == "" {
		if os.Getenv("RUNNER_DEBUG") == "1" {
			logger.SetLevel(logger.DebugLevel())
		}

		return nil
	}

	level, ok := logger.ParseLogLevel(logLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", logLevel) //nolint:err113 // One-off CLI validation error.
	}

	logger.SetLevel(level)

	return nil
}

// changedInputs returns the input flags that were set explicitly.
func changedInputs(flags *pflag.FlagSet) map[string]string {
	inputs := make(map[string]string, len(inputFlags))

	for _, input := range inputFlags {
		flag := flags.Lookup(input.name)
		if flag != nil && flag.Changed {
			inputs[input.name] = flag.Value.String()
		}
	}

	return inputs
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML settings file keyed by input name")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "directory the manifest file is written to")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	for _, input := range inputFlags {
		rootCmd.Flags().String(input.name, "", input.usage)
	}
}
