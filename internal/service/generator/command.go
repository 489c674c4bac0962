package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/build-manifest/internal/config"
	domain "github.com/oshokin/build-manifest/internal/domain/manifest"
	"github.com/oshokin/build-manifest/internal/logger"
	"github.com/oshokin/build-manifest/internal/output"
	repository "github.com/oshokin/build-manifest/internal/repository/manifest"
)

// Options contains inputs for the generator entry point.
type Options struct {
	// ConfigPath is an optional YAML settings file keyed by input name.
	ConfigPath string
	// OutputDir is where the manifest file is written (defaults to the working directory).
	OutputDir string
	// Overrides holds inputs given explicitly on the command line; they win over every other source.
	Overrides map[string]string
	// Environment supplies the remaining inputs (defaults to the INPUT_* environment).
	Environment config.Provider
	// Sink receives the step outputs (defaults to $GITHUB_OUTPUT or stdout).
	Sink output.Sink
}

// errOptionsAreNotSet is returned when Run is called without options.
var errOptionsAreNotSet = errors.New("options are not set")

// generator writes one manifest and publishes its outputs.
// It is unexported; callers should use Run.
type generator struct {
	// cfg holds the resolved inputs.
	cfg *config.Config
	// repo persists the manifest record.
	repo repository.Repository
	// sink receives the step outputs.
	sink output.Sink
}

// Run executes the generation workflow.
func Run(ctx context.Context, opts *Options) error {
	if opts == nil {
		return errOptionsAreNotSet
	}

	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "build-manifest")

	provider, err := newProvider(opts)
	if err != nil {
		return err
	}

	cfg, err := config.Resolve(provider)
	if err != nil {
		return fmt.Errorf("resolve inputs: %w", err)
	}

	repo, err := repository.NewFileRepository(opts.OutputDir)
	if err != nil {
		return fmt.Errorf("initialize manifest repository: %w", err)
	}

	sink := opts.Sink
	if sink == nil {
		sink = output.NewSinkFromEnv()
	}

	gen := &generator{
		cfg:  cfg,
		repo: repo,
		sink: sink,
	}

	if err = gen.Run(ctx); err != nil {
		return fmt.Errorf("generate manifest: %w", err)
	}

	return nil
}

// newProvider layers the input sources: overrides, settings file, environment.
//
//nolint:ireturn,nolintlint // The chain is consumed only through Provider.
func newProvider(opts *Options) (config.Provider, error) {
	chain := config.Chain{config.MapProvider(opts.Overrides)}

	if opts.ConfigPath != "" {
		inputs, err := config.LoadFile(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}

		chain = append(chain, inputs)
	}

	environment := opts.Environment
	if environment == nil {
		environment = config.NewEnvProvider()
	}

	return append(chain, environment), nil
}

// Run builds the manifest, writes it and publishes the outputs.
func (g *generator) Run(ctx context.Context) error {
	build := &g.cfg.Build

	logger.DebugKV(ctx, "Received inputs",
		"ref_name", build.RefName,
		"ref", build.Ref,
		"commit", build.Commit,
		"bucket_domain", build.BucketDomain,
		"project_name", build.ProjectName,
		"platforms", build.Platforms,
		"architectures", build.Architectures,
	)

	if build.ProjectName == "" {
		logger.WarnKV(ctx, "No project name given, the manifest will list no builds", "ref_name", build.RefName)
	}

	record := domain.Build(build)
	manifestFile := domain.CleanName(build.RefName, g.cfg.Separator) + ".json"

	logger.Debugf(ctx, "Generated manifestFile=%s", manifestFile)

	path, err := g.repo.Save(ctx, manifestFile, record)
	if err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}

	logger.InfoKV(ctx, "Manifest written", "path", path, "builds", record.URLs.Len())

	for _, key := range record.URLs.Keys() {
		url, _ := record.URLs.Get(key)
		logger.DebugKV(ctx, "Build", "key", key, "url", url)
	}

	return g.publish(ctx, manifestFile)
}

// publish sets the step outputs in a fixed order.
func (g *generator) publish(ctx context.Context, manifestFile string) error {
	build := &g.cfg.Build

	outputs := []struct {
		name  string
		value string
	}{
		{name: output.ManifestFile, value: manifestFile},
		{name: output.ProjectName, value: build.ProjectName},
		{name: output.ReleaseName, value: build.Commit},
		{name: output.BucketKey, value: build.EffectiveBucketKey()},
		{name: output.TagVersion, value: domain.TagVersion(build.RefName)},
	}

	for _, out := range outputs {
		if err := g.sink.SetOutput(ctx, out.name, out.value); err != nil {
			return fmt.Errorf("set output %s: %w", out.name, err)
		}
	}

	logger.InfoKV(ctx, "Outputs published", "manifest_file", manifestFile, "release_name", build.Commit)

	return nil
}
