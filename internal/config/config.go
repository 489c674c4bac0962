package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oshokin/build-manifest/internal/domain/manifest"
)

// Input names, as declared by the action.
const (
	InputRefName      = "ref-name"
	InputRef          = "ref"
	InputCommit       = "commit"
	InputBucketDomain = "bucket-domain"
	InputBucketKey    = "bucket-key"
	InputProjectName  = "project-name"
	InputUsePrefix    = "use-prefix"
	InputPrefix       = "prefix"
	InputArchitecture = "architecture"
	InputPlatform     = "platform"
	InputSeparator    = "separator"
)

// DefaultConfigFilename is the settings file read when no path is given.
const DefaultConfigFilename = "build-manifest.yaml"

// Config holds everything a manifest run needs.
type Config struct {
	// Build is passed to the manifest builder as is.
	Build manifest.BuildConfig
	// Separator replaces "/" when the ref name becomes a file name.
	Separator string
}

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errRefNameRequired is returned when ref-name is missing.
	errRefNameRequired = errors.New("ref-name must be provided")
	// errCommitRequired is returned when commit is missing.
	errCommitRequired = errors.New("commit must be provided")
	// errBucketDomainRequired is returned when artifacts are requested without a bucket domain.
	errBucketDomainRequired = errors.New("bucket-domain must be provided together with project-name")
	// errInvalidBucketDomain is returned for bucket domains that are not a bare host.
	errInvalidBucketDomain = errors.New("bucket-domain must be a host name without scheme or path")
	// errInvalidSeparator is returned when the separator would keep the name unsafe.
	errInvalidSeparator = errors.New("separator must not contain '/'")
	// errInvalidBoolean is returned for boolean inputs outside the YAML 1.2 core schema.
	errInvalidBoolean = errors.New("input does not meet YAML 1.2 \"Core Schema\" specification")
	// errNestedInput is returned when a settings file nests mappings under an input.
	errNestedInput = errors.New("input must be a scalar or a list")
)

// Resolve reads all inputs from provider and validates the result.
func Resolve(provider Provider) (*Config, error) {
	usePrefix, err := booleanInput(provider, InputUsePrefix)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Build: manifest.BuildConfig{
			Ref:           input(provider, InputRef),
			RefName:       input(provider, InputRefName),
			Commit:        input(provider, InputCommit),
			BucketDomain:  input(provider, InputBucketDomain),
			BucketKey:     input(provider, InputBucketKey),
			ProjectName:   input(provider, InputProjectName),
			Platforms:     listInput(provider, InputPlatform),
			Architectures: listInput(provider, InputArchitecture),
			UsePrefix:     usePrefix,
			Prefix:        input(provider, InputPrefix),
		},
		Separator: input(provider, InputSeparator),
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required inputs and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	build := &cfg.Build

	if build.RefName == "" {
		return errRefNameRequired
	}

	if build.Commit == "" {
		return errCommitRequired
	}

	if build.ProjectName != "" && build.BucketDomain == "" {
		return errBucketDomainRequired
	}

	if strings.ContainsAny(build.BucketDomain, "/?#") {
		return fmt.Errorf("%w: %q", errInvalidBucketDomain, build.BucketDomain)
	}

	// Set default separator if not specified.
	if cfg.Separator == "" {
		cfg.Separator = manifest.DefaultSeparatorReplacement
	}

	if strings.Contains(cfg.Separator, "/") {
		return fmt.Errorf("%w: %q", errInvalidSeparator, cfg.Separator)
	}

	return nil
}

// input returns the trimmed value of the named input, or "" when it is absent.
func input(provider Provider, name string) string {
	value, _ := provider.Lookup(name)

	return strings.TrimSpace(value)
}

// listInput splits a comma separated input. A blank input is an empty list.
func listInput(provider Provider, name string) []string {
	value := input(provider, name)
	if value == "" {
		return nil
	}

	return manifest.SplitList(value)
}

// booleanInput parses an optional boolean input. A blank input is false.
func booleanInput(provider Provider, name string) (bool, error) {
	switch value := input(provider, name); value {
	case "true", "True", "TRUE":
		return true, nil
	case "", "false", "False", "FALSE":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s=%q", errInvalidBoolean, name, value)
	}
}
