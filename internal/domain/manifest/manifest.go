package manifest

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// DefaultSeparatorReplacement substitutes "/" in branch names used as file names.
const DefaultSeparatorReplacement = "-"

const (
	// listSeparator separates elements of platform and architecture lists.
	listSeparator = ","
	// tagRefPrefix is the fully qualified prefix of git tag references.
	tagRefPrefix = "refs/tags/"
)

// BuildConfig describes one revision and the artifacts built for it.
type BuildConfig struct {
	// Ref is the source revision reference, e.g. refs/heads/main.
	Ref string
	// RefName is the short branch or tag name. It may contain slashes.
	RefName string
	// Commit is the resolved revision; it doubles as the release name.
	Commit string
	// BucketDomain is the host serving the artifacts.
	BucketDomain string
	// BucketKey is the storage namespace. Empty means ProjectName.
	BucketKey string
	// ProjectName prefixes every archive. Empty means no archives at all.
	ProjectName string
	// Platforms lists target operating systems in output order.
	Platforms []string
	// Architectures lists target CPU architectures in output order.
	Architectures []string
	// UsePrefix enables Prefix on archive names.
	UsePrefix bool
	// Prefix is prepended to archive names as "{Prefix}-" when UsePrefix is set.
	Prefix string
}

// EffectiveBucketKey returns BucketKey, falling back to ProjectName.
func (c *BuildConfig) EffectiveBucketKey() string {
	if c.BucketKey != "" {
		return c.BucketKey
	}

	return c.ProjectName
}

// Record is the manifest emitted for one revision.
// Filenames and URLs always share the same keys in the same order.
type Record struct {
	// Ref is copied from BuildConfig.Ref.
	Ref string `json:"ref"`
	// Branch is copied verbatim from BuildConfig.RefName.
	Branch string `json:"branch"`
	// Commit is copied from BuildConfig.Commit.
	Commit string `json:"commit"`
	// URLs maps "{platform}-{arch}" to the archive download URL.
	URLs *OrderedMap `json:"builds"`
	// Filenames maps "{platform}-{arch}" to the archive file name.
	Filenames *OrderedMap `json:"srcFilenames"`
}

// Build computes the manifest for cfg. It never fails.
func Build(cfg *BuildConfig) *Record {
	capacity := 0
	if cfg.ProjectName != "" {
		capacity = len(cfg.Platforms) * len(cfg.Architectures)
	}

	record := &Record{
		Ref:       cfg.Ref,
		Branch:    cfg.RefName,
		Commit:    cfg.Commit,
		URLs:      NewOrderedMap(capacity),
		Filenames: NewOrderedMap(capacity),
	}

	if cfg.ProjectName == "" {
		return record
	}

	bucketKey := cfg.EffectiveBucketKey()

	for _, platform := range cfg.Platforms {
		suffix := ArchiveSuffix(platform)

		for _, arch := range cfg.Architectures {
			key := Key(platform, arch)
			name := archiveName(cfg, platform, arch, suffix)

			// Repeated pairs overwrite earlier ones.
			record.Filenames.Set(key, name)
			record.URLs.Set(key, fmt.Sprintf("https://%s/%s/%s/%s", cfg.BucketDomain, bucketKey, cfg.Commit, name))
		}
	}

	return record
}

// Key returns the manifest key of a platform/architecture pair.
func Key(platform, arch string) string {
	return platform + "-" + arch
}

// archiveName returns "[{prefix}-]{project}-{platform}-{arch}[.{suffix}]".
func archiveName(cfg *BuildConfig, platform, arch, suffix string) string {
	var builder strings.Builder

	if cfg.UsePrefix {
		builder.WriteString(cfg.Prefix)
		builder.WriteByte('-')
	}

	builder.WriteString(cfg.ProjectName)
	builder.WriteByte('-')
	builder.WriteString(Key(platform, arch))

	if suffix != "" {
		builder.WriteByte('.')
		builder.WriteString(suffix)
	}

	return builder.String()
}

// ArchiveSuffix returns the archive extension used for platform,
// or an empty string for platforms it does not know.
func ArchiveSuffix(platform string) string {
	switch platform {
	case "linux", "darwin":
		return "tar.gz"
	case "windows":
		return "zip"
	default:
		return ""
	}
}

// CleanName replaces every "/" in name with replacement.
// An empty replacement selects DefaultSeparatorReplacement.
func CleanName(name, replacement string) string {
	if replacement == "" {
		replacement = DefaultSeparatorReplacement
	}

	return strings.ReplaceAll(name, "/", replacement)
}

// SplitList splits a comma separated list and trims each element.
// Empty elements are kept, so "" yields a single empty element.
func SplitList(raw string) []string {
	parts := strings.Split(raw, listSeparator)
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}

	return parts
}

// TagVersion returns the canonical semantic version named by refName
// ("v1.2" and "refs/tags/1.2" both give "v1.2.0"), or "" when refName
// is not a version tag.
func TagVersion(refName string) string {
	version := strings.TrimPrefix(strings.TrimSpace(refName), tagRefPrefix)
	if version == "" {
		return ""
	}

	if version[0] != 'v' {
		version = "v" + version
	}

	if !semver.IsValid(version) {
		return ""
	}

	return semver.Canonical(version)
}
