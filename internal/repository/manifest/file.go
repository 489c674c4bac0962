package manifest

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	domain "github.com/oshokin/build-manifest/internal/domain/manifest"
)

// DefaultFileMode is used for written manifests; they are uploaded next to the artifacts.
const DefaultFileMode os.FileMode = 0o644

// schemaLocation identifies the embedded schema inside the compiler.
const schemaLocation = "https://github.com/oshokin/build-manifest/manifest.schema.json"

//go:embed manifest.schema.json
var schemaDocument []byte

// Repository defines persistence operations for manifest records.
type Repository interface {
	Load(ctx context.Context, name string) (*domain.Record, error)
	Save(ctx context.Context, name string, record *domain.Record) (string, error)
}

var (
	// ErrNotFound is returned when the manifest file does not exist.
	ErrNotFound = errors.New("manifest not found")
	// ErrInvalidManifest is returned when a record does not match the manifest schema.
	ErrInvalidManifest = errors.New("invalid manifest")
	// errInvalidName is returned for file names that would escape the output directory.
	errInvalidName = errors.New("manifest file name must be a plain file name")
	// errRecordIsNotSet is returned when a nil record is saved.
	errRecordIsNotSet = errors.New("manifest record is not set")
)

// FileRepository stores records as JSON files inside one directory.
type FileRepository struct {
	// dir is the directory manifests are written to.
	dir string
	// schema validates encoded records.
	schema *jsonschema.Schema
}

// NewFileRepository creates a repository rooted at dir ("" means the working directory).
func NewFileRepository(dir string) (*FileRepository, error) {
	if dir == "" {
		dir = "."
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}

	return &FileRepository{
		dir:    filepath.Clean(dir),
		schema: schema,
	}, nil
}

// Save validates the record, writes it to name inside the repository
// directory and returns the written path.
func (r *FileRepository) Save(_ context.Context, name string, record *domain.Record) (string, error) {
	if record == nil {
		return "", errRecordIsNotSet
	}

	path, err := r.path(name)
	if err != nil {
		return "", err
	}

	if err = checkKeys(record); err != nil {
		return "", err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}

	if err = r.validate(data); err != nil {
		return "", err
	}

	if err = os.WriteFile(path, data, DefaultFileMode); err != nil {
		return "", fmt.Errorf("write manifest file: %w", err)
	}

	return path, nil
}

// Load reads and validates the manifest stored under name.
func (r *FileRepository) Load(_ context.Context, name string) (*domain.Record, error) {
	path, err := r.path(name)
	if err != nil {
		return nil, err
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read manifest file: %w", err)
	}

	if err = r.validate(contents); err != nil {
		return nil, err
	}

	var record domain.Record
	if err = json.Unmarshal(contents, &record); err != nil {
		return nil, fmt.Errorf("decode manifest file: %w", err)
	}

	return &record, nil
}

// path joins name to the repository directory.
func (r *FileRepository) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", errInvalidName, name)
	}

	return filepath.Join(r.dir, name), nil
}

// validate checks encoded JSON against the manifest schema.
func (r *FileRepository) validate(data []byte) error {
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	if err = r.schema.Validate(instance); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	return nil
}

// checkKeys verifies that file names and URLs are listed under the same keys.
func checkKeys(record *domain.Record) error {
	if !slices.Equal(record.Filenames.Keys(), record.URLs.Keys()) {
		return fmt.Errorf("%w: builds and srcFilenames keys differ", ErrInvalidManifest)
	}

	return nil
}

// compileSchema compiles the embedded manifest schema.
func compileSchema() (*jsonschema.Schema, error) {
	document, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaDocument))
	if err != nil {
		return nil, fmt.Errorf("decode manifest schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err = compiler.AddResource(schemaLocation, document); err != nil {
		return nil, fmt.Errorf("add manifest schema: %w", err)
	}

	schema, err := compiler.Compile(schemaLocation)
	if err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}

	return schema, nil
}
