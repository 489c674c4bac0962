// Package config resolves the inputs of a manifest run.
//
// Inputs are looked up by their action input name (ref-name, commit, ...)
// through a Provider. Providers exist for the GitHub Actions environment
// (INPUT_* variables), YAML files and plain maps, and can be chained so that
// explicit CLI flags win over a settings file, which wins over the environment.
package config
