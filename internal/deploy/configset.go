// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tripleo/tripleo-containers/internal/issue"

	"gopkg.in/yaml.v3"
)

const (
	hashedPrefix = "hashed-"
	hashedSuffix = ".json"
)

// ErrInvalidConfigSet is returned when a config document has the wrong shape.
var ErrInvalidConfigSet = errors.New("invalid container configuration")

// ConfigSet maps a container name to its raw spec as written on disk.
// Specs are kept raw so the config_data label reflects the source exactly.
type ConfigSet map[string]map[string]any

// LoadConfigSet reads a single YAML/JSON file mapping names to specs, or a
// directory of hashed-<name>.json files each holding one spec.
func LoadConfigSet(path string) (ConfigSet, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, configSetError(path, err)
	}

	if !info.IsDir() {
		set := ConfigSet{}
		if err := decodeFile(path, &set); err != nil {
			return nil, configSetError(path, err)
		}
		return set, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, configSetError(path, err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !strings.HasPrefix(name, hashedPrefix) || !strings.HasSuffix(name, hashedSuffix) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)

	set := ConfigSet{}
	for _, name := range names {
		var spec map[string]any
		file := filepath.Join(path, name)
		if err := decodeFile(file, &spec); err != nil {
			return nil, configSetError(file, err)
		}
		if spec == nil {
			spec = map[string]any{}
		}
		set[strings.TrimSuffix(strings.TrimPrefix(name, hashedPrefix), hashedSuffix)] = spec
	}
	return set, nil
}

// decodeFile opens, decodes and closes path. An empty document leaves v untouched.
func decodeFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrInvalidConfigSet, err)
	}
	return nil
}

func configSetError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load container configuration").
		WithResource(path).
		WithSuggestion("Check that config points to a YAML/JSON file or a directory of hashed-*.json files").
		WithIssue(issue.ConfigSetLoadFailedId).
		Wrap(err).
		BuildError()
}

// Names returns the container names in lexical order.
func (s ConfigSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ConfigData returns the canonical JSON form of a spec, used as the
// config_data label. Object keys are sorted.
func ConfigData(spec map[string]any) (string, error) {
	data, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("encode config_data: %w", err)
	}
	return string(data), nil
}
