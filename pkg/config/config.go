// Package config loads the rule table from YAML.
package config

import (
	"bytes"
	"codeberg.org/miketth/komoboard/pkg/rules"
	"errors"
	"fmt"
	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const legacyFileName = "komokana.yaml"

// DefaultPath returns the configuration file komoboard uses when none is
// given: a komokana.yaml in the home directory if one exists, otherwise
// komoboard.yaml in the XDG config directory.
func DefaultPath() (string, error) {
	if home, err := os.UserHomeDir(); err == nil {
		legacy := filepath.Join(home, legacyFileName)
		if _, err := os.Stat(legacy); err == nil {
			return legacy, nil
		}
	}

	path, err := xdg.ConfigFile("komoboard/komoboard.yaml")
	if err != nil {
		return "", fmt.Errorf("get xdg config path: %w", err)
	}
	return path, nil
}

func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("there is no home directory: %w", err)
	}

	return filepath.Join(home, path[1:]), nil
}

func Load(path string) (rules.Configuration, error) {
	path, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return config, nil
}

func Parse(data []byte) (rules.Configuration, error) {
	var config rules.Configuration

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}
