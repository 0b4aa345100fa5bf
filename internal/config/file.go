package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	errConfigFileIsDir = errors.New("config file is dir")
)

func readFile(path string, cfg *Config) error {
	finfo, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if finfo.IsDir() {
		return errConfigFileIsDir
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	// an empty or comment-only file overrides nothing
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}

	return nil
}
