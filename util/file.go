package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveJson writes data to path, creating the parent directory if needed.
func SaveJson(path string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	bs, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	_, err = file.Write(bs)
	return err
}

// LoadYaml decodes the yaml file at path into out. Keys missing from the file
// leave the corresponding fields of out untouched.
func LoadYaml(path string, out interface{}) error {
	bs, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(bs, out); err != nil {
		return fmt.Errorf("error parsing %s: %w", path, err)
	}
	return nil
}
