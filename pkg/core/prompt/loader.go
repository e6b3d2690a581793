package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

type promptFile struct {
	ID           string `yaml:"id"`
	SystemPrompt string `yaml:"system_prompt"`
}

// LoadFromDirectory loads prompt overrides from every .yaml file under
// dir. A file without an explicit id is keyed by its relative path,
// "analysis/initial.yaml" -> "analysis.initial".
func LoadFromDirectory(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("prompt directory not found: %s", dir)
	}
	registry := Get()

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || (filepath.Ext(path) != ".yaml" && filepath.Ext(path) != ".yml") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		var pf promptFile
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if pf.ID == "" {
			pf.ID = idFromPath(path, dir)
		}
		if pf.SystemPrompt == "" {
			return fmt.Errorf("%s has no system_prompt", path)
		}
		return registry.Register(pf.ID, pf.SystemPrompt)
	})
}

func idFromPath(path, base string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return strings.ReplaceAll(rel, string(filepath.Separator), ".")
}
