package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadScript reads a script definition from disk. The format follows the file
// extension: .yaml/.yml parse as YAML, everything else as JSON.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script file: %w", err)
	}

	var script Script
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &script); err != nil {
			return nil, fmt.Errorf("parse script file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &script); err != nil {
			return nil, fmt.Errorf("parse script file: %w", err)
		}
	}

	if script.MainFlow == "" && len(script.Flows) > 0 {
		script.MainFlow = script.Flows[0].Name
	}

	// Template paths are relative to the script file unless absolute.
	base := filepath.Dir(path)
	for i := range script.Assets {
		if script.Assets[i].Path != "" && !filepath.IsAbs(script.Assets[i].Path) {
			script.Assets[i].Path = filepath.Join(base, script.Assets[i].Path)
		}
		if script.Assets[i].Threshold == 0 {
			script.Assets[i].Threshold = 0.85
		}
	}

	return &script, nil
}
