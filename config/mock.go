package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MockScript overrides the canned responses of the mock session
type MockScript struct {
	Replies        []string `yaml:"replies"`
	RecognizedText string   `yaml:"recognized_text"`
}

// LoadMockScript reads a YAML mock script, e.g.
//
//	replies:
//	  - "Hello! I'm Antarctica."
//	recognized_text: "Tell me about yourself"
func LoadMockScript(path string) (*MockScript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mock script: %w", err)
	}

	var script MockScript
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parse mock script %s: %w", path, err)
	}

	if len(script.Replies) == 0 {
		return nil, fmt.Errorf("mock script %s has no replies", path)
	}

	return &script, nil
}
