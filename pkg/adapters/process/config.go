package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// AgentConfig describes an external program that plays one or more seats.
type AgentConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Seats       []int             `yaml:"seats" json:"seats"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of agents.yaml.
type ConfigFile struct {
	Agents []AgentConfig `yaml:"agents" json:"agents"`
}

// LoadAgents reads a configuration file (YAML or JSON) and returns the agents by name.
// A missing file yields no agents.
func LoadAgents(path string) (map[string]AgentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]AgentConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read agents config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	agents := make(map[string]AgentConfig)
	for _, agent := range cfg.Agents {
		if agent.Name == "" {
			continue
		}
		if agent.Command == "" {
			return nil, fmt.Errorf("agent %q has no command", agent.Name)
		}
		agents[agent.Name] = agent
	}
	return agents, nil
}
