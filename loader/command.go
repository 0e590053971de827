package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/bwmarrin/discordgo"
)

const (
	RestartCommandName        = "restart"
	restartCommandDescription = "Delete generated messages"
)

type CommandConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DefaultCommands is used when no command file exists.
func DefaultCommands() []CommandConfig {
	return []CommandConfig{
		{Name: RestartCommandName, Description: restartCommandDescription},
	}
}

// LoadCommands reads slash command definitions from a JSON array. A missing
// file yields DefaultCommands.
func LoadCommands(filepath string) ([]*discordgo.ApplicationCommand, error) {
	configs, err := LoadCommandConfigs(filepath)
	if err != nil {
		return nil, err
	}

	commands := make([]*discordgo.ApplicationCommand, 0, len(configs))
	for _, c := range configs {
		commands = append(commands, &discordgo.ApplicationCommand{
			Name:        c.Name,
			Description: c.Description,
		})
	}
	return commands, nil
}

func LoadCommandConfigs(filepath string) ([]CommandConfig, error) {
	file, err := os.ReadFile(filepath)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultCommands(), nil
	}
	if err != nil {
		return nil, err
	}

	var configs []CommandConfig
	if err := json.Unmarshal(file, &configs); err != nil {
		return nil, fmt.Errorf("%s の解析に失敗しました: %w", filepath, err)
	}
	if len(configs) == 0 {
		return nil, errors.New("command file defines no commands")
	}

	seen := make(map[string]bool, len(configs))
	for i, c := range configs {
		if c.Name == "" || c.Description == "" {
			return nil, fmt.Errorf("command #%d: name and description are required", i)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("command %q is defined more than once", c.Name)
		}
		seen[c.Name] = true
	}
	return configs, nil
}
