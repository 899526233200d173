package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PromptConfig holds the tool descriptions handed to the LLM, per language
type PromptConfig struct {
	Language string                     `yaml:"language"`
	Prompts  map[string]LanguagePrompts `yaml:"prompts"`
}

// LanguagePrompts tool descriptions for a specific language
type LanguagePrompts struct {
	RunTool     string `yaml:"run_tool"`
	ResultsTool string `yaml:"results_tool"`
	HTMLTool    string `yaml:"html_tool"`
	NoResults   string `yaml:"no_results"`
}

// DefaultPromptConfig returns default prompt configuration
func DefaultPromptConfig() *PromptConfig {
	return &PromptConfig{
		Language: "en",
		Prompts: map[string]LanguagePrompts{
			"en": {
				RunTool:     "Search the web through the local SearXNG instance and return a short answer or summary for the query.",
				ResultsTool: "Search the web through the local SearXNG instance and return a list of results with title, link and snippet.",
				HTMLTool:    "Search the web through the local SearXNG instance and return the raw HTML result page.",
				NoResults:   "No good search result found",
			},
			"zh": {
				RunTool:     "通过本地 SearXNG 实例搜索网络，返回查询的简短答案或摘要。",
				ResultsTool: "通过本地 SearXNG 实例搜索网络，返回包含标题、链接和摘要的结果列表。",
				HTMLTool:    "通过本地 SearXNG 实例搜索网络，返回原始 HTML 结果页面。",
				NoResults:   "没有找到合适的搜索结果",
			},
		},
	}
}

// PromptConfigPath returns the prompt config file path
func PromptConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prompt.yaml"), nil
}

// LoadPromptConfig loads prompt configuration from file, falling back to
// the defaults when no file exists
func LoadPromptConfig() (*PromptConfig, error) {
	configPath, err := PromptConfigPath()
	if err != nil {
		return DefaultPromptConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultPromptConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt config: %w", err)
	}

	cfg := DefaultPromptConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse prompt config: %w", err)
	}

	return cfg, nil
}

// GetPrompts returns prompts for the configured language
func (p *PromptConfig) GetPrompts() LanguagePrompts {
	if prompts, ok := p.Prompts[p.Language]; ok {
		return prompts
	}
	// Fall back to English
	if prompts, ok := p.Prompts["en"]; ok {
		return prompts
	}
	return LanguagePrompts{}
}
