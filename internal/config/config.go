package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultAIName 是未配置 ai_name 时使用的助手名。
	DefaultAIName   = "gpt"
	DefaultProvider = "openai"
	DefaultModel    = "gpt-3.5-turbo"
	// DefaultAnthropicModel 是 provider=anthropic 且未配置 model 时的模型。
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
)

var ErrMissingAPIKey = errors.New("config: api_key is required")

// Config is the persisted config file schema. api_key/conversation_file/ai_name
// are the original fields; the rest are optional extensions.
type Config struct {
	APIKey           string  `json:"api_key" toml:"api_key"`
	ConversationFile *string `json:"conversation_file" toml:"conversation_file,omitempty"`
	AIName           *string `json:"ai_name" toml:"ai_name,omitempty"`
	Provider         string  `json:"provider,omitempty" toml:"provider,omitempty"`
	Model            string  `json:"model,omitempty" toml:"model,omitempty"`
	BaseURL          string  `json:"base_url,omitempty" toml:"base_url,omitempty"`
	WireAPI          string  `json:"wire_api,omitempty" toml:"wire_api,omitempty"`
	EditMode         string  `json:"edit_mode,omitempty" toml:"edit_mode,omitempty"`
	Source           string  `json:"-" toml:"-"`
}

func Default() Config {
	return Config{}
}

// Name 返回助手显示名，ai_name 缺省或为空时回退到 "gpt"。
func (c Config) Name() string {
	if c.AIName == nil || strings.TrimSpace(*c.AIName) == "" {
		return DefaultAIName
	}
	return *c.AIName
}

func (c Config) ProviderName() string {
	if p := strings.ToLower(strings.TrimSpace(c.Provider)); p != "" {
		return p
	}
	return DefaultProvider
}

func (c Config) ModelName() string {
	if m := strings.TrimSpace(c.Model); m != "" {
		return m
	}
	if c.ProviderName() == "anthropic" {
		return DefaultAnthropicModel
	}
	return DefaultModel
}

// Validate 检查启动所需的最小配置。
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}
	switch c.ProviderName() {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	return nil
}

// DefaultPath 返回按用户划分的默认配置路径。
func DefaultPath(username string) string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "gptui", "config.json")
	}
	return filepath.Join("/home", username, ".config", "gptui", "config.json")
}

// Exists 报告 path 处是否存在配置文件。
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load 读取配置文件；.toml 后缀按 TOML 解析，其余按 JSON 解析。
// 环境变量覆盖文件中的值。
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, errors.New("config: path is empty")
	}
	cfg.Source = path

	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if isTOML(path) {
		err = toml.Unmarshal(content, &cfg)
	} else {
		err = json.Unmarshal(content, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Source = path
	return applyEnv(cfg), nil
}

func applyEnv(cfg Config) Config {
	if env := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); env != "" && cfg.ProviderName() == "openai" {
		cfg.APIKey = env
	}
	if env := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); env != "" && cfg.ProviderName() == "anthropic" {
		cfg.APIKey = env
	}
	if env := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); env != "" && cfg.ProviderName() == "openai" {
		cfg.BaseURL = env
	}
	if env := strings.TrimSpace(os.Getenv("GPTUI_AI_NAME")); env != "" {
		cfg.AIName = &env
	}
	return cfg
}

// ApplyKVOverrides applies free-form -c key=value overrides.
func ApplyKVOverrides(cfg Config, overrides []string) Config {
	for _, raw := range overrides {
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		switch key {
		case "api_key":
			cfg.APIKey = val
		case "ai_name":
			cfg.AIName = &val
		case "provider":
			cfg.Provider = val
		case "model":
			cfg.Model = val
		case "base_url":
			cfg.BaseURL = val
		case "wire_api":
			cfg.WireAPI = val
		case "edit_mode":
			cfg.EditMode = val
		}
	}
	return cfg
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
