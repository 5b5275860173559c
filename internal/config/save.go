package config

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

func Save(path string, cfg Config) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("config: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Generate 执行首次运行流程：通过 prompt 提示输入 api key，写入 path 并返回新配置。
func Generate(in io.Reader, out io.Writer, prompt string, path string) (Config, error) {
	if _, err := io.WriteString(out, prompt); err != nil {
		return Config{}, err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: read api key: %w", err)
	}
	cfg := Config{APIKey: strings.TrimRight(line, "\r\n")}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Config{}, ErrMissingAPIKey
	}
	if err := Save(path, cfg); err != nil {
		return Config{}, err
	}
	cfg.Source = path
	return cfg, nil
}
