package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	anthropicmodel "gptui/internal/agent/anthropic"
	openaimodel "gptui/internal/agent/openai"
	"gptui/internal/config"

	"github.com/spf13/cobra"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GPTUI_AI_NAME", "")
	path := writeConfig(t, "config.json", `{"api_key":"sk-file","conversation_file":null,"ai_name":null}`)

	cfg, err := loadConfig(rootFlags{
		configPath: path,
		overrides:  []string{"ai_name=hiro", "edit_mode=vi"},
		model:      "gpt-4o-mini",
	}, "alice", strings.NewReader(""), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name() != "hiro" || cfg.ModelName() != "gpt-4o-mini" || cfg.EditMode != "vi" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Source != path {
		t.Fatalf("expected source %s, got %s", path, cfg.Source)
	}
}

func TestLoadConfig_MissingKeyFails(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := writeConfig(t, "config.json", `{"api_key":"","conversation_file":null,"ai_name":null}`)

	_, err := loadConfig(rootFlags{configPath: path}, "alice", strings.NewReader(""), &bytes.Buffer{})
	if !errors.Is(err, config.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestLoadConfig_FirstRunGeneratesDefault(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("OPENAI_API_KEY", "")

	var out bytes.Buffer
	cfg, err := loadConfig(rootFlags{}, "alice", strings.NewReader("sk-typed\n"), &out)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "sk-typed" {
		t.Fatalf("unexpected key %q", cfg.APIKey)
	}
	if !strings.Contains(out.String(), "Enter your api key") {
		t.Fatalf("expected setup prompt, got %q", out.String())
	}
	if !config.Exists(config.DefaultPath("alice")) {
		t.Fatalf("expected config written to %s", config.DefaultPath("alice"))
	}
}

func TestBuildClient_SelectsProvider(t *testing.T) {
	client, err := buildClient(config.Config{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("openai client: %v", err)
	}
	if _, ok := client.(*openaimodel.Client); !ok {
		t.Fatalf("expected openai client, got %T", client)
	}

	client, err = buildClient(config.Config{APIKey: "sk-ant", Provider: "anthropic", Model: "claude-3-5-haiku-latest"})
	if err != nil {
		t.Fatalf("anthropic client: %v", err)
	}
	if _, ok := client.(*anthropicmodel.Client); !ok {
		t.Fatalf("expected anthropic client, got %T", client)
	}
}

func TestRootCommand_RejectsArgs(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"unexpected"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for positional args")
	}
}

func TestRootCommand_Version(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetArgs([]string{"--version"})
	cmd.SetOut(&out)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out.String(), "gptui version "+version) {
		t.Fatalf("unexpected version output %q", out.String())
	}
}

type closeSpy struct{ closed int }

func (c *closeSpy) Close() error {
	c.closed++
	return nil
}

func TestExecute_ClosesLogFileOnEveryExit(t *testing.T) {
	failing := &cobra.Command{
		Use:           "gptui",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(*cobra.Command, []string) error { return errors.New("http_401: bad key") },
	}
	failing.SetArgs([]string{})
	spy := &closeSpy{}
	if code := execute(failing, spy); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if spy.closed != 1 {
		t.Fatalf("log file closed %d times on failure", spy.closed)
	}

	ok := &cobra.Command{Use: "gptui", RunE: func(*cobra.Command, []string) error { return nil }}
	ok.SetArgs([]string{})
	spy = &closeSpy{}
	if code := execute(ok, spy); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if spy.closed != 1 {
		t.Fatalf("log file closed %d times on success", spy.closed)
	}

	if code := execute(ok, nil); code != 0 {
		t.Fatalf("exit code without log file = %d", code)
	}
}
