package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"os/user"
	"strings"
	"syscall"

	"gptui/internal/agent"
	anthropicmodel "gptui/internal/agent/anthropic"
	openaimodel "gptui/internal/agent/openai"
	"gptui/internal/config"
	"gptui/internal/lineedit"
	"gptui/internal/logger"
	"gptui/internal/prompt"
	"gptui/internal/render"
	"gptui/internal/session"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var version = "dev"

type rootFlags struct {
	configPath string
	overrides  []string
	model      string
	logLevel   string
}

// usageError 表示 cobra 已经打印过的参数错误。
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func newRootCommand() *cobra.Command {
	var flags rootFlags
	cmd := &cobra.Command{
		Use:           "gptui",
		Short:         "Chat with a language model in the terminal",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags)
		},
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		c.PrintErrln("Error:", err)
		c.PrintErrln(c.UsageString())
		return usageError{err: err}
	})
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to the config file (.json or .toml)")
	cmd.Flags().StringArrayVarP(&flags.overrides, "config-override", "c", nil, "Override config value key=value (repeatable)")
	cmd.Flags().StringVar(&flags.model, "model", "", "Model name, overrides the config file")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "Log level written to the log file")
	return cmd
}

func run(parent context.Context, flags rootFlags) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM)
	defer stop()

	if err := logger.SetLevel(flags.logLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log := logger.Named("main")

	username := currentUsername()
	stdin := bufio.NewReader(os.Stdin)
	cfg, err := loadConfig(flags, username, stdin, os.Stdout)
	if err != nil {
		return err
	}
	log.Infof("config loaded path=%s provider=%s model=%s", cfg.Source, cfg.ProviderName(), cfg.ModelName())

	client, err := buildClient(cfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	s := session.New(session.Options{
		Client:   client,
		Editor:   buildEditor(cfg, stdin),
		Renderer: prompt.New(username, render.UserStyle),
		Out:      os.Stdout,
		Username: username,
		AIName:   cfg.Name(),
	})
	log.WithField("session_id", s.ID()).Info("session ready")
	return s.Run(ctx)
}

// loadConfig 按 --config、默认路径、首次运行生成的顺序取得配置，再叠加命令行覆盖。
func loadConfig(flags rootFlags, username string, in io.Reader, out io.Writer) (config.Config, error) {
	path := strings.TrimSpace(flags.configPath)
	var (
		cfg config.Config
		err error
	)
	switch {
	case path != "":
		cfg, err = config.Load(path)
	case config.Exists(config.DefaultPath(username)):
		cfg, err = config.Load(config.DefaultPath(username))
	default:
		cfg, err = config.Generate(in, out, render.SetupPrompt("Enter your api key"), config.DefaultPath(username))
	}
	if err != nil {
		return config.Config{}, err
	}
	cfg = config.ApplyKVOverrides(cfg, flags.overrides)
	if m := strings.TrimSpace(flags.model); m != "" {
		cfg.Model = m
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func buildClient(cfg config.Config) (agent.ModelClient, error) {
	switch cfg.ProviderName() {
	case "anthropic":
		return anthropicmodel.New(anthropicmodel.Options{
			Token:   cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.ModelName(),
		})
	default:
		return openaimodel.New(openaimodel.Options{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.ModelName(),
			WireAPI: cfg.WireAPI,
		})
	}
}

func buildEditor(cfg config.Config, stdin io.Reader) lineedit.Editor {
	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		vi := strings.EqualFold(strings.TrimSpace(cfg.EditMode), "vi")
		return lineedit.NewTTY(os.Stdin, os.Stdout, vi)
	}
	return lineedit.NewPlain(stdin, os.Stdout)
}

func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := strings.TrimSpace(os.Getenv("USER")); name != "" {
		return name
	}
	return "user"
}
