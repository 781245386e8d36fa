package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"lingochat/internal/channel"
	"lingochat/internal/config"
	"lingochat/internal/generate"
	"lingochat/internal/language"
	"lingochat/internal/pipeline"
	"lingochat/internal/store"
	"lingochat/internal/translate"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// cliUserID owns conversations created from the terminal commands.
const cliUserID = "cli"

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	_ = godotenv.Load()

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "lingochat",
		Short: "LingoChat: multilingual chat assistant server",
		Long:  "LingoChat detects message language, generates multilingual assistant replies, and persists conversations.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.lingochat/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(translateCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(configCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func loadConfig() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
		cfg.General.DataDir = config.ExpandPath(cfg.General.DataDir)
		cfg.Store.DBPath = config.ExpandPath(cfg.Store.DBPath)
	}
	return cfg
}

func logLevel(cfg *config.Config) slog.Level {
	switch cfg.General.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildPipeline wires the classifier, store, generator, and translator from
// config. The returned cleanup closes the store.
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, *store.SQLiteStore, *translate.Gateway, error) {
	classifier, err := language.NewClassifier(language.ClassifierConfig{
		DefaultLanguage: cfg.Chat.DefaultLanguage,
		RulesDir:        cfg.Language.RulesDir,
		Logger:          logger,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("classifier: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Store.DBPath, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("conversation store: %w", err)
	}

	gateway, err := translate.NewGateway(translate.GatewayConfig{
		Provider: cfg.Translation.Provider,
		APIKey:   cfg.Translation.APIKey,
		BaseURL:  cfg.Translation.BaseURL,
		Logger:   logger,
	})
	if err != nil {
		st.Close()
		return nil, nil, nil, fmt.Errorf("translation gateway: %w", err)
	}

	generator := generate.New(generate.Config{
		APIKey:      cfg.LLM.APIKey,
		APIBase:     cfg.LLM.APIBase,
		Model:       cfg.LLM.Model,
		Temperature: &cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Logger:      logger,
	})
	if cfg.LLM.APIKey == "" {
		logger.Warn("no completion provider configured, replies will be static fallbacks")
	}

	pipe := pipeline.New(pipeline.Config{
		Classifier:    classifier,
		Store:         st,
		Responder:     generator,
		ContextWindow: cfg.Chat.MaxContextMessages,
		Logger:        logger,
	})

	return pipe, st, gateway, nil
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config and data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the chat API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg)}))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pipe, st, gateway, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			web := channel.NewWeb(channel.WebConfig{
				Host:            cfg.Server.Host,
				Port:            cfg.Server.Port,
				Pipeline:        pipe,
				Store:           st,
				Translator:      gateway,
				DefaultLanguage: cfg.Chat.DefaultLanguage,
				Version:         version,
				Logger:          logger,
			})

			logger.Info("serving", "translation", gateway.Name(), "window", cfg.Chat.MaxContextMessages)
			return web.Start(ctx)
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Info("config", "path", cfgPath, "loaded", false)
				cfg = config.Defaults()
			} else {
				logger.Info("config", "path", cfgPath, "loaded", true)
			}
			logger.Info("llm", "model", cfg.LLM.Model, "configured", cfg.LLM.APIKey != "")
			logger.Info("translation", "provider", cfg.Translation.Provider)
			logger.Info("chat", "window", cfg.Chat.MaxContextMessages, "defaultLanguage", cfg.Chat.DefaultLanguage)

			st, err := store.NewSQLiteStore(cfg.Store.DBPath, logger)
			if err != nil {
				logger.Warn("store unavailable", "path", cfg.Store.DBPath, "err", err)
				return nil
			}
			defer st.Close()

			convs, err := st.Conversations(cmd.Context(), cliUserID)
			if err != nil {
				return fmt.Errorf("list conversations: %w", err)
			}
			awaitingTotal := 0
			for _, conv := range convs {
				awaiting, err := st.ListAwaitingReply(cmd.Context(), conv.ID)
				if err != nil {
					return fmt.Errorf("list awaiting: %w", err)
				}
				if len(awaiting) == 0 {
					continue
				}
				awaitingTotal += len(awaiting)
				logger.Info("awaiting reply", "conversation", conv.ID, "title", conv.Title, "messages", len(awaiting))
			}
			logger.Info("conversations", "total", len(convs), "awaitingReply", awaitingTotal)
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. llm.model)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. chat.maxContextMessages 20)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("validation: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			sanitized := config.Sanitize(cfg)
			data, _ := json.MarshalIndent(sanitized, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}
