package main

import (
	"fmt"

	"lingochat/internal/domain"
	"lingochat/internal/translate"

	"github.com/spf13/cobra"
)

func translateCmd() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "translate [text] [target]",
		Short: "Translate text using the configured translation backend",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			gateway, err := translate.NewGateway(translate.GatewayConfig{
				Provider: cfg.Translation.Provider,
				APIKey:   cfg.Translation.APIKey,
				BaseURL:  cfg.Translation.BaseURL,
				Logger:   logger,
			})
			if err != nil {
				return fmt.Errorf("translation gateway: %w", err)
			}

			result, err := gateway.Translate(cmd.Context(), args[0],
				domain.LanguageCode(args[1]), domain.LanguageCode(source))
			if err != nil {
				return err
			}

			fmt.Println(result.TranslatedText)
			logger.Info("translated", "backend", gateway.Name(), "detected", result.DetectedLanguage)
			return nil
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "source language code (auto-detect when empty)")
	return cmd
}
