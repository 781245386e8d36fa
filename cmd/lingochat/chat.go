package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"lingochat/internal/domain"
	"lingochat/internal/language"

	"github.com/spf13/cobra"
)

func chatCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pipe, st, _, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			userLang := cfg.Chat.DefaultLanguage
			if lang != "" {
				userLang = domain.LanguageCode(lang)
			}

			conv, err := st.InsertConversation(ctx, domain.Conversation{
				UserID:   cliUserID,
				Title:    "CLI session",
				Language: userLang,
			})
			if err != nil {
				return fmt.Errorf("create conversation: %w", err)
			}

			fmt.Printf("LingoChat %s %s. Type your message and press Enter. Type /quit to exit.\n",
				language.Flag(userLang), language.Name(userLang))
			fmt.Print("You> ")

			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				select {
				case <-ctx.Done():
					return nil
				default:
				}

				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					fmt.Print("You> ")
					continue
				}
				if line == "/quit" || line == "/exit" || line == "/q" {
					return nil
				}

				msg, err := pipe.HandleUserMessage(ctx, conv.ID, line, userLang, nil)
				if err != nil {
					fmt.Fprintln(os.Stderr, "error:", err)
					fmt.Print("You> ")
					continue
				}

				fmt.Println("--- LingoChat ---")
				fmt.Println(msg.Content)
				fmt.Println("-----------------")
				fmt.Print("You> ")
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVarP(&lang, "language", "l", "", "reply language code (default from config)")
	return cmd
}
