package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/necyberteam/qabot"
	"github.com/necyberteam/qabot/internal/logging"
	"github.com/necyberteam/qabot/internal/tui"
	"github.com/necyberteam/qabot/pkg/domain"
	"github.com/necyberteam/qabot/pkg/query"
	"github.com/necyberteam/qabot/pkg/submit"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run the assistant interactively in the terminal",
	Long:  `Starts a single conversation on stdin/stdout. Markdown is rendered when stdout is a terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if flag, _ := cmd.Flags().GetString("log-level"); flag != "" {
			cfg.LogLevel = flag
		}
		level, err := parseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger := logging.New(level)

		if url, _ := cmd.Flags().GetString("ticket-url"); url != "" {
			cfg.Tickets.BaseURL = url
		}
		if url, _ := cmd.Flags().GetString("query-url"); url != "" {
			cfg.Query.BaseURL = url
		}
		if cfg.Tickets.BaseURL == "" {
			return fmt.Errorf("ticket proxy URL is required (--ticket-url or config)")
		}

		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		username, _ := cmd.Flags().GetString("username")
		anonymous, _ := cmd.Flags().GetBool("anonymous")
		dev, _ := cmd.Flags().GetBool("dev")

		sessionID := fmt.Sprintf("cli-%d", os.Getpid())

		opts := []qabot.Option{
			qabot.WithLogger(logger),
			qabot.WithIdentity(domain.Identity{Email: email, Name: name, Username: username}),
		}
		if !anonymous && cfg.Query.BaseURL != "" {
			opts = append(opts, qabot.WithQueryClient(
				query.NewClient(cfg.Query.BaseURL, cfg.Query.APIKey, sessionID, query.WithLogger(logger)),
			))
		}
		if dev || cfg.DevDesk {
			opts = append(opts, qabot.WithDevDesk())
		}

		tickets := submit.NewClient(cfg.Tickets.BaseURL, submit.WithLogger(logger))
		bot, err := qabot.New(sessionID, tickets, opts...)
		if err != nil {
			return err
		}

		runner := &qabot.Runner{
			Input:  os.Stdin,
			Output: os.Stdout,
		}
		if term.IsTerminal(int(os.Stdout.Fd())) {
			tui.PrintBanner()
			runner.Renderer = tui.NewRenderer()
		} else {
			runner.Headless = true
		}

		return runner.Run(context.Background(), bot)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().String("ticket-url", "", "Base URL of the ticket proxy")
	chatCmd.Flags().String("query-url", "", "Base URL of the AI query backend")
	chatCmd.Flags().String("email", "", "Known email of the logged-in user")
	chatCmd.Flags().String("name", "", "Known name of the logged-in user")
	chatCmd.Flags().String("username", "", "Known ACCESS ID of the logged-in user")
	chatCmd.Flags().Bool("anonymous", false, "Treat the user as logged out (Q&A disabled)")
	chatCmd.Flags().Bool("dev", false, "Route help tickets to the developer service desk")
}
