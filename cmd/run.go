package cmd

import (
	"context"
	"fmt"

	"github.com/eraiza0816/assistant-discord/chat"
	"github.com/eraiza0816/assistant-discord/discord"
	"github.com/eraiza0816/assistant-discord/health"
	"github.com/eraiza0816/assistant-discord/history"
	"github.com/eraiza0816/assistant-discord/loader"
	"github.com/eraiza0816/assistant-discord/logging"
	"github.com/eraiza0816/assistant-discord/store"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot (and the health server when HEALTH_ADDR is set)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runBot(cmd.Context())
	},
}

func runBot(ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	conversations, err := store.Open(cfg.StoreDriver, cfg.StoreDSN, logger)
	if err != nil {
		return fmt.Errorf("会話ストアの初期化に失敗しました: %w", err)
	}
	defer conversations.Close()

	auditLog, err := history.NewAuditLog(cfg.AuditLogPath)
	if err != nil {
		return err
	}

	commands, err := loader.LoadCommands(cfg.CommandsFile)
	if err != nil {
		return fmt.Errorf("コマンド定義の読み込みに失敗しました: %w", err)
	}

	client := chat.NewOpenAIClient(cfg, nil)
	if err := chat.VerifyAssistant(ctx, client, cfg.AssistantID); err != nil {
		logger.Warn("could not verify assistant", "assistant_id", cfg.AssistantID, logging.Err(err))
	}
	chatSvc := chat.NewChat(cfg, client, conversations, logger)

	session, err := discord.NewSession(cfg.DiscordBotToken, levelVar.Level())
	if err != nil {
		return err
	}
	bot := discord.NewBot(cfg, session, chatSvc, auditLog, commands, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(ctx)
	})
	if cfg.HealthAddr != "" {
		g.Go(func() error {
			return health.Serve(ctx, cfg.HealthAddr, bot.Connected, logger)
		})
	}
	return g.Wait()
}

//goland:noinspection GoLinter
func init() {
	rootCmd.AddCommand(runCmd)
}
