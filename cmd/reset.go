package cmd

import (
	"fmt"

	"github.com/eraiza0816/assistant-discord/chat"
	"github.com/eraiza0816/assistant-discord/history"
	"github.com/eraiza0816/assistant-discord/logging"
	"github.com/eraiza0816/assistant-discord/store"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset <channel-id>",
	Short: "Delete the assistant thread mapped to a channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channelID := args[0]
		if err := cfg.ValidateAssistant(); err != nil {
			return err
		}

		conversations, err := store.Open(cfg.StoreDriver, cfg.StoreDSN, logger)
		if err != nil {
			return fmt.Errorf("会話ストアの初期化に失敗しました: %w", err)
		}
		defer conversations.Close()

		chatSvc := chat.NewChat(cfg, chat.NewOpenAIClient(cfg, nil), conversations, logger)
		existed, err := chatSvc.Reset(cmd.Context(), channelID)
		if err != nil {
			return err
		}

		if !existed {
			fmt.Fprintf(cmd.OutOrStdout(), "channel %s: no thread to delete\n", channelID)
			return nil
		}
		auditLog, err := history.NewAuditLog(cfg.AuditLogPath)
		if err == nil {
			err = auditLog.LogReset(channelID, "", "", "cli")
		}
		if err != nil {
			logger.Error("Failed to log reset event", logging.Err(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "channel %s: thread deleted\n", channelID)
		return nil
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(resetCmd)
}
