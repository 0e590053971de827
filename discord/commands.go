package discord

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/eraiza0816/assistant-discord/logging"
)

// RegisterCommands creates each command globally for appID. Discord treats a
// create with an existing name as an overwrite, so this is safe on every start.
// All commands are attempted; the failures are joined in the returned error.
func RegisterCommands(s DiscordSession, appID string, commands []*discordgo.ApplicationCommand, logger *slog.Logger) error {
	logger = logging.Named(logger, "commands")

	var errs []error
	for _, cmd := range commands {
		registered, err := s.ApplicationCommandCreate(appID, "", cmd)
		if err != nil {
			logger.Error("コマンドの登録に失敗しました", "command", cmd.Name, logging.Err(err))
			errs = append(errs, fmt.Errorf("command %q: %w", cmd.Name, err))
			continue
		}
		logger.Info("command registered", "command", registered.Name, "id", registered.ID)
	}
	return errors.Join(errs...)
}
