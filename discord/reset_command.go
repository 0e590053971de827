package discord

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/eraiza0816/assistant-discord/logging"
)

const (
	resetDoneMessage     = "thread deleted"
	resetNoThreadMessage = "no thread to delete"
)

// resetCommandHandler deletes the channel's assistant thread so the next
// message starts a fresh conversation.
func (h *handlers) resetCommandHandler(s DiscordSession, i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	logger := h.logger.With("channel_id", i.ChannelID, "user_id", user.ID)
	logger.Info("User performed a reset operation", "user_name", user.Username)

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logger.Error("InteractionRespond error", logging.Err(err))
	}

	ctx := logging.WithLogger(h.ctx, logger)
	existed, err := h.chatSvc.Reset(ctx, i.ChannelID)
	if err != nil {
		sendErrorResponse(s, i, err, logger)
		return
	}
	if existed {
		if err := h.auditLog.LogReset(i.ChannelID, i.GuildID, user.ID, user.Username); err != nil {
			logger.Error("Failed to log reset event", logging.Err(err))
		}
	}

	content := resetNoThreadMessage
	if existed {
		content = resetDoneMessage
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
		logger.Error("InteractionResponseEdit error", logging.Err(err))
	}
}

func sendErrorResponse(s DiscordSession, i *discordgo.InteractionCreate, err error, logger *slog.Logger) {
	logger.Error("Error occurred", logging.Err(err))

	content := fmt.Sprintf("エラーが発生しました: %v", err)
	if _, editErr := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); editErr != nil {
		logger.Error("Failed to send error response via InteractionResponseEdit", logging.Err(editErr), "original_error", err)
	}
}
