package discord

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/eraiza0816/assistant-discord/chat"
	"github.com/eraiza0816/assistant-discord/history"
	"github.com/eraiza0816/assistant-discord/loader"
	"github.com/eraiza0816/assistant-discord/logging"
)

// handlers holds what the gateway event handlers share. ctx is the bot's
// run context; every relay started from an event derives from it.
type handlers struct {
	ctx      context.Context
	chatSvc  chat.Service
	auditLog *history.AuditLog
	logger   *slog.Logger
}

func (h *handlers) messageCreateHandler(s *discordgo.Session, m *discordgo.MessageCreate) {
	h.handleMessageEvent(s, m)
}

func (h *handlers) interactionCreateHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.handleInteractionEvent(s, i)
}

// handleMessageEvent relays a user's message to the assistant and posts the
// reply in the same channel. Bot authors, including this bot, are ignored.
func (h *handlers) handleMessageEvent(s DiscordSession, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	logger := h.logger.With("channel_id", m.ChannelID, "message_id", m.ID, "user_id", m.Author.ID)
	if strings.TrimSpace(m.Content) == "" {
		logger.Debug("empty message content, skipping")
		return
	}
	logger.Info("メッセージ受信", "user_name", m.Author.Username)

	if err := h.auditLog.LogMessage(m.ID, m.ChannelID, m.GuildID, m.Author.ID, m.Author.Username, m.Content, m.Timestamp); err != nil {
		logger.Error("Failed to log message create event", logging.Err(err))
	}

	if err := s.ChannelTyping(m.ChannelID); err != nil {
		logger.Debug("typing indicator failed", logging.Err(err))
	}

	ctx := logging.WithLogger(h.ctx, logger)
	responseText, err := h.chatSvc.GetResponse(ctx, m.ChannelID, m.Content)
	if err != nil {
		logger.Error("応答生成エラー", logging.Err(err))
		return
	}
	if responseText == "" {
		logger.Warn("応答が空です")
		return
	}

	if !sendReply(s, m.ChannelID, responseText, logger) {
		return
	}
	if err := h.auditLog.LogReply(m.ChannelID, m.GuildID, responseText); err != nil {
		logger.Error("Failed to log reply event", logging.Err(err))
	}
}

// sendReply posts text to the channel, split to fit Discord's message limit.
// It stops at the first failed chunk and reports whether everything was sent.
func sendReply(s DiscordSession, channelID, text string, logger *slog.Logger) bool {
	for _, chunk := range splitMessage(text) {
		if _, err := s.ChannelMessageSend(channelID, chunk); err != nil {
			logger.Error("返信送信エラー", logging.Err(err))
			return false
		}
	}
	return true
}

func (h *handlers) handleInteractionEvent(s DiscordSession, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch name := i.ApplicationCommandData().Name; name {
	case loader.RestartCommandName:
		h.resetCommandHandler(s, i)
	default:
		h.logger.Debug("unknown command", "command", name, "channel_id", i.ChannelID)
	}
}

// interactionUser returns the invoking user. Guild interactions carry it on
// Member, DMs on User.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	if i.User != nil {
		return i.User
	}
	return &discordgo.User{}
}
