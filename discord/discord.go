package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/eraiza0816/assistant-discord/chat"
	"github.com/eraiza0816/assistant-discord/config"
	"github.com/eraiza0816/assistant-discord/history"
	"github.com/eraiza0816/assistant-discord/logging"
)

const intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

// NewSession returns an unopened bot session. logLevel filters what discordgo
// hands to its package logger.
func NewSession(token string, logLevel slog.Level) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("Discordセッションの作成に失敗しました: %w", err)
	}
	session.Identify.Intents = intents
	session.LogLevel = logging.DiscordgoLevel(logLevel)
	return session, nil
}

type Bot struct {
	session  *discordgo.Session
	cfg      *config.Config
	chatSvc  chat.Service
	auditLog *history.AuditLog
	commands []*discordgo.ApplicationCommand
	logger   *slog.Logger

	connected atomic.Bool
}

func NewBot(
	cfg *config.Config,
	session *discordgo.Session,
	chatSvc chat.Service,
	auditLog *history.AuditLog,
	commands []*discordgo.ApplicationCommand,
	logger *slog.Logger,
) *Bot {
	return &Bot{
		session:  session,
		cfg:      cfg,
		chatSvc:  chatSvc,
		auditLog: auditLog,
		commands: commands,
		logger:   logging.Named(logger, "discord"),
	}
}

// Connected reports whether the gateway connection is currently up.
func (b *Bot) Connected() bool {
	return b.connected.Load()
}

// Run registers the slash commands, opens the gateway and serves events until
// ctx is cancelled. Command registration failures are logged only.
func (b *Bot) Run(ctx context.Context) error {
	h := &handlers{
		ctx:      ctx,
		chatSvc:  b.chatSvc,
		auditLog: b.auditLog,
		logger:   b.logger,
	}
	removers := []func(){
		b.session.AddHandler(b.onReady),
		b.session.AddHandler(b.onResumed),
		b.session.AddHandler(b.onDisconnect),
		b.session.AddHandler(h.messageCreateHandler),
		b.session.AddHandler(h.interactionCreateHandler),
	}
	defer func() {
		for _, remove := range removers {
			remove()
		}
	}()

	if err := RegisterCommands(b.session, b.cfg.DiscordApplicationID, b.commands, b.logger); err != nil {
		b.logger.Warn("some commands could not be registered", logging.Err(err))
	}

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("Discordへの接続に失敗しました: %w", err)
	}
	b.logger.Info("Bot is running.")

	<-ctx.Done()

	b.logger.Info("Bot shutting down...")
	b.connected.Store(false)
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	b.connected.Store(true)
	b.logger.Info("Bot is ready!", "user", event.User.Username, "guilds", len(event.Guilds))
}

func (b *Bot) onResumed(s *discordgo.Session, event *discordgo.Resumed) {
	b.connected.Store(true)
	b.logger.Info("gateway session resumed")
}

func (b *Bot) onDisconnect(s *discordgo.Session, event *discordgo.Disconnect) {
	b.connected.Store(false)
	b.logger.Warn("gateway disconnected")
}
