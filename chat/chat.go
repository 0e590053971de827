// Package chat relays channel messages to an OpenAI assistant thread and
// manages the lifetime of those threads.
package chat

import (
	"context"
	"errors"
	"log/slog"

	"github.com/eraiza0816/assistant-discord/config"
	"github.com/eraiza0816/assistant-discord/logging"
	"github.com/eraiza0816/assistant-discord/store"
)

type Service interface {
	// GetResponse returns the assistant's reply to message in channelID's
	// thread, or a run status text when the run did not complete.
	GetResponse(ctx context.Context, channelID, message string) (string, error)
	// Reset deletes channelID's thread. It reports whether one existed.
	Reset(ctx context.Context, channelID string) (bool, error)
}

type Chat struct {
	threads                *ThreadManager
	relay                  *Relay
	recreateMissingThreads bool
	logger                 *slog.Logger
}

var _ Service = (*Chat)(nil)

func NewChat(cfg *config.Config, client AssistantClient, conversations store.ConversationStore, logger *slog.Logger) *Chat {
	logger = logging.Named(logger, "chat")
	return &Chat{
		threads:                NewThreadManager(client, conversations, logger),
		relay:                  NewRelay(client, cfg, logger),
		recreateMissingThreads: cfg.RecreateMissingThreads,
		logger:                 logger,
	}
}

func (c *Chat) GetResponse(ctx context.Context, channelID, message string) (string, error) {
	ctx = logging.WithLogger(ctx, logging.ContextLogger(ctx, c.logger).With("channel_id", channelID))

	threadID, err := c.threads.ResolveOrCreate(ctx, channelID)
	if err != nil {
		return "", err
	}

	reply, err := c.relay.SubmitAndAwait(ctx, threadID, message)
	if err == nil || !c.recreateMissingThreads || !errors.Is(err, ErrThreadNotFound) {
		return reply, err
	}

	// The stored thread is gone at the provider: start over once.
	logging.ContextLogger(ctx, c.logger).Warn("stored thread no longer exists, creating a new one", "thread_id", threadID)
	if err := c.threads.Forget(ctx, channelID); err != nil {
		return "", err
	}
	threadID, err = c.threads.ResolveOrCreate(ctx, channelID)
	if err != nil {
		return "", err
	}
	return c.relay.SubmitAndAwait(ctx, threadID, message)
}

func (c *Chat) Reset(ctx context.Context, channelID string) (bool, error) {
	ctx = logging.WithLogger(ctx, logging.ContextLogger(ctx, c.logger).With("channel_id", channelID))
	return c.threads.Reset(ctx, channelID)
}

// VerifyAssistant checks that the configured assistant exists.
func VerifyAssistant(ctx context.Context, client AssistantClient, assistantID string) error {
	_, err := client.RetrieveAssistant(ctx, assistantID)
	return err
}
