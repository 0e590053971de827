package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eraiza0816/assistant-discord/logging"
	"github.com/eraiza0816/assistant-discord/store"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/singleflight"
)

// ThreadManager owns the channel → thread lifecycle: create on first
// contact, delete on reset.
type ThreadManager struct {
	client AssistantClient
	store  store.ConversationStore
	logger *slog.Logger

	// creating collapses concurrent first messages for one channel in this
	// process onto a single CreateThread call.
	creating singleflight.Group
}

func NewThreadManager(client AssistantClient, conversations store.ConversationStore, logger *slog.Logger) *ThreadManager {
	return &ThreadManager{
		client: client,
		store:  conversations,
		logger: logging.Named(logger, "threads"),
	}
}

// ResolveOrCreate returns the thread mapped to channelID, creating and
// storing a new one when there is none. Store read failures count as a miss.
func (m *ThreadManager) ResolveOrCreate(ctx context.Context, channelID string) (string, error) {
	logger := logging.ContextLogger(ctx, m.logger)

	if threadID, ok := m.lookup(ctx, channelID, logger); ok {
		return threadID, nil
	}

	v, err, _ := m.creating.Do(channelID, func() (any, error) {
		// another caller may have stored one while we waited
		if threadID, ok := m.lookup(ctx, channelID, logger); ok {
			return threadID, nil
		}
		thread, err := m.client.CreateThread(ctx, openai.ThreadRequest{})
		if err != nil {
			return "", fmt.Errorf("スレッドの作成に失敗しました: %w", err)
		}
		logger.Info("new thread created", "channel_id", channelID, "thread_id", thread.ID)

		if err := m.store.Set(ctx, channelID, thread.ID); err != nil {
			logger.Error("failed to store thread mapping", "channel_id", channelID, "thread_id", thread.ID, logging.Err(err))
		}
		return thread.ID, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Reset deletes the channel's thread at the provider and forgets the mapping.
// It reports whether there was a mapping. Provider errors are logged only;
// the mapping is removed regardless. The returned error is a store failure.
func (m *ThreadManager) Reset(ctx context.Context, channelID string) (bool, error) {
	logger := logging.ContextLogger(ctx, m.logger)

	threadID, ok := m.lookup(ctx, channelID, logger)
	if !ok {
		return false, nil
	}

	if _, err := m.client.DeleteThread(ctx, threadID); err != nil {
		logger.Error("failed to delete thread", "channel_id", channelID, "thread_id", threadID, logging.Err(err))
	} else {
		logger.Info("old thread deleted", "channel_id", channelID, "thread_id", threadID)
	}

	if err := m.store.Delete(ctx, channelID); err != nil {
		return true, fmt.Errorf("チャンネル %s のマッピング削除に失敗しました: %w", channelID, err)
	}
	return true, nil
}

// Forget drops the mapping without touching the provider.
func (m *ThreadManager) Forget(ctx context.Context, channelID string) error {
	return m.store.Delete(ctx, channelID)
}

func (m *ThreadManager) lookup(ctx context.Context, channelID string, logger *slog.Logger) (string, bool) {
	threadID, ok, err := m.store.Get(ctx, channelID)
	if err != nil {
		logger.Warn("conversation store lookup failed, treating as absent", "channel_id", channelID, logging.Err(err))
		return "", false
	}
	return threadID, ok
}
